package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"finflow/internal/budget"
	"finflow/internal/cli"
	"finflow/internal/core"
	"finflow/internal/notify"
)

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Manage the wallet budget",
}

var budgetSetCmd = &cobra.Command{
	Use:   "set FILE",
	Short: "Activate the budget described by a TOML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runBudgetSet,
}

var budgetStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show wallet usage for the current period",
	Args:  cobra.NoArgs,
	RunE:  runBudgetStatus,
}

var budgetSuggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest a wallet split from the current health grade",
	Args:  cobra.NoArgs,
	RunE:  runBudgetSuggest,
}

func init() {
	budgetCmd.AddCommand(budgetSetCmd, budgetStatusCmd, budgetSuggestCmd)
	rootCmd.AddCommand(budgetCmd)
}

func runBudgetSet(cmd *cobra.Command, args []string) error {
	b, err := budget.LoadFile(args[0])
	if err != nil {
		return err
	}
	saved, err := app.Service.Budgets().SaveBudget(cmd.Context(), b)
	if err != nil {
		return err
	}
	fmt.Printf("Budget #%d active: %s from %s in %s\n", saved.ID, saved.Cycle, saved.StartDate.Key(), saved.Currency)
	for _, w := range saved.Wallets {
		fmt.Printf("  %-12s %3d%%\n", w.Name, w.PercentShare)
	}
	return nil
}

func runBudgetStatus(cmd *cobra.Command, _ []string) error {
	report, err := app.Service.Budgets().Progress(cmd.Context(), now())
	if errors.Is(err, core.ErrNoActiveBudget) {
		fmt.Println("No active budget. Create one with: finflow budget set FILE")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Print(cli.FormatReport(report))
	for _, e := range notify.Evaluate(report.Wallets) {
		title, body := notify.Render(e)
		fmt.Printf("! %s: %s\n", title, body)
	}
	return nil
}

func runBudgetSuggest(cmd *cobra.Command, _ []string) error {
	grade := budget.GradeA
	report, err := app.Service.Budgets().Progress(cmd.Context(), now())
	switch {
	case err == nil:
		grade = report.Grade
	case !errors.Is(err, core.ErrNoActiveBudget):
		return err
	}
	fmt.Printf("Grade %s, suggested split:\n", grade)
	for _, w := range budget.RecommendedShares(grade) {
		fmt.Printf("  %-12s %3d%%\n", w.Name, w.PercentShare)
	}
	return nil
}
