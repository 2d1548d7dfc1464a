package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"finflow/internal/cli"
)

var streakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Show the logging streak, coin balance and two-week calendar",
	Args:  cobra.NoArgs,
	RunE:  runStreak,
}

var rewardsCmd = &cobra.Command{
	Use:   "rewards",
	Short: "List rewards that can be bought with coins",
	Args:  cobra.NoArgs,
	RunE:  runRewards,
}

var redeemCmd = &cobra.Command{
	Use:   "redeem CODE",
	Short: "Spend coins on a reward",
	Args:  cobra.ExactArgs(1),
	RunE:  runRedeem,
}

func init() {
	rootCmd.AddCommand(streakCmd, rewardsCmd, redeemCmd)
}

func runStreak(cmd *cobra.Command, _ []string) error {
	state, err := app.Service.Streaks().State(cmd.Context(), now())
	if err != nil {
		return err
	}
	today := "not yet logged today"
	if state.Streak.CompletedToday {
		today = "logged today"
	}
	fmt.Printf("Streak %d day(s), best %d (%s)\n", state.Streak.Current, state.Streak.Best, today)
	fmt.Printf("Coins  %s\n", cli.FormatNumber(state.Balance))
	fmt.Println(cli.FormatCalendar(state.Calendar))
	return nil
}

func runRewards(_ *cobra.Command, _ []string) error {
	catalog := app.Service.Streaks().Catalog()
	codes := make([]string, 0, len(catalog))
	for code := range catalog {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		fmt.Printf("  %-12s %5d coins\n", code, catalog[code])
	}
	return nil
}

func runRedeem(cmd *cobra.Command, args []string) error {
	res, err := app.Service.Streaks().Redeem(cmd.Context(), args[0], now())
	if err != nil {
		return err
	}
	if !res.OK {
		fmt.Printf("Not redeemed: %s (balance %d)\n", res.Reason, res.Balance)
		return nil
	}
	fmt.Printf("Redeemed %s, balance %d\n", args[0], res.Balance)
	return nil
}
