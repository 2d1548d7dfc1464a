package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"finflow/internal/cli"
	"finflow/internal/core"
	"finflow/internal/notify"
	"finflow/internal/services"
)

var (
	flagHistoryDays int
	flagImportApply bool
)

var parseCmd = &cobra.Command{
	Use:   "parse TEXT...",
	Short: "Show the drafts a phrase would produce without saving them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runParse,
}

var addCmd = &cobra.Command{
	Use:   "add TEXT...",
	Short: "Parse a phrase and confirm every draft it produces",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAdd,
}

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Interactive prompt: type phrases, review drafts, confirm with y",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

var importCmd = &cobra.Command{
	Use:   "import FILE...",
	Short: "Turn extracted receipt records (JSON arrays) into drafts",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImport,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded transactions",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&flagHistoryDays, "days", "n", 30, "Time window in days")
	importCmd.Flags().BoolVar(&flagImportApply, "confirm", false, "Confirm the imported drafts instead of only listing them")

	rootCmd.AddCommand(parseCmd, addCmd, shellCmd, importCmd, historyCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	drafts := app.Service.Parse(cmd.Context(), strings.Join(args, " "), now())
	if len(drafts) == 0 {
		fmt.Println("No transaction found.")
		return nil
	}
	for _, d := range drafts {
		fmt.Println(cli.FormatDraft(d))
	}
	return nil
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	t := now()
	drafts := app.Service.Parse(ctx, strings.Join(args, " "), t)
	if len(drafts) == 0 {
		fmt.Println("No transaction found.")
		return nil
	}
	results, err := app.Service.ConfirmAll(ctx, drafts, core.SourceText, t)
	printResults(results)
	return err
}

func runShell(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	app.Caches.StartCleanup(app.Config.CacheCleanupInterval)

	// Stdin reads cannot be cancelled, so the scanner feeds a channel and
	// the prompt loop stops on whichever ends first.
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	var pending []core.TransactionDraft
	prompt := func() {
		if len(pending) > 0 {
			fmt.Print("confirm? [y/N] ")
		} else {
			fmt.Print("> ")
		}
	}

	prompt()
	for {
		select {
		case <-ctx.Done():
			fmt.Println()
			return nil
		case line, ok := <-lines:
			if !ok {
				fmt.Println()
				return nil
			}
			line = strings.TrimSpace(line)
			if len(pending) > 0 {
				if strings.EqualFold(line, "y") || strings.EqualFold(line, "yes") {
					results, err := app.Service.ConfirmAll(ctx, pending, core.SourceText, now())
					printResults(results)
					if err != nil {
						fmt.Println("error:", err)
					}
				} else {
					fmt.Println("Discarded.")
				}
				pending = nil
				prompt()
				continue
			}

			switch line {
			case "":
			case "quit", "exit":
				return nil
			default:
				pending = app.Service.Parse(ctx, line, now())
				if len(pending) == 0 {
					fmt.Println("No transaction found.")
				}
				for _, d := range pending {
					fmt.Println(cli.FormatDraft(d))
				}
			}
			prompt()
		}
	}
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	batches := make([][]core.ExtractedRecord, len(args))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range args {
		g.Go(func() error {
			records, err := readExtracted(gctx, path)
			if err != nil {
				return err
			}
			batches[i] = records
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	t := now()
	var drafts []core.TransactionDraft
	for _, records := range batches {
		drafts = append(drafts, app.Service.ImportExtracted(ctx, records, t)...)
	}
	if len(drafts) == 0 {
		fmt.Println("No usable records.")
		return nil
	}
	if !flagImportApply {
		for _, d := range drafts {
			fmt.Println(cli.FormatDraft(d))
		}
		fmt.Printf("%d drafts. Re-run with --confirm to save them.\n", len(drafts))
		return nil
	}

	results, err := app.Service.ConfirmAll(ctx, drafts, core.SourceImage, t)
	printResults(results)
	return err
}

func readExtracted(ctx context.Context, path string) ([]core.ExtractedRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var records []core.ExtractedRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return records, nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if flagHistoryDays < 1 {
		return fmt.Errorf("--days must be at least 1")
	}
	today := core.DateOf(now())
	txs, err := app.Backend.Store.ListTransactions(cmd.Context(), today.AddDays(-(flagHistoryDays - 1)), today)
	if err != nil {
		return err
	}
	if len(txs) == 0 {
		fmt.Println("No transactions.")
		return nil
	}
	for _, tx := range txs {
		fmt.Println(cli.FormatTransaction(tx))
	}
	return nil
}

func printResults(results []services.ConfirmResult) {
	for _, r := range results {
		if r.Duplicate {
			fmt.Println("Skipped duplicate (already confirmed moments ago).")
			continue
		}
		fmt.Printf("Saved #%d %s %s\n", r.Transaction.ID, cli.FormatMoney(r.Transaction.Amount), r.Transaction.Category)
		if r.Loan != nil {
			fmt.Printf("  %s record %s\n", r.Loan.Direction, r.Loan.ID)
		}
		if r.Activity.Awarded > 0 {
			fmt.Printf("  +%d coins, streak %d day(s)\n", r.Activity.Awarded, r.Activity.Streak.Current)
		}
		for _, e := range r.Events {
			title, body := notify.Render(e)
			fmt.Printf("  ! %s: %s\n", title, body)
		}
	}
}
