package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/newthinker/polyedge/internal/app"
	"github.com/newthinker/polyedge/internal/core"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Run the signal generator once and exit",
	RunE:  runGenerate,
}

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Run the outcome tracker once and exit",
	RunE:  runTrack,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(trackCmd)
}

// withApp wires the application for a one-shot command.
func withApp(fn func(a *app.App, log *zap.Logger) error) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := app.New(cfg, log)
	if err != nil {
		return fmt.Errorf("wiring app: %w", err)
	}
	defer a.Close()

	if cfg.Storage.Driver == "" || cfg.Storage.Driver == "memory" {
		log.Warn("memory storage selected, results are discarded on exit")
	}
	return fn(a, log)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App, log *zap.Logger) error {
		report, err := a.RunGenerate(context.Background())
		if err != nil {
			return fmt.Errorf("generator run: %w", err)
		}

		fmt.Printf("Run %s: scanned %d markets, skipped %d, generated %d signals\n",
			report.RunID, report.MarketsScanned, report.MarketsSkipped, report.SignalsGenerated)
		printItemErrors(report.Errors)

		if len(report.Signals) == 0 {
			return nil
		}
		fmt.Println()
		printSignals(report.Signals)
		return nil
	})
}

func runTrack(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App, log *zap.Logger) error {
		report, err := a.RunTrack(context.Background())
		if err != nil {
			return fmt.Errorf("tracker run: %w", err)
		}

		fmt.Printf("Run %s: processed %d signals\n", report.RunID, report.Processed)
		fmt.Printf("  Updated:  %d\n", report.Updated)
		fmt.Printf("  Resolved: %d\n", report.Resolved)
		fmt.Printf("  Expired:  %d\n", report.Expired)
		fmt.Printf("  Failed:   %d\n", report.Failed)
		printItemErrors(report.Errors)
		return nil
	})
}

func printItemErrors(errs []core.ItemError) {
	for _, e := range errs {
		fmt.Fprintf(os.Stderr, "  %s [%s] %s\n", e.ID, e.Code, e.Reason)
	}
}

func printSignals(signals []core.Signal) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMARKET\tTYPE\tDIR\tCONF\tENTRY\tTIER\tSTATUS\tCREATED\t")
	fmt.Fprintln(w, "--\t------\t----\t---\t----\t-----\t----\t------\t-------\t")

	for _, s := range signals {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%.3f\t%s\t%s\t%s\t\n",
			shortID(s.ID), s.MarketID, s.Type, s.Direction, s.Confidence,
			s.EntryPrice, s.MarketTier, s.Status, s.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
