package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/newthinker/polyedge/internal/app"
	"github.com/newthinker/polyedge/internal/core"
	"github.com/newthinker/polyedge/internal/storage/signal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	signalsStatus string
	signalsLimit  int
	exportPath    string
)

var signalsCmd = &cobra.Command{
	Use:   "signals",
	Short: "List stored signals",
	RunE:  runSignals,
}

var trackRecordCmd = &cobra.Command{
	Use:   "track-record",
	Short: "Show signal performance",
	RunE:  runTrackRecord,
}

func init() {
	signalsCmd.Flags().StringVar(&signalsStatus, "status", "", "comma-separated statuses (ACTIVE,RESOLVED_WIN,...)")
	signalsCmd.Flags().IntVar(&signalsLimit, "limit", 20, "maximum signals to list")
	trackRecordCmd.Flags().StringVar(&exportPath, "export", "", "write every signal as CSV to this file")

	rootCmd.AddCommand(signalsCmd)
	rootCmd.AddCommand(trackRecordCmd)
}

func runSignals(cmd *cobra.Command, args []string) error {
	filter := signal.ListFilter{Limit: signalsLimit}
	if signalsStatus != "" {
		for _, s := range strings.Split(signalsStatus, ",") {
			status := core.Status(strings.ToUpper(strings.TrimSpace(s)))
			if !status.Valid() {
				return fmt.Errorf("unknown status %q", s)
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}

	return withApp(func(a *app.App, log *zap.Logger) error {
		signals, err := a.Repository().List(context.Background(), filter)
		if err != nil {
			return fmt.Errorf("listing signals: %w", err)
		}
		if len(signals) == 0 {
			fmt.Println("No signals found.")
			return nil
		}
		printSignals(signals)
		log.Info("signals listed", zap.Int("count", len(signals)))
		return nil
	})
}

func runTrackRecord(cmd *cobra.Command, args []string) error {
	return withApp(func(a *app.App, log *zap.Logger) error {
		ctx := context.Background()

		if exportPath != "" {
			f, err := os.Create(exportPath)
			if err != nil {
				return fmt.Errorf("creating export file: %w", err)
			}
			defer f.Close()
			if err := a.TrackRecord().Export(ctx, f); err != nil {
				return fmt.Errorf("exporting signals: %w", err)
			}
			log.Info("signals exported", zap.String("path", exportPath))
		}

		report, err := a.TrackRecord().Report(ctx)
		if err != nil {
			return fmt.Errorf("computing track record: %w", err)
		}
		sum := report.Summary

		fmt.Println("Track Record")
		fmt.Println("------------")
		fmt.Printf("Signals:         %d (%d active, %d resolved, %d expired)\n",
			sum.TotalSignals, sum.ActiveSignals, sum.ResolvedSignals, sum.Expired)
		fmt.Printf("Win Rate:        %.1f%% (%d W / %d L)\n", sum.WinRatePct, sum.Wins, sum.Losses)
		fmt.Printf("Avg Gain 1h:     %+.2f%%\n", sum.AvgGain1hPct)
		fmt.Printf("Avg Gain 24h:    %+.2f%%\n", sum.AvgGain24hPct)
		fmt.Printf("Avg Gain 7d:     %+.2f%%\n", sum.AvgGain7dPct)
		fmt.Printf("Avg Final Gain:  %+.2f%%\n", sum.AvgGainPct)
		fmt.Printf("Best / Worst:    %+.2f%% / %+.2f%%\n", sum.BestGainPct, sum.WorstGainPct)
		fmt.Printf("Max Drawdown:    %.2f%%\n", sum.MaxDrawdownPct)
		fmt.Printf("Return on $1k:   $%.2f\n", sum.TheoreticalReturn1k)

		if len(report.BySignalType) == 0 {
			return nil
		}
		fmt.Println()

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TYPE\tSIGNALS\tWINS\tLOSSES\tWIN RATE\tAVG GAIN\tBEST\t")
		fmt.Fprintln(w, "----\t-------\t----\t------\t--------\t--------\t----\t")
		for _, t := range report.BySignalType {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.1f%%\t%+.2f%%\t%+.2f%%\t\n",
				t.SignalType, t.TotalSignals, t.Wins, t.Losses, t.WinRatePct, t.AvgGainPct, t.BestGainPct)
		}
		w.Flush()
		return nil
	})
}
