package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"hr-insights-go/internal/aggregator"
	"hr-insights-go/internal/app"
	"hr-insights-go/internal/config"
	"hr-insights-go/internal/dataset"
	"hr-insights-go/internal/logger"
	"hr-insights-go/internal/pipeline"
	"hr-insights-go/internal/types"
)

type rootOptions struct {
	verbose bool
	dataset string
	timeout time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts rootOptions

	root := &cobra.Command{
		Use:          "hrqa",
		Short:        "Ask questions about HR automation logs",
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable logging")
	root.PersistentFlags().StringVarP(&opts.dataset, "dataset", "d", pipeline.Entry, "Dataset: entry, exit or combined")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 2*time.Minute, "Overall operation timeout")

	root.AddCommand(newAskCmd(&opts), newStatsCmd(&opts), newContextCmd(&opts))
	return root
}

// withDataset loads config and the engine, then hands the selected dataset to fn.
func withDataset(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app.App, ds *pipeline.Dataset) error) error {
	log := logger.Discard()
	if opts.verbose {
		log = logger.New()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ds, ok := a.Engine.Dataset(opts.dataset)
	if !ok {
		return fmt.Errorf("unknown dataset %q (have %s)", opts.dataset, strings.Join(a.Engine.Names(), ", "))
	}
	return fn(ctx, a, ds)
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	var apiKey string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the precomputed metrics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			return withDataset(cmd, opts, func(ctx context.Context, a *app.App, ds *pipeline.Dataset) error {
				resp, err := a.Negotiator.Answer(ctx, ds, question, apiKey)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				fmt.Fprintln(cmd.OutOrStdout(), resp.Answer)
				if d := resp.ErrorDetail(); d != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "fallback unavailable: %s\n", d)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&apiKey, "api-key", "", "Completion credential for this question")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full response as JSON")
	return cmd
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var f aggregator.Filter

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the statistics snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, d := range []string{f.From, f.To} {
				if d != "" && !aggregator.ValidDate(d) {
					return fmt.Errorf("invalid date %q, want YYYY-MM-DD", d)
				}
			}
			if f.Status != "" {
				f.Status = dataset.NormalizeStatus(f.Status)
			}
			return withDataset(cmd, opts, func(_ context.Context, _ *app.App, ds *pipeline.Dataset) error {
				view := ds.Filtered(f)
				return writeJSON(cmd.OutOrStdout(), types.StatsResponse{
					Label:       view.Label,
					Stats:       view.Stats,
					LatestMonth: view.LatestMonth,
					DailyTrend:  aggregator.DailyTrend(view.Records),
					ErrorSites:  aggregator.TopErrorSites(view.Records, view.Stats.TopN),
				})
			})
		},
	}
	cmd.Flags().StringVar(&f.From, "from", "", "First date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.To, "to", "", "Last date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.Site, "site", "", "Only this workplace")
	cmd.Flags().StringVar(&f.Department, "department", "", "Only this cleaned department")
	cmd.Flags().StringVar(&f.Status, "status", "", "Only COMPLETED or ERROR")
	return cmd
}

func newContextCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "context",
		Short: "Print the summary block sent to the completion service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDataset(cmd, opts, func(_ context.Context, _ *app.App, ds *pipeline.Dataset) error {
				fmt.Fprintln(cmd.OutOrStdout(), ds.Context())
				return nil
			})
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
