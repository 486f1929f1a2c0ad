package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/policylens/internal/config"
	"github.com/custodia-labs/policylens/internal/core/domain"
)

// cliUserAgent attributes CLI runs in the request log
const cliUserAgent = "policylens-cli"

var analyzeFlags struct {
	forceFresh bool
}

var classifyFlags struct {
	fetch bool
}

// analyzeCmd runs the analyze pipeline once per URL and prints the results as JSON
var analyzeCmd = &cobra.Command{
	Use:   "analyze <url> [url...]",
	Short: "analyze one or more privacy policy urls",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			return runAnalyze(ctx, a, args, analyzeFlags.forceFresh, cmd.OutOrStdout())
		})
	},
}

// classifyCmd reports whether a url looks like a privacy policy
var classifyCmd = &cobra.Command{
	Use:   "classify <url>",
	Short: "check whether a url looks like a privacy policy",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(ctx context.Context, a *app) error {
			result, err := a.policyService.Classify(ctx, domain.ClassifyRequest{
				URL:   args[0],
				Fetch: classifyFlags.fetch,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		})
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(classifyCmd)

	analyzeCmd.Flags().BoolVar(&analyzeFlags.forceFresh, "force-fresh", false, "re-analyze even when a fresh record is stored")
	classifyCmd.Flags().BoolVar(&classifyFlags.fetch, "fetch", false, "fetch the page and classify its content, not only its url")
}

// withApp loads config, wires the application, runs fn and releases the application
func withApp(ctx context.Context, fn func(ctx context.Context, a *app) error) error {
	logger := slog.Default()

	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warn("shutdown cleanup failed", "error", err)
		}
	}()

	return fn(ctx, a)
}

// runAnalyze prints a single response for one URL and batch results for several
func runAnalyze(ctx context.Context, a *app, urls []string, forceFresh bool, out io.Writer) error {
	if len(urls) == 1 {
		resp, err := a.policyService.Analyze(ctx, domain.AnalyzeRequest{
			URL:        urls[0],
			ForceFresh: forceFresh,
			UserAgent:  cliUserAgent,
		})
		if err != nil {
			return err
		}
		return printJSON(out, resp)
	}

	reqs := make([]domain.AnalyzeRequest, len(urls))
	for i, u := range urls {
		reqs[i] = domain.AnalyzeRequest{URL: u, ForceFresh: forceFresh, UserAgent: cliUserAgent}
	}

	results := a.policyService.AnalyzeBatch(ctx, reqs)
	if err := printJSON(out, results); err != nil {
		return err
	}

	var failed int
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d urls failed", failed, len(results))
	}
	return nil
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
