package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"NewsAgent/internal/app"
	"NewsAgent/internal/config"
	"NewsAgent/internal/domain"
	xerrors "NewsAgent/internal/errors"
	"NewsAgent/internal/logging"
)

// rootCmd runs the workflow once with the configured goal.
var rootCmd = &cobra.Command{
	Use:           "newsagent",
	Short:         "Fetch, summarise and email the latest AI news",
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runOnce,
}

// watchCmd repeats the workflow on the scheduler interval.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the workflow on the configured interval until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

// statusCmd prints counters and recent history.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show run counters, recent sessions and archived runs",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

var memoryCmd = &cobra.Command{
	Use:   "memory",
	Short: "Inspect the agent memory",
}

// memorySearchCmd looks for a substring across the memory document.
var memorySearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search stored preferences, step sessions and sent emails",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMemorySearch,
}

func init() {
	memoryCmd.AddCommand(memorySearchCmd)
	rootCmd.AddCommand(watchCmd, statusCmd, memoryCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, describeError(err))
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode separates configuration problems (2) from other failures (1).
func exitCode(err error) int {
	if xerrors.IsFatal(err) {
		return 2
	}
	return 1
}

func describeError(err error) string {
	e, ok := xerrors.From(err)
	if !ok || !xerrors.IsFatal(err) {
		return "newsagent: " + err.Error()
	}
	msg := fmt.Sprintf("newsagent: %s error: %s", xerrors.CodeOf(err), e.Message())
	if missing := e.Metadata()["missing"]; missing != "" {
		msg += "\nset these variables in .env: " + strings.ReplaceAll(missing, ",", " ")
	}
	return msg
}

// build loads configuration and wires the application. Mail credentials are
// only required by the commands that send.
func build(ctx context.Context, requireMail bool) (*app.Application, config.Config, error) {
	cfg := config.Load()
	if requireMail {
		if err := cfg.Validate(); err != nil {
			return nil, cfg, err
		}
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, cfg, err
	}
	return application, cfg, nil
}

func runOnce(cmd *cobra.Command, _ []string) error {
	application, _, err := build(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer application.Close()

	result, err := application.Run(cmd.Context())
	if err != nil {
		return err
	}
	printResult(cmd, result)
	return nil
}

func runWatch(cmd *cobra.Command, _ []string) error {
	application, _, err := build(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer application.Close()

	return application.Watch(cmd.Context())
}

func runStatus(cmd *cobra.Command, _ []string) error {
	application, cfg, err := build(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer application.Close()

	st, err := application.Status(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Memory: %s\n", cfg.Memory.Path)
	fmt.Fprintf(out, "Runs: %d successful, %d failed, %d articles processed\n",
		st.State.SuccessfulRuns, st.State.FailedRuns, st.State.TotalArticlesProcessed)
	if st.State.LastRun != nil {
		fmt.Fprintf(out, "Last run: %s\n", st.State.LastRun.Format("2006-01-02 15:04:05 MST"))
	}

	if len(st.Sessions) > 0 {
		fmt.Fprintln(out, "\nRecent steps:")
		for _, s := range st.Sessions {
			line := fmt.Sprintf("  %s step %d %-15s %s", s.Timestamp.Format("01-02 15:04"), s.Step, s.Action, s.Status)
			if s.Error != "" {
				line += " (" + s.Error + ")"
			}
			fmt.Fprintln(out, line)
		}
	}
	if len(st.Emails) > 0 {
		fmt.Fprintln(out, "\nRecent emails:")
		for _, e := range st.Emails {
			fmt.Fprintf(out, "  %s %q to %s, %d articles\n", e.Timestamp.Format("01-02 15:04"), e.Subject, e.ToEmail, e.ArticlesCount)
		}
	}
	if len(st.Runs) > 0 {
		fmt.Fprintln(out, "\nArchived runs:")
		for _, r := range st.Runs {
			fmt.Fprintf(out, "  %s success=%t priority=%s articles=%d\n", r.FinishedAt.Format("01-02 15:04"), r.Success, r.Priority, r.ArticlesCount)
		}
	}
	return nil
}

func runMemorySearch(cmd *cobra.Command, args []string) error {
	application, _, err := build(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer application.Close()

	hits := application.Search(strings.Join(args, " "))
	if len(hits) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matches.")
		return nil
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(hits)
}

func printResult(cmd *cobra.Command, result *domain.RunResult) {
	out := cmd.OutOrStdout()
	if result.Success {
		fmt.Fprintln(out, "Workflow completed successfully.")
	} else {
		fmt.Fprintln(out, "Workflow finished with errors.")
	}
	for _, s := range result.Steps {
		fmt.Fprintf(out, "  step %d %-15s %s\n", s.Step, s.Action, s.Status)
	}
	if len(result.Selected) > 0 {
		fmt.Fprintln(out, "\nSelected articles:")
		for i, a := range result.Selected {
			fmt.Fprintf(out, "  %d. %s\n     %s\n", i+1, a.Title, a.URL)
		}
	}
	if result.Summary != "" {
		fmt.Fprintf(out, "\n%s\n", result.Summary)
	}
}
