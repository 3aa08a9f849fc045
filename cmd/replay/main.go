// Command replay drives a scripted interview through the session service
// and prints the artifacts it produced.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	app "github.com/okian/interviewer/internal/app"
	"github.com/okian/interviewer/internal/config"
	"github.com/okian/interviewer/pkg/logger"
)

const defaultWait = 30 * time.Second

type options struct {
	script    string
	outputDir string
	wait      time.Duration
	grace     time.Duration
	logFormat string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a scripted interview through a local session",
		Long: `Replay reads a YAML interview script, feeds every utterance to an
in-process session, requests the end of the interview and waits for the
session to shut down and for analysis to finish.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReplay(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&opts.script, "script", "", "path to the interview script (YAML)")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "", "artifact directory (defaults to the configured output_dir)")
	cmd.Flags().DurationVar(&opts.wait, "wait", defaultWait, "how long to wait for shutdown and analysis")
	cmd.Flags().DurationVar(&opts.grace, "grace", 0, "override the shutdown grace period")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", "text", "log format: text or json")
	_ = cmd.MarkFlagRequired("script")
	return cmd
}

func runReplay(ctx context.Context, opts *options, out, logOut io.Writer) error {
	if err := logger.InitWith(opts.logFormat, logOut); err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	script, err := loadScript(opts.script)
	if err != nil {
		return err
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if opts.outputDir != "" {
		cfg.OutputDir = opts.outputDir
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	extra := []app.Option{app.WithLogger(logger.Get().Named("replay"))}
	if opts.grace > 0 {
		extra = append(extra, app.WithGracePeriod(opts.grace))
	}
	svc, err := app.NewFromConfig(cfg, extra...)
	if err != nil {
		return fmt.Errorf("building service: %w", err)
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("starting service: %w", err)
	}
	began := time.Now()

	sess, err := svc.StartSession(ctx, app.SessionRequest{
		CandidateName:  script.CandidateName,
		JobDescription: script.JobDescription,
	})
	if err != nil {
		_ = svc.Stop(ctx)
		return fmt.Errorf("starting session: %w", err)
	}

	start := sess.StartTime()
	for i := range script.Turns {
		turn := &script.Turns[i]
		if _, err := svc.RecordUtterance(ctx, sess.ID(), fmt.Sprintf("turn-%d", i), turn.utterance(start)); err != nil {
			_ = svc.Stop(ctx)
			return fmt.Errorf("utterance %d: %w", i, err)
		}
	}

	msg, status, err := svc.RequestEnd(ctx, sess.ID(), script.Notes)
	if err != nil {
		_ = svc.Stop(ctx)
		return fmt.Errorf("ending session: %w", err)
	}
	fmt.Fprintf(out, "session %s %s\n", sess.ID(), status)
	fmt.Fprintf(out, "interviewer: %s\n", msg)

	waitCtx, cancel := context.WithTimeout(ctx, opts.wait)
	defer cancel()
	select {
	case <-sess.Done():
	case <-waitCtx.Done():
		fmt.Fprintln(out, "shutdown signal not received before --wait elapsed")
	}
	if err := svc.Stop(waitCtx); err != nil {
		return fmt.Errorf("draining analysis: %w", err)
	}

	for _, p := range artifacts(cfg.OutputDir, began) {
		fmt.Fprintln(out, p)
	}
	return nil
}

// artifacts lists interview files written in dir since began.
func artifacts(dir string, began time.Time) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	cutoff := began.Add(-time.Second)
	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), "interview_") {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().Before(cutoff) {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths
}
