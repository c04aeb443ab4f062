package main

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/spf13/cobra"

	"idconsole/internal/api"
	"idconsole/internal/console"
	"idconsole/internal/i18n"
	"idconsole/internal/jobs"
	"idconsole/internal/live"
	"idconsole/internal/logging"
	"idconsole/internal/notifications"
	"idconsole/internal/services"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect identification jobs",
	}
	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))
	jobsCmd.AddCommand(newJobsWatchCommand(ctx))
	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(env *sessionEnv) error {
				if err := env.requireSignIn(cmd.Context()); err != nil {
					return ctx.describeError(err)
				}
				list, err := env.client.ListJobs(cmd.Context())
				if err != nil {
					return ctx.describeError(err)
				}
				store := jobs.NewStore()
				store.ReplaceAll(list)
				sorted := store.Sorted()
				return ctx.emit(cmd, sorted, func() string {
					return renderJobs(sorted, ctx.translator(), console.ShouldColorize(cmd.OutOrStdout()))
				})
			})
		},
	}
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job with its result summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(env *sessionEnv) error {
				if err := env.requireSignIn(cmd.Context()); err != nil {
					return ctx.describeError(err)
				}
				job, err := env.client.GetJob(services.WithJobID(cmd.Context(), args[0]), args[0])
				if err != nil {
					return ctx.describeError(err)
				}
				return ctx.emit(cmd, job, func() string {
					tr := ctx.translator()
					var fingerprint string
					var duration float64
					if job.Result != nil {
						fingerprint = job.Result.FingerprintID
						duration = job.Result.DurationSeconds
					}
					return console.RenderJobDetail(console.NewJobRow(*job, tr), fingerprint, duration, tr, console.ShouldColorize(cmd.OutOrStdout()))
				})
			})
		},
	}
}

func newJobsWatchCommand(ctx *commandContext) *cobra.Command {
	var untilDone bool
	var redraw bool

	cmd := &cobra.Command{
		Use:   "watch [job-id...]",
		Short: "Follow jobs live until interrupted",
		Long: "Follow jobs live. Without ids every listed job is shown and the live ones are tracked.\n" +
			"Running jobs are refetched on the poll interval and, when push is enabled, updated from their channel.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(env *sessionEnv) error {
				runCtx, cancel := signalContext(cmd)
				defer cancel()
				if err := env.requireSignIn(runCtx); err != nil {
					return ctx.describeError(err)
				}
				list, err := loadJobs(runCtx, env, args)
				if err != nil {
					return ctx.describeError(err)
				}
				store := jobs.NewStore()
				store.ReplaceAll(list)
				return watchJobs(runCtx, cmd, ctx, env, store, untilDone, redraw)
			})
		},
	}

	cmd.Flags().BoolVar(&untilDone, "until-done", false, "Exit once every job is completed or failed")
	cmd.Flags().BoolVar(&redraw, "redraw", false, "Clear the terminal between frames")
	return cmd
}

func loadJobs(ctx context.Context, env *sessionEnv, ids []string) ([]api.Job, error) {
	if len(ids) == 0 {
		return env.client.ListJobs(ctx)
	}
	out := make([]api.Job, 0, len(ids))
	for _, id := range ids {
		job, err := env.client.GetJob(services.WithJobID(ctx, id), id)
		if err != nil {
			return nil, err
		}
		out = append(out, *job)
	}
	return out, nil
}

// watchJobs feeds store from the live pipeline and renders it until ctx ends
// or, with untilDone, until nothing is live. Interruption is not an error.
// Finished jobs are announced over ntfy when a topic is configured.
func watchJobs(ctx context.Context, cmd *cobra.Command, cc *commandContext, env *sessionEnv, store *jobs.Store, untilDone, redraw bool) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	tr := cc.translator()
	var followDone chan struct{}
	if notifier := notifications.NewService(env.cfg, tr); notifier.Enabled() {
		follower := notifications.NewFollower(store, notifier, env.logger)
		followDone = make(chan struct{})
		go func() {
			defer close(followDone)
			follower.Run(runCtx)
		}()
	}

	opts := live.OptionsFromConfig(env.cfg, live.BackendSource{Client: env.client}, store, env.logger)
	var expired atomic.Bool
	opts.OnUnauthorized = func() {
		expired.Store(true)
		env.manager.Store().Clear()
		cancel()
	}
	pipeline := live.New(opts)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := pipeline.Run(runCtx, env.manager.Store()); err != nil && !services.IsCanceled(err) {
			env.logger.Warn("live pipeline stopped", logging.Error(err))
		}
	}()

	if !cc.jsonMode() {
		fmt.Fprintln(cmd.ErrOrStderr(), tr.T(i18n.MessageWatching, countLive(store.Snapshot())))
	}
	out := cmd.OutOrStdout()
	watchOut := out
	if cc.jsonMode() {
		watchOut = io.Discard
	}
	err := console.Watch(runCtx, store, watchOut, console.WatchOptions{
		Translator: tr,
		Colorize:   console.ShouldColorize(out),
		UntilDone:  untilDone,
		Redraw:     redraw,
	})
	cancel()
	<-done
	if followDone != nil {
		<-followDone
	}

	if cc.jsonMode() {
		if jerr := writeJSON(cmd, store.Sorted()); jerr != nil {
			return jerr
		}
	}
	if expired.Load() {
		return fmt.Errorf("session expired: %w", errNotSignedIn)
	}
	if err != nil && !services.IsCanceled(err) {
		return err
	}
	return nil
}

func renderJobs(list []api.Job, tr i18n.Translator, colorize bool) string {
	return console.RenderJobTable(console.JobRows(list, tr), tr, colorize)
}

func countLive(list []api.Job) int {
	n := 0
	for _, job := range list {
		if !job.IsTerminal() {
			n++
		}
	}
	return n
}
