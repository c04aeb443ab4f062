package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"idconsole/internal/daemonctl"
)

func newDaemonCommand(ctx *commandContext) *cobra.Command {
	daemonCmd := &cobra.Command{
		Use:   "daemon",
		Short: "Control the idconsoled web console",
	}
	daemonCmd.AddCommand(newDaemonStartCommand(ctx))
	daemonCmd.AddCommand(newDaemonStatusCommand(ctx))
	daemonCmd.AddCommand(newDaemonStopCommand(ctx))
	return daemonCmd
}

func newDaemonStartCommand(ctx *commandContext) *cobra.Command {
	var executable string
	var wait time.Duration

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Launch idconsoled in the background",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			launched, err := daemonctl.Start(cmd.Context(), cfg, daemonctl.LaunchOptions{
				Executable: executable,
				ConfigPath: strings.TrimSpace(*ctx.configFlag),
			}, wait)
			if err != nil {
				return err
			}
			if !launched {
				fmt.Fprintf(cmd.OutOrStdout(), "idconsoled already running on %s\n", cfg.Web.Bind)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "idconsoled started on http://%s\n", cfg.Web.Bind)
			return nil
		},
	}
	cmd.Flags().StringVar(&executable, "executable", "", "Path to idconsoled (default: search PATH)")
	cmd.Flags().DurationVar(&wait, "wait", 10*time.Second, "How long to wait for the console to answer")
	return cmd
}

func newDaemonStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether idconsoled is running and healthy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			status := daemonctl.Probe(cmd.Context(), cfg)
			return ctx.emit(cmd, status, func() string {
				state := "stopped"
				switch {
				case status.Running && status.Healthy:
					state = "running"
				case status.Running:
					state = "running (not answering)"
				}
				lines := []string{"Daemon: " + state, "Bind: " + status.Bind}
				if status.PID > 0 {
					lines = append(lines, fmt.Sprintf("PID: %d", status.PID))
				}
				if status.Detail != "" {
					lines = append(lines, "Detail: "+status.Detail)
				}
				return strings.Join(lines, "\n")
			})
		},
	}
}

func newDaemonStopCommand(ctx *commandContext) *cobra.Command {
	var grace time.Duration

	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop idconsoled",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			result, err := daemonctl.Stop(cmd.Context(), cfg, grace)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(cmd.OutOrStdout(), "idconsoled is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill {
				fmt.Fprintf(cmd.OutOrStdout(), "idconsoled (pid %d) did not exit in time and was killed\n", result.PID)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "idconsoled (pid %d) stopped\n", result.PID)
			return nil
		},
	}
	cmd.Flags().DurationVar(&grace, "grace", 10*time.Second, "How long to wait before killing the process")
	return cmd
}
