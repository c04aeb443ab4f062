package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"idconsole/internal/daemonrun"
	"idconsole/internal/logs"
)


func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var daemon bool
	var filter logs.Filter

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent console or daemon log lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if strings.TrimSpace(cfg.Logging.Dir) == "" {
				return errors.New("logging.dir is not set")
			}
			name := cliLogFile
			if daemon {
				name = daemonrun.LogFileName
			}
			path := filepath.Join(cfg.Logging.Dir, name)

			recent, offset, err := logs.Last(path, lines, filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range recent {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			runCtx, cancel := signalContext(cmd)
			defer cancel()
			return logs.Follow(runCtx, path, offset, logs.DefaultFollowInterval, filter, func(line string) error {
				_, err := fmt.Fprintln(out, line)
				return err
			})
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of recent lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines until interrupted")
	cmd.Flags().BoolVar(&daemon, "daemon", false, "Read the idconsoled log instead of the CLI log")
	cmd.Flags().StringVar(&filter.JobID, "job", "", "Only lines for this job id")
	cmd.Flags().StringVar(&filter.MinLevel, "level", "", "Minimum level: debug, info, warn, or error")
	return cmd
}
