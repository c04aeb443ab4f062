package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"idconsole/internal/config"
	"idconsole/internal/daemonrun"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var opts daemonrun.Options

	cmd := &cobra.Command{
		Use:           "idconsoled",
		Short:         "Serve the audio identification web console",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, _, err := config.Load(strings.TrimSpace(configFlag))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return daemonrun.Run(cmd.Context(), cfg, opts)
		},
	}
	cmd.Flags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&opts.Bind, "bind", "", "Listen address (overrides web.bind)")
	cmd.Flags().BoolVar(&opts.SkipPreflight, "skip-preflight", false, "Do not run readiness checks at startup")
	return cmd
}
