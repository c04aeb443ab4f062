package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"idconsole/internal/console"
	"idconsole/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check backend reachability, local directories, and translations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			failed := preflight.Failed(results)
			if err := ctx.emit(cmd, results, func() string {
				rows := make([][]string, 0, len(results))
				for _, r := range results {
					state := "ok"
					if !r.Passed {
						state = "FAIL"
					}
					rows = append(rows, []string{state, r.Name, r.Detail})
				}
				return console.RenderTable([]string{"", "Check", "Detail"}, rows)
			}); err != nil {
				return err
			}
			if len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}
}
