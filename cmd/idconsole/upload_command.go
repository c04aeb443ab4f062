package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"idconsole/internal/api"
	"idconsole/internal/backend"
	"idconsole/internal/config"
	"idconsole/internal/forms"
	"idconsole/internal/i18n"
	"idconsole/internal/jobs"
	"idconsole/internal/logging"
	"idconsole/internal/services"
	"idconsole/internal/textutil"
)

func newUploadCommand(ctx *commandContext) *cobra.Command {
	var opts api.UploadOptions
	var watch bool

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Submit an audio file for identification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("inspect %q: %w", path, err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", path)
			}
			name := textutil.UploadName(filepath.Base(path))
			if err := forms.New().Upload(forms.Upload{Filename: name, Size: info.Size()}); err != nil {
				return ctx.describeError(err)
			}

			return ctx.withSession(func(env *sessionEnv) error {
				runCtx, cancel := signalContext(cmd)
				defer cancel()
				if err := env.requireSignIn(runCtx); err != nil {
					return ctx.describeError(err)
				}

				file, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open %q: %w", path, err)
				}
				resp, err := env.client.Upload(runCtx, backend.UploadFile{Name: name, Content: file, Options: opts})
				file.Close()
				if err != nil {
					return ctx.describeError(err)
				}
				env.logger.Info("upload accepted",
					logging.String(logging.FieldJobID, resp.JobID),
					logging.String("filename", name),
					logging.Int64("bytes", info.Size()),
				)

				if !watch {
					return ctx.emit(cmd, resp, func() string {
						return ctx.translator().T(i18n.MessageUploadAccepted, resp.JobID)
					})
				}
				if !ctx.jsonMode() {
					fmt.Fprintln(cmd.ErrOrStderr(), ctx.translator().T(i18n.MessageUploadAccepted, resp.JobID))
				}
				job, err := env.client.GetJob(services.WithJobID(runCtx, resp.JobID), resp.JobID)
				if err != nil {
					return ctx.describeError(err)
				}
				store := jobs.NewStore()
				store.Apply(*job)
				return watchJobs(runCtx, cmd, ctx, env, store, true, false)
			})
		},
	}

	cmd.Flags().BoolVar(&opts.SecondaryProvider, "secondary", false, "Also ask the secondary provider")
	cmd.Flags().BoolVar(&opts.StoreFingerprint, "store", false, "Store the computed fingerprint")
	cmd.Flags().BoolVar(&opts.MetadataOnly, "metadata-only", false, "Read embedded tags without fingerprinting")
	cmd.Flags().BoolVar(&watch, "watch", false, "Follow the new job until it finishes")
	return cmd
}
