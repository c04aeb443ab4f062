package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"idconsole/internal/api"
	"idconsole/internal/forms"
	"idconsole/internal/i18n"
)

func newLoginCommand(ctx *commandContext) *cobra.Command {
	var username string
	var password string
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passwordStdin {
				read, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
				password = read
			}
			req := api.LoginRequest{Username: strings.TrimSpace(username), Password: password}
			if err := forms.New().Login(req); err != nil {
				return ctx.describeError(err)
			}
			return ctx.withSession(func(env *sessionEnv) error {
				profile, err := env.manager.Login(cmd.Context(), req)
				if err != nil {
					return ctx.describeError(err)
				}
				return ctx.emit(cmd, profile, func() string {
					return ctx.translator().T(i18n.MessageSignedInAs, profile.Name())
				})
			})
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	cmd.Flags().StringVar(&password, "password", "", "Account password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	return cmd
}

func newLogoutCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget stored cookies",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := ctx.openSession()
			if err != nil {
				return err
			}
			logoutErr := env.manager.Logout(cmd.Context())
			if err := env.jar.Forget(); err != nil {
				return fmt.Errorf("forget session: %w", err)
			}
			if logoutErr != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warn: %v\n", ctx.describeError(logoutErr))
			}
			fmt.Fprintln(cmd.OutOrStdout(), ctx.translator().T(i18n.MessageSignedOut))
			return nil
		},
	}
}

func newWhoamiCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withSession(func(env *sessionEnv) error {
				if err := env.manager.Init(cmd.Context()); err != nil {
					return ctx.describeError(err)
				}
				tr := ctx.translator()
				profile := env.manager.Store().Profile()
				if profile == nil {
					return ctx.emit(cmd, map[string]any{"signed_in": false}, func() string {
						return tr.T(i18n.MessageNotSignedIn)
					})
				}
				return ctx.emit(cmd, profile, func() string {
					var b strings.Builder
					b.WriteString(tr.T(i18n.MessageSignedInAs, profile.Name()))
					if len(profile.Roles) > 0 {
						fmt.Fprintf(&b, "\n%s: %s", tr.T(i18n.LabelRoles), strings.Join(profile.Roles, ", "))
					}
					if len(profile.Features) > 0 {
						fmt.Fprintf(&b, "\n%s: %s", tr.T(i18n.LabelFeatures), strings.Join(profile.Features, ", "))
					}
					return b.String()
				})
			})
		},
	}
}

func newRegisterCommand(ctx *commandContext) *cobra.Command {
	var req api.RegisterRequest
	var passwordStdin bool

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passwordStdin {
				read, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
				req.Password = read
			}
			req.Username = strings.TrimSpace(req.Username)
			if err := forms.New().Register(req); err != nil {
				return ctx.describeError(err)
			}
			return ctx.withSession(func(env *sessionEnv) error {
				user, err := env.client.Register(cmd.Context(), req)
				if err != nil {
					return ctx.describeError(err)
				}
				return ctx.emit(cmd, user, func() string {
					return ctx.translator().T(i18n.MessageRegistered, user.Username)
				})
			})
		},
	}

	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "Account username")
	cmd.Flags().StringVar(&req.Password, "password", "", "Account password (prefer --password-stdin)")
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	cmd.Flags().StringVar(&req.Email, "email", "", "Contact email")
	cmd.Flags().StringVar(&req.DisplayName, "display-name", "", "Display name")
	return cmd
}

func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
