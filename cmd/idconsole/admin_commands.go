package main

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"idconsole/internal/api"
	"idconsole/internal/backend"
	"idconsole/internal/console"
	"idconsole/internal/forms"
	"idconsole/internal/i18n"
)

func newAdminCommand(ctx *commandContext) *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Manage API tokens and users (administrators only)",
	}
	adminCmd.AddCommand(newTokensCommand(ctx))
	adminCmd.AddCommand(newUsersCommand(ctx))
	return adminCmd
}

// withAdmin signs in and refuses non-admin profiles before any admin call.
func (c *commandContext) withAdmin(cmd *cobra.Command, fn func(*sessionEnv) error) error {
	return c.withSession(func(env *sessionEnv) error {
		if err := env.requireSignIn(cmd.Context()); err != nil {
			return c.describeError(err)
		}
		if profile := env.manager.Store().Profile(); profile == nil || !profile.IsAdmin() {
			return errors.New(c.translator().T(i18n.MessageAdminOnly))
		}
		return fn(env)
	})
}

func newTokensCommand(ctx *commandContext) *cobra.Command {
	tokensCmd := &cobra.Command{
		Use:   "tokens",
		Short: "Manage API tokens",
	}

	tokensCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List API tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAdmin(cmd, func(env *sessionEnv) error {
				tokens, err := env.client.ListTokens(cmd.Context())
				if err != nil {
					return ctx.describeError(err)
				}
				return ctx.emit(cmd, tokens, func() string {
					tr := ctx.translator()
					if len(tokens) == 0 {
						return tr.T(i18n.MessageNoTokens)
					}
					return console.RenderTokens(console.TokenRows(tokens, tr), tr, console.ShouldColorize(cmd.OutOrStdout()))
				})
			})
		},
	})

	var req api.TokenCreateRequest
	var ttl time.Duration
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API token; the plaintext is shown once",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ttl < 0 {
				return errors.New("--ttl must not be negative")
			}
			req.TTLSeconds = int64(ttl / time.Second)
			if err := forms.New().Token(req); err != nil {
				return ctx.describeError(err)
			}
			return ctx.withAdmin(cmd, func(env *sessionEnv) error {
				token, err := env.client.CreateToken(cmd.Context(), req)
				if err != nil {
					return ctx.describeError(err)
				}
				return ctx.emit(cmd, token, func() string {
					tr := ctx.translator()
					lines := []string{
						tr.T(i18n.MessageTokenCreated, token.Name),
						tr.T(i18n.MessageTokenShownOnce, token.Token),
					}
					expires := tr.T(i18n.ValueNever)
					if at, ok := backend.TokenExpiry(*token); ok {
						expires = console.FormatTime(at, tr)
					}
					lines = append(lines, tr.T(i18n.LabelExpires)+": "+expires)
					return strings.Join(lines, "\n")
				})
			})
		},
	}
	createCmd.Flags().StringVar(&req.Name, "name", "", "Token name")
	createCmd.Flags().StringVar(&req.Owner, "owner", "", "Owning username")
	createCmd.Flags().DurationVar(&ttl, "ttl", 0, "Lifetime, e.g. 720h; 0 never expires")
	tokensCmd.AddCommand(createCmd)

	tokensCmd.AddCommand(&cobra.Command{
		Use:   "revoke <token-id>",
		Short: "Revoke an API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAdmin(cmd, func(env *sessionEnv) error {
				if err := env.client.RevokeToken(cmd.Context(), args[0]); err != nil {
					return ctx.describeError(err)
				}
				return ctx.emit(cmd, map[string]any{"id": args[0], "revoked": true}, func() string {
					return ctx.translator().T(i18n.MessageTokenRevoked, args[0])
				})
			})
		},
	})

	return tokensCmd
}

func newUsersCommand(ctx *commandContext) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	usersCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAdmin(cmd, func(env *sessionEnv) error {
				users, err := env.client.ListUsers(cmd.Context())
				if err != nil {
					return ctx.describeError(err)
				}
				return ctx.emit(cmd, users, func() string {
					tr := ctx.translator()
					if len(users) == 0 {
						return tr.T(i18n.MessageNoUsers)
					}
					return console.RenderUsers(console.UserRows(users, tr), tr, console.ShouldColorize(cmd.OutOrStdout()))
				})
			})
		},
	})

	var create api.UserCreateRequest
	var passwordStdin bool
	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passwordStdin {
				read, err := readSecret(cmd.InOrStdin())
				if err != nil {
					return err
				}
				create.Password = read
			}
			if err := forms.New().UserCreate(create); err != nil {
				return ctx.describeError(err)
			}
			return ctx.withAdmin(cmd, func(env *sessionEnv) error {
				user, err := env.client.CreateUser(cmd.Context(), create)
				if err != nil {
					return ctx.describeError(err)
				}
				return ctx.emit(cmd, user, func() string {
					return ctx.translator().T(i18n.MessageUserCreated, user.Username)
				})
			})
		},
	}
	createCmd.Flags().StringVarP(&create.Username, "username", "u", "", "Username")
	createCmd.Flags().StringVar(&create.Password, "password", "", "Initial password (prefer --password-stdin)")
	createCmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the password from stdin")
	createCmd.Flags().StringVar(&create.DisplayName, "display-name", "", "Display name")
	createCmd.Flags().StringVar(&create.Email, "email", "", "Email")
	createCmd.Flags().StringSliceVar(&create.Roles, "role", nil, "Role (repeatable)")
	createCmd.Flags().StringSliceVar(&create.Features, "feature", nil, "Feature flag (repeatable)")
	usersCmd.AddCommand(createCmd)

	var displayName, password string
	var roles, features []string
	var disable, enable bool
	updateCmd := &cobra.Command{
		Use:   "update <user-id>",
		Short: "Update a user; only the given flags change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if disable && enable {
				return errors.New("--disable and --enable are mutually exclusive")
			}
			var req api.UserUpdateRequest
			flags := cmd.Flags()
			if flags.Changed("display-name") {
				req.DisplayName = api.StringPtr(displayName)
			}
			if flags.Changed("password") {
				req.Password = api.StringPtr(password)
			}
			if flags.Changed("role") {
				req.Roles = roles
			}
			if flags.Changed("feature") {
				req.Features = features
			}
			if disable || enable {
				req.Disabled = &disable
			}
			if err := forms.New().UserUpdate(req); err != nil {
				return ctx.describeError(err)
			}
			return ctx.withAdmin(cmd, func(env *sessionEnv) error {
				user, err := env.client.UpdateUser(cmd.Context(), args[0], req)
				if err != nil {
					return ctx.describeError(err)
				}
				return ctx.emit(cmd, user, func() string {
					return ctx.translator().T(i18n.MessageUserUpdated, user.Username)
				})
			})
		},
	}
	updateCmd.Flags().StringVar(&displayName, "display-name", "", "New display name")
	updateCmd.Flags().StringVar(&password, "password", "", "New password")
	updateCmd.Flags().StringSliceVar(&roles, "role", nil, "Replace roles (repeatable)")
	updateCmd.Flags().StringSliceVar(&features, "feature", nil, "Replace feature flags (repeatable)")
	updateCmd.Flags().BoolVar(&disable, "disable", false, "Disable the account")
	updateCmd.Flags().BoolVar(&enable, "enable", false, "Re-enable the account")
	usersCmd.AddCommand(updateCmd)

	usersCmd.AddCommand(&cobra.Command{
		Use:   "delete <user-id>",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withAdmin(cmd, func(env *sessionEnv) error {
				if err := env.client.DeleteUser(cmd.Context(), args[0]); err != nil {
					return ctx.describeError(err)
				}
				return ctx.emit(cmd, map[string]any{"id": args[0], "deleted": true}, func() string {
					return ctx.translator().T(i18n.MessageUserDeleted, args[0])
				})
			})
		},
	})

	return usersCmd
}
