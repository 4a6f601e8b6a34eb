package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/postboard/pkg/feedsdk"
)

type authResult struct {
	Message string   `json:"message"`
	User    userView `json:"user"`
}

func (r authResult) String() string {
	return fmt.Sprintf("%s\n%s", r.Message, r.User)
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var req feedsdk.LoginRequest

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(rootOpts, cmd, false, func(env *commandEnv) error {
				user, err := env.app.Session().Login(env.ctx, req)
				if err != nil {
					return fail(env.out, err, "Login failed")
				}
				return env.out.Success(authResult{
					Message: "Logged in.",
					User:    newUserView(user),
				})
			})
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")

	return cmd
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	var req feedsdk.RegisterRequest

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("password-confirmation") {
				req.PasswordConfirmation = req.Password
			}
			return run(rootOpts, cmd, false, func(env *commandEnv) error {
				user, err := env.app.Session().Register(env.ctx, req)
				if err != nil {
					return fail(env.out, err, "Registration failed")
				}
				return env.out.Success(authResult{
					Message: "Account created.",
					User:    newUserView(user),
				})
			})
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "account password")
	cmd.Flags().StringVar(&req.PasswordConfirmation, "password-confirmation", "", "repeat the password (defaults to --password)")

	return cmd
}

// NewLogoutCommand creates the logout command. Local credentials are always
// removed, even when the server cannot be reached.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(rootOpts, cmd, false, func(env *commandEnv) error {
				if err := env.app.Session().Logout(env.ctx); err != nil {
					return fail(env.out, err, "Logout failed")
				}
				return env.out.Success(messageView{Message: "Logged out."})
			})
		},
	}
}

// NewWhoAmICommand creates the whoami command.
func NewWhoAmICommand(rootOpts *RootOptions) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(rootOpts, cmd, true, func(env *commandEnv) error {
				user := env.app.Session().User()
				if refresh {
					var err error
					if user, err = env.app.Session().GetUserProfile(env.ctx); err != nil {
						return fail(env.out, err, "Failed to fetch profile")
					}
				}
				return env.out.Success(newUserView(user))
			})
		},
	}

	cmd.Flags().BoolVar(&refresh, "refresh", false, "fetch the profile from the server")

	return cmd
}

// NewForgotPasswordCommand creates the forgot-password command.
func NewForgotPasswordCommand(rootOpts *RootOptions) *cobra.Command {
	var req feedsdk.ForgotPasswordRequest

	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Request a password reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(rootOpts, cmd, false, func(env *commandEnv) error {
				resp, err := env.app.Client().ForgotPassword(env.ctx, req)
				if err != nil {
					return fail(env.out, err, "Password reset failed")
				}
				msg := "Password reset requested."
				if resp != nil && resp.Message != "" {
					msg = resp.Message
				}
				return env.out.Success(messageView{Message: msg})
			})
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "account email")

	return cmd
}
