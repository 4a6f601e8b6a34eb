package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/postboard/internal/postboard/app"
	"github.com/aussiebroadwan/postboard/pkg/feedsdk"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "json" | "text"
	Ephemeral bool   // keep credentials in memory only

	// NewApp builds the application for a command. Tests replace it.
	NewApp func(opts *RootOptions) (*app.Application, error)
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// DefaultNewApp loads configuration from the environment and applies the
// global flags on top.
func DefaultNewApp(opts *RootOptions) (*app.Application, error) {
	cfg := app.LoadConfig()
	if opts.Ephemeral {
		cfg.Store = app.StoreMemory
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	return app.New(cfg)
}

// NewRootCommand creates the root command for the postboard CLI.
func NewRootCommand(opts *RootOptions) *cobra.Command {
	if opts == nil {
		opts = &RootOptions{}
	}
	if opts.NewApp == nil {
		opts.NewApp = DefaultNewApp
	}

	cmd := &cobra.Command{
		Use:   "postboard",
		Short: "Postboard - a command line client for the Postboard feed",
		Long: `Sign in to a Postboard feed API and read, write and comment on posts.

Credentials persist between runs; expired access tokens are refreshed
automatically.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVar(&opts.Ephemeral, "ephemeral", false, "do not persist credentials")

	// Add subcommands
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewLogoutCommand(opts))
	cmd.AddCommand(NewWhoAmICommand(opts))
	cmd.AddCommand(NewForgotPasswordCommand(opts))
	cmd.AddCommand(NewPostsCommand(opts))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(ctx context.Context, opts *RootOptions, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	// Flag parsing and argument errors never reach a formatter.
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return ExitCommandError
}

// commandEnv is what every command body receives.
type commandEnv struct {
	ctx context.Context
	app *app.Application
	out *OutputFormatter
}

// run builds the application, bootstraps the session and calls fn. When
// protected is set, fn only runs for an authenticated session.
func run(opts *RootOptions, cmd *cobra.Command, protected bool, fn func(env *commandEnv) error) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	application, err := opts.NewApp(opts)
	if err != nil {
		_ = formatter.Error(ErrCodeSetup, "failed to initialise postboard", err.Error())
		return WrapExitError(ExitCommandError, "failed to initialise postboard", err)
	}
	defer application.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	bootErr := application.Bootstrap(ctx)
	session := application.Session()
	formatter.VerboseLog("session: %s", session.State())

	if protected {
		if err := session.RequireAuthenticated(); err != nil {
			if errors.Is(bootErr, feedsdk.ErrSessionExpired) {
				err = bootErr
			}
			return fail(formatter, err, "You are not logged in.")
		}
	}

	return fn(&commandEnv{ctx: ctx, app: application, out: formatter})
}
