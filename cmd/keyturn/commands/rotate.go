package commands

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/systmms/keyturn/internal/awsiam"
	"github.com/systmms/keyturn/internal/config"
	"github.com/systmms/keyturn/internal/credfile"
	kterrors "github.com/systmms/keyturn/internal/errors"
	"github.com/systmms/keyturn/internal/logging"
	"github.com/systmms/keyturn/internal/rotate"
)

type rotateOptions struct {
	profile         string
	credentialsFile string
	user            string
	gracePeriodDays int
	force           bool
}

// NewRotateCommand builds the root command. keyturn has no subcommands:
// running the binary performs one rotation.
func NewRotateCommand(cfg *config.Config) *cobra.Command {
	var (
		configFile string
		noColor    bool
		debug      bool
		opts       rotateOptions
	)

	cmd := &cobra.Command{
		Use:   "keyturn",
		Short: "Rotate AWS IAM access keys and update the shared credentials file",
		Long: `keyturn creates a replacement access key for an IAM user, writes it to
the AWS shared credentials file, waits for the new key to propagate, then
deactivates the superseded keys. With a grace period of zero the old keys
are deleted immediately; otherwise the deletion date and the manual delete
command are printed.

Examples:
  # Rotate the caller's own keys under the default profile
  keyturn

  # Rotate another user's keys into a named profile, deleting old keys now
  keyturn --user deploy-bot --profile deploy --grace-period 0

  # Rotate even though the user already has two keys
  keyturn --force`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Path = configFile
			cfg.Logger = logging.New(debug, noColor)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}
			opts = resolveOptions(cmd, opts, cfg.Defaults)

			if opts.gracePeriodDays < 0 {
				return kterrors.UserError{
					Message:    "Grace period must be zero or more days",
					Suggestion: "Use --grace-period 0 to delete superseded keys immediately",
				}
			}

			return runRotate(cmd.Context(), cfg, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "keyturn.yaml", "Defaults file path")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	cmd.Flags().StringVar(&opts.profile, "profile", "default", "Profile section to write in the credentials file")
	cmd.Flags().StringVar(&opts.credentialsFile, "credentials-file", credfile.DefaultPath(), "Path to the AWS shared credentials file")
	cmd.Flags().StringVar(&opts.user, "user", "", "IAM user name (default: the caller's own user)")
	cmd.Flags().IntVar(&opts.gracePeriodDays, "grace-period", 7, "Days before a superseded key should be deleted (0 deletes immediately)")
	cmd.Flags().BoolVar(&opts.force, "force", false, "Rotate even if the user already has two access keys, deactivating the oldest")

	return cmd
}

// resolveOptions applies keyturn.yaml defaults to every option the user
// did not set explicitly on the command line.
func resolveOptions(cmd *cobra.Command, opts rotateOptions, defaults config.Defaults) rotateOptions {
	flags := cmd.Flags()

	if !flags.Changed("profile") && defaults.Profile != "" {
		opts.profile = defaults.Profile
	}
	if !flags.Changed("credentials-file") && defaults.CredentialsFile != "" {
		opts.credentialsFile = defaults.CredentialsFile
	}
	if !flags.Changed("user") && defaults.User != "" {
		opts.user = defaults.User
	}
	if !flags.Changed("grace-period") && defaults.GracePeriodDays != nil {
		opts.gracePeriodDays = *defaults.GracePeriodDays
	}
	if !flags.Changed("force") && defaults.Force != nil {
		opts.force = *defaults.Force
	}

	return opts
}

func runRotate(ctx context.Context, cfg *config.Config, opts rotateOptions) error {
	store, err := credfile.NewStore(opts.credentialsFile)
	if err != nil {
		return err
	}

	clients, err := awsiam.NewClients(ctx, opts.profile)
	if err != nil {
		return err
	}

	rotator := rotate.New(clients.IAM, clients.STS, store, cfg.Logger)
	return rotator.Rotate(ctx, rotate.Options{
		Profile:         opts.profile,
		User:            opts.user,
		GracePeriodDays: opts.gracePeriodDays,
		Force:           opts.force,
	})
}
