package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zhang1980s/web-stack-provisioner/config"
	"github.com/zhang1980s/web-stack-provisioner/logging"
	"github.com/zhang1980s/web-stack-provisioner/setup"
)

type rootOptions struct {
	Region   string
	EnvFile  string
	LogLevel string
}

func newRootCommand(out io.Writer) *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision the web stack",
		Long: `Create a security group, a Postgres instance, a private S3 bucket served
through CloudFront, and print the database host and CloudFront domain.

Settings come from the environment and from the --env-file file.

Example:
  provision --env-file ./.env
  provision --region eu-west-1 --log-level debug`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProvision(cmd, opts, out)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Region, "region", "", "AWS region (default $AWS_REGION_NAME, then us-east-1)")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", config.DefaultEnvFile, "environment file to load if present")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (default $LOG_LEVEL, then info)")

	cmd.AddCommand(newResourcesCommand(opts, out))

	return cmd
}

// load reads the configuration and applies the flag overrides.
func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.EnvFile)
	if err != nil {
		return nil, nil, err
	}
	if o.Region != "" {
		cfg.Region = o.Region
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}

	logger, err := logging.New("provision", cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runProvision(cmd *cobra.Command, opts *rootOptions, out io.Writer) error {
	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	stack, err := setup.New(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	result, err := stack.Run(cmd.Context())
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result.Map()); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	if result.RunID != "" {
		logger.Info("run finished", zap.String("run_id", result.RunID))
	}
	return nil
}
