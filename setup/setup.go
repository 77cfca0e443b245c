// Package setup assembles a provisioner from loaded configuration.
package setup

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"

	"github.com/zhang1980s/web-stack-provisioner/awscloud"
	"github.com/zhang1980s/web-stack-provisioner/config"
	"github.com/zhang1980s/web-stack-provisioner/journal"
	"github.com/zhang1980s/web-stack-provisioner/notify"
	"github.com/zhang1980s/web-stack-provisioner/provision"
)

// Stack is everything an entry point needs for one run.
type Stack struct {
	Provisioner *provision.Provisioner
	// Journal is nil unless JOURNAL_TABLE_NAME is set.
	Journal *journal.Journal
	Params  provision.Params
}

// sdkRetryMaxAttempts bounds the SDK retryer, which runs above the
// transport retries. It still covers throttling codes sent with a 400
// status, which the transport cannot see.
const sdkRetryMaxAttempts = 2

// New loads the AWS configuration for cfg.Region and builds the stack on it.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stack, error) {
	awsCfg, err := LoadAWSConfig(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return FromAWSConfig(awsCfg, cfg, logger)
}

// LoadAWSConfig loads the shared AWS configuration and swaps in the
// retrying HTTP client. The SDK resolves AWS_CA_BUNDLE and profile
// ca_bundle only into its own client, so the pool it built is carried over.
func LoadAWSConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryMaxAttempts(sdkRetryMaxAttempts),
	)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}

	opts := cfg.HTTPClientOptions()
	if client, ok := awsCfg.HTTPClient.(*awshttp.BuildableClient); ok {
		if tlsCfg := client.GetTransport().TLSClientConfig; tlsCfg != nil && tlsCfg.RootCAs != nil {
			logger.Debug("using custom CA bundle")
			opts.RootCAs = tlsCfg.RootCAs
		}
	}
	awsCfg.HTTPClient = awscloud.NewHTTPClient(opts, logger.Named("http"))
	return awsCfg, nil
}

// FromAWSConfig builds the stack on an already loaded AWS configuration.
func FromAWSConfig(awsCfg aws.Config, cfg *config.Config, logger *zap.Logger) (*Stack, error) {
	opts := []provision.Option{
		provision.WithLogger(logger.Named("provision")),
		provision.WithWaitPolicy(cfg.WaitPolicy()),
	}

	stack := &Stack{Params: cfg.Params()}
	if cfg.JournalTableName != "" {
		logger.Info("recording run in journal", zap.String("table", cfg.JournalTableName))
		stack.Journal = journal.New(dynamodb.NewFromConfig(awsCfg), cfg.JournalTableName, nil, logger.Named("journal"))
		opts = append(opts, provision.WithRecorder(stack.Journal), provision.WithNotifier(stack.Journal))
	}
	if cfg.NotifyQueueURL != "" {
		queue := notify.New(sqs.NewFromConfig(awsCfg), cfg.NotifyQueueURL, logger.Named("notify"))
		opts = append(opts, provision.WithNotifier(queue))
	}

	p, err := provision.New(awscloud.New(awsCfg, logger.Named("aws")), opts...)
	if err != nil {
		return nil, err
	}
	stack.Provisioner = p
	return stack, nil
}

// Run provisions the stack with the configured parameters.
func (s *Stack) Run(ctx context.Context) (provision.Result, error) {
	return s.Provisioner.Provision(ctx, s.Params)
}
