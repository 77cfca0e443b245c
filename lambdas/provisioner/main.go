package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"github.com/zhang1980s/web-stack-provisioner/config"
	"github.com/zhang1980s/web-stack-provisioner/logging"
	"github.com/zhang1980s/web-stack-provisioner/provision"
	"github.com/zhang1980s/web-stack-provisioner/setup"
)

// Event represents the input event for the Lambda function
type Event struct {
	// Region overrides AWS_REGION_NAME when set.
	Region string `json:"region,omitempty"`
}

// Response represents the output of the Lambda function
type Response = provision.Result

type stackBuilder func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (runner, error)

type runner interface {
	Run(ctx context.Context) (provision.Result, error)
}

func newHandler(build stackBuilder) func(context.Context, Event) (Response, error) {
	return func(ctx context.Context, event Event) (Response, error) {
		// Environment is set on the function; there is no .env file.
		cfg, err := config.Load("")
		if err != nil {
			return Response{}, err
		}
		if event.Region != "" {
			cfg.Region = event.Region
		}

		logger, err := logging.New("provisioner", cfg.LogLevel)
		if err != nil {
			return Response{}, err
		}
		defer logger.Sync() //nolint:errcheck
		logger.Info("Starting web stack provisioner Lambda", zap.String("region", cfg.Region))

		stack, err := build(ctx, cfg, logger)
		if err != nil {
			logger.Error("Error building provisioner", zap.Error(err))
			return Response{}, err
		}

		result, err := stack.Run(ctx)
		if err != nil {
			return Response{}, fmt.Errorf("provisioning web stack: %w", err)
		}
		return result, nil
	}
}

func buildStack(ctx context.Context, cfg *config.Config, logger *zap.Logger) (runner, error) {
	stack, err := setup.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return stack, nil
}

func main() {
	lambda.Start(newHandler(buildStack))
}
