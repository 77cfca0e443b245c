// Package notify announces finished provisioning runs on an SQS queue.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/zhang1980s/web-stack-provisioner/provision"
)

// SQSAPI is the subset of the SQS client the notifier uses.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Queue sends one message per completed run.
type Queue struct {
	client   SQSAPI
	queueURL string
	logger   *zap.Logger
}

var _ provision.Notifier = (*Queue)(nil)

func New(client SQSAPI, queueURL string, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Queue{client: client, queueURL: queueURL, logger: logger}
}

// Completed sends result as a JSON message body. The run id travels as a
// message attribute as well so consumers can filter without parsing.
func (q *Queue) Completed(ctx context.Context, result provision.Result) error {
	q.logger.Info("sending completion notice", zap.String("run_id", result.RunID), zap.String("queue_url", q.queueURL))

	body, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encoding completion notice: %w", err)
	}

	input := &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(string(body)),
	}
	if result.RunID != "" {
		input.MessageAttributes = map[string]sqstypes.MessageAttributeValue{
			"RunID": {DataType: aws.String("String"), StringValue: aws.String(result.RunID)},
		}
	}

	out, err := q.client.SendMessage(ctx, input)
	if err != nil {
		return fmt.Errorf("sending completion notice for run %s: %w", result.RunID, err)
	}
	q.logger.Debug("completion notice sent", zap.String("message_id", aws.ToString(out.MessageId)))
	return nil
}
