// Package journal keeps a DynamoDB record of every resource a provisioning
// run creates, plus the run's final result.
//
// The table has a string partition key RunID and a string sort key
// Resource. Resource items use "<kind>#<identifier>" as sort key; the result
// of a successful run is stored under ResultKey.
package journal

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/juju/clock"
	"go.uber.org/zap"

	"github.com/zhang1980s/web-stack-provisioner/provision"
)

// ResultKey is the sort key of the item holding a run's result.
const ResultKey = "result"

// DynamoDBAPI is the subset of the DynamoDB client the journal uses.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Entry is one item of the journal table.
type Entry struct {
	RunID                string `dynamodbav:"RunID"`
	Resource             string `dynamodbav:"Resource"`
	Kind                 string `dynamodbav:"Kind,omitempty"`
	Identifier           string `dynamodbav:"Identifier,omitempty"`
	CreatedAt            int64  `dynamodbav:"CreatedAt,omitempty"`
	DBHostName           string `dynamodbav:"DBHostName,omitempty"`
	CloudFrontDomainName string `dynamodbav:"CloudFrontDomainName,omitempty"`
	CompletedAt          int64  `dynamodbav:"CompletedAt,omitempty"`
}

// IsResult reports whether the entry holds a run result rather than a
// resource.
func (e Entry) IsResult() bool {
	return e.Resource == ResultKey
}

// Journal writes to and reads from one table.
type Journal struct {
	client DynamoDBAPI
	table  string
	clock  clock.Clock
	logger *zap.Logger
}

var (
	_ provision.Recorder = (*Journal)(nil)
	_ provision.Notifier = (*Journal)(nil)
)

// New returns a journal on table. A nil clock means the wall clock.
func New(client DynamoDBAPI, table string, clk clock.Clock, logger *zap.Logger) *Journal {
	if clk == nil {
		clk = clock.WallClock
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Journal{client: client, table: table, clock: clk, logger: logger}
}

func resourceKey(kind, identifier string) string {
	return kind + "#" + identifier
}

func itemKey(runID, resource string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"RunID":    &types.AttributeValueMemberS{Value: runID},
		"Resource": &types.AttributeValueMemberS{Value: resource},
	}
}

// ResourceCreated stores record as a new item.
func (j *Journal) ResourceCreated(ctx context.Context, record provision.ResourceRecord) error {
	j.logger.Debug("recording resource",
		zap.String("run_id", record.RunID),
		zap.String("kind", record.Kind),
		zap.String("identifier", record.Identifier),
	)

	item, err := attributevalue.MarshalMap(Entry{
		RunID:      record.RunID,
		Resource:   resourceKey(record.Kind, record.Identifier),
		Kind:       record.Kind,
		Identifier: record.Identifier,
		CreatedAt:  record.CreatedAt.Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshalling journal entry: %w", err)
	}

	_, err = j.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(j.table),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("writing journal entry for %s %s: %w", record.Kind, record.Identifier, err)
	}
	return nil
}

// Completed sets the endpoints and completion time on the run's result
// item, creating it if needed.
func (j *Journal) Completed(ctx context.Context, result provision.Result) error {
	j.logger.Debug("recording run result", zap.String("run_id", result.RunID))

	now := j.clock.Now().Unix()
	_, err := j.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(j.table),
		Key:              itemKey(result.RunID, ResultKey),
		UpdateExpression: aws.String("SET #dbHost = :dbHost, #cdnDomain = :cdnDomain, #completedAt = :completedAt"),
		ExpressionAttributeNames: map[string]string{
			"#dbHost":      "DBHostName",
			"#cdnDomain":   "CloudFrontDomainName",
			"#completedAt": "CompletedAt",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":dbHost":      &types.AttributeValueMemberS{Value: result.DBHostName},
			":cdnDomain":   &types.AttributeValueMemberS{Value: result.CloudFrontDomainName},
			":completedAt": &types.AttributeValueMemberN{Value: strconv.FormatInt(now, 10)},
		},
	})
	if err != nil {
		return fmt.Errorf("writing result of run %s: %w", result.RunID, err)
	}
	return nil
}

// Result returns the stored result of a run, or nil if the run never
// completed.
func (j *Journal) Result(ctx context.Context, runID string) (*Entry, error) {
	resp, err := j.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(j.table),
		Key:       itemKey(runID, ResultKey),
	})
	if err != nil {
		return nil, fmt.Errorf("reading result of run %s: %w", runID, err)
	}
	if len(resp.Item) == 0 {
		return nil, nil
	}

	var entry Entry
	if err := attributevalue.UnmarshalMap(resp.Item, &entry); err != nil {
		return nil, fmt.Errorf("unmarshalling result of run %s: %w", runID, err)
	}
	return &entry, nil
}

// Resources lists the resources recorded for a run in sort key order,
// leaving out the result item.
func (j *Journal) Resources(ctx context.Context, runID string) ([]Entry, error) {
	var entries []Entry
	var startKey map[string]types.AttributeValue

	for {
		resp, err := j.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(j.table),
			KeyConditionExpression: aws.String("RunID = :runID"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":runID": &types.AttributeValueMemberS{Value: runID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, fmt.Errorf("listing journal of run %s: %w", runID, err)
		}

		var page []Entry
		if err := attributevalue.UnmarshalListOfMaps(resp.Items, &page); err != nil {
			return nil, fmt.Errorf("unmarshalling journal of run %s: %w", runID, err)
		}
		for _, e := range page {
			if !e.IsResult() {
				entries = append(entries, e)
			}
		}

		if len(resp.LastEvaluatedKey) == 0 {
			break
		}
		startKey = resp.LastEvaluatedKey
	}

	return entries, nil
}
