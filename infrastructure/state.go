package main

import (
	"github.com/pulumi/pulumi-aws/sdk/v5/go/aws/dynamodb"
	"github.com/pulumi/pulumi-aws/sdk/v5/go/aws/sqs"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// StateResources holds the resources the provisioner writes run state to
type StateResources struct {
	JournalTable *dynamodb.Table
	NotifyQueue  *sqs.Queue
}

// createStateResources creates the run journal table and the completion queue
func createStateResources(ctx *pulumi.Context) (*StateResources, error) {
	// One item per created resource, keyed by run, plus a "result" item
	journalTable, err := dynamodb.NewTable(ctx, "web-stack-provision-runs", &dynamodb.TableArgs{
		Attributes: dynamodb.TableAttributeArray{
			&dynamodb.TableAttributeArgs{
				Name: pulumi.String("RunID"),
				Type: pulumi.String("S"),
			},
			&dynamodb.TableAttributeArgs{
				Name: pulumi.String("Resource"),
				Type: pulumi.String("S"),
			},
		},
		HashKey:     pulumi.String("RunID"),
		RangeKey:    pulumi.String("Resource"),
		BillingMode: pulumi.String("PAY_PER_REQUEST"),
		Tags: pulumi.StringMap{
			"Name": pulumi.String("web-stack-provision-runs"),
		},
	})
	if err != nil {
		return nil, err
	}

	notifyQueue, err := sqs.NewQueue(ctx, "web-stack-provisioned", &sqs.QueueArgs{
		VisibilityTimeoutSeconds: pulumi.Int(60),
		MessageRetentionSeconds:  pulumi.Int(345600), // 4 days
		Tags: pulumi.StringMap{
			"Name": pulumi.String("web-stack-provisioned"),
		},
	})
	if err != nil {
		return nil, err
	}

	return &StateResources{
		JournalTable: journalTable,
		NotifyQueue:  notifyQueue,
	}, nil
}
