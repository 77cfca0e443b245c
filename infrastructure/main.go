package main

import (
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

func main() {
	pulumi.Run(func(ctx *pulumi.Context) error {
		// 1. Journal table and completion queue
		stateResources, err := createStateResources(ctx)
		if err != nil {
			return err
		}

		// 2. Role the provisioner runs as
		iamResources, err := createIamResources(ctx, stateResources)
		if err != nil {
			return err
		}

		// 3. Provisioner Lambda function
		provisioner, err := createProvisionerFunction(ctx, stateResources, iamResources)
		if err != nil {
			return err
		}

		ctx.Export("journalTableName", stateResources.JournalTable.Name)
		ctx.Export("notifyQueueUrl", stateResources.NotifyQueue.Url)
		ctx.Export("provisionerRoleArn", iamResources.provisionerRole.Arn)
		ctx.Export("provisionerLambdaArn", provisioner.Arn)
		ctx.Export("provisionerLambdaName", provisioner.Name)

		return nil
	})
}
