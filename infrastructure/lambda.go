package main

import (
	"github.com/pulumi/pulumi-aws/sdk/v5/go/aws/lambda"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi/config"
)

// createProvisionerFunction deploys lambdas/provisioner built into
// ../build/provisioner.zip
func createProvisionerFunction(ctx *pulumi.Context, state *StateResources, iamResources *IamResources) (*lambda.Function, error) {
	projectCfg := config.New(ctx, "web-stack-provisioner")

	memory := projectCfg.GetInt("provisionerMemory")
	if memory == 0 {
		memory = 256
	}
	// The readiness wait dominates the run; keep READINESS_TIMEOUT below
	// the function timeout.
	timeout := projectCfg.GetInt("provisionerTimeout")
	if timeout == 0 {
		timeout = 900
	}
	readinessTimeout := projectCfg.Get("readinessTimeout")
	if readinessTimeout == "" {
		readinessTimeout = "13m"
	}
	pollInterval := projectCfg.Get("readinessPollInterval")
	if pollInterval == "" {
		pollInterval = "30s"
	}

	variables := pulumi.StringMap{
		"DEFAULT_VPC_ID":          pulumi.String(projectCfg.Require("vpcId")),
		"RDS_DB_NAME":             pulumi.String(projectCfg.Require("dbName")),
		"DB_INSTANCE_IDENTIFIER":  pulumi.String(projectCfg.Require("dbInstanceIdentifier")),
		"RDS_USERNAME":            pulumi.String(projectCfg.Require("dbUsername")),
		"RDS_PASSWORD":            projectCfg.RequireSecret("dbPassword"),
		"S3_BUCKET_NAME":          pulumi.String(projectCfg.Require("bucketName")),
		"JOURNAL_TABLE_NAME":      state.JournalTable.Name,
		"NOTIFY_QUEUE_URL":        state.NotifyQueue.Url,
		"READINESS_POLL_INTERVAL": pulumi.String(pollInterval),
		"READINESS_TIMEOUT":       pulumi.String(readinessTimeout),
	}
	// Without it the function provisions in us-east-1, whatever region it
	// runs in.
	if region := projectCfg.Get("region"); region != "" {
		variables["AWS_REGION_NAME"] = pulumi.String(region)
	}

	return lambda.NewFunction(ctx, "web-stack-provisioner", &lambda.FunctionArgs{
		Runtime:       pulumi.String("provided.al2023"),
		Architectures: pulumi.StringArray{pulumi.String("arm64")},
		Code:          pulumi.NewFileArchive("../build/provisioner.zip"),
		Handler:       pulumi.String("bootstrap"),
		Role:          iamResources.provisionerRole.Arn,
		MemorySize:    pulumi.Int(memory),
		Timeout:       pulumi.Int(timeout),
		Environment: &lambda.FunctionEnvironmentArgs{
			Variables: variables,
		},
		Tags: pulumi.StringMap{
			"Name": pulumi.String("web-stack-provisioner"),
		},
	})
}
