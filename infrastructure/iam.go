package main

import (
	"encoding/json"

	"github.com/pulumi/pulumi-aws/sdk/v5/go/aws/iam"
	"github.com/pulumi/pulumi/sdk/v3/go/pulumi"
)

// IamResources holds all the IAM resources
type IamResources struct {
	provisionerRole *iam.Role
}

// provisionerActions are the API calls the provisioner makes against the
// services it creates resources in.
var provisionerActions = []string{
	"ec2:CreateSecurityGroup",
	"ec2:AuthorizeSecurityGroupIngress",
	"ec2:AuthorizeSecurityGroupEgress",
	"ec2:CreateTags",
	"rds:CreateDBInstance",
	"rds:DescribeDBInstances",
	"rds:AddTagsToResource",
	"s3:CreateBucket",
	"s3:PutBucketAcl",
	"s3:PutBucketPolicy",
	"cloudfront:CreateCloudFrontOriginAccessIdentity",
	"cloudfront:CreateDistribution",
}

// createIamResources creates the Lambda execution role and its policies
func createIamResources(ctx *pulumi.Context, state *StateResources) (*IamResources, error) {
	provisionerRole, err := iam.NewRole(ctx, "web-stack-provisioner-role", &iam.RoleArgs{
		AssumeRolePolicy: pulumi.String(`{
			"Version": "2012-10-17",
			"Statement": [{
				"Action": "sts:AssumeRole",
				"Principal": {
					"Service": "lambda.amazonaws.com"
				},
				"Effect": "Allow",
				"Sid": ""
			}]
		}`),
		Tags: pulumi.StringMap{
			"Name": pulumi.String("web-stack-provisioner-role"),
		},
	})
	if err != nil {
		return nil, err
	}

	_, err = iam.NewRolePolicyAttachment(ctx, "web-stack-provisioner-basic-execution", &iam.RolePolicyAttachmentArgs{
		Role:      provisionerRole.Name,
		PolicyArn: pulumi.String("arn:aws:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"),
	})
	if err != nil {
		return nil, err
	}

	policyDocument := pulumi.All(state.JournalTable.Arn, state.NotifyQueue.Arn).ApplyT(func(args []interface{}) (string, error) {
		tableArn := args[0].(string)
		queueArn := args[1].(string)
		doc := map[string]interface{}{
			"Version": "2012-10-17",
			"Statement": []map[string]interface{}{
				{
					"Effect":   "Allow",
					"Action":   provisionerActions,
					"Resource": "*",
				},
				{
					"Effect": "Allow",
					"Action": []string{
						"dynamodb:GetItem",
						"dynamodb:PutItem",
						"dynamodb:UpdateItem",
						"dynamodb:Query",
					},
					"Resource": tableArn,
				},
				{
					"Effect":   "Allow",
					"Action":   []string{"sqs:SendMessage"},
					"Resource": queueArn,
				},
			},
		}
		b, err := json.Marshal(doc)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}).(pulumi.StringOutput)

	provisionerPolicy, err := iam.NewPolicy(ctx, "web-stack-provisioner-policy", &iam.PolicyArgs{
		Description: pulumi.String("Policy for the web stack provisioner Lambda function"),
		Policy:      policyDocument,
	})
	if err != nil {
		return nil, err
	}

	_, err = iam.NewRolePolicyAttachment(ctx, "web-stack-provisioner-policy-attachment", &iam.RolePolicyAttachmentArgs{
		Role:      provisionerRole.Name,
		PolicyArn: provisionerPolicy.Arn,
	})
	if err != nil {
		return nil, err
	}

	return &IamResources{
		provisionerRole: provisionerRole,
	}, nil
}
