// Package awscloud implements provision.Cloud with the AWS SDK.
package awscloud

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/zhang1980s/web-stack-provisioner/provision"
)

// EC2API is the subset of the EC2 client used for security groups.
type EC2API interface {
	CreateSecurityGroup(ctx context.Context, params *ec2.CreateSecurityGroupInput, optFns ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error)
	AuthorizeSecurityGroupIngress(ctx context.Context, params *ec2.AuthorizeSecurityGroupIngressInput, optFns ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error)
	AuthorizeSecurityGroupEgress(ctx context.Context, params *ec2.AuthorizeSecurityGroupEgressInput, optFns ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupEgressOutput, error)
}

// RDSAPI is the subset of the RDS client used for the database instance.
type RDSAPI interface {
	CreateDBInstance(ctx context.Context, params *rds.CreateDBInstanceInput, optFns ...func(*rds.Options)) (*rds.CreateDBInstanceOutput, error)
	DescribeDBInstances(ctx context.Context, params *rds.DescribeDBInstancesInput, optFns ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error)
}

// S3API is the subset of the S3 client used for the bucket.
type S3API interface {
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutBucketPolicy(ctx context.Context, params *s3.PutBucketPolicyInput, optFns ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error)
}

// CloudFrontAPI is the subset of the CloudFront client used for the edge
// layer.
type CloudFrontAPI interface {
	CreateCloudFrontOriginAccessIdentity(ctx context.Context, params *cloudfront.CreateCloudFrontOriginAccessIdentityInput, optFns ...func(*cloudfront.Options)) (*cloudfront.CreateCloudFrontOriginAccessIdentityOutput, error)
	CreateDistribution(ctx context.Context, params *cloudfront.CreateDistributionInput, optFns ...func(*cloudfront.Options)) (*cloudfront.CreateDistributionOutput, error)
}

// Cloud talks to EC2, RDS, S3 and CloudFront in one region.
type Cloud struct {
	ec2        EC2API
	rds        RDSAPI
	s3         S3API
	cloudfront CloudFrontAPI
	region     string
	logger     *zap.Logger
}

var _ provision.Cloud = (*Cloud)(nil)

// New creates the service clients from cfg. The region of cfg decides
// where the security group, database and bucket are created.
func New(cfg aws.Config, logger *zap.Logger) *Cloud {
	return NewWithClients(
		ec2.NewFromConfig(cfg),
		rds.NewFromConfig(cfg),
		s3.NewFromConfig(cfg),
		cloudfront.NewFromConfig(cfg),
		cfg.Region,
		logger,
	)
}

// NewWithClients assembles a Cloud from already constructed clients.
func NewWithClients(ec2Client EC2API, rdsClient RDSAPI, s3Client S3API, cfClient CloudFrontAPI, region string, logger *zap.Logger) *Cloud {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cloud{
		ec2:        ec2Client,
		rds:        rdsClient,
		s3:         s3Client,
		cloudfront: cfClient,
		region:     region,
		logger:     logger,
	}
}
