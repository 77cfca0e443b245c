package awscloud

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/zhang1980s/web-stack-provisioner/provision"
)

// regionWithoutConstraint is the only region where CreateBucket must not
// carry a location constraint.
const regionWithoutConstraint = "us-east-1"

// CreateBucket creates the bucket in the client's region.
func (c *Cloud) CreateBucket(ctx context.Context, spec provision.BucketSpec) (provision.Bucket, error) {
	c.logger.Debug("creating bucket", zap.String("bucket", spec.Name), zap.String("region", c.region))

	input := &s3.CreateBucketInput{
		Bucket: aws.String(spec.Name),
		ACL:    s3types.BucketCannedACL(spec.ACL),
	}
	if c.region != "" && c.region != regionWithoutConstraint {
		input.CreateBucketConfiguration = &s3types.CreateBucketConfiguration{
			LocationConstraint: s3types.BucketLocationConstraint(c.region),
		}
	}

	if _, err := c.s3.CreateBucket(ctx, input); err != nil {
		return provision.Bucket{}, classify(provision.KindBucket, spec.Name, err)
	}
	return provision.Bucket{Name: spec.Name}, nil
}

// PutBucketPolicy replaces the policy of bucket with policy.
func (c *Cloud) PutBucketPolicy(ctx context.Context, bucket string, policy string) error {
	_, err := c.s3.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(bucket),
		Policy: aws.String(policy),
	})
	if err != nil {
		return classifyPolicy(bucket, err)
	}
	return nil
}
