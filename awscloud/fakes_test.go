package awscloud_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

func apiError(code, message string) error {
	return &smithy.GenericAPIError{Code: code, Message: message}
}

// ec2Server keeps security groups in memory.
type ec2Server struct {
	mu      sync.Mutex
	groups  map[string]*ec2.CreateSecurityGroupInput
	ingress []*ec2.AuthorizeSecurityGroupIngressInput
	egress  []*ec2.AuthorizeSecurityGroupEgressInput
	err     error
}

func newEC2Server() *ec2Server {
	return &ec2Server{groups: make(map[string]*ec2.CreateSecurityGroupInput)}
}

func (e *ec2Server) CreateSecurityGroup(ctx context.Context, input *ec2.CreateSecurityGroupInput, opts ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	for _, g := range e.groups {
		if aws.ToString(g.GroupName) == aws.ToString(input.GroupName) && aws.ToString(g.VpcId) == aws.ToString(input.VpcId) {
			return nil, apiError("InvalidGroup.Duplicate", fmt.Sprintf("group %s already exists", aws.ToString(input.GroupName)))
		}
	}
	id := fmt.Sprintf("sg-%d", len(e.groups)+1)
	e.groups[id] = input
	return &ec2.CreateSecurityGroupOutput{GroupId: aws.String(id)}, nil
}

func (e *ec2Server) AuthorizeSecurityGroupIngress(ctx context.Context, input *ec2.AuthorizeSecurityGroupIngressInput, opts ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.groups[aws.ToString(input.GroupId)]; !ok {
		return nil, apiError("InvalidGroup.NotFound", "group not found")
	}
	e.ingress = append(e.ingress, input)
	return &ec2.AuthorizeSecurityGroupIngressOutput{Return: aws.Bool(true)}, nil
}

func (e *ec2Server) AuthorizeSecurityGroupEgress(ctx context.Context, input *ec2.AuthorizeSecurityGroupEgressInput, opts ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupEgressOutput, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.groups[aws.ToString(input.GroupId)]; !ok {
		return nil, apiError("InvalidGroup.NotFound", "group not found")
	}
	e.egress = append(e.egress, input)
	return &ec2.AuthorizeSecurityGroupEgressOutput{Return: aws.Bool(true)}, nil
}

// rdsServer keeps database instances in memory. An instance gains an
// endpoint after readyAfter describe calls.
type rdsServer struct {
	mu         sync.Mutex
	instances  map[string]*rds.CreateDBInstanceInput
	describes  []*rds.DescribeDBInstancesInput
	readyAfter int
	pages      [][]rdstypes.DBInstance
	err        error
}

func newRDSServer() *rdsServer {
	return &rdsServer{instances: make(map[string]*rds.CreateDBInstanceInput)}
}

func (r *rdsServer) CreateDBInstance(ctx context.Context, input *rds.CreateDBInstanceInput, opts ...func(*rds.Options)) (*rds.CreateDBInstanceOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	id := aws.ToString(input.DBInstanceIdentifier)
	if _, exists := r.instances[id]; exists {
		return nil, apiError("DBInstanceAlreadyExists", fmt.Sprintf("instance %s", id))
	}
	r.instances[id] = input
	return &rds.CreateDBInstanceOutput{DBInstance: &rdstypes.DBInstance{
		DBInstanceIdentifier: aws.String(id),
		DBInstanceStatus:     aws.String("creating"),
	}}, nil
}

func (r *rdsServer) DescribeDBInstances(ctx context.Context, input *rds.DescribeDBInstancesInput, opts ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.describes = append(r.describes, input)

	if r.pages != nil {
		page := 0
		if input.Marker != nil {
			fmt.Sscanf(aws.ToString(input.Marker), "page-%d", &page)
		}
		out := &rds.DescribeDBInstancesOutput{DBInstances: r.pages[page]}
		if page+1 < len(r.pages) {
			out.Marker = aws.String(fmt.Sprintf("page-%d", page+1))
		}
		return out, nil
	}

	var ids []string
	for _, f := range input.Filters {
		if aws.ToString(f.Name) == "db-instance-id" {
			ids = append(ids, f.Values...)
		}
	}
	out := &rds.DescribeDBInstancesOutput{}
	for _, id := range ids {
		if _, ok := r.instances[id]; !ok {
			continue
		}
		instance := rdstypes.DBInstance{
			DBInstanceIdentifier: aws.String(id),
			DBInstanceStatus:     aws.String("creating"),
		}
		if len(r.describes) > r.readyAfter {
			instance.DBInstanceStatus = aws.String("available")
			instance.Endpoint = &rdstypes.Endpoint{
				Address: aws.String(id + ".xxxx.us-east-1.rds.amazonaws.com"),
				Port:    aws.Int32(5432),
			}
		}
		out.DBInstances = append(out.DBInstances, instance)
	}
	return out, nil
}

// s3Server keeps bucket names and policies in memory. Bucket names are
// global, as with the real service.
type s3Server struct {
	mu       sync.Mutex
	buckets  map[string]*s3.CreateBucketInput
	policies map[string]string
	err      error
}

func newS3Server() *s3Server {
	return &s3Server{
		buckets:  make(map[string]*s3.CreateBucketInput),
		policies: make(map[string]string),
	}
}

func (s *s3Server) CreateBucket(ctx context.Context, input *s3.CreateBucketInput, opts ...func(*s3.Options)) (*s3.CreateBucketOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	name := aws.ToString(input.Bucket)
	if _, exists := s.buckets[name]; exists {
		return nil, apiError("BucketAlreadyExists", "The requested bucket name is not available.")
	}
	s.buckets[name] = input
	return &s3.CreateBucketOutput{Location: aws.String("/" + name)}, nil
}

func (s *s3Server) PutBucketPolicy(ctx context.Context, input *s3.PutBucketPolicyInput, opts ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := aws.ToString(input.Bucket)
	if _, exists := s.buckets[name]; !exists {
		return nil, apiError("NoSuchBucket", "The specified bucket does not exist")
	}
	s.policies[name] = aws.ToString(input.Policy)
	return &s3.PutBucketPolicyOutput{}, nil
}

// cloudFrontServer keeps identities and distributions in memory. With
// empty set, successful calls return outputs without a descriptor.
type cloudFrontServer struct {
	mu            sync.Mutex
	identities    []*cloudfront.CreateCloudFrontOriginAccessIdentityInput
	distributions []*cloudfront.CreateDistributionInput
	err           error
	empty         bool
}

func (c *cloudFrontServer) CreateCloudFrontOriginAccessIdentity(ctx context.Context, input *cloudfront.CreateCloudFrontOriginAccessIdentityInput, opts ...func(*cloudfront.Options)) (*cloudfront.CreateCloudFrontOriginAccessIdentityOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.identities = append(c.identities, input)
	if c.empty {
		return &cloudfront.CreateCloudFrontOriginAccessIdentityOutput{}, nil
	}
	id := fmt.Sprintf("oai-%d", len(c.identities))
	return &cloudfront.CreateCloudFrontOriginAccessIdentityOutput{
		CloudFrontOriginAccessIdentity: &cftypes.CloudFrontOriginAccessIdentity{
			Id:                aws.String(id),
			S3CanonicalUserId: aws.String("canonical-" + id),
		},
	}, nil
}

func (c *cloudFrontServer) CreateDistribution(ctx context.Context, input *cloudfront.CreateDistributionInput, opts ...func(*cloudfront.Options)) (*cloudfront.CreateDistributionOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	c.distributions = append(c.distributions, input)
	if c.empty {
		return &cloudfront.CreateDistributionOutput{}, nil
	}
	return &cloudfront.CreateDistributionOutput{
		Distribution: &cftypes.Distribution{
			Id:         aws.String("E1"),
			ARN:        aws.String("arn:aws:cloudfront::123456789012:distribution/E1"),
			DomainName: aws.String("d111.cloudfront.net"),
		},
	}, nil
}

type failingRDS struct {
	rdsServer
	err error
}

func (f *failingRDS) DescribeDBInstances(ctx context.Context, input *rds.DescribeDBInstancesInput, opts ...func(*rds.Options)) (*rds.DescribeDBInstancesOutput, error) {
	return nil, f.err
}

type failingS3 struct {
	s3Server
	err error
}

func (f *failingS3) PutBucketPolicy(ctx context.Context, input *s3.PutBucketPolicyInput, opts ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error) {
	return nil, f.err
}
