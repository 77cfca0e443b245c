package provision

import "context"

// Cloud is the set of provider operations the provisioner needs. Every
// operation either returns a descriptor carrying the provider-assigned
// identifier or fails with a provider error.
type Cloud interface {
	CreateSecurityGroup(ctx context.Context, spec SecurityGroupSpec) (SecurityGroup, error)
	AuthorizeIngress(ctx context.Context, groupID string, rule TrafficRule) error
	AuthorizeEgress(ctx context.Context, groupID string, rule TrafficRule) error

	CreateDBInstance(ctx context.Context, spec DBInstanceSpec) (DBInstance, error)
	// DescribeDBInstances returns the instances matching the db-instance-id
	// filter for identifier.
	DescribeDBInstances(ctx context.Context, identifier string) ([]DBInstance, error)

	CreateBucket(ctx context.Context, spec BucketSpec) (Bucket, error)
	PutBucketPolicy(ctx context.Context, bucket string, policy string) error

	CreateOriginAccessIdentity(ctx context.Context, spec OriginAccessIdentitySpec) (OriginAccessIdentity, error)
	CreateDistribution(ctx context.Context, spec DistributionSpec) (Distribution, error)
}

// Tag is a provider resource tag.
type Tag struct {
	Key   string
	Value string
}

// SecurityGroupSpec describes the traffic-control group to create.
type SecurityGroupSpec struct {
	VPCID       string
	Name        string
	Description string
	Tags        []Tag
}

// SecurityGroup is the descriptor of a created security group.
type SecurityGroup struct {
	ID string
}

// TrafficRule is a single permission attached to a security group.
// Protocol "-1" means every protocol.
type TrafficRule struct {
	Protocol    string
	FromPort    int32
	ToPort      int32
	IPv4Ranges  []string
	IPv6Ranges  []string
	Description string
	Tags        []Tag
}

// DBInstanceSpec describes a managed relational database instance.
type DBInstanceSpec struct {
	DBName           string
	Identifier       string
	AllocatedStorage int32
	InstanceClass    string
	Engine           string
	EngineVersion    string
	MasterUsername   string
	MasterPassword   string
	SecurityGroupIDs []string
	Tags             []Tag
}

// Endpoint is the network address of an available database instance.
type Endpoint struct {
	Address string
	Port    int32
}

// DBInstance is the descriptor of a database instance. Endpoint stays nil
// until the instance becomes reachable.
type DBInstance struct {
	Identifier string
	Status     string
	Endpoint   *Endpoint
}

// BucketSpec describes an object storage bucket.
type BucketSpec struct {
	Name string
	ACL  string
}

// Bucket is the descriptor of a created bucket.
type Bucket struct {
	Name string
}

// OriginAccessIdentitySpec describes a CloudFront origin access identity.
type OriginAccessIdentitySpec struct {
	CallerReference string
	Comment         string
}

// OriginAccessIdentity is the descriptor of a created origin access identity.
type OriginAccessIdentity struct {
	ID                string
	S3CanonicalUserID string
}

// DistributionSpec describes a CloudFront distribution with a single S3
// origin.
type DistributionSpec struct {
	CallerReference string
	Comment         string

	OriginID             string
	OriginDomainName     string
	OriginAccessIdentity string

	ViewerProtocolPolicy string
	AllowedMethods       []string
	CachedMethods        []string
	Compress             bool
	ForwardQueryString   bool
	ForwardCookies       string
	MinTTL               int64
	DefaultTTL           int64
	MaxTTL               int64

	GeoRestriction     string
	DefaultCertificate bool
	Enabled            bool
	IPv6Enabled        bool
	DefaultRootObject  string
}

// Distribution is the descriptor of a created distribution.
type Distribution struct {
	ID         string
	ARN        string
	DomainName string
}
