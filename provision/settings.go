package provision

import (
	"fmt"
	"slices"
)

// Settings holds the fixed parameters of the stack: everything that is not
// supplied per environment. The provisioner keeps its own copy, so changing
// a Settings value after New has no effect on it.
type Settings struct {
	SecurityGroupName        string
	SecurityGroupDescription string
	SecurityGroupTags        []Tag
	IngressRule              TrafficRule
	EgressRule               TrafficRule

	AllocatedStorage int32
	InstanceClass    string
	Engine           string
	EngineVersion    string
	DatabaseTags     []Tag

	BucketACL string

	// OriginAccessIdentityComment and BucketDomainFormat are formatted with
	// the bucket name.
	OriginAccessIdentityComment string
	BucketDomainFormat          string
	PolicyVersion               string

	DistributionComment  string
	ViewerProtocolPolicy string
	AllowedMethods       []string
	CachedMethods        []string
	Compress             bool
	ForwardQueryString   bool
	ForwardCookies       string
	MinTTL               int64
	DefaultTTL           int64
	MaxTTL               int64
	GeoRestriction       string
	DefaultCertificate   bool
	IPv6Enabled          bool
	DefaultRootObject    string
}

// DefaultSettings returns the demo-grade stack: an allow-all security group,
// the smallest PostgreSQL 12.5 instance and a cached, compressed
// distribution serving index.html.
func DefaultSettings() Settings {
	return Settings{
		SecurityGroupName:        "web-stack-rds-security-group",
		SecurityGroupDescription: "security group for the web stack database",
		SecurityGroupTags:        []Tag{{Key: "Name", Value: "web-stack-rds-security-group"}},
		IngressRule: TrafficRule{
			Protocol:    "-1",
			IPv4Ranges:  []string{"0.0.0.0/0"},
			IPv6Ranges:  []string{"::/0"},
			Description: "allow all (demo only)",
			Tags:        []Tag{{Key: "Name", Value: "ingress rule"}},
		},
		// New groups already carry an IPv4 allow-all egress rule and the
		// provider rejects a duplicate, so only IPv6 is added here.
		EgressRule: TrafficRule{
			Protocol:    "-1",
			IPv6Ranges:  []string{"::/0"},
			Description: "allow all (demo only)",
			Tags:        []Tag{{Key: "Name", Value: "egress rule"}},
		},

		AllocatedStorage: 20,
		InstanceClass:    "db.t2.micro",
		Engine:           "postgres",
		EngineVersion:    "12.5",
		DatabaseTags:     []Tag{{Key: "name", Value: "web_stack_rds"}},

		BucketACL: "private",

		OriginAccessIdentityComment: "access-identity-%s.s3.amazonaws.com",
		BucketDomainFormat:          "%s.s3.amazonaws.com",
		PolicyVersion:               "2008-10-17",

		DistributionComment:  "web stack static distribution",
		ViewerProtocolPolicy: "allow-all",
		AllowedMethods:       []string{"GET", "HEAD", "OPTIONS"},
		CachedMethods:        []string{"GET", "HEAD"},
		Compress:             true,
		ForwardQueryString:   false,
		ForwardCookies:       "none",
		MinTTL:               0,
		DefaultTTL:           3600,
		MaxTTL:               86400,
		GeoRestriction:       "none",
		DefaultCertificate:   true,
		IPv6Enabled:          true,
		DefaultRootObject:    "index.html",
	}
}

// clone returns a deep copy so that callers cannot mutate the slices the
// provisioner holds.
func (s Settings) clone() Settings {
	s.SecurityGroupTags = slices.Clone(s.SecurityGroupTags)
	s.IngressRule = s.IngressRule.clone()
	s.EgressRule = s.EgressRule.clone()
	s.DatabaseTags = slices.Clone(s.DatabaseTags)
	s.AllowedMethods = slices.Clone(s.AllowedMethods)
	s.CachedMethods = slices.Clone(s.CachedMethods)
	return s
}

func (r TrafficRule) clone() TrafficRule {
	r.IPv4Ranges = slices.Clone(r.IPv4Ranges)
	r.IPv6Ranges = slices.Clone(r.IPv6Ranges)
	r.Tags = slices.Clone(r.Tags)
	return r
}

// Validate reports settings that the provider would reject outright.
func (s Settings) Validate() error {
	if s.SecurityGroupName == "" {
		return fmt.Errorf("security group name must be set")
	}
	if s.AllocatedStorage <= 0 {
		return fmt.Errorf("allocated storage must be positive (got %d)", s.AllocatedStorage)
	}
	if s.InstanceClass == "" || s.Engine == "" {
		return fmt.Errorf("database instance class and engine must be set")
	}
	if s.MinTTL < 0 || s.MinTTL > s.DefaultTTL || s.DefaultTTL > s.MaxTTL {
		return fmt.Errorf("cache TTLs must satisfy 0 <= min <= default <= max (got %d/%d/%d)", s.MinTTL, s.DefaultTTL, s.MaxTTL)
	}
	for _, m := range s.CachedMethods {
		if !slices.Contains(s.AllowedMethods, m) {
			return fmt.Errorf("cached method %s is not an allowed method", m)
		}
	}
	return nil
}
