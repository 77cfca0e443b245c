package provision_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/zhang1980s/web-stack-provisioner/provision"
)

// fakeCloud is an in-memory provision.Cloud that records every call in
// order together with its arguments.
type fakeCloud struct {
	mu sync.Mutex

	calls []string

	groupSpecs    []provision.SecurityGroupSpec
	ingress       map[string][]provision.TrafficRule
	egress        map[string][]provision.TrafficRule
	dbSpecs       []provision.DBInstanceSpec
	describeIDs   []string
	bucketSpecs   []provision.BucketSpec
	policies      map[string]string
	identitySpecs []provision.OriginAccessIdentitySpec
	distSpecs     []provision.DistributionSpec

	buckets map[string]bool

	groupID      string
	dbIdentifier string
	identityIDs  []string
	domainName   string
	descriptors  [][]provision.DBInstance
	describeHook func(call int)

	errs map[string]error
}

func newFakeCloud() *fakeCloud {
	return &fakeCloud{
		ingress:     make(map[string][]provision.TrafficRule),
		egress:      make(map[string][]provision.TrafficRule),
		policies:    make(map[string]string),
		buckets:     make(map[string]bool),
		groupID:     "sg-1",
		identityIDs: []string{"oai-1"},
		domainName:  "d111.cloudfront.net",
		errs:        make(map[string]error),
	}
}

func (f *fakeCloud) called(name string) error {
	f.calls = append(f.calls, name)
	return f.errs[name]
}

func (f *fakeCloud) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeCloud) CreateSecurityGroup(ctx context.Context, spec provision.SecurityGroupSpec) (provision.SecurityGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groupSpecs = append(f.groupSpecs, spec)
	if err := f.called("CreateSecurityGroup"); err != nil {
		return provision.SecurityGroup{}, err
	}
	return provision.SecurityGroup{ID: f.groupID}, nil
}

func (f *fakeCloud) AuthorizeIngress(ctx context.Context, groupID string, rule provision.TrafficRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ingress[groupID] = append(f.ingress[groupID], rule)
	return f.called("AuthorizeIngress")
}

func (f *fakeCloud) AuthorizeEgress(ctx context.Context, groupID string, rule provision.TrafficRule) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.egress[groupID] = append(f.egress[groupID], rule)
	return f.called("AuthorizeEgress")
}

func (f *fakeCloud) CreateDBInstance(ctx context.Context, spec provision.DBInstanceSpec) (provision.DBInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dbSpecs = append(f.dbSpecs, spec)
	if err := f.called("CreateDBInstance"); err != nil {
		return provision.DBInstance{}, err
	}
	id := spec.Identifier
	if f.dbIdentifier != "" {
		id = f.dbIdentifier
	}
	return provision.DBInstance{Identifier: id, Status: "creating"}, nil
}

func (f *fakeCloud) DescribeDBInstances(ctx context.Context, identifier string) ([]provision.DBInstance, error) {
	f.mu.Lock()
	f.describeIDs = append(f.describeIDs, identifier)
	err := f.called("DescribeDBInstances")
	call := len(f.describeIDs)
	var out []provision.DBInstance
	if len(f.descriptors) > 0 {
		out = f.descriptors[0]
		if len(f.descriptors) > 1 {
			f.descriptors = f.descriptors[1:]
		}
	}
	hook := f.describeHook
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *fakeCloud) CreateBucket(ctx context.Context, spec provision.BucketSpec) (provision.Bucket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bucketSpecs = append(f.bucketSpecs, spec)
	if err := f.called("CreateBucket"); err != nil {
		return provision.Bucket{}, err
	}
	if f.buckets[spec.Name] {
		return provision.Bucket{}, &provision.ResourceCreationError{
			Resource: "bucket",
			Name:     spec.Name,
			Err:      fmt.Errorf("BucketAlreadyExists"),
		}
	}
	f.buckets[spec.Name] = true
	return provision.Bucket{Name: spec.Name}, nil
}

func (f *fakeCloud) PutBucketPolicy(ctx context.Context, bucket string, policy string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.policies[bucket] = policy
	return f.called("PutBucketPolicy")
}

func (f *fakeCloud) CreateOriginAccessIdentity(ctx context.Context, spec provision.OriginAccessIdentitySpec) (provision.OriginAccessIdentity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.identitySpecs = append(f.identitySpecs, spec)
	if err := f.called("CreateOriginAccessIdentity"); err != nil {
		return provision.OriginAccessIdentity{}, err
	}
	id := f.identityIDs[0]
	if len(f.identityIDs) > 1 {
		f.identityIDs = f.identityIDs[1:]
	}
	return provision.OriginAccessIdentity{ID: id}, nil
}

func (f *fakeCloud) CreateDistribution(ctx context.Context, spec provision.DistributionSpec) (provision.Distribution, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.distSpecs = append(f.distSpecs, spec)
	if err := f.called("CreateDistribution"); err != nil {
		return provision.Distribution{}, err
	}
	return provision.Distribution{ID: "E1", DomainName: f.domainName}, nil
}

func pending(id string) []provision.DBInstance {
	return []provision.DBInstance{{Identifier: id, Status: "creating"}}
}

func available(id, address string) []provision.DBInstance {
	return []provision.DBInstance{{
		Identifier: id,
		Status:     "available",
		Endpoint:   &provision.Endpoint{Address: address, Port: 5432},
	}}
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []provision.ResourceRecord
	err     error
}

func (m *memoryRecorder) ResourceCreated(ctx context.Context, rec provision.ResourceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return m.err
}

type memoryNotifier struct {
	results []provision.Result
	err     error
}

func (m *memoryNotifier) Completed(ctx context.Context, result provision.Result) error {
	m.results = append(m.results, result)
	return m.err
}
