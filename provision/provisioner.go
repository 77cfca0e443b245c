package provision

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"go.uber.org/zap"
)

// Params is the per-environment input of a provisioning run. It is built and
// validated outside this package.
type Params struct {
	VPCID          string
	DBName         string
	DBInstanceID   string
	MasterUsername string
	MasterPassword string
	BucketName     string
}

// Result holds the two endpoints a deployment needs.
type Result struct {
	RunID                string `json:"run_id,omitempty"`
	DBHostName           string `json:"db_host_name"`
	CloudFrontDomainName string `json:"cloudfront_domain_name"`
}

// Map returns the result keyed the way deployment scripts expect it.
func (r Result) Map() map[string]string {
	return map[string]string{
		"db_host_name":           r.DBHostName,
		"cloudfront_domain_name": r.CloudFrontDomainName,
	}
}

// Resource kinds reported to a Recorder.
const (
	KindSecurityGroup        = "security-group"
	KindDBInstance           = "db-instance"
	KindBucket               = "bucket"
	KindOriginAccessIdentity = "origin-access-identity"
	KindBucketPolicy         = "bucket-policy"
	KindDistribution         = "distribution"
)

// ResourceRecord describes one resource created during a run.
type ResourceRecord struct {
	RunID      string
	Kind       string
	Identifier string
	CreatedAt  time.Time
}

// Recorder is told about every resource as soon as it exists. Nothing is
// rolled back on failure, so the records are what an operator cleans up
// from.
type Recorder interface {
	ResourceCreated(ctx context.Context, record ResourceRecord) error
}

// Notifier is told about a successful run.
type Notifier interface {
	Completed(ctx context.Context, result Result) error
}

// Provisioner creates the web stack through a Cloud.
type Provisioner struct {
	cloud     Cloud
	settings  Settings
	wait      WaitPolicy
	clock     clock.Clock
	logger    *zap.Logger
	recorders []Recorder
	notifiers []Notifier
	newRunID  func() string
}

// Option configures a Provisioner.
type Option func(*Provisioner)

// WithSettings replaces DefaultSettings.
func WithSettings(s Settings) Option {
	return func(p *Provisioner) { p.settings = s.clone() }
}

// WithWaitPolicy replaces DefaultWaitPolicy.
func WithWaitPolicy(w WaitPolicy) Option {
	return func(p *Provisioner) { p.wait = w }
}

// WithClock sets the clock used for caller references, record timestamps
// and readiness delays.
func WithClock(c clock.Clock) Option {
	return func(p *Provisioner) { p.clock = c }
}

func WithLogger(l *zap.Logger) Option {
	return func(p *Provisioner) { p.logger = l }
}

func WithRecorder(r Recorder) Option {
	return func(p *Provisioner) { p.recorders = append(p.recorders, r) }
}

func WithNotifier(n Notifier) Option {
	return func(p *Provisioner) { p.notifiers = append(p.notifiers, n) }
}

// WithRunIDs sets the generator of run identifiers.
func WithRunIDs(f func() string) Option {
	return func(p *Provisioner) { p.newRunID = f }
}

// New returns a Provisioner using cloud. It fails on settings or a wait
// policy that could never succeed.
func New(cloud Cloud, opts ...Option) (*Provisioner, error) {
	p := &Provisioner{
		cloud:    cloud,
		settings: DefaultSettings(),
		wait:     DefaultWaitPolicy(),
		clock:    clock.WallClock,
		logger:   zap.NewNop(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	if cloud == nil {
		return nil, fmt.Errorf("cloud must not be nil")
	}
	if err := p.settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if err := p.wait.Validate(); err != nil {
		return nil, fmt.Errorf("invalid wait policy: %w", err)
	}
	return p, nil
}

// run carries the identifiers produced by one Provision call from step to
// step. It is never shared between calls.
type run struct {
	id       string
	params   Params
	group    SecurityGroup
	dbID     string
	bucket   Bucket
	identity OriginAccessIdentity
	dist     Distribution
}

// Provision creates the security group, database instance, bucket, origin
// access identity, bucket policy and distribution in that order, waits for
// the database endpoint and returns both endpoints. The first failure stops
// the run; resources created before it are left in place.
func (p *Provisioner) Provision(ctx context.Context, params Params) (Result, error) {
	r := &run{id: p.newRunID(), params: params}
	logger := p.logger.With(zap.String("run_id", r.id))
	logger.Info("starting provisioning run",
		zap.String("vpc_id", params.VPCID),
		zap.String("db_instance_id", params.DBInstanceID),
		zap.String("bucket", params.BucketName),
	)

	steps := []struct {
		name string
		fn   func(context.Context, *run) error
	}{
		{"network boundary", p.createNetworkBoundary},
		{"database", p.createDatabase},
		{"object store", p.createBucket},
		{"edge identity", p.createOriginAccessIdentity},
		{"access policy", p.attachBucketPolicy},
		{"distribution", p.createDistribution},
	}
	for _, step := range steps {
		logger.Debug("running step", zap.String("step", step.name))
		if err := step.fn(ctx, r); err != nil {
			logger.Error("provisioning step failed", zap.String("step", step.name), zap.Error(err))
			return Result{}, err
		}
	}

	logger.Info("waiting for database endpoint", zap.String("db_instance_id", r.dbID))
	endpoint, err := p.waitForEndpoint(ctx, r.dbID)
	if err != nil {
		logger.Error("database instance did not become ready", zap.Error(err))
		return Result{}, err
	}

	result := Result{
		RunID:                r.id,
		DBHostName:           endpoint.Address,
		CloudFrontDomainName: r.dist.DomainName,
	}
	logger.Info("provisioning run complete",
		zap.String("db_host_name", result.DBHostName),
		zap.String("cloudfront_domain_name", result.CloudFrontDomainName),
	)
	p.notify(ctx, logger, result)
	return result, nil
}

// record reports a created resource. Recorder failures are logged and do
// not affect the run.
func (p *Provisioner) record(ctx context.Context, r *run, kind, identifier string) {
	rec := ResourceRecord{
		RunID:      r.id,
		Kind:       kind,
		Identifier: identifier,
		CreatedAt:  p.clock.Now().UTC(),
	}
	for _, recorder := range p.recorders {
		if err := recorder.ResourceCreated(ctx, rec); err != nil {
			p.logger.Warn("failed to record resource",
				zap.String("run_id", r.id),
				zap.String("kind", kind),
				zap.String("identifier", identifier),
				zap.Error(err),
			)
		}
	}
}

func (p *Provisioner) notify(ctx context.Context, logger *zap.Logger, result Result) {
	for _, n := range p.notifiers {
		if err := n.Completed(ctx, result); err != nil {
			logger.Warn("failed to send completion notice", zap.Error(err))
		}
	}
}

// String renders the two endpoint keys as JSON.
func (r Result) String() string {
	b, err := json.Marshal(r.Map())
	if err != nil {
		return fmt.Sprintf("%+v", r.Map())
	}
	return string(b)
}
