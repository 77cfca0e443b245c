package provision

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"
)

// createNetworkBoundary creates the security group in the VPC and opens it
// in both directions. A group whose rules fail to attach is left as is.
func (p *Provisioner) createNetworkBoundary(ctx context.Context, r *run) error {
	s := p.settings
	group, err := p.cloud.CreateSecurityGroup(ctx, SecurityGroupSpec{
		VPCID:       r.params.VPCID,
		Name:        s.SecurityGroupName,
		Description: s.SecurityGroupDescription,
		Tags:        s.SecurityGroupTags,
	})
	if err != nil {
		return creationError(KindSecurityGroup, s.SecurityGroupName, err)
	}
	r.group = group
	p.record(ctx, r, KindSecurityGroup, group.ID)
	p.logger.Info("created security group", zap.String("run_id", r.id), zap.String("group_id", group.ID))

	if err := p.cloud.AuthorizeEgress(ctx, group.ID, s.EgressRule); err != nil {
		return creationError("security group egress rule", group.ID, err)
	}
	if err := p.cloud.AuthorizeIngress(ctx, group.ID, s.IngressRule); err != nil {
		return creationError("security group ingress rule", group.ID, err)
	}
	return nil
}

// createDatabase requests the database instance. The instance is not usable
// when this returns; see waitForEndpoint.
func (p *Provisioner) createDatabase(ctx context.Context, r *run) error {
	s := p.settings
	instance, err := p.cloud.CreateDBInstance(ctx, DBInstanceSpec{
		DBName:           r.params.DBName,
		Identifier:       r.params.DBInstanceID,
		AllocatedStorage: s.AllocatedStorage,
		InstanceClass:    s.InstanceClass,
		Engine:           s.Engine,
		EngineVersion:    s.EngineVersion,
		MasterUsername:   r.params.MasterUsername,
		MasterPassword:   r.params.MasterPassword,
		SecurityGroupIDs: []string{r.group.ID},
		Tags:             s.DatabaseTags,
	})
	if err != nil {
		return creationError(KindDBInstance, r.params.DBInstanceID, err)
	}
	id := instance.Identifier
	if id == "" {
		id = r.params.DBInstanceID
	}
	r.dbID = id
	p.record(ctx, r, KindDBInstance, id)
	p.logger.Info("requested database instance",
		zap.String("run_id", r.id),
		zap.String("db_instance_id", id),
		zap.String("status", instance.Status),
	)
	return nil
}

func (p *Provisioner) createBucket(ctx context.Context, r *run) error {
	bucket, err := p.cloud.CreateBucket(ctx, BucketSpec{
		Name: r.params.BucketName,
		ACL:  p.settings.BucketACL,
	})
	if err != nil {
		return creationError(KindBucket, r.params.BucketName, err)
	}
	if bucket.Name == "" {
		bucket.Name = r.params.BucketName
	}
	r.bucket = bucket
	p.record(ctx, r, KindBucket, bucket.Name)
	p.logger.Info("created bucket", zap.String("run_id", r.id), zap.String("bucket", bucket.Name))
	return nil
}

func (p *Provisioner) createOriginAccessIdentity(ctx context.Context, r *run) error {
	identity, err := p.cloud.CreateOriginAccessIdentity(ctx, OriginAccessIdentitySpec{
		CallerReference: p.callerReference(),
		Comment:         fmt.Sprintf(p.settings.OriginAccessIdentityComment, r.bucket.Name),
	})
	if err != nil {
		return creationError(KindOriginAccessIdentity, r.bucket.Name, err)
	}
	r.identity = identity
	p.record(ctx, r, KindOriginAccessIdentity, identity.ID)
	p.logger.Info("created origin access identity", zap.String("run_id", r.id), zap.String("identity_id", identity.ID))
	return nil
}

// attachBucketPolicy grants read access on the bucket to the identity
// created in this run. The document is checked before it is sent.
func (p *Provisioner) attachBucketPolicy(ctx context.Context, r *run) error {
	doc := BucketReadPolicy(p.settings.PolicyVersion, r.bucket.Name, r.identity.ID)
	if err := doc.GrantsOnlyTo(r.identity.ID); err != nil {
		return &PolicyAttachmentError{Bucket: r.bucket.Name, Err: err}
	}
	policy, err := doc.JSON()
	if err != nil {
		return &PolicyAttachmentError{Bucket: r.bucket.Name, Err: err}
	}
	if err := p.cloud.PutBucketPolicy(ctx, r.bucket.Name, policy); err != nil {
		return policyError(r.bucket.Name, err)
	}
	p.record(ctx, r, KindBucketPolicy, r.bucket.Name)
	p.logger.Info("attached bucket policy",
		zap.String("run_id", r.id),
		zap.String("bucket", r.bucket.Name),
		zap.String("identity_id", r.identity.ID),
	)
	return nil
}

func (p *Provisioner) createDistribution(ctx context.Context, r *run) error {
	s := p.settings
	dist, err := p.cloud.CreateDistribution(ctx, DistributionSpec{
		CallerReference: p.callerReference(),
		Comment:         s.DistributionComment,

		OriginID:             r.bucket.Name,
		OriginDomainName:     fmt.Sprintf(s.BucketDomainFormat, r.bucket.Name),
		OriginAccessIdentity: "origin-access-identity/cloudfront/" + r.identity.ID,

		ViewerProtocolPolicy: s.ViewerProtocolPolicy,
		AllowedMethods:       s.AllowedMethods,
		CachedMethods:        s.CachedMethods,
		Compress:             s.Compress,
		ForwardQueryString:   s.ForwardQueryString,
		ForwardCookies:       s.ForwardCookies,
		MinTTL:               s.MinTTL,
		DefaultTTL:           s.DefaultTTL,
		MaxTTL:               s.MaxTTL,

		GeoRestriction:     s.GeoRestriction,
		DefaultCertificate: s.DefaultCertificate,
		Enabled:            true,
		IPv6Enabled:        s.IPv6Enabled,
		DefaultRootObject:  s.DefaultRootObject,
	})
	if err != nil {
		return creationError(KindDistribution, r.bucket.Name, err)
	}
	r.dist = dist
	p.record(ctx, r, KindDistribution, dist.ID)
	p.logger.Info("created distribution",
		zap.String("run_id", r.id),
		zap.String("distribution_id", dist.ID),
		zap.String("domain_name", dist.DomainName),
	)
	return nil
}

// callerReference must differ between calls; it is derived from the clock.
func (p *Provisioner) callerReference() string {
	return strconv.FormatInt(p.clock.Now().UnixNano(), 10)
}
