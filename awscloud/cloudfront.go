package awscloud

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"go.uber.org/zap"

	"github.com/zhang1980s/web-stack-provisioner/provision"
)

var errMissingDescriptor = errors.New("response carries no resource descriptor")

// CreateOriginAccessIdentity creates a CloudFront origin access identity.
func (c *Cloud) CreateOriginAccessIdentity(ctx context.Context, spec provision.OriginAccessIdentitySpec) (provision.OriginAccessIdentity, error) {
	out, err := c.cloudfront.CreateCloudFrontOriginAccessIdentity(ctx, &cloudfront.CreateCloudFrontOriginAccessIdentityInput{
		CloudFrontOriginAccessIdentityConfig: &cftypes.CloudFrontOriginAccessIdentityConfig{
			CallerReference: aws.String(spec.CallerReference),
			Comment:         aws.String(spec.Comment),
		},
	})
	if err != nil {
		return provision.OriginAccessIdentity{}, classify(provision.KindOriginAccessIdentity, spec.CallerReference, err)
	}
	if out.CloudFrontOriginAccessIdentity == nil || aws.ToString(out.CloudFrontOriginAccessIdentity.Id) == "" {
		return provision.OriginAccessIdentity{}, &provision.ResourceCreationError{
			Resource: provision.KindOriginAccessIdentity,
			Name:     spec.CallerReference,
			Err:      errMissingDescriptor,
		}
	}
	return provision.OriginAccessIdentity{
		ID:                aws.ToString(out.CloudFrontOriginAccessIdentity.Id),
		S3CanonicalUserID: aws.ToString(out.CloudFrontOriginAccessIdentity.S3CanonicalUserId),
	}, nil
}

// CreateDistribution creates an enabled distribution with the single S3
// origin described by spec.
func (c *Cloud) CreateDistribution(ctx context.Context, spec provision.DistributionSpec) (provision.Distribution, error) {
	c.logger.Debug("creating distribution", zap.String("origin", spec.OriginDomainName))

	out, err := c.cloudfront.CreateDistribution(ctx, &cloudfront.CreateDistributionInput{
		DistributionConfig: distributionConfig(spec),
	})
	if err != nil {
		return provision.Distribution{}, classify(provision.KindDistribution, spec.OriginID, err)
	}
	if out.Distribution == nil || aws.ToString(out.Distribution.DomainName) == "" {
		return provision.Distribution{}, &provision.ResourceCreationError{
			Resource: provision.KindDistribution,
			Name:     spec.OriginID,
			Err:      errMissingDescriptor,
		}
	}
	return provision.Distribution{
		ID:         aws.ToString(out.Distribution.Id),
		ARN:        aws.ToString(out.Distribution.ARN),
		DomainName: aws.ToString(out.Distribution.DomainName),
	}, nil
}

func distributionConfig(spec provision.DistributionSpec) *cftypes.DistributionConfig {
	return &cftypes.DistributionConfig{
		CallerReference: aws.String(spec.CallerReference),
		Comment:         aws.String(spec.Comment),
		Origins: &cftypes.Origins{
			Quantity: aws.Int32(1),
			Items: []cftypes.Origin{
				{
					Id:         aws.String(spec.OriginID),
					DomainName: aws.String(spec.OriginDomainName),
					S3OriginConfig: &cftypes.S3OriginConfig{
						OriginAccessIdentity: aws.String(spec.OriginAccessIdentity),
					},
				},
			},
		},
		Restrictions: &cftypes.Restrictions{
			GeoRestriction: &cftypes.GeoRestriction{
				RestrictionType: cftypes.GeoRestrictionType(spec.GeoRestriction),
				Quantity:        aws.Int32(0),
			},
		},
		ViewerCertificate: &cftypes.ViewerCertificate{
			CloudFrontDefaultCertificate: aws.Bool(spec.DefaultCertificate),
		},
		DefaultCacheBehavior: &cftypes.DefaultCacheBehavior{
			TargetOriginId:       aws.String(spec.OriginID),
			Compress:             aws.Bool(spec.Compress),
			ViewerProtocolPolicy: cftypes.ViewerProtocolPolicy(spec.ViewerProtocolPolicy),
			AllowedMethods: &cftypes.AllowedMethods{
				Quantity: aws.Int32(int32(len(spec.AllowedMethods))),
				Items:    methods(spec.AllowedMethods),
				CachedMethods: &cftypes.CachedMethods{
					Quantity: aws.Int32(int32(len(spec.CachedMethods))),
					Items:    methods(spec.CachedMethods),
				},
			},
			ForwardedValues: &cftypes.ForwardedValues{
				QueryString: aws.Bool(spec.ForwardQueryString),
				Cookies: &cftypes.CookiePreference{
					Forward: cftypes.ItemSelection(spec.ForwardCookies),
				},
			},
			MinTTL:     aws.Int64(spec.MinTTL),
			DefaultTTL: aws.Int64(spec.DefaultTTL),
			MaxTTL:     aws.Int64(spec.MaxTTL),
		},
		Enabled:           aws.Bool(spec.Enabled),
		IsIPV6Enabled:     aws.Bool(spec.IPv6Enabled),
		DefaultRootObject: aws.String(spec.DefaultRootObject),
	}
}

func methods(names []string) []cftypes.Method {
	out := make([]cftypes.Method, 0, len(names))
	for _, n := range names {
		out = append(out, cftypes.Method(n))
	}
	return out
}
