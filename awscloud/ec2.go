package awscloud

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"go.uber.org/zap"

	"github.com/zhang1980s/web-stack-provisioner/provision"
)

// CreateSecurityGroup creates a security group in the VPC of spec.
func (c *Cloud) CreateSecurityGroup(ctx context.Context, spec provision.SecurityGroupSpec) (provision.SecurityGroup, error) {
	c.logger.Debug("creating security group", zap.String("name", spec.Name), zap.String("vpc_id", spec.VPCID))

	out, err := c.ec2.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
		Description:       aws.String(spec.Description),
		GroupName:         aws.String(spec.Name),
		VpcId:             aws.String(spec.VPCID),
		TagSpecifications: tagSpecifications(ec2types.ResourceTypeSecurityGroup, spec.Tags),
		DryRun:            aws.Bool(false),
	})
	if err != nil {
		return provision.SecurityGroup{}, classify(provision.KindSecurityGroup, spec.Name, err)
	}
	return provision.SecurityGroup{ID: aws.ToString(out.GroupId)}, nil
}

// AuthorizeIngress adds rule to the inbound rules of the group.
func (c *Cloud) AuthorizeIngress(ctx context.Context, groupID string, rule provision.TrafficRule) error {
	_, err := c.ec2.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
		GroupId:           aws.String(groupID),
		IpPermissions:     []ec2types.IpPermission{ipPermission(rule)},
		TagSpecifications: tagSpecifications(ec2types.ResourceTypeSecurityGroupRule, rule.Tags),
		DryRun:            aws.Bool(false),
	})
	if err != nil {
		return classify("security group ingress rule", groupID, err)
	}
	return nil
}

// AuthorizeEgress adds rule to the outbound rules of the group.
func (c *Cloud) AuthorizeEgress(ctx context.Context, groupID string, rule provision.TrafficRule) error {
	_, err := c.ec2.AuthorizeSecurityGroupEgress(ctx, &ec2.AuthorizeSecurityGroupEgressInput{
		GroupId:           aws.String(groupID),
		IpPermissions:     []ec2types.IpPermission{ipPermission(rule)},
		TagSpecifications: tagSpecifications(ec2types.ResourceTypeSecurityGroupRule, rule.Tags),
		DryRun:            aws.Bool(false),
	})
	if err != nil {
		return classify("security group egress rule", groupID, err)
	}
	return nil
}

func ipPermission(rule provision.TrafficRule) ec2types.IpPermission {
	perm := ec2types.IpPermission{
		IpProtocol: aws.String(rule.Protocol),
		FromPort:   aws.Int32(rule.FromPort),
		ToPort:     aws.Int32(rule.ToPort),
	}
	for _, cidr := range rule.IPv4Ranges {
		perm.IpRanges = append(perm.IpRanges, ec2types.IpRange{
			CidrIp:      aws.String(cidr),
			Description: aws.String(rule.Description),
		})
	}
	for _, cidr := range rule.IPv6Ranges {
		perm.Ipv6Ranges = append(perm.Ipv6Ranges, ec2types.Ipv6Range{
			CidrIpv6:    aws.String(cidr),
			Description: aws.String(rule.Description),
		})
	}
	return perm
}

// tagSpecifications returns nil for no tags; EC2 rejects an empty tag
// specification.
func tagSpecifications(resourceType ec2types.ResourceType, tags []provision.Tag) []ec2types.TagSpecification {
	if len(tags) == 0 {
		return nil
	}
	spec := ec2types.TagSpecification{ResourceType: resourceType}
	for _, t := range tags {
		spec.Tags = append(spec.Tags, ec2types.Tag{Key: aws.String(t.Key), Value: aws.String(t.Value)})
	}
	return []ec2types.TagSpecification{spec}
}
