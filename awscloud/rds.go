package awscloud

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	rdstypes "github.com/aws/aws-sdk-go-v2/service/rds/types"
	"go.uber.org/zap"

	"github.com/zhang1980s/web-stack-provisioner/provision"
)

const describePageSize = 20

// CreateDBInstance requests a database instance. The returned descriptor
// reflects the instance as accepted, normally in the "creating" state.
func (c *Cloud) CreateDBInstance(ctx context.Context, spec provision.DBInstanceSpec) (provision.DBInstance, error) {
	c.logger.Debug("creating database instance",
		zap.String("identifier", spec.Identifier),
		zap.String("class", spec.InstanceClass),
		zap.String("engine", spec.Engine+" "+spec.EngineVersion),
	)

	var tags []rdstypes.Tag
	for _, t := range spec.Tags {
		tags = append(tags, rdstypes.Tag{Key: aws.String(t.Key), Value: aws.String(t.Value)})
	}

	out, err := c.rds.CreateDBInstance(ctx, &rds.CreateDBInstanceInput{
		DBName:               aws.String(spec.DBName),
		DBInstanceIdentifier: aws.String(spec.Identifier),
		AllocatedStorage:     aws.Int32(spec.AllocatedStorage),
		DBInstanceClass:      aws.String(spec.InstanceClass),
		Engine:               aws.String(spec.Engine),
		EngineVersion:        aws.String(spec.EngineVersion),
		MasterUsername:       aws.String(spec.MasterUsername),
		MasterUserPassword:   aws.String(spec.MasterPassword),
		VpcSecurityGroupIds:  spec.SecurityGroupIDs,
		Tags:                 tags,
	})
	if err != nil {
		return provision.DBInstance{}, classify(provision.KindDBInstance, spec.Identifier, err)
	}
	if out.DBInstance == nil {
		return provision.DBInstance{Identifier: spec.Identifier}, nil
	}
	return dbInstance(*out.DBInstance), nil
}

// DescribeDBInstances lists the instances matching the db-instance-id
// filter, following markers until the last page.
func (c *Cloud) DescribeDBInstances(ctx context.Context, identifier string) ([]provision.DBInstance, error) {
	var instances []provision.DBInstance
	var marker *string

	for {
		resp, err := c.rds.DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{
			Filters: []rdstypes.Filter{
				{Name: aws.String("db-instance-id"), Values: []string{identifier}},
			},
			MaxRecords: aws.Int32(describePageSize),
			Marker:     marker,
		})
		if err != nil {
			return nil, classifyRead(provision.KindDBInstance, identifier, err)
		}

		for _, instance := range resp.DBInstances {
			instances = append(instances, dbInstance(instance))
		}

		if resp.Marker == nil {
			break
		}
		marker = resp.Marker
	}

	return instances, nil
}

func dbInstance(in rdstypes.DBInstance) provision.DBInstance {
	out := provision.DBInstance{
		Identifier: aws.ToString(in.DBInstanceIdentifier),
		Status:     aws.ToString(in.DBInstanceStatus),
	}
	if in.Endpoint != nil && aws.ToString(in.Endpoint.Address) != "" {
		out.Endpoint = &provision.Endpoint{
			Address: aws.ToString(in.Endpoint.Address),
			Port:    aws.ToInt32(in.Endpoint.Port),
		}
	}
	return out
}
