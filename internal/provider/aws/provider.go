// Package aws provisions manifest resources on AWS using the EC2 API.
package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/stackform-io/stackform/logger"
	"github.com/stackform-io/stackform/resources"
	"github.com/stackform-io/stackform/types"
)

// EC2API is the subset of the EC2 client used by the provider, defined
// as an interface so tests can substitute the client
type EC2API interface {
	CreateVpc(ctx context.Context, params *ec2.CreateVpcInput, optFns ...func(*ec2.Options)) (*ec2.CreateVpcOutput, error)
	ModifyVpcAttribute(ctx context.Context, params *ec2.ModifyVpcAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifyVpcAttributeOutput, error)
	DeleteVpc(ctx context.Context, params *ec2.DeleteVpcInput, optFns ...func(*ec2.Options)) (*ec2.DeleteVpcOutput, error)
	CreateSubnet(ctx context.Context, params *ec2.CreateSubnetInput, optFns ...func(*ec2.Options)) (*ec2.CreateSubnetOutput, error)
	ModifySubnetAttribute(ctx context.Context, params *ec2.ModifySubnetAttributeInput, optFns ...func(*ec2.Options)) (*ec2.ModifySubnetAttributeOutput, error)
	DeleteSubnet(ctx context.Context, params *ec2.DeleteSubnetInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSubnetOutput, error)
	CreateInternetGateway(ctx context.Context, params *ec2.CreateInternetGatewayInput, optFns ...func(*ec2.Options)) (*ec2.CreateInternetGatewayOutput, error)
	AttachInternetGateway(ctx context.Context, params *ec2.AttachInternetGatewayInput, optFns ...func(*ec2.Options)) (*ec2.AttachInternetGatewayOutput, error)
	DetachInternetGateway(ctx context.Context, params *ec2.DetachInternetGatewayInput, optFns ...func(*ec2.Options)) (*ec2.DetachInternetGatewayOutput, error)
	DeleteInternetGateway(ctx context.Context, params *ec2.DeleteInternetGatewayInput, optFns ...func(*ec2.Options)) (*ec2.DeleteInternetGatewayOutput, error)
	CreateRouteTable(ctx context.Context, params *ec2.CreateRouteTableInput, optFns ...func(*ec2.Options)) (*ec2.CreateRouteTableOutput, error)
	CreateRoute(ctx context.Context, params *ec2.CreateRouteInput, optFns ...func(*ec2.Options)) (*ec2.CreateRouteOutput, error)
	AssociateRouteTable(ctx context.Context, params *ec2.AssociateRouteTableInput, optFns ...func(*ec2.Options)) (*ec2.AssociateRouteTableOutput, error)
	DisassociateRouteTable(ctx context.Context, params *ec2.DisassociateRouteTableInput, optFns ...func(*ec2.Options)) (*ec2.DisassociateRouteTableOutput, error)
	DescribeRouteTables(ctx context.Context, params *ec2.DescribeRouteTablesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeRouteTablesOutput, error)
	DeleteRouteTable(ctx context.Context, params *ec2.DeleteRouteTableInput, optFns ...func(*ec2.Options)) (*ec2.DeleteRouteTableOutput, error)
	CreateSecurityGroup(ctx context.Context, params *ec2.CreateSecurityGroupInput, optFns ...func(*ec2.Options)) (*ec2.CreateSecurityGroupOutput, error)
	AuthorizeSecurityGroupIngress(ctx context.Context, params *ec2.AuthorizeSecurityGroupIngressInput, optFns ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupIngressOutput, error)
	AuthorizeSecurityGroupEgress(ctx context.Context, params *ec2.AuthorizeSecurityGroupEgressInput, optFns ...func(*ec2.Options)) (*ec2.AuthorizeSecurityGroupEgressOutput, error)
	DeleteSecurityGroup(ctx context.Context, params *ec2.DeleteSecurityGroupInput, optFns ...func(*ec2.Options)) (*ec2.DeleteSecurityGroupOutput, error)
	ImportKeyPair(ctx context.Context, params *ec2.ImportKeyPairInput, optFns ...func(*ec2.Options)) (*ec2.ImportKeyPairOutput, error)
	DeleteKeyPair(ctx context.Context, params *ec2.DeleteKeyPairInput, optFns ...func(*ec2.Options)) (*ec2.DeleteKeyPairOutput, error)
	RunInstances(ctx context.Context, params *ec2.RunInstancesInput, optFns ...func(*ec2.Options)) (*ec2.RunInstancesOutput, error)
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
	TerminateInstances(ctx context.Context, params *ec2.TerminateInstancesInput, optFns ...func(*ec2.Options)) (*ec2.TerminateInstancesOutput, error)
	CreateTags(ctx context.Context, params *ec2.CreateTagsInput, optFns ...func(*ec2.Options)) (*ec2.CreateTagsOutput, error)
}

// AWS implements the provider interface on top of the EC2 API
type AWS struct {
	client EC2API
	log    logger.Logger
}

// New creates a provider using the default AWS credential chain, region
// overrides the region from the environment when not empty
func New(ctx context.Context, region string, log logger.Logger) (*AWS, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS configuration: %w", err)
	}

	return &AWS{client: ec2.NewFromConfig(cfg), log: log}, nil
}

// NewWithClient creates a provider with the given client, used by tests
func NewWithClient(client EC2API, log logger.Logger) *AWS {
	return &AWS{client: client, log: log}
}

func (a *AWS) Name() string {
	return "aws"
}

func (a *AWS) Create(ctx context.Context, r types.Resource) error {
	a.log.Info("creating resource", "provider", a.Name(), "resource", r.Metadata().ID)

	switch res := r.(type) {
	case *resources.Network:
		return a.createNetwork(ctx, res)
	case *resources.Subnet:
		return a.createSubnet(ctx, res)
	case *resources.Gateway:
		return a.createGateway(ctx, res)
	case *resources.RouteTable:
		return a.createRouteTable(ctx, res)
	case *resources.SecurityGroup:
		return a.createSecurityGroup(ctx, res)
	case *resources.KeyPair:
		return a.createKeyPair(ctx, res)
	case *resources.Instance:
		return a.createInstance(ctx, res)
	}

	return fmt.Errorf("unsupported resource type %s", r.Metadata().Type)
}

// Update reapplies the resource tags, changes to any other attribute
// require the resource to be recreated
func (a *AWS) Update(ctx context.Context, r types.Resource) error {
	a.log.Info("updating resource", "provider", a.Name(), "resource", r.Metadata().ID)

	id := providerID(r)
	if id == "" {
		return fmt.Errorf("resource %s has no provider id, it may not have been created", r.Metadata().ID)
	}

	tags := resourceTags(r)
	if len(tags) == 0 {
		return nil
	}

	_, err := a.client.CreateTags(ctx, &ec2.CreateTagsInput{
		Resources: []string{id},
		Tags:      tags,
	})

	return err
}

func (a *AWS) Delete(ctx context.Context, r types.Resource) error {
	a.log.Info("deleting resource", "provider", a.Name(), "resource", r.Metadata().ID)

	switch res := r.(type) {
	case *resources.Network:
		return a.deleteNetwork(ctx, res)
	case *resources.Subnet:
		return a.deleteSubnet(ctx, res)
	case *resources.Gateway:
		return a.deleteGateway(ctx, res)
	case *resources.RouteTable:
		return a.deleteRouteTable(ctx, res)
	case *resources.SecurityGroup:
		return a.deleteSecurityGroup(ctx, res)
	case *resources.KeyPair:
		return a.deleteKeyPair(ctx, res)
	case *resources.Instance:
		return a.deleteInstance(ctx, res)
	}

	return fmt.Errorf("unsupported resource type %s", r.Metadata().Type)
}

// ec2Tags converts the resource tag map into EC2 tags, the Name tag
// defaults to the resource name when not set in the manifest
func ec2Tags(name string, tags map[string]string) []ec2types.Tag {
	out := []ec2types.Tag{}

	hasName := false
	for k, v := range tags {
		if k == "Name" {
			hasName = true
		}

		out = append(out, ec2types.Tag{Key: awssdk.String(k), Value: awssdk.String(v)})
	}

	if !hasName && name != "" {
		out = append(out, ec2types.Tag{Key: awssdk.String("Name"), Value: awssdk.String(name)})
	}

	return out
}

func tagSpec(rt ec2types.ResourceType, name string, tags map[string]string) []ec2types.TagSpecification {
	return []ec2types.TagSpecification{
		{
			ResourceType: rt,
			Tags:         ec2Tags(name, tags),
		},
	}
}

func resourceTags(r types.Resource) []ec2types.Tag {
	switch res := r.(type) {
	case *resources.Network:
		return ec2Tags(res.Meta.Name, res.Tags)
	case *resources.Subnet:
		return ec2Tags(res.Meta.Name, res.Tags)
	case *resources.Gateway:
		return ec2Tags(res.Meta.Name, res.Tags)
	case *resources.RouteTable:
		return ec2Tags(res.Meta.Name, res.Tags)
	case *resources.SecurityGroup:
		return ec2Tags(res.Meta.Name, res.Tags)
	case *resources.KeyPair:
		return ec2Tags(res.Meta.Name, res.Tags)
	case *resources.Instance:
		return ec2Tags(res.Meta.Name, res.Tags)
	}

	return nil
}

func providerID(r types.Resource) string {
	switch res := r.(type) {
	case *resources.Network:
		return res.ID
	case *resources.Subnet:
		return res.ID
	case *resources.Gateway:
		return res.ID
	case *resources.RouteTable:
		return res.ID
	case *resources.SecurityGroup:
		return res.ID
	case *resources.KeyPair:
		return res.ID
	case *resources.Instance:
		return res.ID
	}

	return ""
}
