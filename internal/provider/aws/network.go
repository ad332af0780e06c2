package aws

import (
	"context"
	"fmt"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/stackform-io/stackform/resources"
)

func (a *AWS) createNetwork(ctx context.Context, r *resources.Network) error {
	out, err := a.client.CreateVpc(ctx, &ec2.CreateVpcInput{
		CidrBlock:         awssdk.String(r.CIDRBlock),
		TagSpecifications: tagSpec(ec2types.ResourceTypeVpc, r.Meta.Name, r.Tags),
	})
	if err != nil {
		return err
	}

	r.ID = awssdk.ToString(out.Vpc.VpcId)

	// dns support and hostnames can only be set one attribute per call
	if r.EnableDNSSupport {
		_, err = a.client.ModifyVpcAttribute(ctx, &ec2.ModifyVpcAttributeInput{
			VpcId:            awssdk.String(r.ID),
			EnableDnsSupport: &ec2types.AttributeBooleanValue{Value: awssdk.Bool(true)},
		})
		if err != nil {
			return err
		}
	}

	if r.EnableDNSHostnames {
		_, err = a.client.ModifyVpcAttribute(ctx, &ec2.ModifyVpcAttributeInput{
			VpcId:              awssdk.String(r.ID),
			EnableDnsHostnames: &ec2types.AttributeBooleanValue{Value: awssdk.Bool(true)},
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (a *AWS) deleteNetwork(ctx context.Context, r *resources.Network) error {
	_, err := a.client.DeleteVpc(ctx, &ec2.DeleteVpcInput{
		VpcId: awssdk.String(r.ID),
	})

	return err
}

func (a *AWS) createSubnet(ctx context.Context, r *resources.Subnet) error {
	in := &ec2.CreateSubnetInput{
		VpcId:             awssdk.String(r.NetworkID),
		CidrBlock:         awssdk.String(r.CIDRBlock),
		TagSpecifications: tagSpec(ec2types.ResourceTypeSubnet, r.Meta.Name, r.Tags),
	}

	if r.AvailabilityZone != "" {
		in.AvailabilityZone = awssdk.String(r.AvailabilityZone)
	}

	out, err := a.client.CreateSubnet(ctx, in)
	if err != nil {
		return err
	}

	r.ID = awssdk.ToString(out.Subnet.SubnetId)

	if r.MapPublicIP {
		_, err = a.client.ModifySubnetAttribute(ctx, &ec2.ModifySubnetAttributeInput{
			SubnetId:            awssdk.String(r.ID),
			MapPublicIpOnLaunch: &ec2types.AttributeBooleanValue{Value: awssdk.Bool(true)},
		})
		if err != nil {
			return err
		}
	}

	return nil
}

func (a *AWS) deleteSubnet(ctx context.Context, r *resources.Subnet) error {
	_, err := a.client.DeleteSubnet(ctx, &ec2.DeleteSubnetInput{
		SubnetId: awssdk.String(r.ID),
	})

	return err
}

func (a *AWS) createGateway(ctx context.Context, r *resources.Gateway) error {
	out, err := a.client.CreateInternetGateway(ctx, &ec2.CreateInternetGatewayInput{
		TagSpecifications: tagSpec(ec2types.ResourceTypeInternetGateway, r.Meta.Name, r.Tags),
	})
	if err != nil {
		return err
	}

	r.ID = awssdk.ToString(out.InternetGateway.InternetGatewayId)

	_, err = a.client.AttachInternetGateway(ctx, &ec2.AttachInternetGatewayInput{
		InternetGatewayId: awssdk.String(r.ID),
		VpcId:             awssdk.String(r.NetworkID),
	})

	return err
}

func (a *AWS) deleteGateway(ctx context.Context, r *resources.Gateway) error {
	// the gateway has to be detached from the network before it can be
	// deleted
	_, err := a.client.DetachInternetGateway(ctx, &ec2.DetachInternetGatewayInput{
		InternetGatewayId: awssdk.String(r.ID),
		VpcId:             awssdk.String(r.NetworkID),
	})
	if err != nil {
		return err
	}

	_, err = a.client.DeleteInternetGateway(ctx, &ec2.DeleteInternetGatewayInput{
		InternetGatewayId: awssdk.String(r.ID),
	})

	return err
}

func (a *AWS) createRouteTable(ctx context.Context, r *resources.RouteTable) error {
	out, err := a.client.CreateRouteTable(ctx, &ec2.CreateRouteTableInput{
		VpcId:             awssdk.String(r.NetworkID),
		TagSpecifications: tagSpec(ec2types.ResourceTypeRouteTable, r.Meta.Name, r.Tags),
	})
	if err != nil {
		return err
	}

	r.ID = awssdk.ToString(out.RouteTable.RouteTableId)

	for _, route := range r.Routes {
		_, err = a.client.CreateRoute(ctx, &ec2.CreateRouteInput{
			RouteTableId:         awssdk.String(r.ID),
			DestinationCidrBlock: awssdk.String(route.DestinationCIDR),
			GatewayId:            awssdk.String(route.GatewayID),
		})
		if err != nil {
			return fmt.Errorf("unable to create route to %s: %w", route.DestinationCIDR, err)
		}
	}

	for _, subnetID := range r.SubnetIDs {
		_, err = a.client.AssociateRouteTable(ctx, &ec2.AssociateRouteTableInput{
			RouteTableId: awssdk.String(r.ID),
			SubnetId:     awssdk.String(subnetID),
		})
		if err != nil {
			return fmt.Errorf("unable to associate route table with subnet %s: %w", subnetID, err)
		}
	}

	return nil
}

func (a *AWS) deleteRouteTable(ctx context.Context, r *resources.RouteTable) error {
	// subnet associations have to be removed before the table can be
	// deleted, the association ids are not stored so they are looked up
	out, err := a.client.DescribeRouteTables(ctx, &ec2.DescribeRouteTablesInput{
		RouteTableIds: []string{r.ID},
	})
	if err != nil {
		return err
	}

	for _, rt := range out.RouteTables {
		for _, assoc := range rt.Associations {
			if awssdk.ToBool(assoc.Main) {
				continue
			}

			_, err = a.client.DisassociateRouteTable(ctx, &ec2.DisassociateRouteTableInput{
				AssociationId: assoc.RouteTableAssociationId,
			})
			if err != nil {
				return err
			}
		}
	}

	_, err = a.client.DeleteRouteTable(ctx, &ec2.DeleteRouteTableInput{
		RouteTableId: awssdk.String(r.ID),
	})

	return err
}
