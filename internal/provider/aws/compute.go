package aws

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/stackform-io/stackform/internal/keygen"
	"github.com/stackform-io/stackform/resources"
)

// instanceRunningTimeout is the maximum time to wait for an instance to
// reach the running state
const instanceRunningTimeout = 5 * time.Minute

func (a *AWS) createSecurityGroup(ctx context.Context, r *resources.SecurityGroup) error {
	description := r.Description
	if description == "" {
		description = fmt.Sprintf("managed security group %s", r.Meta.Name)
	}

	out, err := a.client.CreateSecurityGroup(ctx, &ec2.CreateSecurityGroupInput{
		GroupName:         awssdk.String(r.Meta.Name),
		Description:       awssdk.String(description),
		VpcId:             awssdk.String(r.NetworkID),
		TagSpecifications: tagSpec(ec2types.ResourceTypeSecurityGroup, r.Meta.Name, r.Tags),
	})
	if err != nil {
		return err
	}

	r.ID = awssdk.ToString(out.GroupId)

	if len(r.Ingress) > 0 {
		_, err = a.client.AuthorizeSecurityGroupIngress(ctx, &ec2.AuthorizeSecurityGroupIngressInput{
			GroupId:       awssdk.String(r.ID),
			IpPermissions: ipPermissions(r.Ingress),
		})
		if err != nil {
			return fmt.Errorf("unable to authorize ingress rules: %w", err)
		}
	}

	if len(r.Egress) > 0 {
		_, err = a.client.AuthorizeSecurityGroupEgress(ctx, &ec2.AuthorizeSecurityGroupEgressInput{
			GroupId:       awssdk.String(r.ID),
			IpPermissions: ipPermissions(r.Egress),
		})
		if err != nil {
			return fmt.Errorf("unable to authorize egress rules: %w", err)
		}
	}

	return nil
}

func ipPermissions(rules []resources.Rule) []ec2types.IpPermission {
	perms := []ec2types.IpPermission{}

	for _, rule := range rules {
		ranges := []ec2types.IpRange{}
		for _, c := range rule.CIDRBlocks {
			ranges = append(ranges, ec2types.IpRange{
				CidrIp:      awssdk.String(c),
				Description: awssdk.String(rule.Description),
			})
		}

		perm := ec2types.IpPermission{
			IpProtocol: awssdk.String(rule.Protocol),
			IpRanges:   ranges,
		}

		// protocol -1 matches all ports, the api rejects port ranges for it
		if rule.Protocol != "-1" {
			perm.FromPort = awssdk.Int32(int32(rule.FromPort))
			perm.ToPort = awssdk.Int32(int32(rule.ToPort))
		}

		perms = append(perms, perm)
	}

	return perms
}

func (a *AWS) deleteSecurityGroup(ctx context.Context, r *resources.SecurityGroup) error {
	_, err := a.client.DeleteSecurityGroup(ctx, &ec2.DeleteSecurityGroupInput{
		GroupId: awssdk.String(r.ID),
	})

	return err
}

func (a *AWS) createKeyPair(ctx context.Context, r *resources.KeyPair) error {
	// when the manifest does not supply a public key a new pair is
	// generated, the private key is recorded as a sensitive attribute
	if r.PublicKey == "" {
		kp, err := keygen.GenerateRSAKeyPair(4096)
		if err != nil {
			return fmt.Errorf("unable to generate key pair: %w", err)
		}

		r.PublicKey = kp.PublicKey
		r.PrivateKey = kp.PrivateKey
	}

	out, err := a.client.ImportKeyPair(ctx, &ec2.ImportKeyPairInput{
		KeyName:           awssdk.String(r.KeyName),
		PublicKeyMaterial: []byte(r.PublicKey),
		TagSpecifications: tagSpec(ec2types.ResourceTypeKeyPair, r.Meta.Name, r.Tags),
	})
	if err != nil {
		return err
	}

	r.ID = awssdk.ToString(out.KeyPairId)
	r.Fingerprint = awssdk.ToString(out.KeyFingerprint)

	return nil
}

func (a *AWS) deleteKeyPair(ctx context.Context, r *resources.KeyPair) error {
	_, err := a.client.DeleteKeyPair(ctx, &ec2.DeleteKeyPairInput{
		KeyName: awssdk.String(r.KeyName),
	})

	return err
}

func (a *AWS) createInstance(ctx context.Context, r *resources.Instance) error {
	in := &ec2.RunInstancesInput{
		ImageId:           awssdk.String(r.Image),
		InstanceType:      ec2types.InstanceType(r.Size),
		MinCount:          awssdk.Int32(1),
		MaxCount:          awssdk.Int32(1),
		SubnetId:          awssdk.String(r.SubnetID),
		TagSpecifications: tagSpec(ec2types.ResourceTypeInstance, r.Meta.Name, r.Tags),
	}

	if len(r.SecurityGroupIDs) > 0 {
		in.SecurityGroupIds = r.SecurityGroupIDs
	}

	if r.KeyName != "" {
		in.KeyName = awssdk.String(r.KeyName)
	}

	if r.UserData != "" {
		in.UserData = awssdk.String(base64.StdEncoding.EncodeToString([]byte(r.UserData)))
	}

	if r.RootVolume != nil {
		in.BlockDeviceMappings = []ec2types.BlockDeviceMapping{
			{
				DeviceName: awssdk.String("/dev/xvda"),
				Ebs: &ec2types.EbsBlockDevice{
					VolumeSize: awssdk.Int32(int32(r.RootVolume.Size)),
					VolumeType: ec2types.VolumeType(r.RootVolume.Type),
					Encrypted:  awssdk.Bool(r.RootVolume.Encrypted),
				},
			},
		}
	}

	out, err := a.client.RunInstances(ctx, in)
	if err != nil {
		return err
	}

	if len(out.Instances) == 0 {
		return fmt.Errorf("no instance was launched for %s", r.Meta.Name)
	}

	r.ID = awssdk.ToString(out.Instances[0].InstanceId)

	// wait until the instance is running so the addresses are assigned
	waiter := ec2.NewInstanceRunningWaiter(a.client)
	describe := &ec2.DescribeInstancesInput{InstanceIds: []string{r.ID}}

	if err := waiter.Wait(ctx, describe, instanceRunningTimeout); err != nil {
		return fmt.Errorf("instance %s did not reach the running state: %w", r.ID, err)
	}

	desc, err := a.client.DescribeInstances(ctx, describe)
	if err != nil {
		return err
	}

	for _, res := range desc.Reservations {
		for _, inst := range res.Instances {
			r.PrivateIP = awssdk.ToString(inst.PrivateIpAddress)
			r.PublicIP = awssdk.ToString(inst.PublicIpAddress)
		}
	}

	return nil
}

func (a *AWS) deleteInstance(ctx context.Context, r *resources.Instance) error {
	_, err := a.client.TerminateInstances(ctx, &ec2.TerminateInstancesInput{
		InstanceIds: []string{r.ID},
	})
	if err != nil {
		return err
	}

	// wait for termination so dependent resources can be removed
	waiter := ec2.NewInstanceTerminatedWaiter(a.client)
	describe := &ec2.DescribeInstancesInput{InstanceIds: []string{r.ID}}

	return waiter.Wait(ctx, describe, instanceRunningTimeout)
}
