package resources

import (
	"fmt"

	"github.com/stackform-io/stackform/types"
)

const TypeInstance = "instance"

// Volume defines the root volume for an instance
type Volume struct {
	Size      int    `hcl:"size,optional" json:"size" default:"20"`
	Type      string `hcl:"type,optional" json:"type,omitempty" default:"gp2"`
	Encrypted bool   `hcl:"encrypted,optional" json:"encrypted"`
}

// Instance defines a compute instance launched into a subnet
type Instance struct {
	types.ResourceBase `hcl:",remain"`

	Image            string            `hcl:"image" json:"image"`
	Size             string            `hcl:"size" json:"size"`
	SubnetID         string            `hcl:"subnet_id" json:"subnet_id"`
	SecurityGroupIDs []string          `hcl:"security_group_ids,optional" json:"security_group_ids,omitempty"`
	KeyName          string            `hcl:"key_name,optional" json:"key_name,omitempty"`
	UserData         string            `hcl:"user_data,optional" json:"user_data,omitempty"`
	RootVolume       *Volume           `hcl:"root_volume,block" json:"root_volume,omitempty"`
	Tags             map[string]string `hcl:"tags,optional" json:"tags,omitempty"`

	// provider assigned values, set after apply
	ID        string `hcl:"id,optional" json:"id"`
	PublicIP  string `hcl:"public_ip,optional" json:"public_ip"`
	PrivateIP string `hcl:"private_ip,optional" json:"private_ip"`
}

func (i *Instance) Validate() error {
	if i.Image == "" {
		return fmt.Errorf("instance %s requires an image", i.Meta.Name)
	}

	return nil
}
