package resources

import (
	"fmt"
	"net"

	"github.com/stackform-io/stackform/types"
)

const TypeSubnet = "subnet"

// Subnet defines an address range inside a network, optionally mapping
// public addresses to instances launched into it
type Subnet struct {
	types.ResourceBase `hcl:",remain"`

	NetworkID        string            `hcl:"network_id" json:"network_id"`
	CIDRBlock        string            `hcl:"cidr_block" json:"cidr_block"`
	AvailabilityZone string            `hcl:"availability_zone,optional" json:"availability_zone,omitempty"`
	MapPublicIP      bool              `hcl:"map_public_ip,optional" json:"map_public_ip"`
	Tags             map[string]string `hcl:"tags,optional" json:"tags,omitempty"`

	// provider assigned identifier, set after apply
	ID string `hcl:"id,optional" json:"id"`
}

func (s *Subnet) Validate() error {
	if _, _, err := net.ParseCIDR(s.CIDRBlock); err != nil {
		return fmt.Errorf("invalid cidr_block %q: %s", s.CIDRBlock, err)
	}

	return nil
}
