package resources

import (
	"fmt"
	"net"

	"github.com/stackform-io/stackform/types"
)

const TypeNetwork = "network"

// Network defines an isolated virtual network
type Network struct {
	types.ResourceBase `hcl:",remain"`

	CIDRBlock          string            `hcl:"cidr_block" json:"cidr_block"`
	EnableDNSSupport   bool              `hcl:"enable_dns_support,optional" json:"enable_dns_support" default:"true"`
	EnableDNSHostnames bool              `hcl:"enable_dns_hostnames,optional" json:"enable_dns_hostnames"`
	Tags               map[string]string `hcl:"tags,optional" json:"tags,omitempty"`

	// provider assigned identifier, set after apply
	ID string `hcl:"id,optional" json:"id"`
}

func (n *Network) Validate() error {
	if _, _, err := net.ParseCIDR(n.CIDRBlock); err != nil {
		return fmt.Errorf("invalid cidr_block %q: %s", n.CIDRBlock, err)
	}

	return nil
}
