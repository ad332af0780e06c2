package resources

import (
	"fmt"
	"net"

	"github.com/stackform-io/stackform/types"
)

const TypeSecurityGroup = "security_group"

const sshPort = 22

// Rule defines a single ingress or egress rule for a security group
type Rule struct {
	Description string   `hcl:"description,optional" json:"description,omitempty"`
	Protocol    string   `hcl:"protocol" json:"protocol"`
	FromPort    int      `hcl:"from_port,optional" json:"from_port"`
	ToPort      int      `hcl:"to_port,optional" json:"to_port"`
	CIDRBlocks  []string `hcl:"cidr_blocks" json:"cidr_blocks"`
}

// SecurityGroup defines a stateful firewall for instances in a network
type SecurityGroup struct {
	types.ResourceBase `hcl:",remain"`

	Description string            `hcl:"description,optional" json:"description,omitempty"`
	NetworkID   string            `hcl:"network_id" json:"network_id"`
	Ingress     []Rule            `hcl:"ingress,block" json:"ingress,omitempty"`
	Egress      []Rule            `hcl:"egress,block" json:"egress,omitempty"`
	Tags        map[string]string `hcl:"tags,optional" json:"tags,omitempty"`

	// provider assigned identifier, set after apply
	ID string `hcl:"id,optional" json:"id"`
}

// Validate checks the rule addresses after all variable substitution has
// taken place. Ingress rules covering the SSH port must name their allowed
// sources, an unrestricted source is always rejected, it can not be
// introduced by an interpolated value.
func (s *SecurityGroup) Validate() error {
	for _, r := range s.Ingress {
		for _, c := range r.CIDRBlocks {
			if _, _, err := net.ParseCIDR(c); err != nil {
				return fmt.Errorf("invalid cidr block %q in ingress rule: %s", c, err)
			}

			if r.coversPort(sshPort) && isUnrestricted(c) {
				return fmt.Errorf("ingress rule %q allows SSH from the unrestricted source %s, SSH access must be limited to known addresses", r.Description, c)
			}
		}
	}

	for _, r := range s.Egress {
		for _, c := range r.CIDRBlocks {
			if _, _, err := net.ParseCIDR(c); err != nil {
				return fmt.Errorf("invalid cidr block %q in egress rule: %s", c, err)
			}
		}
	}

	return nil
}

func (r Rule) coversPort(port int) bool {
	// protocol -1 matches all ports
	if r.Protocol == "-1" {
		return true
	}

	return r.FromPort <= port && port <= r.ToPort
}

func isUnrestricted(cidr string) bool {
	return cidr == "0.0.0.0/0" || cidr == "::/0"
}
