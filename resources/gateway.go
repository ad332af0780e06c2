package resources

import "github.com/stackform-io/stackform/types"

const TypeGateway = "gateway"

// Gateway defines an internet gateway attached to a network
type Gateway struct {
	types.ResourceBase `hcl:",remain"`

	NetworkID string            `hcl:"network_id" json:"network_id"`
	Tags      map[string]string `hcl:"tags,optional" json:"tags,omitempty"`

	// provider assigned identifier, set after apply
	ID string `hcl:"id,optional" json:"id"`
}
