package resources

import (
	"fmt"
	"net"

	"github.com/stackform-io/stackform/types"
)

const TypeRouteTable = "route_table"

// Route directs traffic for a destination range to a gateway
type Route struct {
	DestinationCIDR string `hcl:"destination_cidr" json:"destination_cidr"`
	GatewayID       string `hcl:"gateway_id" json:"gateway_id"`
}

// RouteTable defines the routes for one or more subnets in a network
type RouteTable struct {
	types.ResourceBase `hcl:",remain"`

	NetworkID string            `hcl:"network_id" json:"network_id"`
	Routes    []Route           `hcl:"route,block" json:"routes,omitempty"`
	SubnetIDs []string          `hcl:"subnet_ids,optional" json:"subnet_ids,omitempty"`
	Tags      map[string]string `hcl:"tags,optional" json:"tags,omitempty"`

	// provider assigned identifier, set after apply
	ID string `hcl:"id,optional" json:"id"`
}

func (r *RouteTable) Validate() error {
	for _, route := range r.Routes {
		if _, _, err := net.ParseCIDR(route.DestinationCIDR); err != nil {
			return fmt.Errorf("invalid destination_cidr %q: %s", route.DestinationCIDR, err)
		}
	}

	return nil
}
