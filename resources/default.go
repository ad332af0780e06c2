package resources

import "github.com/stackform-io/stackform/types"

// DefaultResources returns the resource types understood by the parser,
// the structural types plus the cloud resource catalogue
func DefaultResources() types.RegisteredTypes {
	return types.RegisteredTypes{
		"variable":       &Variable{},
		"output":         &Output{},
		"local":          &Local{},
		"module":         &Module{},
		"root":           &Root{},
		"network":        &Network{},
		"subnet":         &Subnet{},
		"gateway":        &Gateway{},
		"route_table":    &RouteTable{},
		"security_group": &SecurityGroup{},
		"instance":       &Instance{},
		"key_pair":       &KeyPair{},
	}
}
