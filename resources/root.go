package resources

import "github.com/stackform-io/stackform/types"

const TypeRoot = "root"

// Root is the top level node of the dependency graph, all resources
// without dependencies are connected to it
type Root struct {
	types.ResourceBase `hcl:",remain"`
}
