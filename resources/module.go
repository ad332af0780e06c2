package resources

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/stackform-io/stackform/types"
)

const TypeModule = "module"

// Module imports manifest files from an external folder or a remote
// source supported by go-getter
type Module struct {
	types.ResourceBase `hcl:",remain"`

	Source  string `hcl:"source" json:"source"`
	Version string `hcl:"version,optional" json:"version,omitempty"`

	Variables any `hcl:"variables,optional" json:"variables,omitempty"`

	// SubContext stores the variables as a context that is passed to the
	// resources loaded from the module source
	SubContext *hcl.EvalContext `json:"-"`
}
