package resources

import (
	"github.com/stackform-io/stackform/types"
	"github.com/zclconf/go-cty/cty"
)

const TypeLocal = "local"

// Local is a named value scoped to the manifest it is declared in
type Local struct {
	types.ResourceBase `hcl:",remain"`

	CtyValue cty.Value `hcl:"value,optional" json:"-"` // value of the local
	Value    any       `json:"value"`
}
