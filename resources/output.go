package resources

import (
	"github.com/stackform-io/stackform/types"
	"github.com/zclconf/go-cty/cty"
)

const TypeOutput = "output"

// Output is a named projection of a resource attribute, outputs marked
// sensitive are withheld from default console output
type Output struct {
	types.ResourceBase `hcl:",remain"`

	CtyValue    cty.Value `hcl:"value,optional" json:"-"` // value of the output
	Value       any       `json:"value"`
	Description string    `hcl:"description,optional" json:"description,omitempty"` // description for the output
	Sensitive   bool      `hcl:"sensitive,optional" json:"sensitive,omitempty"`     // sensitive values must not be displayed in plaintext
}
