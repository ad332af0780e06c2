package resources

import (
	"github.com/stackform-io/stackform/types"
	"github.com/zclconf/go-cty/cty"
)

const TypeVariable = "variable"

// Variable is a named input to the manifest, the default value may be
// overridden from a vars file, the environment, or an explicit override
// before any resource is processed
type Variable struct {
	types.ResourceBase `hcl:",remain"`

	Type        string    `hcl:"type,optional" json:"type,omitempty"`               // declared type of the variable e.g. string, number, bool
	Default     cty.Value `hcl:"default,optional" json:"-"`                         // default value for the variable, optional
	Description string    `hcl:"description,optional" json:"description,omitempty"` // description of the variable
	Sensitive   bool      `hcl:"sensitive,optional" json:"sensitive,omitempty"`     // sensitive variables are masked in any rendered output

	// HasDefault is true when the manifest declared a default value,
	// variables without a default must be set by an override
	HasDefault bool `json:"has_default,omitempty"`

	// Value is the resolved value of the variable after all overrides
	// have been applied
	Value any `json:"value,omitempty"`
}
