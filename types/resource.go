package types

// Resource is the interface implemented by every block that can appear in a
// manifest, both the built in structural types (variable, output, module) and
// the cloud resource catalogue.
type Resource interface {
	// Metadata returns the common metadata for the resource
	Metadata() *Meta
	GetDisabled() bool
	SetDisabled(bool)
	GetDependencies() []string
	SetDependencies([]string)
	AddDependency(string)
}

// Parsable defines an optional interface that allows a resource to be
// modified directly after it has been loaded from a file.
//
// Parse is called sequentially for each resource as it is read from the
// manifest, before the graph of dependent resources has been built. It is
// not possible to read linked values from Parse as they have not yet been
// resolved.
type Parsable interface {
	Parse() error
}

// Validatable defines an optional interface allowing a resource to perform
// semantic validation of its own attributes.
//
// Validate is called when the resource is processed by the graph, after all
// linked values have been resolved and the body has been decoded. Returning
// an error stops the processing of other resources and terminates parsing.
type Validatable interface {
	Validate() error
}

// Meta holds the common metadata that every resource carries
type Meta struct {
	// ID is the unique id for the resource following the convention
	// module.<module_name>.resource.<type>.<name>
	ID string `json:"id"`

	// Name is the name of the resource, set from the stanza label
	Name string `json:"name"`

	// Type is the type of the resource, set from the stanza label
	Type string `json:"type"`

	// Module is the name of the module when the resource was loaded from
	// a module
	Module string `json:"module,omitempty"`

	// File is the absolute path of the file where the resource is defined
	File string `json:"file"`

	// Line is the starting line of the resource definition in File
	Line int `json:"line"`

	// Column is the starting column of the resource definition in File
	Column int `json:"column"`

	// Checksum of the resource, used by the plan to detect changes
	Checksum Checksum `json:"checksum,omitempty"`

	// Links are the references to other resources found in the resource
	// body, these must be resolved before the body can be decoded
	Links []string `json:"links,omitempty"`
}

// Checksum is the change detection state for a resource
type Checksum struct {
	// Parsed is the checksum of the resource attributes after the manifest
	// has been read
	Parsed string `json:"parsed,omitempty"`
	// Processed is the checksum after the graph has resolved all linked
	// values, this is the value compared by the plan
	Processed string `json:"processed,omitempty"`
}

// ResourceBase is the embedded type for all resources, it defines the common
// metadata and user configurable dependency attributes that every resource
// shares.
type ResourceBase struct {
	// DependsOn is a user configurable list of explicit dependencies
	DependsOn []string `hcl:"depends_on,optional" json:"depends_on,omitempty"`

	// Disabled resources are parsed but not processed or applied
	Disabled bool `hcl:"disabled,optional" json:"disabled,omitempty"`

	Meta Meta `json:"meta,omitempty"`
}

// Metadata ensures that any struct embedding ResourceBase conforms to the
// Resource interface
func (r *ResourceBase) Metadata() *Meta {
	return &r.Meta
}

func (r *ResourceBase) GetDisabled() bool {
	return r.Disabled
}

func (r *ResourceBase) SetDisabled(v bool) {
	r.Disabled = v
}

func (r *ResourceBase) GetDependencies() []string {
	return r.DependsOn
}

func (r *ResourceBase) SetDependencies(v []string) {
	r.DependsOn = v
}

func (r *ResourceBase) AddDependency(v string) {
	for _, d := range r.DependsOn {
		if d == v {
			return
		}
	}

	r.DependsOn = append(r.DependsOn, v)
}
