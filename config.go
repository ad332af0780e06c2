package stackform

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/errwrap"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/silas/dag"
	"github.com/stackform-io/stackform/errors"
	"github.com/stackform-io/stackform/resources"
	"github.com/stackform-io/stackform/types"
)

// Config holds the resources parsed from a manifest, resources are stored
// in the order they were read, the Walk method traverses them in
// dependency order
type Config struct {
	Resources []types.Resource `json:"resources"`
	contexts  map[types.Resource]*hcl.EvalContext
	bodies    map[types.Resource]*hclsyntax.Body
	sync      sync.Mutex
}

// ResourceNotFoundError is returned when a referenced resource does not
// exist in the config
type ResourceNotFoundError struct {
	Name string
}

func (e ResourceNotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.Name)
}

// ResourceExistsError is returned when a resource with the same name and
// type has already been declared
type ResourceExistsError struct {
	Name string
}

func (e ResourceExistsError) Error() string {
	return fmt.Sprintf("resource already exists: %s", e.Name)
}

// NewConfig creates a new empty Config
func NewConfig() *Config {
	c := &Config{
		Resources: []types.Resource{},
		contexts:  map[types.Resource]*hcl.EvalContext{},
		bodies:    map[types.Resource]*hclsyntax.Body{},
		sync:      sync.Mutex{},
	}

	return c
}

// FindResource returns the resource for the given reference
// references are defined with the convention: resource.[type].[name]
// the keyword "resource" is a required component of the path to allow
// names of resources to contain "." and to enable easy separation of
// module parts.
//
// "module" is an optional path parameter: module.[module_name].resource.[type].[name]
// and is required when searching for resources that were loaded from a
// module.
//
// e.g. to find a network named main
// r, err := c.FindResource("resource.network.main")
//
// e.g. to find a network named main in the module vpc
// r, err := c.FindResource("module.vpc.resource.network.main")
func (c *Config) FindResource(path string) (types.Resource, error) {
	c.sync.Lock()
	defer c.sync.Unlock()

	return c.findResource(path)
}

// local version of FindResource that does not lock the config
func (c *Config) findResource(path string) (types.Resource, error) {
	fqrn, err := types.ParseFQRN(path)
	if err != nil {
		return nil, err
	}

	for _, r := range c.Resources {
		if r.Metadata().Module == fqrn.Module &&
			r.Metadata().Type == fqrn.Type &&
			r.Metadata().Name == fqrn.Resource {
			return r, nil
		}
	}

	return nil, ResourceNotFoundError{fqrn.StringWithoutAttribute()}
}

// FindRelativeResource returns the resource for the given reference
// evaluated relative to the given parent module, references written in
// module manifests have no knowledge of the module they are loaded into
func (c *Config) FindRelativeResource(path string, parentModule string) (types.Resource, error) {
	c.sync.Lock()
	defer c.sync.Unlock()

	fqrn, err := types.ParseFQRN(path)
	if err != nil {
		return nil, err
	}

	if parentModule != "" {
		mod := fmt.Sprintf("%s.%s", parentModule, fqrn.Module)
		mod = strings.Trim(mod, ".")

		fqrn.Module = mod
	}

	return c.findResource(fqrn.String())
}

// FindResourcesByType returns all resources with the given type
func (c *Config) FindResourcesByType(t string) ([]types.Resource, error) {
	c.sync.Lock()
	defer c.sync.Unlock()

	res := []types.Resource{}

	for _, r := range c.Resources {
		if r.Metadata().Type == t {
			res = append(res, r)
		}
	}

	if len(res) > 0 {
		return res, nil
	}

	return nil, ResourceNotFoundError{t}
}

// FindModuleResources returns the resources defined in the given module
// if includeSubModules is true resources in any nested modules are also
// returned
func (c *Config) FindModuleResources(module string, includeSubModules bool) ([]types.Resource, error) {
	c.sync.Lock()
	defer c.sync.Unlock()

	fqrn, err := types.ParseFQRN(module)
	if err != nil {
		return nil, err
	}

	if fqrn.Type != resources.TypeModule {
		return nil, fmt.Errorf("resource %s is not a module reference", module)
	}

	moduleString := fmt.Sprintf("%s.%s", fqrn.Module, fqrn.Resource)
	moduleString = strings.TrimPrefix(moduleString, ".")

	found := []types.Resource{}

	for _, r := range c.Resources {
		match := false
		if includeSubModules && strings.HasPrefix(r.Metadata().Module, moduleString) {
			match = true
		}

		if !includeSubModules && r.Metadata().Module == moduleString {
			match = true
		}

		if match {
			found = append(found, r)
		}
	}

	if len(found) > 0 {
		return found, nil
	}

	return nil, ResourceNotFoundError{fqrn.Module}
}

// ResourceCount returns the number of resources in the config
func (c *Config) ResourceCount() int {
	return len(c.Resources)
}

// AppendResourcesFromConfig adds the resources in the given config to
// this config. If a resource already exists a ResourceExistsError
// is returned
func (c *Config) AppendResourcesFromConfig(new *Config) error {
	c.sync.Lock()
	defer c.sync.Unlock()

	for _, r := range new.Resources {
		fqrn := types.FQRNFromResource(r).String()

		// does the resource already exist?
		if _, err := c.findResource(fqrn); err == nil {
			return ResourceExistsError{Name: fqrn}
		}

		// the context and body are needed when parsing
		c.addResource(r, new.contexts[r], new.bodies[r])
	}

	return nil
}

// AppendResource adds the given resource to the resource list, if the
// resource already exists an error is returned
func (c *Config) AppendResource(r types.Resource) error {
	c.sync.Lock()
	defer c.sync.Unlock()

	return c.addResource(r, nil, nil)
}

// RemoveResource removes the given resource from the config
func (c *Config) RemoveResource(rf types.Resource) error {
	c.sync.Lock()
	defer c.sync.Unlock()

	pos := -1
	for i, r := range c.Resources {
		if rf.Metadata().Name == r.Metadata().Name &&
			rf.Metadata().Type == r.Metadata().Type &&
			rf.Metadata().Module == r.Metadata().Module {
			pos = i
			break
		}
	}

	// found the resource, remove from the collection preserving order
	if pos > -1 {
		c.Resources = append(c.Resources[:pos], c.Resources[pos+1:]...)

		// clean up the context and body
		delete(c.contexts, rf)
		delete(c.bodies, rf)
		return nil
	}

	return ResourceNotFoundError{rf.Metadata().ID}
}

// WalkCallback is called with the resource when the graph processes that
// particular node
type WalkCallback func(r types.Resource) error

// Walk traverses the dependency graph for the config and executes the
// given callback for every resource. If resource 'a' references an
// attribute of resource 'b' then the callback for 'b' is guaranteed to
// have completed before the callback for 'a' is executed.
//
// Any error returned from the callback halts execution of callbacks
// for the remaining resources in the graph.
//
// Setting reverse to true traverses the graph in reverse dependency
// order, dependent resources are visited before their dependencies.
func (c *Config) Walk(wf WalkCallback, reverse bool) error {
	// ensure the callback is not executed once any other callback has
	// returned an error, returning an error from the walk func does not
	// stop the walk
	hasError := atomic.Bool{}

	ce := errors.NewConfigError()

	errs := c.walk(
		func(v dag.Vertex) (diags dag.Diagnostics) {
			r, ok := v.(types.Resource)
			if !ok {
				return nil
			}

			// skip the root node, modules and disabled resources
			if r.Metadata().Type == resources.TypeRoot ||
				r.Metadata().Type == resources.TypeModule ||
				r.GetDisabled() {
				return nil
			}

			if hasError.Load() {
				return nil
			}

			err := wf(r)
			if err != nil {
				hasError.Store(true)

				return diags.Append(err)
			}

			return nil
		},
		reverse,
	)

	for _, e := range errs {
		ce.AppendProcessError(e)
	}

	if len(ce.ProcessErrors) > 0 {
		return ce
	}

	return nil
}

// process builds the dependency graph and lazily deserializes the body of
// every resource, resolving linked values as the graph is walked, wf is
// called for each resource once its body has been decoded and validated
func (c *Config) process(wf dag.WalkFunc, reverse bool) error {
	ce := errors.NewConfigError()

	for _, e := range c.walk(wf, reverse) {
		ce.AppendProcessError(e)
	}

	if len(ce.ProcessErrors) > 0 {
		return ce
	}

	return nil
}

func (c *Config) walk(wf dag.WalkFunc, reverse bool) []error {
	// build the graph
	d, err := buildGraph(c)
	if err != nil {
		return []error{err}
	}

	// reduce the graph nodes to unique instances
	d.TransitiveReduction()

	// validate the dependency graph is ok
	err = d.Validate()
	if err != nil {
		return []error{&CyclicDependencyError{err}}
	}

	// define the walker callback that will be called for every node in the graph
	w := dag.Walker{}
	w.Callback = wf
	w.Reverse = reverse

	// update the dag and process the nodes
	log.SetOutput(io.Discard)

	errs := []error{}
	w.Update(d)
	diags := w.Wait()
	if diags.HasErrors() {
		err := diags.Err()
		if wrapped, ok := err.(errwrap.Wrapper); ok {
			errs = append(errs, wrapped.WrappedErrors()...)
		} else {
			errs = append(errs, err)
		}

		return errs
	}

	return nil
}

func (c *Config) addResource(r types.Resource, ctx *hcl.EvalContext, b *hclsyntax.Body) error {
	fqrn := types.FQRNFromResource(r)

	// set the ID
	r.Metadata().ID = fqrn.String()

	rf, err := c.findResource(fqrn.String())
	if err == nil && rf != nil {
		return ResourceExistsError{r.Metadata().Name}
	}

	c.Resources = append(c.Resources, r)
	c.contexts[r] = ctx
	c.bodies[r] = b

	return nil
}

func (c *Config) getContext(rf types.Resource) (*hcl.EvalContext, error) {
	if ctx, ok := c.contexts[rf]; ok {
		return ctx, nil
	}

	return nil, ResourceNotFoundError{rf.Metadata().ID}
}

func (c *Config) getBody(rf types.Resource) (*hclsyntax.Body, error) {
	if b, ok := c.bodies[rf]; ok {
		return b, nil
	}

	return nil, ResourceNotFoundError{rf.Metadata().ID}
}
