package stackform

import (
	"fmt"
	"reflect"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/creasty/defaults"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/silas/dag"
	"github.com/zclconf/go-cty/cty"

	"github.com/stackform-io/stackform/convert"
	"github.com/stackform-io/stackform/errors"
	"github.com/stackform-io/stackform/resources"
	"github.com/stackform-io/stackform/types"
)

// CyclicDependencyError is returned when the resources in a manifest
// directly or transitively depend on themselves
type CyclicDependencyError struct {
	Err error
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("dependency cycle detected in manifest: %s", e.Err)
}

func (e *CyclicDependencyError) Unwrap() error {
	return e.Err
}

// buildGraph creates a directed acyclic graph from the resources in the
// config, an edge is added for every link and explicit dependency
func buildGraph(c *Config) (*dag.AcyclicGraph, error) {
	graph := &dag.AcyclicGraph{}

	// add a root node for the graph
	root, _ := resources.DefaultResources().CreateResource(resources.TypeRoot, "root")
	graph.Add(root)

	// loop over all resources and add to graph, variables are evaluated
	// before the graph is built so do not need to be nodes
	for _, resource := range c.Resources {
		if resource.Metadata().Type != resources.TypeVariable {
			graph.Add(resource)
		}
	}

	// add dependencies for all resources
	for _, resource := range c.Resources {
		hasDeps := false

		if resource.Metadata().Type == resources.TypeVariable {
			continue
		}

		// use a map to keep a unique list
		dependencies := map[types.Resource]bool{}

		// references found in the body are dependencies as the referenced
		// resource must be processed before this value can be resolved
		for _, d := range resource.Metadata().Links {
			resource.AddDependency(d)
		}

		for _, d := range resource.GetDependencies() {
			fqrn, err := types.ParseFQRN(d)
			if err != nil {
				return nil, createParserError(resource, fmt.Sprintf("invalid dependency '%s': %s", d, err))
			}

			// assume that all dependency references have been written with no
			// knowledge of their parent module. If the parent module is
			// "mod1" and the reference is "module.mod2.resource.network.main.id"
			// then the reference needs to include the parent,
			// "module.mod1.mod2.resource.network.main.id"
			relFQRN := fqrn.AppendParentModule(resource.Metadata().Module)

			if fqrn.Type == resources.TypeModule {
				// when the dependency is a module, depend on all resources
				// in the module.
				// the error is ignored as the module may contain only
				// disabled resources
				deps, _ := c.FindModuleResources(relFQRN.String(), true)

				for _, dep := range deps {
					dependencies[dep] = true
				}
			} else {
				dep, err := c.FindResource(relFQRN.StringWithoutAttribute())
				if err != nil {
					return nil, createParserError(resource,
						fmt.Sprintf("unable to find dependent resource '%s': %s", d, err))
				}

				dependencies[dep] = true
			}
		}

		// if this resource is part of a module make it depend on that module
		if resource.Metadata().Module != "" {
			fqrnString := fmt.Sprintf("module.%s", resource.Metadata().Module)

			d, err := c.FindResource(fqrnString)
			if err != nil {
				return nil, createParserError(resource,
					fmt.Sprintf("unable to find parent module: '%s', error: %s", fqrnString, err))
			}

			hasDeps = true
			dependencies[d] = true
		}

		for d := range dependencies {
			hasDeps = true
			graph.Connect(dag.BasicEdge(d, resource))
		}

		// if no deps add to root node
		if !hasDeps {
			graph.Connect(dag.BasicEdge(root, resource))
		}
	}

	return graph, nil
}

// createCallback creates the internal callback that is called when a node
// in the graph is visited. The callback deserializes the resource body,
// resolves any linked values, validates the resource, and finally calls
// the user defined callback so that external work can be performed
func createCallback(c *Config, wf WalkCallback) func(v dag.Vertex) (diags dag.Diagnostics) {
	return func(v dag.Vertex) (diags dag.Diagnostics) {
		r, ok := v.(types.Resource)
		// not a resource skip, this should never happen
		if !ok {
			panic("an item has been added to the graph that is not a resource")
		}

		// ensure that the resource is not written to by other walk routines
		l := getResourceLock(r)
		defer l()

		if r.Metadata().Type == resources.TypeRoot {
			return nil
		}

		bdy, err := c.getBody(r)
		if err != nil {
			panic(fmt.Sprintf(`no body found for resource "%s"`, r.Metadata().ID))
		}

		ctx, err := c.getContext(r)
		if err != nil {
			panic(fmt.Sprintf(`no context found for resource "%s"`, r.Metadata().ID))
		}

		// validate the resource links, these are the references to other
		// resources found in the interpolated values of the body
		if len(r.Metadata().Links) > 0 {
			err := validateLinkedResources(c, r, r.Metadata().Links)
			if err != nil {
				return diags.Append(createParserError(
					r,
					fmt.Sprintf(`resource contains invalid interpolated values: %s`, err),
				))
			}
		}

		// if the resource is disabled we need to skip setting disabled
		// again otherwise we could revert a disabled state set by a module
		if r.GetDisabled() {
			return nil
		}

		// disabled might be set through an interpolated value, the
		// expression has to be evaluated with the linked values resolved
		if attr, ok := bdy.Attributes["disabled"]; ok {
			links, err := processExpr(attr.Expr)
			if err != nil {
				return diags.Append(createParserError(
					r,
					fmt.Sprintf(`unable to process disabled expression: %s`, err)),
				)
			}

			if len(links) > 0 {
				// setContextVariableFromPath takes the context lock itself
				if err := setContextVariablesFromList(c, r, links, ctx); err != nil {
					return diags.Append(err)
				}

				var isDisabled bool
				expdiags := hcl.Diagnostics{}
				withContextLock(ctx, func() {
					expdiags = gohcl.DecodeExpression(attr.Expr, ctx, &isDisabled)
				})

				if expdiags.HasErrors() {
					return diags.Append(createParserError(
						r,
						fmt.Sprintf(`unable to process disabled expression: %s`, expdiags.Error())),
					)
				}

				r.SetDisabled(isDisabled)

				if isDisabled {
					return nil
				}
			}
		}

		// set the context variables from the linked resources
		if err := setContextVariablesFromList(c, r, r.Metadata().Links, ctx); err != nil {
			return diags.Append(err)
		}

		// if there are defaults defined on the resource set them
		defaults.Set(r)

		// process the raw resource now we have the context from the linked
		// resources
		decodeDiags := hcl.Diagnostics{}
		withContextLock(ctx, func() {
			decodeDiags = gohcl.DecodeBody(bdy, ctx, r)
		})

		if decodeDiags.HasErrors() {
			// this error is initially set as a warning as it is possible that
			// the resource has interpolation that is not yet resolved,
			// syntax and missing attribute errors are upgraded to errors
			parserErr := createParserWarning(r, fmt.Sprintf(`unable to decode body: %s`, decodeDiags.Error()))

			for _, e := range decodeDiags.Errs() {
				err, ok := e.(*hcl.Diagnostic)
				if !ok {
					continue
				}

				if slices.Contains(errorSummaries, err.Summary) {
					parserErr.Level = errors.ParserErrorLevelError
					return diags.Append(parserErr)
				}
			}
		}

		// if the type is a module we need to add the variables to the
		// sub context so the module resources can read them
		if r.Metadata().Type == resources.TypeModule {
			// if the module is disabled all of its resources are disabled
			if r.GetDisabled() {
				dr, err := c.FindModuleResources(r.Metadata().ID, true)
				if err != nil {
					return diags.Append(createParserError(
						r,
						fmt.Sprintf(`unable to find disabled module resources "%s", %s"`, r.Metadata().ID, err),
					))
				}

				for _, d := range dr {
					d.SetDisabled(true)
				}

				return nil
			}

			mod := r.(*resources.Module)

			withContextLock(ctx, func() {
				if att, ok := mod.Variables.(*hcl.Attribute); ok {
					val, _ := att.Expr.Value(ctx)

					for k, v := range val.AsValueMap() {
						setContextVariable(mod.SubContext, k, v)
					}
				}
			})
		}

		// outputs and locals hold their resolved value as a cty type,
		// convert it to a plain go value
		if r.Metadata().Type == resources.TypeOutput {
			o := r.(*resources.Output)

			if !o.CtyValue.IsNull() {
				o.Value = castVar(o.CtyValue)
			}
		}

		if r.Metadata().Type == resources.TypeLocal {
			o := r.(*resources.Local)

			if !o.CtyValue.IsNull() {
				o.Value = castVar(o.CtyValue)
			}
		}

		// run the resources own semantic validation now the attributes
		// have been resolved
		if v, ok := r.(types.Validatable); ok {
			if err := v.Validate(); err != nil {
				return diags.Append(createParserError(
					r,
					fmt.Sprintf(`validation failed for resource "%s": %s`, r.Metadata().ID, err),
				))
			}
		}

		// the checksum is taken before the callback runs so that values
		// set by the callback, such as ids assigned by a provider, do not
		// mark the resource as changed on the next run
		r.Metadata().Checksum.Processed = generateChecksum(r)

		// call the user defined callback
		if wf != nil {
			err := wf(r)
			if err != nil {
				return diags.Append(createParserError(
					r,
					fmt.Sprintf(`error processing resource "%s": %s`, r.Metadata().ID, err),
				))
			}
		}

		return nil
	}
}

// summaries of decode diagnostics that can never be caused by unresolved
// interpolation, these fail the parse immediately
var errorSummaries = []string{
	"Error in function call",
	"Call to unknown function",
	"Unknown variable",
	"Missing required argument",
	"Unsupported argument",
	"Unsupported block type",
	"Invalid expanding argument value",
	"Not enough function arguments",
	"Too many function arguments",
	"Invalid function argument",
	"Inconsistent conditional result types",
	"Null condition",
	"Incorrect condition type",
	"Null value as key",
	"Incorrect key type",
	"Ambiguous attribute key",
	"Iteration over null value",
	"Iteration over non-iterable value",
	"Condition is null",
	"Invalid 'for' condition",
	"Invalid object key",
	"Duplicate object key",
	"Splat of null value",
	"Invalid nested splat expressions",
	"Function calls not allowed",
}

// setContextVariablesFromList sets the context variables for a list of
// resource links
//
// for example: given the values ["module.mod1.resource.network.main.id"]
// the context variable "module.mod1.resource.network.main" will be set to
// the value of the resource of type network with the name main
func setContextVariablesFromList(c *Config, r types.Resource, values []string, ctx *hcl.EvalContext) *errors.ParserError {
	// all linked values have been processed before this resource as the
	// graph handles them first
	for _, value := range values {
		// get the linked resource
		l, err := c.FindRelativeResource(value, r.Metadata().Module)
		if err != nil {
			return createParserError(
				r,
				fmt.Sprintf("unable to find dependent resource '%s': %s", value, err))
		}

		// convert the resource to a cty type so it can be set on the context
		var ctyRes cty.Value

		switch l.Metadata().Type {
		case resources.TypeLocal:
			loc := l.(*resources.Local)
			ctyRes = loc.CtyValue
		case resources.TypeOutput:
			out := l.(*resources.Output)
			ctyRes = out.CtyValue
		default:
			ctyRes, err = convert.GoToCtyValue(l)
		}

		if err != nil {
			return createParserError(
				r,
				fmt.Sprintf(`unable to convert reference %s to context variable: %s`, value, err))
		}

		// remove the attribute to get a pure resource reference
		fqrn, err := types.ParseFQRN(value)
		if err != nil {
			return createParserError(r, fmt.Sprintf("error parsing resource link %s", err))
		}

		fqrn.Attribute = ""

		err = setContextVariableFromPath(ctx, fqrn.String(), ctyRes)
		if err != nil {
			return createParserError(r, fmt.Sprintf(`unable to set context variable: %s`, err))
		}
	}

	return nil
}

// validateLinkedResources checks that every resource referenced from an
// interpolated value exists and that the referenced attribute is an
// attribute of the resource, this catches broken references before the
// body is decoded and gives a better error message than a decode failure
func validateLinkedResources(c *Config, r types.Resource, values []string) error {
	for _, value := range values {
		fqrn, err := types.ParseFQRN(value)
		if err != nil {
			return createParserError(r, fmt.Sprintf("error parsing resource link %s", err))
		}

		// get the linked resource
		l, err := c.FindRelativeResource(value, r.Metadata().Module)
		if err != nil {
			return createParserError(
				r,
				fmt.Sprintf("unable to find dependent resource '%s': %s", value, err))
		}

		attr := fqrn.Attribute
		if fqrn.Type == resources.TypeOutput {
			if attr == "" {
				attr = "value"
			} else {
				attr = "value." + attr
			}
		}

		// if we have additional properties, check the object has them
		if attr != "" {
			properties := strings.Split(attr, ".")

			// indexes may be written with brackets, cut them off the
			// property and insert them as their own path element
			flattened := []string{}
			for _, property := range properties {
				regex := regexp.MustCompile(`(?P<property>[a-zA-Z0-9_\-]*)(?:\[["']?(?P<key>[a-zA-Z0-9)_\-]*)["']?\])?`)
				matches := regex.FindStringSubmatch(property)

				parts := make(map[string]string)
				for i, name := range regex.SubexpNames() {
					if i != 0 && name != "" {
						parts[name] = matches[i]
					}
				}

				flattened = append(flattened, parts["property"])
				if parts["key"] != "" {
					flattened = append(flattened, parts["key"])
				}
			}

			v := reflect.ValueOf(l)
			t := reflect.TypeOf(l)

			err = validateAttribute(v, t, flattened)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// validateAttribute checks if the attribute exists in the resource,
// used to catch invalid references to attributes and to provide better
// error messages
func validateAttribute(v reflect.Value, t reflect.Type, properties []string) error {
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
		v = v.Elem()
	}

	switch t.Kind() {
	case reflect.Struct:
		// a cty.Value can hold anything so we have to assume it is valid
		if t.String() == "cty.Value" {
			return nil
		}

		// handle the embedded ResourceBase
		if properties[0] == "meta" {
			r, found := t.FieldByName("ResourceBase")
			if !found {
				return fmt.Errorf(`unable to find dependent attribute "%s"`, properties[0])
			}

			m, found := r.Type.FieldByName("Meta")
			if !found {
				return fmt.Errorf(`unable to find dependent attribute "%s"`, properties[0])
			}

			rv := v.FieldByName("ResourceBase")
			mv := rv.FieldByName("Meta")

			return validateAttribute(mv, m.Type, properties[1:])
		}

		if properties[0] == "disabled" {
			_, found := t.FieldByName("ResourceBase")
			if !found {
				return fmt.Errorf(`unable to find dependent attribute "%s"`, properties[0])
			}

			return nil
		}

		for index := 0; index < t.NumField(); index++ {
			f := t.Field(index)

			// compare the property with the hcl tags on the object
			tag := f.Tag.Get("hcl")
			if strings.Split(tag, ",")[0] == properties[0] {
				// if there are no further properties, we are done
				if len(properties) == 1 {
					return nil
				}

				fv := v.FieldByName(f.Name)

				// a nil value can not have its nested attributes resolved
				if fv.Type().Kind() == reflect.Ptr {
					if fv.IsNil() {
						return fmt.Errorf(`dependent attribute is not set: "%s"`, properties[0])
					}
				}

				return validateAttribute(fv, f.Type, properties[1:])
			}
		}

	case reflect.Slice:
		nt := t.Elem()

		// try to parse the index, if it fails it is not a valid index
		i, err := strconv.ParseInt(properties[0], 10, 32)
		if err != nil {
			return fmt.Errorf(`invalid list index: "%s"`, properties[0])
		}

		// check that the index is not greater than the length of the slice
		if int(i) >= v.Len() {
			return fmt.Errorf(`list does not contain index: "%s"`, properties[0])
		}

		nv := v.Index(int(i))

		// if we only have an index, we are done
		if len(properties) == 1 {
			return nil
		}

		return validateAttribute(nv, nt, properties[1:])

	case reflect.Map:
		nt := t.Elem()

		// check that the referenced key exists
		var nv reflect.Value
		var keyFound bool

		keys := v.MapKeys()
		for _, key := range keys {
			if key.String() == properties[0] {
				keyFound = true
				nv = v.MapIndex(key)
			}
		}

		if !keyFound {
			return fmt.Errorf(`map does not contain key: "%s"`, properties[0])
		}

		// if there are no further properties, we are done
		if len(properties) == 1 {
			return nil
		}

		return validateAttribute(nv, nt, properties[1:])

	// an interface can hold anything, we have to assume it is valid
	case reflect.Interface:
		return nil
	}

	return fmt.Errorf(`unable to find dependent attribute: "%s"`, properties[0])
}

func createParserError(r types.Resource, msg string) *errors.ParserError {
	pe := &errors.ParserError{}
	pe.Filename = r.Metadata().File
	pe.Line = r.Metadata().Line
	pe.Column = r.Metadata().Column
	pe.Message = msg
	pe.Level = errors.ParserErrorLevelError

	return pe
}

func createParserWarning(r types.Resource, msg string) *errors.ParserError {
	pe := &errors.ParserError{}
	pe.Filename = r.Metadata().File
	pe.Line = r.Metadata().Line
	pe.Column = r.Metadata().Column
	pe.Message = msg
	pe.Level = errors.ParserErrorLevelWarning

	return pe
}
