package types

import (
	"fmt"
	"regexp"
	"strings"
)

// ResourceFQRN is the fully qualified resource name for a resource declared
// in a manifest
type ResourceFQRN struct {
	// Name of the module, empty when the resource is in the root module
	Module string
	// Type of the resource
	Type string
	// Resource name
	Resource string
	// Attribute path for the resource, empty when the reference is to the
	// resource itself
	Attribute string
}

// ParseFQRN parses a resource reference and returns the individual
// components.
//
// References take the following forms:
//
//	resource.network.main                  resource in the root module
//	resource.network.main.id               attribute of a resource
//	output.instance_ip                     output in the root module
//	variable.environment                   variable in the root module
//	module.vpc                             module in the root module
//	module.vpc.resource.subnet.public      resource inside a module
//	module.vpc.output.network_id           output inside a module
func ParseFQRN(fqrn string) (*ResourceFQRN, error) {
	moduleName := ""
	typeName := ""
	resourceName := ""
	attribute := ""

	formatErr := fmt.Errorf(
		"invalid resource reference %s, references must be formatted like "+
			"variable.name, output.name, resource.type.name, module.module1, or "+
			"module.module1.resource.type.name", fqrn)

	// first split on the resource, module, output or variable keyword
	r := regexp.MustCompile(`^(module.(?P<modules>.*)\.)?(?:(?P<kind>(resource|output|variable|local))\.(?P<parts>(.*)))|(?P<onlymodules>.*)`)
	match := r.FindStringSubmatch(fqrn)
	results := map[string]string{}
	for i, name := range match {
		results[r.SubexpNames()[i]] = name
	}

	if len(results) < 2 {
		return nil, formatErr
	}

	switch results["kind"] {
	case TypeResource:
		resourceParts := strings.Split(results["parts"], ".")
		if len(resourceParts) < 2 {
			return nil, formatErr
		}

		typeName = resourceParts[0]
		resourceName = resourceParts[1]
		attribute = strings.Join(resourceParts[2:], ".")
		moduleName = results["modules"]

	case TypeOutput, TypeVariable, TypeLocal:
		parts := strings.Split(results["parts"], ".")

		typeName = results["kind"]
		resourceName = parts[0]
		attribute = strings.Join(parts[1:], ".")
		moduleName = results["modules"]

	default:
		if results["onlymodules"] == "" || !strings.HasPrefix(results["onlymodules"], "module.") {
			return nil, formatErr
		}

		// module.module1.module2
		modules := strings.Split(results["onlymodules"], ".")

		if len(modules) == 2 {
			resourceName = modules[1]
		} else {
			moduleName = strings.Join(modules[1:len(modules)-1], ".")
			resourceName = modules[len(modules)-1]
		}

		typeName = TypeModule
	}

	return &ResourceFQRN{
		Module:    moduleName,
		Type:      typeName,
		Resource:  resourceName,
		Attribute: attribute,
	}, nil
}

// AppendParentModule creates a new FQRN with the parent module prepended
// to the module path of the reference.
func (f *ResourceFQRN) AppendParentModule(parent string) ResourceFQRN {
	newFQRN := ResourceFQRN{}

	newFQRN.Module = f.Module
	if parent != "" {
		newFQRN.Module = fmt.Sprintf("%s.%s", parent, f.Module)
		newFQRN.Module = strings.TrimSuffix(newFQRN.Module, ".")
	}

	newFQRN.Resource = f.Resource
	newFQRN.Type = f.Type
	newFQRN.Attribute = f.Attribute

	return newFQRN
}

// FQRNFromResource returns the ResourceFQRN for the given Resource
func FQRNFromResource(r Resource) *ResourceFQRN {
	return &ResourceFQRN{
		Module:   r.Metadata().Module,
		Resource: r.Metadata().Name,
		Type:     r.Metadata().Type,
	}
}

func (f ResourceFQRN) String() string {
	modulePart := ""
	if f.Module != "" {
		modulePart = fmt.Sprintf("module.%s.", f.Module)
	}

	attrPart := ""
	if f.Attribute != "" {
		attrPart = fmt.Sprintf(".%s", f.Attribute)
	}

	switch f.Type {
	case TypeOutput, TypeVariable, TypeLocal:
		return fmt.Sprintf("%s%s.%s%s", modulePart, f.Type, f.Resource, attrPart)
	case TypeModule:
		if f.Module == "" {
			return fmt.Sprintf("module.%s", f.Resource)
		}

		return fmt.Sprintf("%s%s", modulePart, f.Resource)
	}

	return fmt.Sprintf("%sresource.%s.%s%s", modulePart, f.Type, f.Resource, attrPart)
}

// StringWithoutAttribute returns the string representation of the FQRN
// with any attribute path removed
func (f ResourceFQRN) StringWithoutAttribute() string {
	stripped := f
	stripped.Attribute = ""

	return stripped.String()
}
