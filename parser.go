package stackform

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/stackform-io/stackform/errors"
	"github.com/stackform-io/stackform/logger"
	"github.com/stackform-io/stackform/resources"
	"github.com/stackform-io/stackform/types"
)

// ResourceTypeNotExistError is returned when a manifest contains a
// resource stanza with a type that has not been registered
type ResourceTypeNotExistError struct {
	Type string
	File string
}

func (r ResourceTypeNotExistError) Error() string {
	return fmt.Sprintf("resource type %s defined in file %s does not exist, please check the documentation for supported resources", r.Type, r.File)
}

// UndefinedVariableError is returned when a variable has no default value
// and no override was supplied from a vars file, the environment, or the
// parser options
type UndefinedVariableError struct {
	Name string
	File string
}

func (u UndefinedVariableError) Error() string {
	return fmt.Sprintf("variable %s defined in file %s has no default value, set a value using a vars file, an environment variable, or an override", u.Name, u.File)
}

type ParserOptions struct {
	// list of default variable values to add to the parser
	Variables map[string]string
	// list of variable files to be read by the parser
	VariablesFiles []string
	// environment variable prefix
	VariableEnvPrefix string
	// location of any downloaded modules
	ModuleCache string
	// callback executed when the parser processes a resource stanza,
	// callbacks are executed based on a directed acyclic graph. If
	// resource 'a' references a property defined in resource 'b', i.e
	// 'resource.b.myproperty', then the callback for resource 'b' will be
	// executed before resource 'a'. This allows you to set the dependent
	// properties of resource 'b' before resource 'a' consumes them.
	ParseCallback WalkCallback
	// logger used by the parser, when nil logs are discarded
	Logger logger.Logger
}

// DefaultOptions returns a ParserOptions object with the
// ModuleCache set to the default directory of $HOME/.stackform/cache,
// if the $HOME folder can not be determined the cache is set to the
// current folder.
// VariableEnvPrefix is set to 'SF_VAR_', should a variable be defined
// called 'foo' setting the environment variable 'SF_VAR_foo' will
// override any default value
func DefaultOptions() *ParserOptions {
	cacheDir, err := os.UserHomeDir()
	if err != nil {
		cacheDir = "."
	}

	cacheDir = filepath.Join(cacheDir, ".stackform", "cache")
	os.MkdirAll(cacheDir, os.ModePerm)

	return &ParserOptions{
		ModuleCache:       cacheDir,
		VariableEnvPrefix: "SF_VAR_",
	}
}

// Parser parses manifest files into a Config
type Parser struct {
	options             ParserOptions
	registeredTypes     types.RegisteredTypes
	registeredFunctions map[string]function.Function
	log                 logger.Logger
}

// NewParser creates a new parser with the given options,
// if options are nil default options are used
func NewParser(options *ParserOptions) *Parser {
	o := options
	if o == nil {
		o = DefaultOptions()
	}

	l := o.Logger
	if l == nil {
		l = logger.NewNullLogger()
	}

	return &Parser{
		options:             *o,
		registeredTypes:     resources.DefaultResources(),
		registeredFunctions: map[string]function.Function{},
		log:                 l,
	}
}

// RegisterType registers a struct that implements Resource with the given
// name, the parser uses this list to convert manifest stanzas into
// concrete types
func (p *Parser) RegisterType(name string, resource types.Resource) {
	p.registeredTypes[name] = resource
}

// RegisterFunction registers a custom interpolation function with the
// given name
func (p *Parser) RegisterFunction(name string, f interface{}) error {
	ctyFunc, err := createCtyFunctionFromGoFunc(f)
	if err != nil {
		return err
	}

	p.registeredFunctions[name] = ctyFunc

	return nil
}

// ParseFile parses the given manifest file and returns the Config with
// the resources resolved and processed in dependency order
func (p *Parser) ParseFile(file string) (*Config, error) {
	c := NewConfig()
	ctx := buildContext(file, p.registeredFunctions)

	err := p.parseFile(ctx, file, c, p.options.Variables, p.options.VariablesFiles)
	if err != nil {
		ce := errors.NewConfigError()
		ce.AppendParseError(err)
		return nil, ce
	}

	if err := p.resolveVariables(ctx, c); err != nil {
		ce := errors.NewConfigError()
		ce.AppendParseError(err)
		return nil, ce
	}

	// process the files and resolve dependencies
	return c, c.process(createCallback(c, p.options.ParseCallback), false)
}

// ParseDirectory parses all resource and variable files in the given
// directory, sub folders are not recursed into, modules must be used to
// include resources from other folders
func (p *Parser) ParseDirectory(dir string) (*Config, error) {
	c := NewConfig()
	ctx := buildContext(dir, p.registeredFunctions)

	err := p.parseDirectory(ctx, dir, c)
	if err != nil {
		ce := errors.NewConfigError()
		ce.AppendParseError(err)
		return nil, ce
	}

	if err := p.resolveVariables(ctx, c); err != nil {
		ce := errors.NewConfigError()
		ce.AppendParseError(err)
		return nil, ce
	}

	// process the files and resolve dependencies
	return c, c.process(createCallback(c, p.options.ParseCallback), false)
}

// internal method
func (p *Parser) parseDirectory(ctx *hcl.EvalContext, dir string, c *Config) error {
	pathInfo, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("directory %s does not exist", dir)
	}

	if !pathInfo.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("unable to list files in directory %s, error: %s", dir, err)
	}

	variablesFiles := p.options.VariablesFiles

	// first collect the vars files
	for _, f := range files {
		fn := filepath.Join(dir, f.Name())

		if !f.IsDir() && strings.HasSuffix(fn, ".vars") {
			variablesFiles = append(variablesFiles, fn)
		}
	}

	for _, f := range files {
		fn := filepath.Join(dir, f.Name())

		if !f.IsDir() && strings.HasSuffix(fn, ".hcl") {
			err := p.parseFile(ctx, fn, c, p.options.Variables, variablesFiles)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// parseFile loads variables and resources from the given file
func (p *Parser) parseFile(
	ctx *hcl.EvalContext,
	file string,
	c *Config,
	variables map[string]string,
	variablesFile []string) error {

	p.log.Debug("parsing file", "file", file)

	// variables must be resolved before anything else as the resources
	// might reference them
	err := p.parseVariablesInFile(ctx, file, c)
	if err != nil {
		return err
	}

	// override default values for variables from files
	for _, vf := range variablesFile {
		err := p.loadVariablesFromFile(ctx, vf)
		if err != nil {
			return err
		}
	}

	// override default values for variables from the environment or the
	// variables map
	p.setVariables(ctx, variables)

	err = p.parseResourcesInFile(ctx, file, c, "", false, []string{})
	if err != nil {
		return err
	}

	return nil
}

// loadVariablesFromFile loads variable values from a file
func (p *Parser) loadVariablesFromFile(ctx *hcl.EvalContext, path string) error {
	parser := hclparse.NewParser()

	f, diag := parser.ParseHCLFile(path)
	if diag.HasErrors() {
		return newParseError(path, diag)
	}

	attrs, _ := f.Body.JustAttributes()
	for name, attr := range attrs {
		val, _ := attr.Expr.Value(ctx)

		setContextVariable(ctx, name, val)
	}

	return nil
}

// setVariables allows variables to be set from a collection or
// environment variables.
// Precedence: parser options override environment, environment overrides
// vars files, vars files override defaults
func (p *Parser) setVariables(ctx *hcl.EvalContext, vars map[string]string) {
	// first any vars defined as environment variables
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, p.options.VariableEnvPrefix) {
			parts := strings.SplitN(e, "=", 2)

			if len(parts) == 2 {
				key := strings.TrimPrefix(parts[0], p.options.VariableEnvPrefix)
				setContextVariable(ctx, key, valueFromString(parts[1]))
			}
		}
	}

	// then set vars
	for k, v := range vars {
		setContextVariable(ctx, k, valueFromString(v))
	}
}

func valueFromString(v string) cty.Value {
	// attempt to parse the string value into a known type
	if val, err := strconv.ParseInt(v, 10, 0); err == nil {
		return cty.NumberIntVal(val)
	}

	if val, err := strconv.ParseBool(v); err == nil {
		return cty.BoolVal(val)
	}

	// otherwise return a string
	return cty.StringVal(v)
}

// parseVariablesInFile parses a manifest file for variable stanzas
func (p *Parser) parseVariablesInFile(ctx *hcl.EvalContext, file string, c *Config) error {
	parser := hclparse.NewParser()

	f, diag := parser.ParseHCLFile(file)
	if diag.HasErrors() {
		return newParseError(file, diag)
	}

	body, ok := f.Body.(*hclsyntax.Body)
	if !ok {
		return fmt.Errorf("unable to read body from file %s", file)
	}

	for _, b := range body.Blocks {
		if b.Type != resources.TypeVariable {
			continue
		}

		if len(b.Labels) != 1 {
			return errors.NewParserError(file, b.TypeRange.Start.Line, b.TypeRange.Start.Column, errors.ParserErrorLevelError,
				`invalid formatting for 'variable' stanza, variables should be formatted 'variable "name" {}'`)
		}

		r, _ := p.registeredTypes.CreateResource(resources.TypeVariable, b.Labels[0])
		v := r.(*resources.Variable)

		v.Metadata().File = file
		v.Metadata().Line = b.TypeRange.Start.Line
		v.Metadata().Column = b.TypeRange.Start.Column

		for name, attr := range b.Body.Attributes {
			switch name {
			case "default":
				val, diag := attr.Expr.Value(ctx)
				if diag.HasErrors() {
					return newParseError(file, diag)
				}

				v.Default = val
				v.HasDefault = true
			case "type":
				gohcl.DecodeExpression(attr.Expr, ctx, &v.Type)
			case "description":
				gohcl.DecodeExpression(attr.Expr, ctx, &v.Description)
			case "sensitive":
				gohcl.DecodeExpression(attr.Expr, ctx, &v.Sensitive)
			}
		}

		err := c.AppendResource(v)
		if err != nil {
			return errors.NewParserError(file, b.TypeRange.Start.Line, b.TypeRange.Start.Column, errors.ParserErrorLevelError, err.Error())
		}

		if v.HasDefault {
			setContextVariableIfMissing(ctx, v.Meta.Name, v.Default)
		}
	}

	return nil
}

// resolveVariables checks that every variable declared in the root module
// has a value, either from a default or an override, and records the
// resolved value on the variable resource
func (p *Parser) resolveVariables(ctx *hcl.EvalContext, c *Config) error {
	vars := map[string]cty.Value{}
	if m, ok := ctx.Variables["variable"]; ok {
		vars = m.AsValueMap()
	}

	for _, r := range c.Resources {
		if r.Metadata().Type != resources.TypeVariable || r.Metadata().Module != "" {
			continue
		}

		v := r.(*resources.Variable)

		val, ok := vars[v.Meta.Name]
		if !ok {
			return UndefinedVariableError{Name: v.Meta.Name, File: v.Meta.File}
		}

		v.Value = castVar(val)

		p.log.Debug("resolved variable", "name", v.Meta.Name, "sensitive", v.Sensitive)
	}

	return nil
}

// parseResourcesInFile parses a manifest file and adds any found
// resources to the config
func (p *Parser) parseResourcesInFile(ctx *hcl.EvalContext, file string, c *Config, moduleName string, disabled bool, dependsOn []string) error {
	parser := hclparse.NewParser()

	f, diag := parser.ParseHCLFile(file)
	if diag.HasErrors() {
		return newParseError(file, diag)
	}

	body, ok := f.Body.(*hclsyntax.Body)
	if !ok {
		return fmt.Errorf("unable to read body from file %s", file)
	}

	for _, b := range body.Blocks {
		// check the resource has a name
		if len(b.Labels) == 0 {
			return errors.NewParserError(file, b.TypeRange.Start.Line, b.TypeRange.Start.Column, errors.ParserErrorLevelError,
				fmt.Sprintf("resource '%s' has no name, please specify resources using the syntax 'resource_type \"name\" {}'", b.Type))
		}

		// variables are processed in a separate run
		switch b.Type {
		case resources.TypeVariable:
			continue
		case resources.TypeModule:
			err := p.parseModule(ctx, c, file, b, moduleName, dependsOn)
			if err != nil {
				return err
			}
		case resources.TypeOutput:
			fallthrough
		case resources.TypeLocal:
			fallthrough
		case types.TypeResource:
			err := p.parseResource(ctx, c, file, b, moduleName, dependsOn, disabled)
			if err != nil {
				return err
			}
		default:
			return errors.NewParserError(file, b.Range().Start.Line, b.Range().Start.Column, errors.ParserErrorLevelError,
				fmt.Sprintf("unable to process stanza '%s', only 'variable', 'resource', 'module', 'output', and 'local' are valid stanza blocks", b.Type))
		}
	}

	return nil
}

func setDisabled(ctx *hcl.EvalContext, r types.Resource, b *hclsyntax.Body, parentDisabled bool) error {
	if b == nil {
		return nil
	}

	if parentDisabled {
		r.SetDisabled(true)
		return nil
	}

	if attr, ok := b.Attributes["disabled"]; ok {
		disabled, diags := attr.Expr.Value(ctx)
		if diags.HasErrors() {
			// the value may reference an unprocessed resource, it is
			// evaluated again when the graph is walked
			return nil
		}

		if disabled.Type() == cty.Bool {
			r.SetDisabled(disabled.True())
		}
	}

	return nil
}

func setDependsOn(ctx *hcl.EvalContext, r types.Resource, b *hclsyntax.Body, dependsOn []string) error {
	r.SetDependencies(dependsOn)

	if attr, ok := b.Attributes["depends_on"]; ok {
		dependsOnVal, diags := attr.Expr.Value(ctx)
		if diags.HasErrors() {
			return fmt.Errorf("unable to read depends_on attribute: %s", diags.Error())
		}

		// depends_on is a list of string
		for _, d := range dependsOnVal.AsValueSlice() {
			_, err := types.ParseFQRN(d.AsString())
			if err != nil {
				return fmt.Errorf("invalid dependency %s, %s", d.AsString(), err)
			}

			r.AddDependency(d.AsString())
		}
	}

	return nil
}

func (p *Parser) parseModule(ctx *hcl.EvalContext, c *Config, file string, b *hclsyntax.Block, moduleName string, dependsOn []string) error {
	// check the module has a name
	if len(b.Labels) != 1 {
		return errors.NewParserError(file, b.TypeRange.Start.Line, b.TypeRange.Start.Column, errors.ParserErrorLevelError,
			`invalid syntax for 'module' stanza, modules should be formatted 'module "name" {}'`)
	}

	name := b.Labels[0]
	if err := validateResourceName(name); err != nil {
		return errors.NewParserError(file, b.TypeRange.Start.Line, b.TypeRange.Start.Column, errors.ParserErrorLevelError, err.Error())
	}

	rt, _ := p.registeredTypes.CreateResource(resources.TypeModule, name)

	rt.Metadata().Module = moduleName
	rt.Metadata().File = file
	rt.Metadata().Line = b.TypeRange.Start.Line
	rt.Metadata().Column = b.TypeRange.Start.Column

	err := decodeBody(ctx, file, b, rt)
	if err != nil {
		return fmt.Errorf("error parsing module '%s' in file %s: %s", name, file, err)
	}

	setDisabled(ctx, rt, b.Body, false)

	err = setDependsOn(ctx, rt, b.Body, dependsOn)
	if err != nil {
		return errors.NewParserError(file, b.TypeRange.Start.Line, b.TypeRange.Start.Column, errors.ParserErrorLevelError, err.Error())
	}

	// the source files have to be fetched before the child resources can
	// be processed, "source" is an attribute of the module stanza but it
	// has to be read manually
	srcAttr, ok := b.Body.Attributes["source"]
	if !ok {
		return errors.NewParserError(file, b.TypeRange.Start.Line, b.TypeRange.Start.Column, errors.ParserErrorLevelError,
			fmt.Sprintf(`module "%s" does not define the required attribute "source"`, name))
	}

	src, diags := srcAttr.Expr.Value(ctx)
	if diags.HasErrors() {
		return fmt.Errorf("unable to read source from module: %s", diags.Error())
	}

	// src could be a remote module or a relative folder,
	// check if it is a folder relative to the current file first
	dir := path.Dir(file)
	moduleSrc := path.Join(dir, src.AsString())

	fi, err := os.Stat(moduleSrc)
	if err != nil || !fi.IsDir() {
		// not a local directory, fetch from the remote source
		gg := NewGoGetter()

		p.log.Info("fetching module", "name", name, "source", src.AsString())

		mp, err := gg.Get(src.AsString(), p.options.ModuleCache, false)
		if err != nil {
			return errors.NewParserError(file, b.TypeRange.Start.Line, b.TypeRange.Start.Column, errors.ParserErrorLevelError,
				fmt.Sprintf(`unable to fetch remote module "%s": %s`, src.AsString(), err))
		}

		moduleSrc = mp
	}

	// create a new config and add the resources later
	moduleConfig := NewConfig()

	// modules have their own context so that variables are not globally
	// scoped
	subContext := buildContext(moduleSrc, p.registeredFunctions)

	err = p.parseDirectory(subContext, moduleSrc, moduleConfig)
	if err != nil {
		return err
	}

	rt.(*resources.Module).SubContext = subContext

	// add the module
	err = c.addResource(rt, ctx, b.Body)
	if err != nil {
		return errors.NewParserError(file, b.TypeRange.Start.Line, b.TypeRange.Start.Column, errors.ParserErrorLevelError,
			fmt.Sprintf(`unable to add module "%s" to config: %s`, name, err))
	}

	// the module name is prefixed to all the resources loaded from the
	// module source
	for _, r := range moduleConfig.Resources {
		r.Metadata().Module = fmt.Sprintf("%s.%s", name, r.Metadata().Module)
		r.Metadata().Module = strings.TrimSuffix(r.Metadata().Module, ".")

		subCtx, err := moduleConfig.getContext(r)
		if err != nil {
			panic("no context found for resource")
		}

		bdy, err := moduleConfig.getBody(r)
		if err != nil {
			panic("no body found for resource")
		}

		setDisabled(subCtx, r, bdy, rt.GetDisabled())

		c.addResource(r, subCtx, bdy)
	}

	return nil
}

func (p *Parser) parseResource(ctx *hcl.EvalContext, c *Config, file string, b *hclsyntax.Block, moduleName string, dependsOn []string, disabled bool) error {
	var rt types.Resource
	var err error

	switch b.Type {
	case types.TypeResource:
		// resource stanzas have two labels, the type and the name
		if len(b.Labels) != 2 {
			return errors.NewParserError(file, b.TypeRange.Start.Line, b.TypeRange.Start.Column, errors.ParserErrorLevelError,
				`invalid formatting for 'resource' stanza, resources should have a type and a name, i.e. 'resource "type" "name" {}'`)
		}

		name := b.Labels[1]
		if err := validateResourceName(name); err != nil {
			return errors.NewParserError(file, b.TypeRange.Start.Line, b.TypeRange.Start.Column, errors.ParserErrorLevelError, err.Error())
		}

		rt, err = p.registeredTypes.CreateResource(b.Labels[0], name)
		if err != nil {
			return ResourceTypeNotExistError{Type: b.Labels[0], File: file}
		}
	case resources.TypeOutput:
		fallthrough
	case resources.TypeLocal:
		// output and local stanzas have a single label, the name
		if len(b.Labels) != 1 {
			return errors.NewParserError(file, b.TypeRange.Start.Line, b.TypeRange.Start.Column, errors.ParserErrorLevelError,
				fmt.Sprintf(`invalid formatting for '%s' stanza, i.e. '%s "name" {}'`, b.Type, b.Type))
		}

		name := b.Labels[0]
		if err := validateResourceName(name); err != nil {
			return errors.NewParserError(file, b.TypeRange.Start.Line, b.TypeRange.Start.Column, errors.ParserErrorLevelError, err.Error())
		}

		rt, err = p.registeredTypes.CreateResource(b.Type, name)
		if err != nil {
			return errors.NewParserError(file, b.TypeRange.Start.Line, b.TypeRange.Start.Column, errors.ParserErrorLevelError,
				fmt.Sprintf(`unable to create %s, this error should never happen: %s`, b.Type, err))
		}
	}

	rt.Metadata().Module = moduleName
	rt.Metadata().File = file
	rt.Metadata().Line = b.TypeRange.Start.Line
	rt.Metadata().Column = b.TypeRange.Start.Column

	err = decodeBody(ctx, file, b, rt)
	if err != nil {
		return fmt.Errorf("error parsing resource '%s' in file %s: %s", strings.Join(b.Labels, "."), file, err)
	}

	// disabled is a property of the embedded type, it has to be set
	// manually
	setDisabled(ctx, rt, b.Body, disabled)

	// depends_on is also a property of the embedded type
	err = setDependsOn(ctx, rt, b.Body, dependsOn)
	if err != nil {
		return errors.NewParserError(file, b.TypeRange.Start.Line, b.TypeRange.Start.Column, errors.ParserErrorLevelError,
			fmt.Sprintf(`unable to set depends_on: %s`, err))
	}

	// if the resource implements the Parsable interface call the resource
	// parse method
	if pr, ok := rt.(types.Parsable); ok {
		err := pr.Parse()
		if err != nil {
			return errors.NewParserError(file, b.TypeRange.Start.Line, b.TypeRange.Start.Column, errors.ParserErrorLevelError,
				fmt.Sprintf(`error parsing resource "%s": %s`, types.FQRNFromResource(rt).String(), err))
		}
	}

	rt.Metadata().Checksum.Parsed = generateChecksum(rt)

	err = c.addResource(rt, ctx, b.Body)
	if err != nil {
		return errors.NewParserError(file, b.TypeRange.Start.Line, b.TypeRange.Start.Column, errors.ParserErrorLevelError,
			fmt.Sprintf(`unable to add resource "%s" to config: %s`, types.FQRNFromResource(rt).String(), err))
	}

	return nil
}

// newParseError converts hcl diagnostics into a ParserError located at
// the first diagnostic
func newParseError(file string, diags hcl.Diagnostics) error {
	line := 0
	column := 0

	if len(diags) > 0 && diags[0].Subject != nil {
		line = diags[0].Subject.Start.Line
		column = diags[0].Subject.Start.Column
	}

	return errors.NewParserError(file, line, column, errors.ParserErrorLevelError, diags.Error())
}

func setContextVariableIfMissing(ctx *hcl.EvalContext, key string, value cty.Value) {
	if m, ok := ctx.Variables["variable"]; ok {
		if _, ok := m.AsValueMap()[key]; ok {
			return
		}
	}

	setContextVariable(ctx, key, value)
}

func setContextVariable(ctx *hcl.EvalContext, key string, value cty.Value) {
	valMap := map[string]cty.Value{}

	// get the existing map
	if m, ok := ctx.Variables["variable"]; ok {
		valMap = m.AsValueMap()
	}

	valMap[key] = value

	// values are registered under both roots so that manifests can use the
	// short form "var.name" as well as "variable.name"
	ctx.Variables["variable"] = cty.ObjectVal(valMap)
	ctx.Variables["var"] = ctx.Variables["variable"]
}

// setContextVariableFromPath sets a context variable using a nested
// structure based on the given path, creating any child maps needed to
// satisfy the path.
// i.e "resource.network.main" set to "true" would return
// ctx.Variables["resource"].AsValueMap()["network"].AsValueMap()["main"].True() = true
func setContextVariableFromPath(ctx *hcl.EvalContext, path string, value cty.Value) error {
	ul := getContextLock(ctx)
	defer ul()

	pathParts := strings.Split(path, ".")

	var err error
	ctx.Variables, err = setMapVariableFromPath(ctx.Variables, pathParts, value)

	return err
}

func setMapVariableFromPath(root map[string]cty.Value, path []string, value cty.Value) (map[string]cty.Value, error) {
	// it is possible for root to be nil, ensure this is set to an empty map
	if root == nil {
		root = map[string]cty.Value{}
	}

	// get the name and the index from the path
	name, index, rPath, err := getNameAndIndex(path)
	if err != nil {
		return nil, err
	}

	// do we have a node at this path, if not it needs to be created,
	// nodes can either be a map or a list of maps
	val, ok := root[name]
	if !ok {
		if index >= 0 {
			// create a list with the correct length
			vals := make([]cty.Value, index+1)

			val = cty.ListVal(vals)
		} else {
			// create a map node
			val = cty.ObjectVal(map[string]cty.Value{".keep": cty.BoolVal(true)})
		}
	}

	if index >= 0 {
		// with an index the list variable has to be set for the map at
		// that index, the other elements in the map are set recursively
		updated, err := setListVariableFromPath(val.AsValueSlice(), rPath, index, value)
		if err != nil {
			return nil, err
		}

		root[name] = cty.ListVal(updated)
	} else {
		// if this is the end of the line set the value and return
		if len(rPath) == 0 {
			root[name] = value
			return root, nil
		}

		// we are setting a map, recurse
		updated, err := setMapVariableFromPath(val.AsValueMap(), rPath, value)
		if err != nil {
			return nil, err
		}

		root[name] = cty.ObjectVal(updated)
	}

	return root, nil
}

func setListVariableFromPath(root []cty.Value, path []string, index int, value cty.Value) ([]cty.Value, error) {
	// we have a node but do we need to expand it in size?
	if index >= len(root) {
		root = append(root, make([]cty.Value, index+1-len(root))...)
	}

	var setVal cty.Value
	if len(path) > 0 {
		val := root[index]
		if val.IsNull() {
			val = cty.ObjectVal(map[string]cty.Value{".keep": cty.BoolVal(true)})
		}

		updated, err := setMapVariableFromPath(val.AsValueMap(), path, value)
		if err != nil {
			return nil, err
		}

		setVal = cty.ObjectVal(updated)
	} else {
		setVal = value
	}

	// check the type of the collection, setting a type that is
	// inconsistent with the other types in the collection is an error
	if len(root) > 0 {
		if root[0].Type() != cty.NilType && root[0].Type().FriendlyName() != setVal.Type().FriendlyName() {
			return nil, fmt.Errorf("lists must contain similar types, you have tried to set a %s, to a list of type %s", value.Type().FriendlyName(), root[0].Type().FriendlyName())
		}
	}

	root[index] = setVal

	// build a unique list of keys and types, if the node contains a list
	// of maps
	ul := map[string]cty.Type{}
	for _, m := range root {
		if m.Type().IsObjectType() || m.Type().IsMapType() {
			for k, v := range m.AsValueMap() {
				ul[k] = v.Type()
			}
		}
	}

	if len(ul) == 0 {
		return root, nil
	}

	// normalize the map collection as cty does not allow inconsistent
	// map keys
	for k, v := range ul {
		for i, m := range root {
			if m.IsNull() {
				continue
			}

			if _, ok := m.AsValueMap()[k]; !ok {
				val := root[i].AsValueMap()
				val[k] = cty.NullVal(v)
				root[i] = cty.ObjectVal(val)
			}
		}
	}

	return root, nil
}

// gets the name of the path and the index
// if path[0] == foo     and path[1] = bar[0] returns foo, -1, nil
// if path[0] == bar[0]  and path[1] = biz    returns bar, 0, nil
// if path[0] == foo     and path[1] = 0      returns foo, 0, nil
// if path[0] == foo     and path[1] = bar    returns foo, -1, nil
// if path[0] == foo     and path[1] = nil    returns foo, -1, nil
func getNameAndIndex(path []string) (name string, index int, remainingPath []string, err error) {
	index = -1

	// is the path an array with brackets
	rg := regexp.MustCompile(`(.*)\[(.+)\]`)
	if sm := rg.FindStringSubmatch(path[0]); len(sm) == 3 {
		name = sm[1]

		var convErr error
		index, convErr = strconv.Atoi(sm[2])
		if convErr != nil {
			return "", -1, nil, fmt.Errorf("index %s is not a number", sm[2])
		}

		return name, index, path[1:], nil
	}

	// is the path a number using the . notation for an index
	if len(path) > 1 {
		index, convErr := strconv.Atoi(path[1])
		if convErr == nil {
			return path[0], index, path[2:], nil
		}
	}

	// normal path item
	return path[0], -1, path[1:], nil
}

func buildContext(filePath string, customFunctions map[string]function.Function) *hcl.EvalContext {
	ctx := &hcl.EvalContext{
		Functions: map[string]function.Function{},
		Variables: map[string]cty.Value{},
	}

	ctx.Variables["resource"] = cty.ObjectVal(map[string]cty.Value{})

	ctx.Functions = getDefaultFunctions(filePath)

	// add the custom functions
	for k, v := range customFunctions {
		ctx.Functions[k] = v
	}

	return ctx
}

// decodeBody records the references to other resources found in the body,
// the body itself is lazily decoded when the graph is walked and the
// referenced values are known
func decodeBody(ctx *hcl.EvalContext, file string, b *hclsyntax.Block, p types.Resource) error {
	dr, err := getDependentResources(b, ctx, p, "")
	if err != nil {
		return err
	}

	// filter the list so the references are unique
	uniqueResources := []string{}
	for _, v := range dr {
		found := false
		for _, r := range uniqueResources {
			if r == v {
				found = true
				break
			}
		}

		if !found {
			uniqueResources = append(uniqueResources, v)
		}
	}

	p.Metadata().Links = uniqueResources

	return nil
}

// getDependentResources recursively checks the attributes and blocks of
// the resource body to identify links to other resources,
// i.e. resource.network.main.id, the links are resolved before the body
// is decoded
func getDependentResources(b *hclsyntax.Block, ctx *hcl.EvalContext, resource interface{}, path string) ([]string, error) {
	references := []string{}

	for _, a := range b.Body.Attributes {
		refs, err := processExpr(a.Expr)
		if err != nil {
			return nil, err
		}

		references = append(references, refs...)
	}

	// a count is kept of the nested blocks of each type so that the
	// reference path contains the index of the block
	blockIndex := map[string]int{}
	for _, b := range b.Body.Blocks {
		if _, ok := blockIndex[b.Type]; ok {
			blockIndex[b.Type]++
		} else {
			blockIndex[b.Type] = 0
		}

		ref := fmt.Sprintf("%s.%s[%d]", path, b.Type, blockIndex[b.Type])
		ref = strings.TrimPrefix(ref, ".")
		cr, err := getDependentResources(b, ctx, resource, ref)
		if err != nil {
			return nil, err
		}

		references = append(references, cr...)
	}

	return references, nil
}

// processExpr extracts the references to other resources from an
// expression, expressions can be nested so the result is a list
// examples:
// something = resource.mine.attr
// something = resource.mine.array.0.attr
// something = env(resource.mine.attr)
// something = "testing/${resource.mine.attr}"
// something = "testing/${env(resource.mine.attr)}"
func processExpr(expr hclsyntax.Expression) ([]string, error) {
	references := []string{}

	switch e := expr.(type) {
	case *hclsyntax.TemplateExpr:
		// a template is a mix of functions, scope expressions and
		// literals, check each part
		for _, v := range e.Parts {
			res, err := processExpr(v)
			if err != nil {
				return nil, err
			}

			references = append(references, res...)
		}
	case *hclsyntax.FunctionCallExpr:
		// a function can contain args that may also have an expression
		for _, v := range e.Args {
			res, err := processExpr(v)
			if err != nil {
				return nil, err
			}

			references = append(references, res...)
		}
	case *hclsyntax.ScopeTraversalExpr:
		ref, err := processScopeTraversal(e)
		if err != nil {
			return nil, err
		}

		// only add if a resource has been returned
		if ref != "" {
			references = append(references, ref)
		}
	case *hclsyntax.ObjectConsExpr:
		for _, v := range e.Items {
			res, err := processExpr(v.ValueExpr)
			if err != nil {
				return nil, err
			}

			references = append(references, res...)
		}
	case *hclsyntax.TupleConsExpr:
		for _, v := range e.Exprs {
			res, err := processExpr(v)
			if err != nil {
				return nil, err
			}

			references = append(references, res...)
		}
	case *hclsyntax.ConditionalExpr:
		for _, v := range []hclsyntax.Expression{e.Condition, e.TrueResult, e.FalseResult} {
			res, err := processExpr(v)
			if err != nil {
				return nil, err
			}

			references = append(references, res...)
		}
	case *hclsyntax.BinaryOpExpr:
		for _, v := range []hclsyntax.Expression{e.LHS, e.RHS} {
			res, err := processExpr(v)
			if err != nil {
				return nil, err
			}

			references = append(references, res...)
		}
	}

	return references, nil
}

func processScopeTraversal(expr *hclsyntax.ScopeTraversalExpr) (string, error) {
	strExpression := ""
	for i, t := range expr.Traversal {
		if i == 0 {
			strExpression += t.(hcl.TraverseRoot).Name

			// if this is not a resource reference quit
			if strExpression != "resource" && strExpression != "module" &&
				strExpression != "output" && strExpression != "local" {
				return "", nil
			}
		} else {
			switch tt := t.(type) {
			case hcl.TraverseAttr:
				strExpression += "." + tt.Name
			case hcl.TraverseIndex:
				strExpression += "[" + tt.Key.AsBigFloat().String() + "]"
			}
		}
	}

	// the reference is resolved and set on the context before the body
	// of the dependent resource is decoded
	return strExpression, nil
}

// ensureAbsolute ensures that the given path is either absolute, or
// if relative is converted to absolute based on the path of the config
func ensureAbsolute(path, file string) string {
	// if the file starts with a / and we are on windows
	// we should treat this as absolute
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") {
		return filepath.Clean(path)
	}

	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}

	// path is relative so make absolute using the current file path as base
	file, _ = filepath.Abs(file)

	baseDir := file
	// if the basepath is a file, use its directory
	s, err := os.Stat(file)
	if err == nil && !s.IsDir() {
		baseDir = filepath.Dir(file)
	}

	fp := filepath.Join(baseDir, path)

	return filepath.Clean(fp)
}

func validateResourceName(name string) error {
	if name == "resource" || name == "module" || name == "output" || name == "variable" || name == "local" {
		return fmt.Errorf("invalid resource name %s, resources can not use the reserved names [resource, module, output, variable, local]", name)
	}

	invalidChars := `^[0-9]*$`
	r := regexp.MustCompile(invalidChars)
	if r.MatchString(name) {
		return fmt.Errorf("invalid resource name %s, resources can not be given a numeric identifier", name)
	}

	invalidChars = `[^0-9a-zA-Z_-]`
	r = regexp.MustCompile(invalidChars)
	if r.MatchString(name) {
		return fmt.Errorf("invalid resource name %s, resources can only contain the characters 0-9 a-z A-Z _ -", name)
	}

	return nil
}
