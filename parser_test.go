package stackform

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stackform-io/stackform/errors"
	"github.com/stackform-io/stackform/logger"
	"github.com/stackform-io/stackform/resources"
	"github.com/stackform-io/stackform/types"
	"github.com/stretchr/testify/require"
)

func setupParser(t *testing.T, options ...*ParserOptions) *Parser {
	o := DefaultOptions()
	if len(options) > 0 {
		o = options[0]
	}

	o.Logger = logger.NewTestLogger(t)

	return NewParser(o)
}

func TestNewParserWithOptions(t *testing.T) {
	options := ParserOptions{
		Variables:      map[string]string{"foo": "bar"},
		VariablesFiles: []string{"./myfile.vars"},
		ModuleCache:    "./modules",
	}

	p := NewParser(&options)
	require.NotNil(t, p)

	require.Equal(t, "bar", p.options.Variables["foo"])
	require.Equal(t, "./myfile.vars", p.options.VariablesFiles[0])
	require.Equal(t, "./modules", p.options.ModuleCache)
}

func TestParseFileProcessesResources(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/simple/network.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	c, err := p.ParseFile(f)
	require.NoError(t, err)

	r, err := c.FindResource("resource.network.onprem")
	require.NoError(t, err)
	require.NotNil(t, r)

	net := r.(*resources.Network)
	require.Equal(t, "onprem", net.Meta.Name)
	require.Equal(t, f, net.Meta.File)
	require.Equal(t, "10.1.0.0/16", net.CIDRBlock)
	require.Equal(t, "onprem", net.Tags["Name"])
}

func TestParseFileSetsLinks(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/simple/network.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	c, err := p.ParseFile(f)
	require.NoError(t, err)

	r, err := c.FindResource("resource.subnet.app")
	require.NoError(t, err)

	require.Contains(t, r.Metadata().Links, "resource.network.onprem.id")
}

func TestParseFileEvaluatesFunctions(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/simple/network.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	c, err := p.ParseFile(f)
	require.NoError(t, err)

	r, err := c.FindResource("resource.subnet.app")
	require.NoError(t, err)

	// cidrsubnet("10.1.0.0/16", 8, 0)
	require.Equal(t, "10.1.0.0/24", r.(*resources.Subnet).CIDRBlock)
}

func TestParseFileInterpolatesVariables(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/stack/stack.hcl")
	require.NoError(t, err)

	o := DefaultOptions()
	o.Variables = map[string]string{"candidato": "Test"}

	p := setupParser(t, o)

	c, err := p.ParseFile(f)
	require.NoError(t, err)

	r, err := c.FindResource("resource.subnet.public")
	require.NoError(t, err)

	require.Equal(t, "VExpenses-Test-subnet", r.(*resources.Subnet).Tags["Name"])
}

func TestVariablesResolveUnderBothRoots(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/var_roots/var_roots.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	c, err := p.ParseFile(f)
	require.NoError(t, err)

	r, err := c.FindResource("resource.network.short")
	require.NoError(t, err)
	require.Equal(t, "core-net", r.(*resources.Network).Tags["Name"])

	r, err = c.FindResource("resource.network.long")
	require.NoError(t, err)
	require.Equal(t, "core-net", r.(*resources.Network).Tags["Name"])
}

func TestVariableDefaultsAreUsedWhenNotSet(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/stack/stack.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	c, err := p.ParseFile(f)
	require.NoError(t, err)

	r, err := c.FindResource("resource.subnet.public")
	require.NoError(t, err)

	require.Equal(t, "VExpenses-SeuNome-subnet", r.(*resources.Subnet).Tags["Name"])
}

func TestVariablesFilesOverrideDefaults(t *testing.T) {
	dir, err := filepath.Abs("./test_fixtures/stack")
	require.NoError(t, err)

	o := DefaultOptions()
	o.VariablesFiles = []string{filepath.Join(dir, "vars", "override.vars")}

	p := setupParser(t, o)

	c, err := p.ParseFile(filepath.Join(dir, "stack.hcl"))
	require.NoError(t, err)

	r, err := c.FindResource("resource.subnet.public")
	require.NoError(t, err)

	require.Equal(t, "VExpenses-FromFile-subnet", r.(*resources.Subnet).Tags["Name"])
}

func TestEnvironmentVariablesOverrideFiles(t *testing.T) {
	dir, err := filepath.Abs("./test_fixtures/stack")
	require.NoError(t, err)

	os.Setenv("SF_VAR_candidato", "FromEnv")
	t.Cleanup(func() {
		os.Unsetenv("SF_VAR_candidato")
	})

	o := DefaultOptions()
	o.VariablesFiles = []string{filepath.Join(dir, "vars", "override.vars")}

	p := setupParser(t, o)

	c, err := p.ParseFile(filepath.Join(dir, "stack.hcl"))
	require.NoError(t, err)

	r, err := c.FindResource("resource.subnet.public")
	require.NoError(t, err)

	require.Equal(t, "VExpenses-FromEnv-subnet", r.(*resources.Subnet).Tags["Name"])
}

func TestOptionVariablesOverrideEnvironment(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/stack/stack.hcl")
	require.NoError(t, err)

	os.Setenv("SF_VAR_candidato", "FromEnv")
	t.Cleanup(func() {
		os.Unsetenv("SF_VAR_candidato")
	})

	o := DefaultOptions()
	o.Variables = map[string]string{"candidato": "FromMap"}

	p := setupParser(t, o)

	c, err := p.ParseFile(f)
	require.NoError(t, err)

	r, err := c.FindResource("resource.subnet.public")
	require.NoError(t, err)

	require.Equal(t, "VExpenses-FromMap-subnet", r.(*resources.Subnet).Tags["Name"])
}

func TestParseResolvesVariableValues(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/stack/stack.hcl")
	require.NoError(t, err)

	o := DefaultOptions()
	o.Variables = map[string]string{"candidato": "Test"}

	p := setupParser(t, o)

	c, err := p.ParseFile(f)
	require.NoError(t, err)

	r, err := c.FindResource("variable.candidato")
	require.NoError(t, err)

	v := r.(*resources.Variable)
	require.Equal(t, "Test", v.Value)
}

func TestParseFailsWhenVariableHasNoValue(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/invalid/undefined_variable.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	_, err = p.ParseFile(f)
	require.Error(t, err)
	require.Contains(t, err.Error(), "variable region")
	require.Contains(t, err.Error(), "no default value")
}

func TestParseFailsOnUnknownResourceType(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/invalid/unknown_type.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	_, err = p.ParseFile(f)
	require.Error(t, err)
	require.Contains(t, err.Error(), "resource type volcano")
}

func TestParseFailsOnDuplicateResource(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/invalid/duplicate.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	_, err = p.ParseFile(f)
	require.Error(t, err)

	// the rendered error is wordwrapped so assert on single words that can
	// not be split across lines
	require.Contains(t, err.Error(), "exists")
	require.Contains(t, err.Error(), "resource.network.main")
}

func TestParseFailsOnInvalidResourceName(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/invalid/bad_name.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	_, err = p.ParseFile(f)
	require.Error(t, err)
}

func TestParseFailsOnMissingReference(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/invalid/missing_reference.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	_, err = p.ParseFile(f)
	require.Error(t, err)
	require.Contains(t, err.Error(), "resource.network.missing")
}

func TestParseFailsOnMissingRequiredArgument(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/invalid/missing_argument.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	_, err = p.ParseFile(f)
	require.Error(t, err)

	ce, ok := err.(*errors.ConfigError)
	require.True(t, ok)
	require.NotEmpty(t, ce.ProcessErrors)
}

func TestParseFailsOnUnrestrictedSSHIngress(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/invalid/open_ssh.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	_, err = p.ParseFile(f)
	require.Error(t, err)
	require.Contains(t, err.Error(), "SSH")
}

func TestParseSkipsDisabledResources(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/disabled/disabled.hcl")
	require.NoError(t, err)

	calls := []string{}
	m := sync.Mutex{}

	o := DefaultOptions()
	o.ParseCallback = func(r types.Resource) error {
		m.Lock()
		defer m.Unlock()

		calls = append(calls, types.FQRNFromResource(r).String())
		return nil
	}

	p := setupParser(t, o)

	c, err := p.ParseFile(f)
	require.NoError(t, err)

	r, err := c.FindResource("resource.network.standby")
	require.NoError(t, err)
	require.True(t, r.GetDisabled())

	require.Contains(t, calls, "resource.network.active")
	require.NotContains(t, calls, "resource.network.standby")
}

func TestParseProcessesResourcesInDependencyOrder(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/stack/stack.hcl")
	require.NoError(t, err)

	calls := []string{}
	m := sync.Mutex{}

	o := DefaultOptions()
	o.ParseCallback = func(r types.Resource) error {
		m.Lock()
		defer m.Unlock()

		calls = append(calls, types.FQRNFromResource(r).String())
		return nil
	}

	p := setupParser(t, o)

	_, err = p.ParseFile(f)
	require.NoError(t, err)

	require.Less(t,
		indexOf(t, calls, "resource.network.main"),
		indexOf(t, calls, "resource.subnet.public"),
	)

	require.Less(t,
		indexOf(t, calls, "resource.subnet.public"),
		indexOf(t, calls, "resource.instance.debian"),
	)

	require.Less(t,
		indexOf(t, calls, "resource.gateway.main"),
		indexOf(t, calls, "resource.route_table.public"),
	)

	require.Less(t,
		indexOf(t, calls, "resource.key_pair.main"),
		indexOf(t, calls, "resource.instance.debian"),
	)
}

func indexOf(t *testing.T, list []string, item string) int {
	for i, v := range list {
		if v == item {
			return i
		}
	}

	t.Fatalf("%s not found in %v", item, list)
	return -1
}

func TestParseSetsOutputsAndLocals(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/simple/network.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	c, err := p.ParseFile(f)
	require.NoError(t, err)

	r, err := c.FindResource("output.network_cidr")
	require.NoError(t, err)
	require.Equal(t, "10.1.0.0/16", r.(*resources.Output).Value)

	r, err = c.FindResource("local.subnet_name")
	require.NoError(t, err)
	require.Equal(t, "app-subnet", r.(*resources.Local).Value)
}

func TestParseMarksSensitiveOutputs(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/stack/stack.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	c, err := p.ParseFile(f)
	require.NoError(t, err)

	r, err := c.FindResource("output.private_key")
	require.NoError(t, err)
	require.True(t, r.(*resources.Output).Sensitive)
}

func TestParseDirectoryLoadsAllFiles(t *testing.T) {
	dir, err := filepath.Abs("./test_fixtures/stack")
	require.NoError(t, err)

	p := setupParser(t)

	c, err := p.ParseDirectory(dir)
	require.NoError(t, err)

	r, err := c.FindResource("resource.instance.debian")
	require.NoError(t, err)
	require.NotNil(t, r)
}

func TestParseModuleCreatesNamespacedResources(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/modules/infra.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	c, err := p.ParseFile(f)
	require.NoError(t, err)

	r, err := c.FindResource("module.vpc.resource.network.main")
	require.NoError(t, err)

	net := r.(*resources.Network)
	require.Equal(t, "vpc", net.Meta.Module)
	require.Equal(t, "10.2.0.0/16", net.CIDRBlock)
	require.Equal(t, "staging-vpc", net.Tags["Name"])
}

func TestParseModuleResolvesOutputs(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/modules/infra.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	c, err := p.ParseFile(f)
	require.NoError(t, err)

	r, err := c.FindResource("output.vpc_cidr")
	require.NoError(t, err)
	require.Equal(t, "10.2.0.0/16", r.(*resources.Output).Value)
}

func TestParseRendersTemplates(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/functions/functions.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	c, err := p.ParseFile(f)
	require.NoError(t, err)

	r, err := c.FindResource("resource.instance.web")
	require.NoError(t, err)

	inst := r.(*resources.Instance)
	require.Contains(t, inst.UserData, "hello from stackform")
	require.Contains(t, inst.UserData, "apt-get install -y nginx")
	require.Contains(t, inst.UserData, "apt-get install -y curl")
}

func TestParseEvaluatesCollectionFunctions(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/functions/functions.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	c, err := p.ParseFile(f)
	require.NoError(t, err)

	r, err := c.FindResource("output.package_count")
	require.NoError(t, err)
	require.Equal(t, float64(2), r.(*resources.Output).Value)

	r, err = c.FindResource("output.first_package")
	require.NoError(t, err)
	require.Equal(t, "nginx", r.(*resources.Output).Value)
}

func TestParseSetsChecksums(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/simple/network.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	c, err := p.ParseFile(f)
	require.NoError(t, err)

	r, err := c.FindResource("resource.network.onprem")
	require.NoError(t, err)

	require.NotEmpty(t, r.Metadata().Checksum.Parsed)
	require.NotEmpty(t, r.Metadata().Checksum.Processed)
}

func TestChecksumsAreStableBetweenRuns(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/stack/stack.hcl")
	require.NoError(t, err)

	c1, err := setupParser(t).ParseFile(f)
	require.NoError(t, err)

	c2, err := setupParser(t).ParseFile(f)
	require.NoError(t, err)

	for _, r1 := range c1.Resources {
		if r1.Metadata().Type == types.TypeVariable {
			continue
		}

		r2, err := c2.FindResource(r1.Metadata().ID)
		require.NoError(t, err)

		require.Equal(t,
			r1.Metadata().Checksum.Processed,
			r2.Metadata().Checksum.Processed,
			"checksum mismatch for %s", r1.Metadata().ID,
		)
	}
}

func TestRegisterFunctionIsUsable(t *testing.T) {
	p := setupParser(t)

	err := p.RegisterFunction("double", func(in int) int {
		return in * 2
	})
	require.NoError(t, err)

	require.Contains(t, p.registeredFunctions, "double")
}
