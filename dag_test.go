package stackform

import (
	"path/filepath"
	"testing"

	"github.com/stackform-io/stackform/resources"
	"github.com/stretchr/testify/require"
)

func TestParseFailsOnDependencyCycle(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/invalid/cycle.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	_, err = p.ParseFile(f)
	require.Error(t, err)
	require.Contains(t, err.Error(), "dependency cycle")
}

func TestBuildGraphAddsDependencyEdges(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/stack/stack.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	c, err := p.ParseFile(f)
	require.NoError(t, err)

	r, err := c.FindResource("resource.subnet.public")
	require.NoError(t, err)

	deps := r.GetDependencies()
	require.Contains(t, deps, "resource.network.main.id")

	g, err := buildGraph(c)
	require.NoError(t, err)
	require.NotNil(t, g)
}

func TestBuildGraphFailsOnMissingDependency(t *testing.T) {
	c := NewConfig()

	s := &resources.Subnet{}
	s.Meta.Name = "orphan"
	s.Meta.Type = resources.TypeSubnet
	s.AddDependency("resource.network.missing.id")

	err := c.AppendResource(s)
	require.NoError(t, err)

	_, err = buildGraph(c)
	require.Error(t, err)
	require.Contains(t, err.Error(), "resource.network.missing")
}
