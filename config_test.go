package stackform

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stackform-io/stackform/resources"
	"github.com/stackform-io/stackform/types"
	"github.com/stretchr/testify/require"
)

func testNetwork(t *testing.T, name, module string) *resources.Network {
	n := &resources.Network{CIDRBlock: "10.0.0.0/16"}
	n.Meta.Name = name
	n.Meta.Type = resources.TypeNetwork
	n.Meta.Module = module

	return n
}

func TestFindResourceReturnsResource(t *testing.T) {
	c := NewConfig()

	n := testNetwork(t, "main", "")
	require.NoError(t, c.AppendResource(n))

	r, err := c.FindResource("resource.network.main")
	require.NoError(t, err)
	require.Equal(t, n, r)
}

func TestFindResourceReturnsNotFoundError(t *testing.T) {
	c := NewConfig()

	_, err := c.FindResource("resource.network.missing")
	require.Error(t, err)

	_, ok := err.(ResourceNotFoundError)
	require.True(t, ok)
}

func TestAppendResourceSetsID(t *testing.T) {
	c := NewConfig()

	n := testNetwork(t, "main", "")
	require.NoError(t, c.AppendResource(n))

	require.Equal(t, "resource.network.main", n.Meta.ID)
}

func TestAppendDuplicateResourceReturnsError(t *testing.T) {
	c := NewConfig()

	require.NoError(t, c.AppendResource(testNetwork(t, "main", "")))

	err := c.AppendResource(testNetwork(t, "main", ""))
	require.Error(t, err)

	_, ok := err.(ResourceExistsError)
	require.True(t, ok)
}

func TestFindResourcesByTypeReturnsMatching(t *testing.T) {
	c := NewConfig()

	require.NoError(t, c.AppendResource(testNetwork(t, "a", "")))
	require.NoError(t, c.AppendResource(testNetwork(t, "b", "")))

	s := &resources.Subnet{NetworkID: "n", CIDRBlock: "10.0.1.0/24"}
	s.Meta.Name = "app"
	s.Meta.Type = resources.TypeSubnet
	require.NoError(t, c.AppendResource(s))

	found, err := c.FindResourcesByType(resources.TypeNetwork)
	require.NoError(t, err)
	require.Len(t, found, 2)
}

func TestFindModuleResourcesReturnsModuleScoped(t *testing.T) {
	c := NewConfig()

	require.NoError(t, c.AppendResource(testNetwork(t, "root", "")))
	require.NoError(t, c.AppendResource(testNetwork(t, "child", "vpc")))
	require.NoError(t, c.AppendResource(testNetwork(t, "nested", "vpc.inner")))

	found, err := c.FindModuleResources("module.vpc", false)
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = c.FindModuleResources("module.vpc", true)
	require.NoError(t, err)
	require.Len(t, found, 2)
}

func TestRemoveResourceRemoves(t *testing.T) {
	c := NewConfig()

	n := testNetwork(t, "main", "")
	require.NoError(t, c.AppendResource(n))
	require.Equal(t, 1, c.ResourceCount())

	require.NoError(t, c.RemoveResource(n))
	require.Equal(t, 0, c.ResourceCount())

	_, err := c.FindResource("resource.network.main")
	require.Error(t, err)
}

func TestFindRelativeResourceResolvesFromModule(t *testing.T) {
	c := NewConfig()

	require.NoError(t, c.AppendResource(testNetwork(t, "child", "vpc")))

	r, err := c.FindRelativeResource("resource.network.child", "vpc")
	require.NoError(t, err)
	require.Equal(t, "vpc", r.Metadata().Module)
}

func TestWalkVisitsResourcesInDependencyOrder(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/stack/stack.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	c, err := p.ParseFile(f)
	require.NoError(t, err)

	order := []string{}
	m := sync.Mutex{}

	err = c.Walk(func(r types.Resource) error {
		m.Lock()
		defer m.Unlock()

		order = append(order, r.Metadata().ID)
		return nil
	}, false)
	require.NoError(t, err)

	require.Less(t,
		indexOf(t, order, "resource.network.main"),
		indexOf(t, order, "resource.subnet.public"),
	)
}

func TestWalkReverseVisitsDependentsFirst(t *testing.T) {
	f, err := filepath.Abs("./test_fixtures/stack/stack.hcl")
	require.NoError(t, err)

	p := setupParser(t)

	c, err := p.ParseFile(f)
	require.NoError(t, err)

	order := []string{}
	m := sync.Mutex{}

	err = c.Walk(func(r types.Resource) error {
		m.Lock()
		defer m.Unlock()

		order = append(order, r.Metadata().ID)
		return nil
	}, true)
	require.NoError(t, err)

	require.Less(t,
		indexOf(t, order, "resource.instance.debian"),
		indexOf(t, order, "resource.network.main"),
	)
}
