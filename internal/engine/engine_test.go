package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stackform-io/stackform/internal/provider"
	"github.com/stackform-io/stackform/logger"
	"github.com/stackform-io/stackform/resources"
	"github.com/stackform-io/stackform/types"
	"github.com/stretchr/testify/require"
)

func fixturePath(t *testing.T, parts ...string) string {
	p, err := filepath.Abs(filepath.Join(append([]string{"..", "..", "test_fixtures"}, parts...)...))
	require.NoError(t, err)

	return p
}

func setupEngine(t *testing.T, manifest string, vars map[string]string) (*Engine, *provider.Memory) {
	mem := provider.NewMemory()

	registry := provider.NewRegistry()
	registry.Register(mem)

	e := New(Options{
		ManifestPath: manifest,
		StatePath:    filepath.Join(t.TempDir(), "stackform.state.json"),
		Provider:     "memory",
		Variables:    vars,
		Logger:       logger.NewTestLogger(t),
	}, registry)

	return e, mem
}

func TestValidateDoesNotTouchProvider(t *testing.T) {
	e, mem := setupEngine(t, fixturePath(t, "stack", "stack.hcl"), nil)

	cfg, err := e.Validate()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.Equal(t, 0, mem.CreatedCount())
	require.NoFileExists(t, e.Store().Path())
}

func TestValidateFailsOnInvalidManifest(t *testing.T) {
	e, _ := setupEngine(t, fixturePath(t, "invalid", "open_ssh.hcl"), nil)

	_, err := e.Validate()
	require.Error(t, err)
}

func TestPlanShowsCreatesForNewManifest(t *testing.T) {
	e, _ := setupEngine(t, fixturePath(t, "stack", "stack.hcl"), nil)

	plan, _, err := e.Plan()
	require.NoError(t, err)

	require.True(t, plan.HasChanges())
	require.Equal(t, 7, plan.Summary.Create)
	require.Equal(t, 0, plan.Summary.Update)
	require.Equal(t, 0, plan.Summary.Delete)

	// planning never writes state
	require.NoFileExists(t, e.Store().Path())
}

func TestApplyCreatesAllResources(t *testing.T) {
	e, mem := setupEngine(t, fixturePath(t, "stack", "stack.hcl"), nil)

	plan, err := e.Apply(context.Background())
	require.NoError(t, err)

	require.Equal(t, 7, plan.Summary.Create)
	require.Equal(t, 7, mem.CreatedCount())

	snap, err := e.Store().Load()
	require.NoError(t, err)
	require.Len(t, snap.Resources, 7)

	rs := snap.Find("resource.network.main")
	require.NotNil(t, rs)
	require.Equal(t, "memory", rs.Provider)
	require.Equal(t, "mem-network-1", rs.ProviderID)
	require.NotEmpty(t, rs.Checksum)
}

func TestApplyResolvesReferencesToCreatedResources(t *testing.T) {
	e, mem := setupEngine(t, fixturePath(t, "stack", "stack.hcl"), nil)

	_, err := e.Apply(context.Background())
	require.NoError(t, err)

	r, ok := mem.Created("resource.subnet.public")
	require.True(t, ok)

	// the subnet decodes after the network is created so the reference
	// resolves to the assigned id
	require.Equal(t, "mem-network-1", r.(*resources.Subnet).NetworkID)

	i, ok := mem.Created("resource.instance.debian")
	require.True(t, ok)
	require.Equal(t, "mem-subnet-1", i.(*resources.Instance).SubnetID)
}

func TestApplyRecordsOutputs(t *testing.T) {
	e, _ := setupEngine(t, fixturePath(t, "stack", "stack.hcl"), nil)

	_, err := e.Apply(context.Background())
	require.NoError(t, err)

	outputs, err := e.Outputs()
	require.NoError(t, err)

	ip, ok := outputs["instance_public_ip"]
	require.True(t, ok)
	require.Equal(t, "203.0.113.1", ip.Value)
	require.False(t, ip.Sensitive)

	key, ok := outputs["private_key"]
	require.True(t, ok)
	require.True(t, key.Sensitive)
	require.Contains(t, key.Value, "BEGIN RSA PRIVATE KEY")
}

func TestSecondApplyIsNoop(t *testing.T) {
	e, mem := setupEngine(t, fixturePath(t, "stack", "stack.hcl"), nil)

	_, err := e.Apply(context.Background())
	require.NoError(t, err)

	plan, err := e.Apply(context.Background())
	require.NoError(t, err)

	require.Equal(t, 0, plan.Summary.Create)
	require.Equal(t, 0, plan.Summary.Update)
	require.Equal(t, 0, plan.Summary.Delete)
	require.Equal(t, 7, plan.Summary.Noop)

	require.Equal(t, 7, mem.CreatedCount())
}

func TestPlanAfterApplyIsNoop(t *testing.T) {
	e, _ := setupEngine(t, fixturePath(t, "stack", "stack.hcl"), nil)

	_, err := e.Apply(context.Background())
	require.NoError(t, err)

	plan, cfg, err := e.Plan()
	require.NoError(t, err)

	require.False(t, plan.HasChanges())
	require.Equal(t, 7, plan.Summary.Noop)

	// computed attributes are restored from the state during the plan
	r, err := cfg.FindResource("resource.network.main")
	require.NoError(t, err)
	require.Equal(t, "mem-network-1", r.(*resources.Network).ID)
}

func TestApplyUpdatesChangedResources(t *testing.T) {
	manifest := fixturePath(t, "stack", "stack.hcl")

	e, mem := setupEngine(t, manifest, map[string]string{"candidato": "First"})

	_, err := e.Apply(context.Background())
	require.NoError(t, err)

	// same state, changed variable, every tagged resource drifts
	e2 := New(Options{
		ManifestPath: manifest,
		StatePath:    e.Store().Path(),
		Provider:     "memory",
		Variables:    map[string]string{"candidato": "Second"},
		Logger:       logger.NewTestLogger(t),
	}, registryWith(mem))

	plan, err := e2.Apply(context.Background())
	require.NoError(t, err)

	require.Equal(t, 0, plan.Summary.Create)
	require.Equal(t, 0, plan.Summary.Delete)
	require.Greater(t, plan.Summary.Update, 0)

	r, ok := mem.Created("resource.subnet.public")
	require.True(t, ok)
	require.Equal(t, "VExpenses-Second-subnet", r.(*resources.Subnet).Tags["Name"])
}

func TestApplyDeletesResourcesRemovedFromManifest(t *testing.T) {
	e, mem := setupEngine(t, fixturePath(t, "stack", "stack.hcl"), nil)

	_, err := e.Apply(context.Background())
	require.NoError(t, err)

	// a different manifest sharing the same state, everything from the
	// first apply is now an orphan
	e2 := New(Options{
		ManifestPath: fixturePath(t, "simple", "network.hcl"),
		StatePath:    e.Store().Path(),
		Provider:     "memory",
		Logger:       logger.NewTestLogger(t),
	}, registryWith(mem))

	plan, err := e2.Apply(context.Background())
	require.NoError(t, err)

	require.Equal(t, 2, plan.Summary.Create)
	require.Equal(t, 7, plan.Summary.Delete)

	require.Equal(t, 2, mem.CreatedCount())

	snap, err := e2.Store().Load()
	require.NoError(t, err)
	require.Len(t, snap.Resources, 2)
}

func TestDestroyRemovesAllResources(t *testing.T) {
	e, mem := setupEngine(t, fixturePath(t, "stack", "stack.hcl"), nil)

	_, err := e.Apply(context.Background())
	require.NoError(t, err)

	require.NoError(t, e.Destroy(context.Background()))

	require.Equal(t, 0, mem.CreatedCount())

	snap, err := e.Store().Load()
	require.NoError(t, err)
	require.Empty(t, snap.Resources)
	require.Empty(t, snap.Outputs)
}

func TestApplySavesStateWhenAResourceFails(t *testing.T) {
	registry := provider.NewRegistry()
	registry.Register(&failingProvider{Memory: provider.NewMemory()})

	e := New(Options{
		ManifestPath: fixturePath(t, "stack", "stack.hcl"),
		StatePath:    filepath.Join(t.TempDir(), "stackform.state.json"),
		Provider:     "flaky",
		Logger:       logger.NewTestLogger(t),
	}, registry)

	_, err := e.Apply(context.Background())
	require.Error(t, err)

	// everything created before the failure must be recorded
	snap, err := e.Store().Load()
	require.NoError(t, err)
	require.NotEmpty(t, snap.Resources)
	require.Nil(t, snap.Find("resource.instance.debian"))
}

func TestApplyFailsOnCancelledContext(t *testing.T) {
	e, _ := setupEngine(t, fixturePath(t, "stack", "stack.hcl"), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Apply(ctx)
	require.Error(t, err)
}

func TestEngineFailsOnMissingManifest(t *testing.T) {
	e, _ := setupEngine(t, filepath.Join(t.TempDir(), "nope.hcl"), nil)

	_, _, err := e.Plan()
	require.Error(t, err)
}

func registryWith(ps ...provider.Provider) *provider.Registry {
	r := provider.NewRegistry()
	for _, p := range ps {
		r.Register(p)
	}

	return r
}

// failingProvider creates everything except instances
type failingProvider struct {
	*provider.Memory
}

func (f *failingProvider) Name() string {
	return "flaky"
}

func (f *failingProvider) Create(ctx context.Context, r types.Resource) error {
	if r.Metadata().Type == resources.TypeInstance {
		return fmt.Errorf("instance quota exceeded")
	}

	return f.Memory.Create(ctx, r)
}
