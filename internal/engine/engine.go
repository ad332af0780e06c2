// Package engine orchestrates the lifecycle of the resources declared in
// a manifest, it compares the parsed manifest against the recorded state
// and drives the provider to converge the two.
package engine

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/stackform-io/stackform"
	"github.com/stackform-io/stackform/internal/provider"
	"github.com/stackform-io/stackform/internal/state"
	"github.com/stackform-io/stackform/logger"
	"github.com/stackform-io/stackform/resources"
	"github.com/stackform-io/stackform/types"
)

// Options configures the engine for a single manifest
type Options struct {
	// ManifestPath is the manifest file or directory to parse
	ManifestPath string
	// StatePath is the location of the state file
	StatePath string
	// Provider is the name of the registered provider used to converge
	// resources, defaults to the in memory provider
	Provider string
	// Variables are explicit variable overrides
	Variables map[string]string
	// VariablesFiles are additional vars files to read
	VariablesFiles []string
	Logger         logger.Logger
}

// Engine plans and applies manifests
type Engine struct {
	opts     Options
	registry *provider.Registry
	store    *state.FileStore
	log      logger.Logger
}

func New(opts Options, registry *provider.Registry) *Engine {
	if opts.Provider == "" {
		opts.Provider = "memory"
	}

	l := opts.Logger
	if l == nil {
		l = logger.NewNullLogger()
	}

	return &Engine{
		opts:     opts,
		registry: registry,
		store:    state.NewFileStore(opts.StatePath),
		log:      l,
	}
}

// Store returns the state store used by the engine
func (e *Engine) Store() *state.FileStore {
	return e.store
}

// managedTypes are the resource types converged by a provider, the
// structural types are handled entirely by the parser
var managedTypes = map[string]bool{
	resources.TypeNetwork:       true,
	resources.TypeSubnet:        true,
	resources.TypeGateway:       true,
	resources.TypeRouteTable:    true,
	resources.TypeSecurityGroup: true,
	resources.TypeInstance:      true,
	resources.TypeKeyPair:       true,
}

func isManaged(r types.Resource) bool {
	return managedTypes[r.Metadata().Type]
}

// parse reads the manifest with the given callback wired into the graph
// walk, the callback runs for each resource after its body has been
// decoded and before any dependent resource is decoded
func (e *Engine) parse(cb stackform.WalkCallback) (*stackform.Config, error) {
	o := stackform.DefaultOptions()
	o.Variables = e.opts.Variables
	o.VariablesFiles = e.opts.VariablesFiles
	o.Logger = e.log
	o.ParseCallback = cb

	p := stackform.NewParser(o)

	fi, err := os.Stat(e.opts.ManifestPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read manifest %s: %w", e.opts.ManifestPath, err)
	}

	if fi.IsDir() {
		return p.ParseDirectory(e.opts.ManifestPath)
	}

	return p.ParseFile(e.opts.ManifestPath)
}

// Validate parses the manifest, resolving variables and references and
// running resource validation, without contacting a provider
func (e *Engine) Validate() (*stackform.Config, error) {
	snap, err := e.store.Load()
	if err != nil {
		return nil, err
	}

	return e.parse(func(r types.Resource) error {
		if !isManaged(r) {
			return nil
		}

		// resolve references to computed attributes from the recorded
		// state so dependent resources decode with real values
		if rs := snap.Find(r.Metadata().ID); rs != nil {
			restoreComputed(r, rs)
		}

		return nil
	})
}

// restoreComputed copies the attributes assigned by the provider at the
// last apply onto the resource, references to these attributes from
// other resources then resolve to the recorded values
func restoreComputed(r types.Resource, rs *state.ResourceState) {
	str := func(key string) string {
		v, _ := rs.Attributes[key].(string)
		return v
	}

	switch res := r.(type) {
	case *resources.Network:
		res.ID = str("id")
	case *resources.Subnet:
		res.ID = str("id")
	case *resources.Gateway:
		res.ID = str("id")
	case *resources.RouteTable:
		res.ID = str("id")
	case *resources.SecurityGroup:
		res.ID = str("id")
	case *resources.Instance:
		res.ID = str("id")
		res.PublicIP = str("public_ip")
		res.PrivateIP = str("private_ip")
	case *resources.KeyPair:
		res.ID = str("id")
		res.Fingerprint = str("fingerprint")

		// a generated key only exists in the state
		if res.PublicKey == "" {
			res.PublicKey = str("public_key")
			res.PrivateKey = str("private_key")
		}
	}
}

// newResourceState records the resolved attributes of a resource after
// the provider has converged it
func newResourceState(r types.Resource, providerName, checksum string) *state.ResourceState {
	attrs := map[string]any{}

	d, _ := json.Marshal(r)
	json.Unmarshal(d, &attrs)
	delete(attrs, "meta")

	providerID, _ := attrs["id"].(string)

	return &state.ResourceState{
		ID:           r.Metadata().ID,
		Type:         r.Metadata().Type,
		Name:         r.Metadata().Name,
		Module:       r.Metadata().Module,
		Provider:     providerName,
		ProviderID:   providerID,
		Checksum:     checksum,
		Attributes:   attrs,
		Dependencies: r.GetDependencies(),
	}
}

// resourceFromState rebuilds a resource from its recorded state so that
// it can be deleted after it has been removed from the manifest
func resourceFromState(rs *state.ResourceState) (types.Resource, error) {
	r, err := resources.DefaultResources().CreateResource(rs.Type, rs.Name)
	if err != nil {
		return nil, err
	}

	d, err := json.Marshal(rs.Attributes)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(d, r); err != nil {
		return nil, fmt.Errorf("unable to rebuild resource %s from state: %w", rs.ID, err)
	}

	r.Metadata().Module = rs.Module
	r.Metadata().ID = rs.ID

	return r, nil
}
