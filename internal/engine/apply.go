package engine

import (
	"context"
	"sync"
	"time"

	"github.com/stackform-io/stackform/internal/provider"
	"github.com/stackform-io/stackform/internal/state"
	"github.com/stackform-io/stackform/resources"
	"github.com/stackform-io/stackform/types"
)

// Apply parses the manifest and converges every resource using the
// configured provider, resources are created and updated in dependency
// order and resources removed from the manifest are deleted.
//
// The state is saved even when a resource fails so that resources
// created before the failure are not orphaned.
func (e *Engine) Apply(ctx context.Context) (*Plan, error) {
	snap, err := e.store.Load()
	if err != nil {
		return nil, err
	}

	prov, err := e.registry.Get(e.opts.Provider)
	if err != nil {
		return nil, err
	}

	plan := &Plan{CreatedAt: time.Now().UTC(), Changes: []Change{}}
	mu := sync.Mutex{}

	cfg, walkErr := e.parse(func(r types.Resource) error {
		if !isManaged(r) {
			return nil
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		rs := snap.Find(r.Metadata().ID)
		checksum := r.Metadata().Checksum.Processed

		switch {
		case rs == nil:
			start := time.Now()

			if err := prov.Create(ctx, r); err != nil {
				return provider.NewProvisioningError(r.Metadata().ID, "create", err)
			}

			e.log.Info("created resource", "resource", r.Metadata().ID, "duration", time.Since(start).String())

			mu.Lock()
			defer mu.Unlock()

			plan.add(change(r, ActionCreate))
			snap.Put(newResourceState(r, prov.Name(), checksum))
		case rs.Checksum != checksum:
			// the provider id is needed to update the existing resource
			restoreComputed(r, rs)

			if err := prov.Update(ctx, r); err != nil {
				return provider.NewProvisioningError(r.Metadata().ID, "update", err)
			}

			e.log.Info("updated resource", "resource", r.Metadata().ID)

			mu.Lock()
			defer mu.Unlock()

			plan.add(change(r, ActionUpdate))
			snap.Put(newResourceState(r, prov.Name(), checksum))
		default:
			restoreComputed(r, rs)

			mu.Lock()
			defer mu.Unlock()

			plan.add(change(r, ActionNoop))
		}

		return nil
	})

	// delete resources that are recorded in the state but no longer in
	// the manifest, in reverse creation order so dependents are removed
	// before their dependencies
	if walkErr == nil {
		recorded := make([]*state.ResourceState, len(snap.Resources))
		copy(recorded, snap.Resources)

		for i := len(recorded) - 1; i >= 0; i-- {
			rs := recorded[i]

			if _, err := cfg.FindResource(rs.ID); err == nil {
				continue
			}

			delErr := e.deleteFromState(ctx, snap, rs)
			if delErr != nil {
				walkErr = delErr
				break
			}

			plan.add(Change{ID: rs.ID, Type: rs.Type, Name: rs.Name, Action: ActionDelete})
		}
	}

	// record outputs from the root module
	if walkErr == nil {
		outputs := map[string]state.OutputState{}

		for _, r := range cfg.Resources {
			if r.Metadata().Type != resources.TypeOutput || r.Metadata().Module != "" {
				continue
			}

			o := r.(*resources.Output)
			outputs[o.Meta.Name] = state.OutputState{Value: o.Value, Sensitive: o.Sensitive}
		}

		snap.Outputs = outputs
	}

	if err := e.store.Save(snap); err != nil {
		return plan, err
	}

	return plan, walkErr
}

// Destroy deletes every resource recorded in the state in reverse
// creation order
func (e *Engine) Destroy(ctx context.Context) error {
	snap, err := e.store.Load()
	if err != nil {
		return err
	}

	recorded := make([]*state.ResourceState, len(snap.Resources))
	copy(recorded, snap.Resources)

	var destroyErr error
	for i := len(recorded) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			destroyErr = err
			break
		}

		if err := e.deleteFromState(ctx, snap, recorded[i]); err != nil {
			destroyErr = err
			break
		}
	}

	if destroyErr == nil {
		snap.Outputs = map[string]state.OutputState{}
	}

	if err := e.store.Save(snap); err != nil {
		return err
	}

	return destroyErr
}

// deleteFromState rebuilds the resource from its recorded attributes,
// deletes it with the provider that created it, and removes it from the
// snapshot
func (e *Engine) deleteFromState(ctx context.Context, snap *state.Snapshot, rs *state.ResourceState) error {
	prov, err := e.registry.Get(rs.Provider)
	if err != nil {
		return err
	}

	r, err := resourceFromState(rs)
	if err != nil {
		return err
	}

	if err := prov.Delete(ctx, r); err != nil {
		return provider.NewProvisioningError(rs.ID, "delete", err)
	}

	e.log.Info("deleted resource", "resource", rs.ID)

	snap.Remove(rs.ID)

	return nil
}

// Outputs returns the output values recorded by the last apply
func (e *Engine) Outputs() (map[string]state.OutputState, error) {
	snap, err := e.store.Load()
	if err != nil {
		return nil, err
	}

	return snap.Outputs, nil
}
