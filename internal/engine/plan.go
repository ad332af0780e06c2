package engine

import (
	"sync"
	"time"

	"github.com/stackform-io/stackform"
	"github.com/stackform-io/stackform/types"
)

// Action describes what would happen to a resource on apply
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionNoop   Action = "noop"
)

// Change is a single planned action
type Change struct {
	// ID is the fully qualified resource name
	ID     string `json:"id"`
	Type   string `json:"type"`
	Name   string `json:"name"`
	Action Action `json:"action"`
}

// Summary counts the planned actions
type Summary struct {
	Create int `json:"create"`
	Update int `json:"update"`
	Delete int `json:"delete"`
	Noop   int `json:"noop"`
}

// Plan is the set of actions that apply would perform
type Plan struct {
	CreatedAt time.Time `json:"created_at"`
	Changes   []Change  `json:"changes"`
	Summary   Summary   `json:"summary"`
}

func (p *Plan) add(c Change) {
	p.Changes = append(p.Changes, c)

	switch c.Action {
	case ActionCreate:
		p.Summary.Create++
	case ActionUpdate:
		p.Summary.Update++
	case ActionDelete:
		p.Summary.Delete++
	case ActionNoop:
		p.Summary.Noop++
	}
}

// HasChanges returns true when applying the plan would modify
// infrastructure
func (p *Plan) HasChanges() bool {
	return p.Summary.Create > 0 || p.Summary.Update > 0 || p.Summary.Delete > 0
}

// Plan parses the manifest and compares every resource against the
// recorded state, no provider is contacted and no state is written
func (e *Engine) Plan() (*Plan, *stackform.Config, error) {
	snap, err := e.store.Load()
	if err != nil {
		return nil, nil, err
	}

	plan := &Plan{CreatedAt: time.Now().UTC(), Changes: []Change{}}

	// the graph walk runs callbacks concurrently
	mu := sync.Mutex{}

	cfg, err := e.parse(func(r types.Resource) error {
		if !isManaged(r) {
			return nil
		}

		rs := snap.Find(r.Metadata().ID)

		mu.Lock()
		defer mu.Unlock()

		switch {
		case rs == nil:
			plan.add(change(r, ActionCreate))
		case rs.Checksum != r.Metadata().Checksum.Processed:
			restoreComputed(r, rs)
			plan.add(change(r, ActionUpdate))
		default:
			restoreComputed(r, rs)
			plan.add(change(r, ActionNoop))
		}

		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	// resources recorded in the state but removed from the manifest are
	// deleted on apply
	for _, rs := range snap.Resources {
		if _, err := cfg.FindResource(rs.ID); err != nil {
			plan.add(Change{ID: rs.ID, Type: rs.Type, Name: rs.Name, Action: ActionDelete})
		}
	}

	e.log.Info("plan complete",
		"create", plan.Summary.Create,
		"update", plan.Summary.Update,
		"delete", plan.Summary.Delete,
		"noop", plan.Summary.Noop)

	return plan, cfg, nil
}

func change(r types.Resource, a Action) Change {
	return Change{
		ID:     r.Metadata().ID,
		Type:   r.Metadata().Type,
		Name:   r.Metadata().Name,
		Action: a,
	}
}
