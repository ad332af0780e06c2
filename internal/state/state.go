// Package state persists the applied resources between runs so that the
// plan can calculate the difference between the manifest and the
// infrastructure that already exists.
package state

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// CurrentVersion is the version written to new snapshots, snapshots with
// a greater version were written by a newer release and are rejected
const CurrentVersion = 1

// Snapshot is the persistent state of an applied manifest
type Snapshot struct {
	Version   int                    `json:"version"`
	Serial    int                    `json:"serial"`
	Lineage   string                 `json:"lineage"`
	UpdatedAt time.Time              `json:"updated_at"`
	Resources []*ResourceState       `json:"resources"`
	Outputs   map[string]OutputState `json:"outputs,omitempty"`
}

// ResourceState is the recorded state for a single resource
type ResourceState struct {
	// ID is the fully qualified resource name,
	// e.g. resource.network.main
	ID     string `json:"id"`
	Type   string `json:"type"`
	Name   string `json:"name"`
	Module string `json:"module,omitempty"`

	// Provider is the name of the provider that created the resource
	Provider string `json:"provider"`

	// ProviderID is the identifier assigned by the provider,
	// e.g. vpc-0a1b2c3d
	ProviderID string `json:"provider_id,omitempty"`

	// Checksum of the resolved resource attributes at the time the
	// resource was applied, compared by the plan to detect changes
	Checksum string `json:"checksum"`

	// Attributes holds the full resolved attributes of the resource,
	// including any values computed by the provider
	Attributes map[string]any `json:"attributes,omitempty"`

	// Dependencies are the ids of the resources this resource depends
	// on, used to destroy resources in the correct order
	Dependencies []string `json:"dependencies,omitempty"`
}

// OutputState is a recorded output value
type OutputState struct {
	Value     any  `json:"value"`
	Sensitive bool `json:"sensitive,omitempty"`
}

// NewSnapshot creates an empty snapshot with a new lineage
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Version:   CurrentVersion,
		Serial:    0,
		Lineage:   newLineage(),
		Resources: []*ResourceState{},
		Outputs:   map[string]OutputState{},
	}
}

// Find returns the resource state with the given id, nil when the
// resource is not in the snapshot
func (s *Snapshot) Find(id string) *ResourceState {
	for _, r := range s.Resources {
		if r.ID == id {
			return r
		}
	}

	return nil
}

// Put adds or replaces the resource state with the same id
func (s *Snapshot) Put(rs *ResourceState) {
	for i, r := range s.Resources {
		if r.ID == rs.ID {
			s.Resources[i] = rs
			return
		}
	}

	s.Resources = append(s.Resources, rs)
}

// Remove deletes the resource state with the given id
func (s *Snapshot) Remove(id string) {
	for i, r := range s.Resources {
		if r.ID == id {
			s.Resources = append(s.Resources[:i], s.Resources[i+1:]...)
			return
		}
	}
}

// lineage is a random identifier created with the snapshot, it never
// changes for the life of the state and guards against applying a plan
// to the state of a different manifest
func newLineage() string {
	b := make([]byte, 16)
	rand.Read(b)

	return hex.EncodeToString(b)
}
