package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/stackform-io/stackform/internal/keygen"
	"github.com/stackform-io/stackform/resources"
	"github.com/stackform-io/stackform/types"
)

// Memory is an in process provider that assigns deterministic
// identifiers without creating any real infrastructure, it backs the
// plan when no platform credentials are available and is used by tests
type Memory struct {
	mu      sync.Mutex
	serial  map[string]int
	created map[string]types.Resource
}

func NewMemory() *Memory {
	return &Memory{
		serial:  map[string]int{},
		created: map[string]types.Resource{},
	}
}

func (m *Memory) Name() string {
	return "memory"
}

// Created returns the resource created with the given id, used by tests
// to verify the apply order and attributes
func (m *Memory) Created(id string) (types.Resource, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.created[id]
	return r, ok
}

// CreatedCount returns the number of resources held by the provider
func (m *Memory) CreatedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.created)
}

func (m *Memory) Create(ctx context.Context, r types.Resource) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.serial[r.Metadata().Type]++
	id := fmt.Sprintf("mem-%s-%d", r.Metadata().Type, m.serial[r.Metadata().Type])

	switch res := r.(type) {
	case *resources.Network:
		res.ID = id
	case *resources.Subnet:
		res.ID = id
	case *resources.Gateway:
		res.ID = id
	case *resources.RouteTable:
		res.ID = id
	case *resources.SecurityGroup:
		res.ID = id
	case *resources.Instance:
		res.ID = id
		res.PrivateIP = fmt.Sprintf("10.0.0.%d", m.serial[r.Metadata().Type])
		res.PublicIP = fmt.Sprintf("203.0.113.%d", m.serial[r.Metadata().Type])
	case *resources.KeyPair:
		res.ID = id

		// generate a key pair when no public key was supplied
		if res.PublicKey == "" {
			kp, err := keygen.GenerateRSAKeyPair(2048)
			if err != nil {
				return err
			}

			res.PublicKey = kp.PublicKey
			res.PrivateKey = kp.PrivateKey
			res.Fingerprint = kp.Fingerprint
		} else {
			fp, err := keygen.FingerprintAuthorizedKey([]byte(res.PublicKey))
			if err != nil {
				return err
			}

			res.Fingerprint = fp
		}
	default:
		return fmt.Errorf("unsupported resource type %s", r.Metadata().Type)
	}

	m.created[r.Metadata().ID] = r

	return nil
}

func (m *Memory) Update(ctx context.Context, r types.Resource) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.created[r.Metadata().ID] = r

	return nil
}

func (m *Memory) Delete(ctx context.Context, r types.Resource) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.created, r.Metadata().ID)

	return nil
}
