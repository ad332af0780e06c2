// Package provider defines the interface between the engine and the
// platforms that can create the resources declared in a manifest.
package provider

import (
	"context"
	"fmt"

	"github.com/stackform-io/stackform/types"
)

// Provider creates, updates and deletes the resources declared in a
// manifest. Create and Update are expected to set any computed
// attributes, such as ids and addresses, directly on the resource.
type Provider interface {
	// Name returns the name the provider is registered under
	Name() string

	// Create provisions the given resource
	Create(ctx context.Context, r types.Resource) error

	// Update applies changes to an existing resource
	Update(ctx context.Context, r types.Resource) error

	// Delete removes the given resource
	Delete(ctx context.Context, r types.Resource) error
}

// ProvisioningError is returned when a provider fails to create, update
// or delete a resource
type ProvisioningError struct {
	// Resource is the fully qualified name of the resource
	Resource string
	// Operation that failed, one of create, update, delete
	Operation string
	Err       error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("unable to %s resource %s: %s", e.Operation, e.Resource, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

func NewProvisioningError(resource, operation string, err error) *ProvisioningError {
	return &ProvisioningError{Resource: resource, Operation: operation, Err: err}
}
