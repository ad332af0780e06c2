package types

import (
	"fmt"
	"reflect"
)

// Names of the built in structural types that every manifest can use
// regardless of the registered resource catalogue.
const (
	TypeResource = "resource"
	TypeVariable = "variable"
	TypeOutput   = "output"
	TypeLocal    = "local"
	TypeModule   = "module"
	TypeRoot     = "root"
)

type ErrTypeNotRegistered struct {
	Type string
}

func (e *ErrTypeNotRegistered) Error() string {
	return fmt.Sprintf("type %s, not registered", e.Type)
}

func NewTypeNotRegisteredError(t string) *ErrTypeNotRegistered {
	return &ErrTypeNotRegistered{Type: t}
}

// RegisteredTypes maps a resource type name to an example struct that the
// parser instantiates when it encounters a stanza of that type
type RegisteredTypes map[string]Resource

// CreateResource creates a new instance of a resource from one of the
// registered types.
func (r RegisteredTypes) CreateResource(resourceType, resourceName string) (Resource, error) {
	// check that the type exists
	if t, ok := r[resourceType]; ok {
		ptr := reflect.New(reflect.TypeOf(t).Elem())

		res := ptr.Interface().(Resource)
		res.Metadata().Name = resourceName
		res.Metadata().Type = resourceType

		return res, nil
	}

	return nil, fmt.Errorf("unable to create resource: %s", NewTypeNotRegisteredError(resourceType))
}
