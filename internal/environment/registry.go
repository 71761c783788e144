package environment

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownEnvironment is matched by errors.Is for UnknownEnvironmentError.
var ErrUnknownEnvironment = errors.New("unknown environment")

// UnknownEnvironmentError is returned when no factory is registered for
// a version tag.
type UnknownEnvironmentError struct {
	Tag   string
	Known []string
}

// Error implements the error interface.
func (e *UnknownEnvironmentError) Error() string {
	return fmt.Sprintf("unknown environment %q (registered: %v)", e.Tag, e.Known)
}

// Is makes errors.Is(err, ErrUnknownEnvironment) succeed.
func (e *UnknownEnvironmentError) Is(target error) bool {
	return target == ErrUnknownEnvironment
}

// Registry maps version tags to environment factories.
//
// Registration happens at startup; lookups afterwards are read-only.
// Registry is not safe for concurrent Register calls.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Default returns a registry with the FIX 4.2 and 4.4 acceptance
// environments.
func Default() *Registry {
	r := NewRegistry()
	_ = r.Register("4.2", FIX42)
	_ = r.Register("4.4", FIX44)
	return r
}

// Register binds tag to factory. Re-registering a tag is an error.
func (r *Registry) Register(tag string, factory Factory) error {
	if tag == "" {
		return fmt.Errorf("register environment: tag is required")
	}
	if factory == nil {
		return fmt.Errorf("register environment %q: factory is nil", tag)
	}
	if _, exists := r.factories[tag]; exists {
		return fmt.Errorf("register environment %q: already registered", tag)
	}
	r.factories[tag] = factory
	return nil
}

// Resolve returns the factory for tag. It never falls back to another
// version: an unregistered tag yields *UnknownEnvironmentError.
func (r *Registry) Resolve(tag string) (Factory, error) {
	factory, ok := r.factories[tag]
	if !ok {
		return nil, &UnknownEnvironmentError{Tag: tag, Known: r.Tags()}
	}
	return factory, nil
}

// Tags returns the registered tags, sorted.
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
