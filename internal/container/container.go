// Package container implements the service container that owns every service
// in the cluster firmware. Services register as singletons or transients
// keyed by interface type; construction order is whatever Resolve demands,
// which removes the initialization-order hazards of package-level state.
//
// The container is populated once during bootstrap and read-only afterwards,
// so no locking is done. Dependency cycles between factories are a
// programming error and will recurse until the stack runs out; registration
// is static and audited instead.
package container

import (
	"errors"
	"fmt"
	"reflect"

	"cluster-service/internal/logger"
)

var (
	ErrNotRegistered = errors.New("service not registered")
	ErrWrongLifetime = errors.New("service registered with a different lifetime")
)

type Lifetime int

const (
	Singleton Lifetime = iota
	Transient
)

func (l Lifetime) String() string {
	if l == Singleton {
		return "singleton"
	}
	return "transient"
}

// registration is the type-erased record for one service: a factory, a
// deleter for cached instances, and the singleton cache slot.
type registration struct {
	lifetime Lifetime
	factory  func(c *Container) any
	deleter  func(any)
	instance any
}

type Container struct {
	records map[reflect.Type]*registration
	log     *logger.Logger
}

func New(log *logger.Logger) *Container {
	return &Container{
		records: make(map[reflect.Type]*registration),
		log:     log,
	}
}

// typeKey derives the registration key from the interface type parameter.
// Distinct interfaces yield distinct reflect.Types, so they cannot collide.
func typeKey[I any]() reflect.Type {
	return reflect.TypeOf((*I)(nil)).Elem()
}

// deleterFor builds the type-erased deleter invoked by Clear on cached
// singletons. Services expose teardown as Close() error (messaging, display)
// or Cleanup() (hardware); anything else has nothing to release.
func deleterFor(instance any) func(any) {
	return func(v any) {
		switch s := v.(type) {
		case interface{ Close() error }:
			_ = s.Close()
		case interface{ Close() }:
			s.Close()
		case interface{ Cleanup() }:
			s.Cleanup()
		}
	}
}

// RegisterSingleton stores a zero-argument factory for I. The factory runs at
// most once; the result is cached and shared by every Resolve call.
func RegisterSingleton[I any](c *Container, factory func() I) {
	key := typeKey[I]()
	c.records[key] = &registration{
		lifetime: Singleton,
		factory:  func(*Container) any { return factory() },
	}
	if c.log != nil {
		c.log.Debugf("Registered singleton %s", key)
	}
}

// RegisterTransient stores a container-aware factory for I producing a fresh
// instance on every Create call.
func RegisterTransient[I any](c *Container, factory func(c *Container) I) {
	key := typeKey[I]()
	c.records[key] = &registration{
		lifetime: Transient,
		factory:  func(cc *Container) any { return factory(cc) },
	}
	if c.log != nil {
		c.log.Debugf("Registered transient %s", key)
	}
}

// Resolve returns the cached singleton for I, constructing it on first use.
// Transient registrations must go through Create instead.
func Resolve[I any](c *Container) (I, error) {
	var zero I
	key := typeKey[I]()
	rec, ok := c.records[key]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotRegistered, key)
	}
	if rec.lifetime != Singleton {
		return zero, fmt.Errorf("%w: %s is %s, use Create", ErrWrongLifetime, key, rec.lifetime)
	}
	if rec.instance == nil {
		rec.instance = rec.factory(c)
		rec.deleter = deleterFor(rec.instance)
	}
	return rec.instance.(I), nil
}

// MustResolve is Resolve for bootstrap code, where a missing registration is
// a fatal misconfiguration.
func MustResolve[I any](c *Container) I {
	v, err := Resolve[I](c)
	if err != nil {
		if c.log != nil {
			c.log.Fatalf("Container resolution failed: %v", err)
		}
		panic(err)
	}
	return v
}

// Create always produces a new instance of I. For singleton registrations the
// cache is bypassed and left untouched; the caller owns the result.
func Create[I any](c *Container) (I, error) {
	var zero I
	key := typeKey[I]()
	rec, ok := c.records[key]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrNotRegistered, key)
	}
	return rec.factory(c).(I), nil
}

// IsRegistered reports whether any record exists for I.
func IsRegistered[I any](c *Container) bool {
	_, ok := c.records[typeKey[I]()]
	return ok
}

// Clear drops every registration, invoking the deleter on each cached
// singleton instance exactly once. Used at shutdown and for test isolation.
func (c *Container) Clear() {
	for key, rec := range c.records {
		if rec.instance != nil && rec.deleter != nil {
			rec.deleter(rec.instance)
			rec.instance = nil
		}
		delete(c.records, key)
	}
}
