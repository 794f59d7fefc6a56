package datastore

import (
	"context"
)

// Registrar is implemented by application components that construct and
// register global stores during process startup. Registrars run before any
// facade consumer resolves a global store.
type Registrar interface {
	RegisterStores(registry *Registry) error
}

// Initializer is implemented by registered stores that need a one-time
// initial load after registration; PersistentStore satisfies it.
type Initializer interface {
	Initialize(ctx context.Context) error
}

// Bootstrap is the run-once composition entry point: it lets every registrar
// register its stores, then initializes every registered store that
// implements Initializer. The first error aborts the sequence.
//
// Bootstrap must run after the facade is constructed and before any consumer
// resolves a global store.
func Bootstrap(ctx context.Context, ds *DataStore, registrars ...Registrar) error {
	if ds == nil {
		return ErrNilFacade
	}

	for _, registrar := range registrars {
		if registrar == nil {
			return ErrNilRegistrar
		}

		if err := registrar.RegisterStores(ds.registry); err != nil {
			return err
		}
	}

	var initErr error
	ds.registry.each(func(entry any) {
		if initErr != nil {
			return
		}

		if initializer, ok := entry.(Initializer); ok {
			initErr = initializer.Initialize(ctx)
		}
	})

	return initErr
}

// RegistrarFunc adapts a plain function to the Registrar interface.
type RegistrarFunc func(registry *Registry) error

// RegisterStores calls f.
func (f RegistrarFunc) RegisterStores(registry *Registry) error {
	return f(registry)
}
