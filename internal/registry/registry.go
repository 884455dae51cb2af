// Package registry implements spec.md §4.8's "Creation of tables": a
// class-name -> factory mapping that lets the top-level colstore package
// construct or reopen a table variant by the table_class string recorded
// in its meta.json, without the caller needing to know which concrete
// constructor backs that class.
//
// Rather than the source's static-initializer registration (package-level
// init() functions racing each other at process startup), this package
// follows spec.md §9's explicit alternative: every built-in class is
// registered from one RegisterAll() call the top-level package invokes
// before first use. The registry itself is process-wide, write-once-at-
// init, read-many: Register is expected to run single-threaded during
// startup, and Lookup is safe for any number of concurrent readers
// afterward.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/colstore/blobstore"
	"github.com/hupe1980/colstore/internal/table"
	"github.com/hupe1980/colstore/schema"
)

// CreateFunc opens a brand new table directory for a given compiled
// schema config.
type CreateFunc func(ctx context.Context, bs blobstore.BlobStore, cfg *schema.Config) (*table.Table, error)

// OpenFunc reopens a previously-created table directory.
type OpenFunc func(ctx context.Context, bs blobstore.BlobStore, cfg *schema.Config) (*table.Table, error)

// ClassFactory is the pair of constructors registered under one table
// class name.
type ClassFactory struct {
	Create CreateFunc
	Open   OpenFunc
}

var (
	mu      sync.RWMutex
	classes = make(map[string]ClassFactory)
)

// Register adds factory under name. It panics on a duplicate name: two
// Register calls racing to claim the same class name is a
// programming error to catch at startup, not a runtime condition to
// handle gracefully.
func Register(name string, factory ClassFactory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := classes[name]; exists {
		panic(fmt.Sprintf("registry: table class %q already registered", name))
	}
	classes[name] = factory
}

// Lookup returns the factory registered under name.
func Lookup(name string) (ClassFactory, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := classes[name]
	if !ok {
		return ClassFactory{}, fmt.Errorf("%w: %q", ErrUnknownClass, name)
	}
	return f, nil
}

// reset clears every registered class and re-arms RegisterAll's once
// guard. Exposed to tests only, since production code registers classes
// exactly once at startup.
func reset() {
	mu.Lock()
	classes = make(map[string]ClassFactory)
	mu.Unlock()

	once = sync.Once{}
}
