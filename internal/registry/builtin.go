package registry

import (
	"context"
	"sync"

	"github.com/hupe1980/colstore/blobstore"
	"github.com/hupe1980/colstore/internal/table"
	"github.com/hupe1980/colstore/schema"
)

// PrimaryTableClass is the only built-in table variant this engine ships:
// a general-purpose composite table backed directly by internal/table.
// A systems port that adds specialized variants (e.g. an append-only
// class that skips update support) would register additional classes
// alongside this one.
const PrimaryTableClass = "primary"

var once sync.Once

// RegisterAll registers every built-in table class. Safe to call more
// than once; only the first call has any effect, matching spec.md §4.8's
// "registration occurs at module initialization" without relying on
// package init() ordering.
func RegisterAll() {
	once.Do(registerBuiltins)
}

func registerBuiltins() {
	Register(PrimaryTableClass, ClassFactory{
		Create: func(ctx context.Context, bs blobstore.BlobStore, cfg *schema.Config) (*table.Table, error) {
			return table.Create(ctx, bs, cfg)
		},
		Open: func(ctx context.Context, bs blobstore.BlobStore, cfg *schema.Config) (*table.Table, error) {
			return table.Open(ctx, bs, cfg)
		},
	})
}
