package repository

import (
	"context"
	"time"

	"tourbook/database/query"

	"go.mongodb.org/mongo-driver/bson"
)

// Store is the persistence contract shared by every resource.
type Store[T any] interface {
	// Find runs a built query. populate names relation loaders applied to
	// every returned document.
	Find(ctx context.Context, f *query.Features, populate ...string) ([]T, error)
	FindByID(ctx context.Context, id string, populate ...string) (*T, error)
	Create(ctx context.Context, doc *T) error
	// FindByIDAndUpdate applies patch to the document and returns the
	// validated result.
	FindByIDAndUpdate(ctx context.Context, id string, patch bson.M) (*T, error)
	FindByIDAndDelete(ctx context.Context, id string) (*T, error)
	CountDocuments(ctx context.Context, filter bson.M) (int64, error)
	Schema() query.Schema
}

// AfterWriteFunc runs after a mutation. before is nil on create and after is
// nil on delete.
type AfterWriteFunc[T any] func(ctx context.Context, before, after *T) error

// BeforeWriteFunc derives fields of a document about to be stored. changed
// is nil on create; on update it holds the patched keys and a hook adds every
// key it rewrites.
type BeforeWriteFunc[T any] func(doc *T, changed map[string]struct{})

// PopulateFunc fills relation fields of a batch of documents.
type PopulateFunc[T any] func(ctx context.Context, docs []*T) error

// inserter is implemented by models that assign ids and defaults on create.
type inserter interface {
	PrepareInsert(now time.Time)
}
