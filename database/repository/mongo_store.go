package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"tourbook/database/query"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const defaultTimeout = 10 * time.Second

// MongoStore implements Store over one collection.
type MongoStore[T any] struct {
	coll        *mongo.Collection
	schema      query.Schema
	baseFilter  bson.M
	beforeWrite []BeforeWriteFunc[T]
	afterWrite  []AfterWriteFunc[T]
	populate    map[string]PopulateFunc[T]
	timeout     time.Duration
	now         func() time.Time
	logger      *zap.Logger
	// hidden maps the stored name of every field without a JSON form to its
	// struct index.
	hidden map[string]int
}

type Option[T any] func(*MongoStore[T])

// WithBaseFilter restricts every read, count and write to matching documents.
func WithBaseFilter[T any](filter bson.M) Option[T] {
	return func(s *MongoStore[T]) { s.baseFilter = filter }
}

// WithBeforeWrite derives fields before a document is stored.
func WithBeforeWrite[T any](fn BeforeWriteFunc[T]) Option[T] {
	return func(s *MongoStore[T]) { s.beforeWrite = append(s.beforeWrite, fn) }
}

func WithAfterWrite[T any](fn AfterWriteFunc[T]) Option[T] {
	return func(s *MongoStore[T]) { s.afterWrite = append(s.afterWrite, fn) }
}

func WithPopulate[T any](name string, fn PopulateFunc[T]) Option[T] {
	return func(s *MongoStore[T]) { s.populate[name] = fn }
}

func WithTimeout[T any](d time.Duration) Option[T] {
	return func(s *MongoStore[T]) { s.timeout = d }
}

func NewMongoStore[T any](coll *mongo.Collection, opts ...Option[T]) *MongoStore[T] {
	var zero T
	s := &MongoStore[T]{
		coll:     coll,
		schema:   query.SchemaOf(zero),
		populate: map[string]PopulateFunc[T]{},
		timeout:  defaultTimeout,
		now:      time.Now,
		logger:   zap.L(),
		hidden:   jsonHidden(reflect.TypeOf(zero)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply adds options after construction, for hooks that depend on the store.
func (s *MongoStore[T]) Apply(opts ...Option[T]) {
	for _, opt := range opts {
		opt(s)
	}
}

func (s *MongoStore[T]) Collection() *mongo.Collection { return s.coll }

func (s *MongoStore[T]) Schema() query.Schema { return s.schema }

func (s *MongoStore[T]) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// scoped combines filter with the base filter.
func (s *MongoStore[T]) scoped(filter bson.M) bson.M {
	switch {
	case len(s.baseFilter) == 0:
		if filter == nil {
			return bson.M{}
		}
		return filter
	case len(filter) == 0:
		return s.baseFilter
	default:
		return bson.M{"$and": bson.A{s.baseFilter, filter}}
	}
}

func (s *MongoStore[T]) Find(ctx context.Context, f *query.Features, populate ...string) ([]T, error) {
	if err := f.Err(); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	opts := options.Find().
		SetSort(f.Sort).
		SetProjection(f.Projection).
		SetSkip(f.Skip).
		SetLimit(f.Limit)
	cursor, err := s.coll.Find(ctx, s.scoped(f.Filter), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", s.coll.Name(), err)
	}
	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.coll.Name(), err)
	}
	if err := s.Populate(ctx, docs, populate...); err != nil {
		return nil, err
	}
	return docs, nil
}

// FindOne returns the first document matching filter.
func (s *MongoStore[T]) FindOne(ctx context.Context, filter bson.M, populate ...string) (*T, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc T
	if err := s.coll.FindOne(ctx, s.scoped(filter)).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch from %s: %w", s.coll.Name(), err)
	}
	if len(populate) > 0 {
		batch := []T{doc}
		if err := s.Populate(ctx, batch, populate...); err != nil {
			return nil, err
		}
		doc = batch[0]
	}
	return &doc, nil
}

func (s *MongoStore[T]) FindByID(ctx context.Context, id string, populate ...string) (*T, error) {
	oid, err := query.ParseID(id)
	if err != nil {
		return nil, err
	}
	return s.FindOne(ctx, bson.M{"_id": oid}, populate...)
}

// Populate runs the named relation loaders over docs in place.
func (s *MongoStore[T]) Populate(ctx context.Context, docs []T, names ...string) error {
	if len(names) == 0 || len(docs) == 0 {
		return nil
	}
	ptrs := make([]*T, len(docs))
	for i := range docs {
		ptrs[i] = &docs[i]
	}
	for _, name := range names {
		fn, ok := s.populate[name]
		if !ok {
			return fmt.Errorf("unknown relation %q on %s", name, s.coll.Name())
		}
		if err := fn(ctx, ptrs); err != nil {
			return fmt.Errorf("failed to populate %s: %w", name, err)
		}
	}
	return nil
}

func (s *MongoStore[T]) Create(ctx context.Context, doc *T) error {
	if p, ok := any(doc).(inserter); ok {
		p.PrepareInsert(s.now().UTC())
	}
	for _, fn := range s.beforeWrite {
		fn(doc, nil)
	}
	if err := Validate(doc); err != nil {
		return err
	}

	insertCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	if _, err := s.coll.InsertOne(insertCtx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return err
		}
		return fmt.Errorf("failed to create %s document: %w", s.coll.Name(), err)
	}
	s.runAfterWrite(ctx, nil, doc)
	return nil
}

func (s *MongoStore[T]) FindByIDAndUpdate(ctx context.Context, id string, patch bson.M) (*T, error) {
	oid, err := query.ParseID(id)
	if err != nil {
		return nil, err
	}
	if err := s.checkPatch(patch); err != nil {
		return nil, err
	}

	before, err := s.FindOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, err
	}
	update, err := s.updateFor(before, patch)
	if err != nil {
		return nil, err
	}
	if len(update) == 0 {
		return before, nil
	}

	updateCtx, cancel := s.withTimeout(ctx)
	defer cancel()
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var after T
	err = s.coll.FindOneAndUpdate(updateCtx, s.scoped(bson.M{"_id": oid}), update, opts).Decode(&after)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update %s document %s: %w", s.coll.Name(), id, err)
	}
	s.runAfterWrite(ctx, before, &after)
	return &after, nil
}

// UpdateFields writes raw fields without validation. Used for server
// maintained values such as derived ratings or credentials.
func (s *MongoStore[T]) UpdateFields(ctx context.Context, filter bson.M, set bson.M) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, err := s.coll.UpdateMany(ctx, s.scoped(filter), bson.M{"$set": set})
	if err != nil {
		return 0, fmt.Errorf("failed to update %s: %w", s.coll.Name(), err)
	}
	return res.MatchedCount, nil
}

func (s *MongoStore[T]) FindByIDAndDelete(ctx context.Context, id string) (*T, error) {
	oid, err := query.ParseID(id)
	if err != nil {
		return nil, err
	}
	deleteCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc T
	if err := s.coll.FindOneAndDelete(deleteCtx, s.scoped(bson.M{"_id": oid})).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete %s document %s: %w", s.coll.Name(), id, err)
	}
	s.runAfterWrite(ctx, &doc, nil)
	return &doc, nil
}

func (s *MongoStore[T]) CountDocuments(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	n, err := s.coll.CountDocuments(ctx, s.scoped(filter))
	if err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", s.coll.Name(), err)
	}
	return n, nil
}

// Aggregate runs a pipeline and decodes every result into out.
func (s *MongoStore[T]) Aggregate(ctx context.Context, pipeline mongo.Pipeline, out any) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("failed to aggregate %s: %w", s.coll.Name(), err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("failed to decode %s aggregate: %w", s.coll.Name(), err)
	}
	return nil
}

// runAfterWrite runs every hook once the write is committed. Failures are
// logged; the write itself already succeeded.
func (s *MongoStore[T]) runAfterWrite(ctx context.Context, before, after *T) {
	for _, fn := range s.afterWrite {
		if err := fn(ctx, before, after); err != nil {
			s.logger.Error("After write hook failed", zap.String("collection", s.collectionName()), zap.Error(err))
		}
	}
}

func (s *MongoStore[T]) collectionName() string {
	if s.coll == nil {
		return ""
	}
	return s.coll.Name()
}

// checkPatch rejects keys that are not stored fields of T or that a client
// cannot express.
func (s *MongoStore[T]) checkPatch(patch bson.M) error {
	for key := range patch {
		_, hidden := s.hidden[key]
		if !s.schema.HasField(key) || key == "_id" || hidden {
			return &CastError{Path: key, Value: "field cannot be updated"}
		}
	}
	return nil
}

// updateFor merges patch into before, derives and validates the result and
// returns the update document for the changed keys. An empty update means
// nothing to write.
func (s *MongoStore[T]) updateFor(before *T, patch bson.M) (bson.M, error) {
	next, err := merge(before, patch)
	if err != nil {
		return nil, err
	}
	s.keepHidden(before, next)

	changed := make(map[string]struct{}, len(patch))
	for key := range patch {
		changed[key] = struct{}{}
	}
	for _, fn := range s.beforeWrite {
		fn(next, changed)
	}
	if err := Validate(next); err != nil {
		return nil, err
	}

	set, unset, err := s.changes(next, changed)
	if err != nil {
		return nil, err
	}
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update, nil
}

// keepHidden copies fields the JSON merge cannot carry from current to next.
func (s *MongoStore[T]) keepHidden(current, next *T) {
	if len(s.hidden) == 0 {
		return
	}
	from, to := reflect.ValueOf(current).Elem(), reflect.ValueOf(next).Elem()
	for _, i := range s.hidden {
		to.Field(i).Set(from.Field(i))
	}
}

func jsonHidden(t reflect.Type) map[string]int {
	hidden := map[string]int{}
	if t == nil || t.Kind() != reflect.Struct {
		return hidden
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() || f.Tag.Get("json") != "-" {
			continue
		}
		name := strings.SplitN(f.Tag.Get("bson"), ",", 2)[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		hidden[name] = i
	}
	return hidden
}

// changes picks the stored form of every patched key from the merged document.
func (s *MongoStore[T]) changes(next *T, changed map[string]struct{}) (bson.M, bson.M, error) {
	raw, err := bson.Marshal(next)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode %s document: %w", s.collectionName(), err)
	}
	var stored bson.M
	if err := bson.Unmarshal(raw, &stored); err != nil {
		return nil, nil, fmt.Errorf("failed to encode %s document: %w", s.collectionName(), err)
	}
	set, unset := bson.M{}, bson.M{}
	for key := range changed {
		if v, ok := stored[key]; ok {
			set[key] = v
		} else {
			unset[key] = ""
		}
	}
	return set, unset, nil
}

// merge overlays a client patch on the current document through the
// document's JSON form so ids and timestamps decode the same way as on create.
func merge[T any](current *T, patch bson.M) (*T, error) {
	base, err := json.Marshal(current)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	for key, value := range patch {
		b, err := json.Marshal(value)
		if err != nil {
			return nil, &CastError{Path: key, Value: fmt.Sprint(value)}
		}
		fields[key] = b
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	var next T
	if err := json.Unmarshal(merged, &next); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &CastError{Path: typeErr.Field, Value: typeErr.Value}
		}
		return nil, &CastError{Path: "body", Value: err.Error()}
	}
	return &next, nil
}
