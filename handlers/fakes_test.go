package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tourbook/database/query"
	"tourbook/database/repository"
	"tourbook/middleware"
	"tourbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memStore is an in-memory Store that understands equality and the numeric
// range operators produced by the query builder.
type memStore[T any] struct {
	docs []T
	idOf func(*T) primitive.ObjectID
	last *query.Features
}

func (m *memStore[T]) index(id string) (int, error) {
	oid, err := query.ParseID(id)
	if err != nil {
		return -1, err
	}
	for i := range m.docs {
		if m.idOf(&m.docs[i]) == oid {
			return i, nil
		}
	}
	return -1, repository.ErrNotFound
}

func (m *memStore[T]) matching(filter bson.M) []T {
	var out []T
	for _, d := range m.docs {
		if matches(d, filter) {
			out = append(out, d)
		}
	}
	return out
}

func (m *memStore[T]) Find(_ context.Context, f *query.Features, _ ...string) ([]T, error) {
	m.last = f
	all := m.matching(f.Filter)
	start := int(f.Skip)
	if start > len(all) {
		start = len(all)
	}
	end := start + int(f.Limit)
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (m *memStore[T]) FindByID(_ context.Context, id string, _ ...string) (*T, error) {
	i, err := m.index(id)
	if err != nil {
		return nil, err
	}
	doc := m.docs[i]
	return &doc, nil
}

func (m *memStore[T]) Create(_ context.Context, doc *T) error {
	if p, ok := any(doc).(interface{ PrepareInsert(time.Time) }); ok {
		p.PrepareInsert(time.Now())
	}
	m.docs = append(m.docs, *doc)
	return nil
}

func (m *memStore[T]) FindByIDAndUpdate(_ context.Context, id string, patch bson.M) (*T, error) {
	i, err := m.index(id)
	if err != nil {
		return nil, err
	}
	current, _ := json.Marshal(m.docs[i])
	var merged map[string]any
	_ = json.Unmarshal(current, &merged)
	for k, v := range patch {
		merged[k] = v
	}
	raw, _ := json.Marshal(merged)
	var next T
	if err := json.Unmarshal(raw, &next); err != nil {
		return nil, err
	}
	m.docs[i] = next
	return &next, nil
}

func (m *memStore[T]) FindByIDAndDelete(_ context.Context, id string) (*T, error) {
	i, err := m.index(id)
	if err != nil {
		return nil, err
	}
	doc := m.docs[i]
	m.docs = append(m.docs[:i], m.docs[i+1:]...)
	return &doc, nil
}

func (m *memStore[T]) CountDocuments(_ context.Context, filter bson.M) (int64, error) {
	return int64(len(m.matching(filter))), nil
}

func (m *memStore[T]) Schema() query.Schema {
	var zero T
	return query.SchemaOf(zero)
}

// matches compares the bson form of doc with a flat filter.
func matches(doc any, filter bson.M) bool {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return false
	}
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		return false
	}
	for key, want := range filter {
		got := fields[key]
		ops, isOps := want.(bson.M)
		if !isOps {
			if got != want {
				return false
			}
			continue
		}
		n, ok := got.(float64)
		if !ok {
			return false
		}
		for op, v := range ops {
			bound, _ := v.(float64)
			switch op {
			case "$gte":
				ok = n >= bound
			case "$gt":
				ok = n > bound
			case "$lte":
				ok = n <= bound
			case "$lt":
				ok = n < bound
			}
			if !ok {
				return false
			}
		}
	}
	return true
}

// asCaller injects an authenticated caller the way Protect does.
func asCaller(entry *utils.AuthEntry) gin.HandlerFunc {
	return func(c *gin.Context) {
		if entry != nil {
			c.Set(middleware.AuthUserKey, entry)
		}
		c.Next()
	}
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(utils.ErrorHandler())
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
