package query

import (
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	DefaultPage  = 1
	DefaultLimit = 100
	DefaultSort  = "-createdAt"
)

var reserved = map[string]bool{"page": true, "sort": true, "limit": true, "fields": true}

var operators = map[string]string{"gte": "$gte", "gt": "$gt", "lte": "$lte", "lt": "$lt"}

var bracketKey = regexp.MustCompile(`^([A-Za-z0-9_.]+)\[([A-Za-z]+)\]$`)

// unsafePath reports a client supplied path that would reach the store as an
// operator or positional update.
func unsafePath(path string) bool {
	return strings.Contains(path, "$")
}

// Features turns URL query parameters into a store query. Steps are pure
// and must be applied in the order ApplyFilter, ApplySort, LimitFields, Paginate.
type Features struct {
	params url.Values
	schema Schema
	err    error

	Filter     bson.M
	Sort       bson.D
	Projection bson.M
	Page       int64
	Skip       int64
	Limit      int64
}

// New starts a query over params. base is merged into the filter and wins
// over any client supplied key of the same name.
func New(base bson.M, params url.Values, schema Schema) *Features {
	f := &Features{params: params, schema: schema, Filter: bson.M{}}
	for k, v := range base {
		f.Filter[k] = v
	}
	return f
}

// last returns the final occurrence of a repeated parameter.
func (f *Features) last(key string) string {
	vs := f.params[key]
	if len(vs) == 0 {
		return ""
	}
	return vs[len(vs)-1]
}

func (f *Features) Err() error {
	return f.err
}

func (f *Features) ApplyFilter() *Features {
	if f.err != nil {
		return f
	}
	base := make(map[string]bool, len(f.Filter))
	for k := range f.Filter {
		base[k] = true
	}

	keys := make([]string, 0, len(f.params))
	for k := range f.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if key == "" || reserved[key] {
			continue
		}
		raw := f.last(key)
		if unsafePath(key) {
			f.err = &CastError{Path: key, Value: raw}
			return f
		}

		field, op := key, ""
		if m := bracketKey.FindStringSubmatch(key); m != nil {
			field, op = m[1], m[2]
		} else if strings.ContainsAny(key, "[]") {
			f.err = &CastError{Path: key, Value: raw}
			return f
		}
		if base[field] {
			continue
		}

		value, err := f.schema.Cast(field, raw)
		if err != nil {
			f.err = err
			return f
		}

		if op == "" {
			f.Filter[field] = value
			continue
		}
		mongoOp, ok := operators[op]
		if !ok {
			f.err = &CastError{Path: field, Value: "unsupported operator " + op}
			return f
		}
		cond, ok := f.Filter[field].(bson.M)
		if !ok {
			cond = bson.M{}
		}
		cond[mongoOp] = value
		f.Filter[field] = cond
	}
	return f
}

func (f *Features) ApplySort() *Features {
	if f.err != nil {
		return f
	}
	raw := f.last("sort")
	if strings.TrimSpace(raw) == "" {
		raw = DefaultSort
	}
	var out bson.D
	hasID := false
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "-" {
			continue
		}
		dir := 1
		if strings.HasPrefix(part, "-") {
			dir, part = -1, part[1:]
		}
		if unsafePath(part) {
			f.err = &CastError{Path: "sort", Value: raw}
			return f
		}
		if part == "_id" {
			hasID = true
		}
		out = append(out, bson.E{Key: part, Value: dir})
	}
	if len(out) == 0 {
		out = bson.D{{Key: "createdAt", Value: -1}}
	}
	// Equal sort keys would otherwise page nondeterministically.
	if !hasID {
		out = append(out, bson.E{Key: "_id", Value: 1})
	}
	f.Sort = out
	return f
}

func (f *Features) LimitFields() *Features {
	if f.err != nil {
		return f
	}
	raw := f.last("fields")
	proj := bson.M{}
	include, exclude := false, false
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "-" {
			continue
		}
		if unsafePath(part) {
			f.err = &CastError{Path: "fields", Value: raw}
			return f
		}
		if strings.HasPrefix(part, "-") {
			proj[part[1:]] = 0
			if part[1:] != "_id" {
				exclude = true
			}
			continue
		}
		proj[part] = 1
		include = true
	}
	if include && exclude {
		f.err = &CastError{Path: "fields", Value: raw}
		return f
	}
	if len(proj) == 0 {
		proj["__v"] = 0
	}
	f.Projection = proj
	return f
}

func (f *Features) Paginate() *Features {
	if f.err != nil {
		return f
	}
	f.Page = positive(f.last("page"), DefaultPage)
	f.Limit = positive(f.last("limit"), DefaultLimit)
	f.Skip = (f.Page - 1) * f.Limit
	return f
}

func positive(raw string, def int64) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 1 {
		return def
	}
	return n
}

// Build applies every step in order.
func Build(base bson.M, params url.Values, schema Schema) (*Features, error) {
	f := New(base, params, schema).ApplyFilter().ApplySort().LimitFields().Paginate()
	return f, f.Err()
}
