package query

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Kind is the stored type of a document field.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
	KindObjectID
)

var (
	timeType     = reflect.TypeOf(time.Time{})
	objectIDType = reflect.TypeOf(primitive.ObjectID{})
)

// Schema maps dotted bson paths of a model to their kinds.
type Schema struct {
	kinds map[string]Kind
	top   map[string]bool
}

// SchemaOf reflects the bson tags of a struct value. Fields tagged "-" are
// not part of the schema.
func SchemaOf(v any) Schema {
	s := Schema{kinds: map[string]Kind{}, top: map[string]bool{}}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	s.walk(t, "", true)
	return s
}

func (s Schema) walk(t reflect.Type, prefix string, root bool) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.Split(f.Tag.Get("bson"), ",")[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		path := prefix + name
		if root {
			s.top[name] = true
		}

		ft := f.Type
		for ft.Kind() == reflect.Pointer || ft.Kind() == reflect.Slice {
			ft = ft.Elem()
		}
		switch {
		case ft == timeType:
			s.kinds[path] = KindTime
		case ft == objectIDType:
			s.kinds[path] = KindObjectID
		case ft.Kind() == reflect.Struct:
			s.walk(ft, path+".", false)
		default:
			s.kinds[path] = kindOf(ft.Kind())
		}
	}
}

func kindOf(k reflect.Kind) Kind {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return KindInt
	case reflect.Float32, reflect.Float64:
		return KindFloat
	case reflect.Bool:
		return KindBool
	default:
		return KindString
	}
}

// HasField reports whether name is a top-level stored field.
func (s Schema) HasField(name string) bool {
	return s.top[name]
}

// Kind returns the kind of a dotted path.
func (s Schema) Kind(path string) (Kind, bool) {
	k, ok := s.kinds[path]
	return k, ok
}

// Cast converts a raw query string to the stored type of path. Unknown paths
// are compared as strings.
func (s Schema) Cast(path, raw string) (any, error) {
	if path == "_id" {
		return castObjectID(path, raw)
	}
	kind, ok := s.kinds[path]
	if !ok {
		return raw, nil
	}
	switch kind {
	case KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			// "4.5" against an integer field is still a valid number to compare with.
			f, ferr := strconv.ParseFloat(raw, 64)
			if ferr != nil {
				return nil, &CastError{Path: path, Value: raw}
			}
			return f, nil
		}
		return n, nil
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, &CastError{Path: path, Value: raw}
		}
		return f, nil
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, &CastError{Path: path, Value: raw}
		}
		return b, nil
	case KindTime:
		return castTime(path, raw)
	case KindObjectID:
		return castObjectID(path, raw)
	}
	return raw, nil
}

func castTime(path, raw string) (any, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return nil, &CastError{Path: path, Value: raw}
}

func castObjectID(path, raw string) (any, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return nil, &CastError{Path: path, Value: raw}
	}
	return id, nil
}

// ParseID converts a hex identifier into an ObjectID.
func ParseID(raw string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, &CastError{Path: "_id", Value: raw}
	}
	return id, nil
}
