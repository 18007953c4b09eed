package cache

import (
	"encoding"
	"encoding/json"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Undefined marks a parameter that is absent, as opposed to explicitly null.
// Canonical renders it as "undefined" so the two never collide.
var Undefined = undefined{}

type undefined struct{}

// Canonical returns the canonical serialization of v.
//
// Mappings (maps and structs) are rendered with keys sorted lexicographically,
// slices and arrays keep their element order, strings are quoted and numbers
// are normalized so that int 1 and float64 1 agree. nil renders as "null" and
// Undefined as "undefined". Canonical is total: it never fails or panics on
// plain data.
func Canonical(v any) string {
	var b strings.Builder
	writeCanonical(&b, v)
	return b.String()
}

func writeCanonical(b *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
		return
	case undefined:
		b.WriteString("undefined")
		return
	case string:
		b.WriteString(strconv.Quote(val))
		return
	case bool:
		b.WriteString(strconv.FormatBool(val))
		return
	case json.Number:
		if f, err := val.Float64(); err == nil {
			writeFloat(b, f)
			return
		}
		b.WriteString(strconv.Quote(val.String()))
		return
	case map[string]any:
		writeStringMap(b, val)
		return
	case []any:
		b.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, elem)
		}
		b.WriteByte(']')
		return
	case encoding.TextMarshaler:
		if rv := reflect.ValueOf(val); rv.Kind() == reflect.Pointer && rv.IsNil() {
			b.WriteString("null")
			return
		}
		text, err := val.MarshalText()
		if err == nil {
			b.WriteString(strconv.Quote(string(text)))
			return
		}
	}
	writeReflect(b, reflect.ValueOf(v))
}

func writeStringMap(b *strings.Builder, m map[string]any) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte(':')
		writeCanonical(b, m[k])
	}
	b.WriteByte('}')
}

func writeReflect(b *strings.Builder, rv reflect.Value) {
	switch rv.Kind() {
	case reflect.Invalid:
		b.WriteString("null")
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			b.WriteString("null")
			return
		}
		writeCanonical(b, rv.Elem().Interface())
	case reflect.Bool:
		b.WriteString(strconv.FormatBool(rv.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(rv.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		b.WriteString(strconv.FormatUint(rv.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		writeFloat(b, rv.Float())
	case reflect.String:
		b.WriteString(strconv.Quote(rv.String()))
	case reflect.Slice:
		if rv.IsNil() {
			b.WriteString("null")
			return
		}
		writeList(b, rv)
	case reflect.Array:
		writeList(b, rv)
	case reflect.Map:
		if rv.IsNil() {
			b.WriteString("null")
			return
		}
		writeMap(b, rv)
	case reflect.Struct:
		writeStruct(b, rv)
	default:
		// Funcs, channels and complex numbers carry no parameter data.
		b.WriteString(strconv.Quote(rv.Type().String()))
	}
}

// writeFloat spells out NaN and the infinities so they never collide with
// null or with each other.
func writeFloat(b *strings.Builder, f float64) {
	switch {
	case math.IsNaN(f):
		b.WriteString("NaN")
	case math.IsInf(f, 1):
		b.WriteString("Infinity")
	case math.IsInf(f, -1):
		b.WriteString("-Infinity")
	default:
		b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
}

func writeList(b *strings.Builder, rv reflect.Value) {
	b.WriteByte('[')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		writeCanonical(b, rv.Index(i).Interface())
	}
	b.WriteByte(']')
}

type canonicalPair struct {
	key   string
	value any
}

func writeMap(b *strings.Builder, rv reflect.Value) {
	pairs := make([]canonicalPair, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, canonicalPair{
			key:   mapKeyString(iter.Key()),
			value: iter.Value().Interface(),
		})
	}
	writePairs(b, pairs)
}

func mapKeyString(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	if k.Kind() == reflect.Interface && !k.IsNil() && k.Elem().Kind() == reflect.String {
		return k.Elem().String()
	}
	return Canonical(k.Interface())
}

func writeStruct(b *strings.Builder, rv reflect.Value) {
	pairs := make([]canonicalPair, 0, rv.NumField())
	pairs = appendStructFields(pairs, rv)
	writePairs(b, pairs)
}

// appendStructFields collects exported fields under their JSON names,
// flattening untagged embedded structs the way encoding/json does.
func appendStructFields(pairs []canonicalPair, rv reflect.Value) []canonicalPair {
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		value := rv.Field(i)

		name, omitEmpty, skip := jsonFieldName(field)
		if skip {
			continue
		}

		if field.Anonymous && field.Tag.Get("json") == "" {
			inner := value
			if inner.Kind() == reflect.Pointer {
				if inner.IsNil() {
					continue
				}
				inner = inner.Elem()
			}
			if inner.Kind() == reflect.Struct {
				pairs = appendStructFields(pairs, inner)
				continue
			}
		}

		if !field.IsExported() || !value.CanInterface() {
			continue
		}
		if omitEmpty && value.IsZero() {
			continue
		}
		pairs = append(pairs, canonicalPair{key: name, value: value.Interface()})
	}
	return pairs
}

func jsonFieldName(field reflect.StructField) (name string, omitEmpty bool, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	name = field.Name
	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		name = parts[0]
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" || opt == "omitzero" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}

func writePairs(b *strings.Builder, pairs []canonicalPair) {
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].key < pairs[j].key })

	b.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(p.key))
		b.WriteByte(':')
		writeCanonical(b, p.value)
	}
	b.WriteByte('}')
}
