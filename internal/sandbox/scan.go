package sandbox

import (
	"fmt"
	"math"
	"reflect"
	"regexp"
	"time"
)

const maxScanDepth = 64

// hazard is one JSON-unsafe value found inside an engine state. Path points
// at the offending value in JSON notation, e.g. ".data.items[2].createdAt".
type hazard struct {
	Path   string
	Reason string
}

var (
	timeType   = reflect.TypeOf(time.Time{})
	regexpType = reflect.TypeOf(regexp.Regexp{})
)

// scanValue recursively walks v and collects every value a JSON round trip
// would corrupt or drop. The production host serializes states with plain
// JSON and loses such values silently, so the development tool surfaces
// them as advisories instead of failing.
func scanValue(v reflect.Value, path string, depth int) []hazard {
	if !v.IsValid() || depth > maxScanDepth {
		return nil
	}

	switch v.Kind() {
	case reflect.Func:
		if v.IsNil() {
			return nil
		}
		return []hazard{{Path: path, Reason: "function values are dropped by JSON serialization"}}

	case reflect.Chan:
		if v.IsNil() {
			return nil
		}
		return []hazard{{Path: path, Reason: "channel values cannot be JSON-serialized"}}

	case reflect.Complex64, reflect.Complex128:
		return []hazard{{Path: path, Reason: "complex numbers cannot be JSON-serialized"}}

	case reflect.UnsafePointer, reflect.Uintptr:
		return []hazard{{Path: path, Reason: "raw pointers cannot be JSON-serialized"}}

	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return []hazard{{Path: path, Reason: "NaN and Inf are rejected by JSON serialization"}}
		}
		return nil

	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return scanValue(v.Elem(), path, depth+1)

	case reflect.Slice, reflect.Array:
		var found []hazard
		for i := 0; i < v.Len(); i++ {
			found = append(found, scanValue(v.Index(i), fmt.Sprintf("%s[%d]", path, i), depth+1)...)
		}
		return found

	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return []hazard{{Path: path, Reason: "map keys must be strings to survive JSON serialization"}}
		}
		var found []hazard
		for _, key := range v.MapKeys() {
			found = append(found, scanValue(v.MapIndex(key), path+"."+key.String(), depth+1)...)
		}
		return found

	case reflect.Struct:
		if v.Type() == timeType {
			return []hazard{{Path: path, Reason: "time.Time round-trips through JSON as a plain string"}}
		}
		if v.Type() == regexpType {
			return []hazard{{Path: path, Reason: "regexp values cannot be JSON-serialized"}}
		}
		var found []hazard
		for i := 0; i < v.NumField(); i++ {
			field := v.Type().Field(i)
			if !field.IsExported() {
				continue
			}
			found = append(found, scanValue(v.Field(i), path+"."+jsonName(field), depth+1)...)
		}
		return found

	default:
		return nil
	}
}

// jsonName returns the name a struct field serializes under.
func jsonName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return field.Name
	}
	for i := 0; i < len(tag); i++ {
		if tag[i] == ',' {
			if i == 0 {
				return field.Name
			}
			return tag[:i]
		}
	}
	return tag
}
