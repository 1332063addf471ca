package utils

import (
	"reflect"
	"strconv"
	"strings"
)

// UpdatesFromPtrDTO turns the set (non-nil) pointer fields of a patch DTO into
// a GORM Updates map keyed by JSON name. renames maps a JSON name to a column
// when the two differ.
func UpdatesFromPtrDTO(dto any, renames map[string]string) map[string]any {
	res := make(map[string]any)
	s, ok := structOf(dto)
	if !ok {
		return res
	}
	t := s.Type()
	for i := 0; i < t.NumField(); i++ {
		fv := s.Field(i)
		if fv.Kind() != reflect.Ptr || fv.IsNil() {
			continue
		}
		name := jsonName(t.Field(i))
		if name == "" {
			continue
		}
		if alt, ok := renames[name]; ok && alt != "" {
			name = alt
		}
		res[name] = fv.Elem().Interface()
	}
	return res
}

func jsonName(sf reflect.StructField) string {
	tag := sf.Tag.Get("json")
	if tag == "" || tag == "-" {
		return ""
	}
	return strings.Split(tag, ",")[0]
}

// ParseIntDefault parses a non-negative int, falling back to def.
func ParseIntDefault(s string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil && v >= 0 {
		return v
	}
	return def
}

// ParseIntBounded is ParseIntDefault capped at max.
func ParseIntBounded(s string, def, max int) int {
	if v := ParseIntDefault(s, def); v <= max {
		return v
	}
	return max
}
