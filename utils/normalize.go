package utils

import (
	"reflect"
	"strings"
)

// NormalizePtrDTO trims the *string fields of a pointer-to-struct DTO.
// Only non-nil pointer fields are touched; nils stay nil so GORM won't update them.
// Fields tagged `normalize:"-"` are left alone.
//
// Decimals pass through untouched: the ledger rejects excess precision
// instead of rounding it away.
func NormalizePtrDTO(dto any) {
	s, ok := structOf(dto)
	if !ok {
		return
	}
	t := s.Type()
	for i := 0; i < s.NumField(); i++ {
		f := s.Field(i)
		if t.Field(i).Tag.Get("normalize") == "-" || f.Kind() != reflect.Ptr || f.IsNil() {
			continue
		}
		trimString(f.Elem())
	}
}

// NormalizeDTO trims the string fields of a create DTO.
func NormalizeDTO(dto any) {
	s, ok := structOf(dto)
	if !ok {
		return
	}
	t := s.Type()
	for i := 0; i < s.NumField(); i++ {
		if t.Field(i).Tag.Get("normalize") == "-" {
			continue
		}
		trimString(s.Field(i))
	}
}

func structOf(dto any) (reflect.Value, bool) {
	v := reflect.ValueOf(dto)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return reflect.Value{}, false
	}
	s := v.Elem()
	return s, s.Kind() == reflect.Struct
}

func trimString(f reflect.Value) {
	if f.CanSet() && f.Kind() == reflect.String {
		f.SetString(strings.TrimSpace(f.String()))
	}
}
