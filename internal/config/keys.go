package config

import (
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
)

// Key addresses a field of Config by its YAML path, e.g. "chat.recommendationCount".
type Key struct {
	Path []string
	Kind reflect.Kind // reflect.Struct for sections
}

func (k Key) String() string {
	return strings.Join(k.Path, ".")
}

// IsSection reports whether the key names a group of settings rather than a value.
func (k Key) IsSection() bool {
	return k.Kind == reflect.Struct
}

// Parse converts a command-line value to the key's type.
func (k Key) Parse(s string) (any, error) {
	switch k.Kind {
	case reflect.String:
		return s, nil
	case reflect.Int:
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, &ConfigError{Message: fmt.Sprintf("%s expects an integer, got %q", k, s)}
		}
		return n, nil
	case reflect.Struct:
		return nil, &ConfigError{Message: fmt.Sprintf("%s is a section, set one of its keys instead", k)}
	default:
		return nil, &ConfigError{Message: fmt.Sprintf("%s has unsupported type %s", k, k.Kind)}
	}
}

// ParseKey resolves a dotted path against Config's YAML field names.
// Unknown names are rejected.
func ParseKey(raw string) (Key, error) {
	path, err := splitKey(raw)
	if err != nil {
		return Key{}, err
	}

	t := reflect.TypeOf(Config{})
	for i, name := range path {
		if t.Kind() != reflect.Struct {
			return Key{}, &ConfigError{Message: fmt.Sprintf("unknown config key %q: %s is not a section", raw, strings.Join(path[:i], "."))}
		}
		f, ok := fieldByYAMLName(t, name)
		if !ok {
			return Key{}, &ConfigError{Message: fmt.Sprintf("unknown config key %q", raw)}
		}
		t = f.Type
	}
	return Key{Path: path, Kind: t.Kind()}, nil
}

// Keys lists every settable key in declaration order.
func Keys() []Key {
	var keys []Key
	collectKeys(reflect.TypeOf(Config{}), nil, &keys)
	return keys
}

func collectKeys(t reflect.Type, prefix []string, out *[]Key) {
	for i := range t.NumField() {
		f := t.Field(i)
		name := yamlName(f)
		if name == "" {
			continue
		}
		path := append(slices.Clone(prefix), name)
		if f.Type.Kind() == reflect.Struct {
			collectKeys(f.Type, path, out)
			continue
		}
		*out = append(*out, Key{Path: path, Kind: f.Type.Kind()})
	}
}

func splitKey(raw string) ([]string, error) {
	if raw == "" {
		return nil, &ConfigError{Message: "empty config key"}
	}
	path := strings.Split(raw, ".")
	if slices.Contains(path, "") {
		return nil, &ConfigError{Message: fmt.Sprintf("config key %q contains an empty segment", raw)}
	}
	return path, nil
}

func fieldByYAMLName(t reflect.Type, name string) (reflect.StructField, bool) {
	for i := range t.NumField() {
		if f := t.Field(i); yamlName(f) == name {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

// yamlName is the key a field is written under, or "" when it is skipped.
func yamlName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
	if name == "-" || !f.IsExported() {
		return ""
	}
	return name
}
