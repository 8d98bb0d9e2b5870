package config

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is an editable config file. Edits are checked against the Config
// schema and validation rules before they are accepted, so a saved file
// always loads cleanly.
type File struct {
	path string
	raw  map[string]any
}

// OpenFile reads the config file at path. A missing file opens empty.
func OpenFile(path string) (*File, error) {
	raw, err := LoadRaw(path)
	if err != nil {
		return nil, err
	}
	return &File{path: path, raw: raw}, nil
}

// Path is where Save writes.
func (f *File) Path() string { return f.path }

// Get returns the value for name. When the file does not set it, the
// default is returned with fromFile false.
func (f *File) Get(name string) (v any, fromFile bool, err error) {
	key, err := ParseKey(name)
	if err != nil {
		return nil, false, err
	}
	if v, ok := lookup(f.raw, key.Path); ok {
		return v, true, nil
	}

	defaults, err := toRaw(Defaults())
	if err != nil {
		return nil, false, err
	}
	if v, ok := lookup(defaults, key.Path); ok {
		return v, false, nil
	}
	return nil, false, &ConfigError{Message: fmt.Sprintf("%s is not set", key)}
}

// Set parses value for the named key and stores it. The file is left
// unchanged when the key is unknown or the result would not validate.
func (f *File) Set(name, value string) (any, error) {
	key, err := ParseKey(name)
	if err != nil {
		return nil, err
	}
	v, err := key.Parse(value)
	if err != nil {
		return nil, err
	}

	next := cloneMap(f.raw)
	assign(next, key.Path, v)
	if err := check(next); err != nil {
		return nil, err
	}
	f.raw = next
	return v, nil
}

// Unset removes name from the file so its default applies again. Any path
// stored in the file may be removed, including keys the schema no longer has.
func (f *File) Unset(name string) error {
	path, err := splitKey(name)
	if err != nil {
		return err
	}

	next := cloneMap(f.raw)
	if !remove(next, path) {
		return &ConfigError{Message: fmt.Sprintf("%s is not set", name)}
	}
	if err := check(next); err != nil {
		return err
	}
	f.raw = next
	return nil
}

// Save writes the file back to disk.
func (f *File) Save() error {
	return SaveRaw(f.path, f.raw)
}

// check decodes raw over the defaults, the way Load does, and validates it.
// Unknown keys and mistyped values are errors here even though Load
// tolerates them.
func check(raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}

	cfg := Defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return &ConfigError{Message: "invalid config: " + err.Error()}
	}

	issues := Validate(&cfg)
	if len(issues) == 0 {
		return nil
	}
	msgs := make([]string, len(issues))
	for i, issue := range issues {
		msgs[i] = issue.String()
	}
	return &ConfigError{Message: strings.Join(msgs, "; ")}
}

func toRaw(cfg Config) (map[string]any, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, err
	}
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func lookup(node any, path []string) (any, bool) {
	for _, name := range path {
		m, ok := node.(map[string]any)
		if !ok {
			return nil, false
		}
		if node, ok = m[name]; !ok {
			return nil, false
		}
	}
	return node, true
}

func assign(m map[string]any, path []string, v any) {
	for _, name := range path[:len(path)-1] {
		child, ok := m[name].(map[string]any)
		if !ok {
			child = map[string]any{}
			m[name] = child
		}
		m = child
	}
	m[path[len(path)-1]] = v
}

// remove deletes path from m and prunes sections it leaves empty.
func remove(m map[string]any, path []string) bool {
	if len(path) == 1 {
		if _, ok := m[path[0]]; !ok {
			return false
		}
		delete(m, path[0])
		return true
	}
	child, ok := m[path[0]].(map[string]any)
	if !ok || !remove(child, path[1:]) {
		return false
	}
	if len(child) == 0 {
		delete(m, path[0])
	}
	return true
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
