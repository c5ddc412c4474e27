// Package vars implements the variable store used for deploy config
// substitution.
//
// Variables are loaded from one or more sources (var files, SOPS-encrypted
// secrets files, builtin values); later sources override earlier ones by key
// at the top level. The store supports raw-text substitution of ${var}
// references, applied to the deploy config before YAML parsing so that
// references may appear anywhere in the document, including inside keys.
package vars

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/getsops/sops/v3/decrypt"
	"gopkg.in/yaml.v3"
)

// Set is an ordered mapping of variable names to values. Insertion order of
// first appearance is preserved so that diagnostic dumps are stable.
type Set struct {
	keys   []string
	values map[string]any
}

// New creates an empty variable set.
func New() *Set {
	return &Set{values: make(map[string]any)}
}

// Set assigns a single variable, overriding any previous value.
func (s *Set) Set(key string, value any) {
	if _, ok := s.values[key]; !ok {
		s.keys = append(s.keys, key)
	}
	s.values[key] = value
}

// Get returns the value for key and whether it is present.
func (s *Set) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Load merges a source's key/value pairs into the set. Later loads override
// earlier keys at the top level; nested structures are replaced, not merged.
func (s *Set) Load(source map[string]any) {
	for _, k := range sortedKeys(source) {
		s.Set(k, source[k])
	}
}

// LoadFile reads a var file: one KEY=value assignment per line. Blank lines
// and lines starting with '#' are skipped. Values are kept as strings; the
// template engine handles type fidelity via output markers.
func (s *Set) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open var file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			return fmt.Errorf("%s:%d: expected KEY=value assignment", path, lineNo)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return fmt.Errorf("%s:%d: empty variable name", path, lineNo)
		}
		s.Set(key, strings.TrimSpace(value))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read var file %s: %w", path, err)
	}
	return nil
}

// LoadSOPSFile decrypts a SOPS-encrypted YAML file and merges its top-level
// mapping into the set. Used for per-cluster secrets that should not live in
// plain var files.
func (s *Set) LoadSOPSFile(path string) error {
	plaintext, err := decrypt.File(path, "yaml")
	if err != nil {
		return fmt.Errorf("decrypt %s: %w", path, err)
	}

	var data map[string]any
	if err := yaml.Unmarshal(plaintext, &data); err != nil {
		return fmt.Errorf("parse decrypted %s: %w", path, err)
	}
	s.Load(data)
	return nil
}

// Snapshot returns the set as an ordered list of key/value pairs for
// diagnostics. The returned slice is a copy.
func (s *Set) Snapshot() []KV {
	out := make([]KV, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, KV{Key: k, Value: s.values[k]})
	}
	return out
}

// Scope returns a copy of the set as a plain map for template rendering.
func (s *Set) Scope() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Len returns the number of variables in the set.
func (s *Set) Len() int {
	return len(s.keys)
}

// KV is a single snapshot entry.
type KV struct {
	Key   string
	Value any
}
