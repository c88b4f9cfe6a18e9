// Package templates resolves display texts and inline keyboards from the
// YAML template file.
package templates

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/m3rciful/subbot/core/logger"
)

// KeyError reports a template path that does not resolve to a scalar.
type KeyError struct {
	Path   []string
	Reason string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("template %q: %s", strings.Join(e.Path, "."), e.Reason)
}

// Code classifies the error for handler summaries.
func (e *KeyError) Code() string { return "TEMPLATE_KEY" }

// LoadError reports that the template file could not be read or parsed.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load templates %s: %v", e.Path, e.Err) }

// Unwrap returns the underlying I/O or parse error.
func (e *LoadError) Unwrap() error { return e.Err }

// Code classifies the error for handler summaries.
func (e *LoadError) Code() string { return "STORE_IO" }

// Store is an immutable snapshot of the template file.
type Store struct {
	root *yaml.Node
}

// Parse builds a Store from raw YAML.
func Parse(data []byte) (*Store, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	root := &doc
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		root = doc.Content[0]
	}
	return &Store{root: root}, nil
}

// Lookup walks path key by key and returns the scalar at its end.
func (s *Store) Lookup(path ...string) (string, error) {
	if len(path) == 0 {
		return "", &KeyError{Reason: "empty path"}
	}
	node := s.root
	for i, key := range path {
		if node == nil || node.Kind != yaml.MappingNode {
			return "", &KeyError{Path: path, Reason: fmt.Sprintf("%q is not a mapping", strings.Join(path[:i], "."))}
		}
		node = child(node, key)
		if node == nil {
			return "", &KeyError{Path: path, Reason: fmt.Sprintf("key %q not found", key)}
		}
	}
	if node.Kind == yaml.AliasNode && node.Alias != nil {
		node = node.Alias
	}
	if node.Kind != yaml.ScalarNode {
		return "", &KeyError{Path: path, Reason: "value is not a scalar"}
	}
	return node.Value, nil
}

func child(mapping *yaml.Node, key string) *yaml.Node {
	// Content alternates key and value nodes; the first match wins.
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			v := mapping.Content[i+1]
			if v.Kind == yaml.AliasNode && v.Alias != nil {
				return v.Alias
			}
			return v
		}
	}
	return nil
}

// Loader reads the template file from disk.
type Loader struct {
	path string
}

// NewLoader returns a Loader for the template file at path.
func NewLoader(path string) *Loader {
	return &Loader{path: path}
}

// Load re-reads the file on every call so edits are picked up without a restart.
func (l *Loader) Load(ctx context.Context) (*Store, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		logger.Error(ctx, logger.CompTemplates, "templates.load",
			slog.String("status", "fail"),
			slog.String("path", l.path),
			slog.String("err", err.Error()),
		)
		return nil, &LoadError{Path: l.path, Err: err}
	}
	store, err := Parse(data)
	if err != nil {
		logger.Error(ctx, logger.CompTemplates, "templates.parse",
			slog.String("status", "fail"),
			slog.String("path", l.path),
			slog.String("err", err.Error()),
		)
		return nil, &LoadError{Path: l.path, Err: err}
	}
	return store, nil
}

// Renderer loads a fresh Store and wraps it in a Renderer.
func (l *Loader) Renderer(ctx context.Context) (*Renderer, error) {
	store, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	return NewRenderer(store), nil
}
