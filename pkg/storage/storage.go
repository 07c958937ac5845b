// Package storage reads and writes models as YAML documents.
//
// The document holds model data only. Loading never records undo actions, and callers
// are expected to clear the undo history after loading a different model.
package storage

import (
	"fmt"
	"io"

	"github.com/esantoro/gaphor/pkg/domain"
	"github.com/esantoro/gaphor/pkg/model"
	"gopkg.in/yaml.v3"
)

// FormatVersion is written to every document.
const FormatVersion = "1"

// Document is the on-disk layout of a model.
type Document struct {
	Version  string          `yaml:"version"`
	Snapshot domain.Snapshot `yaml:",inline"`
}

// Save writes the model held by factory to w.
func Save(w io.Writer, factory *model.Factory) error {
	return Encode(w, factory.Snapshot())
}

// Load replaces the contents of factory with the model read from r.
func Load(r io.Reader, factory *model.Factory) error {
	snap, err := Decode(r)
	if err != nil {
		return err
	}
	return factory.Replace(snap)
}

// Encode writes a snapshot as a YAML document.
func Encode(w io.Writer, snap *domain.Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Document{Version: FormatVersion, Snapshot: *snap}); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return enc.Close()
}

// Decode reads a snapshot from a YAML document.
func Decode(r io.Reader) (*domain.Snapshot, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return &domain.Snapshot{}, nil
		}
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if doc.Version != "" && doc.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported model format version %q", doc.Version)
	}
	return &doc.Snapshot, nil
}

// Marshal returns the YAML document for a snapshot.
func Marshal(snap *domain.Snapshot) ([]byte, error) {
	data, err := yaml.Marshal(Document{Version: FormatVersion, Snapshot: *snap})
	if err != nil {
		return nil, fmt.Errorf("failed to encode model: %w", err)
	}
	return data, nil
}

// Unmarshal parses a YAML document into a snapshot.
func Unmarshal(data []byte) (*domain.Snapshot, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if doc.Version != "" && doc.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported model format version %q", doc.Version)
	}
	return &doc.Snapshot, nil
}
