// Package catalog loads the dataset catalog: the built-in sales datasets or a
// YAML document replacing them.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"lakeload/internal/ddl"
	"lakeload/internal/domain"
)

// Document identity accepted by Load.
const (
	SupportedAPIVersion = "lakeload/v1"
	KindDatasetCatalog  = "DatasetCatalog"
)

// Document is the YAML form of a dataset catalog.
type Document struct {
	APIVersion string           `yaml:"apiVersion"`
	Kind       string           `yaml:"kind"`
	Datasets   []domain.Dataset `yaml:"datasets"`
}

// Load returns the built-in catalog when path is empty, otherwise the
// datasets of the YAML file at path.
func Load(path string) ([]domain.Dataset, error) {
	if path == "" {
		return domain.DefaultDatasets(), nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // user-specified catalog file
	if err != nil {
		return nil, fmt.Errorf("read dataset catalog: %w", err)
	}
	datasets, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return datasets, nil
}

// Parse decodes and validates a catalog document. Unknown fields are rejected.
func Parse(data []byte) ([]domain.Dataset, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.ErrValidation("empty dataset catalog")
		}
		return nil, domain.ErrValidation("parse dataset catalog: %v", err)
	}

	if doc.APIVersion != SupportedAPIVersion {
		return nil, domain.ErrValidation("unsupported apiVersion %q (expected %q)", doc.APIVersion, SupportedAPIVersion)
	}
	if doc.Kind != KindDatasetCatalog {
		return nil, domain.ErrValidation("unexpected kind %q (expected %q)", doc.Kind, KindDatasetCatalog)
	}
	if err := Validate(doc.Datasets); err != nil {
		return nil, err
	}
	return doc.Datasets, nil
}

// Validate runs the structural dataset checks plus the engine rules: table
// and column names must be plain identifiers and date patterns must convert
// to strftime.
func Validate(datasets []domain.Dataset) error {
	if err := domain.ValidateDatasets(datasets); err != nil {
		return err
	}
	for _, d := range datasets {
		if err := ddl.ValidateIdentifier(d.Table); err != nil {
			return domain.ErrValidation("dataset %q: table: %v", d.Name, err)
		}
		for _, c := range d.Columns {
			if err := ddl.ValidateIdentifier(c.Name); err != nil {
				return domain.ErrValidation("dataset %q: column: %v", d.Name, err)
			}
		}
		if d.DateFormat != "" {
			if _, err := ddl.StrftimePattern(d.DateFormat); err != nil {
				return domain.ErrValidation("dataset %q: date_format: %v", d.Name, err)
			}
		}
	}
	return nil
}

// Marshal encodes datasets as a catalog document.
func Marshal(datasets []domain.Dataset) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Document{
		APIVersion: SupportedAPIVersion,
		Kind:       KindDatasetCatalog,
		Datasets:   datasets,
	}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
