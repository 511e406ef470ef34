package dictionary

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source provides structured dictionary definitions
type Source interface {
	Load(ctx context.Context) (*Definition, error)
	Close() error
}

// FileSource loads definitions from local files (YAML or JSON)
type FileSource struct {
	// Path specifies a single file path to load
	Path string

	// Paths specifies multiple file paths to load and merge
	Paths []string

	// Dir specifies a directory to scan for definition files
	Dir string

	// Format specifies the file format ("yaml", "json", or "auto")
	Format string
}

// MultiSource combines multiple definition sources
type MultiSource struct {
	Sources []Source
}

// LoadSource builds a dictionary named after protocol from src
func LoadSource(ctx context.Context, src Source, protocol string, opts ...Option) (*Dictionary, error) {
	def, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}

	d := New(protocol, opts...)
	if err := d.AddDefinition(def); err != nil {
		return nil, err
	}

	return d, nil
}

// Load loads the definitions from file(s)
func (fs *FileSource) Load(ctx context.Context) (*Definition, error) {
	var filePaths []string

	if fs.Path != "" {
		filePaths = append(filePaths, fs.Path)
	}

	if len(fs.Paths) > 0 {
		filePaths = append(filePaths, fs.Paths...)
	}

	if fs.Dir != "" {
		dirFiles, err := fs.scanDirectory(fs.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to scan directory %s: %w", fs.Dir, err)
		}
		filePaths = append(filePaths, dirFiles...)
	}

	if len(filePaths) == 0 {
		return nil, fmt.Errorf("no files specified to load")
	}

	merged := &Definition{}
	for _, path := range filePaths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		def, err := fs.loadSingleFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load file %s: %w", path, err)
		}

		if err := mergeDefinitions(merged, def); err != nil {
			return nil, fmt.Errorf("failed to merge definitions from %s: %w", path, err)
		}
	}

	return merged, nil
}

// Close closes the file source (no-op for file sources)
func (fs *FileSource) Close() error {
	return nil
}

// Load loads definitions from all sources and merges them
func (ms *MultiSource) Load(ctx context.Context) (*Definition, error) {
	if len(ms.Sources) == 0 {
		return nil, fmt.Errorf("no sources specified")
	}

	merged := &Definition{}
	for i, source := range ms.Sources {
		def, err := source.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load from source %d: %w", i, err)
		}

		if err := mergeDefinitions(merged, def); err != nil {
			return nil, fmt.Errorf("failed to merge definitions from source %d: %w", i, err)
		}
	}

	return merged, nil
}

// Close closes all sources
func (ms *MultiSource) Close() error {
	var errs []string
	for i, source := range ms.Sources {
		if err := source.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("source %d: %v", i, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing sources: %s", strings.Join(errs, "; "))
	}

	return nil
}

// mergeDefinitions merges source into target with conflict detection
func mergeDefinitions(target, source *Definition) error {
	if source == nil {
		return nil
	}

	if target.Name == "" {
		target.Name = source.Name
	}

	attrs, err := mergeAttributes(target.Attributes, source.Attributes)
	if err != nil {
		return err
	}
	target.Attributes = attrs

	for _, vendor := range source.Vendors {
		var existing *VendorDefinition
		for _, v := range target.Vendors {
			if v.ID == vendor.ID {
				existing = v
				break
			}
		}

		if existing == nil {
			target.Vendors = append(target.Vendors, vendor)
			continue
		}

		if existing.Name != vendor.Name {
			return fmt.Errorf("%w: vendor ID %d defined as both '%s' and '%s'",
				ErrDuplicate, vendor.ID, existing.Name, vendor.Name)
		}

		if existing.Format != vendor.Format {
			return fmt.Errorf("%w: vendor %s defined with formats '%s' and '%s'",
				ErrDuplicate, vendor.Name, existing.Format, vendor.Format)
		}

		attrs, err := mergeAttributes(existing.Attributes, vendor.Attributes)
		if err != nil {
			return fmt.Errorf("vendor %s: %w", vendor.Name, err)
		}
		existing.Attributes = attrs
	}

	return nil
}

func mergeAttributes(target, source []*AttributeDefinition) ([]*AttributeDefinition, error) {
	for _, attr := range source {
		var existing *AttributeDefinition
		for _, a := range target {
			if a.ID == attr.ID {
				existing = a
				break
			}
		}

		if existing == nil {
			target = append(target, attr)
			continue
		}

		if existing.Name != attr.Name || !strings.EqualFold(existing.DataType, attr.DataType) {
			return nil, fmt.Errorf("%w: attribute ID %d defined differently", ErrDuplicate, attr.ID)
		}

		for name, value := range attr.Values {
			if old, ok := existing.Values[name]; ok && old != value {
				return nil, fmt.Errorf("%w: value %s of attribute %s defined differently", ErrDuplicate, name, attr.Name)
			}
			if existing.Values == nil {
				existing.Values = make(map[string]uint32)
			}
			existing.Values[name] = value
		}

		children, err := mergeAttributes(existing.Children, attr.Children)
		if err != nil {
			return nil, err
		}
		existing.Children = children
	}

	return target, nil
}

func (fs *FileSource) scanDirectory(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".yaml" || ext == ".yml" || ext == ".json" {
			files = append(files, path)
		}

		return nil
	})

	sort.Strings(files)

	return files, err
}

func (fs *FileSource) loadSingleFile(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	format := fs.Format
	if format == "" || format == "auto" {
		format = detectFormat(path, data)
	}

	var def Definition
	switch format {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case "json":
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}

	return &def, nil
}

func detectFormat(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return "yaml"
	case ".json":
		return "json"
	default:
		trimmed := strings.TrimSpace(string(data))
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			return "json"
		}
		return "yaml"
	}
}
