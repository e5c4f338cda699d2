// Package config provides configuration loading and management for semmap.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/semmap/export"
	"github.com/c360studio/semmap/mapper"
	"github.com/c360studio/semmap/storage"
	"github.com/c360studio/semmap/vocabulary/semmap"
)

// Config represents the complete semmap configuration
type Config struct {
	// Namespaces binds prefixes to namespace IRIs. The empty prefix is the
	// default namespace for derived predicates and identifiers.
	Namespaces map[string]string `yaml:"namespaces,omitempty"`
	Mapper     MapperConfig      `yaml:"mapper"`
	Storage    StorageConfig     `yaml:"storage"`
	NATS       NATSConfig        `yaml:"nats"`
	Export     ExportConfig      `yaml:"export"`
}

// MapperConfig configures mapper strictness. Unset switches keep the
// mapper defaults.
type MapperConfig struct {
	RequireIDs                  *bool `yaml:"require_ids,omitempty"`
	IgnoreCardinalityViolations *bool `yaml:"ignore_cardinality_violations,omitempty"`
	IgnoreInvalidAnnotations    *bool `yaml:"ignore_invalid_annotations,omitempty"`
	SerializeCollectionsAsLists *bool `yaml:"serialize_collections_as_lists,omitempty"`
	// IdentityHash is md5 (default) or blake3
	IdentityHash string `yaml:"identity_hash"`
}

// StorageConfig configures the entity repository backend
type StorageConfig struct {
	// Backend is memory, badger or jetstream
	Backend string `yaml:"backend"`
	// Dir is the Badger data directory (empty = in memory)
	Dir string `yaml:"dir,omitempty"`
	// Bucket is the JetStream KV bucket
	Bucket string `yaml:"bucket,omitempty"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL
	URL string `yaml:"url"`
	// Publish sends saved entity graphs to the graph ingest stream
	Publish bool `yaml:"publish"`
}

// ExportConfig configures graph output
type ExportConfig struct {
	// Format is the default output format
	Format string `yaml:"format"`
}

func boolPtr(b bool) *bool { return &b }

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	defaults := mapper.DefaultOptions()
	return &Config{
		Mapper: MapperConfig{
			RequireIDs:                  boolPtr(defaults.RequireIDs),
			IgnoreCardinalityViolations: boolPtr(defaults.IgnoreCardinalityViolations),
			IgnoreInvalidAnnotations:    boolPtr(defaults.IgnoreInvalidAnnotations),
			SerializeCollectionsAsLists: boolPtr(defaults.SerializeCollectionsAsLists),
			IdentityHash:                string(mapper.HashMD5),
		},
		Storage: StorageConfig{
			Backend: storage.BackendMemory,
			Bucket:  storage.DefaultBucket,
		},
		NATS: NATSConfig{
			URL: "nats://localhost:4222",
		},
		Export: ExportConfig{
			Format: string(export.FormatTurtle),
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	for prefix, uri := range c.Namespaces {
		if !semmap.IsValidPrefix(prefix) {
			return fmt.Errorf("namespaces: %q is not a valid prefix", prefix)
		}
		if err := mapper.ValidateIRI(uri); err != nil {
			return fmt.Errorf("namespaces.%s: %w", prefix, err)
		}
	}
	switch mapper.HashAlgorithm(c.Mapper.IdentityHash) {
	case "", mapper.HashMD5, mapper.HashBLAKE3:
	default:
		return fmt.Errorf("mapper.identity_hash must be md5 or blake3")
	}
	switch c.Storage.Backend {
	case "", storage.BackendMemory, storage.BackendBadger:
	case storage.BackendJetStream:
		if c.NATS.URL == "" {
			return fmt.Errorf("nats.url is required for the jetstream backend")
		}
	default:
		return fmt.Errorf("storage.backend must be memory, badger or jetstream")
	}
	if c.NATS.Publish && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required when nats.publish is set")
	}
	if c.Export.Format != "" {
		if _, err := export.ParseFormat(c.Export.Format); err != nil {
			return fmt.Errorf("export.format: %w", err)
		}
	}
	return nil
}

// Options returns the mapper strictness options, starting from the mapper
// defaults.
func (m MapperConfig) Options() mapper.Options {
	opts := mapper.DefaultOptions()
	if m.RequireIDs != nil {
		opts.RequireIDs = *m.RequireIDs
	}
	if m.IgnoreCardinalityViolations != nil {
		opts.IgnoreCardinalityViolations = *m.IgnoreCardinalityViolations
	}
	if m.IgnoreInvalidAnnotations != nil {
		opts.IgnoreInvalidAnnotations = *m.IgnoreInvalidAnnotations
	}
	if m.SerializeCollectionsAsLists != nil {
		opts.SerializeCollectionsAsLists = *m.SerializeCollectionsAsLists
	}
	return opts
}

// MapperOptions converts the configuration into mapper options. Namespaces
// are applied in prefix order so errors are reported deterministically.
func (c *Config) MapperOptions() []mapper.Option {
	opts := []mapper.Option{
		mapper.WithOptions(c.Mapper.Options()),
		mapper.WithIdentityHash(mapper.HashAlgorithm(c.Mapper.IdentityHash)),
	}
	prefixes := make([]string, 0, len(c.Namespaces))
	for p := range c.Namespaces {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)
	for _, p := range prefixes {
		opts = append(opts, mapper.WithNamespace(p, c.Namespaces[p]))
	}
	return opts
}

// StorageOptions returns the options for storage.Open.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend: c.Storage.Backend,
		Dir:     c.Storage.Dir,
		URL:     c.NATS.URL,
		Bucket:  c.Storage.Bucket,
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// set values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Namespaces
	if len(other.Namespaces) > 0 && c.Namespaces == nil {
		c.Namespaces = make(map[string]string, len(other.Namespaces))
	}
	for p, uri := range other.Namespaces {
		c.Namespaces[p] = uri
	}

	// Mapper
	if other.Mapper.RequireIDs != nil {
		c.Mapper.RequireIDs = other.Mapper.RequireIDs
	}
	if other.Mapper.IgnoreCardinalityViolations != nil {
		c.Mapper.IgnoreCardinalityViolations = other.Mapper.IgnoreCardinalityViolations
	}
	if other.Mapper.IgnoreInvalidAnnotations != nil {
		c.Mapper.IgnoreInvalidAnnotations = other.Mapper.IgnoreInvalidAnnotations
	}
	if other.Mapper.SerializeCollectionsAsLists != nil {
		c.Mapper.SerializeCollectionsAsLists = other.Mapper.SerializeCollectionsAsLists
	}
	if other.Mapper.IdentityHash != "" {
		c.Mapper.IdentityHash = other.Mapper.IdentityHash
	}

	// Storage
	if other.Storage.Backend != "" {
		c.Storage.Backend = other.Storage.Backend
	}
	if other.Storage.Dir != "" {
		c.Storage.Dir = other.Storage.Dir
	}
	if other.Storage.Bucket != "" {
		c.Storage.Bucket = other.Storage.Bucket
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Publish {
		c.NATS.Publish = true
	}

	// Export
	if other.Export.Format != "" {
		c.Export.Format = other.Export.Format
	}
}
