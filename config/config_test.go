package config

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/c360studio/semmap/mapper"
	"github.com/c360studio/semmap/storage"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Mapper.IdentityHash != "md5" {
		t.Errorf("expected identity hash md5, got %s", cfg.Mapper.IdentityHash)
	}
	if cfg.Storage.Backend != storage.BackendMemory {
		t.Errorf("expected memory backend, got %s", cfg.Storage.Backend)
	}
	if cfg.Export.Format != "turtle" {
		t.Errorf("expected turtle export, got %s", cfg.Export.Format)
	}
	if opts := cfg.Mapper.Options(); opts != mapper.DefaultOptions() {
		t.Errorf("expected mapper defaults, got %+v", opts)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "valid namespaces",
			modify:  func(c *Config) { c.Namespaces = map[string]string{"ex": "http://example.org/", "": "urn:ex:"} },
			wantErr: false,
		},
		{
			name:    "invalid prefix",
			modify:  func(c *Config) { c.Namespaces = map[string]string{"not a prefix": "http://example.org/"} },
			wantErr: true,
		},
		{
			name:    "invalid namespace",
			modify:  func(c *Config) { c.Namespaces = map[string]string{"ex": "not a namespace"} },
			wantErr: true,
		},
		{
			name:    "unknown identity hash",
			modify:  func(c *Config) { c.Mapper.IdentityHash = "sha1" },
			wantErr: true,
		},
		{
			name:    "unknown backend",
			modify:  func(c *Config) { c.Storage.Backend = "etcd" },
			wantErr: true,
		},
		{
			name: "jetstream without url",
			modify: func(c *Config) {
				c.Storage.Backend = storage.BackendJetStream
				c.NATS.URL = ""
			},
			wantErr: true,
		},
		{
			name:    "unknown export format",
			modify:  func(c *Config) { c.Export.Format = "rdfxml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	// Create temp file with config
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
namespaces:
  ex: "http://example.org/"
mapper:
  require_ids: true
  serialize_collections_as_lists: true
  identity_hash: blake3
storage:
  backend: badger
  dir: /var/lib/semmap
nats:
  url: "nats://test:4222"
export:
  format: nquads
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Namespaces["ex"] != "http://example.org/" {
		t.Errorf("expected ex namespace, got %v", cfg.Namespaces)
	}
	opts := cfg.Mapper.Options()
	if !opts.RequireIDs || !opts.SerializeCollectionsAsLists {
		t.Errorf("expected require_ids and lists, got %+v", opts)
	}
	if !opts.IgnoreInvalidAnnotations {
		t.Error("unset switches should keep mapper defaults")
	}
	if cfg.Mapper.IdentityHash != "blake3" {
		t.Errorf("expected blake3, got %s", cfg.Mapper.IdentityHash)
	}
	so := cfg.StorageOptions()
	if so.Backend != storage.BackendBadger || so.Dir != "/var/lib/semmap" || so.URL != "nats://test:4222" {
		t.Errorf("unexpected storage options %+v", so)
	}
	if cfg.Export.Format != "nquads" {
		t.Errorf("expected nquads, got %s", cfg.Export.Format)
	}
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("mapper: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := LoadFromFile(configPath); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	base.Namespaces = map[string]string{"ex": "http://example.org/", "foo": "http://foo.example/"}
	off := false
	override := &Config{
		Namespaces: map[string]string{"ex": "http://example.com/"},
		Mapper: MapperConfig{
			IgnoreInvalidAnnotations: &off,
		},
		Storage: StorageConfig{
			Backend: storage.BackendBadger,
		},
	}

	base.Merge(override)

	if base.Namespaces["ex"] != "http://example.com/" || base.Namespaces["foo"] != "http://foo.example/" {
		t.Errorf("unexpected namespaces %v", base.Namespaces)
	}
	if base.Mapper.Options().IgnoreInvalidAnnotations {
		t.Error("explicit false should override the default")
	}
	// Identity hash should remain from base since override didn't set it
	if base.Mapper.IdentityHash != "md5" {
		t.Errorf("expected identity hash to remain default, got %s", base.Mapper.IdentityHash)
	}
	if base.Storage.Backend != storage.BackendBadger {
		t.Errorf("expected badger backend, got %s", base.Storage.Backend)
	}
	if base.Storage.Bucket != storage.DefaultBucket {
		t.Errorf("expected bucket to remain default, got %s", base.Storage.Bucket)
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Namespaces = map[string]string{"ex": "http://example.org/"}

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	// Load and verify
	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Namespaces["ex"] != "http://example.org/" {
		t.Errorf("expected ex namespace, got %v", loaded.Namespaces)
	}
	if loaded.Mapper.Options() != cfg.Mapper.Options() {
		t.Errorf("mapper options changed on round trip: %+v", loaded.Mapper.Options())
	}
}

func TestMapperOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Namespaces = map[string]string{"ex": "http://example.org/"}
	cfg.Mapper.IdentityHash = "blake3"

	m, err := mapper.New(cfg.MapperOptions()...)
	if err != nil {
		t.Fatalf("mapper.New() error = %v", err)
	}
	if m.Namespaces()["ex"] != "http://example.org/" {
		t.Errorf("namespace not applied: %v", m.Namespaces())
	}

	cfg.Namespaces["bad"] = "not a namespace"
	if _, err := mapper.New(cfg.MapperOptions()...); !mapper.IsConfigError(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func testLoader(t *testing.T, home, work string, env map[string]string) *Loader {
	t.Helper()
	l := NewLoader(slog.New(slog.NewTextHandler(io.Discard, nil)))
	l.homeDir = func() (string, error) { return home, nil }
	l.workDir = func() (string, error) { return work, nil }
	l.getenv = func(k string) string { return env[k] }
	return l
}

func TestLoaderLayers(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	work := filepath.Join(project, "pkg", "deep")
	if err := os.MkdirAll(work, 0755); err != nil {
		t.Fatal(err)
	}

	user := &Config{Mapper: MapperConfig{IdentityHash: "blake3"}, Export: ExportConfig{Format: "jsonld"}}
	if err := user.SaveToFile(filepath.Join(home, UserConfigDir, UserConfigFile)); err != nil {
		t.Fatal(err)
	}
	proj := &Config{Export: ExportConfig{Format: "nquads"}}
	if err := proj.SaveToFile(filepath.Join(project, ProjectConfigFile)); err != nil {
		t.Fatal(err)
	}

	l := testLoader(t, home, work, map[string]string{EnvStorageBackend: "badger"})
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Mapper.IdentityHash != "blake3" {
		t.Errorf("user layer not applied: %s", cfg.Mapper.IdentityHash)
	}
	if cfg.Export.Format != "nquads" {
		t.Errorf("project layer should win over user layer: %s", cfg.Export.Format)
	}
	if cfg.Storage.Backend != "badger" {
		t.Errorf("environment should win: %s", cfg.Storage.Backend)
	}
}

func TestLoaderDefaultsWithoutFiles(t *testing.T) {
	l := testLoader(t, t.TempDir(), t.TempDir(), nil)
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Export.Format != "turtle" {
		t.Errorf("expected defaults, got %+v", cfg.Export)
	}
}

func TestLoaderRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "semmap.yaml")
	bad := &Config{Storage: StorageConfig{Backend: "etcd"}}
	if err := bad.SaveToFile(path); err != nil {
		t.Fatal(err)
	}

	l := testLoader(t, t.TempDir(), t.TempDir(), nil)
	if _, err := l.LoadFile(path); err == nil {
		t.Error("expected validation error")
	}
	if _, err := l.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestEnsureUserConfig(t *testing.T) {
	home := t.TempDir()
	l := testLoader(t, home, t.TempDir(), nil)

	path, err := l.EnsureUserConfig()
	if err != nil {
		t.Fatalf("EnsureUserConfig() error = %v", err)
	}
	if path != filepath.Join(home, UserConfigDir, UserConfigFile) {
		t.Errorf("unexpected path %s", path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file was not created: %v", err)
	}
}
