package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

// Config represents the main configuration for photocat.
type Config struct {
	CatalogID  string           `toml:"catalog_id" validate:"required"`
	BaseDir    string           `toml:"base_dir" validate:"required"`
	CatalogDir string           `toml:"catalog_dir" validate:"required"`
	LogDir     string           `toml:"log_dir" validate:"required"`
	Database   DatabaseConfig   `toml:"database"`
	Xmp        XmpConfig        `toml:"xmp"`
	Worker     WorkerConfig     `toml:"worker"`
	Vaults     []VaultConfig    `toml:"vaults" validate:"dive"`
	Encryption EncryptionConfig `toml:"encryption"`
	Import     ImportConfig     `toml:"import"`
}

// DatabaseConfig represents configuration for the catalog database.
// The sqlite file lives in the catalog directory.
type DatabaseConfig struct {
	Type string `toml:"type" validate:"oneof=sqlite memory"`
}

// XmpConfig controls sidecar writing.
type XmpConfig struct {
	WriteSidecars bool `toml:"write_sidecars"`
	// Backup is "none" or "copy"; "copy" keeps the replaced sidecar as <sidecar>.bak.
	Backup           string `toml:"backup" validate:"oneof=none copy"`
	RequeueOnFailure bool   `toml:"requeue_on_failure"`
}

// WorkerConfig sizes the request queue in front of the catalog.
type WorkerConfig struct {
	Backlog int `toml:"backlog" validate:"gte=0"`
}

// EncryptionConfig selects how catalog snapshots are encrypted.
type EncryptionConfig struct {
	Type           string `toml:"type" validate:"oneof=none age"`
	PublicKeyPath  string `toml:"public_key_path" validate:"required_if=Type age"`
	PrivateKeyPath string `toml:"private_key_path" validate:"required_if=Type age"`
}

// ImportConfig holds import-related settings.
type ImportConfig struct {
	Ignore []string `toml:"ignore"`
}

// VaultConfig represents configuration for a snapshot storage backend.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type VaultConfig struct {
	Type string `toml:"type" validate:"oneof=memory s3 filesystem"`
	Name string `toml:"name" validate:"required"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket string `toml:"s3_bucket,omitempty" validate:"required_if=Type s3"`
	S3Prefix string `toml:"s3_prefix,omitempty"`
	S3Region string `toml:"s3_region,omitempty" validate:"required_if=Type s3"`
	// S3Endpoint selects an S3-compatible service. The access keys, when
	// set, replace the default AWS credential chain.
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSVaultRoot string `toml:"fs_vault_root,omitempty" validate:"required_if=Type filesystem"`
}

// NewConfig creates a new Config with the provided values and defaults
// derived from baseDir.
func NewConfig(catalogID, baseDir string) *Config {
	return &Config{
		CatalogID:  catalogID,
		BaseDir:    baseDir,
		CatalogDir: filepath.Join(baseDir, "catalog"),
		LogDir:     filepath.Join(baseDir, "log"),
		Database:   DatabaseConfig{Type: "sqlite"},
		Xmp: XmpConfig{
			WriteSidecars:    true,
			Backup:           "none",
			RequeueOnFailure: true,
		},
		Worker: WorkerConfig{Backlog: 64},
		Encryption: EncryptionConfig{
			Type:           "none",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "photocat.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "photocat.key"),
		},
	}
}

var validate = validator.New()

// Validate checks the struct tags and the rules spanning several fields.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	seen := make(map[string]bool, len(c.Vaults))
	for _, v := range c.Vaults {
		if seen[v.Name] {
			return fmt.Errorf("invalid config: duplicate vault name %q", v.Name)
		}
		seen[v.Name] = true
	}
	return nil
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatFieldError(e))
	}
	return errors.New("invalid config: " + strings.Join(msgs, "; "))
}

func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(strings.TrimPrefix(e.Namespace(), "Config."))
	switch e.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, e.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads and validates a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init writes a new config file. It refuses to overwrite an existing one.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
