// Package config loads the TOML configuration and environment overrides.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"whitkirk-services/internal/overrides"
)

//go:embed config.example.toml
var exampleConf []byte

var (
	// ErrMissingConfig is returned when a config file or a required setting is absent.
	ErrMissingConfig = errors.New("configuration not found")
	// ErrInvalidConfig is returned for settings that cannot be used.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Airtable   AirtableConfig            `toml:"airtable"`
	WordPress  WordPressConfig           `toml:"wordpress"`
	YouTube    YouTubeConfig             `toml:"youtube"`
	Storage    StorageConfig             `toml:"storage"`
	Ledger     LedgerConfig              `toml:"ledger"`
	Paths      PathsConfig               `toml:"paths"`
	Server     ServerConfig              `toml:"server"`
	Chrome     ChromeConfig              `toml:"chrome"`
	Categories map[string]overrides.Spec `toml:"categories"`
}

// AirtableConfig locates the services table.
type AirtableConfig struct {
	APIKey            string  `toml:"api_key"`
	BaseID            string  `toml:"base_id"`
	ServicesTableID   string  `toml:"services_table_id"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// WordPressConfig contains CMS credentials.
type WordPressConfig struct {
	BaseURL                string  `toml:"base_url"`
	User                   string  `toml:"user"`
	ApplicationPassword    string  `toml:"application_password"`
	DefaultFeaturedImageID string  `toml:"default_featured_image_id"`
	RequestsPerSecond      float64 `toml:"requests_per_second"`
}

// YouTubeConfig contains channel settings.
type YouTubeConfig struct {
	DefaultPlaylistID string        `toml:"default_playlist_id"`
	AuthListenAddr    string        `toml:"auth_listen_addr"`
	PlaylistCacheTTL  time.Duration `toml:"playlist_cache_ttl"`
}

// StorageConfig says where OAuth blobs are kept.
type StorageConfig struct {
	GCSBucket string `toml:"gcs_bucket"`
	GCSPrefix string `toml:"gcs_prefix"`
	LocalDir  string `toml:"local_dir"`
}

// LedgerConfig enables the Firestore run ledger when ProjectID is set.
type LedgerConfig struct {
	ProjectID  string `toml:"project_id"`
	Collection string `toml:"collection"`
}

// PathsConfig contains image and cache directories.
type PathsConfig struct {
	DefaultThumbnailDir   string `toml:"default_thumbnail_dir"`
	ServiceImageDir       string `toml:"service_image_dir"`
	GeneratedThumbnailDir string `toml:"generated_thumbnail_dir"`
	CacheDir              string `toml:"cache_dir"`
}

// ServerConfig contains preview server settings.
type ServerConfig struct {
	Port     int           `toml:"port"`
	CacheTTL time.Duration `toml:"cache_ttl"`
}

// ChromeConfig configures thumbnail rendering.
type ChromeConfig struct {
	ExecPath string `toml:"exec_path"`
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Load reads the file at path over the defaults. A file that defines any
// category replaces the default category table as a whole. An empty path
// yields the defaults.
func Load(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	defaults := config.Categories
	config.Categories = nil
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if config.Categories == nil {
		config.Categories = defaults
	}

	return config, nil
}

// ApplyEnv overrides settings from environment variables. getenv is usually os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"AIRTABLE_API_KEY":                    &c.Airtable.APIKey,
		"AIRTABLE_BASE_ID":                    &c.Airtable.BaseID,
		"AIRTABLE_SERVICES_TABLE_ID":          &c.Airtable.ServicesTableID,
		"WORDPRESS_BASE_URL":                  &c.WordPress.BaseURL,
		"WORDPRESS_USER":                      &c.WordPress.User,
		"WORDPRESS_APPLICATION_PASSWORD":      &c.WordPress.ApplicationPassword,
		"WORDPRESS_DEFAULT_FEATURED_IMAGE_ID": &c.WordPress.DefaultFeaturedImageID,
		"YOUTUBE_DEFAULT_PLAYLIST_ID":         &c.YouTube.DefaultPlaylistID,
		"GCS_BUCKET":                          &c.Storage.GCSBucket,
		"STORE_DIR":                           &c.Storage.LocalDir,
		"GCP_PROJECT_ID":                      &c.Ledger.ProjectID,
		"FIRESTORE_COLLECTION":                &c.Ledger.Collection,
		"CACHE_DIR":                           &c.Paths.CacheDir,
		"CHROME_PATH":                         &c.Chrome.ExecPath,
	}
	for name, dst := range strs {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}

	if v := getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT=%q", ErrInvalidConfig, v)
		}
		c.Server.Port = port
	}
	return nil
}

// Overrides builds the immutable category override table.
func (c *Config) Overrides() *overrides.Table {
	return overrides.NewTable(c.Categories)
}

// ValidateAirtable reports missing record store settings.
func (c *Config) ValidateAirtable() error {
	return requireSettings(map[string]string{
		"airtable.api_key":           c.Airtable.APIKey,
		"airtable.base_id":           c.Airtable.BaseID,
		"airtable.services_table_id": c.Airtable.ServicesTableID,
	})
}

// ValidateWordPress reports missing CMS settings.
func (c *Config) ValidateWordPress() error {
	return requireSettings(map[string]string{
		"wordpress.base_url":             c.WordPress.BaseURL,
		"wordpress.user":                 c.WordPress.User,
		"wordpress.application_password": c.WordPress.ApplicationPassword,
	})
}

// ValidateYouTube reports missing channel settings.
func (c *Config) ValidateYouTube() error {
	if c.Storage.GCSBucket == "" && c.Storage.LocalDir == "" {
		return fmt.Errorf("%w: storage.gcs_bucket or storage.local_dir", ErrMissingConfig)
	}
	return requireSettings(map[string]string{
		"youtube.default_playlist_id": c.YouTube.DefaultPlaylistID,
	})
}

func requireSettings(settings map[string]string) error {
	var missing []string
	for name, v := range settings {
		if v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
}
