// Package config handles loading application configuration from a YAML file
// with environment variable overrides.
//
// Config file format (piwall.yaml):
//
//	listen_addr: ":8080"
//	media_dir: "./media"
//	upload_token: "mysecrettoken"
//	allowed_extensions: [jpg, jpeg, png, gif, webp, mp4, mov, mkv, avi]
//	max_upload_bytes: 209715200
//
// Configuration sources, in increasing priority order:
//  1. Built-in defaults
//  2. YAML config file (located by FindConfigFile or explicit path)
//  3. Environment variables (LISTEN_ADDR, MEDIA_DIR, UPLOAD_TOKEN,
//     ALLOWED_EXTENSIONS, MAX_UPLOAD_BYTES, LINKS_DB)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	// ListenAddr is the TCP address for the HTTP server (e.g. ":8080").
	ListenAddr string `yaml:"listen_addr"`

	// MediaDir is the media root: each sub-directory is a category, each
	// allowed regular file a media item.
	MediaDir string `yaml:"media_dir"`

	// UploadToken is the shared secret required on every mutating request.
	// Leave empty to disable uploads and deletions entirely.
	UploadToken string `yaml:"upload_token"`

	// AllowedExtensions is the media file allow-list. Entries are
	// case-insensitive, with or without the leading dot.
	AllowedExtensions []string `yaml:"allowed_extensions"`

	// MaxUploadBytes is the per-file upload size ceiling.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// LinksDB is the path of the link registry database. Empty means
	// {media_dir}/.links.db.
	LinksDB string `yaml:"links_db"`
}

// Default returns a Config populated with sensible defaults. The extension
// list and the 200 MiB ceiling accommodate phone videos.
func Default() Config {
	return Config{
		ListenAddr:        ":8080",
		MediaDir:          "./media",
		AllowedExtensions: []string{"jpg", "jpeg", "png", "gif", "webp", "mp4", "mov", "mkv", "avi"},
		MaxUploadBytes:    200 << 20,
	}
}

// Load reads configuration from the YAML file at path (if non-empty), then
// applies environment variable overrides on top. Returns the merged Config.
// If path is empty, only defaults and environment variables are applied.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %q: %w", path, err)
		}
	}

	// Environment variables always override file values so that Docker /
	// systemd overrides still work even when a config file is present.
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("MEDIA_DIR"); v != "" {
		cfg.MediaDir = v
	}
	if v := os.Getenv("UPLOAD_TOKEN"); v != "" {
		cfg.UploadToken = v
	}
	if v := os.Getenv("ALLOWED_EXTENSIONS"); v != "" {
		cfg.AllowedExtensions = splitList(v)
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid MAX_UPLOAD_BYTES %q", v)
		}
		cfg.MaxUploadBytes = n
	}
	if v := os.Getenv("LINKS_DB"); v != "" {
		cfg.LinksDB = v
	}

	if cfg.LinksDB == "" {
		cfg.LinksDB = filepath.Join(cfg.MediaDir, ".links.db")
	}

	return cfg, nil
}

// splitList parses a comma-separated extension list, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FindConfigFile returns the path to the first config file found in the
// standard search order, or "" if none is found.
//
// Search order:
//  1. PIWALL_CONFIG environment variable (explicit override)
//  2. ./piwall.yaml (current working directory)
//  3. ~/.config/piwall/config.yaml (XDG user config)
func FindConfigFile() string {
	if p := os.Getenv("PIWALL_CONFIG"); p != "" {
		return p
	}

	if _, err := os.Stat("piwall.yaml"); err == nil {
		return "piwall.yaml"
	}

	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".config", "piwall", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
