package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// uploadsConfigYAML defines optional YAML configuration for upload settings.
// When the file exists it overrides the environment variables.
type uploadsConfigYAML struct {
	MaxFileSize      int64    `yaml:"max_file_size"`
	AllowedFileTypes []string `yaml:"allowed_file_types"`
}

func (y *uploadsConfigYAML) apply(cfg *Config) {
	if y.MaxFileSize > 0 {
		cfg.MaxUploadSize = y.MaxFileSize
	}
	if len(y.AllowedFileTypes) > 0 {
		cfg.AllowedFileTypes = y.AllowedFileTypes
	}
}

// loadUploadsConfig tries to load the YAML config from disk.
func loadUploadsConfig() (*uploadsConfigYAML, error) {
	path := os.Getenv("UPLOADS_CONFIG_FILE")
	if strings.TrimSpace(path) == "" {
		path = "config/uploads.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg uploadsConfigYAML
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyUploadDefaults(cfg *Config) {
	cfg.MaxUploadSize = parseInt64(os.Getenv("MAX_FILE_SIZE"), 50<<20)
	cfg.AllowedFileTypes = parseFileTypes(os.Getenv("ALLOWED_FILE_TYPES"))
}

func parseInt64(val string, def int64) int64 {
	if val == "" {
		return def
	}
	v, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return def
	}
	return v
}

func parseFileTypes(val string) []string {
	if val == "" {
		return []string{"image/jpeg", "image/png", "application/pdf", "application/dicom"}
	}
	return strings.Split(val, ",")
}
