package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/ini.v1"
)

// Preferences holds user-facing settings kept in an INI file next to
// config.csv. Connection settings stay in config.csv.
//
// INI format:
//
//	[docassist]
//	output = table
//	folder_policy = folder
//
//	[devbackend]
//	blob_backend = local
//	local_dir = /var/lib/docassist/blobs
//	s3_bucket = docassist-dev
//	s3_region = eu-north-1
//	s3_endpoint = http://localhost:9000
//	azure_container = documents
//	azure_account_url = https://acct.blob.core.windows.net/?sv=...
type Preferences struct {
	Output       string // "table", "json", "yaml"
	FolderPolicy string // "folder" or "flat" for directory arguments to 'stage add'

	DevBackend DevBackendPreferences
}

// DevBackendPreferences configures where the dev backend stores document bytes.
type DevBackendPreferences struct {
	BlobBackend     string // "memory", "local", "s3", "azure"
	LocalDir        string
	S3Bucket        string
	S3Region        string
	S3Endpoint      string // custom endpoint (MinIO, LocalStack); enables path-style
	S3Prefix        string
	AzureContainer  string
	AzureAccountURL string // account URL with SAS query
}

// Validation errors
var (
	ErrInvalidOutput       = errors.New("output must be one of table, json, yaml")
	ErrInvalidFolderPolicy = errors.New("folder_policy must be folder or flat")
	ErrInvalidBlobBackend  = errors.New("blob_backend must be one of memory, local, s3, azure")
	ErrMissingS3Bucket     = errors.New("s3_bucket is required when blob_backend = s3")
	ErrMissingAzureURL     = errors.New("azure_account_url and azure_container are required when blob_backend = azure")
)

// DefaultPreferencesPath returns the default path for the preferences file.
func DefaultPreferencesPath() (string, error) {
	dir := getConfigDir()
	if dir == "" {
		return "", errors.New("could not determine config directory")
	}
	return filepath.Join(dir, "preferences"), nil
}

// NewPreferences creates Preferences with default values.
func NewPreferences() *Preferences {
	return &Preferences{
		Output:       "table",
		FolderPolicy: "folder",
		DevBackend: DevBackendPreferences{
			BlobBackend: "memory",
		},
	}
}

// LoadPreferences loads preferences from an INI file.
// A missing file yields defaults and no error.
func LoadPreferences(path string) (*Preferences, error) {
	prefs := NewPreferences()

	if path == "" {
		var err error
		path, err = DefaultPreferencesPath()
		if err != nil {
			return prefs, nil
		}
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return prefs, nil
	}

	iniFile, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}

	main := iniFile.Section("docassist")
	prefs.Output = strings.ToLower(main.Key("output").MustString(prefs.Output))
	prefs.FolderPolicy = strings.ToLower(main.Key("folder_policy").MustString(prefs.FolderPolicy))

	dev := iniFile.Section("devbackend")
	prefs.DevBackend.BlobBackend = strings.ToLower(dev.Key("blob_backend").MustString(prefs.DevBackend.BlobBackend))
	prefs.DevBackend.LocalDir = dev.Key("local_dir").String()
	prefs.DevBackend.S3Bucket = dev.Key("s3_bucket").String()
	prefs.DevBackend.S3Region = dev.Key("s3_region").String()
	prefs.DevBackend.S3Endpoint = dev.Key("s3_endpoint").String()
	prefs.DevBackend.S3Prefix = dev.Key("s3_prefix").String()
	prefs.DevBackend.AzureContainer = dev.Key("azure_container").String()
	prefs.DevBackend.AzureAccountURL = dev.Key("azure_account_url").String()

	return prefs, nil
}

// Validate checks values that LoadPreferences accepts verbatim.
func (p *Preferences) Validate() error {
	switch p.Output {
	case "table", "json", "yaml":
	default:
		return ErrInvalidOutput
	}
	switch p.FolderPolicy {
	case "folder", "flat":
	default:
		return ErrInvalidFolderPolicy
	}
	switch p.DevBackend.BlobBackend {
	case "memory", "local":
	case "s3":
		if p.DevBackend.S3Bucket == "" {
			return ErrMissingS3Bucket
		}
	case "azure":
		if p.DevBackend.AzureAccountURL == "" || p.DevBackend.AzureContainer == "" {
			return ErrMissingAzureURL
		}
	default:
		return ErrInvalidBlobBackend
	}
	return nil
}

// SavePreferences writes preferences to an INI file atomically.
func SavePreferences(prefs *Preferences, path string) error {
	if path == "" {
		var err error
		path, err = DefaultPreferencesPath()
		if err != nil {
			return fmt.Errorf("failed to determine preferences path: %w", err)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	iniFile := ini.Empty()

	main, err := iniFile.NewSection("docassist")
	if err != nil {
		return fmt.Errorf("failed to create docassist section: %w", err)
	}
	main.Key("output").SetValue(prefs.Output)
	main.Key("folder_policy").SetValue(prefs.FolderPolicy)

	dev, err := iniFile.NewSection("devbackend")
	if err != nil {
		return fmt.Errorf("failed to create devbackend section: %w", err)
	}
	dev.Key("blob_backend").SetValue(prefs.DevBackend.BlobBackend)
	for key, value := range map[string]string{
		"local_dir":         prefs.DevBackend.LocalDir,
		"s3_bucket":         prefs.DevBackend.S3Bucket,
		"s3_region":         prefs.DevBackend.S3Region,
		"s3_endpoint":       prefs.DevBackend.S3Endpoint,
		"s3_prefix":         prefs.DevBackend.S3Prefix,
		"azure_container":   prefs.DevBackend.AzureContainer,
		"azure_account_url": prefs.DevBackend.AzureAccountURL,
	} {
		if value != "" {
			dev.Key(key).SetValue(value)
		}
	}

	tmpPath := path + ".tmp"
	if err := iniFile.SaveTo(tmpPath); err != nil {
		return fmt.Errorf("failed to write preferences: %w", err)
	}

	// azure_account_url may carry a SAS token
	if runtime.GOOS != "windows" {
		if err := os.Chmod(tmpPath, 0600); err != nil {
			os.Remove(tmpPath)
			return fmt.Errorf("failed to set preferences permissions: %w", err)
		}
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save preferences: %w", err)
	}
	return nil
}
