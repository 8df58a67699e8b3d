package config

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/docassist/docassist/internal/constants"
	"github.com/docassist/docassist/internal/pathutil"
)

// DefaultAPIBaseURL is the backend a fresh install talks to.
const DefaultAPIBaseURL = "http://localhost:8080/api"

// Config represents the docassist client configuration
type Config struct {
	// Backend
	APIBaseURL string
	Token      string // session token; never read from or written to config.csv

	// Proxy settings
	ProxyMode     string // "no-proxy", "ntlm", "basic", "system"
	ProxyHost     string
	ProxyPort     int
	ProxyUser     string
	ProxyPassword string
	NoProxy       string // Comma-separated list of hosts to bypass proxy
	ProxyWarmup   bool

	// Upload batch pacing
	InterRequestDelay time.Duration
	DisplayResetDelay time.Duration

	// HTTP behaviour
	MaxRetries     int
	RequestTimeout time.Duration

	// Presentation and storage
	LogToFile      bool
	RenderMarkdown bool
	StorePath      string // sqlite database path; empty = config dir default
}

// Defaults returns a Config populated with default values.
func Defaults() *Config {
	return &Config{
		APIBaseURL:        DefaultAPIBaseURL,
		ProxyMode:         "no-proxy",
		InterRequestDelay: constants.InterRequestDelay,
		DisplayResetDelay: constants.DisplayResetDelay,
		MaxRetries:        constants.MaxRetries,
		RequestTimeout:    constants.APIContextTimeout,
		RenderMarkdown:    true,
	}
}

// LoadConfigCSV loads configuration from a CSV file
// CSV format: key,value pairs
func LoadConfigCSV(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil // Return defaults if config doesn't exist
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read config CSV: %w", err)
	}

	for i, record := range records {
		if i == 0 && len(record) >= 2 && strings.ToLower(record[0]) == "key" {
			continue
		}
		if len(record) < 2 {
			continue
		}

		key := strings.TrimSpace(strings.ToLower(record[0]))
		value := strings.TrimSpace(record[1])

		switch key {
		case "api_base_url":
			cfg.APIBaseURL = value
		case "proxy_mode":
			cfg.ProxyMode = value
		case "proxy_host":
			cfg.ProxyHost = value
		case "proxy_port":
			if v, err := strconv.Atoi(value); err == nil {
				cfg.ProxyPort = v
			}
		case "proxy_user":
			cfg.ProxyUser = value
		case "proxy_password":
			// Proxy passwords are entered at runtime via secure prompt
			if value != "" {
				log.Printf("[WARN] proxy_password in config file is ignored for security - use secure prompt at runtime")
			}
		case "no_proxy":
			cfg.NoProxy = value
		case "proxy_warmup":
			cfg.ProxyWarmup = parseBool(value)
		case "token":
			if value != "" {
				log.Printf("[WARN] token in config file is ignored for security - use 'docassist login' or DOCASSIST_TOKEN")
			}
		case "inter_request_delay_ms":
			if v, err := strconv.Atoi(value); err == nil && v >= 0 {
				cfg.InterRequestDelay = time.Duration(v) * time.Millisecond
			}
		case "display_reset_delay_ms":
			if v, err := strconv.Atoi(value); err == nil && v >= 0 {
				cfg.DisplayResetDelay = time.Duration(v) * time.Millisecond
			}
		case "max_retries":
			if v, err := strconv.Atoi(value); err == nil {
				cfg.MaxRetries = v
			}
		case "request_timeout_seconds":
			if v, err := strconv.Atoi(value); err == nil && v > 0 {
				cfg.RequestTimeout = time.Duration(v) * time.Second
			}
		case "log_to_file":
			cfg.LogToFile = parseBool(value)
		case "render_markdown":
			cfg.RenderMarkdown = parseBool(value)
		case "store_path":
			cfg.StorePath = value
		}
	}

	return cfg, nil
}

func parseBool(value string) bool {
	return strings.ToLower(value) == "true" || value == "1"
}

// SaveConfigCSV saves configuration to a CSV file
// CSV format: key,value pairs
func SaveConfigCSV(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"key", "value"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	// token and proxy_password are intentionally never persisted here
	records := [][]string{
		{"api_base_url", cfg.APIBaseURL},
		{"proxy_mode", cfg.ProxyMode},
		{"proxy_host", cfg.ProxyHost},
		{"proxy_port", strconv.Itoa(cfg.ProxyPort)},
		{"proxy_user", cfg.ProxyUser},
		{"no_proxy", cfg.NoProxy},
		{"proxy_warmup", strconv.FormatBool(cfg.ProxyWarmup)},
		{"inter_request_delay_ms", strconv.FormatInt(cfg.InterRequestDelay.Milliseconds(), 10)},
		{"display_reset_delay_ms", strconv.FormatInt(cfg.DisplayResetDelay.Milliseconds(), 10)},
		{"max_retries", strconv.Itoa(cfg.MaxRetries)},
		{"request_timeout_seconds", strconv.Itoa(int(cfg.RequestTimeout / time.Second))},
		{"log_to_file", strconv.FormatBool(cfg.LogToFile)},
		{"render_markdown", strconv.FormatBool(cfg.RenderMarkdown)},
		{"store_path", cfg.StorePath},
	}

	for _, record := range records {
		// delays of 0 are meaningful, so only empty strings are skipped
		if record[1] == "" {
			continue
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}

	return nil
}

// MergeWithFlagsAndTokenFile merges config with flags, token file, and environment variables
// Token priority (highest to lowest):
//  1. --token flag (command line)
//  2. DOCASSIST_TOKEN environment variable
//  3. --token-file flag (explicit token file path)
//  4. Default token file (~/.config/docassist/token, written by 'login')
func (c *Config) MergeWithFlagsAndTokenFile(token, tokenFilePath, apiBaseURL, proxyMode, proxyHost string, proxyPort int) {
	var tokenSources []string

	var defaultToken string
	if defaultTokenPath := GetDefaultTokenPath(); defaultTokenPath != "" {
		if _, err := os.Stat(defaultTokenPath); err == nil {
			if t, err := ReadTokenFile(defaultTokenPath); err == nil {
				defaultToken = t
				tokenSources = append(tokenSources, fmt.Sprintf("default token file (%s)", defaultTokenPath))
			}
		}
	}

	var explicitToken string
	if tokenFilePath != "" {
		if t, err := ReadTokenFile(tokenFilePath); err == nil {
			explicitToken = t
			tokenSources = append(tokenSources, "--token-file flag")
		}
	}

	envToken := os.Getenv("DOCASSIST_TOKEN")
	if envToken != "" {
		tokenSources = append(tokenSources, "DOCASSIST_TOKEN environment variable")
	}

	if token != "" {
		tokenSources = append(tokenSources, "--token flag")
	}

	if len(tokenSources) > 1 {
		log.Printf("[WARN] Multiple session token sources detected: %v", tokenSources)
		log.Printf("[WARN] Using: %s", tokenSources[len(tokenSources)-1])
	}

	// lowest to highest, each overwriting the previous
	for _, t := range []string{defaultToken, explicitToken, envToken, token} {
		if t != "" {
			c.Token = t
		}
	}

	if envURL := os.Getenv("DOCASSIST_API_URL"); envURL != "" {
		c.APIBaseURL = envURL
	}
	if envProxy := os.Getenv("HTTPS_PROXY"); envProxy != "" && c.ProxyHost == "" {
		c.parseProxyURL(envProxy)
	}

	if apiBaseURL != "" {
		c.APIBaseURL = apiBaseURL
	}
	if proxyMode != "" {
		c.ProxyMode = proxyMode
	}
	if proxyHost != "" {
		c.ProxyHost = proxyHost
	}
	if proxyPort > 0 {
		c.ProxyPort = proxyPort
	}

	c.APIBaseURL = strings.TrimSuffix(c.APIBaseURL, "/")
	if c.APIBaseURL != "" && !strings.HasPrefix(c.APIBaseURL, "http") {
		c.APIBaseURL = "https://" + c.APIBaseURL
	}
}

// parseProxyURL parses a proxy URL from environment variable
func (c *Config) parseProxyURL(proxyURL string) {
	proxyURL = strings.TrimPrefix(proxyURL, "http://")
	proxyURL = strings.TrimPrefix(proxyURL, "https://")

	parts := strings.Split(proxyURL, ":")
	if len(parts) >= 1 {
		c.ProxyHost = parts[0]
	}
	if len(parts) >= 2 {
		if port, err := strconv.Atoi(strings.TrimSuffix(parts[1], "/")); err == nil {
			c.ProxyPort = port
		}
	}
	if c.ProxyHost != "" && (c.ProxyMode == "no-proxy" || c.ProxyMode == "") {
		c.ProxyMode = "system"
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}
	if c.InterRequestDelay < 0 || c.DisplayResetDelay < 0 {
		return fmt.Errorf("delays must not be negative")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	switch strings.ToLower(c.ProxyMode) {
	case "", "no-proxy", "system", "basic", "ntlm":
	default:
		return fmt.Errorf("unsupported proxy mode: %s", c.ProxyMode)
	}
	return nil
}

// GetDefaultConfigPath returns the default config file path
// - Windows: %APPDATA%\DocAssist\config.csv
// - Unix: ~/.config/docassist/config.csv
func GetDefaultConfigPath() string {
	configDir := getConfigDir()
	if configDir == "" {
		return "config.csv"
	}
	return filepath.Join(configDir, "config.csv")
}

// GetDefaultTokenPath returns the default session token path.
// This is where 'login' and 'register' save the token.
func GetDefaultTokenPath() string {
	configDir := getConfigDir()
	if configDir == "" {
		return ""
	}
	return filepath.Join(configDir, "token")
}

// GetDefaultStorePath returns the default sqlite database path.
func GetDefaultStorePath() string {
	configDir := getConfigDir()
	if configDir == "" {
		return constants.DatabaseFileName
	}
	return filepath.Join(configDir, constants.DatabaseFileName)
}

// ResolveStorePath returns the configured store path or the default one.
// A configured path may start with "~".
func (c *Config) ResolveStorePath() string {
	if c.StorePath != "" {
		if resolved, err := pathutil.ResolveAbsolutePath(c.StorePath); err == nil {
			return resolved
		}
		return c.StorePath
	}
	return GetDefaultStorePath()
}

// EnsureConfigDir creates the config directory if it doesn't exist
func EnsureConfigDir() error {
	configDir := getConfigDir()
	if configDir == "" {
		return fmt.Errorf("could not determine config directory")
	}
	return os.MkdirAll(configDir, 0700)
}

// ReadTokenFile reads a session token from a file
// The file should contain only the token (whitespace is trimmed)
// Warns if file permissions are too open (not 0600 on Unix systems)
func ReadTokenFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat token file: %w", err)
	}

	mode := info.Mode().Perm()
	if mode&0077 != 0 {
		fmt.Fprintf(os.Stderr, "Warning: Token file %s has insecure permissions %04o. Consider using 'chmod 600 %s'\n", path, mode, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file is empty")
	}
	return token, nil
}

// WriteTokenFile writes a session token to a file with secure permissions (0600)
func WriteTokenFile(path, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("cannot write empty token")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// RemoveTokenFile deletes the token file. A missing file is not an error.
func RemoveTokenFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
