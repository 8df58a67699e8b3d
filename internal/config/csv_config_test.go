package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadConfigCSV(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr bool
		check   func(*testing.T, *Config)
	}{
		{
			name: "full config",
			content: "key,value\n" +
				"api_base_url,https://docs.example.com/api\n" +
				"proxy_mode,basic\n" +
				"proxy_host,proxy.example.com\n" +
				"proxy_port,3128\n" +
				"inter_request_delay_ms,0\n" +
				"display_reset_delay_ms,1500\n" +
				"max_retries,2\n" +
				"request_timeout_seconds,45\n" +
				"render_markdown,false\n" +
				"store_path,/tmp/docassist.db\n",
			check: func(t *testing.T, cfg *Config) {
				if cfg.APIBaseURL != "https://docs.example.com/api" {
					t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
				}
				if cfg.ProxyMode != "basic" || cfg.ProxyHost != "proxy.example.com" || cfg.ProxyPort != 3128 {
					t.Errorf("proxy = %s %s:%d", cfg.ProxyMode, cfg.ProxyHost, cfg.ProxyPort)
				}
				if cfg.InterRequestDelay != 0 {
					t.Errorf("InterRequestDelay = %v, want 0", cfg.InterRequestDelay)
				}
				if cfg.DisplayResetDelay != 1500*time.Millisecond {
					t.Errorf("DisplayResetDelay = %v, want 1.5s", cfg.DisplayResetDelay)
				}
				if cfg.MaxRetries != 2 {
					t.Errorf("MaxRetries = %d, want 2", cfg.MaxRetries)
				}
				if cfg.RequestTimeout != 45*time.Second {
					t.Errorf("RequestTimeout = %v, want 45s", cfg.RequestTimeout)
				}
				if cfg.RenderMarkdown {
					t.Error("RenderMarkdown should be false")
				}
				if cfg.ResolveStorePath() != "/tmp/docassist.db" {
					t.Errorf("ResolveStorePath() = %q", cfg.ResolveStorePath())
				}
			},
		},
		{
			name:    "minimal config keeps defaults",
			content: "api_base_url,http://127.0.0.1:9000/api\n",
			check: func(t *testing.T, cfg *Config) {
				if cfg.InterRequestDelay != 500*time.Millisecond {
					t.Errorf("InterRequestDelay = %v, want default", cfg.InterRequestDelay)
				}
				if cfg.DisplayResetDelay != 3*time.Second {
					t.Errorf("DisplayResetDelay = %v, want default", cfg.DisplayResetDelay)
				}
				if !cfg.RenderMarkdown {
					t.Error("RenderMarkdown should default to true")
				}
			},
		},
		{
			name:    "token in file is ignored",
			content: "key,value\ntoken,leaked-secret\nproxy_password,hunter2\n",
			check: func(t *testing.T, cfg *Config) {
				if cfg.Token != "" {
					t.Errorf("Token = %q, want empty", cfg.Token)
				}
				if cfg.ProxyPassword != "" {
					t.Errorf("ProxyPassword = %q, want empty", cfg.ProxyPassword)
				}
			},
		},
		{
			name:    "malformed csv",
			content: "api_base_url,\"unterminated\n",
			wantErr: true,
		},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, "config"+string(rune('a'+i))+".csv", tt.content)
			cfg, err := LoadConfigCSV(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("LoadConfigCSV() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestLoadConfigCSV_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfigCSV(filepath.Join(t.TempDir(), "nonexistent.csv"))
	if err != nil {
		t.Fatalf("LoadConfigCSV() error = %v", err)
	}
	if cfg.APIBaseURL != DefaultAPIBaseURL {
		t.Errorf("APIBaseURL = %q, want %q", cfg.APIBaseURL, DefaultAPIBaseURL)
	}
}

func TestSaveConfigCSV_RoundTripOmitsSecrets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.csv")

	cfg := Defaults()
	cfg.APIBaseURL = "https://docs.example.com/api"
	cfg.Token = "session-token"
	cfg.ProxyPassword = "hunter2"
	cfg.InterRequestDelay = 0

	if err := SaveConfigCSV(cfg, path); err != nil {
		t.Fatalf("SaveConfigCSV() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if strings.Contains(string(data), "session-token") || strings.Contains(string(data), "hunter2") {
		t.Errorf("secrets persisted to config.csv:\n%s", data)
	}

	loaded, err := LoadConfigCSV(path)
	if err != nil {
		t.Fatalf("LoadConfigCSV() error = %v", err)
	}
	if loaded.APIBaseURL != cfg.APIBaseURL {
		t.Errorf("APIBaseURL = %q, want %q", loaded.APIBaseURL, cfg.APIBaseURL)
	}
	if loaded.InterRequestDelay != 0 {
		t.Errorf("InterRequestDelay = %v, want 0", loaded.InterRequestDelay)
	}
}

func TestMergeWithFlagsAndTokenFile(t *testing.T) {
	tests := []struct {
		name      string
		envToken  string
		fileToken string
		flagToken string
		want      string
	}{
		{name: "default token file only", fileToken: "from-file", want: "from-file"},
		{name: "env beats file", envToken: "from-env", fileToken: "from-file", want: "from-env"},
		{name: "flag beats env", envToken: "from-env", flagToken: "from-flag", want: "from-flag"},
		{name: "nothing set", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			t.Setenv(configDirEnv, dir)
			t.Setenv("DOCASSIST_TOKEN", tt.envToken)
			t.Setenv("DOCASSIST_API_URL", "")
			t.Setenv("HTTPS_PROXY", "")
			if tt.fileToken != "" {
				if err := WriteTokenFile(GetDefaultTokenPath(), tt.fileToken); err != nil {
					t.Fatalf("WriteTokenFile() error = %v", err)
				}
			}

			cfg := Defaults()
			cfg.MergeWithFlagsAndTokenFile(tt.flagToken, "", "", "", "", 0)
			if cfg.Token != tt.want {
				t.Errorf("Token = %q, want %q", cfg.Token, tt.want)
			}
		})
	}
}

func TestMergeWithFlags_URLAndProxy(t *testing.T) {
	t.Setenv(configDirEnv, t.TempDir())
	t.Setenv("DOCASSIST_TOKEN", "")
	t.Setenv("DOCASSIST_API_URL", "")
	t.Setenv("HTTPS_PROXY", "")

	cfg := Defaults()
	cfg.MergeWithFlagsAndTokenFile("", "", "docs.example.com/api/", "ntlm", "proxy.example.com", 8080)

	if cfg.APIBaseURL != "https://docs.example.com/api" {
		t.Errorf("APIBaseURL = %q, want normalized https URL", cfg.APIBaseURL)
	}
	if cfg.ProxyMode != "ntlm" || cfg.ProxyHost != "proxy.example.com" || cfg.ProxyPort != 8080 {
		t.Errorf("proxy = %s %s:%d", cfg.ProxyMode, cfg.ProxyHost, cfg.ProxyPort)
	}
}

func TestEnvironmentVariables(t *testing.T) {
	t.Setenv(configDirEnv, t.TempDir())
	t.Setenv("DOCASSIST_TOKEN", "")
	t.Setenv("DOCASSIST_API_URL", "http://10.0.0.5:8080/api")
	t.Setenv("HTTPS_PROXY", "http://corp-proxy:3128")

	cfg := Defaults()
	cfg.MergeWithFlagsAndTokenFile("", "", "", "", "", 0)

	if cfg.APIBaseURL != "http://10.0.0.5:8080/api" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.ProxyHost != "corp-proxy" || cfg.ProxyPort != 3128 {
		t.Errorf("proxy = %s:%d, want corp-proxy:3128", cfg.ProxyHost, cfg.ProxyPort)
	}
	if cfg.ProxyMode != "system" {
		t.Errorf("ProxyMode = %q, want system", cfg.ProxyMode)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "missing URL", mutate: func(c *Config) { c.APIBaseURL = "" }, wantErr: true},
		{name: "negative delay", mutate: func(c *Config) { c.InterRequestDelay = -time.Second }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.MaxRetries = -1 }, wantErr: true},
		{name: "unknown proxy mode", mutate: func(c *Config) { c.ProxyMode = "socks" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")

	if err := WriteTokenFile(path, "  abc123 \n"); err != nil {
		t.Fatalf("WriteTokenFile() error = %v", err)
	}
	if runtime.GOOS != "windows" {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if perm := info.Mode().Perm(); perm != 0600 {
			t.Errorf("token file mode = %04o, want 0600", perm)
		}
	}

	got, err := ReadTokenFile(path)
	if err != nil {
		t.Fatalf("ReadTokenFile() error = %v", err)
	}
	if got != "abc123" {
		t.Errorf("ReadTokenFile() = %q, want abc123", got)
	}

	if err := WriteTokenFile(path, "   "); err == nil {
		t.Error("WriteTokenFile() with blank token should fail")
	}

	if err := RemoveTokenFile(path); err != nil {
		t.Fatalf("RemoveTokenFile() error = %v", err)
	}
	if err := RemoveTokenFile(path); err != nil {
		t.Errorf("RemoveTokenFile() on missing file error = %v", err)
	}
}
