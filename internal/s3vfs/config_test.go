package s3vfs

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearS3Env(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"S3_ENDPOINT", "AWS_REGION", "S3_REGION", "AWS_SDK_LOAD_CONFIG",
		"AWS_CONFIG_FILE", "S3_USE_HTTPS", "S3_VERIFY_SSL",
		"S3_CONNECT_TIMEOUT_MSEC", "S3_REQUEST_TIMEOUT_MSEC",
		"S3_CA_FILE", "S3_CA_PATH",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	clearS3Env(t)

	cfg := loadConfigFromEnv()
	if !cfg.UseHTTPS || !cfg.VerifySSL {
		t.Fatal("HTTPS and TLS verification must default on")
	}
	if cfg.Endpoint != "" || cfg.Region != "" {
		t.Fatalf("expected empty endpoint and region, got %q %q", cfg.Endpoint, cfg.Region)
	}
	if cfg.ConnectTimeout != 0 || cfg.RequestTimeout != 0 {
		t.Fatal("expected zero timeouts by default")
	}
}

func TestLoadConfigFromEnv_ReadsEverything(t *testing.T) {
	clearS3Env(t)
	t.Setenv("S3_ENDPOINT", "minio.local:9000")
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("S3_USE_HTTPS", "0")
	t.Setenv("S3_VERIFY_SSL", "0")
	t.Setenv("S3_CONNECT_TIMEOUT_MSEC", "2500")
	t.Setenv("S3_REQUEST_TIMEOUT_MSEC", "9000")
	t.Setenv("S3_CA_FILE", "/etc/ssl/extra.pem")
	t.Setenv("S3_CA_PATH", "/etc/ssl/extra")

	cfg := loadConfigFromEnv()
	if cfg.Endpoint != "minio.local:9000" {
		t.Fatalf("endpoint %q", cfg.Endpoint)
	}
	if cfg.Region != "eu-west-1" {
		t.Fatalf("region %q", cfg.Region)
	}
	if cfg.UseHTTPS || cfg.VerifySSL {
		t.Fatal("expected HTTP and disabled verification")
	}
	if cfg.ConnectTimeout != 2500*time.Millisecond || cfg.RequestTimeout != 9*time.Second {
		t.Fatalf("timeouts %v %v", cfg.ConnectTimeout, cfg.RequestTimeout)
	}
	if cfg.CAFile != "/etc/ssl/extra.pem" || cfg.CAPath != "/etc/ssl/extra" {
		t.Fatalf("trust anchors %q %q", cfg.CAFile, cfg.CAPath)
	}
}

func TestLoadConfigFromEnv_AWSRegionTakesPrecedence(t *testing.T) {
	clearS3Env(t)
	t.Setenv("AWS_REGION", "us-east-2")
	t.Setenv("S3_REGION", "legacy-region")

	if cfg := loadConfigFromEnv(); cfg.Region != "us-east-2" {
		t.Fatalf("AWS_REGION must win, got %q", cfg.Region)
	}
}

func TestLoadConfigFromEnv_LegacyRegionFallback(t *testing.T) {
	clearS3Env(t)
	t.Setenv("S3_REGION", "legacy-region")

	if cfg := loadConfigFromEnv(); cfg.Region != "legacy-region" {
		t.Fatalf("expected S3_REGION fallback, got %q", cfg.Region)
	}
}

func TestLoadConfigFromEnv_RegionFromConfigFile(t *testing.T) {
	clearS3Env(t)

	path := filepath.Join(t.TempDir(), "config")
	contents := `
# comment
[profile other]
region = nope

[default]
; another comment
output = json
region = ap-southeast-2
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AWS_SDK_LOAD_CONFIG", "1")
	t.Setenv("AWS_CONFIG_FILE", path)

	if cfg := loadConfigFromEnv(); cfg.Region != "ap-southeast-2" {
		t.Fatalf("expected region from [default], got %q", cfg.Region)
	}
}

func TestLoadConfigFromEnv_ConfigFileIgnoredWithoutOptIn(t *testing.T) {
	clearS3Env(t)

	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte("[default]\nregion = us-west-1\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AWS_CONFIG_FILE", path)

	if cfg := loadConfigFromEnv(); cfg.Region != "" {
		t.Fatalf("config file must be ignored without AWS_SDK_LOAD_CONFIG, got %q", cfg.Region)
	}
}

func TestRegionFromConfigFile_MissingOrMalformed(t *testing.T) {
	if regionFromConfigFile("") != "" {
		t.Fatal("empty path must yield empty region")
	}
	if regionFromConfigFile(filepath.Join(t.TempDir(), "absent")) != "" {
		t.Fatal("missing file must yield empty region")
	}

	path := filepath.Join(t.TempDir(), "config")
	if err := os.WriteFile(path, []byte("not an ini file at all"), 0o600); err != nil {
		t.Fatal(err)
	}
	if regionFromConfigFile(path) != "" {
		t.Fatal("malformed file must yield empty region")
	}
}

func TestParseMillis(t *testing.T) {
	if d, ok := parseMillis("1500"); !ok || d != 1500*time.Millisecond {
		t.Fatalf("got (%v, %v)", d, ok)
	}
	if _, ok := parseMillis(""); ok {
		t.Fatal("empty value must not parse")
	}
	if _, ok := parseMillis("abc"); ok {
		t.Fatal("non-numeric value must not parse")
	}
}
