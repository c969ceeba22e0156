package s3vfs

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config holds the client configuration read once from the environment at
// first client construction. Later changes to the environment are ignored.
type Config struct {
	Endpoint string
	Region   string

	UseHTTPS  bool
	VerifySSL bool

	ConnectTimeout time.Duration
	RequestTimeout time.Duration

	CAFile string
	CAPath string
}

// loadConfigFromEnv populates a Config from the environment variables this
// adapter recognizes. It never touches the network.
func loadConfigFromEnv() *Config {
	cfg := &Config{
		UseHTTPS:  true,
		VerifySSL: true,
	}

	cfg.Endpoint = os.Getenv("S3_ENDPOINT")

	cfg.Region = os.Getenv("AWS_REGION")
	if cfg.Region == "" {
		cfg.Region = os.Getenv("S3_REGION")
	}
	if cfg.Region == "" && truthy(os.Getenv("AWS_SDK_LOAD_CONFIG")) {
		cfg.Region = regionFromConfigFile(configFilePath())
	}

	if v := os.Getenv("S3_USE_HTTPS"); v == "0" {
		cfg.UseHTTPS = false
	}
	if v := os.Getenv("S3_VERIFY_SSL"); v == "0" {
		cfg.VerifySSL = false
	}

	if ms, ok := parseMillis(os.Getenv("S3_CONNECT_TIMEOUT_MSEC")); ok {
		cfg.ConnectTimeout = ms
	}
	if ms, ok := parseMillis(os.Getenv("S3_REQUEST_TIMEOUT_MSEC")); ok {
		cfg.RequestTimeout = ms
	}

	cfg.CAFile = os.Getenv("S3_CA_FILE")
	cfg.CAPath = os.Getenv("S3_CA_PATH")

	return cfg
}

func truthy(v string) bool {
	return v == "true" || v == "1"
}

func parseMillis(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return time.Duration(n) * time.Millisecond, true
}

func configFilePath() string {
	if p := os.Getenv("AWS_CONFIG_FILE"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".aws", "config")
}

// regionFromConfigFile extracts the "region" key from the [default] section
// of an AWS-style config file. Malformed or missing files yield "".
func regionFromConfigFile(path string) string {
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	inDefault := false
	for _, rawLine := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(rawLine)
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		if line[0] == '[' {
			inDefault = line == "[default]"
			continue
		}
		if !inDefault {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if ok && strings.TrimSpace(key) == "region" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
