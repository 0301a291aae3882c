package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName = "catalog-sync.yaml"
	EnvFileName    = ".env"
)

// ErrNotFound is returned by Load when the catalog root has no config file.
var ErrNotFound = errors.New("catalog-sync.yaml not found")

// Config lives in the catalog root. Remote fields sit at the top level of the
// file.
type Config struct {
	Remote    Remote `yaml:",inline"`
	URLPrefix string `yaml:"url_prefix"`
}

type Remote struct {
	// URL is "ftp://host[:port][/dir]", "ssh://host[:port][/dir]" or a bare host (FTP).
	URL        string `yaml:"url"`
	User       string `yaml:"user"`
	Password   string `yaml:"password"`
	PrivateKey string `yaml:"private_key,omitempty"`
	KnownHosts string `yaml:"known_hosts,omitempty"`
	Timeout    string `yaml:"timeout,omitempty"`
}

// TimeoutDuration parses Timeout; zero means the transport default.
func (r Remote) TimeoutDuration() (time.Duration, error) {
	if strings.TrimSpace(r.Timeout) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(r.Timeout))
	if err != nil {
		return 0, fmt.Errorf("timeout %q: %v", r.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout %q must not be negative", r.Timeout)
	}
	return d, nil
}

func Path(root string) string {
	return filepath.Join(root, ConfigFileName)
}

func Exists(root string) bool {
	_, err := os.Stat(Path(root))
	return err == nil
}

// Load reads root/catalog-sync.yaml. ${VAR} references are expanded from the
// process environment first, then from root/.env.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(Path(root))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w in %s. Please run 'catalog-sync init' first", ErrNotFound, root)
		}
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	dotenv, err := readDotEnv(filepath.Join(root, EnvFileName))
	if err != nil {
		return nil, err
	}
	expanded := os.Expand(string(data), func(name string) string {
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		return dotenv[name]
	})

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}
	return &cfg, nil
}

// LoadOrEmpty is Load without ErrNotFound: a missing file yields a zero Config.
func LoadOrEmpty(root string) (*Config, error) {
	cfg, err := Load(root)
	if errors.Is(err, ErrNotFound) {
		return &Config{}, nil
	}
	return cfg, err
}

func readDotEnv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("error reading %s: %v", path, err)
	}
	return values, nil
}

// ValidateForExport checks what the CSV export needs.
func ValidateForExport(cfg *Config) error {
	var validationErrors []string
	if strings.TrimSpace(cfg.URLPrefix) == "" {
		validationErrors = append(validationErrors, "url_prefix cannot be empty")
	}
	return joinErrors(validationErrors)
}

// ValidateForUpload checks what a sync run needs.
func ValidateForUpload(cfg *Config) error {
	var validationErrors []string
	r := cfg.Remote

	if strings.TrimSpace(r.URL) == "" {
		validationErrors = append(validationErrors, "url cannot be empty")
	}
	if strings.TrimSpace(r.User) == "" {
		validationErrors = append(validationErrors, "user cannot be empty")
	}
	if strings.TrimSpace(r.PrivateKey) != "" {
		if _, err := os.Stat(r.PrivateKey); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("private key file does not exist: %s", r.PrivateKey))
		}
	}
	if strings.TrimSpace(r.KnownHosts) != "" {
		if _, err := os.Stat(r.KnownHosts); os.IsNotExist(err) {
			validationErrors = append(validationErrors, fmt.Sprintf("known_hosts file does not exist: %s", r.KnownHosts))
		}
	}
	if _, err := r.TimeoutDuration(); err != nil {
		validationErrors = append(validationErrors, err.Error())
	}
	return joinErrors(validationErrors)
}

func joinErrors(validationErrors []string) error {
	if len(validationErrors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(validationErrors, "\n"))
	}
	return nil
}

const template = `# catalog-sync configuration. ${VAR} values are read from the environment
# or from a .env file next to this one.

# Remote image directory: ftp://host[:port]/dir, ssh://host[:port]/dir or a bare host (FTP).
url: ftp://example.com/public_html/wp-content/uploads/products
user: ${CATALOG_SYNC_USER}
password: ${CATALOG_SYNC_PASSWORD}
# private_key: /home/me/.ssh/id_ed25519
# known_hosts: /home/me/.ssh/known_hosts
timeout: 30s

# Prepended to "<sku>.jpg" in the Images column of products.csv.
url_prefix: https://example.com/wp-content/uploads/products/
`

// WriteTemplate creates root/catalog-sync.yaml unless it already exists.
func WriteTemplate(root string) (string, error) {
	path := Path(root)
	if Exists(root) {
		return path, fmt.Errorf("%s already exists", path)
	}
	if err := os.WriteFile(path, []byte(template), 0o600); err != nil {
		return path, fmt.Errorf("error writing config file: %v", err)
	}
	return path, nil
}
