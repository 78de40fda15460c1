// Package config loads notegraph settings from notegraph.yaml, .env files and
// NOTEGRAPH_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const FileName = "notegraph.yaml"

// Duration is a time.Duration written as "250ms" in YAML.
type Duration time.Duration

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", value.Line, raw, err)
	}
	*d = Duration(parsed)
	return nil
}

type Config struct {
	Root                  string          `yaml:"root"`
	AllowedExtensions     []string        `yaml:"allowed_extensions"`
	DefaultImageURL       string          `yaml:"default_image_url"`
	DefaultRegionImageURL string          `yaml:"default_region_image_url"`
	RegionImageName       string          `yaml:"region_image_name"`
	LinkPrefix            string          `yaml:"link_prefix"`
	Ignore                []string        `yaml:"ignore,omitempty"`
	ReadOnly              bool            `yaml:"read_only"`
	Synthesis             SynthesisConfig `yaml:"synthesis"`
	Cache                 CacheConfig     `yaml:"cache"`
	Server                ServerConfig    `yaml:"server"`
	Watch                 WatchConfig     `yaml:"watch"`
}

type SynthesisConfig struct {
	Concurrency int      `yaml:"concurrency"`
	ReadTimeout Duration `yaml:"read_timeout"`
}

type CacheConfig struct {
	Size int `yaml:"size"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type WatchConfig struct {
	Debounce Duration `yaml:"debounce"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Root:                  ".",
		AllowedExtensions:     []string{".html", ".htm", ".php", ".js", ".py"},
		DefaultImageURL:       "/DefaultNodeImage.png",
		DefaultRegionImageURL: "/DefaultRegionImage.png",
		RegionImageName:       "directory.png",
		LinkPrefix:            "Notebook/",
		Synthesis: SynthesisConfig{
			Concurrency: 8,
			ReadTimeout: Duration(5 * time.Second),
		},
		Cache:  CacheConfig{Size: 512},
		Server: ServerConfig{Addr: ":3000"},
		Watch:  WatchConfig{Debounce: Duration(250 * time.Millisecond)},
	}
}

// LoadOptions selects where configuration comes from. Root, when set, wins
// over NOTEGRAPH_ROOT and the file.
type LoadOptions struct {
	Root string
	Path string
}

// Load resolves the effective configuration: defaults, then the config file,
// then environment overrides.
func Load(opts LoadOptions) (Config, error) {
	cfg := Default()

	root := firstNonEmpty(strings.TrimSpace(opts.Root), strings.TrimSpace(os.Getenv("NOTEGRAPH_ROOT")), ".")
	if err := loadEnvFiles(".env", filepath.Join(root, ".env")); err != nil {
		return Config{}, err
	}
	// .env may have provided the root.
	root = firstNonEmpty(strings.TrimSpace(opts.Root), strings.TrimSpace(os.Getenv("NOTEGRAPH_ROOT")), ".")

	path := opts.Path
	required := path != ""
	if path == "" {
		path = filepath.Join(root, FileName)
	}
	if err := decodeFile(path, required, &cfg); err != nil {
		return Config{}, err
	}

	applyEnv(&cfg)
	if opts.Root != "" || os.Getenv("NOTEGRAPH_ROOT") != "" || cfg.Root == "" {
		cfg.Root = root
	}
	cfg.Root = filepath.Clean(cfg.Root)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults without consulting the environment.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := decode(bytes.NewReader(data), &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// Validate rejects settings the scanner and synthesizer cannot run with.
func (c Config) Validate() error {
	if len(c.AllowedExtensions) == 0 {
		return errors.New("config: allowed_extensions must not be empty")
	}
	if c.Synthesis.Concurrency <= 0 {
		return fmt.Errorf("config: synthesis.concurrency must be positive, got %d", c.Synthesis.Concurrency)
	}
	if c.Synthesis.ReadTimeout <= 0 {
		return fmt.Errorf("config: synthesis.read_timeout must be positive, got %s", c.Synthesis.ReadTimeout.Std())
	}
	if c.Cache.Size <= 0 {
		return fmt.Errorf("config: cache.size must be positive, got %d", c.Cache.Size)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("config: watch.debounce must not be negative, got %s", c.Watch.Debounce.Std())
	}
	return nil
}

func loadEnvFiles(paths ...string) error {
	seen := make(map[string]bool, len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil || seen[abs] {
			continue
		}
		seen[abs] = true
		if _, err := os.Stat(abs); err != nil {
			continue
		}
		if err := godotenv.Load(abs); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", abs, err)
		}
	}
	return nil
}

func decodeFile(path string, required bool, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	defer f.Close()

	if err := decode(f, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func decode(r io.Reader, cfg *Config) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("NOTEGRAPH_ADDR")); v != "" {
		if !strings.Contains(v, ":") {
			v = ":" + v
		}
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv("NOTEGRAPH_DEFAULT_IMAGE_URL")); v != "" {
		cfg.DefaultImageURL = v
	}
	if v, ok := os.LookupEnv("NOTEGRAPH_LINK_PREFIX"); ok {
		cfg.LinkPrefix = strings.TrimSpace(v)
	}
	if v := strings.TrimSpace(os.Getenv("NOTEGRAPH_EXTENSIONS")); v != "" {
		cfg.AllowedExtensions = strings.FieldsFunc(v, func(r rune) bool {
			return r == ',' || r == ' '
		})
	}
	if v := strings.TrimSpace(os.Getenv("NOTEGRAPH_CONCURRENCY")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Synthesis.Concurrency = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("NOTEGRAPH_READ_ONLY")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.ReadOnly = b
		}
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
