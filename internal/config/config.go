package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type File struct {
	Version int     `yaml:"version" json:"version"`
	Browser Browser `yaml:"browser" json:"browser"`
	Server  Server  `yaml:"server" json:"server"`
	Journal Journal `yaml:"journal" json:"journal"`
	Ticks   Ticks   `yaml:"ticks" json:"ticks"`
}

type Browser struct {
	// RemoteURL attaches to a running Chrome (ws://host:9222/...). Empty
	// launches a new one.
	RemoteURL  string `yaml:"remote_url,omitempty" json:"remote_url,omitempty"`
	StartURL   string `yaml:"start_url,omitempty" json:"start_url,omitempty"`
	Headless   bool   `yaml:"headless,omitempty" json:"headless,omitempty"`
	ProfileDir string `yaml:"profile_dir,omitempty" json:"profile_dir,omitempty"`
	ExecPath   string `yaml:"exec_path,omitempty" json:"exec_path,omitempty"`
}

type Server struct {
	Addr         string `yaml:"addr" json:"addr"`
	GRPCAddr     string `yaml:"grpc_addr" json:"grpc_addr"`
	MDNS         *bool  `yaml:"mdns,omitempty" json:"mdns,omitempty"`
	MDNSInstance string `yaml:"mdns_instance,omitempty" json:"mdns_instance,omitempty"`
}

// MDNSEnabled defaults to true when unset.
func (s Server) MDNSEnabled() bool {
	return s.MDNS == nil || *s.MDNS
}

type Journal struct {
	// Path of the sqlite journal. Empty disables journaling.
	Path string `yaml:"path" json:"path"`
}

type Ticks struct {
	SampleMS int `yaml:"sample_ms" json:"sample_ms"`
	StatusMS int `yaml:"status_ms" json:"status_ms"`
}

func (t Ticks) Sample() time.Duration { return time.Duration(t.SampleMS) * time.Millisecond }
func (t Ticks) Status() time.Duration { return time.Duration(t.StatusMS) * time.Millisecond }

// Default returns the configuration used when no file is given.
func Default() File {
	return File{
		Version: 1,
		Browser: Browser{StartURL: "about:blank"},
		Server: Server{
			Addr:     "127.0.0.1:8112",
			GRPCAddr: "127.0.0.1:8113",
		},
		Journal: Journal{Path: "padnav.db"},
		Ticks:   Ticks{SampleMS: 100, StatusMS: 1000},
	}
}

func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read config file %q: %w", path, err)
	}

	return Parse(data, path)
}

// Parse decodes data over Default, so omitted keys keep their defaults.
func Parse(data []byte, source string) (File, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse YAML in %q: %w", source, err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return cfg, fmt.Errorf("invalid config in %q: %s", source, strings.Join(errs, "; "))
	}
	return cfg, nil
}

func (cfg File) Validate() []string {
	var errs []string

	if cfg.Version != 1 {
		errs = append(errs, fmt.Sprintf("unsupported config version %d", cfg.Version))
	}
	if u := strings.TrimSpace(cfg.Browser.RemoteURL); u != "" &&
		!strings.HasPrefix(u, "ws://") && !strings.HasPrefix(u, "wss://") &&
		!strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		errs = append(errs, "browser.remote_url must be a ws:// or http:// DevTools URL")
	}
	if strings.TrimSpace(cfg.Server.Addr) == "" {
		errs = append(errs, "server.addr is required")
	} else if _, _, err := net.SplitHostPort(cfg.Server.Addr); err != nil {
		errs = append(errs, fmt.Sprintf("server.addr %q is not host:port", cfg.Server.Addr))
	}
	if a := strings.TrimSpace(cfg.Server.GRPCAddr); a != "" {
		if _, _, err := net.SplitHostPort(a); err != nil {
			errs = append(errs, fmt.Sprintf("server.grpc_addr %q is not host:port", a))
		} else if a == strings.TrimSpace(cfg.Server.Addr) {
			errs = append(errs, "server.grpc_addr must differ from server.addr")
		}
	}
	if cfg.Ticks.SampleMS <= 0 {
		errs = append(errs, "ticks.sample_ms must be positive")
	}
	if cfg.Ticks.StatusMS <= 0 {
		errs = append(errs, "ticks.status_ms must be positive")
	}
	return errs
}

// ApplyEnv overrides cfg from PADNAV_* environment variables.
func (cfg *File) ApplyEnv() {
	cfg.Browser.RemoteURL = envOrDefault("PADNAV_CDP_URL", cfg.Browser.RemoteURL)
	cfg.Browser.StartURL = envOrDefault("PADNAV_START_URL", cfg.Browser.StartURL)
	cfg.Server.Addr = envOrDefault("PADNAV_ADDR", cfg.Server.Addr)
	cfg.Server.GRPCAddr = envOrDefault("PADNAV_GRPC_ADDR", cfg.Server.GRPCAddr)
	cfg.Server.MDNSInstance = envOrDefault("PADNAV_MDNS_INSTANCE", cfg.Server.MDNSInstance)
	cfg.Journal.Path = envOrDefault("PADNAV_JOURNAL", cfg.Journal.Path)
	if v := strings.TrimSpace(os.Getenv("PADNAV_MDNS_ENABLE")); v != "" {
		enabled := v != "false" && v != "0"
		cfg.Server.MDNS = &enabled
	}
	if strings.TrimSpace(os.Getenv("PADNAV_HEADLESS")) == "true" {
		cfg.Browser.Headless = true
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
