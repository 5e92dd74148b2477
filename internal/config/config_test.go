package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/jobrunner/geopipe/internal/domain"
)

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Host: "0.0.0.0", Port: 8080},
		Storage:  StorageConfig{Type: "local", LocalPath: "./data"},
		Pipeline: PipelineConfig{Topology: "geography", OutputFormat: "wkt"},
		Store:    StoreConfig{Path: "./geopipe.db"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(c *Config)
		wantField string
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "port zero", modify: func(c *Config) { c.Server.Port = 0 }, wantField: "server.port"},
		{name: "port too large", modify: func(c *Config) { c.Server.Port = 70000 }, wantField: "server.port"},
		{name: "tls without domains", modify: func(c *Config) {
			c.TLS.Enabled = true
			c.TLS.Email = "ops@example.com"
		}, wantField: "tls.domains"},
		{name: "tls without email", modify: func(c *Config) {
			c.TLS.Enabled = true
			c.TLS.Domains = []string{"example.com"}
		}, wantField: "tls.email"},
		{name: "unknown topology", modify: func(c *Config) { c.Pipeline.Topology = "sphere" }, wantField: "pipeline.topology"},
		{name: "geometry topology", modify: func(c *Config) { c.Pipeline.Topology = "geometry" }},
		{name: "negative srid", modify: func(c *Config) { c.Pipeline.SRID = -1 }, wantField: "pipeline.srid"},
		{name: "unknown output format", modify: func(c *Config) { c.Pipeline.OutputFormat = "kml" }, wantField: "pipeline.output_format"},
		{name: "persist without store", modify: func(c *Config) { c.Pipeline.Persist = true }, wantField: "pipeline.persist"},
		{name: "persist with store", modify: func(c *Config) {
			c.Pipeline.Persist = true
			c.Store.Enabled = true
		}},
		{name: "store without path", modify: func(c *Config) {
			c.Store.Enabled = true
			c.Store.Path = ""
		}, wantField: "store.path"},
		{name: "local without path", modify: func(c *Config) { c.Storage.LocalPath = "" }, wantField: "storage.local_path"},
		{name: "s3 without bucket", modify: func(c *Config) {
			c.Storage.Type = "s3"
			c.Storage.S3.Region = "eu-central-1"
		}, wantField: "storage.s3.bucket"},
		{name: "s3 without region", modify: func(c *Config) {
			c.Storage.Type = "s3"
			c.Storage.S3.Bucket = "documents"
		}, wantField: "storage.s3.region"},
		{name: "azure with connection string", modify: func(c *Config) {
			c.Storage.Type = "azure"
			c.Storage.Azure.Container = "documents"
			c.Storage.Azure.ConnectionString = "UseDevelopmentStorage=true"
		}},
		{name: "azure without account", modify: func(c *Config) {
			c.Storage.Type = "azure"
			c.Storage.Azure.Container = "documents"
		}, wantField: "storage.azure"},
		{name: "http without base url", modify: func(c *Config) { c.Storage.Type = "http" }, wantField: "storage.http.base_url"},
		{name: "unknown storage", modify: func(c *Config) { c.Storage.Type = "ftp" }, wantField: "storage.type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}

			var cfgErr *domain.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() error = %v, want ConfigError", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.wantField)
			}
			if !errors.Is(err, domain.ErrInvalidInput) {
				t.Error("ConfigError should unwrap to ErrInvalidInput")
			}
		})
	}
}

func TestParseTopology(t *testing.T) {
	tests := []struct {
		input  string
		want   domain.Topology
		wantOK bool
	}{
		{"geography", domain.TopologyGeography, true},
		{"GEOG", domain.TopologyGeography, true},
		{" geometry ", domain.TopologyGeometry, true},
		{"geom", domain.TopologyGeometry, true},
		{"", domain.TopologyGeography, false},
		{"planar", domain.TopologyGeography, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseTopology(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("ParseTopology(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSRIDOverride(t *testing.T) {
	cfg := PipelineConfig{}
	if cfg.SRIDOverride() != nil {
		t.Error("SRIDOverride() should be nil for 0")
	}

	cfg.SRID = 25832
	if got := cfg.SRIDOverride(); got == nil || *got != 25832 {
		t.Errorf("SRIDOverride() = %v, want 25832", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "geopipe.yaml")
	content := `
server:
  port: 9090
pipeline:
  topology: geometry
  srid: 3857
watch:
  debounce: 2s
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want default", cfg.Server.Host)
	}
	if cfg.Pipeline.TopologyValue() != domain.TopologyGeometry {
		t.Errorf("Pipeline.TopologyValue() = %v, want geometry", cfg.Pipeline.TopologyValue())
	}
	if cfg.Pipeline.SRID != 3857 {
		t.Errorf("Pipeline.SRID = %d, want 3857", cfg.Pipeline.SRID)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("Watch.Debounce = %v, want 2s", cfg.Watch.Debounce)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want /metrics", cfg.Metrics.Path)
	}
}
