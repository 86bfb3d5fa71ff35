package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Broker.URL == "" || cfg.Broker.ClientIDPrefix == "" {
		t.Errorf("broker defaults incomplete: %+v", cfg.Broker)
	}
	if cfg.Broker.ReconnectMin <= 0 || cfg.Broker.ReconnectMax <= cfg.Broker.ReconnectMin {
		t.Errorf("reconnect bounds = (%v, %v)", cfg.Broker.ReconnectMin, cfg.Broker.ReconnectMax)
	}
	if cfg.Web.Port == 0 {
		t.Error("web port unset")
	}
	if cfg.Redis.Enabled || cfg.Export.Enabled {
		t.Error("optional backends enabled by default")
	}
	for _, color := range []string{"RED", "BLUE", "WHITE"} {
		wf := cfg.Workflows.Production[color]
		if len(wf) != 3 {
			t.Errorf("workflow %s = %v, want 3 stations", color, wf)
		}
	}
	if cfg.Debug() {
		t.Error("debug on by default")
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Broker.URL != Defaults().Broker.URL {
		t.Errorf("url = %q", cfg.Broker.URL)
	}
}

func TestLoadYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ccugateway.yaml")
	body := `
broker:
  url: tcp://broker.local:1883
  connect_timeout: 5s
web:
  port: 9000
workflows:
  production:
    RED: [MILL, DRILL, AIQS]
log_level: DEBUG
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Broker.URL != "tcp://broker.local:1883" {
		t.Errorf("url = %q", cfg.Broker.URL)
	}
	if cfg.Broker.ConnectTimeout != 5*time.Second {
		t.Errorf("connect timeout = %v", cfg.Broker.ConnectTimeout)
	}
	if cfg.Web.Port != 9000 {
		t.Errorf("port = %d", cfg.Web.Port)
	}
	// Untouched keys keep their defaults.
	if cfg.Broker.ClientIDPrefix != Defaults().Broker.ClientIDPrefix {
		t.Errorf("client id prefix = %q", cfg.Broker.ClientIDPrefix)
	}
	if !cfg.Debug() {
		t.Error("log_level DEBUG not recognized")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("broker: ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("broken yaml accepted")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CCU_BROKER_URL", "tcp://env.local:1883")
	t.Setenv("CCU_CLIENT_ID_PREFIX", "ccu-test")
	t.Setenv("CCU_LOG_LEVEL", "DEBUG")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Broker.URL != "tcp://env.local:1883" {
		t.Errorf("url = %q", cfg.Broker.URL)
	}
	if cfg.Broker.ClientIDPrefix != "ccu-test" {
		t.Errorf("prefix = %q", cfg.Broker.ClientIDPrefix)
	}
	if !cfg.Debug() {
		t.Error("env log level not applied")
	}
}
