package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvConfig, "")
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	want := BridgeConfig{
		Format:           "json",
		RootRetryDelay:   100 * time.Millisecond,
		ThrottleInterval: 16 * time.Millisecond,
		ThrottledEvents:  []string{"scroll", "resize"},
	}
	if diff := cmp.Diff(want, c.Bridge); diff != "" {
		t.Errorf("bridge defaults mismatch (-want +got):\n%s", diff)
	}
	if c.Reload.TeardownTimeout != 2*time.Second {
		t.Errorf("teardown timeout = %v", c.Reload.TeardownTimeout)
	}
	if c.Log.Level != "info" || c.Log.Format != "console" {
		t.Errorf("log = %+v", c.Log)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
program:
  path: /srv/app.wasm
  watch: true
bridge:
  format: msgpack
  root_retry_delay: 250ms
  throttled_events: [scroll]
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NATIVEBRIDGE_LOG_LEVEL", "warn")

	c, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Program.Path != "/srv/app.wasm" || !c.Program.Watch {
		t.Errorf("program = %+v", c.Program)
	}
	if c.Bridge.Format != "msgpack" || c.Bridge.RootRetryDelay != 250*time.Millisecond {
		t.Errorf("bridge = %+v", c.Bridge)
	}
	if diff := cmp.Diff([]string{"scroll"}, c.Bridge.ThrottledEvents); diff != "" {
		t.Errorf("throttled events (-want +got):\n%s", diff)
	}
	if c.Log.Level != "warn" {
		t.Errorf("env override ignored: level = %q", c.Log.Level)
	}
}

func TestLoadFromEnvPath(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "alt.yaml")
	if err := os.WriteFile(path, []byte("devserver:\n  url: http://localhost:8090\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvConfig, path)
	c, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.DevServer.URL != "http://localhost:8090" || c.DevServer.Namespace != "/" {
		t.Errorf("devserver = %+v", c.DevServer)
	}
}

func TestLoadErrors(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	write := func(name, data string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(data), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	tests := []struct {
		name string
		path string
	}{
		{"missing explicit file", filepath.Join(dir, "nope.yaml")},
		{"bad yaml", write("bad.yaml", "bridge: [")},
		{"bad format", write("format.yaml", "bridge:\n  format: xml\n")},
		{"bad level", write("level.yaml", "log:\n  level: loud\n")},
		{"bad log format", write("logfmt.yaml", "log:\n  format: xml\n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.path); err == nil {
				t.Error("Load succeeded")
			}
		})
	}
}
