package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeTestConfig creates a temp HOME with ~/.config/ordr/config.json.
func writeTestConfig(t *testing.T, cfg *Config) {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	if cfg == nil {
		return
	}
	dir := filepath.Join(tmpDir, ".config", "ordr")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.json"), data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range Keys() {
		t.Setenv(EnvVar(k), "")
	}
}

func TestDefaults(t *testing.T) {
	writeTestConfig(t, nil)
	clearEnv(t)

	if got := GetTimeout(); got != 10*time.Second {
		t.Errorf("timeout: got %v, want 10s", got)
	}
	if got := GetTransport(); got != "auto" {
		t.Errorf("transport: got %q, want auto", got)
	}
	if got := GetBulkDelay(); got != 200*time.Millisecond {
		t.Errorf("bulk delay: got %v, want 200ms", got)
	}
	if !GetAutoSync() {
		t.Error("auto sync: got false, want true")
	}
	if got := GetRemoteURL(); got != "" {
		t.Errorf("remote url: got %q, want empty", got)
	}
}

func TestConfigFileValues(t *testing.T) {
	off := false
	writeTestConfig(t, &Config{Remote: RemoteConfig{
		URL: "https://x.example/exec", Timeout: "3s", Transport: "bridge", BulkDelay: "1s", AutoSync: &off,
	}})
	clearEnv(t)

	if got := GetTimeout(); got != 3*time.Second {
		t.Errorf("timeout: got %v, want 3s", got)
	}
	if got := GetTransport(); got != "bridge" {
		t.Errorf("transport: got %q", got)
	}
	if got := GetBulkDelay(); got != time.Second {
		t.Errorf("bulk delay: got %v", got)
	}
	if GetAutoSync() {
		t.Error("auto sync: got true, want false")
	}
	if got := GetRemoteURL(); got != "https://x.example/exec" {
		t.Errorf("remote url: got %q", got)
	}
}

func TestEnvOverridesConfig(t *testing.T) {
	writeTestConfig(t, &Config{Remote: RemoteConfig{Timeout: "3s", Transport: "bridge"}})
	clearEnv(t)
	t.Setenv("ORDR_REMOTE_TIMEOUT", "250ms")
	t.Setenv("ORDR_TRANSPORT", "direct")
	t.Setenv("ORDR_AUTO_SYNC", "0")

	if got := GetTimeout(); got != 250*time.Millisecond {
		t.Errorf("timeout: got %v, want 250ms", got)
	}
	if got := GetTransport(); got != "direct" {
		t.Errorf("transport: got %q, want direct", got)
	}
	if GetAutoSync() {
		t.Error("auto sync: env 0 should disable")
	}
}

func TestInvalidValuesFallThrough(t *testing.T) {
	writeTestConfig(t, &Config{Remote: RemoteConfig{BulkDelay: "soon"}})
	clearEnv(t)
	t.Setenv("ORDR_REMOTE_TIMEOUT", "not-a-duration")
	t.Setenv("ORDR_AUTO_SYNC", "maybe")

	if got := GetTimeout(); got != DefaultTimeout {
		t.Errorf("timeout: got %v, want default", got)
	}
	if got := GetBulkDelay(); got != DefaultBulkDelay {
		t.Errorf("bulk delay: got %v, want default", got)
	}
	if !GetAutoSync() {
		t.Error("auto sync: invalid env should fall through to default")
	}
}

func TestSetAndGet(t *testing.T) {
	writeTestConfig(t, nil)
	clearEnv(t)

	if err := Set("remote.timeout", "5s"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := Set("remote.auto_sync", "false"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := Get("remote.timeout")
	if err != nil || got != "5s" {
		t.Errorf("Get timeout: got %q, %v", got, err)
	}
	if got, _ := GetFile("remote.auto_sync"); got != "false" {
		t.Errorf("GetFile auto_sync: got %q", got)
	}

	// clearing restores the default
	if err := Set("remote.timeout", ""); err != nil {
		t.Fatalf("Set clear: %v", err)
	}
	if got, _ := Get("remote.timeout"); got != "10s" {
		t.Errorf("after clear: got %q, want 10s", got)
	}
}

func TestSetRejectsBadValues(t *testing.T) {
	writeTestConfig(t, nil)
	clearEnv(t)

	tests := []struct{ key, value string }{
		{"remote.timeout", "ten"},
		{"remote.timeout", "-1s"},
		{"remote.transport", "jsonp"},
		{"remote.auto_sync", "perhaps"},
	}
	for _, tc := range tests {
		if err := Set(tc.key, tc.value); err == nil {
			t.Errorf("Set(%s, %s) succeeded", tc.key, tc.value)
		}
	}
	if err := Set("remote.colour", "x"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("unknown key: got %v", err)
	}
	if _, err := Get("nope"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("unknown key: got %v", err)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	writeTestConfig(t, nil)
	if err := Save(&Config{Remote: RemoteConfig{URL: "https://x"}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	dir, _ := Dir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "config.json" {
		var names []string
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("config dir: got %v", names)
	}
}
