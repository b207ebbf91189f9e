package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReloadsOnChange(t *testing.T) {
	defer Reset()

	dir := t.TempDir()
	path := filepath.Join(dir, "knot.toml")
	if err := os.WriteFile(path, []byte("[compress]\ndefault_level = \"standard\"\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cw, err := NewConfigWatcher(path)
	if err != nil {
		t.Fatalf("NewConfigWatcher() error = %v", err)
	}
	defer cw.Stop()
	cw.debouncePeriod = 50 * time.Millisecond

	reloaded := make(chan *Config, 1)
	cw.OnReload(func(cfg *Config) error {
		select {
		case reloaded <- cfg:
		default:
		}
		return nil
	})
	cw.Start()

	if err := os.WriteFile(path, []byte("[compress]\ndefault_level = \"extreme\"\n"), 0644); err != nil {
		t.Fatalf("Failed to rewrite config file: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg == nil {
			t.Error("Reload callback received nil config")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Reload callback did not fire after config write")
	}
}

func TestWatcherOwnWriteFlag(t *testing.T) {
	cw := &ConfigWatcher{}

	if cw.checkOwnWrite() {
		t.Error("checkOwnWrite() = true before MarkOwnWrite")
	}
	cw.MarkOwnWrite()
	if !cw.checkOwnWrite() {
		t.Error("checkOwnWrite() = false after MarkOwnWrite")
	}
	if cw.checkOwnWrite() {
		t.Error("checkOwnWrite() did not clear the flag")
	}
}

func TestWatcherCallbackErrorDoesNotStopOthers(t *testing.T) {
	defer Reset()

	cw := &ConfigWatcher{configPath: "unused"}
	cw.OnReload(func(*Config) error { return os.ErrInvalid })

	called := false
	cw.OnReload(func(*Config) error {
		called = true
		return nil
	})

	if err := cw.reload(); err != nil {
		t.Fatalf("reload() error = %v", err)
	}
	if !called {
		t.Error("A failing callback stopped later callbacks from running")
	}
}
