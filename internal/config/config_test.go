package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	if cfg.Log.Level != "info" {
		t.Fatalf("Log.Level=%q, want info", cfg.Log.Level)
	}
	if !cfg.BackupEnabled() {
		t.Fatal("backup disabled by default")
	}
	if cfg.Path != "" {
		t.Fatalf("Path=%q, want empty", cfg.Path)
	}
}

func TestLoadFileOverrides(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
[log]
level = "debug"

[oodle]
library = "liboo2corelinux64.so.9"
search_dirs = ["/opt/oodle"]
game_dirs = ["/games/er/Game"]

[repack]
backup = false
`)

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("Log.Level=%q, want debug", cfg.Log.Level)
	}
	if cfg.Oodle.Library != "liboo2corelinux64.so.9" {
		t.Fatalf("Oodle.Library=%q", cfg.Oodle.Library)
	}
	if len(cfg.Oodle.GameDirs) != 1 || cfg.Oodle.GameDirs[0] != "/games/er/Game" {
		t.Fatalf("Oodle.GameDirs=%v", cfg.Oodle.GameDirs)
	}
	if cfg.BackupEnabled() {
		t.Fatal("backup=false ignored")
	}
	if cfg.Path != path {
		t.Fatalf("Path=%q, want %q", cfg.Path, path)
	}

	dirs := cfg.OodleSearchDirs()
	if len(dirs) < 1 || dirs[0] != "/opt/oodle" {
		t.Fatalf("OodleSearchDirs=%v, want configured dir first", dirs)
	}
}

func TestLoadFilePartialKeepsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := LoadFile(writeConfig(t, "[oodle]\ngame_dirs = [\"/g\"]\n"))
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Log.Level != "info" || !cfg.BackupEnabled() {
		t.Fatalf("defaults lost: %+v", cfg)
	}
}

func TestLoadFileErrors(t *testing.T) {
	t.Parallel()

	if _, err := LoadFile(filepath.Join(t.TempDir(), "absent.toml")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err=%v, want fs.ErrNotExist", err)
	}
	if _, err := LoadFile(writeConfig(t, "[log\nlevel=")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadFromEnv(t *testing.T) {
	path := writeConfig(t, "[log]\nlevel = \"warn\"\n")
	t.Setenv(EnvPath, path)

	if got := Candidates(); len(got) != 1 || got[0] != path {
		t.Fatalf("Candidates=%v, want [%s]", got, path)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("Log.Level=%q, want warn", cfg.Log.Level)
	}
}

func TestLoadMissingEnvFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvPath, filepath.Join(t.TempDir(), "none.toml"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Path != "" || cfg.Log.Level != "info" {
		t.Fatalf("cfg=%+v, want defaults", cfg)
	}
}
