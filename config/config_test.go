package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/ini.v1"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"true lowercase", "true", true},
		{"false lowercase", "false", false},
		{"yes lowercase", "yes", true},
		{"YES uppercase", "YES", true},
		{"no lowercase", "no", false},
		{"1 as string", "1", true},
		{"0 as string", "0", false},
		{"on lowercase", "on", true},
		{"ON uppercase", "ON", true},
		{"off lowercase", "off", false},
		{"random string", "random", false},
		{"empty string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := parseBool(tt.input); result != tt.expected {
				t.Errorf("parseBool(%q) = %v, want %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestConfig_DefaultValues(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir, "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	checks := []struct {
		field, got, want string
	}{
		{"ChrootPath", cfg.ChrootPath, "/srv/chroot"},
		{"StatePath", cfg.StatePath, "/var/lib/go-chroot"},
		{"SystemPath", cfg.SystemPath, "/"},
		{"MountTable", cfg.MountTable, filepath.Join(dir, "mounts.ini")},
		{"MountCommand", cfg.MountCommand, "mount"},
		{"Database.Path", cfg.Database.Path, "/var/lib/go-chroot/mounts.db"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.field, c.got, c.want)
		}
	}
	if cfg.Debug {
		t.Error("Debug should default to false")
	}
}

func TestConfig_EmptyConfigDirUsesDefault(t *testing.T) {
	cfg, err := LoadConfig("", "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.ConfigDir != DefaultConfigDir {
		t.Errorf("ConfigDir = %q, want %q", cfg.ConfigDir, DefaultConfigDir)
	}
}

func TestConfig_GlobalSection(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[Global Configuration]
Directory_chroot = /build/root
Directory_state  = /build/state
Directory_system = /sysroot
Mount_table      = table.ini
Mount_command    = /usr/bin/mount
Debug            = yes
`)

	cfg, err := LoadConfig(dir, "")
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.ChrootPath != "/build/root" {
		t.Errorf("ChrootPath = %q", cfg.ChrootPath)
	}
	if cfg.SystemPath != "/sysroot" {
		t.Errorf("SystemPath = %q", cfg.SystemPath)
	}
	if cfg.MountTable != filepath.Join(dir, "table.ini") {
		t.Errorf("MountTable = %q, want relative path under config dir", cfg.MountTable)
	}
	if cfg.MountCommand != "/usr/bin/mount" {
		t.Errorf("MountCommand = %q", cfg.MountCommand)
	}
	if cfg.Database.Path != "/build/state/mounts.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if !cfg.Debug {
		t.Error("Debug = false, want true")
	}
}

func TestConfig_ProfileOverridesGlobal(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
[Global Configuration]
profile_selected = jammy
Directory_chroot = /srv/default
Directory_state  = /srv/state

[jammy]
Directory_chroot = /srv/jammy
Database_path    = /srv/jammy.db

[noble]
Directory_chroot = /srv/noble
`)

	tests := []struct {
		name        string
		profile     string
		wantProfile string
		wantChroot  string
		wantDB      string
	}{
		{"selected by config", "", "jammy", "/srv/jammy", "/srv/jammy.db"},
		{"default keyword", "default", "jammy", "/srv/jammy", "/srv/jammy.db"},
		{"explicit profile", "noble", "noble", "/srv/noble", "/srv/state/mounts.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadConfig(dir, tt.profile)
			if err != nil {
				t.Fatalf("LoadConfig failed: %v", err)
			}
			if cfg.Profile != tt.wantProfile {
				t.Errorf("Profile = %q, want %q", cfg.Profile, tt.wantProfile)
			}
			if cfg.ChrootPath != tt.wantChroot {
				t.Errorf("ChrootPath = %q, want %q", cfg.ChrootPath, tt.wantChroot)
			}
			if cfg.StatePath != "/srv/state" {
				t.Errorf("StatePath = %q, want global value", cfg.StatePath)
			}
			if cfg.Database.Path != tt.wantDB {
				t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, tt.wantDB)
			}
		})
	}
}

func TestConfig_UnknownProfile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[Global Configuration]\nDirectory_chroot = /srv/x\n")

	if _, err := LoadConfig(dir, "missing"); err == nil {
		t.Error("expected error for unknown profile")
	}
}

func TestConfig_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[unterminated\nkey = value\n")

	if _, err := LoadConfig(dir, ""); err == nil {
		t.Error("expected error for malformed ini")
	}
}

func TestLoadFromSection_NilSafe(t *testing.T) {
	cfg := &Config{}
	cfg.loadFromSection(nil)

	f := ini.Empty()
	sec, err := f.NewSection("p")
	if err != nil {
		t.Fatal(err)
	}
	cfg.loadFromSection(sec)
	if cfg.ChrootPath != "" || cfg.Debug {
		t.Errorf("empty section changed config: %+v", cfg)
	}
}

func TestGlobalConfig(t *testing.T) {
	prev := GetConfig()
	defer SetConfig(prev)

	cfg := &Config{ChrootPath: "/srv/x"}
	SetConfig(cfg)
	if GetConfig() != cfg {
		t.Error("GetConfig did not return the config passed to SetConfig")
	}
}
