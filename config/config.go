package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/ini.v1"
)

// DefaultConfigDir is used when no config directory is given.
const DefaultConfigDir = "/etc/go-chroot"

// ConfigFileName is the config file looked up inside the config directory.
const ConfigFileName = "go-chroot.ini"

// Config holds go-chroot configuration
type Config struct {
	Profile   string
	ConfigDir string

	ChrootPath string // Root the mount table is applied under
	StatePath  string // Directory for the journal
	SystemPath string // Replaces "$" in "$/"-prefixed mount sources
	MountTable string // Mount table (ini) path

	MountCommand string // mount(8) binary

	Debug bool

	// Database settings
	Database struct {
		Path string // Default: ${StatePath}/mounts.db
	}
}

var globalConfig *Config

// GetConfig returns the global configuration
func GetConfig() *Config {
	return globalConfig
}

// SetConfig sets the global configuration
func SetConfig(cfg *Config) {
	globalConfig = cfg
}

// LoadConfig loads configuration from configDir/go-chroot.ini.
//
// The global section is read first ("Global Configuration", falling back to
// "Global"); its profile_selected key picks a profile when none is given.
// Profile values override global ones. A missing config file is not an
// error: a warning goes to stderr and defaults are used.
func LoadConfig(configDir, profile string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir
	}

	cfg := &Config{
		Profile:   profile,
		ConfigDir: configDir,
	}

	configFile := filepath.Join(configDir, ConfigFileName)

	configFileExists := false
	if _, err := os.Stat(configFile); err == nil {
		configFileExists = true
		iniFile, err := ini.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}

		globalSec := globalSection(iniFile)
		if globalSec != nil {
			cfg.loadFromSection(globalSec)
		}

		// If no profile specified, read it from the global section
		if (cfg.Profile == "" || cfg.Profile == "default") && globalSec != nil {
			if key := globalSec.Key("profile_selected"); key.String() != "" {
				cfg.Profile = key.String()
			}
		}

		if cfg.Profile != "" && cfg.Profile != "default" {
			profileSec, err := iniFile.GetSection(cfg.Profile)
			if err != nil {
				return nil, fmt.Errorf("profile %q not found in %s", cfg.Profile, configFile)
			}
			cfg.loadFromSection(profileSec)
		}
	}

	if !configFileExists {
		fmt.Fprintf(os.Stderr, "Warning: No config file found at %s\n", configFile)
		fmt.Fprintf(os.Stderr, "Using defaults (chroot %s).\n", defaultChrootPath)
	}

	cfg.applyDefaults()
	return cfg, nil
}

const (
	defaultChrootPath = "/srv/chroot"
	defaultStatePath  = "/var/lib/go-chroot"
)

func (cfg *Config) applyDefaults() {
	if cfg.ChrootPath == "" {
		cfg.ChrootPath = defaultChrootPath
	}
	if cfg.StatePath == "" {
		cfg.StatePath = defaultStatePath
	}
	if cfg.SystemPath == "" {
		cfg.SystemPath = "/"
	}
	if cfg.MountTable == "" {
		cfg.MountTable = filepath.Join(cfg.ConfigDir, "mounts.ini")
	}
	if cfg.MountCommand == "" {
		cfg.MountCommand = "mount"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = filepath.Join(cfg.StatePath, "mounts.db")
	}
}

func globalSection(f *ini.File) *ini.Section {
	for _, name := range []string{"Global Configuration", "global configuration", "Global"} {
		if sec, err := f.GetSection(name); err == nil {
			return sec
		}
	}
	return nil
}

// loadFromSection loads config values from an INI section
func (cfg *Config) loadFromSection(sec *ini.Section) {
	if sec == nil {
		return
	}

	setString := func(name string, dst *string) {
		if v := sec.Key(name).String(); v != "" {
			*dst = v
		}
	}

	setString("Directory_chroot", &cfg.ChrootPath)
	setString("Directory_state", &cfg.StatePath)
	setString("Directory_system", &cfg.SystemPath)
	setString("Mount_table", &cfg.MountTable)
	setString("Mount_command", &cfg.MountCommand)
	setString("Database_path", &cfg.Database.Path)

	if sec.HasKey("Debug") {
		cfg.Debug = parseBool(sec.Key("Debug").String())
	}

	// Relative table paths are relative to the config directory
	if cfg.MountTable != "" && !filepath.IsAbs(cfg.MountTable) {
		cfg.MountTable = filepath.Join(cfg.ConfigDir, cfg.MountTable)
	}
}

func parseBool(s string) bool {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	switch s {
	case "yes", "Yes", "YES", "on", "On", "ON":
		return true
	}
	return false
}
