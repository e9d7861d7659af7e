package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/severin-lang/rotabak/pkg/buildinfo"
	"github.com/severin-lang/rotabak/pkg/rlog"
	"github.com/severin-lang/rotabak/pkg/util"
)

// ConfigFileName is the name of the configuration file inside the backup root.
const ConfigFileName = "rotabak.config.json"

// RetentionConfig maps every rotation tier to its retention count. A count of
// zero means no existing set of that tier survives a run.
type RetentionConfig struct {
	Monthly int `json:"monthly"`
	Weekly  int `json:"weekly"`
	Daily   int `json:"daily"`
}

// EngineConfig describes how the external backup engine is invoked.
type EngineConfig struct {
	// Command is the engine executable. Arguments are passed as a typed
	// slice; no shell is involved.
	Command string   `json:"command"`
	Args    []string `json:"args"`
	// Mode selects the backup type: "auto" (Monthly runs request a full
	// image, other tiers request system state), "system-state" or
	// "bare-metal".
	Mode string `json:"mode"`
	// MinFreeSpaceGB is the preflight free-space requirement on the backup
	// root. 0 disables the check.
	MinFreeSpaceGB int `json:"minFreeSpaceGB"`
}

// CompressionConfig controls the post-processing compress stage.
type CompressionConfig struct {
	Enabled bool   `json:"enabled"`
	Format  string `json:"format"`
	Level   string `json:"level"`
}

// SyncConfig controls the post-processing synchronize stage.
type SyncConfig struct {
	Enabled bool   `json:"enabled"`
	Server  string `json:"server"`
	Share   string `json:"share"`
	// Path, when set, overrides the UNC path derived from Server/Share.
	// Useful when the share is locally mounted.
	Path string `json:"path,omitempty"`
	// CompareExcludes are glob patterns matched against top-level entry
	// names; matching entries are ignored when source and destination
	// listings are compared.
	CompareExcludes []string `json:"compareExcludes"`
}

// NotifyConfig controls the report notification.
type NotifyConfig struct {
	Enabled  bool     `json:"enabled"`
	SMTPHost string   `json:"smtpHost"`
	SMTPPort int      `json:"smtpPort"`
	From     string   `json:"from"`
	To       []string `json:"to"`
}

// RuntimeConfig holds per-invocation settings that never come from the file.
type RuntimeConfig struct {
	DryRun bool
}

type Config struct {
	Version     string            `json:"version"`
	Host        string            `json:"host"`
	BackupRoot  string            `json:"-"` // Never added to the config file.
	Runtime     RuntimeConfig     `json:"-"` // Never added to the config file.
	LogLevel    string            `json:"logLevel"`
	LogDir      string            `json:"logDir"`
	Retention   RetentionConfig   `json:"retention"`
	Engine      EngineConfig      `json:"engine"`
	Compression CompressionConfig `json:"compression"`
	Sync        SyncConfig        `json:"sync"`
	Notify      NotifyConfig      `json:"notify"`
}

// NewDefault creates and returns a Config struct with sensible default
// values. The host identifier defaults to the machine hostname.
func NewDefault() Config {
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	// Backup set names embed the host; keep it a single clean token.
	host = strings.ToUpper(strings.Split(host, ".")[0])

	return Config{
		Version:  buildinfo.Version,
		Host:     host,
		LogLevel: "info",
		LogDir:   "logs", // Relative to the backup root.
		Retention: RetentionConfig{
			Monthly: 2,
			Weekly:  4,
			Daily:   15,
		},
		Engine: EngineConfig{
			Command:        "", // Intentionally empty to force user configuration.
			Args:           []string{},
			Mode:           "auto",
			MinFreeSpaceGB: 0,
		},
		Compression: CompressionConfig{
			Enabled: false,
			Format:  "tar.zst",
			Level:   "default",
		},
		Sync: SyncConfig{
			Enabled:         false,
			Server:          "",
			Share:           "",
			CompareExcludes: []string{"*logs*"},
		},
		Notify: NotifyConfig{
			Enabled:  false,
			SMTPHost: "",
			SMTPPort: 25,
			From:     "",
			To:       []string{},
		},
	}
}

// Load attempts to load a configuration from the backup root.
// If the file doesn't exist, it returns the default config without an error.
// If the file exists but fails to parse, it returns an error and a zero-value config.
func Load(backupRoot string) (Config, error) {
	absRoot, err := filepath.Abs(backupRoot)
	if err != nil {
		return Config{}, fmt.Errorf("could not determine absolute path for backup root %s: %w", backupRoot, err)
	}

	configPath := filepath.Join(absRoot, ConfigFileName)

	file, err := os.Open(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := NewDefault()
			cfg.BackupRoot = absRoot
			return cfg, nil
		}
		return Config{}, fmt.Errorf("error opening config file %s: %w", configPath, err)
	}
	defer file.Close()

	rlog.Info("Loading configuration", "path", configPath)
	// Start with default values, then overwrite with the file's content.
	// This makes the config loading resilient to missing fields in the JSON file.
	config := NewDefault()
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return Config{}, fmt.Errorf("error parsing config file %s: %w", configPath, err)
	}
	config.BackupRoot = absRoot

	if config.Version != buildinfo.Version {
		config.Version = buildinfo.Version
	}
	return config, nil
}

// Exists reports whether a config file is present in the backup root.
func Exists(backupRoot string) bool {
	_, err := os.Stat(filepath.Join(backupRoot, ConfigFileName))
	return err == nil
}

// Generate creates or overwrites the default config file in the backup root.
func Generate(configToGenerate Config) error {
	configPath := filepath.Join(configToGenerate.BackupRoot, ConfigFileName)
	jsonData, err := json.MarshalIndent(configToGenerate, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal default config to JSON: %w", err)
	}

	if err := os.WriteFile(configPath, jsonData, util.UserWritableFilePerms); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	rlog.Info("Successfully saved config file", "path", configPath)
	return nil
}

// Validate checks the configuration for logical errors and inconsistencies.
func (c *Config) Validate() error {
	if c.BackupRoot == "" {
		return fmt.Errorf("backup root cannot be empty")
	}

	var err error
	c.BackupRoot, err = util.ExpandPath(c.BackupRoot)
	if err != nil {
		return fmt.Errorf("could not expand backup root: %w", err)
	}
	c.BackupRoot = filepath.Clean(c.BackupRoot)

	if c.Host == "" {
		return fmt.Errorf("host identifier cannot be empty")
	}
	if strings.ContainsAny(c.Host, `\/-`) {
		return fmt.Errorf("host identifier cannot contain '-', '/' or '\\'")
	}

	if c.Retention.Monthly < 0 || c.Retention.Weekly < 0 || c.Retention.Daily < 0 {
		return fmt.Errorf("retention counts cannot be negative")
	}

	switch c.Engine.Mode {
	case "auto", "system-state", "bare-metal":
	default:
		return fmt.Errorf("engine.mode must be one of 'auto', 'system-state', 'bare-metal', got %q", c.Engine.Mode)
	}
	if c.Engine.MinFreeSpaceGB < 0 {
		return fmt.Errorf("engine.minFreeSpaceGB cannot be negative")
	}

	if c.Compression.Enabled {
		switch c.Compression.Format {
		case "tar.zst", "tar.gz":
		default:
			return fmt.Errorf("compression.format must be 'tar.zst' or 'tar.gz', got %q", c.Compression.Format)
		}
		switch c.Compression.Level {
		case "", "fastest", "default", "better", "best":
		default:
			return fmt.Errorf("compression.level must be one of 'fastest', 'default', 'better', 'best', got %q", c.Compression.Level)
		}
	}

	if c.Sync.Enabled {
		if c.Sync.Path == "" && (c.Sync.Server == "" || c.Sync.Share == "") {
			return fmt.Errorf("sync requires either sync.path or both sync.server and sync.share")
		}
		if err := validateGlobPatterns("compareExcludes", c.Sync.CompareExcludes); err != nil {
			return err
		}
	}

	if c.Notify.Enabled {
		if c.Notify.SMTPHost == "" {
			return fmt.Errorf("notify.smtpHost cannot be empty when notification is enabled")
		}
		if c.Notify.SMTPPort <= 0 {
			return fmt.Errorf("notify.smtpPort must be positive")
		}
		if c.Notify.From == "" || len(c.Notify.To) == 0 {
			return fmt.Errorf("notify.from and notify.to must be set when notification is enabled")
		}
	}

	return nil
}

// RemotePath returns the configured mirror destination: the explicit path if
// set, otherwise the UNC path built from server and share.
func (c *SyncConfig) RemotePath() string {
	if c.Path != "" {
		return c.Path
	}
	if c.Server == "" || c.Share == "" {
		return ""
	}
	return `\\` + c.Server + `\` + c.Share
}

// AbsLogDir resolves the log directory against the backup root.
func (c *Config) AbsLogDir() string {
	if filepath.IsAbs(c.LogDir) {
		return c.LogDir
	}
	return filepath.Join(c.BackupRoot, c.LogDir)
}

// LogSummary prints a user-friendly summary of the configuration.
func (c *Config) LogSummary() {
	logArgs := []interface{}{
		"host", c.Host,
		"backup_root", c.BackupRoot,
		"log_level", c.LogLevel,
		"dry_run", c.Runtime.DryRun,
		"retention", fmt.Sprintf("m:%d w:%d d:%d", c.Retention.Monthly, c.Retention.Weekly, c.Retention.Daily),
		"engine_mode", c.Engine.Mode,
	}
	if c.Compression.Enabled {
		logArgs = append(logArgs, "compression", fmt.Sprintf("enabled (f:%s l:%s)", c.Compression.Format, c.Compression.Level))
	}
	if c.Sync.Enabled {
		logArgs = append(logArgs, "sync", fmt.Sprintf("enabled (dst:%s)", c.Sync.RemotePath()))
	}
	if c.Notify.Enabled {
		logArgs = append(logArgs, "notify", fmt.Sprintf("enabled (smtp:%s:%d)", c.Notify.SMTPHost, c.Notify.SMTPPort))
	}
	rlog.Info("Configuration loaded", logArgs...)
}

// validateGlobPatterns checks if a list of strings are valid glob patterns.
func validateGlobPatterns(fieldName string, patterns []string) error {
	for _, pattern := range patterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("invalid glob pattern for %s: %q - %w", fieldName, pattern, err)
		}
	}
	return nil
}
