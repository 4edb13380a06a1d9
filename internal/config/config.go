package config

import "time"

type Config struct {
	Backups      BackupsConfig `yaml:"backups"`
	Content      ContentConfig `yaml:"content"`
	Logging      LoggingConfig `yaml:"logging"`
	ConfigReload ReloadConfig  `yaml:"configReload"`
}

type BackupsConfig struct {
	Directory     string        `yaml:"directory"`     // flat directory holding all archives
	CheckInterval time.Duration `yaml:"checkInterval"` // how often due rules are checked, e.g. 30s
	Rules         []RuleConfig  `yaml:"rules"`
}

// RuleConfig is one backup rule as it appears in the settings file. The
// interval and version cap are accepted both as numbers and as numeric
// strings, which is what existing deployments ship.
type RuleConfig struct {
	Name              string  `yaml:"Name"`
	BackupInterval    FlexInt `yaml:"backupInterval"`    // seconds between backups
	MaxBackupVersions FlexInt `yaml:"maxBackupVersions"` // <= 0 means unlimited
	Format            string  `yaml:"format"`            // ignored, derived from Name
}

// ContentConfig points the bundled content handler at the directory to back up.
// An empty path disables the handler.
type ContentConfig struct {
	Path string `yaml:"path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "info", "debug", etc.
	Format string `yaml:"format"` // "json", "text"
}

type ReloadConfig struct {
	Enabled bool   `yaml:"enabled"`
	Method  string `yaml:"method"` // "fsnotify"
}
