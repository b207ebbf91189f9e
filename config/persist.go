package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/knotlang/knot/errors"
	"github.com/knotlang/knot/kn/types"
	"github.com/knotlang/knot/logger"
)

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil // No file to backup
	}

	// Rotate backups: .back3 -> delete, .back2 -> .back3, .back1 -> .back2, current -> .back1
	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		logger.Warnw("Failed to delete old config backup", "path", back3, "error", err)
	}

	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}

	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	if err := os.WriteFile(back1, content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}

	return nil
}

// UserConfigPath returns the path to the user config file in ~/.knot/knot.toml
func UserConfigPath() string {
	dir := UserConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "knot.toml")
}

// loadOrInitializeUserConfig loads the user config file, or starts an empty
// one if it doesn't exist
func loadOrInitializeUserConfig() (map[string]interface{}, string, error) {
	configPath := UserConfigPath()
	if configPath == "" {
		return nil, "", errors.New("could not determine home directory")
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return nil, "", errors.Wrap(err, "failed to create .knot directory")
	}

	var config map[string]interface{}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, "", errors.Wrap(err, "failed to parse user config")
		}
	} else {
		config = make(map[string]interface{})
	}

	return config, configPath, nil
}

// saveUserConfig writes the config to the user config file with backup
func saveUserConfig(config map[string]interface{}, configPath string) error {
	if err := createBackup(configPath); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	// Mark this as our own write to prevent reload loops
	globalWatcherMu.Lock()
	if globalWatcher != nil {
		globalWatcher.MarkOwnWrite()
	}
	globalWatcherMu.Unlock()

	if err := os.WriteFile(configPath, data, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to write user config")
	}

	return nil
}

// section returns the named table from config, creating it when absent.
func section(config map[string]interface{}, name string) map[string]interface{} {
	if s, ok := config[name].(map[string]interface{}); ok {
		return s
	}
	s := make(map[string]interface{})
	config[name] = s
	return s
}

// UpdateDefaultLevel persists the default compression level in the user config
func UpdateDefaultLevel(level string) error {
	if _, err := types.ParseLevel(level); err != nil {
		return err
	}

	config, configPath, err := loadOrInitializeUserConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load user config")
	}

	section(config, "compress")["default_level"] = level
	return saveUserConfig(config, configPath)
}

// UpdateMinOccurrences persists the dictionary occurrence threshold in the
// user config
func UpdateMinOccurrences(n int) error {
	if n < 0 {
		return errors.Newf("compress.min_occurrences must be >= 0, got %d", n)
	}

	config, configPath, err := loadOrInitializeUserConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load user config")
	}

	section(config, "compress")["min_occurrences"] = n
	return saveUserConfig(config, configPath)
}

// UpdateMaxDepth persists the expansion depth bound in the user config
func UpdateMaxDepth(depth int) error {
	if depth < 0 {
		return errors.Newf("expand.max_depth must be >= 0, got %d", depth)
	}

	config, configPath, err := loadOrInitializeUserConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load user config")
	}

	section(config, "expand")["max_depth"] = depth
	return saveUserConfig(config, configPath)
}
