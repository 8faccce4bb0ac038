package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/Kieransaunders/iTimedIT-sub000/pkg/types"
)

// Load loads configuration from multiple sources (priority order):
// 1. Global config (~/.itimedit/)
// 2. Global config (~/.config/itimedit/ - XDG compatible)
// 3. Directory config (itimedit.json / itimedit.yaml next to the caller)
// 4. ITIMEDIT_CONFIG file
// 5. ITIMEDIT_CONFIG_CONTENT inline JSON
// 6. .env and environment variables
func Load(directory string) (*types.Config, error) {
	config := &types.Config{}

	// Track loaded files to avoid duplicates
	loaded := make(map[string]bool)

	loadOnce := func(path string, baseDir string) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return
		}
		if loaded[absPath] {
			return
		}
		if loadConfigFile(path, config, baseDir) == nil {
			loaded[absPath] = true
		}
	}

	// 1. Dotfile global config (~/.itimedit/)
	home := os.Getenv("HOME")
	if home != "" {
		dotDir := filepath.Join(home, ".itimedit")
		loadOnce(filepath.Join(dotDir, "itimedit.json"), dotDir)
		loadOnce(filepath.Join(dotDir, "itimedit.jsonc"), dotDir)
		loadOnce(filepath.Join(dotDir, "itimedit.yaml"), dotDir)
	}

	// 2. XDG-compatible global config (~/.config/itimedit/)
	globalPath := GetPaths().Config
	loadOnce(filepath.Join(globalPath, "itimedit.json"), globalPath)
	loadOnce(filepath.Join(globalPath, "itimedit.jsonc"), globalPath)
	loadOnce(filepath.Join(globalPath, "itimedit.yaml"), globalPath)

	// 3. Directory config
	if directory != "" {
		loadOnce(filepath.Join(directory, "itimedit.json"), directory)
		loadOnce(filepath.Join(directory, "itimedit.jsonc"), directory)
		loadOnce(filepath.Join(directory, "itimedit.yaml"), directory)
	}

	// 4. ITIMEDIT_CONFIG file override
	if configPath := os.Getenv("ITIMEDIT_CONFIG"); configPath != "" {
		configDir := filepath.Dir(configPath)
		loadOnce(configPath, configDir)
	}

	// 5. ITIMEDIT_CONFIG_CONTENT inline JSON
	if configContent := os.Getenv("ITIMEDIT_CONFIG_CONTENT"); configContent != "" {
		var inlineConfig types.Config
		if err := json.Unmarshal([]byte(configContent), &inlineConfig); err == nil {
			mergeConfig(config, &inlineConfig)
		}
	}

	// 6. .env next to the caller, then environment variables (highest
	// priority). Missing .env files are fine.
	if directory != "" {
		_ = godotenv.Load(filepath.Join(directory, ".env"))
	}
	applyEnvOverrides(config)

	return config, nil
}

// loadConfigFile loads a single config file with interpolation support.
// YAML files are detected by extension; everything else is parsed as JSONC.
func loadConfigFile(path string, config *types.Config, baseDir string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err // File doesn't exist, skip
	}

	data = interpolate(data, baseDir)

	var fileConfig types.Config
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return err
		}
	default:
		// Strip JSONC comments using tidwall/jsonc
		data = jsonc.ToJSON(data)
		if err := json.Unmarshal(data, &fileConfig); err != nil {
			return err
		}
	}

	mergeConfig(config, &fileConfig)
	return nil
}

// interpolate processes {env:VAR} and {file:path} placeholders.
func interpolate(data []byte, baseDir string) []byte {
	str := string(data)

	// Handle {env:VAR_NAME} placeholders
	envPattern := regexp.MustCompile(`\{env:([^}]+)\}`)
	str = envPattern.ReplaceAllStringFunc(str, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})

	// Handle {file:path} placeholders
	filePattern := regexp.MustCompile(`\{file:([^}]+)\}`)
	str = filePattern.ReplaceAllStringFunc(str, func(match string) string {
		filePath := filePattern.FindStringSubmatch(match)[1]

		// Resolve path
		if strings.HasPrefix(filePath, "~/") {
			home := os.Getenv("HOME")
			filePath = filepath.Join(home, filePath[2:])
		} else if !filepath.IsAbs(filePath) {
			filePath = filepath.Join(baseDir, filePath)
		}

		content, err := os.ReadFile(filePath)
		if err != nil {
			return match // Keep original if file not found
		}

		return strings.TrimSpace(string(content))
	})

	return []byte(str)
}

// mergeConfig merges source config into target.
func mergeConfig(target, source *types.Config) {
	if source.Schema != "" {
		target.Schema = source.Schema
	}
	if source.BackendURL != "" {
		target.BackendURL = source.BackendURL
	}
	if source.AuthToken != "" {
		target.AuthToken = source.AuthToken
	}
	if source.DataDir != "" {
		target.DataDir = source.DataDir
	}
	if source.LogLevel != "" {
		target.LogLevel = source.LogLevel
	}
	if source.Heartbeat != nil {
		target.Heartbeat = source.Heartbeat
	}
	if source.Retry != nil {
		target.Retry = source.Retry
	}
	if source.Status != nil {
		target.Status = source.Status
	}
}

// applyEnvOverrides applies environment variable overrides.
func applyEnvOverrides(config *types.Config) {
	if url := os.Getenv("ITIMEDIT_BACKEND_URL"); url != "" {
		config.BackendURL = url
	}
	if token := os.Getenv("ITIMEDIT_AUTH_TOKEN"); token != "" {
		config.AuthToken = token
	}
	if dir := os.Getenv("ITIMEDIT_DATA_DIR"); dir != "" {
		config.DataDir = dir
	}
	if level := os.Getenv("ITIMEDIT_LOG_LEVEL"); level != "" {
		config.LogLevel = level
	}
	if port := os.Getenv("ITIMEDIT_STATUS_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			if config.Status == nil {
				config.Status = &types.StatusConfig{}
			}
			config.Status.Port = n
		}
	}
	if secs := os.Getenv("ITIMEDIT_HEARTBEAT_SECONDS"); secs != "" {
		if n, err := strconv.Atoi(secs); err == nil && n > 0 {
			config.Heartbeat = &types.HeartbeatConfig{IntervalSeconds: n}
		}
	}
}

// Save saves the configuration to a file.
func Save(config *types.Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetConfigDir returns the config directory to use.
// Prefers ITIMEDIT_CONFIG_DIR, then ~/.itimedit, then ~/.config/itimedit.
func GetConfigDir() string {
	// Check environment variable first
	if dir := os.Getenv("ITIMEDIT_CONFIG_DIR"); dir != "" {
		return dir
	}

	// Check for dotfile location
	home := os.Getenv("HOME")
	if home != "" {
		dotDir := filepath.Join(home, ".itimedit")
		if _, err := os.Stat(dotDir); err == nil {
			return dotDir
		}
	}

	// Fall back to XDG location
	return GetPaths().Config
}
