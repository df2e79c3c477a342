package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	// Azure OpenAI secrets. Never validated here; a missing value surfaces as a
	// completion error when a question is asked.
	APIKey     string `mapstructure:"api_key" yaml:"api_key"`
	Endpoint   string `mapstructure:"endpoint" yaml:"endpoint"`
	APIVersion string `mapstructure:"api_version" yaml:"api_version"`

	Model      string `mapstructure:"model" yaml:"model"`
	Deployment string `mapstructure:"deployment" yaml:"deployment"`

	// HTTPTimeoutSec of 0 leaves the completion call without a client timeout.
	HTTPTimeoutSec int `mapstructure:"http_timeout_sec" yaml:"http_timeout_sec"`

	// Web presenter
	ListenAddr     string   `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadMB    int      `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
	SessionSecret  string   `mapstructure:"session_secret" yaml:"session_secret"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// Provider environment names for the three secrets.
const (
	EnvAPIKey     = "AZURE_OPENAI_API_KEY"
	EnvEndpoint   = "AZURE_OPENAI_ENDPOINT"
	EnvAPIVersion = "OPENAI_API_VERSION"
)

const dirName = ".csvask"

// LoadEnvFile populates the process environment from a local settings file.
// A missing file is not an error; variables already set are left untouched.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.csvask/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("resolve home dir: %w", err)
		}
		dir := filepath.Join(home, dirName)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file (cfgFile or ~/.csvask/config.yaml) > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("CSVASK")
	v.AutomaticEnv()
	// The secrets keep the provider's own variable names.
	_ = v.BindEnv("api_key", EnvAPIKey, "CSVASK_API_KEY")
	_ = v.BindEnv("endpoint", EnvEndpoint, "CSVASK_ENDPOINT")
	_ = v.BindEnv("api_version", EnvAPIVersion, "CSVASK_API_VERSION")
	return read(v, cfgFile)
}

// LoadFile loads the config file and defaults only, ignoring the environment.
// Use it before Save so values from env or .env are not written to disk.
func LoadFile(cfgFile string) (*Global, error) {
	return read(viper.New(), cfgFile)
}

func read(v *viper.Viper, cfgFile string) (*Global, error) {
	v.SetDefault("api_key", "")
	v.SetDefault("endpoint", "")
	v.SetDefault("api_version", "")
	v.SetDefault("model", "gpt-4o-mini")
	v.SetDefault("deployment", "")
	v.SetDefault("http_timeout_sec", 0)
	v.SetDefault("listen_addr", ":8501")
	v.SetDefault("max_upload_mb", 200)
	v.SetDefault("session_secret", "")
	v.SetDefault("allowed_origins", []string{})

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home dir: %w", err)
		}
		v.AddConfigPath(filepath.Join(home, dirName))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}
