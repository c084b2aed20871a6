package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/almanac/internal/atomicfile"
	"github.com/mesh-intelligence/almanac/internal/paths"
	"github.com/mesh-intelligence/almanac/internal/transfer"
	"github.com/mesh-intelligence/almanac/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "ALMANAC"

	cfgKeyBackend    = "backend"
	cfgKeyDataDir    = "data_dir"
	cfgKeyChunkSize  = "import.chunk_size"
	cfgKeyYieldDelay = "import.yield_delay"
	cfgKeyDebug      = "log.debug"
)

// fileConfig is the layout of config.yaml.
type fileConfig struct {
	Backend string       `yaml:"backend"`
	DataDir string       `yaml:"data_dir,omitempty"`
	Import  importConfig `yaml:"import"`
	Log     logConfig    `yaml:"log"`
}

type importConfig struct {
	ChunkSize  int    `yaml:"chunk_size"`
	YieldDelay string `yaml:"yield_delay"`
}

type logConfig struct {
	Debug bool `yaml:"debug"`
}

func defaultFileConfig() fileConfig {
	return fileConfig{
		Backend: types.BackendSQLite,
		Import: importConfig{
			ChunkSize:  types.DefaultChunkSize,
			YieldDelay: transfer.DefaultYieldDelay.String(),
		},
	}
}

// settings are the values commands run with.
type settings struct {
	Store      types.Config
	YieldDelay time.Duration
	Debug      bool
}

var errYieldDelayInvalid = errors.New("import.yield_delay must not be negative")

// loadConfig reads config.yaml from configDir, creating the directory and a
// default file on first run. ALMANAC_* environment variables override file
// values, with dots in keys replaced by underscores.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("create config dir: %w", err)
	}
	if err := ensureConfigFile(paths.ConfigFile(configDir)); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	def := defaultFileConfig()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeyChunkSize, def.Import.ChunkSize)
	v.SetDefault(cfgKeyYieldDelay, def.Import.YieldDelay)
	v.SetDefault(cfgKeyDebug, false)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// readSettings extracts and validates the command settings from v.
func readSettings(v *viper.Viper) (settings, error) {
	s := settings{
		Store: types.Config{
			Backend:   v.GetString(cfgKeyBackend),
			DataDir:   v.GetString(cfgKeyDataDir),
			ChunkSize: v.GetInt(cfgKeyChunkSize),
		},
		YieldDelay: v.GetDuration(cfgKeyYieldDelay),
		Debug:      v.GetBool(cfgKeyDebug),
	}
	if err := s.Store.Validate(); err != nil {
		return s, fmt.Errorf("config %s=%q chunk_size=%d: %w", cfgKeyBackend, s.Store.Backend, s.Store.ChunkSize, err)
	}
	if s.YieldDelay < 0 {
		return s, errYieldDelayInvalid
	}
	return s, nil
}

// ensureConfigFile writes the default config to path unless a file exists.
func ensureConfigFile(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return writeConfigFile(path, defaultFileConfig())
}

func writeConfigFile(path string, cfg fileConfig) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# Almanac configuration. ALMANAC_* environment variables override these values.\n")
	return atomicfile.Write(path, append(header, data...), 0o644)
}
