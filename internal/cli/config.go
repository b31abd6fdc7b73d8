package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/rowedit/internal/remote"
	"github.com/mesh-intelligence/rowedit/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"
	envPrefix      = "ROWEDIT"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeyFields        = "fields"
	cfgKeyReloadPolicy  = "reload_policy"
	cfgKeyServerAddr    = "server.addr"
	cfgKeyRemoteBaseURL = "remote.base_url"
	cfgKeyRemoteTimeout = "remote.timeout"
	cfgKeyLogLevel      = "log.level"
	cfgKeyLogFormat     = "log.format"
	cfgKeyLogDir        = "log.dir"

	defaultServerAddr    = ":8080"
	defaultRemoteBaseURL = "http://localhost:8080"
)

// envKeys are the settings overridable by ROWEDIT_* variables. data_dir and
// log.dir are left out: their env overrides rank below config.yaml and are
// resolved by the paths package.
var envKeys = []string{
	cfgKeyBackend,
	cfgKeyFields,
	cfgKeyReloadPolicy,
	cfgKeyServerAddr,
	cfgKeyRemoteBaseURL,
	cfgKeyRemoteTimeout,
	cfgKeyLogLevel,
	cfgKeyLogFormat,
}

// configFile is the structure of config.yaml.
type configFile struct {
	Backend      string   `yaml:"backend" json:"backend"`
	DataDir      string   `yaml:"data_dir,omitempty" json:"data_dir,omitempty"`
	Fields       []string `yaml:"fields" json:"fields"`
	ReloadPolicy string   `yaml:"reload_policy" json:"reload_policy"`
	Server       struct {
		Addr string `yaml:"addr" json:"addr"`
	} `yaml:"server" json:"server"`
	Remote struct {
		BaseURL string `yaml:"base_url" json:"base_url"`
		Timeout string `yaml:"timeout" json:"timeout"`
	} `yaml:"remote" json:"remote"`
	Log struct {
		Level  string `yaml:"level" json:"level"`
		Format string `yaml:"format" json:"format"`
		Dir    string `yaml:"dir,omitempty" json:"dir,omitempty"`
	} `yaml:"log" json:"log"`
}

func defaultConfigFile() configFile {
	var c configFile
	c.Backend = types.BackendSQLite
	c.Fields = []string(types.DefaultSchema)
	c.ReloadPolicy = types.ReloadDiscard
	c.Server.Addr = defaultServerAddr
	c.Remote.BaseURL = defaultRemoteBaseURL
	c.Remote.Timeout = remote.DefaultTimeout.String()
	c.Log.Level = "info"
	c.Log.Format = "text"
	return c
}

// effectiveConfig reads the resolved settings back out of v.
func effectiveConfig(v *viper.Viper) configFile {
	var c configFile
	c.Backend = v.GetString(cfgKeyBackend)
	c.DataDir = v.GetString(cfgKeyDataDir)
	c.Fields = []string(schemaFrom(v))
	c.ReloadPolicy = v.GetString(cfgKeyReloadPolicy)
	c.Server.Addr = v.GetString(cfgKeyServerAddr)
	c.Remote.BaseURL = v.GetString(cfgKeyRemoteBaseURL)
	c.Remote.Timeout = v.GetDuration(cfgKeyRemoteTimeout).String()
	c.Log.Level = v.GetString(cfgKeyLogLevel)
	c.Log.Format = v.GetString(cfgKeyLogFormat)
	c.Log.Dir = v.GetString(cfgKeyLogDir)
	return c
}

// loadConfig reads config.yaml from configDir using Viper. It creates the
// directory and a default config.yaml on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt)); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	def := defaultConfigFile()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, def.Backend)
	v.SetDefault(cfgKeyFields, def.Fields)
	v.SetDefault(cfgKeyReloadPolicy, def.ReloadPolicy)
	v.SetDefault(cfgKeyServerAddr, def.Server.Addr)
	v.SetDefault(cfgKeyRemoteBaseURL, def.Remote.BaseURL)
	v.SetDefault(cfgKeyRemoteTimeout, remote.DefaultTimeout)
	v.SetDefault(cfgKeyLogLevel, def.Log.Level)
	v.SetDefault(cfgKeyLogFormat, def.Log.Format)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// writeConfigIfMissing creates config.yaml with default values. An existing
// file is left untouched.
func writeConfigIfMissing(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	cfg := defaultConfigFile()
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := "# rowedit configuration\n# Environment variables ROWEDIT_<KEY> override these values.\n"
	return os.WriteFile(path, append([]byte(header), data...), 0o644)
}

// schemaFrom returns the editable fields. A comma-separated value, as set
// through ROWEDIT_FIELDS, is split.
func schemaFrom(v *viper.Viper) types.Schema {
	raw := v.GetStringSlice(cfgKeyFields)
	var fields []string
	for _, f := range raw {
		for _, part := range strings.Split(f, ",") {
			if part = strings.TrimSpace(part); part != "" {
				fields = append(fields, part)
			}
		}
	}
	return types.Schema(fields)
}

func (a *app) editorConfig() (types.EditorConfig, error) {
	cfg := types.EditorConfig{
		Fields:       schemaFrom(a.v),
		ReloadPolicy: a.v.GetString(cfgKeyReloadPolicy),
	}
	if err := cfg.Validate(); err != nil {
		return types.EditorConfig{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (a *app) remoteTimeout() time.Duration {
	return a.v.GetDuration(cfgKeyRemoteTimeout)
}

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := effectiveConfig(a.v)
			out := cmd.OutOrStdout()
			if a.jsonMode {
				data, err := json.MarshalIndent(cfg, "", "  ")
				if err != nil {
					return sysError(err)
				}
				fmt.Fprintln(out, string(data))
				return nil
			}
			fmt.Fprintf(out, "# %s\n", filepath.Join(a.configDir, configFileExt))
			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(&cfg); err != nil {
				return sysError(err)
			}
			return enc.Close()
		},
	}
}
