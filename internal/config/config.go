package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"rtgrab/internal/rtorrent"

	"github.com/spf13/viper"
)

type Config struct {
	RTorrent  RTorrentConfig  `mapstructure:"rtorrent"`
	Add       AddConfig       `mapstructure:"add"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Watch     WatchConfig     `mapstructure:"watch"`
	Hardcover HardcoverConfig `mapstructure:"hardcover"`
	Prowlarr  ProwlarrConfig  `mapstructure:"prowlarr"`

	DaemonPort int    `mapstructure:"daemon_port"`
	DBPath     string `mapstructure:"db_path"`
}

type RTorrentConfig struct {
	URL         string        `mapstructure:"url"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	View        string        `mapstructure:"view"`
	Timeout     time.Duration `mapstructure:"timeout"`
	InsecureTLS bool          `mapstructure:"insecure_tls"`
}

type AddConfig struct {
	Directory string `mapstructure:"directory"`
	Label     string `mapstructure:"label"`
}

type FetchConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

type WatchConfig struct {
	Dir        string   `mapstructure:"dir"`
	IgnoreList []string `mapstructure:"ignore_list"`
}

type HardcoverConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
}

type ProwlarrConfig struct {
	URL        string        `mapstructure:"url"`
	APIKey     string        `mapstructure:"api_key"`
	Indexers   []int         `mapstructure:"indexers"`
	Categories []int         `mapstructure:"categories"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

var Default = Config{
	RTorrent: RTorrentConfig{
		URL:     "http://localhost:8000/RPC2",
		View:    rtorrent.DefaultView,
		Timeout: 30 * time.Second,
	},
	Add: AddConfig{
		Directory: "/downloads",
		Label:     "added_by_script",
	},
	Fetch: FetchConfig{Timeout: 30 * time.Second},
	Watch: WatchConfig{IgnoreList: []string{".*", "*.tmp"}},
	Hardcover: HardcoverConfig{
		URL: "https://api.hardcover.app/v1/graphql",
	},
	Prowlarr: ProwlarrConfig{
		Categories: []int{7000},
		Timeout:    30 * time.Second,
	},
	DaemonPort: 9001,
	DBPath:     "rtgrab.db",
}

// envNames keeps the variable names used by existing deployments.
var envNames = map[string]string{
	"rtorrent.url":      "RTORRENT_URL",
	"rtorrent.username": "RTORRENT_USER",
	"rtorrent.password": "RTORRENT_PASS",
	"hardcover.url":     "HARDCOVER_API_URL",
	"hardcover.api_key": "HARDCOVER_API_KEY",
	"prowlarr.url":      "PROWLARR_URL",
	"prowlarr.api_key":  "PROWLARR_API_KEY",
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home dir: %w", err)
	}

	configDir := filepath.Join(home, ".rtgrab")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	return LoadFrom(configDir)
}

// LoadFrom reads config.yaml from dir (optional) and overlays the environment.
// A relative db_path is resolved against dir.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("rtorrent.url", Default.RTorrent.URL)
	v.SetDefault("rtorrent.username", "")
	v.SetDefault("rtorrent.password", "")
	v.SetDefault("rtorrent.view", Default.RTorrent.View)
	v.SetDefault("rtorrent.timeout", Default.RTorrent.Timeout)
	v.SetDefault("rtorrent.insecure_tls", false)
	v.SetDefault("add.directory", Default.Add.Directory)
	v.SetDefault("add.label", Default.Add.Label)
	v.SetDefault("fetch.timeout", Default.Fetch.Timeout)
	v.SetDefault("watch.dir", "")
	v.SetDefault("watch.ignore_list", Default.Watch.IgnoreList)
	v.SetDefault("hardcover.url", Default.Hardcover.URL)
	v.SetDefault("hardcover.api_key", "")
	v.SetDefault("prowlarr.url", "")
	v.SetDefault("prowlarr.api_key", "")
	v.SetDefault("prowlarr.indexers", []int{})
	v.SetDefault("prowlarr.categories", Default.Prowlarr.Categories)
	v.SetDefault("prowlarr.timeout", Default.Prowlarr.Timeout)
	v.SetDefault("daemon_port", Default.DaemonPort)
	v.SetDefault("db_path", Default.DBPath)

	v.SetEnvPrefix("RTGRAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envNames {
		if err := v.BindEnv(key, env, "RTGRAB_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := errors.AsType[viper.ConfigFileNotFoundError](err); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DBPath != "" && !filepath.IsAbs(cfg.DBPath) {
		cfg.DBPath = filepath.Join(dir, cfg.DBPath)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.RTorrent.URL) == "" {
		return errors.New("rtorrent.url is required")
	}
	if c.RTorrent.Timeout <= 0 {
		return fmt.Errorf("rtorrent.timeout must be positive, got %s", c.RTorrent.Timeout)
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive, got %s", c.Fetch.Timeout)
	}
	if c.DaemonPort <= 0 || c.DaemonPort > 65535 {
		return fmt.Errorf("daemon_port out of range: %d", c.DaemonPort)
	}
	return nil
}

// Session returns the explicit endpoint configuration for rtorrent.NewSession.
func (c *Config) Session() rtorrent.Config {
	return rtorrent.Config{
		URL:         c.RTorrent.URL,
		Username:    c.RTorrent.Username,
		Password:    c.RTorrent.Password,
		Timeout:     c.RTorrent.Timeout,
		InsecureTLS: c.RTorrent.InsecureTLS,
	}
}

func (c *Config) AddDefaults() rtorrent.AddOptions {
	return rtorrent.AddOptions{
		Directory: c.Add.Directory,
		Label:     c.Add.Label,
	}
}
