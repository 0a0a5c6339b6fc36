package flatbase

import (
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	AppName string `mapstructure:"app_name"`

	Storage struct {
		DataDir string `mapstructure:"data_dir"`
		// informational; the engine's page capacity is fixed at 64 rows
		PageSize int `mapstructure:"page_size"`
	} `mapstructure:"storage"`

	CLI struct {
		HistoryFile string `mapstructure:"history_file"`
	} `mapstructure:"cli"`
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("app_name", "flatbase")
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("storage.page_size", 64)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}
