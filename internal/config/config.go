package config

import (
	"errors"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configFileName string
var configFilePath string

func SetConfig(goEnv string) {
	log.Info().Msgf("Loading configuration for environment: %s", goEnv)

	viper.AddConfigPath("config")
	viper.SetConfigType("yaml")

	if goEnv == "production" {
		configFileName = "config.prod"
	} else {
		configFileName = "config.dev"
	}
	viper.SetConfigName(configFileName)

	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) && goEnv != "production" {
			log.Warn().Msgf("Config file not found, writing default %s.yaml", configFileName)
			if err := writeDefaultConfig(); err != nil {
				log.Fatal().Err(err).Msg("Failed to write default config")
			}
			if err := viper.ReadInConfig(); err != nil {
				log.Fatal().Err(err).Msg("Failed to read config file")
			}
		} else {
			log.Fatal().Err(err).Msg("Failed to read config file")
		}
	}

	configFilePath = viper.ConfigFileUsed()
	log.Info().Msgf("Config file loaded: %s", configFilePath)

	err = viper.Unmarshal(&Conf)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to unmarshal config")
	}
}

func writeDefaultConfig() error {
	// durations are written as strings so the generated file stays editable
	defaults := map[string]any{
		"server":   map[string]any{"port": "3000"},
		"database": map[string]any{"url": "data/auth.db"},
		"auth": map[string]any{
			"secret":      "change-me",
			"issuer":      "pec-auth",
			"access_ttl":  "15m",
			"refresh_ttl": "168h",
		},
		"sms": map[string]any{
			"code_ttl":     "5m",
			"expose_codes": true,
		},
	}

	data, err := yaml.Marshal(defaults)
	if err != nil {
		return err
	}
	if err := os.MkdirAll("config", 0755); err != nil {
		return err
	}
	return os.WriteFile("config/"+configFileName+".yaml", data, 0644)
}
