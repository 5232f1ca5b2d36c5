package main

import (
	"errors"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kakao/partnersso/internal/config"
	"github.com/kakao/partnersso/internal/logging"
)

var cfgFile string

const (
	LogLevelKey   = "log.level"
	LogFormatKey  = "log.format"
	LogNoColorKey = "log.no_color"
)

var rootCmd = &cobra.Command{
	Use:   "ssoagent",
	Short: "Kakao Talk SSO account agent",
	Long: `ssoagent reads the Kakao Talk accounts shared on this host, picks the
account to log in with and remembers refresh tokens the backend rejected.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, configErr := initConfig()
		if err := logging.Init(
			viper.GetString(LogLevelKey),
			viper.GetString(LogFormatKey),
			viper.GetBool(LogNoColorKey),
		); err != nil {
			return err
		}
		if configErr != nil { // handle error after logging is initialized
			return configErr
		}
		if configPath != "" {
			log.Debug().Msgf("using config file: %s", configPath)
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal().Err(err).Msg("execution failed")
	}
}

func init() {
	logging.InitDefault()
	config.SetDefaults(viper.GetViper())

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Config file (default is ./.ssoagent.yaml or $HOME/.ssoagent.yaml)")

	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	_ = viper.BindPFlag(LogLevelKey, flags.Lookup("log-level"))

	flags.String("log-format", "console", "Log format (console, json)")
	_ = viper.BindPFlag(LogFormatKey, flags.Lookup("log-format"))

	flags.Bool("no-color", false, "Disable color output")
	_ = viper.BindPFlag(LogNoColorKey, flags.Lookup("no-color"))

	flags.String("access-group", "", "Keychain access group shared with Kakao Talk")
	_ = viper.BindPFlag(config.AccessGroupKey, flags.Lookup("access-group"))

	flags.String("phase", "", "Deployment phase (Dev, Sandbox, Cbt, Production)")
	_ = viper.BindPFlag(config.PhaseKey, flags.Lookup("phase"))

	flags.String("redis-url", "", "Redis URL of the shared secure store")
	_ = viper.BindPFlag(config.RedisURLKey, flags.Lookup("redis-url"))

	config.BindEnv(viper.GetViper())

	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	rootCmd.AddCommand(serveCmd, accountsCmd, seedCmd, tokenCmd)
}

func initConfig() (string, error) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".ssoagent")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &notFoundError) {
			return "", err
		}
		return "", nil
	}
	return viper.ConfigFileUsed(), nil
}
