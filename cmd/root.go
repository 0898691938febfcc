package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/uiindex/internal/ai/gemini"
	"github.com/spigell/uiindex/internal/dom/roddom"
	"github.com/spigell/uiindex/internal/pagecontext"
	"github.com/spigell/uiindex/internal/secrets"
	"github.com/spigell/uiindex/internal/textmatch"
	"github.com/spigell/uiindex/internal/uiindex"
)

const (
	app       = "uiindex"
	envPrefix = "UIINDEX"
)

type Config struct {
	Index   *IndexConfig   `mapstructure:"index"`
	Match   *MatchConfig   `mapstructure:"match"`
	Storage *StorageConfig `mapstructure:"storage"`
	Browser *BrowserConfig `mapstructure:"browser"`
	AI      *AIConfig      `mapstructure:"ai"`
}

type IndexConfig struct {
	TTL               time.Duration `mapstructure:"ttl"`
	QueryParams       []string      `mapstructure:"query-params"`
	IncludeHidden     bool          `mapstructure:"include-hidden"`
	HighlightDuration time.Duration `mapstructure:"highlight-duration"`
	FetchTimeout      time.Duration `mapstructure:"fetch-timeout"`
}

type MatchConfig struct {
	uiindex.ResolverConfig `mapstructure:",squash"`
	// Tables extend the built-in normalizer and synonym tables.
	Tables textmatch.Tables `mapstructure:"tables"`
}

type StorageConfig struct {
	// Driver is "memory" or "sqlite".
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	Session   string `mapstructure:"session"`
	Quota     int    `mapstructure:"quota"`
	KeyPrefix string `mapstructure:"key-prefix"`
}

type BrowserConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	roddom.Config `mapstructure:",squash"`
}

type AIConfig struct {
	Enabled  bool               `mapstructure:"enabled"`
	Provider string             `mapstructure:"provider"`
	Rules    []pagecontext.Rule `mapstructure:"rules"`
	Timeout  time.Duration      `mapstructure:"timeout"`
	Gemini   *GeminiConfig      `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey                  secrets.Source `mapstructure:"api-key"`
	Model                   string         `mapstructure:"model"`
	gemini.ClassifierConfig `mapstructure:",squash"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "uiindex indexes the interactive elements of a page and resolves natural-language commands to them",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is uiindex.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().StringP("output", "o", "json", "output format: json or yaml")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	match := uiindex.DefaultResolverConfig()
	classifier := gemini.DefaultClassifierConfig()

	v.SetDefault("index.ttl", uiindex.DefaultTTL)
	v.SetDefault("index.query-params", uiindex.DefaultQueryParams)
	v.SetDefault("index.include-hidden", false)
	v.SetDefault("index.highlight-duration", uiindex.DefaultHighlightDuration)
	v.SetDefault("index.fetch-timeout", 30*time.Second)

	v.SetDefault("match.substring-bonus", match.SubstringBonus)
	v.SetDefault("match.min-substring-runes", match.MinSubstringRunes)
	v.SetDefault("match.fuzzy-weight", match.FuzzyWeight)
	v.SetDefault("match.button-bonus", match.ButtonBonus)
	v.SetDefault("match.threshold", match.Threshold)
	v.SetDefault("match.fallback-depth", match.FallbackDepth)
	v.SetDefault("match.action-labels", match.ActionLabels)

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.path", ".uiindex/session.db")
	v.SetDefault("storage.quota", 5<<20)
	v.SetDefault("storage.key-prefix", uiindex.DefaultKeyPrefix)

	v.SetDefault("browser.enabled", false)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.stealth", true)
	v.SetDefault("browser.navigation-timeout", 45*time.Second)
	v.SetDefault("browser.settle", time.Second)

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.timeout", 10*time.Second)
	v.SetDefault("ai.gemini.api-key.name", "gemini api key")
	v.SetDefault("ai.gemini.api-key.env", "GEMINI_API_KEY")
	v.SetDefault("ai.gemini.rate-per-second", classifier.RatePerSecond)
	v.SetDefault("ai.gemini.burst", classifier.Burst)
	v.SetDefault("ai.gemini.min-confidence", classifier.MinConfidence)
	v.SetDefault("ai.gemini.max-log-length", classifier.MaxLogLength)
	v.SetDefault("ai.gemini.breaker.enabled", classifier.Breaker.Enabled)
	v.SetDefault("ai.gemini.breaker.max-requests", classifier.Breaker.MaxRequests)
	v.SetDefault("ai.gemini.breaker.interval", classifier.Breaker.Interval)
	v.SetDefault("ai.gemini.breaker.timeout", classifier.Breaker.Timeout)
	v.SetDefault("ai.gemini.breaker.min-requests", classifier.Breaker.MinRequests)
	v.SetDefault("ai.gemini.breaker.failure-ratio", classifier.Breaker.FailureRatio)
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Every setting has a default, so only a broken config file is fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	err := v.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return config, err
	}
	if config == nil {
		config = &Config{}
	}
	if config.Index == nil {
		config.Index = &IndexConfig{}
	}
	if config.Match == nil {
		config.Match = &MatchConfig{}
	}
	if config.Storage == nil {
		config.Storage = &StorageConfig{}
	}
	if config.Browser == nil {
		config.Browser = &BrowserConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}

	return config, nil
}
