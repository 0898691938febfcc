package cmd

import (
	"context"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/uiindex/internal/logger"
	"github.com/spigell/uiindex/internal/uiindex"
)

var indexCmd = &cobra.Command{
	Use:   "index <source>",
	Short: "Scan a page and print its snapshot",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		index(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)

	indexCmd.Flags().Bool("include-hidden", false, "index hidden elements too")
	indexCmd.Flags().BoolP("force", "f", false, "rebuild even if a fresh snapshot is cached")
}

func index(cmd *cobra.Command, source string) {
	ctx := context.Background()

	logger, config := setup()

	s, err := newSession(ctx, config, logger)
	if err != nil {
		logger.Fatal("creating a session", zap.Error(err))
	}
	defer s.Close()

	doc, err := s.load(ctx, source)
	if err != nil {
		logger.Fatal("loading a page", zap.String("source", source), zap.Error(err))
	}

	force, _ := cmd.Flags().GetBool("force")
	snap := s.indexer.EnsureIndex(ctx, doc, doc.URL(), uiindex.Options{
		Verbose:       true,
		ForceRebuild:  force,
		IncludeHidden: includeHidden(cmd, config),
	})

	if err := writeOutput(os.Stdout, viper.GetString("output"), snap); err != nil {
		logger.Fatal("writing a snapshot", zap.Error(err))
	}
}

// setup builds the logger and the config the way every command needs them.
func setup() (*zap.Logger, *Config) {
	l, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		l.Fatal("getting a config", zap.Error(err))
	}

	l.Debug("starting", zap.String("app", app), zap.String("version", version),
		zap.String("config", viper.ConfigFileUsed()))

	return l, config
}

func includeHidden(cmd *cobra.Command, config *Config) bool {
	if cmd.Flags().Changed("include-hidden") {
		v, _ := cmd.Flags().GetBool("include-hidden")
		return v
	}
	return config.Index.IncludeHidden
}
