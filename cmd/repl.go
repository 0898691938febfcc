package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/manifoldco/promptui"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/uiindex/internal/dom/htmldom"
	"github.com/spigell/uiindex/internal/uiindex"
)

const (
	commandQuit    = ":quit"
	commandRebuild = ":rebuild"
	commandKind    = ":kind"
	commandSet     = ":set"
	commandConfig  = ":config"
)

var errExit = errors.New("exit requested")

var kindPrompt = promptui.Select{
	Label: "Element kind",
	Items: []string{string(uiindex.KindAny), string(uiindex.KindClick), string(uiindex.KindType)},
}

var replCmd = &cobra.Command{
	Use:   "repl <source>",
	Short: "Resolve commands against a page interactively",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		repl(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(replCmd)

	replCmd.Flags().Bool("include-hidden", false, "index hidden elements too")
	replCmd.Flags().Bool("explain", false, "print the best scored candidates")
}

// replState is what a REPL line may change.
type replState struct {
	session *session
	doc     *htmldom.Document
	kind    uiindex.Kind
	opts    uiindex.Options
	explain bool
	out     io.Writer
}

func repl(cmd *cobra.Command, source string) {
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

	watchMatchConfig(s)

	explain, _ := cmd.Flags().GetBool("explain")
	st := &replState{
		session: s,
		doc:     doc,
		kind:    uiindex.KindAny,
		opts:    uiindex.Options{Verbose: true, IncludeHidden: includeHidden(cmd, config)},
		explain: explain,
		out:     os.Stdout,
	}
	snap := s.indexer.EnsureIndex(ctx, doc, doc.URL(), st.opts)
	fmt.Fprintf(st.out, "indexed %d elements of %s\n", len(snap.Elements), snap.URLKey)

	prompt := promptui.Prompt{Label: "Command"}
	for {
		line, err := prompt.Run()
		if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
			return
		}
		if err != nil {
			logger.Fatal("reading a command", zap.Error(err))
		}

		if err := st.handle(ctx, line); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			fmt.Fprintf(st.out, "error: %s\n", err)
		}
	}
}

func (st *replState) handle(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	s := st.session

	switch {
	case line == "":
		return nil
	case line == commandQuit:
		return errExit
	case line == commandRebuild:
		snap := s.indexer.RebuildIndex(ctx, st.doc, st.doc.URL(), st.opts)
		fmt.Fprintf(st.out, "rebuilt %d elements, fingerprint %s\n", len(snap.Elements), snap.LayoutFingerprint)
		return nil
	case line == commandKind:
		_, picked, err := kindPrompt.Run()
		if err != nil {
			return err
		}
		kind, err := uiindex.ParseKind(picked)
		if err != nil {
			return err
		}
		st.kind = kind
		return nil
	case line == commandConfig:
		return writeOutput(st.out, viper.GetString("output"), s.matchConfig().ResolverConfig)
	case strings.HasPrefix(line, commandSet+" "):
		cfg := s.matchConfig()
		updated, err := applySetting(cfg.ResolverConfig, strings.TrimPrefix(line, commandSet+" "))
		if err != nil {
			return err
		}
		cfg.ResolverConfig = updated
		s.setMatch(cfg)
		return nil
	}

	snap := s.indexer.EnsureIndex(ctx, st.doc, st.doc.URL(), st.opts)
	res := s.resolve(line, st.kind, snap, st.doc, st.explain)
	if res.Found {
		s.highlighter.HighlightSelector(st.doc, res.Element.Selector, s.config.Index.HighlightDuration)
	}

	return writeOutput(st.out, viper.GetString("output"), res)
}

// applySetting decodes one key=value assignment over cfg. Keys are the match
// config keys, lists are comma separated.
func applySetting(cfg uiindex.ResolverConfig, assignment string) (uiindex.ResolverConfig, error) {
	key, value, ok := strings.Cut(assignment, "=")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return cfg, fmt.Errorf("expected key=value, got %q", assignment)
	}

	var meta mapstructure.Metadata
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToSliceHookFunc(","),
		WeaklyTypedInput: true,
		ZeroFields:       true,
		Metadata:         &meta,
		Result:           &cfg,
	})
	if err != nil {
		return cfg, err
	}

	if err := dec.Decode(map[string]any{key: strings.TrimSpace(value)}); err != nil {
		return cfg, fmt.Errorf("set %s: %w", key, err)
	}
	if len(meta.Unused) > 0 {
		return cfg, fmt.Errorf("unknown setting %q", key)
	}

	return cfg, nil
}

// watchMatchConfig reloads the match section when the config file changes.
func watchMatchConfig(s *session) {
	if viper.ConfigFileUsed() == "" {
		return
	}

	viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		config, err := getConfig()
		if err != nil {
			s.logger.Warn("reloading a config", zap.String("file", e.Name), zap.Error(err))
			return
		}
		s.setMatch(*config.Match)
		s.logger.Info("reloaded match settings", zap.String("file", e.Name))
	})
	viper.WatchConfig()
}
