package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/uiindex/internal/dom/htmldom"
	"github.com/spigell/uiindex/internal/uiindex"
	"github.com/spigell/uiindex/internal/utils"
)

// explainLimit caps the candidates printed with --explain.
const explainLimit = 5

var resolveCmd = &cobra.Command{
	Use:   "resolve <source> <query>",
	Short: "Resolve a natural-language command to an element of a page",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		resolve(cmd, args[0], strings.Join(args[1:], " "))
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)

	resolveCmd.Flags().StringP("kind", "k", string(uiindex.KindAny), "element kind: click, type or any")
	resolveCmd.Flags().Bool("explain", false, "print the best scored candidates")
	resolveCmd.Flags().Bool("highlight", false, "outline the resolved element")
	resolveCmd.Flags().String("render", "", "write the page html after highlighting to this file")
	resolveCmd.Flags().Bool("include-hidden", false, "index hidden elements too")
}

// resolution is the printable outcome of one query.
type resolution struct {
	Query      string                     `json:"query" yaml:"query"`
	Kind       uiindex.Kind               `json:"kind" yaml:"kind"`
	URLKey     string                     `json:"url_key" yaml:"url_key"`
	Found      bool                       `json:"found" yaml:"found"`
	Element    *uiindex.ElementDescriptor `json:"element,omitempty" yaml:"element,omitempty"`
	Candidates []uiindex.Candidate        `json:"candidates,omitempty" yaml:"candidates,omitempty"`
}

func resolve(cmd *cobra.Command, source, query string) {
	ctx := context.Background()

	logger, config := setup()

	kindFlag, _ := cmd.Flags().GetString("kind")
	kind, err := uiindex.ParseKind(kindFlag)
	if err != nil {
		logger.Fatal("parsing a kind", zap.Error(err))
	}

	s, err := newSession(ctx, config, logger)
	if err != nil {
		logger.Fatal("creating a session", zap.Error(err))
	}
	defer s.Close()

	doc, err := s.load(ctx, source)
	if err != nil {
		logger.Fatal("loading a page", zap.String("source", source), zap.Error(err))
	}

	explain, _ := cmd.Flags().GetBool("explain")
	snap := s.indexer.EnsureIndex(ctx, doc, doc.URL(), uiindex.Options{IncludeHidden: includeHidden(cmd, config)})
	res := s.resolve(query, kind, snap, doc, explain)

	if err := writeOutput(os.Stdout, viper.GetString("output"), res); err != nil {
		logger.Fatal("writing a resolution", zap.Error(err))
	}

	if highlight, _ := cmd.Flags().GetBool("highlight"); highlight && res.Found {
		render, _ := cmd.Flags().GetString("render")
		if err := s.highlight(ctx, doc, res.Element.Selector, render); err != nil {
			logger.Fatal("highlighting", zap.Error(err))
		}
	}
}

func (s *session) resolve(query string, kind uiindex.Kind, snap *uiindex.PageSnapshot, doc *htmldom.Document, explain bool) resolution {
	r := s.currentResolver()

	res := resolution{Query: query, Kind: kind, URLKey: snap.URLKey}
	if el := r.Resolve(query, kind, snap, doc); el != nil {
		res.Found = true
		res.Element = el
	}
	if explain {
		ranked := r.Rank(query, kind, snap)
		res.Candidates = ranked[:min(len(ranked), explainLimit)]
	}

	return res
}

// highlight outlines selector. With a live page it waits for the outline to
// be reverted before returning, so the browser is not closed underneath it.
func (s *session) highlight(ctx context.Context, doc *htmldom.Document, selector, render string) error {
	d := s.config.Index.HighlightDuration
	if d <= 0 {
		d = uiindex.DefaultHighlightDuration
	}
	s.highlighter.HighlightSelector(doc, selector, d)

	if render != "" {
		f, err := os.Create(render)
		if err != nil {
			return fmt.Errorf("create render file: %w", err)
		}
		defer f.Close()
		if err := doc.Render(f); err != nil {
			return fmt.Errorf("render page: %w", err)
		}
	}

	if s.browser != nil {
		return utils.WaitFor(ctx, d+100*time.Millisecond)
	}
	return nil
}
