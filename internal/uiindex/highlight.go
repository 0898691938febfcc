package uiindex

import (
	"time"

	"go.uber.org/zap"

	"github.com/spigell/uiindex/internal/dom"
)

// DefaultHighlightDuration is how long a highlight stays on screen.
const DefaultHighlightDuration = 800 * time.Millisecond

const highlightOutline = "3px solid #ff5a5f"

// Highlighter flashes an outline around an element. Every failure is logged
// and swallowed.
type Highlighter struct {
	logger *zap.Logger
	// after schedules the revert. It defaults to time.AfterFunc.
	after func(d time.Duration, f func())
}

// NewHighlighter creates a highlighter.
func NewHighlighter(logger *zap.Logger) *Highlighter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Highlighter{
		logger: logger,
		after:  func(d time.Duration, f func()) { time.AfterFunc(d, f) },
	}
}

// Highlight scrolls el into view and outlines it for d. The revert runs on
// its own and does nothing if the element is gone by then.
func (h *Highlighter) Highlight(el dom.Element, d time.Duration) {
	if el == nil {
		return
	}
	if d <= 0 {
		d = DefaultHighlightDuration
	}
	defer func() {
		if r := recover(); r != nil {
			h.logger.Debug("highlight failed", zap.Any("panic", r))
		}
	}()

	if err := el.ScrollIntoView(); err != nil {
		h.logger.Debug("scroll into view", zap.Error(err))
	}
	prev, err := el.SetStyle("outline", highlightOutline)
	if err != nil {
		h.logger.Debug("set highlight", zap.Error(err))
		return
	}

	h.after(d, func() {
		defer func() { recover() }()
		if _, err := el.SetStyle("outline", prev); err != nil {
			h.logger.Debug("revert highlight", zap.Error(err))
		}
	})
}

// HighlightSelector highlights the first element of doc matching selector.
func (h *Highlighter) HighlightSelector(doc dom.Document, selector string, d time.Duration) {
	el, err := dom.Query(doc, selector)
	if err != nil || el == nil {
		h.logger.Debug("highlight target not found", zap.String("selector", selector), zap.Error(err))
		return
	}
	h.Highlight(el, d)
}
