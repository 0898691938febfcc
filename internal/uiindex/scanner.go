package uiindex

import (
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/uiindex/internal/dom"
)

const (
	candidateSelector = `a, button, input, select, textarea, [role="button"], [role="link"], [tabindex="0"], [onclick], label, span[role="button"]`
	maxTextRunes      = 120

	buttonWeight  = 1.1
	defaultWeight = 1.0
)

// matchAttributes is the bounded attribute subset kept on a descriptor.
var matchAttributes = []string{"data-testid", "aria-label", "name", "type", "placeholder"}

var buttonLikeClass = regexp.MustCompile(`(?i)btn|button`)

var tagRoles = map[string]Role{
	"a":        RoleLink,
	"button":   RoleButton,
	"input":    RoleInput,
	"select":   RoleSelect,
	"textarea": RoleTextarea,
}

// Scanner walks a document and describes its interactive elements. It never
// writes to the document.
type Scanner struct {
	logger *zap.Logger
}

// NewScanner creates a scanner. A nil logger disables logging.
func NewScanner(logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{logger: logger}
}

// probe is the cheap part of a descriptor, enough for fingerprinting.
type probe struct {
	el      dom.Element
	tag     string
	role    Role
	text    string
	rect    dom.Rect
	visible bool
}

// Scan returns the interactive elements of doc in document order. Elements
// that fail the visibility check are dropped unless includeHidden is set.
// Elements that fail to read are skipped.
func (s *Scanner) Scan(doc dom.Document, includeHidden bool) []ElementDescriptor {
	var out []ElementDescriptor
	s.each(doc, 0, func(p probe) bool {
		if !p.visible && !includeHidden {
			return true
		}
		if d, ok := s.describe(doc, p, len(out)); ok {
			out = append(out, d)
		}
		return true
	})
	return out
}

// each calls fn for every candidate that could be probed, stopping early when
// fn returns false. limit > 0 caps the number of visible candidates visited.
func (s *Scanner) each(doc dom.Document, limit int, fn func(probe) bool) {
	els, err := doc.QueryAll(candidateSelector)
	if err != nil {
		s.logger.Warn("candidate query failed", zap.Error(err))
		return
	}

	visible := 0
	for _, el := range els {
		p, err := s.probe(doc, el)
		if err != nil {
			s.logger.Debug("skipping element", zap.Error(err))
			continue
		}
		if !fn(p) {
			return
		}
		if p.visible {
			visible++
			if limit > 0 && visible >= limit {
				return
			}
		}
	}
}

func (s *Scanner) probe(doc dom.Document, el dom.Element) (p probe, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("inspect element: %v", r)
		}
	}()

	visible, rect, err := isVisible(el)
	if err != nil {
		return probe{}, err
	}

	return probe{
		el:      el,
		tag:     el.Tag(),
		role:    inferRole(el),
		text:    elementText(doc, el),
		rect:    rect,
		visible: visible,
	}, nil
}

func (s *Scanner) describe(doc dom.Document, p probe, index int) (d ElementDescriptor, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Debug("skipping element", zap.Any("panic", r))
			ok = false
		}
	}()
	return describe(p, index), true
}

func describe(p probe, index int) ElementDescriptor {
	attrs := make(map[string]string, len(matchAttributes))
	for _, name := range matchAttributes {
		if v, ok := p.el.Attr(name); ok && strings.TrimSpace(v) != "" {
			attrs[name] = v
		}
	}
	if len(attrs) == 0 {
		attrs = nil
	}

	weight := defaultWeight
	if p.role == RoleButton {
		weight = buttonWeight
	}

	return ElementDescriptor{
		Tag:        p.tag,
		Role:       p.role,
		Text:       capText(p.text),
		Selector:   SynthesizeSelector(p.el),
		Attributes: attrs,
		Bounds:     p.rect,
		Weight:     weight,
		Index:      index,
	}
}

func isVisible(el dom.Element) (bool, dom.Rect, error) {
	display, err := el.ComputedStyle("display")
	if err != nil {
		return false, dom.Rect{}, err
	}
	visibility, err := el.ComputedStyle("visibility")
	if err != nil {
		return false, dom.Rect{}, err
	}
	rect, err := el.BoundingRect()
	if err != nil {
		return false, dom.Rect{}, err
	}

	visible := display != "none" && visibility != "hidden" && !rect.Empty()
	return visible, rect, nil
}

func inferRole(el dom.Element) Role {
	if v, ok := el.Attr("role"); ok {
		if r := strings.ToLower(strings.TrimSpace(v)); r != "" {
			switch Role(r) {
			case RoleButton, RoleLink:
				return Role(r)
			case "menuitem", "tab", "switch":
				return RoleButton
			case "textbox", "searchbox":
				return RoleInput
			case "combobox", "listbox":
				return RoleSelect
			}
		}
	}

	if r, ok := tagRoles[el.Tag()]; ok {
		return r
	}

	if _, ok := el.Attr("onclick"); ok {
		return RoleButton
	}
	if v, ok := el.Attr("tabindex"); ok && strings.TrimSpace(v) == "0" {
		return RoleButton
	}
	if v, ok := el.Attr("class"); ok && buttonLikeClass.MatchString(v) {
		return RoleButton
	}

	return RoleOther
}

// elementText prefers the accessible label, then the text of the elements
// named by aria-labelledby, then the element's own text. The result is
// whitespace-collapsed but not capped.
func elementText(doc dom.Document, el dom.Element) string {
	if v, ok := el.Attr("aria-label"); ok {
		if t := collapse(v); t != "" {
			return t
		}
	}

	if v, ok := el.Attr("aria-labelledby"); ok && doc != nil {
		var parts []string
		for _, id := range strings.Fields(v) {
			if ref, err := dom.Query(doc, "#"+escapeIdent(id)); err == nil && ref != nil {
				parts = append(parts, ref.Text())
			}
		}
		if t := collapse(strings.Join(parts, " ")); t != "" {
			return t
		}
	}

	return collapse(el.Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// capText bounds descriptor text to maxTextRunes.
func capText(s string) string {
	if r := []rune(s); len(r) > maxTextRunes {
		s = strings.TrimSpace(string(r[:maxTextRunes]))
	}
	return s
}
