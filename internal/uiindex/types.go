// Package uiindex indexes the interactive elements of a rendered page and
// resolves natural-language commands to one of them.
//
// The flow is Scanner -> Cache -> Resolver. A PageSnapshot is built by the
// Indexer, cached per canonical URL key, and rebuilt when it expires or the
// page's layout fingerprint changes.
package uiindex

import (
	"fmt"
	"strings"
	"time"

	"github.com/spigell/uiindex/internal/dom"
)

// Role is the inferred interaction role of an element.
type Role string

const (
	RoleButton   Role = "button"
	RoleLink     Role = "link"
	RoleInput    Role = "input"
	RoleSelect   Role = "select"
	RoleTextarea Role = "textarea"
	RoleOther    Role = "other"
)

// Kind restricts which roles a query may resolve to.
type Kind string

const (
	KindClick Kind = "click"
	KindType  Kind = "type"
	KindAny   Kind = "any"
)

// ParseKind parses a kind name. An empty string is KindAny.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindClick, KindType, KindAny:
		return k, nil
	case "":
		return KindAny, nil
	default:
		return "", fmt.Errorf("unknown kind %q (want click, type or any)", s)
	}
}

// Allows reports whether an element with role r is a candidate for k.
func (k Kind) Allows(r Role) bool {
	switch k {
	case KindClick:
		return r == RoleButton || r == RoleLink
	case KindType:
		return r == RoleInput || r == RoleTextarea || r == RoleSelect
	default:
		return true
	}
}

// ElementDescriptor describes one interactive candidate of a snapshot.
type ElementDescriptor struct {
	Tag        string            `json:"tag" yaml:"tag"`
	Role       Role              `json:"role" yaml:"role"`
	Text       string            `json:"text" yaml:"text"`
	Selector   string            `json:"selector" yaml:"selector"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
	// Bounds is the box at capture time. Only the spatial fallback reads it.
	Bounds dom.Rect `json:"bounds" yaml:"bounds"`
	Weight float64  `json:"weight" yaml:"weight"`
	// Index is the position in the snapshot, -1 for elements found outside it.
	Index int `json:"index" yaml:"index"`
}

// PageSnapshot is the indexed state of one logical page. Snapshots are
// replaced on rebuild and never modified after they are built.
type PageSnapshot struct {
	URLKey            string              `json:"url_key" yaml:"url_key"`
	LayoutFingerprint string              `json:"layout_fingerprint" yaml:"layout_fingerprint"`
	CapturedAt        time.Time           `json:"captured_at" yaml:"captured_at"`
	Title             string              `json:"title,omitempty" yaml:"title,omitempty"`
	Category          string              `json:"category,omitempty" yaml:"category,omitempty"`
	IncludeHidden     bool                `json:"include_hidden" yaml:"include_hidden"`
	Elements          []ElementDescriptor `json:"elements" yaml:"elements"`
}

// Options tune EnsureIndex.
type Options struct {
	// Verbose logs index decisions at info instead of debug.
	Verbose bool
	// ForceRebuild skips the cache.
	ForceRebuild bool
	// IncludeHidden keeps elements that fail the visibility check.
	IncludeHidden bool
}
