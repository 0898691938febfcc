package uiindex

import (
	"fmt"
	"strings"

	"github.com/spigell/uiindex/internal/dom"
)

// SynthesizeSelector returns a CSS selector that should find el again after
// a re-render. Semantic hooks win over structure: data-testid, then
// aria-label, then id, then name/type, then an nth-of-type chain from body.
func SynthesizeSelector(el dom.Element) string {
	if v, ok := nonEmptyAttr(el, "data-testid"); ok {
		return "[data-testid=" + quoteAttr(v) + "]"
	}
	if v, ok := nonEmptyAttr(el, "aria-label"); ok {
		return el.Tag() + "[aria-label=" + quoteAttr(v) + "]"
	}
	if v, ok := nonEmptyAttr(el, "id"); ok {
		return "#" + escapeIdent(v)
	}
	if name, ok := nonEmptyAttr(el, "name"); ok {
		if typ, ok := nonEmptyAttr(el, "type"); ok {
			return "[name=" + quoteAttr(name) + "][type=" + quoteAttr(typ) + "]"
		}
		return "[name=" + quoteAttr(name) + "]"
	}
	return structuralPath(el)
}

func nonEmptyAttr(el dom.Element, name string) (string, bool) {
	v, ok := el.Attr(name)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// structuralPath joins tag:nth-of-type(n) steps from below body down to el.
func structuralPath(el dom.Element) string {
	var steps []string
	for cur := el; cur != nil && cur.Tag() != "body"; cur = cur.Parent() {
		steps = append(steps, fmt.Sprintf("%s:nth-of-type(%d)", cur.Tag(), typeOrdinal(cur)))
	}
	if len(steps) == 0 {
		return "body"
	}

	for i, j := 0, len(steps)-1; i < j; i, j = i+1, j-1 {
		steps[i], steps[j] = steps[j], steps[i]
	}
	return strings.Join(steps, " ")
}

// typeOrdinal is the 1-based position of el among its same-tag siblings.
func typeOrdinal(el dom.Element) int {
	parent := el.Parent()
	if parent == nil {
		return 1
	}

	tag := el.Tag()
	n := 0
	for _, c := range parent.Children() {
		if c.Tag() != tag {
			continue
		}
		n++
		if dom.Same(c, el) {
			return n
		}
	}
	return max(n, 1)
}

// quoteAttr renders v as a double-quoted CSS string.
func quoteAttr(v string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range v {
		switch {
		case r == 0:
			b.WriteRune('�')
		case r == '"' || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&b, "\\%x ", r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// escapeIdent escapes v for use as a CSS identifier, following CSS.escape.
func escapeIdent(v string) string {
	runes := []rune(v)
	var b strings.Builder
	for i, r := range runes {
		switch {
		case r == 0:
			b.WriteRune('�')
		case r < 0x20 || r == 0x7f,
			i == 0 && r >= '0' && r <= '9',
			i == 1 && r >= '0' && r <= '9' && runes[0] == '-':
			fmt.Fprintf(&b, "\\%x ", r)
		case i == 0 && r == '-' && len(runes) == 1:
			b.WriteString(`\-`)
		case r >= 0x80 || r == '-' || r == '_' ||
			(r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			b.WriteRune(r)
		default:
			b.WriteByte('\\')
			b.WriteRune(r)
		}
	}
	return b.String()
}
