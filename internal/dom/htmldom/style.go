package htmldom

import (
	"strconv"
	"strings"
)

type declaration struct {
	prop  string
	value string
}

// parseStyle splits an inline style attribute into ordered declarations.
// Later declarations of the same property win, as in CSS.
func parseStyle(s string) []declaration {
	var decls []declaration
	for _, part := range strings.Split(s, ";") {
		prop, value, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		prop = strings.ToLower(strings.TrimSpace(prop))
		value = strings.TrimSpace(value)
		if prop == "" {
			continue
		}
		decls = setDeclaration(decls, prop, value)
	}
	return decls
}

func setDeclaration(decls []declaration, prop, value string) []declaration {
	for i := range decls {
		if decls[i].prop == prop {
			if value == "" {
				return append(decls[:i], decls[i+1:]...)
			}
			decls[i].value = value
			return decls
		}
	}
	if value == "" {
		return decls
	}
	return append(decls, declaration{prop: prop, value: value})
}

func lookupDeclaration(decls []declaration, prop string) (string, bool) {
	for _, d := range decls {
		if d.prop == prop {
			return d.value, true
		}
	}
	return "", false
}

func formatStyle(decls []declaration) string {
	parts := make([]string, 0, len(decls))
	for _, d := range decls {
		parts = append(parts, d.prop+": "+d.value)
	}
	return strings.Join(parts, "; ")
}

// parsePixels parses "12", "12px" or "12.5px". Other units are rejected.
func parsePixels(v string) (float64, bool) {
	v = strings.TrimSpace(strings.ToLower(v))
	v = strings.TrimSuffix(v, "!important")
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// firstKeyword returns the first whitespace separated word of a declaration
// value, without !important.
func firstKeyword(v string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSuffix(strings.TrimSpace(v), "!important")))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
