package uiindex

import (
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/uiindex/internal/dom"
)

// spatialFallback anchors on text nodes containing the query's first word and
// returns the action-labelled button or link, within FallbackDepth ancestors
// of an anchor, whose centre is closest to that anchor.
func (r *Resolver) spatialFallback(doc dom.Document, query string, snap *PageSnapshot) *ElementDescriptor {
	tokens := r.matcher.Normalizer().Tokens(query)
	if len(tokens) == 0 {
		return nil
	}
	word := tokens[0]

	var (
		best     probe
		bestDist = -1.0
	)

	for _, tn := range doc.TextNodes(doc.Body()) {
		if tn.Parent == nil || !strings.Contains(r.matcher.Normalizer().Clean(tn.Text), word) {
			continue
		}
		anchor, err := tn.Parent.BoundingRect()
		if err != nil || anchor.Empty() {
			continue
		}

		seen := make(map[dom.Element]struct{})
		scope := tn.Parent
		for level := 0; level < r.cfg.FallbackDepth && scope != nil; level++ {
			r.walkActions(doc, scope, seen, func(p probe) {
				if d := anchor.Distance(p.rect); bestDist < 0 || d < bestDist {
					best, bestDist = p, d
				}
			})
			scope = scope.Parent()
		}
	}

	if bestDist < 0 {
		return nil
	}

	d := describe(best, -1)
	if snap != nil {
		for _, el := range snap.Elements {
			if el.Selector == d.Selector {
				d = el
				break
			}
		}
	}
	r.logger.Debug("resolved by spatial fallback",
		zap.String("query", query),
		zap.String("anchor", word),
		zap.String("selector", d.Selector),
		zap.Float64("distance", bestDist),
	)
	return &d
}

// walkActions calls fn for each visible, action-labelled button or link in
// the subtree of root that was not visited before.
func (r *Resolver) walkActions(doc dom.Document, root dom.Element, seen map[dom.Element]struct{}, fn func(probe)) {
	var walk func(el dom.Element)
	walk = func(el dom.Element) {
		if _, ok := seen[el]; ok {
			return
		}
		seen[el] = struct{}{}

		if p, err := r.scanner.probe(doc, el); err == nil && p.visible &&
			(p.role == RoleButton || p.role == RoleLink) && r.isAction(p.text) {
			fn(p)
		}
		for _, c := range el.Children() {
			walk(c)
		}
	}
	walk(root)
}

func (r *Resolver) isAction(label string) bool {
	label = r.matcher.Normalizer().Clean(label)
	if label == "" {
		return false
	}
	for _, a := range r.actions {
		if strings.Contains(label, a) {
			return true
		}
	}
	return false
}
