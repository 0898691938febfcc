package roddom

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
)

const resolvePath = `
	let el = document.documentElement;
	for (const i of path) {
		if (!el) break;
		el = el.children[i];
	}
	if (!el) throw new Error("element is detached");
`

const scrollScript = `(path) => {` + resolvePath + `
	el.scrollIntoView({block: "center", inline: "nearest"});
}`

const setStyleScript = `(path, prop, value) => {` + resolvePath + `
	const prev = el.style.getPropertyValue(prop);
	if (value) el.style.setProperty(prop, value);
	else el.style.removeProperty(prop);
	return prev;
}`

type actuator struct {
	page *rod.Page
	ctx  context.Context
}

func (a *actuator) ScrollIntoView(path []int) error {
	if path == nil {
		path = []int{}
	}
	if _, err := a.page.Context(a.ctx).Eval(scrollScript, path); err != nil {
		return fmt.Errorf("scroll into view: %w", err)
	}
	return nil
}

func (a *actuator) SetStyle(path []int, prop, value string) (string, error) {
	if path == nil {
		path = []int{}
	}
	res, err := a.page.Context(a.ctx).Eval(setStyleScript, path, prop, value)
	if err != nil {
		return "", fmt.Errorf("set style %s: %w", prop, err)
	}
	return res.Value.Str(), nil
}
