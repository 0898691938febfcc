package ai

import (
	"context"
	"errors"
)

// ErrNoCategory is returned when a model declines to pick a category.
var ErrNoCategory = errors.New("ai: no category")

// PageClassification is a model's answer for one page.
type PageClassification struct {
	Category   string
	Confidence float64
	Raw        string
}

// PageClassifier labels page text with one of a fixed set of categories.
type PageClassifier interface {
	Classify(ctx context.Context, text string) (string, error)
}
