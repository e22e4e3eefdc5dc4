package extract

import (
	"fmt"

	"github.com/phrazzld/scry-studygen/internal/domain"
)

// Extractor pulls the structured payload out of raw response text.
type Extractor struct {
	locator PayloadLocator
}

// NewExtractor creates an Extractor using locator, or FencedLocator when
// locator is nil.
func NewExtractor(locator PayloadLocator) *Extractor {
	if locator == nil {
		locator = FencedLocator{}
	}
	return &Extractor{locator: locator}
}

// Extract returns the payload found in raw. It fails with an error
// wrapping domain.ErrExtraction when the locator finds nothing.
func (e *Extractor) Extract(raw string) (string, error) {
	payload, ok := e.locator.Locate(raw)
	if !ok {
		return "", fmt.Errorf("%w: no %s in response", domain.ErrExtraction, e.locator.Name())
	}
	return payload, nil
}
