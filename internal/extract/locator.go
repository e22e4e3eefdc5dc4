package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

// PayloadLocator finds a candidate payload inside raw response text.
type PayloadLocator interface {
	// Locate returns the payload and true, or "" and false when raw holds
	// nothing this locator recognizes. It must be pure.
	Locate(raw string) (string, bool)
	// Name describes what the locator looks for, for error messages.
	Name() string
}

// fencedJSON matches the first ```json block up to the next fence that
// opens a line. The tag is case-insensitive and may only be followed by
// blanks before the newline, so jsonl or json-ld blocks do not match.
// JSON strings cannot hold a raw newline, so a line-leading fence is never
// inside the payload.
var fencedJSON = regexp.MustCompile("(?is)```json[ \t]*\r?\n(.*?)(?m:^[ \t]*```)")

// FencedLocator accepts the interior of the first ```json fenced block.
type FencedLocator struct{}

// Locate implements PayloadLocator.
func (FencedLocator) Locate(raw string) (string, bool) {
	m := fencedJSON.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

// Name implements PayloadLocator.
func (FencedLocator) Name() string { return "fenced json block" }

// BareArrayLocator accepts a response whose trimmed text is itself a
// well-formed JSON array.
type BareArrayLocator struct{}

// Locate implements PayloadLocator.
func (BareArrayLocator) Locate(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") || !json.Valid([]byte(s)) {
		return "", false
	}
	return s, true
}

// Name implements PayloadLocator.
func (BareArrayLocator) Name() string { return "bare json array" }

// Chain tries each locator in order and returns the first match.
type Chain []PayloadLocator

// Locate implements PayloadLocator.
func (c Chain) Locate(raw string) (string, bool) {
	for _, l := range c {
		if payload, ok := l.Locate(raw); ok {
			return payload, true
		}
	}
	return "", false
}

// Name implements PayloadLocator.
func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, l := range c {
		names[i] = l.Name()
	}
	return strings.Join(names, " or ")
}

// DefaultLocator returns the fenced locator, followed by the bare array
// locator when acceptUnfenced is set.
func DefaultLocator(acceptUnfenced bool) PayloadLocator {
	if acceptUnfenced {
		return Chain{FencedLocator{}, BareArrayLocator{}}
	}
	return FencedLocator{}
}
