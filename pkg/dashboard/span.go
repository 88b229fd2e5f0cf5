package dashboard

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidSpan indicates a history span outside the supported set
var ErrInvalidSpan = errors.New("invalid span")

// Span is the width of the history chart.
type Span string

const (
	Span1h  Span = "1h"
	Span4h  Span = "4h"
	Span12h Span = "12h"
	Span24h Span = "24h"
)

// Spans lists the supported spans, narrowest first.
var Spans = []Span{Span1h, Span4h, Span12h, Span24h}

// ParseSpan accepts "1h", "4h", "12h", "24h" or the equivalent minute count.
func ParseSpan(s string) (Span, error) {
	for _, sp := range Spans {
		if s == string(sp) {
			return sp, nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil {
		for _, sp := range Spans {
			if n == sp.Minutes() {
				return sp, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSpan, s)
}

// Duration returns the span as a duration.
func (s Span) Duration() time.Duration {
	switch s {
	case Span1h:
		return time.Hour
	case Span4h:
		return 4 * time.Hour
	case Span12h:
		return 12 * time.Hour
	case Span24h:
		return 24 * time.Hour
	}
	return 0
}

// Minutes returns the span in minutes.
func (s Span) Minutes() int {
	return int(s.Duration() / time.Minute)
}
