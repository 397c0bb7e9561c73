package app

import (
	"fmt"
	"strconv"
	"strings"

	"mangograb/internal/models"
)

type span struct {
	lo, hi float64
}

// SelectChapters filters a chapter list by a selection expression:
// "all", a single ordinal ("12" or "10.5"), a range ("3-7"), or a
// comma-separated mix ("1,4,9-11"). Ranges are inclusive and match the
// chapter ordinal, not the list position.
func SelectChapters(expr string, chapters []*models.Chapter) ([]*models.Chapter, error) {
	expr = strings.TrimSpace(strings.ToLower(expr))
	if expr == "" || expr == "all" {
		return chapters, nil
	}

	spans, err := parseSpans(expr)
	if err != nil {
		return nil, err
	}

	selected := []*models.Chapter{}
	for _, ch := range chapters {
		for _, s := range spans {
			if ch.Number >= s.lo && ch.Number <= s.hi {
				selected = append(selected, ch)
				break
			}
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no chapters match %q", expr)
	}
	return selected, nil
}

// ValidateSelection checks an expression without needing a chapter list.
func ValidateSelection(expr string) error {
	expr = strings.TrimSpace(strings.ToLower(expr))
	if expr == "" || expr == "all" {
		return nil
	}
	_, err := parseSpans(expr)
	return err
}

func parseSpans(expr string) ([]span, error) {
	spans := []span{}
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, isRange := strings.Cut(part, "-"); isRange {
			a, errA := strconv.ParseFloat(strings.TrimSpace(lo), 64)
			b, errB := strconv.ParseFloat(strings.TrimSpace(hi), 64)
			if errA != nil || errB != nil {
				return nil, fmt.Errorf("bad chapter range %q", part)
			}
			if b < a {
				a, b = b, a
			}
			spans = append(spans, span{a, b})
			continue
		}
		n, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("bad chapter number %q", part)
		}
		spans = append(spans, span{n, n})
	}
	if len(spans) == 0 {
		return nil, fmt.Errorf("empty chapter selection %q", expr)
	}
	return spans, nil
}
