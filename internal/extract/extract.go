package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var ErrParse = errors.New("parse failed")

var (
	nonDigit   = regexp.MustCompile(`[^0-9]`)
	whitespace = regexp.MustCompile(`\s+`)
)

// Extractor yields a value and whether it found one.
type Extractor[T any] func() (T, bool)

// FirstOf runs extractors in order and returns the first success.
func FirstOf[T any](extractors ...Extractor[T]) (T, bool) {
	for _, ex := range extractors {
		if v, ok := ex(); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// NonEmpty adapts a string producer into an Extractor that fails on blank output.
func NonEmpty(fn func() string) Extractor[string] {
	return func() (string, bool) {
		s := strings.TrimSpace(fn())
		return s, s != ""
	}
}

// FirstMatch returns the first capture group of the first pattern that matches.
func FirstMatch(input string, patterns ...*regexp.Regexp) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(input); len(m) > 1 && m[1] != "" {
			return m[1], true
		}
	}
	return "", false
}

// ParsePrice strips every non-digit character and parses the remainder.
func ParsePrice(text string) (int, error) {
	digits := nonDigit.ReplaceAllString(text, "")
	if digits == "" {
		return 0, fmt.Errorf("%w: no digits in %q", ErrParse, text)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return n, nil
}

// FormatWon renders an amount the way the site prints it, e.g. "3,000원".
func FormatWon(amount int) string {
	s := strconv.Itoa(amount)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := b.String() + "원"
	if neg {
		return "-" + out
	}
	return out
}

// CollapseSpace trims and folds internal whitespace runs to a single space.
func CollapseSpace(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

// Dedup returns values in first-seen order without duplicates or blanks.
func Dedup(values []string, limit int) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Prepend puts head in front of values unless it is already present.
func Prepend(head string, values []string) []string {
	if head == "" {
		return values
	}
	out := make([]string, 0, len(values)+1)
	out = append(out, head)
	for _, v := range values {
		if v != head {
			out = append(out, v)
		}
	}
	return out
}
