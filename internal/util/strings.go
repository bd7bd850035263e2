// Package util provides small text helpers shared by the terminal surfaces.
package util

import (
	"strconv"
	"strings"
)

// JoinOrNone joins strings with ", " or returns "(none)" for empty slices.
func JoinOrNone(items []string) string {
	return JoinOrDefault(items, "(none)")
}

// JoinOrDefault joins strings with ", " or returns the default value for empty slices.
func JoinOrDefault(items []string, def string) string {
	if len(items) == 0 {
		return def
	}
	return strings.Join(items, ", ")
}

// JoinNonEmpty joins the non-empty items with sep.
func JoinNonEmpty(sep string, items ...string) string {
	kept := make([]string, 0, len(items))
	for _, s := range items {
		if s != "" {
			kept = append(kept, s)
		}
	}
	return strings.Join(kept, sep)
}

// Pluralize returns singular if count is 1, otherwise plural.
func Pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

// Count renders "1 target" or "3 targets".
func Count(count int, singular, plural string) string {
	return strconv.Itoa(count) + " " + Pluralize(count, singular, plural)
}
