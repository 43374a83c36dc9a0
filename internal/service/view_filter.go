package service

import (
	"regexp"
	"strings"

	"cruce-web/internal/models"
)

// MatchRow returns a predicate with the same semantics the query builder applies in SQL:
// exact matches ignore case and surrounding spaces, the reference is a LIKE pattern
// (prefix when it has no wildcard) and excluded receiving codes are dropped.
func MatchRow(filters models.QueryFilterSet) func(models.ResultRow) bool {
	f := filters.Normalized()

	var refRe *regexp.Regexp
	if ref := strings.ToLower(f.Reference); ref != "" {
		if !strings.ContainsAny(ref, "%_") {
			ref += "%"
		}
		refRe = likePattern(ref)
	}

	excluded := map[string]bool{}
	for _, code := range f.ExcludedCodes() {
		excluded[code] = true
	}

	equal := func(want, got string) bool {
		return want == "" || strings.EqualFold(want, strings.TrimSpace(got))
	}

	return func(r models.ResultRow) bool {
		if !equal(f.ItemCode, r.ItemCode) ||
			!equal(f.Category, r.Category) ||
			!equal(f.Line, r.Line) ||
			!equal(f.ManufacturerCode, r.ManufacturerCode) {
			return false
		}
		if f.OnlyUncorrected && r.Correction != 0 {
			return false
		}
		if refRe != nil && !refRe.MatchString(strings.ToLower(strings.TrimSpace(r.Reference))) {
			return false
		}
		if excluded[strings.ToUpper(strings.TrimSpace(r.ReceivingCode))] {
			return false
		}
		return true
	}
}

// likePattern compiles a SQL LIKE pattern into an anchored regular expression.
func likePattern(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile("(?s)" + b.String())
}
