package utils

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// GenerateSlug lowercases name, strips accents and joins the remaining
// alphanumeric runs with hyphens: "Amélie Poulain!" -> "amelie-poulain".
func GenerateSlug(name string) string {
	t := norm.NFD.String(name)
	var b strings.Builder
	for _, r := range t {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(r)
	}

	s := strings.ToLower(b.String())
	s = nonSlugChars.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func ParseIntDefault(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Page is a resolved ?page=&limit= pair. Page is 1 based.
type Page struct {
	Page  int
	Limit int
}

func (p Page) Skip() int64 {
	return int64((p.Page - 1) * p.Limit)
}

// ParsePage reads page and limit query values. Missing or invalid values
// fall back to page 1 and defaultLimit; limit is capped at maxLimit.
func ParsePage(page, limit string, defaultLimit, maxLimit int) Page {
	p := Page{
		Page:  ParseIntDefault(page, 1),
		Limit: ParseIntDefault(limit, defaultLimit),
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}
