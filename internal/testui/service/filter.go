package service

import (
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

// LiteralDelimiter toggles between fuzzy and literal segments in a filter
const LiteralDelimiter = "#"

// Filter is a compiled fuzzy test id filter
type Filter struct {
	value string
	re    *regexp.Regexp
}

// FilterRegexString builds the regular expression for a filter value.
//
// The value is split on LiteralDelimiter. Even segments are fuzzy: every
// character must appear in order with anything in between, so "abc" becomes
// a.*?b.*?c. Odd segments are inserted verbatim as regular expression text.
func FilterRegexString(value string) string {
	segments := strings.Split(value, LiteralDelimiter)

	var sb strings.Builder
	for i, segment := range segments {
		if i%2 == 1 {
			sb.WriteString(segment)
			continue
		}
		chars := lo.Map([]rune(segment), func(r rune, _ int) string {
			return regexp.QuoteMeta(string(r))
		})
		sb.WriteString(strings.Join(chars, ".*?"))
	}
	return sb.String()
}

// CompileFilter compiles a case-insensitive filter. An empty value returns a
// nil filter, which matches everything.
func CompileFilter(value string) (*Filter, error) {
	if value == "" {
		return nil, nil
	}
	re, err := regexp.Compile("(?i)" + FilterRegexString(value))
	if err != nil {
		return nil, errors.Wrapf(err, "invalid filter %q", value)
	}
	return &Filter{value: value, re: re}, nil
}

// IsMatch returns true if the filter matches anywhere in id
func (f *Filter) IsMatch(id string) bool {
	return f == nil || f.re.MatchString(id)
}

// Value returns the text the filter was compiled from
func (f *Filter) Value() string {
	if f == nil {
		return ""
	}
	return f.value
}

// String returns the compiled expression
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.re.String()
}
