package adapters

import (
	"regexp"

	"github.com/cockroachdb/errors"

	"github.com/DylanSharp/gotui/internal/config"
	"github.com/DylanSharp/gotui/internal/testui/ports"
)

type xfailRule struct {
	re     *regexp.Regexp
	strict bool
	reason string
}

// XFailMatcher decides which tests are expected to fail
type XFailMatcher struct {
	rules []xfailRule
}

// NewXFailMatcher compiles the configured rules
func NewXFailMatcher(rules []config.XFailRule) (*XFailMatcher, error) {
	m := &XFailMatcher{}
	for _, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "xfail pattern %q", r.Pattern)
		}
		m.rules = append(m.rules, xfailRule{re: re, strict: r.Strict, reason: r.Reason})
	}
	return m, nil
}

// Match returns the expectation of the first rule matching id, or nil
func (m *XFailMatcher) Match(id string) *ports.XFail {
	if m == nil {
		return nil
	}
	for _, r := range m.rules {
		if r.re.MatchString(id) {
			return &ports.XFail{Strict: r.strict, Reason: r.reason}
		}
	}
	return nil
}
