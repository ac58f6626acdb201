// Package validator classifies candidate emails before they are stored.
package validator

import (
	"regexp"
	"strings"
)

// Reason explains why an email was rejected. The zero value means accepted.
type Reason string

// Rejection reasons, in the order they are checked
const (
	Accepted          Reason = ""
	InvalidFormat     Reason = "invalid-format"
	DisposableDomain  Reason = "disposable-domain"
	SuspiciousPattern Reason = "suspicious-pattern"
)

// Message returns the text shown next to the form
func (r Reason) Message() string {
	switch r {
	case InvalidFormat:
		return "Invalid email format"
	case DisposableDomain:
		return "Disposable email addresses are not allowed"
	case SuspiciousPattern:
		return "Suspicious email pattern detected"
	}
	return ""
}

// Unicode separators and the BOM count as whitespace too.
var emailPattern = regexp.MustCompile(`^[^\s\p{Z}\x{FEFF}@]+@[^\s\p{Z}\x{FEFF}@]+\.[^\s\p{Z}\x{FEFF}@]+$`)

// DisposableDomains are throwaway providers rejected by default.
var DisposableDomains = []string{
	"10minutemail.com",
	"tempmail.org",
	"guerrillamail.com",
	"mailinator.com",
	"yopmail.com",
	"temp-mail.org",
	"throwaway.email",
}

// SuspiciousPatterns match known fake addresses anywhere in the email.
var SuspiciousPatterns = []string{
	`test@test\.com`,
	`admin@admin\.com`,
	`spam@spam\.com`,
	`fake@fake\.com`,
	`noreply@`,
	`no-reply@`,
}

// Validator checks format, domain and pattern in that order
type Validator struct {
	domains  map[string]struct{}
	patterns []*regexp.Regexp
}

// New returns a Validator with the built-in lists extended by the given ones.
// Patterns are compiled case-insensitively.
func New(extraDomains, extraPatterns []string) (*Validator, error) {
	v := &Validator{
		domains: make(map[string]struct{}),
	}

	for _, d := range append(DisposableDomains[:len(DisposableDomains):len(DisposableDomains)], extraDomains...) {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			v.domains[d] = struct{}{}
		}
	}

	for _, p := range append(SuspiciousPatterns[:len(SuspiciousPatterns):len(SuspiciousPatterns)], extraPatterns...) {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, err
		}
		v.patterns = append(v.patterns, re)
	}

	return v, nil
}

// Default returns a Validator with only the built-in lists
func Default() *Validator {
	v, err := New(nil, nil)
	if err != nil {
		panic(err)
	}
	return v
}

// Validate returns Accepted or the first failing reason
func (v *Validator) Validate(email string) Reason {
	if !emailPattern.MatchString(email) {
		return InvalidFormat
	}

	domain := strings.ToLower(email[strings.LastIndex(email, "@")+1:])
	if _, ok := v.domains[domain]; ok {
		return DisposableDomain
	}

	for _, re := range v.patterns {
		if re.MatchString(email) {
			return SuspiciousPattern
		}
	}

	return Accepted
}
