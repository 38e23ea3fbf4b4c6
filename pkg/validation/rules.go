package validation

import (
	"strings"
	"unicode"
)

// PasswordSpecials is the fixed special-character set accepted in
// passwords. A valid password must contain at least one of these and
// nothing outside letters, digits, space, and this set.
const PasswordSpecials = "!@#$%^&*()-_=+[]{},.?"

// Rule is a pure predicate over a candidate value paired with the
// reason reported when it fails.
type Rule struct {
	Reason string
	OK     func(string) bool
}

// Evaluate runs every rule and collects the reasons of the ones that
// failed. The value is valid only when all rules pass.
func Evaluate(value string, rules []Rule) (bool, []string) {
	var reasons []string
	for _, r := range rules {
		if !r.OK(value) {
			reasons = append(reasons, r.Reason)
		}
	}
	return len(reasons) == 0, reasons
}

var passwordRules = []Rule{
	{Reason: "must contain a lowercase letter", OK: containsFunc(unicode.IsLower)},
	{Reason: "must contain an uppercase letter", OK: containsFunc(unicode.IsUpper)},
	{Reason: "must contain a digit", OK: containsFunc(unicode.IsDigit)},
	{Reason: "must contain a special character", OK: func(s string) bool {
		return strings.ContainsAny(s, PasswordSpecials)
	}},
	{Reason: "contains a forbidden character", OK: func(s string) bool {
		for _, r := range s {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != ' ' &&
				!strings.ContainsRune(PasswordSpecials, r) {
				return false
			}
		}
		return true
	}},
	{Reason: "must be between 8 and 20 characters", OK: lengthBetween(8, 20)},
}

var operatorNameRules = []Rule{
	{Reason: "must be between 5 and 20 characters", OK: lengthBetween(5, 20)},
}

var emailRules = []Rule{
	{Reason: "must contain a single @", OK: func(s string) bool {
		return strings.Count(s, "@") == 1
	}},
	{Reason: "local part is invalid", OK: func(s string) bool {
		local, _, ok := strings.Cut(s, "@")
		return ok && localPartOK(local)
	}},
	{Reason: "domain is invalid", OK: func(s string) bool {
		_, domain, ok := strings.Cut(s, "@")
		return ok && domainOK(domain)
	}},
}

// ValidatePassword checks the candidate against the password rule set
// and returns the reasons of every failed rule.
func ValidatePassword(s string) (bool, []string) { return Evaluate(s, passwordRules) }

// ValidateOperatorName checks the candidate display name.
func ValidateOperatorName(s string) (bool, []string) { return Evaluate(s, operatorNameRules) }

// ValidateEmail checks structural validity of the address. No
// deliverability check happens here.
func ValidateEmail(s string) (bool, []string) { return Evaluate(s, emailRules) }

func containsFunc(f func(rune) bool) func(string) bool {
	return func(s string) bool { return strings.ContainsFunc(s, f) }
}

func lengthBetween(min, max int) func(string) bool {
	return func(s string) bool {
		n := len([]rune(s))
		return n >= min && n <= max
	}
}

func localPartOK(local string) bool {
	if local == "" || strings.Contains(local, "..") {
		return false
	}
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case strings.ContainsRune("._%+-", r):
		default:
			return false
		}
	}
	return true
}

func domainOK(domain string) bool {
	if !strings.Contains(domain, ".") || strings.Contains(domain, "..") {
		return false
	}
	if strings.HasPrefix(domain, "-") || strings.HasSuffix(domain, "-") {
		return false
	}
	labels := strings.Split(domain, ".")
	for _, label := range labels {
		if label == "" || strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return false
		}
		for _, r := range label {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			default:
				return false
			}
		}
	}
	tld := labels[len(labels)-1]
	if len(tld) < 2 {
		return false
	}
	for _, r := range tld {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
