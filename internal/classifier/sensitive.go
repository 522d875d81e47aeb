package classifier

import (
	"regexp"
	"strings"
)

// sensitiveKeywords are substrings whose presence marks OCR text as
// sensitive: authentication, financial and personal-identifier terms
// plus common form-field labels.
var sensitiveKeywords = []string{
	// Authentication
	"password",
	"passwd",
	"pwd",
	"login",
	"username",
	"pin",
	// Financial
	"credit card",
	"debit card",
	"bank account",
	"routing number",
	"ssn",
	"social security",
	// Personal identifiers
	"driver license",
	"passport",
	"id number",
	"employee id",
	// Common form fields
	"confirm password",
	"current password",
	"new password",
	// Credentials in URLs or code
	"token",
	"api key",
	"secret",
}

var (
	creditCardPattern = regexp.MustCompile(`\b\d{4}[\s-]?\d{4}[\s-]?\d{4}[\s-]?\d{4}\b`)
	ssnPattern        = regexp.MustCompile(`\b\d{3}[-.]?\d{2}[-.]?\d{4}\b`)
)

// ContainsSensitive reports whether text contains a sensitive keyword,
// a credit-card-shaped number or an SSN-shaped number. The first hit
// wins.
func ContainsSensitive(text string) bool {
	if text == "" {
		return false
	}

	lower := strings.ToLower(text)
	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}

	if creditCardPattern.MatchString(text) {
		return true
	}
	if ssnPattern.MatchString(text) {
		return true
	}

	return false
}
