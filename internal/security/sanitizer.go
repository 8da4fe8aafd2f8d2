package security

import (
	"fmt"
	"regexp"
	"strings"

	"gc-portfolio/internal/config"
)

// Sanitizer replaces PII in text with placeholders before it leaves for an
// LLM provider. It is stateless; each call returns its own Redaction so
// concurrent conversations never see each other's values.
type Sanitizer struct {
	filters []piiFilter
	enabled bool
}

type piiFilter struct {
	name    string
	pattern *regexp.Regexp
	prefix  string
}

// Order matters: cards and SSNs are matched before the looser phone pattern.
var defaultFilters = []struct {
	name    string
	pattern string
	prefix  string
}{
	{"email", `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`, "EMAIL"},
	{"card", `\b\d{4}[-\s]?\d{4}[-\s]?\d{4}[-\s]?\d{4}\b`, "CARD"},
	{"ssn", `\b\d{3}-\d{2}-\d{4}\b`, "SSN"},
	{"ip", `\b\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}\b`, "IP"},
	{"phone", `(?:\+?\d{1,3}[-.\s]?)?\(?\d{2,4}\)?[-.\s]?\d{3,4}[-.\s]?\d{3,4}`, "PHONE"},
}

// NewSanitizer creates a PII sanitizer from config.
func NewSanitizer(cfg config.PIIFilterConfig) *Sanitizer {
	s := &Sanitizer{enabled: cfg.Enabled}

	enableMap := map[string]bool{
		"email": cfg.FilterEmails,
		"phone": cfg.FilterPhones,
		"card":  cfg.FilterCards,
		"ip":    cfg.FilterIPs,
		"ssn":   cfg.FilterSSN,
	}

	for _, f := range defaultFilters {
		if enableMap[f.name] {
			s.filters = append(s.filters, piiFilter{
				name:    f.name,
				pattern: regexp.MustCompile(f.pattern),
				prefix:  f.prefix,
			})
		}
	}

	return s
}

// Redaction remembers which placeholder stands for which value in one text.
type Redaction struct {
	mappings map[string]string // placeholder → original value
}

// Sanitize replaces PII in text with placeholders like [EMAIL_1]. Repeated
// values share a placeholder.
func (s *Sanitizer) Sanitize(text string) (string, *Redaction) {
	r := &Redaction{mappings: make(map[string]string)}
	if s == nil || !s.enabled || len(s.filters) == 0 {
		return text, r
	}

	byValue := make(map[string]string)
	counter := make(map[string]int)

	result := text
	for _, f := range s.filters {
		result = f.pattern.ReplaceAllStringFunc(result, func(match string) string {
			if placeholder, ok := byValue[match]; ok {
				return placeholder
			}
			counter[f.prefix]++
			placeholder := fmt.Sprintf("[%s_%d]", f.prefix, counter[f.prefix])
			byValue[match] = placeholder
			r.mappings[placeholder] = match
			return placeholder
		})
	}
	return result, r
}

// Restore replaces placeholders back with original values.
func (r *Redaction) Restore(text string) string {
	if r == nil || len(r.mappings) == 0 {
		return text
	}
	pairs := make([]string, 0, len(r.mappings)*2)
	for placeholder, original := range r.mappings {
		pairs = append(pairs, placeholder, original)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// Len returns the number of distinct values that were redacted.
func (r *Redaction) Len() int {
	if r == nil {
		return 0
	}
	return len(r.mappings)
}
