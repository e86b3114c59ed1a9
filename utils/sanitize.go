package utils

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans HTML coming from the rich-text editor before it is stored.
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	policy := bluemonday.UGCPolicy()
	policy.RequireParseableURLs(true)
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoFollowOnLinks(true)
	return &Sanitizer{policy: policy}
}

func (s *Sanitizer) HTML(input string) string {
	return strings.TrimSpace(s.policy.Sanitize(input))
}
