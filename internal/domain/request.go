package domain

import "strings"

// MaxReferenceLinks is the largest number of reference links a
// RequestContext may carry.
const MaxReferenceLinks = 5

// RequestContext holds the user-supplied inputs that drive prompt
// construction. It is built per submission and never persisted.
type RequestContext struct {
	Subject         string   `json:"subject" validate:"notblank"`
	CurriculumLevel string   `json:"curriculum_level" validate:"notblank"`
	Institution     string   `json:"institution" validate:"notblank"`
	ReferenceLinks  []string `json:"reference_links,omitempty" validate:"max=5,dive,url"`
}

// Normalize returns a copy with blank reference links removed and the
// remaining links trimmed. The three text fields are kept as entered so
// they can be embedded verbatim.
func (rc RequestContext) Normalize() RequestContext {
	out := rc
	out.ReferenceLinks = nil
	for _, link := range rc.ReferenceLinks {
		if link = strings.TrimSpace(link); link != "" {
			out.ReferenceLinks = append(out.ReferenceLinks, link)
		}
	}
	return out
}
