package campaign

import (
	"strings"

	"feedreach/pkg/models"
)

// Template is one category's message template. "{query}" in the subject or
// body is substituted with the recipient's originating search query.
type Template struct {
	Subject string
	Body    string
}

// DefaultTemplates returns the built-in category templates
func DefaultTemplates() map[string]Template {
	return map[string]Template{
		"internship_searches": {
			Subject: "Software Engineering Intern Application",
			Body: `Hi,

I am writing to express my strong interest in the {query} role. As a
software engineer with hands-on full-stack experience, I am eager to
contribute to your team through an internship opportunity.

My attached resume provides details about my background and
qualifications. Thank you for considering my application.

Best regards`,
		},
		"entry_level_searches": {
			Subject: "Entry-Level Software Engineer Application",
			Body: `Hi,

I am writing to express my strong interest in the {query} position. With
hands-on experience building web applications, scalable APIs, and
backend systems, I am confident in my ability to contribute effectively
to your engineering team.

My attached resume provides more details on my background and
qualifications. Thank you for your time and consideration.

Best regards`,
		},
		"open_source_searches": {
			Subject: "Interested in Contributing to Your Open Source Project",
			Body: `Hi,

I came across your post regarding "{query}" and I'm very interested in
contributing to your open source project.

I'd love to learn more about how I can help. Please let me know if there
are any tasks or issues that would be a good fit.

Best regards`,
		},
	}
}

// Composer renders per-recipient message content from an immutable
// category → template mapping. An unknown category falls back to the
// default category's template rather than failing.
type Composer struct {
	templates       map[string]Template
	defaultCategory string
}

// NewComposer creates a composer. An empty template map uses the built-in
// defaults.
func NewComposer(templates map[string]Template, defaultCategory string) *Composer {
	if len(templates) == 0 {
		templates = DefaultTemplates()
	}
	return &Composer{
		templates:       templates,
		defaultCategory: defaultCategory,
	}
}

// Render produces the subject and body for one recipient
func (c *Composer) Render(r models.Recipient) (subject, body string) {
	tmpl, ok := c.templates[r.Category]
	if !ok {
		tmpl = c.templates[c.defaultCategory]
	}

	subject = strings.ReplaceAll(tmpl.Subject, "{query}", r.Query)
	body = strings.ReplaceAll(tmpl.Body, "{query}", r.Query)
	return subject, body
}
