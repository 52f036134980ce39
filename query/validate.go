package query

import (
	"fmt"
	"strings"

	"zebis-scraper/models"
)

// Field names a search parameter
type Field string

const (
	FieldTopic   Field = "topic"
	FieldGrade   Field = "grade"
	FieldSubject Field = "subject"
)

// ValidationError reports missing or unknown search parameters.
// Either Missing is set, or Invalid together with Value and Allowed.
type ValidationError struct {
	Missing []Field
	Invalid Field
	Value   string
	Allowed []string
}

func (e *ValidationError) Error() string {
	if len(e.Missing) > 0 {
		names := make([]string, len(e.Missing))
		for i, f := range e.Missing {
			names[i] = string(f)
		}
		return fmt.Sprintf("missing required parameter(s): %s", strings.Join(names, ", "))
	}
	return fmt.Sprintf("invalid %s %q, allowed: %s", e.Invalid, e.Value, strings.Join(e.Allowed, ", "))
}

// Validate checks raw parameters against the catalog and returns the canonical query.
// Subject aliases resolve to their canonical slug.
func (c *Catalog) Validate(topic, grade, subject string) (models.SearchQuery, error) {
	topic = strings.TrimSpace(topic)
	grade = strings.TrimSpace(grade)
	subject = strings.TrimSpace(subject)

	var missing []Field
	if topic == "" {
		missing = append(missing, FieldTopic)
	}
	if grade == "" {
		missing = append(missing, FieldGrade)
	}
	if subject == "" {
		missing = append(missing, FieldSubject)
	}
	if len(missing) > 0 {
		return models.SearchQuery{}, &ValidationError{Missing: missing}
	}

	g, ok := c.Grade(grade)
	if !ok {
		return models.SearchQuery{}, &ValidationError{Invalid: FieldGrade, Value: grade, Allowed: c.GradeSlugs()}
	}
	s, ok := c.Subject(subject)
	if !ok {
		return models.SearchQuery{}, &ValidationError{Invalid: FieldSubject, Value: subject, Allowed: c.SubjectSlugs()}
	}

	return models.SearchQuery{Topic: topic, Grade: g.Slug, Subject: s.Slug}, nil
}
