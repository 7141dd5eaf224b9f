package buyer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Mode selects which rule set variant applies to a candidate record
type Mode int

const (
	// ModeCreate validates a full record from the intake form
	ModeCreate Mode = iota
	// ModeUpdate validates a partial record; absent fields are left untouched
	ModeUpdate
	// ModeImport validates a full record mapped from a CSV row
	ModeImport
)

// FieldError is a single field-level validation failure
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects every violation found for one candidate
type ValidationErrors []FieldError

// Error implements the error interface
func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Field + ": " + e.Message
	}
	return strings.Join(parts, "; ")
}

// Candidate is an untyped candidate record as received from a form, a PATCH
// body or a CSV row. A nil pointer means the field was absent; a pointer to
// an empty string means the caller explicitly cleared the field.
type Candidate struct {
	FullName     *string
	Email        *string
	Phone        *string
	City         *string
	PropertyType *string
	BHK          *string
	Purpose      *string
	BudgetMin    *int64
	BudgetMinSet bool
	BudgetMax    *int64
	BudgetMaxSet bool
	Timeline     *string
	Source       *string
	Status       *string
	Notes        *string
	Tags         []string
	TagsSet      bool
}

// Normalized is a validated candidate with typed fields and coerced nulls.
// Only fields reported by Has were present in the candidate; the zero values
// of the rest are meaningless in update mode.
type Normalized struct {
	FullName     string
	Phone        string
	City         City
	PropertyType PropertyType
	Purpose      Purpose
	Timeline     Timeline
	Source       Source
	Status       Status
	Email        *string
	BHK          *BHK
	BudgetMin    *int64
	BudgetMax    *int64
	Notes        *string
	Tags         []string

	present map[string]bool
}

// Has reports whether the named field was present in the candidate
func (n Normalized) Has(field string) bool {
	return n.present[field]
}

var phonePattern = regexp.MustCompile(`^[0-9+\-() ]+$`)

// emailPattern matches the RFC-shaped subset accepted for lead contacts
var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// fieldRule describes the shape check for one string field. The rule table is
// the single source of truth shared by the create, update and import paths.
// strictCheck runs only for import rows, which carry the stricter CSV rules.
type fieldRule struct {
	field       string
	required    bool
	check       func(value string) string
	strictCheck func(value string) string
}

func ruleFullName(v string) string {
	n := utf8.RuneCountInString(v)
	if n < 2 {
		return "must be at least 2 characters"
	}
	if n > 80 {
		return "cannot exceed 80 characters"
	}
	return ""
}

func ruleFullNameCharset(v string) string {
	for _, r := range v {
		if !unicode.IsLetter(r) && r != ' ' && r != '-' && r != '\'' {
			return "may only contain letters, spaces, hyphens and apostrophes"
		}
	}
	return ""
}

func rulePhone(v string) string {
	n := len(v)
	if n < 10 || n > 15 {
		return "must be 10 to 15 characters"
	}
	if !phonePattern.MatchString(v) {
		return "may only contain digits, spaces and +-()"
	}
	return ""
}

func ruleEmail(v string) string {
	if !emailPattern.MatchString(v) {
		return "is not a valid email address"
	}
	return ""
}

func ruleNotes(v string) string {
	if utf8.RuneCountInString(v) > 1000 {
		return "cannot exceed 1000 characters"
	}
	return ""
}

func enumRule[T ~string](values []T) func(string) string {
	allowed := make([]string, len(values))
	for i, v := range values {
		allowed[i] = string(v)
	}
	set := make(map[string]bool, len(allowed))
	for _, v := range allowed {
		set[v] = true
	}
	return func(v string) string {
		if !set[v] {
			return fmt.Sprintf("must be one of %s", strings.Join(allowed, ", "))
		}
		return ""
	}
}

var fieldRules = []fieldRule{
	{field: "fullName", required: true, check: ruleFullName, strictCheck: ruleFullNameCharset},
	{field: "phone", required: true, check: rulePhone},
	{field: "city", required: true, check: enumRule(Cities)},
	{field: "propertyType", required: true, check: enumRule(PropertyTypes)},
	{field: "purpose", required: true, check: enumRule(Purposes)},
	{field: "timeline", required: true, check: enumRule(Timelines)},
	{field: "source", required: true, check: enumRule(Sources)},
	{field: "status", required: false, check: enumRule(Statuses)},
	{field: "email", required: false, check: ruleEmail},
	{field: "bhk", required: false, check: enumRule(BHKs)},
	{field: "notes", required: false, check: ruleNotes},
}

func (c *Candidate) fieldValue(name string) *string {
	switch name {
	case "fullName":
		return c.FullName
	case "phone":
		return c.Phone
	case "city":
		return c.City
	case "propertyType":
		return c.PropertyType
	case "purpose":
		return c.Purpose
	case "timeline":
		return c.Timeline
	case "source":
		return c.Source
	case "status":
		return c.Status
	case "email":
		return c.Email
	case "bhk":
		return c.BHK
	case "notes":
		return c.Notes
	}
	return nil
}

// nullable fields for which an explicit empty string is coerced to null
// rather than validated (clearing, not setting)
var nullableFields = map[string]bool{"email": true, "bhk": true, "notes": true}

// Validate checks a candidate against the shared rule set and returns a
// normalized record or the collected violations. In update mode, current is
// the stored record the partial candidate will be merged into; cross-field
// rules run against the merged values. Field shape failures suppress the
// cross-field pass, matching the order the rules are specified in.
func Validate(c Candidate, mode Mode, current *Buyer) (Normalized, ValidationErrors) {
	var errs ValidationErrors
	n := Normalized{present: make(map[string]bool)}

	for _, rule := range fieldRules {
		val := c.fieldValue(rule.field)
		if val == nil {
			if rule.required && mode != ModeUpdate {
				errs = append(errs, FieldError{Field: rule.field, Message: "is required"})
			}
			continue
		}
		n.present[rule.field] = true
		trimmed := strings.TrimSpace(*val)
		if trimmed == "" {
			if nullableFields[rule.field] {
				continue // explicit clear, normalized to null below
			}
			if rule.required {
				errs = append(errs, FieldError{Field: rule.field, Message: "is required"})
			}
			continue
		}
		if msg := rule.check(trimmed); msg != "" {
			errs = append(errs, FieldError{Field: rule.field, Message: msg})
			continue
		}
		if mode == ModeImport && rule.strictCheck != nil {
			if msg := rule.strictCheck(trimmed); msg != "" {
				errs = append(errs, FieldError{Field: rule.field, Message: msg})
				continue
			}
		}
		n.setField(rule.field, trimmed)
	}

	if c.BudgetMinSet {
		n.present["budgetMin"] = true
		if c.BudgetMin != nil {
			if *c.BudgetMin < 0 {
				errs = append(errs, FieldError{Field: "budgetMin", Message: "cannot be negative"})
			} else {
				v := *c.BudgetMin
				n.BudgetMin = &v
			}
		}
	}
	if c.BudgetMaxSet {
		n.present["budgetMax"] = true
		if c.BudgetMax != nil {
			if *c.BudgetMax < 0 {
				errs = append(errs, FieldError{Field: "budgetMax", Message: "cannot be negative"})
			} else {
				v := *c.BudgetMax
				n.BudgetMax = &v
			}
		}
	}

	if c.TagsSet {
		n.present["tags"] = true
		tags := make([]string, 0, len(c.Tags))
		for _, t := range c.Tags {
			t = strings.TrimSpace(t)
			if t == "" {
				continue
			}
			if utf8.RuneCountInString(t) > 50 {
				errs = append(errs, FieldError{Field: "tags", Message: "each tag cannot exceed 50 characters"})
				continue
			}
			tags = append(tags, t)
		}
		n.Tags = dedupeTags(tags)
	}

	// Shape failures precede the cross-field rules.
	if len(errs) > 0 {
		return Normalized{}, errs
	}

	if crossErrs := n.crossFieldCheck(mode, current); len(crossErrs) > 0 {
		return Normalized{}, crossErrs
	}

	return n, nil
}

func (n *Normalized) setField(field, value string) {
	switch field {
	case "fullName":
		n.FullName = value
	case "phone":
		n.Phone = value
	case "city":
		n.City = City(value)
	case "propertyType":
		n.PropertyType = PropertyType(value)
	case "purpose":
		n.Purpose = Purpose(value)
	case "timeline":
		n.Timeline = Timeline(value)
	case "source":
		n.Source = Source(value)
	case "status":
		n.Status = Status(value)
	case "email":
		v := value
		n.Email = &v
	case "bhk":
		v := BHK(value)
		n.BHK = &v
	case "notes":
		v := value
		n.Notes = &v
	}
}

// crossFieldCheck applies rule A (BHK requirement) and rule B (budget
// ordering) against the values the record will hold after the candidate is
// applied, so a partial update cannot leave the record in a violating state.
func (n *Normalized) crossFieldCheck(mode Mode, current *Buyer) ValidationErrors {
	var errs ValidationErrors

	propertyType := n.PropertyType
	if !n.Has("propertyType") && current != nil {
		propertyType = current.PropertyType
	}
	bhk := n.BHK
	if !n.Has("bhk") && current != nil {
		bhk = current.BHK
	}
	if propertyType.IsResidential() {
		if bhk == nil {
			errs = append(errs, FieldError{Field: "bhk", Message: "is required for Apartment and Villa properties"})
		}
	} else {
		// Non-residential property types never carry a bedroom count,
		// regardless of input.
		n.BHK = nil
		if propertyType != "" {
			n.present["bhk"] = true
		}
	}

	budgetMin := n.BudgetMin
	if !n.Has("budgetMin") && current != nil {
		budgetMin = current.BudgetMin
	}
	budgetMax := n.BudgetMax
	if !n.Has("budgetMax") && current != nil {
		budgetMax = current.BudgetMax
	}
	if budgetMin != nil && budgetMax != nil && *budgetMax < *budgetMin {
		errs = append(errs, FieldError{Field: "budgetMax", Message: "must be greater than or equal to budgetMin"})
	}

	return errs
}

func dedupeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
