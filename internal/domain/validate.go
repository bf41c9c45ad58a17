package domain

import (
	"regexp"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// MinPasswordLength is the policy floor for new passwords.
const MinPasswordLength = 6

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidatePost checks the editable fields of a post before a save or
// submission. Returns a *ValidationError describing the first offending
// field, or nil.
func ValidatePost(p Post) error {
	err := validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.Required.Error("must not be empty")),
		validation.Field(&p.Author, validation.Required.Error("must not be empty")),
		validation.Field(&p.Date, validation.Required.Error("must not be empty"),
			validation.Match(dateRe).Error("must be YYYY-MM-DD")),
		validation.Field(&p.Status, validation.Required.Error("must not be empty"),
			validation.In(StatusPublished, StatusHidden, StatusDraft).Error("unknown status")),
	)
	return firstFieldError(err)
}

// ValidatePassword enforces the minimum length policy on a new password.
func ValidatePassword(pw string) error {
	err := validation.Validate(pw,
		validation.Required.Error("must not be empty"),
		validation.Length(MinPasswordLength, 0).Error("must be at least 6 characters"),
	)
	if err != nil {
		return &ValidationError{Field: "password", Reason: err.Error()}
	}
	return nil
}

// firstFieldError flattens ozzo's per-field error map into our taxonomy.
// The map iteration order is not stable, so pick the first field by name
// to keep messages deterministic.
func firstFieldError(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validation.Errors)
	if !ok {
		return &ValidationError{Field: "post", Reason: err.Error()}
	}
	fields := make([]string, 0, len(verrs))
	for f := range verrs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	f := fields[0]
	return &ValidationError{Field: f, Reason: verrs[f].Error()}
}
