// internal/app/system/inputval/validators.go
package inputval

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// FieldError is one failed rule on one field.
type FieldError struct {
	Field   string
	Message string
}

// Result collects the errors from one Validate pass.
type Result struct {
	Errors []FieldError
}

func (r *Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first error message, or "".
func (r *Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// All joins every error message with "; ".
func (r *Result) All() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Message)
	}
	return strings.Join(msgs, "; ")
}

func (r *Result) add(field, message string) {
	r.Errors = append(r.Errors, FieldError{Field: field, Message: message})
}

// Validate runs the `validate` tag rules on a struct's string fields.
// Supported rules: required, max=N, email, httpurl, objectid, teamcode.
// The `label` tag names the field in error messages.
func Validate(input any) *Result {
	result := &Result{}

	v := reflect.ValueOf(input)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return result
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		rules := field.Tag.Get("validate")
		if rules == "" || field.Type.Kind() != reflect.String {
			continue
		}
		label := field.Tag.Get("label")
		if label == "" {
			label = field.Name
		}
		value := v.Field(i).String()

		for _, rule := range strings.Split(rules, ",") {
			if msg := checkRule(rule, value, label); msg != "" {
				result.add(field.Name, msg)
				break // first failing rule per field
			}
		}
	}
	return result
}

func checkRule(rule, value, label string) string {
	// Optional fields: only "required" fires on an empty value.
	if strings.TrimSpace(value) == "" && rule != "required" {
		return ""
	}

	switch {
	case rule == "required":
		if strings.TrimSpace(value) == "" {
			return fmt.Sprintf("%s is required.", label)
		}
	case strings.HasPrefix(rule, "max="):
		n, err := strconv.Atoi(strings.TrimPrefix(rule, "max="))
		if err == nil && len(value) > n {
			return fmt.Sprintf("%s must be at most %d characters.", label, n)
		}
	case rule == "email":
		if !IsValidEmail(value) {
			return "A valid email address is required."
		}
	case rule == "httpurl":
		if !IsValidHTTPURL(value) {
			return fmt.Sprintf("%s must be a valid http(s) URL.", label)
		}
	case rule == "objectid":
		if !IsValidObjectID(value) {
			return fmt.Sprintf("%s is not a valid ID.", label)
		}
	case rule == "teamcode":
		if !IsValidTeamCode(value) {
			return fmt.Sprintf("%s is not a valid team code.", label)
		}
	}
	return ""
}
