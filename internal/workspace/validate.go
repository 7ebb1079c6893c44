// internal/workspace/validate.go
//
// Struct-level and cross-field rules on the assembled configuration.
//
// Context
// -------
// The schema pass (schema.go) checks the raw document's shape.  This
// pass runs after assembly and covers what a document schema cannot
// express: conditionally-required database fields, the s3 bucket
// requirement, identifier and version formats on the typed tree.  Rules
// are attached as `validate` struct tags plus the custom registrations
// below, and every failure is translated back into a document-path
// violation so the merged report reads uniformly.
//
// The tag-name hook maps struct fields to their `koanf` keys, which
// keeps reported paths identical to the paths a user sees in the file.
package workspace

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	schemaVersionRe = regexp.MustCompile(`^[0-9]+\.[0-9]+$`)
	sdkVersionRe    = regexp.MustCompile(`^[0-9]+\.[0-9]+\.[0-9x]+$`)
	sqlIdentifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	envVarNameRe    = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New()

	// Report paths in document terms, not Go field names.
	val.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return fld.Name
		}
		return tag
	})

	for name, re := range map[string]*regexp.Regexp{
		"schema_version": schemaVersionRe,
		"sdk_version":    sdkVersionRe,
		"sql_identifier": sqlIdentifierRe,
		"env_var_name":   envVarNameRe,
	} {
		re := re
		if err := val.RegisterValidation(name, func(fl validator.FieldLevel) bool {
			return re.MatchString(fl.Field().String())
		}); err != nil {
			panic(err)
		}
	}

	return val
}

// crossFieldViolations validates the assembled configuration and
// translates each failure into a report violation.
func crossFieldViolations(cfg *ResolvedConfig) []Violation {
	err := v.Struct(cfg)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		// Only reachable on a mis-declared tag, which is a programming
		// error rather than a document problem.
		panic(err)
	}

	out := make([]Violation, 0, len(verrs))
	for _, e := range verrs {
		out = append(out, Violation{
			Path:    namespaceToPath(e.Namespace()),
			Kind:    kindForTag(e.Tag()),
			Rule:    ruleForTag(e.Tag()),
			Value:   offendingValue(e),
			Message: messageForTag(e),
		})
	}
	return out
}

// namespaceToPath strips the root struct name from a validator
// namespace, leaving the dotted document path.
func namespaceToPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func kindForTag(tag string) Kind {
	switch tag {
	case "required", "required_if":
		return KindCrossField
	default:
		return KindValidation
	}
}

func ruleForTag(tag string) string {
	switch tag {
	case "required_if":
		return "required"
	case "datetime":
		return "date"
	case "min", "max":
		return "range"
	case "oneof":
		return "enum"
	default:
		return tag
	}
}

func offendingValue(e validator.FieldError) any {
	// Absent strings and zero ints carry no signal; report nil so the
	// message reads "missing" rather than quoting an empty value.
	switch val := e.Value().(type) {
	case string:
		if val == "" {
			return nil
		}
		return val
	case int:
		if val == 0 {
			return nil
		}
		return val
	default:
		return e.Value()
	}
}

func messageForTag(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "required field is missing"
	case "required_if":
		return "required when database sync is enabled"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "datetime":
		return "must be an ISO date (YYYY-MM-DD)"
	case "schema_version":
		return `must match "X.Y", e.g. "2.0"`
	case "sdk_version":
		return `must match "X.Y.Z" or "X.Y.x"`
	case "sql_identifier":
		return "must be a valid SQL identifier"
	case "env_var_name":
		return "must be an uppercase environment variable name"
	default:
		return "rule " + e.Tag() + " violated"
	}
}
