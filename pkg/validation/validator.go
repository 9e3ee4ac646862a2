package validation

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"regexp"

	"github.com/merchantry/merchantry/pkg/apperror"
)

var (
	phonePattern = regexp.MustCompile(`^(?:\+?88)?01[3-9]\d{8}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	uuidPattern  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
)

// Finder resolves uniqueness queries against the backing store.
type Finder interface {
	Find(ctx context.Context, filter map[string]interface{}) ([]map[string]interface{}, error)
}

// Field is the declarative configuration for one input field.
type Field struct {
	Name  string
	Rules []Rule
	// Messages overrides the default failure message per rule kind.
	Messages map[Kind]string
	// UniqueQuery replaces the derived {name: value} uniqueness query.
	// The literal "@" value is substituted with the submitted value.
	UniqueQuery map[string]interface{}
	// UniqueFilter narrows the uniqueness matches; a match survives
	// when the filter returns true.
	UniqueFilter func(record map[string]interface{}) bool
}

// Schema is the ordered field configuration; declaration order is
// evaluation order.
type Schema []Field

// Validator evaluates a value bag against a schema.
type Validator struct {
	schema Schema
	finder Finder
}

// New builds a validator. finder may be nil when the schema has no
// unique rules.
func New(schema Schema, finder Finder) *Validator {
	return &Validator{schema: schema, finder: finder}
}

// Validate runs every field's rule list in order, short-circuiting a
// field on its first failure. On success it returns the input
// projected onto the configured fields; on failure an error carrying
// the accumulated field → messages map.
func (v *Validator) Validate(ctx context.Context, values map[string]interface{}) (map[string]interface{}, error) {
	errs := Errors{}

	for _, field := range v.schema {
		for _, rule := range field.Rules {
			ok, err := v.check(ctx, field, rule, values)
			if err != nil {
				return nil, err
			}
			if !ok {
				errs.Add(field.Name, v.message(field, rule))
				break
			}
		}
	}

	if !errs.Empty() {
		return nil, apperror.Validation(errs)
	}

	out := make(map[string]interface{})
	for _, field := range v.schema {
		if fieldExists(values, field.Name) {
			out[field.Name] = values[field.Name]
		}
	}
	return out, nil
}

func (v *Validator) message(field Field, rule Rule) string {
	if msg, ok := field.Messages[rule.Kind]; ok {
		return msg
	}
	return defaultMessage(field.Name, rule)
}

// check returns false when the rule fails. The error return is for
// store failures during uniqueness checks only.
func (v *Validator) check(ctx context.Context, field Field, rule Rule, values map[string]interface{}) (bool, error) {
	value := values[field.Name]
	exists := fieldExists(values, field.Name)

	// Every rule except the required family is vacuously valid on an
	// absent field.
	if !exists && rule.Kind != KindRequired && rule.Kind != KindRequiredIf {
		return true, nil
	}

	switch rule.Kind {
	case KindRequired:
		return exists, nil
	case KindRequiredIf:
		companionPresent := fieldExists(values, rule.Field)
		conditionHolds := companionPresent != rule.Negate
		if conditionHolds && !exists {
			return false, nil
		}
		return true, nil
	case KindLength, KindMaxLength:
		if s, ok := value.(string); ok {
			return len([]rune(s)) <= int(rule.Limit), nil
		}
		return true, nil
	case KindMinLength:
		if s, ok := value.(string); ok {
			return len([]rune(s)) >= int(rule.Limit), nil
		}
		return true, nil
	case KindMax:
		if n, ok := numericValue(value); ok {
			return n <= rule.Limit, nil
		}
		return true, nil
	case KindMin:
		if n, ok := numericValue(value); ok {
			return n >= rule.Limit, nil
		}
		return true, nil
	case KindUnique:
		return v.checkUnique(ctx, field, rule, value)
	case KindNumber, KindFloat:
		_, ok := numericValue(value)
		return ok, nil
	case KindInteger:
		n, ok := numericValue(value)
		return ok && n == math.Trunc(n), nil
	case KindDouble:
		n, ok := numericValue(value)
		return ok && n != math.Trunc(n), nil
	case KindString:
		_, ok := value.(string)
		return ok, nil
	case KindStringArray:
		return isStringArray(value), nil
	case KindArray:
		return isArray(value), nil
	case KindBoolean:
		_, ok := value.(bool)
		return ok, nil
	case KindPhone:
		s, ok := value.(string)
		return ok && phonePattern.MatchString(s), nil
	case KindEmail:
		s, ok := value.(string)
		return ok && emailPattern.MatchString(s), nil
	case KindUUID:
		s, ok := value.(string)
		return ok && uuidPattern.MatchString(s), nil
	case KindURL:
		s, ok := value.(string)
		if !ok {
			return false, nil
		}
		u, err := url.ParseRequestURI(s)
		return err == nil && u.Scheme != "" && u.Host != "", nil
	case KindEnum:
		s := fmt.Sprintf("%v", value)
		for _, allowed := range rule.Allowed {
			if s == allowed {
				return true, nil
			}
		}
		return false, nil
	default:
		// Closed rule set: anything unhandled fails the field.
		return false, nil
	}
}

func (v *Validator) checkUnique(ctx context.Context, field Field, rule Rule, value interface{}) (bool, error) {
	if v.finder == nil {
		return false, apperror.Internal("uniqueness check is not configured", nil)
	}

	query := map[string]interface{}{}
	switch {
	case len(field.UniqueQuery) > 0:
		for k, qv := range field.UniqueQuery {
			if qv == "@" {
				query[k] = value
			} else {
				query[k] = qv
			}
		}
	case rule.Field != "":
		query[rule.Field] = value
	default:
		query[field.Name] = value
	}

	matches, err := v.finder.Find(ctx, query)
	if err != nil {
		return false, apperror.Internal("uniqueness check failed", err)
	}
	if field.UniqueFilter != nil {
		kept := matches[:0]
		for _, m := range matches {
			if field.UniqueFilter(m) {
				kept = append(kept, m)
			}
		}
		matches = kept
	}
	return len(matches) == 0, nil
}

// fieldExists reports whether the key is present with a non-null
// value. Empty strings and zeroes count as present.
func fieldExists(values map[string]interface{}, name string) bool {
	v, ok := values[name]
	return ok && v != nil
}

func numericValue(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func isArray(v interface{}) bool {
	if v == nil {
		return false
	}
	kind := reflect.TypeOf(v).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

func isStringArray(v interface{}) bool {
	switch vv := v.(type) {
	case []string:
		return true
	case []interface{}:
		for _, e := range vv {
			if _, ok := e.(string); !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}
