// Package validation implements the declarative field validator: every
// resource declares an ordered rule list per field, the engine runs the
// rules in order and accumulates a field-keyed error report.
package validation

import (
	"fmt"
	"strings"
)

// Kind identifies a built-in rule. The set is closed: an unhandled
// kind fails the field with a "validation method does not exist"
// error instead of passing silently.
type Kind int

const (
	KindUnknown Kind = iota
	KindRequired
	KindRequiredIf
	KindLength
	KindMaxLength
	KindMinLength
	KindMax
	KindMin
	KindUnique
	KindNumber
	KindInteger
	KindFloat
	KindDouble
	KindString
	KindStringArray
	KindArray
	KindBoolean
	KindPhone
	KindEmail
	KindUUID
	KindURL
	KindEnum
)

var kindNames = map[Kind]string{
	KindRequired:    "required",
	KindRequiredIf:  "requiredIf",
	KindLength:      "length",
	KindMaxLength:   "maxLength",
	KindMinLength:   "minLength",
	KindMax:         "max",
	KindMin:         "min",
	KindUnique:      "unique",
	KindNumber:      "number",
	KindInteger:     "integer",
	KindFloat:       "float",
	KindDouble:      "double",
	KindString:      "string",
	KindStringArray: "stringArray",
	KindArray:       "array",
	KindBoolean:     "boolean",
	KindPhone:       "phone",
	KindEmail:       "email",
	KindUUID:        "uuid",
	KindURL:         "url",
	KindEnum:        "enum",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Rule is one check in a field's ordered rule list.
type Rule struct {
	Kind Kind
	// Limit is the bound for length/min/max style rules.
	Limit float64
	// Field is the companion field for requiredIf or the query key
	// for unique.
	Field string
	// Negate inverts the requiredIf companion condition.
	Negate bool
	// Allowed is the value list for enum.
	Allowed []string
}

// Required fails when the field is absent or null.
func Required() Rule { return Rule{Kind: KindRequired} }

// RequiredIf fails when the field is absent while the companion
// condition holds. A leading "!" negates the condition: "coupon"
// requires the field when coupon is present, "!coupon" when it is
// absent.
func RequiredIf(companion string) Rule {
	negate := strings.HasPrefix(companion, "!")
	return Rule{Kind: KindRequiredIf, Field: strings.TrimPrefix(companion, "!"), Negate: negate}
}

// Length fails when a string value is longer than n.
func Length(n int) Rule { return Rule{Kind: KindLength, Limit: float64(n)} }

// MaxLength fails when a string value is longer than n.
func MaxLength(n int) Rule { return Rule{Kind: KindMaxLength, Limit: float64(n)} }

// MinLength fails when a string value is shorter than n.
func MinLength(n int) Rule { return Rule{Kind: KindMinLength, Limit: float64(n)} }

// Max fails when a numeric value is above n.
func Max(n float64) Rule { return Rule{Kind: KindMax, Limit: n} }

// Min fails when a numeric value is below n.
func Min(n float64) Rule { return Rule{Kind: KindMin, Limit: n} }

// Unique fails when a record already matches the field's uniqueness
// query. key names the queried store field; empty means the field's
// own name.
func Unique(key string) Rule { return Rule{Kind: KindUnique, Field: key} }

// Number fails when the value is present and not numeric.
func Number() Rule { return Rule{Kind: KindNumber} }

// Integer fails when the value is present and not a whole number.
func Integer() Rule { return Rule{Kind: KindInteger} }

// Float fails when the value is present and not numeric.
func Float() Rule { return Rule{Kind: KindFloat} }

// Double fails when the value is present and not a number with a
// fractional part.
func Double() Rule { return Rule{Kind: KindDouble} }

// String fails when the value is present and not a string.
func String() Rule { return Rule{Kind: KindString} }

// StringArray fails when the value is present and not an array of
// strings.
func StringArray() Rule { return Rule{Kind: KindStringArray} }

// Array fails when the value is present and not an array.
func Array() Rule { return Rule{Kind: KindArray} }

// Boolean fails when the value is present and not a boolean.
func Boolean() Rule { return Rule{Kind: KindBoolean} }

// Phone fails when the value does not match the regional phone
// pattern.
func Phone() Rule { return Rule{Kind: KindPhone} }

// Email fails when the value does not look like an email address.
func Email() Rule { return Rule{Kind: KindEmail} }

// UUID fails when the value is not a canonical UUID string.
func UUID() Rule { return Rule{Kind: KindUUID} }

// URL fails when the value is not parseable as an absolute URL.
func URL() Rule { return Rule{Kind: KindURL} }

// Enum fails when the value is not in the allowed list.
func Enum(allowed ...string) Rule { return Rule{Kind: KindEnum, Allowed: allowed} }

// defaultMessage renders the fallback failure message for a rule,
// humanizing snake_case field names.
func defaultMessage(field string, rule Rule) string {
	name := strings.Replace(field, "_", " ", 1)
	switch rule.Kind {
	case KindRequired:
		return fmt.Sprintf("%s is required", name)
	case KindRequiredIf:
		return fmt.Sprintf("%s is required", name)
	case KindLength, KindMaxLength:
		return fmt.Sprintf("%s must not exceed %d characters", name, int(rule.Limit))
	case KindMinLength:
		return fmt.Sprintf("%s must be at least %d characters", name, int(rule.Limit))
	case KindMax:
		return fmt.Sprintf("%s must not be greater than %v", name, rule.Limit)
	case KindMin:
		return fmt.Sprintf("%s must not be less than %v", name, rule.Limit)
	case KindUnique:
		return fmt.Sprintf("%s already exists", name)
	case KindNumber:
		return fmt.Sprintf("%s must be a number", name)
	case KindInteger:
		return fmt.Sprintf("%s must be an integer", name)
	case KindFloat:
		return fmt.Sprintf("%s must be a number", name)
	case KindDouble:
		return fmt.Sprintf("%s must be a decimal number", name)
	case KindString:
		return fmt.Sprintf("%s must be a string", name)
	case KindStringArray:
		return fmt.Sprintf("%s must be an array of strings", name)
	case KindArray:
		return fmt.Sprintf("%s must be an array", name)
	case KindBoolean:
		return fmt.Sprintf("%s must be a boolean", name)
	case KindPhone:
		return fmt.Sprintf("%s must be a valid phone number", name)
	case KindEmail:
		return fmt.Sprintf("%s must be a valid email address", name)
	case KindUUID:
		return fmt.Sprintf("%s must be a valid UUID", name)
	case KindURL:
		return fmt.Sprintf("%s must be a valid URL", name)
	case KindEnum:
		return fmt.Sprintf("%s must be one of: %s", name, strings.Join(rule.Allowed, ", "))
	default:
		return "validation method does not exist"
	}
}
