package validation

// Errors is the field-keyed error report. It accumulates every failing
// message per field; callers needing a single message per field take
// the last one.
type Errors map[string][]string

// Add appends a message to the field's error list.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Last returns the most recent message recorded for the field, or an
// empty string.
func (e Errors) Last(field string) string {
	msgs := e[field]
	if len(msgs) == 0 {
		return ""
	}
	return msgs[len(msgs)-1]
}

// Empty reports whether no field failed.
func (e Errors) Empty() bool {
	return len(e) == 0
}
