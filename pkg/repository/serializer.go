package repository

// FieldSet is a projection allow-list: the fields a caller is allowed
// to see (or, on create, to submit). An empty set means no masking.
type FieldSet []string

// Mask projects the record onto the field set. The persisted record is
// never mutated.
func (fs FieldSet) Mask(rec Record) Record {
	if len(fs) == 0 {
		return rec.Clone()
	}
	out := make(Record, len(fs))
	for _, f := range fs {
		if v, ok := rec[f]; ok {
			out[f] = v
		}
	}
	return out
}

// MaskAll applies the projection to every record in the slice.
func (fs FieldSet) MaskAll(recs []Record) []Record {
	out := make([]Record, len(recs))
	for i, r := range recs {
		out[i] = fs.Mask(r)
	}
	return out
}

// Contains reports membership; used by services to decide whether a
// submitted field survives projection.
func (fs FieldSet) Contains(field string) bool {
	for _, f := range fs {
		if f == field {
			return true
		}
	}
	return false
}

// Views pairs the two projections a caller role gets: one for single
// record responses, one for listings.
type Views struct {
	Detail FieldSet
	List   FieldSet
}

// Serializers is the full projection configuration for one resource:
// defaults plus per-role overrides.
type Serializers struct {
	Default Views
	PerRole map[string]Views
}

// For resolves the views for a role, falling back to the defaults when
// the role has no override.
func (s Serializers) For(role string) Views {
	if v, ok := s.PerRole[role]; ok {
		return v
	}
	return s.Default
}
