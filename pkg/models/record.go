package models

// Record is a single patient record keyed by configuration entry field name
type Record map[string]string

// Value returns the value stored for fieldName, or an empty string
func (r Record) Value(fieldName string) string {
	if r == nil {
		return ""
	}
	return r[fieldName]
}

// RecordPair is a candidate pair produced by blocking
type RecordPair struct {
	Left  Record `json:"left" validate:"required"`
	Right Record `json:"right" validate:"required"`
}
