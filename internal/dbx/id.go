package dbx

import "github.com/google/uuid"

// ValidID reports whether id has the canonical uuid form every row id is
// created with. Postgres rejects anything else before running the query, so
// callers treat an invalid id as a missing row.
func ValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
