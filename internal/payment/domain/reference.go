package domain

import "github.com/oklog/ulid/v2"

// NewReference returns a sortable settlement reference such as PAY-01J9Z3....
func NewReference(prefix string) string {
	return prefix + "-" + ulid.Make().String()
}
