// Package uuid generates and checks the identifiers the ledger service hands
// out for users and transactions.
package uuid

import (
	googleuuid "github.com/google/uuid"
)

// New returns a UUIDv7. The leading 48 bits are the Unix time in
// milliseconds, so ids sort in creation order.
func New() string {
	id, err := googleuuid.NewV7()
	if err != nil {
		return googleuuid.New().String()
	}
	return id.String()
}

// IsValid reports whether s is a well-formed UUID.
func IsValid(s string) bool {
	_, err := googleuuid.Parse(s)
	return err == nil
}
