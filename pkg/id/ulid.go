// Package id generates sortable identifiers for request and session IDs.
package id

import (
	"encoding/base32"
	"time"

	"github.com/google/uuid"
)

// Crockford's Base32 alphabet; ascending in ASCII so encoded IDs sort like their bytes.
const crockfordBase32 = "0123456789ABCDEFGHJKMNPQRSTVWXYZ"

var encoding = base32.NewEncoding(crockfordBase32).WithPadding(base32.NoPadding)

// NewULID returns a 26-character ID that sorts by creation time.
// The bytes are a UUIDv7: 48 bits of milliseconds followed by random bits.
func NewULID() string {
	u, err := uuid.NewV7()
	if err != nil {
		u = uuid.New()
	}
	return encoding.EncodeToString(u[:])
}

// Time extracts the creation time encoded in an ID produced by NewULID.
func Time(id string) (time.Time, bool) {
	b, err := encoding.DecodeString(id)
	if err != nil || len(b) != 16 {
		return time.Time{}, false
	}
	u, err := uuid.FromBytes(b)
	if err != nil || u.Version() != 7 {
		return time.Time{}, false
	}
	sec, nsec := u.Time().UnixTime()
	return time.Unix(sec, nsec), true
}
