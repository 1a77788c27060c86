package id

import (
	"crypto/rand"

	"github.com/oklog/ulid/v2"
)

// New generates a new ULID string. ULIDs are lexicographically sortable by
// creation time and carry no secret material, so they are safe to log and
// return to callers as issuance identifiers.
func New() string {
	return ulid.MustNew(ulid.Now(), rand.Reader).String()
}
