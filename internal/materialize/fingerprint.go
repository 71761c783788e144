package materialize

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
)

// fingerprintDomain separates enumeration hashes from any other SHA-256
// use. The version suffix allows changing the encoding later.
const fingerprintDomain = "fixaccept/enumeration/v1"

// Fingerprint hashes the ordered enumeration of cases.
//
// Two lists have the same fingerprint exactly when they name the same
// (corpus, version, identifier, environment) tuples in the same order.
// Locations are left out so that checkouts in different directories
// compare equal.
func Fingerprint(cases []Case) string {
	h := sha256.New()
	h.Write([]byte(fingerprintDomain))
	h.Write([]byte{0x00})

	for _, c := range cases {
		writeField(h, string(c.Root.Corpus))
		writeField(h, c.Root.Version)
		writeField(h, c.Identifier)
		writeField(h, c.EnvironmentTag)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// writeField length-prefixes s so adjacent fields cannot run together.
func writeField(h hash.Hash, s string) {
	fmt.Fprintf(h, "%d:%s", len(s), s)
}
