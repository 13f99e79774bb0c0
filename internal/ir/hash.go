package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content IDs. The version suffix allows the canonical
// form to change without colliding with old IDs.
const (
	DomainRequest = "pql2/request/v1"
	DomainAST     = "pql2/ast/v1"
	DomainSuite   = "pql2/suite/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as lowercase hex.
// The null byte keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ContentID hashes the canonical JSON of v under domain.
func ContentID(domain string, v any) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("content id %s: %w", domain, err)
	}
	return hashWithDomain(domain, canonical), nil
}

// MustContentID is like ContentID but panics on error.
// Use only when v is built from known-good values.
func MustContentID(domain string, v any) string {
	id, err := ContentID(domain, v)
	if err != nil {
		panic(err)
	}
	return id
}
