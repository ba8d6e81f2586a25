package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

func newID() string {
	bytes := make([]byte, 16)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// documentKey maps an owner's document name onto a flat file store key.
func documentKey(ownerID, name string) string {
	sum := sha256.Sum256([]byte(ownerID + "\x00" + name))
	return "doc-" + hex.EncodeToString(sum[:])
}
