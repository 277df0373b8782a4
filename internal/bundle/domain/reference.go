package domain

import (
	"crypto/rand"
	"time"
)

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewReference renders prefix + YYMMDDHHMMSS + four random characters, e.g. BDL250310080000K7QZ.
func NewReference(prefix string, now time.Time) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = referenceAlphabet[int(b)%len(referenceAlphabet)]
	}
	return prefix + now.UTC().Format("060102150405") + string(buf), nil
}
