package rescache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const maxStemLength = 120

// IdentityFor returns the cache identity for a resource: its ETag when
// known, otherwise fallbackName. Entries keyed by a fallback name are stable
// across runs but never invalidate when the content changes.
func IdentityFor(etag, fallbackName string) string {
	if etag = strings.TrimSpace(etag); etag != "" {
		return etag
	}
	return strings.TrimSpace(fallbackName)
}

// fileStem maps an identity to a filesystem-safe, deterministic file stem.
// Identities made only of safe characters are used verbatim; anything else is
// escaped and suffixed with a digest so distinct identities never collide.
func fileStem(identity string) string {
	var b strings.Builder
	b.Grow(len(identity))
	clean := true
	for _, r := range identity {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
			clean = false
		}
	}
	stem := b.String()
	if strings.Trim(stem, ".") == "" {
		clean = false
	}
	if clean && len(stem) <= maxStemLength {
		return stem
	}
	if len(stem) > maxStemLength {
		stem = stem[:maxStemLength]
	}
	sum := sha256.Sum256([]byte(identity))
	return stem + "-" + hex.EncodeToString(sum[:4])
}
