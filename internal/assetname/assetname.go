// Package assetname derives deterministic audio artifact names from source
// texts.
//
// A name combines the text's position in the sorted required set with a short
// content fingerprint: the index keeps directory listings in reading order,
// the fingerprint distinguishes texts that land on the same index across
// store generations. The same (text, index) pair always produces the same
// name, so repeated runs over unchanged inputs touch nothing.
package assetname

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// FingerprintLen is the number of hex digits of the text digest embedded in
// an artifact name.
const FingerprintLen = 6

// Derive returns the artifact filename for text at the given zero-based
// index, e.g. "0007_3b2f1a.mp3". The extension must include its leading dot.
func Derive(text string, index int, extension string) string {
	return fmt.Sprintf("%04d_%s%s", index, Fingerprint(text), extension)
}

// Fingerprint returns the first FingerprintLen hex digits of the MD5 digest
// of text. MD5 is used as a stable content hash, not for security.
func Fingerprint(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])[:FingerprintLen]
}
