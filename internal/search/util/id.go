package util

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
)

func HashString(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// DeriveExternalID builds a stable identity for sources without a native job
// id. Preference order: canonical URL, then title+company+location. The same
// listing fetched twice must always derive the same id.
func DeriveExternalID(rawURL, title, company, location string) string {
	if u := CanonicalizeURL(rawURL); u != "" {
		return HashString("url:" + u)
	}
	key := strings.ToLower(CleanText(title)) + "|" +
		strings.ToLower(CleanText(company)) + "|" +
		strings.ToLower(CleanText(location))
	return HashString("tcl:" + key)
}
