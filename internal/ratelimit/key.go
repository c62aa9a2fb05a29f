package ratelimit

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// asciiFold strips combining marks so accented identifiers collapse to
// their ASCII skeleton (é -> e).
var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// LoginKey builds the throttle key for a login attempt: the lower-cased,
// transliterated email joined with the caller's network address. Two
// spellings of the same mailbox must map to the same counter.
func LoginKey(email, addr string) string {
	folded, _, err := transform.String(asciiFold, strings.ToLower(email))
	if err != nil {
		folded = strings.ToLower(email)
	}
	return "login|" + folded + "|" + addr
}

// APIKeyForUser builds the api-scope throttle key for an authenticated
// caller.
func APIKeyForUser(userID uint) string {
	return "api|user:" + strconv.FormatUint(uint64(userID), 10)
}

// APIKeyForAddr builds the api-scope throttle key for an anonymous
// caller.
func APIKeyForAddr(addr string) string {
	return "api|ip:" + addr
}
