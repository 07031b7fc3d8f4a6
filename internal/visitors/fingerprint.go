package visitors

import (
	"strconv"
	"strings"
	"unicode/utf16"
)

// FingerprintCookie is the cookie the edge middleware stores the
// fingerprint in.
const FingerprintCookie = "_afp"

// FingerprintInput holds the request attributes a fingerprint is built from.
type FingerprintInput struct {
	UserAgent      string
	Accept         string
	AcceptLanguage string
	ForwardedFor   string // raw X-Forwarded-For header
	RealIP         string // raw X-Real-IP header
}

// ClientIP returns the first X-Forwarded-For entry, then X-Real-IP, then
// "unknown".
func (in FingerprintInput) ClientIP() string {
	if in.ForwardedFor != "" {
		first, _, _ := strings.Cut(in.ForwardedFor, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(in.RealIP); ip != "" {
		return ip
	}
	return "unknown"
}

// Fingerprint derives the pseudonymous visitor identifier. It is stable for
// identical inputs and is not meant to resist collisions or forgery.
func Fingerprint(in FingerprintInput) string {
	data := strings.Join([]string{in.UserAgent, in.Accept, in.AcceptLanguage, in.ClientIP()}, "|")
	return HashString(data)
}

// HashString computes a 31-multiplier rolling hash over the UTF-16 code
// units of s, wrapped to signed 32 bits, and returns its absolute value in
// lowercase base 36.
func HashString(s string) string {
	var h int32
	for _, unit := range utf16.Encode([]rune(s)) {
		h = (h << 5) - h + int32(unit)
	}
	// widen before negating so math.MinInt32 keeps its magnitude
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return strconv.FormatInt(v, 36)
}
