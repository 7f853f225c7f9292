package quotes

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	quoteNumberPrefix = "COT"
	accessTokenLength = 32
	tokenAlphabet     = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

var quoteNumberRegex = regexp.MustCompile(`^COT-\d{8}-\d{4}$`)

// GenerateQuoteNumber builds COT-YYYYMMDD-NNNN for the given time. A
// non-negative explicit sequence always wins and is taken modulo 10000. With
// seq < 0 the sequence mixes the current millisecond with random bits, which
// is best-effort unique; the storage layer's unique index is the real guard.
func GenerateQuoteNumber(now time.Time, seq int) string {
	if seq < 0 {
		ms := now.UnixMilli() % 10000
		seq = int((ms + int64(randomUint16())) % 10000)
	}
	return fmt.Sprintf("%s-%s-%04d", quoteNumberPrefix, now.Format("20060102"), seq%10000)
}

func IsValidQuoteNumber(s string) bool {
	return quoteNumberRegex.MatchString(s)
}

// DateFromQuoteNumber parses the date component of a valid quote number. The
// second return is false for malformed input or an impossible calendar date.
func DateFromQuoteNumber(s string) (time.Time, bool) {
	if !IsValidQuoteNumber(s) {
		return time.Time{}, false
	}
	date, err := time.Parse("20060102", s[4:12])
	if err != nil {
		return time.Time{}, false
	}
	return date, true
}

func SequenceFromQuoteNumber(s string) (int, bool) {
	if !IsValidQuoteNumber(s) {
		return 0, false
	}
	seq, err := strconv.Atoi(s[13:])
	if err != nil {
		return 0, false
	}
	return seq, true
}

// GenerateAccessToken returns 32 alphanumeric characters from crypto/rand.
// The token is the only credential protecting a quote's tracking view, so a
// CSPRNG is non-negotiable here.
func GenerateAccessToken() string {
	buf := make([]byte, accessTokenLength)
	if _, err := rand.Read(buf); err != nil {
		panic(fmt.Sprintf("access token entropy unavailable: %v", err))
	}
	out := make([]byte, accessTokenLength)
	for i, b := range buf {
		out[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(out)
}

func IsValidAccessToken(s string) bool {
	if len(s) != accessTokenLength {
		return false
	}
	for _, c := range s {
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

func randomUint16() uint16 {
	var buf [2]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return uint16(time.Now().UnixNano())
	}
	return binary.BigEndian.Uint16(buf[:])
}
