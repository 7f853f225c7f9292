package quotes

import (
	"strings"
	"testing"
	"time"
)

func TestGenerateQuoteNumberExplicitSequence(t *testing.T) {
	now := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	got := GenerateQuoteNumber(now, 42)
	if got != "COT-20260315-0042" {
		t.Fatalf("unexpected quote number: %s", got)
	}
}

func TestGenerateQuoteNumberSequenceWraps(t *testing.T) {
	now := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	got := GenerateQuoteNumber(now, 12345)
	if got != "COT-20260102-2345" {
		t.Fatalf("expected sequence modulo 10000, got %s", got)
	}
}

func TestGeneratedQuoteNumbersAlwaysValid(t *testing.T) {
	now := time.Date(2026, 8, 30, 23, 59, 59, 0, time.UTC)
	for i := 0; i < 100; i++ {
		got := GenerateQuoteNumber(now, -1)
		if !IsValidQuoteNumber(got) {
			t.Fatalf("generated number fails validation: %s", got)
		}
	}
}

func TestQuoteNumberRoundTrip(t *testing.T) {
	now := time.Date(2026, 7, 4, 12, 0, 0, 0, time.UTC)
	number := GenerateQuoteNumber(now, 7)

	date, ok := DateFromQuoteNumber(number)
	if !ok {
		t.Fatalf("expected date to parse from %s", number)
	}
	if date.Year() != 2026 || date.Month() != time.July || date.Day() != 4 {
		t.Fatalf("unexpected date: %v", date)
	}

	seq, ok := SequenceFromQuoteNumber(number)
	if !ok {
		t.Fatalf("expected sequence to parse from %s", number)
	}
	if seq != 7 {
		t.Fatalf("expected sequence 7, got %d", seq)
	}
}

func TestIsValidQuoteNumberRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		"COT-20260315-042",    // short sequence
		"COT-20260315-00042",  // long sequence
		"COT-2026031-0042",    // short date
		"COT-202603155-0042",  // long date
		"cot-20260315-0042",   // lowercase prefix
		"COT_20260315_0042",   // wrong separators
		"COT-20260315-004a",   // letter in sequence
		"COT-2026x315-0042",   // letter in date
		"PRE-20260315-0042",   // wrong prefix
		"COT-20260315-0042 ",  // trailing space
		" COT-20260315-0042",  // leading space
		"COT-20260315-0042-1", // trailing garbage
	}
	for _, c := range cases {
		if IsValidQuoteNumber(c) {
			t.Fatalf("expected %q to be invalid", c)
		}
	}
}

func TestExtractorsRejectInvalidInput(t *testing.T) {
	if _, ok := DateFromQuoteNumber("garbage"); ok {
		t.Fatalf("expected no date from garbage")
	}
	if _, ok := SequenceFromQuoteNumber("garbage"); ok {
		t.Fatalf("expected no sequence from garbage")
	}
	// Well-formed shape but impossible calendar date.
	if _, ok := DateFromQuoteNumber("COT-20261345-0001"); ok {
		t.Fatalf("expected impossible date to be rejected")
	}
}

func TestGenerateAccessToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		token := GenerateAccessToken()
		if len(token) != 32 {
			t.Fatalf("expected 32 chars, got %d (%s)", len(token), token)
		}
		if !IsValidAccessToken(token) {
			t.Fatalf("generated token fails validation: %s", token)
		}
		if seen[token] {
			t.Fatalf("duplicate token generated: %s", token)
		}
		seen[token] = true
	}
}

func TestIsValidAccessTokenRejectsMalformed(t *testing.T) {
	cases := []string{
		"",
		strings.Repeat("a", 31),
		strings.Repeat("a", 33),
		strings.Repeat("a", 16) + "-" + strings.Repeat("a", 15),
		strings.Repeat("a", 31) + "!",
		strings.Repeat("a", 31) + " ",
		strings.Repeat("á", 32),
	}
	for _, c := range cases {
		if IsValidAccessToken(c) {
			t.Fatalf("expected %q to be invalid", c)
		}
	}
	if !IsValidAccessToken(strings.Repeat("aZ9", 10) + "aa") {
		t.Fatalf("expected mixed alphanumeric 32-char token to be valid")
	}
}
