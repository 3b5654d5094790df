package helpers

import (
	"math/big"
	"testing"
)

func TestShortenAddr(t *testing.T) {
	full := "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	if got := ShortenAddr(full); got != "0xA0b8…eB48" {
		t.Errorf("ShortenAddr = %q", got)
	}
	if got := ShortenAddr("0xabc"); got != "0xabc" {
		t.Errorf("short input changed: %q", got)
	}
}

func TestIsValidEthAddress(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", true},
		{"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", true},
		{"A0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", false},
		{"0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB4", false},
		{"0xZZb86991c6218b36c1d19D4a2e9Eb0cE3606eB48", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsValidEthAddress(c.in); got != c.want {
			t.Errorf("IsValidEthAddress(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestFormatUnits(t *testing.T) {
	cases := []struct {
		raw      *big.Int
		decimals uint8
		want     string
	}{
		{big.NewInt(1_500_000), 6, "1.5"},
		{big.NewInt(1_000_000), 6, "1"},
		{big.NewInt(0), 18, "0"},
		{nil, 18, "0"},
		{big.NewInt(123), 6, "0.000123"},
	}
	for _, c := range cases {
		if got := FormatUnits(c.raw, c.decimals); got != c.want {
			t.Errorf("FormatUnits(%v, %d) = %q, want %q", c.raw, c.decimals, got, c.want)
		}
	}
}

func TestParseUnits(t *testing.T) {
	raw, err := ParseUnits("1.5", 6)
	if err != nil {
		t.Fatal(err)
	}
	if raw.Int64() != 1_500_000 {
		t.Errorf("ParseUnits(1.5, 6) = %d", raw.Int64())
	}

	if _, err := ParseUnits("not a number", 6); err == nil {
		t.Error("garbage accepted")
	}
	if _, err := ParseUnits("-1", 6); err == nil {
		t.Error("negative accepted")
	}
}

func TestParseFormatRoundtrip(t *testing.T) {
	for _, s := range []string{"0.000001", "42", "1.5", "1234.567891"} {
		raw, err := ParseUnits(s, 6)
		if err != nil {
			t.Fatalf("%s: %v", s, err)
		}
		if got := FormatUnits(raw, 6); got != s {
			t.Errorf("roundtrip %q -> %q", s, got)
		}
	}
}

func TestDecodeHexOrText(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"0x68656c6c6f", "hello"},
		{"68656c6c6f", "hello"},
		{"plain text", "plain text"},
		{"0xzz", "0xzz"},
		{"0xfff8", "0xfff8"}, // not valid utf-8
	}
	for _, c := range cases {
		if got := DecodeHexOrText(c.in); got != c.want {
			t.Errorf("DecodeHexOrText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, 0, 3) != 3 || Clamp(-1, 0, 3) != 0 || Clamp(2, 0, 3) != 2 {
		t.Error("Clamp misbehaved")
	}
}

func TestWrapHeight(t *testing.T) {
	cases := []struct {
		s     string
		width int
		want  int
	}{
		{"", 10, 0},
		{"short", 10, 1},
		{"exactly ten", 11, 1},
		{"0123456789abc", 10, 2},
		{"a\nb", 10, 2},
		{"a\n\nb", 10, 3},
		{"anything", 0, 0},
	}
	for _, c := range cases {
		if got := WrapHeight(c.s, c.width); got != c.want {
			t.Errorf("WrapHeight(%q, %d) = %d, want %d", c.s, c.width, got, c.want)
		}
	}
}
