package helpers

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"math/big"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/gamut"
)

// ShortenAddr shortens an Ethereum address for display
func ShortenAddr(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}

// IsValidEthAddress checks if a string is a valid Ethereum address
func IsValidEthAddress(s string) bool {
	re := regexp.MustCompile("^0x[0-9a-fA-F]{40}$")
	return re.MatchString(s)
}

// FormatUnits formats a raw token amount using the token's decimals.
func FormatUnits(raw *big.Int, decimals uint8) string {
	if raw == nil {
		return "0"
	}
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	amount := new(big.Float).Quo(new(big.Float).SetInt(raw), divisor)
	s := amount.Text('f', 6)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// ParseUnits converts a decimal amount string into the token's raw units.
func ParseUnits(amount string, decimals uint8) (*big.Int, error) {
	f, ok := new(big.Float).SetString(strings.TrimSpace(amount))
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", amount)
	}
	if f.Sign() < 0 {
		return nil, fmt.Errorf("amount must not be negative")
	}
	multiplier := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	raw, _ := new(big.Float).Mul(f, multiplier).Int(nil)
	return raw, nil
}

// FormatUSD formats a dollar value for display.
func FormatUSD(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}

// DecodeHexOrText decodes 0x-prefixed (or bare) hex into its UTF-8 text if
// possible; otherwise it returns the input unchanged. Used to present
// personal_sign payloads.
func DecodeHexOrText(s string) string {
	trimmed := strings.TrimPrefix(s, "0x")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return s
	}
	if !utf8.Valid(decoded) {
		return s
	}
	return string(decoded)
}

// LoadedAt formats the loaded timestamp
func LoadedAt(t time.Time, loading bool) string {
	if loading {
		return "loading…"
	}
	if t.IsZero() {
		return "never"
	}
	return t.Format("15:04:05")
}

// FadeString creates a gradient colored string
func FadeString(s string, firstColor string, lastColor string) string {
	blends := gamut.Blends(lipgloss.Color(firstColor), lipgloss.Color(lastColor), len(s))
	return rainbow(lipgloss.NewStyle(), s, blends)
}

func rainbow(baseStyle lipgloss.Style, str string, colors []color.Color) string {
	var result string
	for i, c := range str {
		col, _ := colorful.MakeColor(colors[i%len(colors)])
		result += baseStyle.Foreground(lipgloss.Color(col.Hex())).Render(string(c))
	}
	return result
}

// Max returns the maximum of two integers
func Max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Min returns the minimum of two integers
func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Clamp limits v to the range [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// WrapHeight returns the number of terminal rows a string occupies when
// wrapped to width columns. Empty strings occupy zero rows.
func WrapHeight(s string, width int) int {
	if s == "" || width <= 0 {
		return 0
	}
	rows := 0
	for _, line := range strings.Split(s, "\n") {
		n := utf8.RuneCountInString(line)
		if n == 0 {
			rows++
			continue
		}
		rows += (n + width - 1) / width
	}
	return rows
}
