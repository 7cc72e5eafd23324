package vnpay

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const maxOrderInfo = 255

// OrderInfo makes a description safe for vnp_OrderInfo: diacritics are
// stripped (NFD, drop combining marks) and whitespace becomes '-'.
func OrderInfo(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '-'
		}
		return r
	}, strings.TrimSpace(out))
	if len(out) > maxOrderInfo {
		out = out[:maxOrderInfo]
	}
	return out
}
