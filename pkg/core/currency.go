package core

import "strings"

// commonCodes maps venue aliases to the standard ticker symbol.
var commonCodes = map[string]string{
	"XBT": "BTC",
	"BCC": "BCH",
	"DRK": "DASH",
}

// CommonCurrencyCode normalizes a venue-native currency id to its canonical
// uppercase code, resolving known aliases.
func CommonCurrencyCode(id string) string {
	code := strings.ToUpper(strings.TrimSpace(id))
	if common, ok := commonCodes[code]; ok {
		return common
	}
	return code
}

// Symbol joins canonical base and quote codes into a pair symbol.
func Symbol(base, quote string) string {
	return base + "/" + quote
}
