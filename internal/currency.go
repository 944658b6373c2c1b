package internal

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Currency formats amounts for one currency in one locale.
type Currency struct {
	Code    string // "USD", "EUR", "SEK"
	symbol  string
	prefix  bool
	printer *message.Printer
}

// symbolOverrides provides custom symbols where x/text defaults aren't ideal
var symbolOverrides = map[string]string{
	"SEK": "kr",
	"NOK": "kr",
	"DKK": "kr",
}

// prefixCurrencies place the symbol before the amount. x/text does not
// expose CLDR symbol placement, so this list is maintained by hand.
var prefixCurrencies = map[string]bool{
	"USD": true, "GBP": true, "JPY": true, "CAD": true, "AUD": true,
	"INR": true, "HKD": true, "SGD": true, "NZD": true, "MXN": true,
}

// homeLocales is the formatting locale used for a currency when the system
// locale is unknown.
var homeLocales = map[string]language.Tag{
	"USD": language.AmericanEnglish,
	"EUR": language.German,
	"GBP": language.BritishEnglish,
	"SEK": language.Swedish,
	"NOK": language.Norwegian,
	"DKK": language.Danish,
	"CHF": language.German,
	"JPY": language.Japanese,
	"INR": language.MustParse("en-IN"),
	"AUD": language.MustParse("en-AU"),
	"CAD": language.MustParse("en-CA"),
}

// GetCurrency returns a Currency for code, formatted in the currency's home
// locale. Unknown codes are printed with the code as symbol.
func GetCurrency(code string) Currency {
	code = strings.ToUpper(strings.TrimSpace(code))
	tag, ok := homeLocales[code]
	if !ok {
		tag = language.English
	}
	return GetCurrencyWithLocale(code, tag)
}

// GetCurrencyWithLocale returns a Currency formatted with a specific locale.
func GetCurrencyWithLocale(code string, tag language.Tag) Currency {
	code = strings.ToUpper(strings.TrimSpace(code))
	c := Currency{
		Code:    code,
		prefix:  prefixCurrencies[code],
		printer: message.NewPrinter(tag),
	}

	unit, err := currency.ParseISO(code)
	switch {
	case err != nil:
		c.symbol = code
	case symbolOverrides[code] != "":
		c.symbol = symbolOverrides[code]
	default:
		c.symbol = c.printer.Sprint(currency.NarrowSymbol(unit))
	}
	return c
}

// ResolveCurrency picks the currency to display: the configured code if
// set, else the one implied by the locale environment, else USD.
func ResolveCurrency(configured string) Currency {
	if configured != "" {
		return GetCurrency(configured)
	}
	if code, tag := DetectSystemCurrency(); code != "" {
		return GetCurrencyWithLocale(code, tag)
	}
	return GetCurrency("USD")
}

// DetectSystemCurrency derives a currency and a formatting locale from the
// locale environment variables. Returns "" when nothing usable is set.
func DetectSystemCurrency() (string, language.Tag) {
	locale := detectSystemLocale()
	if locale == "" {
		return "", language.Und
	}
	return parseCurrencyFromLocale(locale)
}

// parseCurrencyFromLocale extracts currency code and language tag from a locale string.
// Examples: "sv_SE.UTF-8" -> ("SEK", sv-SE), "pt_BR.UTF-8" -> ("BRL", pt-BR)
func parseCurrencyFromLocale(locale string) (string, language.Tag) {
	base := locale
	if idx := strings.IndexAny(base, ".@"); idx != -1 {
		base = base[:idx]
	}

	tag, err := language.Parse(strings.Replace(base, "_", "-", 1))
	if err != nil {
		return "", language.Und
	}

	_, _, region := tag.Raw()
	if region.String() == "" || region.String() == "ZZ" {
		return "", language.Und
	}

	unit, ok := currency.FromRegion(region)
	if !ok {
		return "", language.Und
	}
	return unit.String(), tag
}

// Format formats an amount with two fraction digits and the currency symbol.
func (c Currency) Format(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	formatted := c.printer.Sprint(number.Decimal(f, number.MinFractionDigits(2), number.MaxFractionDigits(2)))

	if c.prefix {
		if strings.HasPrefix(formatted, "-") {
			return "-" + c.symbol + formatted[1:]
		}
		return c.symbol + formatted
	}
	return formatted + " " + c.symbol
}
