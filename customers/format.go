package customers

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	balanceLocale   = language.MustParse("es-DO")
	balanceCurrency = currency.MustParseISO("DOP")
)

// FormatBalance renders an amount as Dominican pesos for the es-DO locale
func FormatBalance(amount float64) string {
	p := message.NewPrinter(balanceLocale)
	return p.Sprint(currency.Symbol(balanceCurrency.Amount(amount)))
}
