// README: Common money value object used across modules.
package types

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrency is the only currency the tariff is published in.
const DefaultCurrency = "KRW"

var amountPrinter = message.NewPrinter(language.English)

type Money struct {
	Amount   int64
	Currency string
}

func Won(amount int64) Money {
	return Money{Amount: amount, Currency: DefaultCurrency}
}

// String renders the amount with thousands separators, e.g. "992,000 KRW".
func (m Money) String() string {
	cur := m.Currency
	if cur == "" {
		cur = DefaultCurrency
	}
	return amountPrinter.Sprintf("%d %s", m.Amount, cur)
}
