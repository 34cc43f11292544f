// Package currency converts listing amounts into the platform settlement
// currency using a static rate table.
package currency

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Code is a supported ISO currency code.
type Code string

const (
	BRL Code = "BRL"
	USD Code = "USD"
	EUR Code = "EUR"
	GBP Code = "GBP"
	ARS Code = "ARS"
	CLP Code = "CLP"
	MXN Code = "MXN"
)

// Settlement is the currency payouts are made in.
const Settlement = BRL

var ErrUnsupportedCurrency = errors.New("unsupported currency")

// rates holds the value of one unit of each currency in BRL.
var rates = map[Code]decimal.Decimal{
	BRL: decimal.NewFromInt(1),
	USD: decimal.RequireFromString("5.20"),
	EUR: decimal.RequireFromString("5.65"),
	GBP: decimal.RequireFromString("6.50"),
	ARS: decimal.RequireFromString("0.0065"),
	CLP: decimal.RequireFromString("0.0055"),
	MXN: decimal.RequireFromString("0.30"),
}

var symbols = map[Code]string{
	BRL: "R$",
	USD: "$",
	EUR: "€",
	GBP: "£",
	ARS: "ARS$",
	CLP: "CLP$",
	MXN: "MXN$",
}

// Supported returns the closed set of codes in a stable order.
func Supported() []Code {
	return []Code{BRL, USD, EUR, GBP, ARS, CLP, MXN}
}

func (c Code) Valid() bool {
	_, ok := rates[c]
	return ok
}

// Parse normalises raw and rejects codes outside the supported set.
func Parse(raw string) (Code, error) {
	c := Code(strings.ToUpper(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, raw)
	}
	return c, nil
}

// Rate returns the BRL value of one unit of c.
func Rate(c Code) (decimal.Decimal, error) {
	r, ok := rates[c]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnsupportedCurrency, string(c))
	}
	return r, nil
}

// Convert expresses amount, given in c, in the settlement currency.
func Convert(amount decimal.Decimal, c Code) (decimal.Decimal, error) {
	r, err := Rate(c)
	if err != nil {
		return decimal.Zero, err
	}
	return amount.Mul(r), nil
}

// Format renders amount with the symbol of c and two decimals, e.g. "R$ 150.00".
func Format(amount decimal.Decimal, c Code) (string, error) {
	sym, ok := symbols[c]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, string(c))
	}
	return sym + " " + amount.StringFixed(2), nil
}
