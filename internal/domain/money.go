package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// minorUnitExp is the number of decimal places between the major and minor currency unit.
const minorUnitExp = 2

// Money is an amount in currency minor units (cents, paise).
type Money int64

// MoneyFromDecimal converts a major-unit decimal (as stored in NUMERIC columns) to Money.
func MoneyFromDecimal(d decimal.Decimal) Money {
	return Money(d.Shift(minorUnitExp).Round(0).IntPart())
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -minorUnitExp)
}

// Times multiplies a unit price by a quantity.
func (m Money) Times(quantity int) Money {
	return m * Money(quantity)
}

func (m Money) String() string {
	return m.Decimal().StringFixed(minorUnitExp)
}

// MarshalJSON renders the amount as a major-unit decimal string, e.g. "10.50".
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*m = MoneyFromDecimal(d)
	return nil
}
