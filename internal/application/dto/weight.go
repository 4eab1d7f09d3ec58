package dto

import "github.com/shopspring/decimal"

// Kg peso en kilogramos. En JSON sale siempre con un decimal ("5.0"); en la entrada acepta
// número o string como decimal.Decimal.
type Kg struct {
	decimal.Decimal
}

// KgOf envuelve un decimal como Kg.
func KgOf(d decimal.Decimal) Kg {
	return Kg{Decimal: d}
}

// MarshalJSON redondea a 0,1 kg.
func (k Kg) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.StringFixed(1) + `"`), nil
}
