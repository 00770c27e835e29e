package currency

import (
	"fmt"
	"math"
	"strings"
)

// Converter applies a fixed rate table. Rates are expressed against USD;
// the USD→KES rate can be overridden from the environment since it moves
// the most for this site's donors.
type Converter struct {
	usdRates map[string]float64
}

func NewConverter(usdToKes float64) *Converter {
	return &Converter{
		usdRates: map[string]float64{
			"USD": 1,
			"KES": usdToKes,
			"EUR": 0.92,
			"GBP": 0.79,
		},
	}
}

// Convert returns amount expressed in the target currency, rounded to two
// decimal places. from == to is the identity.
func (c *Converter) Convert(amount float64, from, to string) (float64, error) {
	from = strings.ToUpper(strings.TrimSpace(from))
	to = strings.ToUpper(strings.TrimSpace(to))
	if from == to {
		return amount, nil
	}
	fromRate, ok := c.usdRates[from]
	if !ok {
		return 0, fmt.Errorf("unsupported currency %q", from)
	}
	toRate, ok := c.usdRates[to]
	if !ok {
		return 0, fmt.Errorf("unsupported currency %q", to)
	}
	converted := amount / fromRate * toRate
	return math.Round(converted*100) / 100, nil
}
