package domain

import "fmt"

// InstrumentPair identifies a traded asset pair in the exchange's wire format.
// The raw value is sent verbatim in every subscribe and request payload.
type InstrumentPair string

const (
	ETHUSDT InstrumentPair = "eth_usdt"
	BTCUSDT InstrumentPair = "btc_usdt"
)

// ParsePair converts a raw pair string into a known InstrumentPair.
func ParsePair(s string) (InstrumentPair, error) {
	switch InstrumentPair(s) {
	case ETHUSDT:
		return ETHUSDT, nil
	case BTCUSDT:
		return BTCUSDT, nil
	default:
		return "", fmt.Errorf("unknown instrument pair %q", s)
	}
}

func (p InstrumentPair) String() string {
	return string(p)
}
