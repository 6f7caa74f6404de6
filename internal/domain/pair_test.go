package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePair(t *testing.T) {
	tests := []struct {
		input   string
		want    InstrumentPair
		wantErr bool
	}{
		{input: "btc_usdt", want: BTCUSDT},
		{input: "eth_usdt", want: ETHUSDT},
		{input: "BTC_USDT", wantErr: true}, // wire format is lowercase
		{input: "doge_usdt", wantErr: true},
		{input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePair(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
