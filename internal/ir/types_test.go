package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFieldNaming(t *testing.T) {
	ev := Event{
		ID:      "abc",
		Seq:     42,
		TxID:    "tx-1",
		Kind:    EventTransfer,
		TokenID: 7,
		To:      NamedIdentity("alice"),
	}
	data, err := json.Marshal(ev)
	require.NoError(t, err)

	for _, field := range []string{`"id"`, `"seq"`, `"tx_id"`, `"kind"`, `"token_id"`, `"approved_all"`} {
		assert.Contains(t, string(data), field)
	}
}

func TestTokenIDString(t *testing.T) {
	assert.Equal(t, "0", TokenID(0).String())
	assert.Equal(t, "18446744073709551615", TokenID(^uint64(0)).String())
}

func TestInterfaceIDString(t *testing.T) {
	assert.Equal(t, "0x80ac58cd", MustParseInterfaceID("0x80AC58CD").String())
}

func TestDecodeHex(t *testing.T) {
	tests := []struct {
		in      string
		want    []byte
		wantErr bool
	}{
		{"", []byte{}, false},
		{"0x", []byte{}, false},
		{"0xbeef", []byte{0xbe, 0xef}, false},
		{"0XBEEF", []byte{0xbe, 0xef}, false},
		{"beef", []byte{0xbe, 0xef}, false},
		{"0xabc", nil, true},
		{"0xzz", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := DecodeHex(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
