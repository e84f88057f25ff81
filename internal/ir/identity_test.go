package ir

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdentity(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"lowercase", "0x00000000000000000000000000000000000000ab", "0x00000000000000000000000000000000000000ab", false},
		{"uppercase digits", "0x00000000000000000000000000000000000000AB", "0x00000000000000000000000000000000000000ab", false},
		{"upper prefix", "0X00000000000000000000000000000000000000ab", "0x00000000000000000000000000000000000000ab", false},
		{"null word", "null", Null.String(), false},
		{"null word any case", "NULL", Null.String(), false},
		{"missing prefix", "00000000000000000000000000000000000000ab", "", true},
		{"too short", "0xabcd", "", true},
		{"too long", "0x" + strings.Repeat("ab", 21), "", true},
		{"not hex", "0x" + strings.Repeat("zz", 20), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := ParseIdentity(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, id.String())
		})
	}
}

func TestNullIdentity(t *testing.T) {
	var zero Identity
	assert.True(t, zero.IsNull())
	assert.True(t, Null.IsNull())
	assert.False(t, NamedIdentity("alice").IsNull())
}

func TestNamedIdentityStable(t *testing.T) {
	assert.Equal(t, NamedIdentity("alice"), NamedIdentity("alice"))
	assert.NotEqual(t, NamedIdentity("alice"), NamedIdentity("bob"))
}

func TestIdentityJSONRoundTrip(t *testing.T) {
	type holder struct {
		Who Identity `json:"who"`
	}
	in := holder{Who: NamedIdentity("carol")}

	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), in.Who.String())

	var out holder
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestIdentityAsMapKey(t *testing.T) {
	balances := map[Identity]int{}
	balances[MustParseIdentity("0x00000000000000000000000000000000000000ab")]++
	balances[MustParseIdentity("0x00000000000000000000000000000000000000AB")]++
	assert.Len(t, balances, 1)
}

func TestParseInterfaceID(t *testing.T) {
	iid, err := ParseInterfaceID("0x80ac58cd")
	require.NoError(t, err)
	assert.Equal(t, InterfaceID{0x80, 0xac, 0x58, 0xcd}, iid)
	assert.Equal(t, "0x80ac58cd", iid.String())

	_, err = ParseInterfaceID("0x80ac58")
	assert.Error(t, err)
	_, err = ParseInterfaceID("nothex!!")
	assert.Error(t, err)
}

func TestParseTokenID(t *testing.T) {
	id, err := ParseTokenID("42")
	require.NoError(t, err)
	assert.Equal(t, TokenID(42), id)
	assert.Equal(t, "42", id.String())

	_, err = ParseTokenID("-1")
	assert.Error(t, err)
}
