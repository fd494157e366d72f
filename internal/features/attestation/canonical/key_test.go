package canonical

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromString(t *testing.T) {
	const preHashed = "0x8f3c1f0a3b0f6f8e9b57a8a6f0d1a9c3e2d4b5a69788c7d6e5f4a3b2c1d0e9f8"

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty string is the zero key",
			input: "",
			want:  "0x0000000000000000000000000000000000000000000000000000000000000000",
		},
		{
			name:  "short ascii is right padded",
			input: "evt1",
			want:  "0x6576743100000000000000000000000000000000000000000000000000000000",
		},
		{
			name:  "pre-hashed key passes through",
			input: preHashed,
			want:  preHashed,
		},
		{
			name:  "upper-case hex digits are normalised",
			input: "0x" + strings.ToUpper(preHashed[2:]),
			want:  preHashed,
		},
		{
			name:  "hyphens are stripped before the key check",
			input: "0x8f3c1f0a-3b0f-6f8e-9b57-a8a6f0d1a9c3e2d4b5a69788c7d6e5f4a3b2c1d0e9f8",
			want:  preHashed,
		},
		{
			name:  "upper-case prefix is not a key",
			input: "0X" + preHashed[2:],
			want:  crypto.Keccak256Hash([]byte("0X" + preHashed[2:])).Hex(),
		},
		{
			name:  "exactly 32 bytes is padded without hashing",
			input: strings.Repeat("a", 32),
			want:  "0x" + strings.Repeat("61", 32),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FromString(tt.input).Hex())
		})
	}
}

func TestFromStringUUIDUsesOriginalBytes(t *testing.T) {
	// A UUID is 36 bytes with hyphens, so it is hashed rather than truncated.
	id := "3f2504e0-4f89-11d3-9a0c-0305e82c3301"
	got := FromString(id)

	assert.Equal(t, Key(crypto.Keccak256Hash([]byte(id))), got)
	assert.NotEqual(t, FromString(strings.ReplaceAll(id, "-", "")), got)
}

func TestFromStringLongInputsDoNotCollide(t *testing.T) {
	prefix := strings.Repeat("x", 32)
	a := FromString(prefix + "-first")
	b := FromString(prefix + "-second")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, FromString(prefix), a)
}

func TestFromStringIsDeterministic(t *testing.T) {
	inputs := []string{"", "evt", "activity-42", strings.Repeat("é", 40), "0xnothex"}
	for _, in := range inputs {
		first := FromString(in)
		for i := 0; i < 5; i++ {
			require.Equal(t, first, FromString(in), "input %q", in)
		}
	}
}

func TestParse(t *testing.T) {
	k, err := Parse("0x" + strings.Repeat("ab", 32))
	require.NoError(t, err)
	assert.Equal(t, byte(0xab), k[0])
	assert.False(t, k.IsZero())
	assert.False(t, IsKeyString("0X"+strings.Repeat("ab", 32)))

	for _, bad := range []string{"", "0x1234", strings.Repeat("ab", 32), "0x" + strings.Repeat("zz", 32), "0X" + strings.Repeat("ab", 32)} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, "input %q", bad)
	}
}

func TestKeyJSON(t *testing.T) {
	k := FromString("evt1")
	b, err := json.Marshal(struct {
		K Key `json:"k"`
	}{k})
	require.NoError(t, err)
	assert.JSONEq(t, `{"k":"`+k.Hex()+`"}`, string(b))

	var out struct {
		K Key `json:"k"`
	}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, k, out.K)
	assert.True(t, Zero.IsZero())
}
