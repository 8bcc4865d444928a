package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()

	codec, err := NewCodec("test-secret", "HS256")
	require.NoError(t, err)
	return codec
}

func TestNewCodec_RejectsUnknownAlgorithm(t *testing.T) {
	_, err := NewCodec("test-secret", "HS9000")
	require.Error(t, err)
}

func TestNewCodec_RejectsNonHMACAlgorithm(t *testing.T) {
	_, err := NewCodec("test-secret", "RS256")
	require.Error(t, err)
}

func TestCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	encoded, err := codec.Encode(Claims{"username": "alice"}, 30*time.Minute)
	require.NoError(t, err)
	require.NotEmpty(t, encoded)

	decoded, err := codec.Decode(encoded)
	require.NoError(t, err)
	require.Equal(t, "alice", decoded["username"])
	require.Contains(t, decoded, "exp")
}

func TestCodec_Decode_Expired(t *testing.T) {
	codec := newTestCodec(t)

	issued := time.Now().Add(-time.Hour)
	codec.now = func() time.Time { return issued }
	encoded, err := codec.Encode(Claims{"username": "alice"}, 30*time.Minute)
	require.NoError(t, err)

	codec.now = time.Now
	_, err = codec.Decode(encoded)
	require.ErrorIs(t, err, ErrExpired)
}

func TestCodec_Decode_TamperedPayload(t *testing.T) {
	codec := newTestCodec(t)

	encoded, err := codec.Encode(Claims{"username": "alice"}, 30*time.Minute)
	require.NoError(t, err)

	parts := strings.Split(encoded, ".")
	require.Len(t, parts, 3)

	// Flip a character in the payload segment; the signature no longer
	// matches the recomputation.
	payload := []byte(parts[1])
	if payload[0] == 'A' {
		payload[0] = 'B'
	} else {
		payload[0] = 'A'
	}
	tampered := parts[0] + "." + string(payload) + "." + parts[2]

	_, err = codec.Decode(tampered)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCodec_Decode_WrongSecret(t *testing.T) {
	codec := newTestCodec(t)
	other, err := NewCodec("another-secret", "HS256")
	require.NoError(t, err)

	encoded, err := codec.Encode(Claims{"username": "alice"}, 30*time.Minute)
	require.NoError(t, err)

	_, err = other.Decode(encoded)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCodec_Decode_Malformed(t *testing.T) {
	codec := newTestCodec(t)

	for _, garbage := range []string{"", "0", "abc.def", "not a token at all"} {
		_, err := codec.Decode(garbage)
		require.ErrorIs(t, err, ErrMalformed, "input %q", garbage)
	}
}
