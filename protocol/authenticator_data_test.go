package protocol

import (
	"encoding/binary"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildAuthData(t *testing.T, attested bool) []byte {
	t.Helper()
	buf := make([]byte, 32)
	buf[0] = 0xAA

	flags := byte(0)
	if attested {
		flags |= FlagAttested
	}
	buf = append(buf, flags)
	sc := make([]byte, 4)
	binary.BigEndian.PutUint32(sc, 7)
	buf = append(buf, sc...)

	if attested {
		aaguid := uuid.New()
		buf = append(buf, aaguid[:]...)
		credID := []byte{0x01, 0x02, 0x03}
		credLen := make([]byte, 2)
		binary.BigEndian.PutUint16(credLen, uint16(len(credID)))
		buf = append(buf, credLen...)
		buf = append(buf, credID...)

		pubKey, err := cbor.Marshal(map[int]interface{}{1: 2, 3: -7})
		require.NoError(t, err)
		buf = append(buf, pubKey...)
	}

	return buf
}

func TestParseAuthenticatorDataWithoutAttestedData(t *testing.T) {
	raw := buildAuthData(t, false)
	ad, err := ParseAuthenticatorData(raw)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), ad.SignCount)
	assert.Empty(t, ad.AttData.CredentialID)
}

func TestParseAuthenticatorDataWithAttestedData(t *testing.T) {
	raw := buildAuthData(t, true)
	ad, err := ParseAuthenticatorData(raw)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, ad.AttData.CredentialID)
	assert.NotEmpty(t, ad.AttData.CredentialPublicKey)

	var decoded map[int]interface{}
	require.NoError(t, cbor.Unmarshal(ad.AttData.CredentialPublicKey, &decoded))
}

func TestParseAuthenticatorDataRejectsShortBuffer(t *testing.T) {
	_, err := ParseAuthenticatorData(make([]byte, 10))
	require.Error(t, err)
}

func TestParseAuthenticatorDataRejectsTruncatedAttestedData(t *testing.T) {
	raw := buildAuthData(t, true)
	_, err := ParseAuthenticatorData(raw[:40])
	require.Error(t, err)
}
