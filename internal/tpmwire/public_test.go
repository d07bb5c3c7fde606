package tpmwire

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/google/go-tpm/tpm2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func put16(buf []byte, v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return append(buf, b...)
}

func put32(buf []byte, v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return append(buf, b...)
}

func putBytes16(buf []byte, b []byte) []byte {
	buf = put16(buf, uint16(len(b)))
	return append(buf, b...)
}

func buildRSAPublic(exponent uint32, modulus []byte) []byte {
	var buf []byte
	buf = put16(buf, uint16(tpm2.AlgRSA))
	buf = put16(buf, uint16(tpm2.AlgSHA256))
	buf = put32(buf, 0) // objectAttributes
	buf = putBytes16(buf, nil) // authPolicy
	buf = put16(buf, 0) // symmetric
	buf = put16(buf, 0) // scheme
	buf = put16(buf, 2048) // keyBits
	buf = put32(buf, exponent)
	buf = putBytes16(buf, modulus)
	return buf
}

func buildECCPublic(curve uint16, x, y []byte) []byte {
	var buf []byte
	buf = put16(buf, uint16(tpm2.AlgECC))
	buf = put16(buf, uint16(tpm2.AlgSHA256))
	buf = put32(buf, 0)
	buf = putBytes16(buf, nil)
	buf = put16(buf, 0) // symmetric
	buf = put16(buf, 0) // scheme
	buf = put16(buf, curve)
	buf = put16(buf, 0) // kdf
	buf = putBytes16(buf, x)
	buf = putBytes16(buf, y)
	return buf
}

func TestDecodePublicRSADefaultsExponent(t *testing.T) {
	raw := buildRSAPublic(0, []byte{0x01, 0x02, 0x03})
	p, err := DecodePublic(raw)
	require.NoError(t, err)
	require.NotNil(t, p.RSA)
	assert.Equal(t, uint32(65537), p.RSA.Exponent)
	assert.Equal(t, new(big.Int).SetBytes([]byte{0x01, 0x02, 0x03}), p.RSA.Modulus)
}

func TestDecodePublicRSAExplicitExponent(t *testing.T) {
	raw := buildRSAPublic(3, []byte{0xAB})
	p, err := DecodePublic(raw)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), p.RSA.Exponent)
}

func TestDecodePublicECC(t *testing.T) {
	raw := buildECCPublic(uint16(tpm2.CurveNISTP256), []byte{0x01}, []byte{0x02})
	p, err := DecodePublic(raw)
	require.NoError(t, err)
	require.NotNil(t, p.ECC)
	assert.Equal(t, CurveP256, p.ECC.Curve)
}

func TestDecodePublicRejectsUnsupportedType(t *testing.T) {
	var buf []byte
	buf = put16(buf, 0x0008) // TPM_ALG_KEYEDHASH, unsupported
	buf = put16(buf, uint16(tpm2.AlgSHA256))
	buf = put32(buf, 0)
	buf = putBytes16(buf, nil)
	_, err := DecodePublic(buf)
	require.Error(t, err)
	var unsupported *ErrUnsupportedType
	assert.ErrorAs(t, err, &unsupported)
}

func TestDecodePublicRejectsUnsupportedNameAlg(t *testing.T) {
	raw := buildRSAPublic(0, []byte{0x01})
	binary.BigEndian.PutUint16(raw[2:4], 0x000C) // TPM_ALG_SHA384, unsupported here
	_, err := DecodePublic(raw)
	require.Error(t, err)
	var unsupported *ErrUnsupportedNameAlg
	assert.ErrorAs(t, err, &unsupported)
}

func TestDecodePublicRejectsTrailingBytes(t *testing.T) {
	raw := append(buildRSAPublic(0, []byte{0x01}), 0x00)
	_, err := DecodePublic(raw)
	require.Error(t, err)
}
