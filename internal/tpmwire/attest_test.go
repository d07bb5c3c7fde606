package tpmwire

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildAttest assembles a well-formed TPMS_ATTEST byte string so tests can
// flip individual fields without hand counting offsets.
func buildAttest(t *testing.T, mutate func(*attestFields)) []byte {
	t.Helper()
	f := attestFields{
		magic:           GeneratedValue,
		typ:             AttestCertify,
		qualifiedSigner: []byte("qs"),
		extraData:       []byte("extra"),
		clock:           1,
		resetCount:      2,
		restartCount:    3,
		safe:            1,
		firmwareVersion: 42,
		name:            []byte("name"),
		qualifiedName:   []byte("qname"),
	}
	if mutate != nil {
		mutate(&f)
	}
	return f.encode()
}

type attestFields struct {
	magic                                   uint32
	typ                                      uint16
	qualifiedSigner, extraData              []byte
	clock                                    uint64
	resetCount, restartCount                uint32
	safe                                     uint8
	firmwareVersion                         uint64
	name, qualifiedName                     []byte
}

func (f attestFields) encode() []byte {
	var buf []byte
	put32 := func(v uint32) { b := make([]byte, 4); binary.BigEndian.PutUint32(b, v); buf = append(buf, b...) }
	put16 := func(v uint16) { b := make([]byte, 2); binary.BigEndian.PutUint16(b, v); buf = append(buf, b...) }
	put64 := func(v uint64) { b := make([]byte, 8); binary.BigEndian.PutUint64(b, v); buf = append(buf, b...) }
	putBytes16 := func(b []byte) { put16(uint16(len(b))); buf = append(buf, b...) }

	put32(f.magic)
	put16(f.typ)
	putBytes16(f.qualifiedSigner)
	putBytes16(f.extraData)
	put64(f.clock)
	put32(f.resetCount)
	put32(f.restartCount)
	buf = append(buf, f.safe)
	put64(f.firmwareVersion)
	putBytes16(f.name)
	putBytes16(f.qualifiedName)
	return buf
}

func TestDecodeAttestRoundTrip(t *testing.T) {
	raw := buildAttest(t, nil)
	a, err := DecodeAttest(raw)
	require.NoError(t, err)
	assert.Equal(t, GeneratedValue, a.Magic)
	assert.Equal(t, AttestCertify, a.Type)
	assert.Equal(t, []byte("qs"), a.QualifiedSigner)
	assert.Equal(t, []byte("extra"), a.ExtraData)
	assert.Equal(t, uint64(1), a.Clock.Clock)
	assert.Equal(t, uint32(2), a.Clock.ResetCount)
	assert.True(t, a.Clock.Safe)
	assert.Equal(t, uint64(42), a.FirmwareVersion)
	assert.Equal(t, []byte("name"), a.Attested.Name)
	assert.Equal(t, []byte("qname"), a.Attested.QualifiedName)
}

func TestDecodeAttestRejectsTruncation(t *testing.T) {
	raw := buildAttest(t, nil)
	for i := 1; i < len(raw); i++ {
		_, err := DecodeAttest(raw[:i])
		assert.Error(t, err, "truncating to %d bytes should fail", i)
	}
}

func TestDecodeAttestRejectsTrailingBytes(t *testing.T) {
	raw := append(buildAttest(t, nil), 0x00)
	_, err := DecodeAttest(raw)
	require.Error(t, err)
	var trailing *ErrTrailingBytes
	assert.ErrorAs(t, err, &trailing)
}

func TestDecodeAttestTreatsNonCanonicalSafeByteAsFalse(t *testing.T) {
	raw := buildAttest(t, func(f *attestFields) { f.safe = 0xFF })
	a, err := DecodeAttest(raw)
	require.NoError(t, err)
	assert.False(t, a.Clock.Safe, "only the exact byte 1 means true")
}
