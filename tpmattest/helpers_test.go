package tpmattest

import (
	"encoding/binary"

	"github.com/google/go-tpm/tpm2"
)

// --- minimal independent DER encoders for AIK certificate extensions ---

func encodeLength(n int) []byte {
	if n < 0x80 {
		return []byte{byte(n)}
	}
	var body []byte
	for n > 0 {
		body = append([]byte{byte(n & 0xff)}, body...)
		n >>= 8
	}
	return append([]byte{byte(0x80 | len(body))}, body...)
}

func tlv(identifier byte, content []byte) []byte {
	out := append([]byte{identifier}, encodeLength(len(content))...)
	return append(out, content...)
}

func derOID(arcs ...int) []byte {
	content := []byte{byte(arcs[0]*40 + arcs[1])}
	for _, a := range arcs[2:] {
		var b []byte
		b = append(b, byte(a&0x7f))
		a >>= 7
		for a > 0 {
			b = append([]byte{byte(0x80 | (a & 0x7f))}, b...)
			a >>= 7
		}
		content = append(content, b...)
	}
	return tlv(0x06, content)
}

func derUTF8String(s string) []byte {
	return tlv(0x0c, []byte(s))
}

func derSeqT(children ...[]byte) []byte {
	var content []byte
	for _, c := range children {
		content = append(content, c...)
	}
	return tlv(0x30, content)
}

func derSetT(children ...[]byte) []byte {
	var content []byte
	for _, c := range children {
		content = append(content, c...)
	}
	return tlv(0x31, content)
}

func derContextConstructed(n int, content []byte) []byte {
	const classContextConstructed = 0xA0
	return tlv(byte(classContextConstructed|n), content)
}

// sanDER builds a TCG-shaped Subject Alternative Name: GeneralNames
// containing a single [4] directoryName whose RDNSequence carries the
// manufacturer/model/version attribute triple.
func sanDER(manufacturer, model, version string) []byte {
	rdn := func(oid []int, value string) []byte {
		return derSetT(derSeqT(derOID(oid...), derUTF8String(value)))
	}
	name := derSeqT(
		rdn([]int{2, 23, 133, 2, 1}, manufacturer),
		rdn([]int{2, 23, 133, 2, 2}, model),
		rdn([]int{2, 23, 133, 2, 3}, version),
	)
	return derSeqT(derContextConstructed(4, name))
}

// --- minimal independent TPM wire encoders ---

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

func put64(buf []byte, v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return append(buf, b...)
}

func putBytes16(buf []byte, b []byte) []byte {
	buf = put16(buf, uint16(len(b)))
	return append(buf, b...)
}

func eccPublicRaw(x, y []byte) []byte {
	var buf []byte
	buf = put16(buf, uint16(tpm2.AlgECC))
	buf = put16(buf, uint16(tpm2.AlgSHA256))
	buf = put32(buf, 0)
	buf = putBytes16(buf, nil)
	buf = put16(buf, 0)
	buf = put16(buf, 0)
	buf = put16(buf, uint16(tpm2.CurveNISTP256))
	buf = put16(buf, 0)
	buf = putBytes16(buf, x)
	buf = putBytes16(buf, y)
	return buf
}

func certInfoRaw(typ uint16, extraData, name []byte) []byte {
	var buf []byte
	buf = put32(buf, tpm2GeneratedValue())
	buf = put16(buf, typ)
	buf = putBytes16(buf, []byte("signer"))
	buf = putBytes16(buf, extraData)
	buf = put64(buf, 1)  // clock
	buf = put32(buf, 1)  // resetCount
	buf = put32(buf, 1)  // restartCount
	buf = append(buf, 1) // safe
	buf = put64(buf, 1)  // firmwareVersion
	buf = putBytes16(buf, name)
	buf = putBytes16(buf, []byte("qname"))
	return buf
}

func tpm2GeneratedValue() uint32 {
	return 0xFF544347
}
