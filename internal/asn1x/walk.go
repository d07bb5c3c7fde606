// Package asn1x provides the small set of DER traversal primitives the
// attestation decoders need: take the next primitive element, optionally
// enter a container by tag, and assert that a buffer has been fully
// consumed.
//
// It is hand-written rather than built on golang.org/x/crypto/cryptobyte/
// asn1: that package's Tag type is a single byte and can only address the
// ASN.1 low-tag-number form (tag numbers 0-30). The Android keystore
// attestation extension's AuthorizationList (spec.md §4.3) uses
// context-specific tags up to 719, which require the high-tag-number form
// (a 0x1f low-tag marker followed by a base-128 continuation sequence).
// Since no library in the retrieval pack implements high-tag-number DER
// tags, this package decodes identifier and length octets directly (the
// REQUIRED justification for building C1's ASN.1 half on the standard
// library instead of an ecosystem ASN.1 package; see DESIGN.md).
package asn1x

import "fmt"

// Universal DER tag numbers this package recognizes.
const (
	tagInteger     = 2
	tagOctetString = 4
	tagSequence    = 16
	tagSet         = 17
)

// classContextSpecific is the ASN.1 tag class for context-specific tags
// (the top two bits of the identifier octet).
const classContextSpecific = 2

// element is one decoded DER TLV: its class/tag/constructed bit, its
// contents (tag and length already stripped), and how many bytes of the
// source buffer it occupied in total.
type element struct {
	class       int
	constructed bool
	tag         int
	contents    []byte
	totalLen    int
}

// readElement decodes one DER identifier+length+contents from the front of
// buf without requiring the rest of buf to be consumed.
func readElement(buf []byte) (element, error) {
	if len(buf) < 2 {
		return element{}, fmt.Errorf("asn1x: truncated element header")
	}

	b0 := buf[0]
	class := int(b0>>6) & 0x3
	constructed := b0&0x20 != 0
	tag := int(b0 & 0x1f)
	pos := 1

	if tag == 0x1f {
		// High-tag-number form: base-128 continuation, MSB set on every
		// byte but the last.
		tag = 0
		for {
			if pos >= len(buf) {
				return element{}, fmt.Errorf("asn1x: truncated high tag number")
			}
			b := buf[pos]
			tag = tag<<7 | int(b&0x7f)
			pos++
			if b&0x80 == 0 {
				break
			}
		}
	}

	if pos >= len(buf) {
		return element{}, fmt.Errorf("asn1x: truncated length octet")
	}
	lengthByte := buf[pos]
	pos++

	var length int
	if lengthByte&0x80 == 0 {
		length = int(lengthByte)
	} else {
		n := int(lengthByte & 0x7f)
		if n == 0 {
			return element{}, fmt.Errorf("asn1x: indefinite length not supported")
		}
		if pos+n > len(buf) {
			return element{}, fmt.Errorf("asn1x: truncated long-form length")
		}
		for i := 0; i < n; i++ {
			length = length<<8 | int(buf[pos+i])
		}
		pos += n
	}

	if length < 0 || pos+length > len(buf) {
		return element{}, fmt.Errorf("asn1x: element length exceeds buffer")
	}

	return element{
		class:       class,
		constructed: constructed,
		tag:         tag,
		contents:    buf[pos : pos+length],
		totalLen:    pos + length,
	}, nil
}

func decodeInteger(b []byte) (int64, error) {
	if len(b) == 0 {
		return 0, fmt.Errorf("asn1x: empty INTEGER")
	}
	var v int64
	if b[0]&0x80 != 0 {
		v = -1
	}
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	return v, nil
}

// Reader walks a single DER-encoded value left to right.
type Reader struct {
	buf []byte
}

// NewReader wraps raw DER bytes for traversal.
func NewReader(der []byte) *Reader {
	return &Reader{buf: der}
}

// Empty reports whether every byte of the buffer has been consumed.
func (r *Reader) Empty() bool {
	return len(r.buf) == 0
}

func (r *Reader) next() (element, error) {
	el, err := readElement(r.buf)
	if err != nil {
		return element{}, err
	}
	r.buf = r.buf[el.totalLen:]
	return el, nil
}

// Sequence enters the buffer as a SEQUENCE and returns a reader over its
// contents.
func (r *Reader) Sequence() (*Reader, error) {
	el, err := r.next()
	if err != nil {
		return nil, err
	}
	if el.tag != tagSequence || !el.constructed {
		return nil, fmt.Errorf("asn1x: expected SEQUENCE")
	}
	return &Reader{buf: el.contents}, nil
}

// Set enters the buffer as a SET and returns a reader over its contents.
func (r *Reader) Set() (*Reader, error) {
	el, err := r.next()
	if err != nil {
		return nil, err
	}
	if el.tag != tagSet || !el.constructed {
		return nil, fmt.Errorf("asn1x: expected SET")
	}
	return &Reader{buf: el.contents}, nil
}

// Context enters an explicit context-specific [n] tag and returns a reader
// over its contents, or ok=false if the next element is not tagged n. n
// may be any non-negative tag number, including those requiring the
// high-tag-number form.
func (r *Reader) Context(n int) (inner *Reader, ok bool, err error) {
	if r.Empty() {
		return nil, false, nil
	}
	el, err := readElement(r.buf)
	if err != nil {
		return nil, false, err
	}
	if el.class != classContextSpecific || el.tag != n {
		return nil, false, nil
	}
	r.buf = r.buf[el.totalLen:]
	return &Reader{buf: el.contents}, true, nil
}

// Int64 reads the next element as an INTEGER.
func (r *Reader) Int64() (int64, error) {
	el, err := r.next()
	if err != nil {
		return 0, err
	}
	if el.tag != tagInteger {
		return 0, fmt.Errorf("asn1x: expected INTEGER")
	}
	return decodeInteger(el.contents)
}

// OctetString reads the next element as an OCTET STRING.
func (r *Reader) OctetString() ([]byte, error) {
	el, err := r.next()
	if err != nil {
		return nil, err
	}
	if el.tag != tagOctetString {
		return nil, fmt.Errorf("asn1x: expected OCTET STRING")
	}
	return el.contents, nil
}

// SkipAny consumes and discards the next element, of any tag.
func (r *Reader) SkipAny() error {
	_, err := r.next()
	return err
}

// IntSet reads a SET OF INTEGER and returns the distinct values.
func (r *Reader) IntSet() (map[int64]struct{}, error) {
	body, err := r.Set()
	if err != nil {
		return nil, err
	}
	out := map[int64]struct{}{}
	for !body.Empty() {
		v, err := body.Int64()
		if err != nil {
			return nil, err
		}
		out[v] = struct{}{}
	}
	return out, nil
}

// RawElement is one flat element seen during a structure-agnostic walk: its
// raw tag number, whether it is constructed, and its decoded contents (tag
// and length already stripped).
type RawElement struct {
	Tag         int
	Constructed bool
	Bytes       []byte
}

// FlattenAll walks the buffer depth-first, descending into every
// constructed element and yielding every element (primitive or
// constructed) it encounters, regardless of nesting shape. It is used
// where a DER payload's container structure is not reliably specified
// (TPM SAN, spec.md §4.4).
func FlattenAll(der []byte, visit func(RawElement) error) error {
	return flatten(der, visit)
}

func flatten(buf []byte, visit func(RawElement) error) error {
	for len(buf) > 0 {
		el, err := readElement(buf)
		if err != nil {
			return err
		}
		buf = buf[el.totalLen:]

		if err := visit(RawElement{Tag: el.tag, Constructed: el.constructed, Bytes: el.contents}); err != nil {
			return err
		}
		if el.constructed {
			if err := flatten(el.contents, visit); err != nil {
				return err
			}
		}
	}
	return nil
}
