package tpmwire

import (
	"fmt"
	"math/big"

	"github.com/google/go-tpm/tpm2"
)

// KeyType distinguishes the two TPMT_PUBLIC object types this decoder
// understands. The numeric values are TCG algorithm identifiers, reused
// from google/go-tpm's tpm2.Algorithm rather than re-declared (spec.md §6).
type KeyType uint16

const (
	KeyTypeRSA KeyType = KeyType(tpm2.AlgRSA)
	KeyTypeECC KeyType = KeyType(tpm2.AlgECC)
)

// NameAlg is the hash algorithm used to name a TPMT_PUBLIC. Only SHA1 and
// SHA256 are legal here (spec.md §3, §4.6.2 step 6).
type NameAlg uint16

const (
	NameAlgSHA1   NameAlg = NameAlg(tpm2.AlgSHA1)
	NameAlgSHA256 NameAlg = NameAlg(tpm2.AlgSHA256)
)

// Curve identifies an ECC curve carried in TPMT_PUBLIC.ECCParameters,
// reusing google/go-tpm's tpm2.EllipticCurve identifiers.
type Curve uint16

const (
	CurveP256 Curve = Curve(tpm2.CurveNISTP256)
	CurveP384 Curve = Curve(tpm2.CurveNISTP384)
	CurveP521 Curve = Curve(tpm2.CurveNISTP521)
)

// RSAParameters is TPMT_PUBLIC.parameters for an RSA object, plus the
// reconstructed key material from TPMT_PUBLIC.unique.
type RSAParameters struct {
	Symmetric uint16
	Scheme    uint16
	KeyBits   uint16
	// Exponent is the effective exponent: a decoded 0 is replaced with the
	// implicit default 65537 (spec.md §4.4, tested by §8 property S7).
	Exponent uint32
	Modulus  *big.Int
}

// ECCParameters is TPMT_PUBLIC.parameters for an ECC object, plus the
// reconstructed point from TPMT_PUBLIC.unique.
type ECCParameters struct {
	Symmetric uint16
	Scheme    uint16
	Curve     Curve
	KDF       uint16
	X, Y      *big.Int
}

// Public is a decoded TPMT_PUBLIC (pubArea). Exactly one of RSA/ECC is set,
// selected by Type.
type Public struct {
	Type             KeyType
	NameAlg          NameAlg
	NameAlgRaw       uint16
	ObjectAttributes uint32
	AuthPolicy       []byte
	RSA              *RSAParameters
	ECC              *ECCParameters
}

// ErrUnsupportedType is returned for any TPMT_PUBLIC.type other than
// RSA/ECC.
type ErrUnsupportedType struct {
	Type uint16
}

func (e *ErrUnsupportedType) Error() string {
	return fmt.Sprintf("tpmwire: unsupported TPMT_PUBLIC type 0x%04x", e.Type)
}

// ErrUnsupportedNameAlg is returned for any nameAlg other than SHA1/SHA256.
type ErrUnsupportedNameAlg struct {
	NameAlg uint16
}

func (e *ErrUnsupportedNameAlg) Error() string {
	return fmt.Sprintf("tpmwire: unsupported nameAlg 0x%04x", e.NameAlg)
}

// DecodePublic parses a TPMT_PUBLIC. It requires the buffer to be
// completely consumed.
func DecodePublic(raw []byte) (*Public, error) {
	r := newReader(raw)

	typeRaw, err := r.u16("type")
	if err != nil {
		return nil, err
	}

	nameAlgRaw, err := r.u16("nameAlg")
	if err != nil {
		return nil, err
	}

	objAttr, err := r.u32("objectAttributes")
	if err != nil {
		return nil, err
	}

	authPolicy, err := r.bytes16("authPolicy")
	if err != nil {
		return nil, err
	}

	p := &Public{
		Type:             KeyType(typeRaw),
		NameAlgRaw:       nameAlgRaw,
		ObjectAttributes: objAttr,
		AuthPolicy:       authPolicy,
	}

	switch NameAlg(nameAlgRaw) {
	case NameAlgSHA1, NameAlgSHA256:
		p.NameAlg = NameAlg(nameAlgRaw)
	default:
		return nil, &ErrUnsupportedNameAlg{NameAlg: nameAlgRaw}
	}

	switch p.Type {
	case KeyTypeRSA:
		rsaParams, err := decodeRSA(r)
		if err != nil {
			return nil, err
		}
		p.RSA = rsaParams
	case KeyTypeECC:
		eccParams, err := decodeECC(r)
		if err != nil {
			return nil, err
		}
		p.ECC = eccParams
	default:
		return nil, &ErrUnsupportedType{Type: typeRaw}
	}

	if err := r.done(); err != nil {
		return nil, err
	}

	return p, nil
}

func decodeRSA(r *reader) (*RSAParameters, error) {
	symmetric, err := r.u16("parameters.rsa.symmetric")
	if err != nil {
		return nil, err
	}
	scheme, err := r.u16("parameters.rsa.scheme")
	if err != nil {
		return nil, err
	}
	keyBits, err := r.u16("parameters.rsa.keyBits")
	if err != nil {
		return nil, err
	}
	exponent, err := r.u32("parameters.rsa.exponent")
	if err != nil {
		return nil, err
	}
	if exponent == 0 {
		exponent = 65537
	}
	modulus, err := r.bytes16("unique.rsa")
	if err != nil {
		return nil, err
	}

	return &RSAParameters{
		Symmetric: symmetric,
		Scheme:    scheme,
		KeyBits:   keyBits,
		Exponent:  exponent,
		Modulus:   new(big.Int).SetBytes(modulus),
	}, nil
}

func decodeECC(r *reader) (*ECCParameters, error) {
	symmetric, err := r.u16("parameters.ecc.symmetric")
	if err != nil {
		return nil, err
	}
	scheme, err := r.u16("parameters.ecc.scheme")
	if err != nil {
		return nil, err
	}
	curve, err := r.u16("parameters.ecc.curveID")
	if err != nil {
		return nil, err
	}
	kdf, err := r.u16("parameters.ecc.kdf")
	if err != nil {
		return nil, err
	}
	x, err := r.bytes16("unique.ecc.x")
	if err != nil {
		return nil, err
	}
	y, err := r.bytes16("unique.ecc.y")
	if err != nil {
		return nil, err
	}

	return &ECCParameters{
		Symmetric: symmetric,
		Scheme:    scheme,
		Curve:     Curve(curve),
		KDF:       kdf,
		X:         new(big.Int).SetBytes(x),
		Y:         new(big.Int).SetBytes(y),
	}, nil
}
