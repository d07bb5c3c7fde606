// Package cose maps IANA COSE algorithm identifiers to signature/hash
// algorithm pairs and converts X.509, TPM-native and COSE key material to a
// single uniform PublicKey so that keys originating from different codecs
// can be compared by canonical material rather than by encoding
// (spec.md §4.2, §9 "Public-key equality").
package cose

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// Algorithm is a COSE signature algorithm identifier (IANA COSE registry).
type Algorithm int64

// Supported COSE signature algorithms. Every one pairs a signature scheme
// with a fixed hash (spec.md §4.2 "toCoseSignAlg").
const (
	AlgorithmES256 Algorithm = -7
	AlgorithmES384 Algorithm = -35
	AlgorithmES512 Algorithm = -36
	AlgorithmPS256 Algorithm = -37
	AlgorithmPS384 Algorithm = -38
	AlgorithmPS512 Algorithm = -39
	AlgorithmRS256 Algorithm = -257
	AlgorithmRS384 Algorithm = -258
	AlgorithmRS512 Algorithm = -259
)

// ToSignAlgorithm recognizes a supported COSE signature algorithm
// identifier, returning ok=false for anything else (spec.md §4.2).
func ToSignAlgorithm(id int64) (alg Algorithm, ok bool) {
	switch Algorithm(id) {
	case AlgorithmES256, AlgorithmES384, AlgorithmES512,
		AlgorithmPS256, AlgorithmPS384, AlgorithmPS512,
		AlgorithmRS256, AlgorithmRS384, AlgorithmRS512:
		return Algorithm(id), true
	}
	return 0, false
}

// PublicKey is the uniform, encoding-independent key material used to
// compare keys that arrived via different codecs (COSE, X.509, TPM
// TPMT_PUBLIC) for equality.
type PublicKey interface {
	// Equal reports whether other names the same key, by canonical
	// material (modulus+exponent, or curve+X+Y) rather than by encoding.
	Equal(other PublicKey) bool
}

// RSAPublicKey is the canonical form of an RSA key: modulus and exponent.
type RSAPublicKey struct {
	N *big.Int
	E int
}

// Equal implements PublicKey.
func (k RSAPublicKey) Equal(other PublicKey) bool {
	o, ok := other.(RSAPublicKey)
	return ok && k.E == o.E && k.N != nil && o.N != nil && k.N.Cmp(o.N) == 0
}

// ECPublicKey is the canonical form of an elliptic-curve key.
type ECPublicKey struct {
	Curve elliptic.Curve
	X, Y  *big.Int
}

// Equal implements PublicKey.
func (k ECPublicKey) Equal(other PublicKey) bool {
	o, ok := other.(ECPublicKey)
	return ok && k.Curve == o.Curve &&
		k.X != nil && o.X != nil && k.X.Cmp(o.X) == 0 &&
		k.Y != nil && o.Y != nil && k.Y.Cmp(o.Y) == 0
}

// FromX509 converts an X.509 SubjectPublicKeyInfo key to the uniform
// PublicKey, or ok=false if the key type is unsupported.
func FromX509(pub interface{}) (PublicKey, bool) {
	switch p := pub.(type) {
	case *rsa.PublicKey:
		return RSAPublicKey{N: p.N, E: p.E}, true
	case *ecdsa.PublicKey:
		return ECPublicKey{Curve: p.Curve, X: p.X, Y: p.Y}, true
	default:
		return nil, false
	}
}

// FromTPMRSA reconstructs the uniform PublicKey from a TPMT_PUBLIC RSA
// object's modulus and (already-defaulted) exponent.
func FromTPMRSA(modulus *big.Int, exponent uint32) PublicKey {
	return RSAPublicKey{N: modulus, E: int(exponent)}
}

// curveByTPMID maps a TPM ECC curve identifier to its Go elliptic.Curve.
func curveByTPMID(id uint16) (elliptic.Curve, bool) {
	switch id {
	case 0x0003: // TPM_ECC_NIST_P256
		return elliptic.P256(), true
	case 0x0004: // TPM_ECC_NIST_P384
		return elliptic.P384(), true
	case 0x0005: // TPM_ECC_NIST_P521
		return elliptic.P521(), true
	default:
		return nil, false
	}
}

// FromTPMECC reconstructs the uniform PublicKey from a TPMT_PUBLIC ECC
// object's curve identifier and point.
func FromTPMECC(curveID uint16, x, y *big.Int) (PublicKey, bool) {
	curve, ok := curveByTPMID(curveID)
	if !ok {
		return nil, false
	}
	return ECPublicKey{Curve: curve, X: x, Y: y}, true
}

// ec2Key and rsaKey are the two COSE_Key (RFC 9053 §7, RFC 8230 §4) shapes
// this engine needs. EC2 and RSA keys assign different meanings to the
// same small integer labels (EC2's -1/-2/-3 are crv/x/y; RSA's -1/-2 are
// n/e), so they are decoded as separate shapes rather than one struct
// with overloaded fields.
type ec2Key struct {
	KeyType int64  `cbor:"1,keyasint"`
	Curve   int64  `cbor:"-1,keyasint"`
	X       []byte `cbor:"-2,keyasint"`
	Y       []byte `cbor:"-3,keyasint"`
}

type rsaKey struct {
	KeyType  int64  `cbor:"1,keyasint"`
	Modulus  []byte `cbor:"-1,keyasint"`
	Exponent []byte `cbor:"-2,keyasint"`
}

type keyTypeProbe struct {
	KeyType int64 `cbor:"1,keyasint"`
}

const (
	coseKeyTypeEC2 = 2
	coseKeyTypeRSA = 3
)

// FromCOSE decodes a COSE_Key byte string (as carried in
// AttestedCredentialData.CredentialPublicKey) into the uniform PublicKey,
// so that it can be compared against an X.509 or TPM-derived key by
// material rather than encoding.
func FromCOSE(raw []byte) (PublicKey, error) {
	var probe keyTypeProbe
	if err := cbor.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("cose: malformed COSE_Key: %w", err)
	}

	switch probe.KeyType {
	case coseKeyTypeEC2:
		var k ec2Key
		if err := cbor.Unmarshal(raw, &k); err != nil {
			return nil, fmt.Errorf("cose: malformed EC2 COSE_Key: %w", err)
		}
		curve, ok := curveByTPMID(ecCurveToTPMID(k.Curve))
		if !ok {
			return nil, fmt.Errorf("cose: unsupported EC2 curve %d", k.Curve)
		}
		return ECPublicKey{
			Curve: curve,
			X:     new(big.Int).SetBytes(k.X),
			Y:     new(big.Int).SetBytes(k.Y),
		}, nil
	case coseKeyTypeRSA:
		var k rsaKey
		if err := cbor.Unmarshal(raw, &k); err != nil {
			return nil, fmt.Errorf("cose: malformed RSA COSE_Key: %w", err)
		}
		if len(k.Exponent) == 0 {
			return nil, errors.New("cose: RSA key missing exponent")
		}
		e := 0
		for _, b := range k.Exponent {
			e = e<<8 | int(b)
		}
		return RSAPublicKey{N: new(big.Int).SetBytes(k.Modulus), E: e}, nil
	default:
		return nil, fmt.Errorf("cose: unsupported COSE key type %d", probe.KeyType)
	}
}

// ecCurveToTPMID maps a COSE EC2 curve identifier (RFC 9053 §7.1) to the
// TPM curve identifier space used by curveByTPMID, since both namespaces
// name the same NIST curves.
func ecCurveToTPMID(coseCurve int64) uint16 {
	switch coseCurve {
	case 1: // P-256
		return 0x0003
	case 2: // P-384
		return 0x0004
	case 3: // P-521
		return 0x0005
	default:
		return 0
	}
}

func hashMessage(alg Algorithm, message []byte) ([]byte, bool) {
	switch alg {
	case AlgorithmES256, AlgorithmRS256, AlgorithmPS256:
		sum := sha256.Sum256(message)
		return sum[:], true
	case AlgorithmES384, AlgorithmRS384, AlgorithmPS384:
		sum := sha512.Sum384(message)
		return sum[:], true
	case AlgorithmES512, AlgorithmRS512, AlgorithmPS512:
		sum := sha512.Sum512(message)
		return sum[:], true
	default:
		return nil, false
	}
}

func hashForAlg(alg Algorithm) crypto.Hash {
	switch alg {
	case AlgorithmES384, AlgorithmRS384, AlgorithmPS384:
		return crypto.SHA384
	case AlgorithmES512, AlgorithmRS512, AlgorithmPS512:
		return crypto.SHA512
	default:
		return crypto.SHA256
	}
}

func isPSS(alg Algorithm) bool {
	switch alg {
	case AlgorithmPS256, AlgorithmPS384, AlgorithmPS512:
		return true
	default:
		return false
	}
}

// HashWithCorrectAlgorithm produces the digest of message using the hash
// algorithm paired with alg, for checking a TPM certInfo's extraData field
// (spec.md §4.6.2 step 5).
func HashWithCorrectAlgorithm(alg Algorithm, message []byte) ([]byte, bool) {
	return hashMessage(alg, message)
}

// Verify checks signature over message using key under alg. It is used both
// for Android Key's direct signature check and for TPM's certInfo
// signature check (spec.md §4.2).
func Verify(alg Algorithm, key PublicKey, message, signature []byte) error {
	digest, ok := hashMessage(alg, message)
	if !ok {
		return fmt.Errorf("cose: unsupported algorithm %d", alg)
	}

	switch k := key.(type) {
	case RSAPublicKey:
		pub := &rsa.PublicKey{N: k.N, E: k.E}
		h := hashForAlg(alg)
		if isPSS(alg) {
			return rsa.VerifyPSS(pub, h, digest, signature, nil)
		}
		return rsa.VerifyPKCS1v15(pub, h, digest, signature)
	case ECPublicKey:
		pub := &ecdsa.PublicKey{Curve: k.Curve, X: k.X, Y: k.Y}
		if !ecdsa.VerifyASN1(pub, digest, signature) {
			return errors.New("cose: ECDSA signature verification failed")
		}
		return nil
	default:
		return fmt.Errorf("cose: unsupported key type %T", key)
	}
}
