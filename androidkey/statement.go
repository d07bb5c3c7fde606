package androidkey

import (
	"crypto/x509"
	"encoding/asn1"

	"github.com/fxamacker/cbor/v2"
	"github.com/mitchellh/mapstructure"

	"github.com/corewebauthn/attestcore/cose"
)

// attestationExtensionOID is the Android keystore attestation extension
// (spec.md §4.3, §6).
var attestationExtensionOID = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 11129, 2, 1, 17}

// Statement is a decoded Android Key attestation statement (spec.md §3).
type Statement struct {
	Sig       []byte
	X5C       [][]byte
	Alg       cose.Algorithm
	Cert      *x509.Certificate
	PublicKey cose.PublicKey
	AttExt    *AttestationExtension
}

// scalarFields is what mapstructure decodes directly; x5c needs its own
// pass because it is a CBOR array of byte strings ([]interface{} of
// []byte), not a shape mapstructure's default decoder resolves on its own.
type scalarFields struct {
	Alg int64  `mapstructure:"alg"`
	Sig []byte `mapstructure:"sig"`
}

// Decode extracts sig, alg, and x5c from the already-CBOR-decoded
// attestation statement map, parses x5c[0] as an X.509 certificate, locates
// and parses its attestation extension, and converts its subject public key
// to the uniform cose.PublicKey (spec.md §4.5).
func Decode(attStmt map[string]interface{}) (*Statement, error) {
	if _, ok := attStmt["alg"]; !ok {
		return nil, &ErrUnexpectedCborStructure{Statement: attStmt}
	}
	if _, ok := attStmt["sig"]; !ok {
		return nil, &ErrUnexpectedCborStructure{Statement: attStmt}
	}

	var fields scalarFields
	if err := mapstructure.Decode(attStmt, &fields); err != nil {
		return nil, &ErrUnexpectedCborStructure{Statement: attStmt}
	}

	alg, ok := cose.ToSignAlgorithm(fields.Alg)
	if !ok {
		return nil, &ErrUnknownAlgorithmIdentifier{Alg: fields.Alg}
	}

	rawX5C, ok := attStmt["x5c"].([]interface{})
	if !ok || len(rawX5C) == 0 {
		return nil, &ErrUnexpectedCborStructure{Statement: attStmt}
	}

	x5c := make([][]byte, len(rawX5C))
	for i, v := range rawX5C {
		b, ok := v.([]byte)
		if !ok {
			return nil, &ErrUnexpectedCborStructure{Statement: attStmt}
		}
		x5c[i] = b
	}

	cert, err := x509.ParseCertificate(x5c[0])
	if err != nil {
		return nil, &ErrCertificate{Detail: err.Error()}
	}

	var extDER []byte
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(attestationExtensionOID) {
			extDER = ext.Value
		}
	}
	if extDER == nil {
		return nil, &ErrCertificateExtensionMissing{}
	}

	attExt, err := ParseAttestationExtension(extDER)
	if err != nil {
		return nil, &ErrCertificateExtension{Detail: err.Error()}
	}

	pubKey, ok := cose.FromX509(cert.PublicKey)
	if !ok {
		return nil, &ErrPublicKey{RawKey: cert.PublicKey}
	}

	return &Statement{
		Sig:       fields.Sig,
		X5C:       x5c,
		Alg:       alg,
		Cert:      cert,
		PublicKey: pubKey,
		AttExt:    attExt,
	}, nil
}

// Encode re-serializes sig, alg, and x5c into a fresh attestation statement
// CBOR map (spec.md §8 property 1). DecodeCBOR inverts it.
func (s *Statement) Encode() ([]byte, error) {
	x5c := make([]interface{}, len(s.X5C))
	for i, c := range s.X5C {
		x5c[i] = c
	}
	return cbor.Marshal(map[string]interface{}{
		"alg": int64(s.Alg),
		"sig": s.Sig,
		"x5c": x5c,
	})
}

// DecodeCBOR unmarshals raw CBOR bytes (as produced by Statement.Encode)
// into an attestation statement map and runs Decode on it.
func DecodeCBOR(raw []byte) (*Statement, error) {
	var attStmt map[string]interface{}
	if err := cbor.Unmarshal(raw, &attStmt); err != nil {
		return nil, &ErrUnexpectedCborStructure{}
	}
	return Decode(attStmt)
}
