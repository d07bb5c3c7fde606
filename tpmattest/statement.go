package tpmattest

import (
	"crypto/x509"
	"encoding/asn1"
	"errors"

	"github.com/fxamacker/cbor/v2"
	"github.com/mitchellh/mapstructure"

	"github.com/corewebauthn/attestcore/cose"
	"github.com/corewebauthn/attestcore/internal/tpmwire"
)

var (
	oidSAN                 = asn1.ObjectIdentifier{2, 5, 29, 17}
	oidExtendedKeyUsage    = asn1.ObjectIdentifier{2, 5, 29, 37}
	oidBasicConstraints    = asn1.ObjectIdentifier{2, 5, 29, 19}
	oidFIDOGenCEAAGUID     = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 45724, 1, 1, 4}
	oidTCGKPAIKCertificate = asn1.ObjectIdentifier{2, 23, 133, 8, 3}
)

// Statement is a decoded TPM attestation statement (spec.md §3).
type Statement struct {
	Alg                    cose.Algorithm
	X5C                    [][]byte
	AIKCert                *x509.Certificate
	SubjectAlternativeName *SubjectAltName
	AAGUIDExt              []byte // nil if absent
	ExtendedKeyUsage       []asn1.ObjectIdentifier
	BasicConstraintsCA     bool
	Sig                    []byte
	CertInfo               *tpmwire.Attest
	CertInfoRaw            []byte
	PubArea                *tpmwire.Public
	PubAreaRaw             []byte
	PubAreaKey             cose.PublicKey
}

type scalarFields struct {
	Ver      string `mapstructure:"ver"`
	Alg      int64  `mapstructure:"alg"`
	Sig      []byte `mapstructure:"sig"`
	CertInfo []byte `mapstructure:"certInfo"`
	PubArea  []byte `mapstructure:"pubArea"`
}

type basicConstraints struct {
	IsCA       bool `asn1:"optional"`
	MaxPathLen int  `asn1:"optional,default:-1"`
}

// Decode extracts and parses a TPM attestation statement (spec.md §4.5).
func Decode(attStmt map[string]interface{}) (*Statement, error) {
	for _, key := range []string{"ver", "alg", "sig", "certInfo", "pubArea", "x5c"} {
		if _, ok := attStmt[key]; !ok {
			return nil, &ErrUnexpectedCborStructure{Statement: attStmt}
		}
	}

	var fields scalarFields
	if err := mapstructure.Decode(attStmt, &fields); err != nil {
		return nil, &ErrUnexpectedCborStructure{Statement: attStmt}
	}

	if fields.Ver != "2.0" {
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

	certInfo, err := tpmwire.DecodeAttest(fields.CertInfo)
	if err != nil {
		return nil, &ErrTpm{Position: "certInfo", Detail: err.Error()}
	}

	pubArea, err := tpmwire.DecodePublic(fields.PubArea)
	if err != nil {
		return nil, &ErrTpm{Position: "pubArea", Detail: err.Error()}
	}

	pubAreaKey, err := reconstructPublicKey(pubArea)
	if err != nil {
		return nil, err
	}

	aikCert, err := x509.ParseCertificate(x5c[0])
	if err != nil {
		return nil, &ErrCertificate{Detail: err.Error()}
	}

	var (
		sanDER  []byte
		ekuDER  []byte
		bcDER   []byte
		aaguid  []byte
		haveSAN bool
		haveEKU bool
		haveBC  bool
	)

	for _, ext := range aikCert.Extensions {
		switch {
		case ext.Id.Equal(oidSAN):
			sanDER = ext.Value
			haveSAN = true
		case ext.Id.Equal(oidExtendedKeyUsage):
			ekuDER = ext.Value
			haveEKU = true
		case ext.Id.Equal(oidBasicConstraints):
			bcDER = ext.Value
			haveBC = true
		case ext.Id.Equal(oidFIDOGenCEAAGUID):
			var raw []byte
			if _, err := asn1.Unmarshal(ext.Value, &raw); err != nil {
				return nil, &ErrAsn1Error{Detail: "AAGUID extension: " + err.Error()}
			}
			aaguid = raw
		}
	}

	if !haveSAN {
		return nil, &ErrCertificateExtensionMissing{OID: oidSAN.String()}
	}
	san, err := ParseSAN(sanDER)
	if err != nil {
		if errors.Is(err, errSANIncomplete) {
			return nil, &ErrCertificateExtension{Detail: err.Error()}
		}
		return nil, &ErrAsn1Error{Detail: "SAN: " + err.Error()}
	}

	if !haveEKU {
		return nil, &ErrCertificateExtensionMissing{OID: oidExtendedKeyUsage.String()}
	}
	var eku []asn1.ObjectIdentifier
	rest, err := asn1.Unmarshal(ekuDER, &eku)
	if err != nil {
		return nil, &ErrAsn1Error{Detail: "extended key usage: " + err.Error()}
	}
	if len(rest) != 0 {
		return nil, &ErrCertificateExtension{Detail: "extended key usage contains trailing data"}
	}

	if !haveBC {
		return nil, &ErrCertificateExtensionMissing{OID: oidBasicConstraints.String()}
	}
	var constraints basicConstraints
	bcRest, err := asn1.Unmarshal(bcDER, &constraints)
	if err != nil {
		return nil, &ErrAsn1Error{Detail: "basic constraints: " + err.Error()}
	}
	if len(bcRest) != 0 {
		return nil, &ErrCertificateExtension{Detail: "basic constraints contains trailing data"}
	}

	return &Statement{
		Alg:                    alg,
		X5C:                    x5c,
		AIKCert:                aikCert,
		SubjectAlternativeName: san,
		AAGUIDExt:              aaguid,
		ExtendedKeyUsage:       eku,
		BasicConstraintsCA:     constraints.IsCA,
		Sig:                    fields.Sig,
		CertInfo:               certInfo,
		CertInfoRaw:            fields.CertInfo,
		PubArea:                pubArea,
		PubAreaRaw:             fields.PubArea,
		PubAreaKey:             pubAreaKey,
	}, nil
}

// Encode re-serializes alg, x5c, sig, certInfo, and pubArea into a fresh
// attestation statement CBOR map (spec.md §8 property 1). DecodeCBOR
// inverts it.
func (s *Statement) Encode() ([]byte, error) {
	x5c := make([]interface{}, len(s.X5C))
	for i, c := range s.X5C {
		x5c[i] = c
	}
	return cbor.Marshal(map[string]interface{}{
		"ver":      "2.0",
		"alg":      int64(s.Alg),
		"sig":      s.Sig,
		"certInfo": s.CertInfoRaw,
		"pubArea":  s.PubAreaRaw,
		"x5c":      x5c,
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

func reconstructPublicKey(pub *tpmwire.Public) (cose.PublicKey, error) {
	switch {
	case pub.RSA != nil:
		return cose.FromTPMRSA(pub.RSA.Modulus, pub.RSA.Exponent), nil
	case pub.ECC != nil:
		key, ok := cose.FromTPMECC(uint16(pub.ECC.Curve), pub.ECC.X, pub.ECC.Y)
		if !ok {
			return nil, &ErrExtractingPublicKey{}
		}
		return key, nil
	default:
		return nil, &ErrExtractingPublicKey{}
	}
}

// hasAIKKeyPurposeOID reports whether eku contains the AIK-certificate OID.
func hasAIKKeyPurposeOID(eku []asn1.ObjectIdentifier) bool {
	for _, oid := range eku {
		if oid.Equal(oidTCGKPAIKCertificate) {
			return true
		}
	}
	return false
}
