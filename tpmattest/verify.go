package tpmattest

import (
	"bytes"
	"crypto/sha1"
	"crypto/sha256"
	"strings"

	"github.com/corewebauthn/attestcore/attresult"
	"github.com/corewebauthn/attestcore/cose"
	"github.com/corewebauthn/attestcore/internal/tpmwire"
)

// tpmVendorIDs is the fixed set of permitted TPM manufacturer identifiers
// (spec.md §6), compared case-insensitively on the hex portion.
var tpmVendorIDs = []string{
	"id:FFFFF1D0", "id:414D4400", "id:41544D4C", "id:4252434D",
	"id:4353434F", "id:464C5953", "id:48504500", "id:49424D00",
	"id:49465800", "id:494E5443", "id:4C454E00", "id:4D534654",
	"id:4E534D20", "id:4E545A00", "id:4E544300", "id:51434F4D",
	"id:534D5343", "id:53544D20", "id:534D534E", "id:534E5300",
	"id:54584E00", "id:57454300", "id:524F4343", "id:474F4F47",
}

func isKnownVendor(manufacturer string) bool {
	for _, id := range tpmVendorIDs {
		if strings.EqualFold(id, manufacturer) {
			return true
		}
	}
	return false
}

func nameAlgHash(alg tpmwire.NameAlg, data []byte) ([]byte, bool) {
	switch alg {
	case tpmwire.NameAlgSHA1:
		sum := sha1.Sum(data)
		return sum[:], true
	case tpmwire.NameAlgSHA256:
		sum := sha256.Sum256(data)
		return sum[:], true
	default:
		return nil, false
	}
}

func u16be(v uint16) []byte {
	return []byte{byte(v >> 8), byte(v)}
}

// Verify runs the TPM attestation checklist of spec.md §4.6.2 in order,
// returning on the first violation. credentialPublicKey and
// credentialAAGUID come from authenticator data's attested credential data.
func Verify(stmt *Statement, adRaw, clientDataHash []byte, credentialPublicKey cose.PublicKey, credentialAAGUID []byte) (attresult.Type, [][]byte, error) {
	// 1. pubAreaKey must equal the credential public key.
	if !stmt.PubAreaKey.Equal(credentialPublicKey) {
		return "", nil, &ErrCredentialKeyMismatch{}
	}

	attToBeSigned := append(append([]byte{}, adRaw...), clientDataHash...)

	// 3. certInfo.magic must be TPM_GENERATED_VALUE.
	if stmt.CertInfo.Magic != tpmwire.GeneratedValue {
		return "", nil, &ErrInvalidMagicNumber{Got: stmt.CertInfo.Magic}
	}

	// 4. certInfo.type must be TPM_ST_ATTEST_CERTIFY.
	if stmt.CertInfo.Type != tpmwire.AttestCertify {
		return "", nil, &ErrInvalidType{Got: stmt.CertInfo.Type}
	}

	// 5. extraData must equal Hash_alg(attToBeSigned).
	attHash, ok := cose.HashWithCorrectAlgorithm(stmt.Alg, attToBeSigned)
	if !ok {
		return "", nil, &ErrUnknownHashFunction{}
	}
	if !bytes.Equal(attHash, stmt.CertInfo.ExtraData) {
		return "", nil, &ErrHashMismatch{Calculated: attHash, Received: stmt.CertInfo.ExtraData}
	}

	// 6. attested.name must equal u16_be(nameAlgRaw) || Hash_nameAlg(pubAreaRaw).
	nameHash, ok := nameAlgHash(stmt.PubArea.NameAlg, stmt.PubAreaRaw)
	if !ok {
		return "", nil, &ErrInvalidNameAlgorithm{}
	}
	pubName := append(u16be(stmt.PubArea.NameAlgRaw), nameHash...)
	if !bytes.Equal(stmt.CertInfo.Attested.Name, pubName) {
		return "", nil, &ErrInvalidName{Expected: pubName, Received: stmt.CertInfo.Attested.Name}
	}

	// 7. sig must verify over certInfoRaw using the AIK certificate's key.
	aikKey, ok := cose.FromX509(stmt.AIKCert.PublicKey)
	if !ok {
		return "", nil, &ErrInvalidPublicKey{}
	}
	if err := cose.Verify(stmt.Alg, aikKey, stmt.CertInfoRaw, stmt.Sig); err != nil {
		return "", nil, &ErrVerificationFailure{}
	}

	// 8. AIK certificate requirements.
	if stmt.AIKCert.Version != 3 {
		return "", nil, &ErrCertificateVersion{Expected: 3, Received: stmt.AIKCert.Version}
	}
	if stmt.AIKCert.Subject.String() != "" {
		return "", nil, &ErrNonEmptySubjectField{}
	}
	if !isKnownVendor(stmt.SubjectAlternativeName.Manufacturer) {
		return "", nil, &ErrUnknownVendor{Manufacturer: stmt.SubjectAlternativeName.Manufacturer}
	}
	if !hasAIKKeyPurposeOID(stmt.ExtendedKeyUsage) {
		return "", nil, &ErrExtKeyOidMissing{}
	}
	if stmt.BasicConstraintsCA {
		return "", nil, &ErrBasicConstraintsTrue{}
	}

	// 9. Optional AAGUID binding.
	if stmt.AAGUIDExt != nil {
		if len(credentialAAGUID) == 0 {
			return "", nil, &ErrCredentialAaguidMissing{}
		}
		if !bytes.Equal(stmt.AAGUIDExt, credentialAAGUID) {
			return "", nil, &ErrCertificateAaguidMismatch{}
		}
	}

	return attresult.Verifiable, stmt.X5C, nil
}
