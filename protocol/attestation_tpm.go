package protocol

import (
	"github.com/corewebauthn/attestcore/attresult"
	"github.com/corewebauthn/attestcore/cose"
	"github.com/corewebauthn/attestcore/tpmattest"
)

// VerifyTPMFormat decodes and verifies a TPM attestation statement against
// the given authenticator data and client-data hash (spec.md §4.5, §4.6.2).
func VerifyTPMFormat(att AttestationObject, clientDataHash []byte) (attresult.Type, [][]byte, error) {
	stmt, err := tpmattest.Decode(att.AttStatement)
	if err != nil {
		return "", nil, err
	}

	credentialKey, err := cose.FromCOSE(att.AuthData.AttData.CredentialPublicKey)
	if err != nil {
		return "", nil, ErrParsingData.WithDetails(err.Error())
	}

	aaguid := att.AuthData.AttData.AAGUID
	return tpmattest.Verify(stmt, att.RawAuthData, clientDataHash, credentialKey, aaguid[:])
}
