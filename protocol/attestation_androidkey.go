package protocol

import (
	"github.com/corewebauthn/attestcore/androidkey"
	"github.com/corewebauthn/attestcore/attresult"
	"github.com/corewebauthn/attestcore/cose"
)

// VerifyAndroidKeyFormat decodes and verifies an Android Key attestation
// statement against the given authenticator data and client-data hash
// (spec.md §4.5, §4.6.1). cfg.RequiredTrustLevel configures how strict the
// authorization-list checks are (spec.md glossary "TrustLevel").
func VerifyAndroidKeyFormat(att AttestationObject, clientDataHash []byte, cfg androidkey.Config) (attresult.Type, [][]byte, error) {
	stmt, err := androidkey.Decode(att.AttStatement)
	if err != nil {
		return "", nil, err
	}

	credentialKey, err := cose.FromCOSE(att.AuthData.AttData.CredentialPublicKey)
	if err != nil {
		return "", nil, ErrParsingData.WithDetails(err.Error())
	}

	return androidkey.Verify(stmt, att.RawAuthData, clientDataHash, credentialKey, cfg)
}
