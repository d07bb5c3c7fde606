package androidkey

import (
	"bytes"

	"github.com/corewebauthn/attestcore/attresult"
	"github.com/corewebauthn/attestcore/cose"
)

// Android Keymaster constants (spec.md §6).
const (
	kmOriginGenerated int64 = 0
	kmPurposeSign     int64 = 2
)

// TrustLevel is the RP's policy for which authorization list must carry the
// required origin/purpose (spec.md §4.6.1, glossary "TrustLevel").
type TrustLevel int

const (
	// SoftwareEnforced accepts the required origin in either authorization
	// list and, independently, the required purpose in either list.
	SoftwareEnforced TrustLevel = iota
	// TeeEnforced requires the required origin/purpose combination to
	// appear specifically in the TEE-enforced authorization list.
	TeeEnforced
)

// Config is the per-call Android Key format configuration (spec.md §6).
type Config struct {
	RequiredTrustLevel TrustLevel
}

// isExactlySign reports whether purpose is the singleton set {KM_PURPOSE_SIGN}.
// Any superset, e.g. {2, n}, is rejected (spec.md §4.6.1 note).
func isExactlySign(purpose map[int64]struct{}) bool {
	if len(purpose) != 1 {
		return false
	}
	_, ok := purpose[kmPurposeSign]
	return ok
}

func isGeneratedOrigin(origin *int64) bool {
	return origin != nil && *origin == kmOriginGenerated
}

// Verify runs the Android Key attestation checklist of spec.md §4.6.1 in
// order, returning on the first violation. credentialPublicKey is the
// credential public key read out of authenticator data's attested
// credential data.
func Verify(stmt *Statement, adRaw, clientDataHash []byte, credentialPublicKey cose.PublicKey, cfg Config) (attresult.Type, [][]byte, error) {
	// 1. Verify sig over adRaw || clientDataHash using x5c[0]'s key.
	attToBeSigned := append(append([]byte{}, adRaw...), clientDataHash...)
	if err := cose.Verify(stmt.Alg, stmt.PublicKey, attToBeSigned, stmt.Sig); err != nil {
		return "", nil, &ErrVerificationFailure{Detail: err.Error()}
	}

	// 2. Credential public key must equal x5c[0]'s subject public key.
	if !stmt.PublicKey.Equal(credentialPublicKey) {
		return "", nil, &ErrCredentialKeyMismatch{}
	}

	// 3. attestationChallenge must equal clientDataHash byte-for-byte.
	if !bytes.Equal(stmt.AttExt.AttestationChallenge, clientDataHash) {
		return "", nil, &ErrClientDataHashMismatch{}
	}

	// 4. Reject if either list carries allApplications.
	if stmt.AttExt.SoftwareEnforced.AllApplications || stmt.AttExt.TeeEnforced.AllApplications {
		return "", nil, &ErrAllApplicationsFieldFound{}
	}

	sw := stmt.AttExt.SoftwareEnforced
	tee := stmt.AttExt.TeeEnforced

	// 5. Trust-level-dependent origin/purpose check.
	var originOK, purposeOK bool
	switch cfg.RequiredTrustLevel {
	case TeeEnforced:
		originOK = isGeneratedOrigin(tee.Origin)
		purposeOK = tee.HasPurpose && isExactlySign(tee.Purpose)
	default: // SoftwareEnforced
		originOK = isGeneratedOrigin(sw.Origin) || isGeneratedOrigin(tee.Origin)
		purposeOK = (sw.HasPurpose && isExactlySign(sw.Purpose)) || (tee.HasPurpose && isExactlySign(tee.Purpose))
	}

	if !originOK {
		return "", nil, &ErrOriginFieldInvalid{}
	}
	if !purposeOK {
		return "", nil, &ErrPurposeFieldInvalid{}
	}

	return attresult.Basic, stmt.X5C, nil
}
