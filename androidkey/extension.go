package androidkey

import (
	"fmt"

	"github.com/corewebauthn/attestcore/internal/asn1x"
)

// AuthorizationList is a decoded Android Keymaster authorization list
// (spec.md §3, §4.3). Only the three fields the verification engine
// consults are retained; every other tag in the grammar is walked past and
// discarded.
type AuthorizationList struct {
	// Purpose is set when tag [1] was present.
	Purpose    map[int64]struct{}
	HasPurpose bool
	// AllApplications is true when tag [600] was present (presence-only).
	AllApplications bool
	// Origin is non-nil when tag [702] was present.
	Origin *int64
}

// authListTags enumerates, in the ascending order the grammar requires
// (spec.md §4.3), every context tag an AuthorizationList may carry.
var authListTags = []int{
	1, 2, 3, 5, 6, 10, 200, 303, 400, 401, 402,
	503, 504, 505, 506, 507, 508, 509, 600, 601,
	701, 702, 703, 704, 705, 706, 709, 710, 711,
	712, 713, 714, 715, 716, 717, 718, 719,
}

func parseAuthorizationList(seq *asn1x.Reader) (*AuthorizationList, error) {
	al := &AuthorizationList{}

	for _, tag := range authListTags {
		inner, ok, err := seq.Context(tag)
		if err != nil {
			return nil, fmt.Errorf("authorization list tag [%d]: %w", tag, err)
		}
		if !ok {
			continue
		}

		switch tag {
		case 1: // purpose: SET OF INTEGER
			set, err := inner.IntSet()
			if err != nil {
				return nil, fmt.Errorf("purpose: %w", err)
			}
			al.Purpose = set
			al.HasPurpose = true
		case 600: // allApplications: presence only
			al.AllApplications = true
		case 702: // origin: INTEGER
			v, err := inner.Int64()
			if err != nil {
				return nil, fmt.Errorf("origin: %w", err)
			}
			al.Origin = &v
		}
		// Any other recognized-but-uninteresting tag is simply consumed by
		// Context() above and its contents discarded.
	}

	if !seq.Empty() {
		return nil, fmt.Errorf("authorization list has a field outside the known tag grammar")
	}

	return al, nil
}

// AttestationExtension is the decoded Android keystore attestation
// extension, OID 1.3.6.1.4.1.11129.2.1.17 (spec.md §3, §4.3).
type AttestationExtension struct {
	AttestationChallenge []byte
	SoftwareEnforced     *AuthorizationList
	TeeEnforced          *AuthorizationList
}

// ParseAttestationExtension decodes the DER value of the Android keystore
// attestation extension. der is the extension's raw value (the attribute
// SEQUENCE, with the enclosing X.509 Extension OCTET STRING already
// stripped).
func ParseAttestationExtension(der []byte) (*AttestationExtension, error) {
	seq, err := asn1x.NewReader(der).Sequence()
	if err != nil {
		return nil, fmt.Errorf("attestation extension: %w", err)
	}

	if _, err := seq.Int64(); err != nil { // version
		return nil, fmt.Errorf("attestation extension version: %w", err)
	}
	if _, err := seq.Int64(); err != nil { // attestationSecurityLevel
		return nil, fmt.Errorf("attestation extension security level: %w", err)
	}
	if _, err := seq.Int64(); err != nil { // keymasterVersion
		return nil, fmt.Errorf("attestation extension keymaster version: %w", err)
	}
	if _, err := seq.Int64(); err != nil { // keymasterSecurityLevel
		return nil, fmt.Errorf("attestation extension keymaster security level: %w", err)
	}

	challenge, err := seq.OctetString()
	if err != nil {
		return nil, fmt.Errorf("attestation challenge: %w", err)
	}
	if len(challenge) != 32 {
		return nil, fmt.Errorf("attestation challenge must be 32 bytes, got %d", len(challenge))
	}

	// uniqueId: skip exactly one element without inspecting its type
	// (spec.md §9 open question 2).
	if err := seq.SkipAny(); err != nil {
		return nil, fmt.Errorf("attestation extension uniqueId: %w", err)
	}

	swSeq, err := seq.Sequence()
	if err != nil {
		return nil, fmt.Errorf("softwareEnforced: %w", err)
	}
	softwareEnforced, err := parseAuthorizationList(swSeq)
	if err != nil {
		return nil, fmt.Errorf("softwareEnforced: %w", err)
	}

	teeSeq, err := seq.Sequence()
	if err != nil {
		return nil, fmt.Errorf("teeEnforced: %w", err)
	}
	teeEnforced, err := parseAuthorizationList(teeSeq)
	if err != nil {
		return nil, fmt.Errorf("teeEnforced: %w", err)
	}

	if !seq.Empty() {
		return nil, fmt.Errorf("attestation extension has trailing data")
	}

	return &AttestationExtension{
		AttestationChallenge: challenge,
		SoftwareEnforced:     softwareEnforced,
		TeeEnforced:          teeEnforced,
	}, nil
}
