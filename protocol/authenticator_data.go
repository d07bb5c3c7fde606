package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// Flag bits of AuthenticatorData.Flags (WebAuthn §6.1).
const (
	FlagUserPresent  byte = 1 << 0
	FlagUserVerified byte = 1 << 2
	FlagAttested     byte = 1 << 6
	FlagExtensions   byte = 1 << 7
)

// AttestedCredentialData is the variable-length attested credential data
// block of authenticator data (WebAuthn §6.5.1), present when FlagAttested
// is set.
type AttestedCredentialData struct {
	AAGUID uuid.UUID
	// CredentialID is the raw credential ID, credentialIdLength bytes.
	CredentialID []byte
	// CredentialPublicKey is the raw COSE_Key bytes, decoded by
	// cose.FromCOSE.
	CredentialPublicKey []byte
}

// AuthenticatorData is the WebAuthn-defined binary structure produced by
// the authenticator during a ceremony. Parsing it is not part of the
// attestation-format checklists themselves (spec.md §1 scopes ceremony
// handling out), but the checklists need its attested credential public
// key and AAGUID as inputs (spec.md §4.6.1 step 2, §4.6.2 steps 1 and 9),
// so a minimal parser lives here rather than being duplicated per format.
type AuthenticatorData struct {
	RPIDHash  []byte
	Flags     byte
	SignCount uint32
	AttData   AttestedCredentialData
}

const minAuthDataLength = 37 // rpIdHash(32) + flags(1) + signCount(4)

// ParseAuthenticatorData parses the fixed-size header and, if present, the
// attested credential data block. Extensions (if any) are left unparsed:
// they carry no information this engine consumes.
func ParseAuthenticatorData(raw []byte) (*AuthenticatorData, error) {
	if len(raw) < minAuthDataLength {
		return nil, ErrParsingData.WithDetails("authenticator data shorter than the fixed header")
	}

	ad := &AuthenticatorData{
		RPIDHash:  raw[0:32],
		Flags:     raw[32],
		SignCount: binary.BigEndian.Uint32(raw[33:37]),
	}

	rest := raw[minAuthDataLength:]

	if ad.Flags&FlagAttested != 0 {
		const aaguidAndLenSize = 16 + 2
		if len(rest) < aaguidAndLenSize {
			return nil, ErrParsingData.WithDetails("truncated attested credential data header")
		}

		aaguid, err := uuid.FromBytes(rest[0:16])
		if err != nil {
			return nil, ErrParsingData.WithDetails(fmt.Sprintf("invalid AAGUID: %v", err))
		}
		ad.AttData.AAGUID = aaguid

		credIDLen := binary.BigEndian.Uint16(rest[16:18])
		rest = rest[aaguidAndLenSize:]

		if len(rest) < int(credIDLen) {
			return nil, ErrParsingData.WithDetails("truncated credential id")
		}
		ad.AttData.CredentialID = rest[:credIDLen]
		rest = rest[credIDLen:]

		decoderInput := bytes.NewReader(rest)
		dec := cbor.NewDecoder(decoderInput)
		var discard interface{}
		if err := dec.Decode(&discard); err != nil {
			return nil, ErrParsingData.WithDetails(fmt.Sprintf("malformed credential public key: %v", err))
		}
		consumed := len(rest) - decoderInput.Len()
		ad.AttData.CredentialPublicKey = rest[:consumed]
	}

	return ad, nil
}
