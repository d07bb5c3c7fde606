package protocol

// AttestationObject is the already-CBOR-decoded WebAuthn attestation
// object: a format name, a format-specific statement map (still in its
// loosely-typed CBOR form (each format package owns decoding it further),
// and the authenticator data it was produced alongside.
//
// Decoding the outer "fmt"/"attStmt"/"authData" CBOR map, choosing which
// format verifier to invoke, and validating the WebAuthn ceremony itself
// (origin, challenge replay, RP ID hash) are explicitly out of scope here
// (spec.md §1). That selection logic is an external collaborator's job.
// This type exists only so the two format entry points, VerifyAndroidKeyFormat
// and VerifyTPMFormat, have something concrete to take as input.
type AttestationObject struct {
	Format       string
	AttStatement map[string]interface{}
	AuthData     *AuthenticatorData
	RawAuthData  []byte
}
