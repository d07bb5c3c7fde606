// Package attresult names the small, shared vocabulary of attestation-type
// results both format verifiers return (spec.md §6 "Outputs").
package attresult

// Type is a WebAuthn attestation type, as defined by the verification
// engine that produced it.
type Type string

const (
	// Basic is returned by a successful Android Key verification.
	Basic Type = "Basic"
	// Verifiable is returned by a successful TPM verification. TPM
	// attestation is "verifiable" in the sense that a trust path was
	// produced, but whether the AIK itself is trustworthy remains the
	// caller's chain-validation decision (spec.md §4.6.2 calls this
	// "Verifiable / Uncertain").
	Verifiable Type = "Verifiable"
)
