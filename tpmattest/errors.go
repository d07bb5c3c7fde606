package tpmattest

import "fmt"

// Decoding errors (spec.md §7).

// ErrUnexpectedCborStructure is returned when the attestation statement map
// is missing a required key or has a wrong-typed value.
type ErrUnexpectedCborStructure struct {
	Statement map[string]interface{}
}

func (e *ErrUnexpectedCborStructure) Error() string {
	return "tpmattest: unexpected CBOR structure in attestation statement"
}

// ErrCertificate wraps a failure to parse x5c[0] as an X.509 certificate.
type ErrCertificate struct {
	Detail string
}

func (e *ErrCertificate) Error() string {
	return "tpmattest: certificate error: " + e.Detail
}

// ErrUnknownAlgorithmIdentifier is returned for an unrecognized COSE alg.
type ErrUnknownAlgorithmIdentifier struct {
	Alg int64
}

func (e *ErrUnknownAlgorithmIdentifier) Error() string {
	return fmt.Sprintf("tpmattest: unknown COSE algorithm identifier %d", e.Alg)
}

// ErrTpm wraps a TPM wire-decoding failure (certInfo/pubArea), carrying a
// position marker for diagnosis.
type ErrTpm struct {
	Position string
	Detail   string
}

func (e *ErrTpm) Error() string {
	return fmt.Sprintf("tpmattest: TPM structure error at %s: %s", e.Position, e.Detail)
}

// ErrCertificateExtensionMissing is returned when a required AIK
// certificate extension (SAN, EKU, or Basic Constraints) is absent.
type ErrCertificateExtensionMissing struct {
	OID string
}

func (e *ErrCertificateExtensionMissing) Error() string {
	return "tpmattest: required certificate extension missing: " + e.OID
}

// ErrCertificateExtension is returned when a required extension is present
// but malformed.
type ErrCertificateExtension struct {
	Detail string
}

func (e *ErrCertificateExtension) Error() string {
	return "tpmattest: malformed certificate extension: " + e.Detail
}

// ErrExtractingPublicKey is returned when pubArea's key material cannot be
// reconstructed into the uniform PublicKey.
type ErrExtractingPublicKey struct{}

func (e *ErrExtractingPublicKey) Error() string {
	return "tpmattest: unable to extract public key from pubArea"
}

// Verification errors (spec.md §7).

type ErrCredentialKeyMismatch struct{}

func (e *ErrCredentialKeyMismatch) Error() string {
	return "tpmattest: pubAreaKey does not match credential public key"
}

type ErrInvalidMagicNumber struct{ Got uint32 }

func (e *ErrInvalidMagicNumber) Error() string {
	return fmt.Sprintf("tpmattest: invalid magic number 0x%08x", e.Got)
}

type ErrInvalidType struct{ Got uint16 }

func (e *ErrInvalidType) Error() string {
	return fmt.Sprintf("tpmattest: invalid certInfo type 0x%04x", e.Got)
}

type ErrInvalidNameAlgorithm struct{}

func (e *ErrInvalidNameAlgorithm) Error() string {
	return "tpmattest: invalid name algorithm"
}

type ErrInvalidName struct {
	Expected, Received []byte
}

func (e *ErrInvalidName) Error() string {
	return "tpmattest: certInfo attested name does not match pubArea"
}

type ErrInvalidPublicKey struct{}

func (e *ErrInvalidPublicKey) Error() string {
	return "tpmattest: invalid public key"
}

type ErrCertificateVersion struct {
	Expected, Received int
}

func (e *ErrCertificateVersion) Error() string {
	return fmt.Sprintf("tpmattest: AIK certificate version %d, want %d", e.Received, e.Expected)
}

type ErrVerificationFailure struct{}

func (e *ErrVerificationFailure) Error() string {
	return "tpmattest: signature verification failed"
}

type ErrNonEmptySubjectField struct{}

func (e *ErrNonEmptySubjectField) Error() string {
	return "tpmattest: AIK certificate subject must be empty"
}

type ErrUnknownVendor struct{ Manufacturer string }

func (e *ErrUnknownVendor) Error() string {
	return "tpmattest: unknown TPM manufacturer " + e.Manufacturer
}

type ErrExtKeyOidMissing struct{}

func (e *ErrExtKeyOidMissing) Error() string {
	return "tpmattest: AIK certificate missing AIK extended key usage OID"
}

type ErrBasicConstraintsTrue struct{}

func (e *ErrBasicConstraintsTrue) Error() string {
	return "tpmattest: AIK certificate basic constraints CA is true"
}

type ErrCertificateAaguidMismatch struct{}

func (e *ErrCertificateAaguidMismatch) Error() string {
	return "tpmattest: certificate AAGUID does not match authenticator data AAGUID"
}

type ErrAsn1Error struct{ Detail string }

func (e *ErrAsn1Error) Error() string {
	return "tpmattest: ASN.1 error: " + e.Detail
}

type ErrCredentialAaguidMissing struct{}

func (e *ErrCredentialAaguidMissing) Error() string {
	return "tpmattest: authenticator data missing AAGUID"
}

type ErrUnknownHashFunction struct{}

func (e *ErrUnknownHashFunction) Error() string {
	return "tpmattest: unknown hash function for name algorithm"
}

type ErrHashMismatch struct {
	Calculated, Received []byte
}

func (e *ErrHashMismatch) Error() string {
	return "tpmattest: extraData does not match hash of attToBeSigned"
}
