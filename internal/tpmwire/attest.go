package tpmwire

// GeneratedValue is the magic number TPM_GENERATED_VALUE that marks a
// TPMS_ATTEST structure as TPM-originated.
const GeneratedValue uint32 = 0xFF544347

// AttestCertify is TPM_ST_ATTEST_CERTIFY, the only attestation type this
// decoder cares about.
const AttestCertify uint16 = 0x8017

// ClockInfo is TPMS_CLOCK_INFO, carried for completeness; the verifier
// never consults it (spec.md §4.6.2 note, §9 open question 3).
type ClockInfo struct {
	Clock       uint64
	ResetCount  uint32
	RestartCont uint32
	Safe        bool
}

// CertifyInfo is TPMS_CERTIFY_INFO, the "attested" member of a certInfo
// produced for TPM2_Certify.
type CertifyInfo struct {
	Name          []byte
	QualifiedName []byte
}

// Attest is a decoded TPMS_ATTEST (certInfo). Magic and Type are not
// validated at parse time (spec.md §4.4): the verifier re-checks them as
// distinct, precisely-kinded errors.
type Attest struct {
	Magic           uint32
	Type            uint16
	QualifiedSigner []byte
	ExtraData       []byte
	Clock           ClockInfo
	FirmwareVersion uint64
	Attested        CertifyInfo
}

// DecodeAttest parses a TPMS_ATTEST. It requires the buffer to be
// completely consumed; any short read or leftover byte is an error.
func DecodeAttest(raw []byte) (*Attest, error) {
	r := newReader(raw)

	a := &Attest{}

	magic, err := r.u32("magic")
	if err != nil {
		return nil, err
	}
	a.Magic = magic

	typ, err := r.u16("type")
	if err != nil {
		return nil, err
	}
	a.Type = typ

	qs, err := r.bytes16("qualifiedSigner")
	if err != nil {
		return nil, err
	}
	a.QualifiedSigner = qs

	extra, err := r.bytes16("extraData")
	if err != nil {
		return nil, err
	}
	a.ExtraData = extra

	clock, err := r.u64("clockInfo.clock")
	if err != nil {
		return nil, err
	}
	a.Clock.Clock = clock

	reset, err := r.u32("clockInfo.resetCount")
	if err != nil {
		return nil, err
	}
	a.Clock.ResetCount = reset

	restart, err := r.u32("clockInfo.restartCount")
	if err != nil {
		return nil, err
	}
	a.Clock.RestartCont = restart

	safe, err := r.u8("clockInfo.safe")
	if err != nil {
		return nil, err
	}
	// Only the exact value 1 means true; anything else (including 0xFF)
	// decodes as false. Left as-is: the field is never consulted by the
	// verifier (spec.md §9 open question 3).
	a.Clock.Safe = safe == 1

	fw, err := r.u64("firmwareVersion")
	if err != nil {
		return nil, err
	}
	a.FirmwareVersion = fw

	name, err := r.bytes16("attested.name")
	if err != nil {
		return nil, err
	}
	a.Attested.Name = name

	qname, err := r.bytes16("attested.qualifiedName")
	if err != nil {
		return nil, err
	}
	a.Attested.QualifiedName = qname

	if err := r.done(); err != nil {
		return nil, err
	}

	return a, nil
}
