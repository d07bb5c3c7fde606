package tpmattest

import (
	"errors"

	"github.com/corewebauthn/attestcore/internal/asn1x"
)

// DER primitive tag numbers this SAN walk cares about.
const (
	tagOID             = 6
	tagUTF8String      = 12
	tagPrintableString = 19
	tagT61String       = 20
	tagIA5String       = 22
	tagBMPString       = 30
)

// TCG attribute OIDs carried in the TPM Subject Alternative Name
// extension (spec.md §4.4, §6).
var (
	oidTPMManufacturer = []int{2, 23, 133, 2, 1}
	oidTPMModel        = []int{2, 23, 133, 2, 2}
	oidTPMVersion      = []int{2, 23, 133, 2, 3}
)

// SubjectAltName is the manufacturer/model/version triple extracted from an
// AIK certificate's Subject Alternative Name extension (spec.md §3).
type SubjectAltName struct {
	Manufacturer string
	Model        string
	Version      string
}

// errSANIncomplete marks a structurally well-formed SAN that is missing one
// of the required TCG attributes, distinct from a genuine DER decode
// failure (statement.go maps the two to different error kinds).
var errSANIncomplete = errors.New("tpmattest: SAN missing tpmManufacturer/tpmModel/tpmVersion")

// decodeOID decodes the content bytes of a primitive OBJECT IDENTIFIER
// element (tag and length already stripped) into its arc sequence.
func decodeOID(content []byte) ([]int, error) {
	if len(content) == 0 {
		return nil, errors.New("tpmattest: empty OBJECT IDENTIFIER")
	}
	arcs := make([]int, 0, len(content)+1)
	first := int(content[0])
	arcs = append(arcs, first/40, first%40)

	val := 0
	for _, b := range content[1:] {
		val = val<<7 | int(b&0x7f)
		if b&0x80 == 0 {
			arcs = append(arcs, val)
			val = 0
		}
	}
	return arcs, nil
}

func oidEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func isDirectoryStringTag(tag int) bool {
	switch tag {
	case tagUTF8String, tagPrintableString, tagT61String, tagIA5String, tagBMPString:
		return true
	default:
		return false
	}
}

// ParseSAN decodes the TPM Subject Alternative Name extension (OID
// 2.5.29.17). Because real TPMs disagree on whether the payload is a set of
// sequences or a sequence of sets, the walk is structure-agnostic: it
// flattens every element at any depth and pairs each OBJECT IDENTIFIER with
// the DirectoryString that immediately follows it in document order,
// regardless of the enclosing container shape (spec.md §4.4, §9).
func ParseSAN(der []byte) (*SubjectAltName, error) {
	san := &SubjectAltName{}
	var pendingOID []int

	err := asn1x.FlattenAll(der, func(el asn1x.RawElement) error {
		if el.Constructed {
			return nil
		}
		if el.Tag == tagOID {
			oid, err := decodeOID(el.Bytes)
			if err != nil {
				return err
			}
			pendingOID = oid
			return nil
		}
		if isDirectoryStringTag(el.Tag) && pendingOID != nil {
			value := string(el.Bytes)
			switch {
			case oidEqual(pendingOID, oidTPMManufacturer):
				san.Manufacturer = value
			case oidEqual(pendingOID, oidTPMModel):
				san.Model = value
			case oidEqual(pendingOID, oidTPMVersion):
				san.Version = value
			}
		}
		pendingOID = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	if san.Manufacturer == "" || san.Model == "" || san.Version == "" {
		return nil, errSANIncomplete
	}

	return san, nil
}
