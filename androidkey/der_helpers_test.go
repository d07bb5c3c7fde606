package androidkey

// Minimal independent DER encoders for building Android keystore
// attestation extension fixtures in tests.

func encodeLength(n int) []byte {
	if n < 0x80 {
		return []byte{byte(n)}
	}
	var body []byte
	for n > 0 {
		body = append([]byte{byte(n & 0xff)}, body...)
		n >>= 8
	}
	return append([]byte{byte(0x80 | len(body))}, body...)
}

func tlv(identifier byte, content []byte) []byte {
	out := append([]byte{identifier}, encodeLength(len(content))...)
	return append(out, content...)
}

func derInt(v int64) []byte {
	if v == 0 {
		return tlv(0x02, []byte{0x00})
	}
	var b []byte
	neg := v < 0
	for v != 0 && v != -1 {
		b = append([]byte{byte(v)}, b...)
		v >>= 8
	}
	if len(b) == 0 || (neg && b[0]&0x80 == 0) || (!neg && b[0]&0x80 != 0) {
		pad := byte(0x00)
		if neg {
			pad = 0xff
		}
		b = append([]byte{pad}, b...)
	}
	return tlv(0x02, b)
}

func derOctetString(b []byte) []byte {
	return tlv(0x04, b)
}

func derSeq(children ...[]byte) []byte {
	var content []byte
	for _, c := range children {
		content = append(content, c...)
	}
	return tlv(0x30, content)
}

func derSet(children ...[]byte) []byte {
	var content []byte
	for _, c := range children {
		content = append(content, c...)
	}
	return tlv(0x31, content)
}

// derContext builds an explicit, constructed context-specific [n] tag,
// supporting tag numbers above 30 via the high-tag-number form.
func derContext(n int, content []byte) []byte {
	const classContextConstructed = 0xA0
	if n < 31 {
		return tlv(byte(classContextConstructed|n), content)
	}
	var tagBytes []byte
	v := n
	tagBytes = append(tagBytes, byte(v&0x7f))
	v >>= 7
	for v > 0 {
		tagBytes = append([]byte{byte(0x80 | (v & 0x7f))}, tagBytes...)
		v >>= 7
	}
	identifier := append([]byte{classContextConstructed | 0x1f}, tagBytes...)
	return append(append(identifier, encodeLength(len(content))...), content...)
}

// authListDER builds a minimal SEQUENCE-shaped AuthorizationList: tag [1]
// purpose (SET OF INTEGER), optional tag [600] allApplications
// (presence-only), tag [702] origin (INTEGER).
func authListDER(purpose []int64, allApplications bool, origin *int64) []byte {
	var fields []byte
	if purpose != nil {
		ints := make([][]byte, len(purpose))
		for i, p := range purpose {
			ints[i] = derInt(p)
		}
		fields = append(fields, derContext(1, derSet(ints...))...)
	}
	if allApplications {
		fields = append(fields, derContext(600, nil)...)
	}
	if origin != nil {
		fields = append(fields, derContext(702, derInt(*origin))...)
	}
	return derSeq(fields)
}

// attestationExtensionDER builds the Android keystore attestation
// extension's SEQUENCE body (spec.md §4.3): version, securityLevel,
// keymasterVersion, keymasterSecurityLevel, attestationChallenge,
// uniqueId, softwareEnforced, teeEnforced.
func attestationExtensionDER(challenge []byte, sw, tee []byte) []byte {
	return derSeq(
		derInt(300),          // attestationVersion
		derInt(1),            // attestationSecurityLevel
		derInt(200603),       // keymasterVersion
		derInt(1),            // keymasterSecurityLevel
		derOctetString(challenge),
		derOctetString(nil), // uniqueId
		sw,
		tee,
	)
}
