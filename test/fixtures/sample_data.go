// Package fixtures builds the binary sample files the test suites read.
// The builders assemble wire-format bytes directly, so the tests exercise
// the readers against the layouts the standards define rather than against
// the encoders under test.
package fixtures

import "encoding/binary"

// Logical record segment attribute bits, mirrored here so the builders do
// not depend on the package under test.
const (
	SegExplicit    = 0x80
	SegPredecessor = 0x40
	SegSuccessor   = 0x20
	SegEncrypted   = 0x10
	SegChecksum    = 0x04
	SegTrailingLen = 0x02
	SegPadding     = 0x01
)

// BinarySUL builds the 80-byte storage unit label.
func BinarySUL() []byte {
	sul := make([]byte, 0, 80)
	sul = append(sul, []byte("0001")...)
	sul = append(sul, []byte("V1.00")...)
	sul = append(sul, []byte("RECORD")...)
	sul = append(sul, []byte(" 8192")...)
	id := "Default Storage Set"
	sul = append(sul, []byte(id)...)
	for len(sul) < 80 {
		sul = append(sul, ' ')
	}
	return sul
}

// BinaryLRSH builds a logical record segment header. The length covers the
// header itself plus the payload.
func BinaryLRSH(length int, attrs uint8, typ uint8) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint16(b[0:2], uint16(length))
	b[2] = attrs
	b[3] = typ
	return b
}

// BinarySegment builds one logical record segment around payload.
func BinarySegment(attrs uint8, typ uint8, payload []byte) []byte {
	return append(BinaryLRSH(4+len(payload), attrs, typ), payload...)
}

// BinaryVisibleRecord wraps body in an RP66 visible record envelope.
func BinaryVisibleRecord(body []byte) []byte {
	vr := make([]byte, 4, 4+len(body))
	binary.BigEndian.PutUint16(vr[0:2], uint16(4+len(body)))
	vr[2] = 0xFF
	vr[3] = 0x01
	return append(vr, body...)
}

// BinaryTapeImageRecord prepends a tape image header to body. head is the
// physical offset of the header itself.
func BinaryTapeImageRecord(head int, body []byte) []byte {
	b := make([]byte, 12, 12+len(body))
	binary.LittleEndian.PutUint32(b[0:4], 0)
	binary.LittleEndian.PutUint32(b[4:8], 0)
	binary.LittleEndian.PutUint32(b[8:12], uint32(head+12+len(body)))
	return append(b, body...)
}

// BinaryTapeMark builds a tape mark header. head is the physical offset of
// the mark; prev of the previous header.
func BinaryTapeMark(head, prev int) []byte {
	b := make([]byte, 12)
	binary.LittleEndian.PutUint32(b[0:4], 1)
	binary.LittleEndian.PutUint32(b[4:8], uint32(prev))
	binary.LittleEndian.PutUint32(b[8:12], uint32(head+12))
	return b
}

// Component descriptor builders for explicitly formatted records.

// uvariByte encodes small unsigned values in the 1-byte uvari form.
func uvariByte(v int) byte {
	return byte(v & 0x7F)
}

func identBytes(s string) []byte {
	return append([]byte{byte(len(s))}, s...)
}

// SetComponent builds a SET descriptor with type and optional name.
func SetComponent(typ, name string) []byte {
	desc := byte(7<<5 | 0x10)
	if name != "" {
		desc |= 0x08
	}
	out := append([]byte{desc}, identBytes(typ)...)
	if name != "" {
		out = append(out, identBytes(name)...)
	}
	return out
}

// TemplateAttribute builds an ATTRIB component carrying label, count, reprc
// and optionally a value list (pre-encoded per the repcode).
func TemplateAttribute(label string, count int, reprc uint8, value []byte) []byte {
	desc := byte(1<<5 | 0x10 | 0x08 | 0x04)
	if value != nil {
		desc |= 0x01
	}
	out := append([]byte{desc}, identBytes(label)...)
	out = append(out, uvariByte(count))
	out = append(out, reprc)
	out = append(out, value...)
	return out
}

// ObjectComponent builds an OBJECT descriptor followed by the object name.
func ObjectComponent(origin int, copyNr uint8, id string) []byte {
	out := []byte{3<<5 | 0x10}
	out = append(out, uvariByte(origin), copyNr)
	out = append(out, identBytes(id)...)
	return out
}

// ObjectAttributeValue builds an ATTRIB component carrying only a value.
func ObjectAttributeValue(value []byte) []byte {
	return append([]byte{1<<5 | 0x01}, value...)
}

// AbsentAttribute builds an ABSATR component.
func AbsentAttribute() []byte {
	return []byte{0 << 5}
}

// ObjectAttributeCount builds an ATTRIB component carrying only a count.
func ObjectAttributeCount(count int) []byte {
	return []byte{1<<5 | 0x08, uvariByte(count)}
}

// AsciiValue encodes one ascii value (uvari length + bytes).
func AsciiValue(s string) []byte {
	return append([]byte{byte(len(s))}, s...)
}

// IdentValue encodes one ident value.
func IdentValue(s string) []byte {
	return identBytes(s)
}

// Obname encodes an object name value.
func Obname(origin int, copyNr uint8, id string) []byte {
	out := []byte{uvariByte(origin), copyNr}
	return append(out, identBytes(id)...)
}

// SampleFileHeaderSet builds the body of a FILE-HEADER EFLR with one
// object: a SEQUENCE-NUMBER ascii attribute (defaulted in the template,
// overridden in the object) and an ID ident attribute.
func SampleFileHeaderSet() []byte {
	var body []byte
	body = append(body, SetComponent("FILE-HEADER", "0")...)
	body = append(body, TemplateAttribute("SEQUENCE-NUMBER", 1, 20, AsciiValue("0"))...)
	body = append(body, TemplateAttribute("ID", 1, 19, nil)...)
	body = append(body, ObjectComponent(0, 0, "N")...)
	body = append(body, ObjectAttributeValue(AsciiValue("199"))...)
	body = append(body, ObjectAttributeValue(IdentValue("WELL-LOG"))...)
	return body
}

// SampleFdataBody builds an implicit (FDATA) record body: the FRAME obname
// followed by raw sample bytes.
func SampleFdataBody(frame string, data []byte) []byte {
	return append(Obname(0, 0, frame), data...)
}
