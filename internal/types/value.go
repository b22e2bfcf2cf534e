package types

import (
	"fmt"
	"strings"
	"time"
)

// Strong typedefs for the string-like and reference codes. Many codes share
// an underlying representation but carry distinct semantic meaning; keeping
// them as distinct named types makes codec dispatch unambiguous.
type (
	// Ident is a short identifier string, at most 255 bytes.
	Ident string
	// Units is an ident-like units expression.
	Units string
	// Ascii is a long ASCII string, at most 2^30 bytes.
	Ascii string
	// Origin identifies the producer of an object (uvari on disk).
	Origin int32
	// UVari is a 1-, 2- or 4-byte unsigned integer in [0, 2^30).
	UVari int32
	// Status is a 1-byte boolean.
	Status uint8
)

// Obname is a composite object name.
type Obname struct {
	Origin Origin
	Copy   uint8
	ID     Ident
}

// Objref references an object in another set: the set type plus the name.
type Objref struct {
	Type Ident
	Name Obname
}

// Attref references a single attribute of an object in another set.
type Attref struct {
	Type  Ident
	Name  Obname
	Label Ident
}

// DTime is the 8-byte RP66 date-time. Y holds the full year (the on-disk
// byte is an offset from 1900); TZ is 0 for local standard, 1 for local
// daylight saving, 2 for GMT.
type DTime struct {
	Y  int
	TZ int
	M  int
	D  int
	H  int
	MN int
	S  int
	MS int
}

// Time converts to a time.Time. The timezone enumeration carries no UTC
// offset for the local zones, so those map to time.Local.
func (dt DTime) Time() time.Time {
	loc := time.Local
	if dt.TZ == 2 {
		loc = time.UTC
	}
	return time.Date(dt.Y, time.Month(dt.M), dt.D, dt.H, dt.MN, dt.S,
		dt.MS*int(time.Millisecond), loc)
}

// Validated and complex floats are concatenations of their base code.
type (
	// Fsing1 is a single precision value with one bound.
	Fsing1 struct{ V, A float32 }
	// Fsing2 is a single precision value with two bounds.
	Fsing2 struct{ V, A, B float32 }
	// Fdoub1 is a double precision value with one bound.
	Fdoub1 struct{ V, A float64 }
	// Fdoub2 is a double precision value with two bounds.
	Fdoub2 struct{ V, A, B float64 }
)

// Value is one decoded primitive. The concrete type is determined by the
// representation code that produced it:
//
//	fshort, fsingl, isingl, vsingl  float32
//	fdoubl                          float64
//	fsing1/fsing2/fdoub1/fdoub2     Fsing1/Fsing2/Fdoub1/Fdoub2
//	csingl, cdoubl                  complex64, complex128
//	sshort, snorm, slong            int8, int16, int32
//	ushort, unorm, ulong            uint8, uint16, uint32
//	uvari, origin                   UVari, Origin
//	ident, ascii, units             Ident, Ascii, Units
//	dtime                           DTime
//	obname, objref, attref          Obname, Objref, Attref
//	status                          Status
type Value any

// ZeroValue returns the zero of the Go type that rc decodes to, used to
// materialize defaulted attribute values. Undefined codes return nil.
func ZeroValue(rc RepCode) Value {
	switch rc {
	case RcFshort, RcFsingl, RcIsingl, RcVsingl:
		return float32(0)
	case RcFdoubl:
		return float64(0)
	case RcFsing1:
		return Fsing1{}
	case RcFsing2:
		return Fsing2{}
	case RcFdoub1:
		return Fdoub1{}
	case RcFdoub2:
		return Fdoub2{}
	case RcCsingl:
		return complex64(0)
	case RcCdoubl:
		return complex128(0)
	case RcSshort:
		return int8(0)
	case RcSnorm:
		return int16(0)
	case RcSlong:
		return int32(0)
	case RcUshort:
		return uint8(0)
	case RcUnorm:
		return uint16(0)
	case RcUlong:
		return uint32(0)
	case RcUvari:
		return UVari(0)
	case RcOrigin:
		return Origin(0)
	case RcIdent:
		return Ident("")
	case RcAscii:
		return Ascii("")
	case RcUnits:
		return Units("")
	case RcDtime:
		return DTime{}
	case RcObname:
		return Obname{}
	case RcObjref:
		return Objref{}
	case RcAttref:
		return Attref{}
	case RcStatus:
		return Status(0)
	default:
		return nil
	}
}

// Fingerprint derives a stable printable key from the object name and the
// type of the set that holds it. Bytes of the type and id outside
// [0-9A-Za-z._-] are %XX-escaped so the key is printable. '-' and '.' are
// not escaped, so a type or id containing a separator such as "-I." can
// give the same key as a different name.
func (o Obname) Fingerprint(typ string) Ident {
	var sb strings.Builder
	sb.WriteString("T.")
	escapeInto(&sb, typ)
	sb.WriteString("-I.")
	escapeInto(&sb, string(o.ID))
	fmt.Fprintf(&sb, "-O.%d-C.%d", o.Origin, o.Copy)
	return Ident(sb.String())
}

// Fingerprint of the referenced object, keyed by the reference's own type.
func (o Objref) Fingerprint() Ident {
	return o.Name.Fingerprint(string(o.Type))
}

func escapeInto(sb *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9',
			c >= 'A' && c <= 'Z',
			c >= 'a' && c <= 'z',
			c == '.', c == '_', c == '-':
			sb.WriteByte(c)
		default:
			fmt.Fprintf(sb, "%%%02X", c)
		}
	}
}
