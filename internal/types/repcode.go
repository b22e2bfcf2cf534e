package types

import "fmt"

// RepCode identifies an RP66 representation code (Appendix B of the
// standard). Values 1 through 27 are defined; everything else is RcUndef.
type RepCode uint8

const (
	RcFshort RepCode = iota + 1 // 16-bit floating point
	RcFsingl                    // IEEE 754 single precision
	RcFsing1                    // validated single (value + bound)
	RcFsing2                    // validated single (value + two bounds)
	RcIsingl                    // IBM 32-bit hex-base-16 floating point
	RcVsingl                    // VAX 32-bit floating point
	RcFdoubl                    // IEEE 754 double precision
	RcFdoub1                    // validated double (value + bound)
	RcFdoub2                    // validated double (value + two bounds)
	RcCsingl                    // single precision complex
	RcCdoubl                    // double precision complex
	RcSshort                    // 8-bit signed integer
	RcSnorm                     // 16-bit signed integer
	RcSlong                     // 32-bit signed integer
	RcUshort                    // 8-bit unsigned integer
	RcUnorm                     // 16-bit unsigned integer
	RcUlong                     // 32-bit unsigned integer
	RcUvari                     // 1-, 2- or 4-byte unsigned integer
	RcIdent                     // short identifier string
	RcAscii                     // long ASCII string
	RcDtime                     // date and time
	RcOrigin                    // origin reference (uvari)
	RcObname                    // object name (origin, copy, ident)
	RcObjref                    // object reference (ident, obname)
	RcAttref                    // attribute reference (ident, obname, ident)
	RcStatus                    // 1-byte boolean
	RcUnits                     // units identifier string
)

// RcUndef marks a representation code outside the defined range. Attributes
// carrying it keep their value list defaulted.
const RcUndef RepCode = 0x42

// VariableSize is returned by Size for codes without a fixed on-disk size.
const VariableSize = 0

// Size returns the on-disk size in bytes of a representation code, or
// VariableSize for the variable-length codes and -1 for undefined codes.
func (rc RepCode) Size() int {
	switch rc {
	case RcFshort:
		return 2
	case RcFsingl:
		return 4
	case RcFsing1:
		return 8
	case RcFsing2:
		return 12
	case RcIsingl:
		return 4
	case RcVsingl:
		return 4
	case RcFdoubl:
		return 8
	case RcFdoub1:
		return 16
	case RcFdoub2:
		return 24
	case RcCsingl:
		return 8
	case RcCdoubl:
		return 16
	case RcSshort:
		return 1
	case RcSnorm:
		return 2
	case RcSlong:
		return 4
	case RcUshort:
		return 1
	case RcUnorm:
		return 2
	case RcUlong:
		return 4
	case RcDtime:
		return 8
	case RcStatus:
		return 1
	case RcUvari, RcIdent, RcAscii, RcOrigin, RcObname, RcObjref, RcAttref, RcUnits:
		return VariableSize
	default:
		return -1
	}
}

// Valid reports whether rc is one of the 27 defined representation codes.
func (rc RepCode) Valid() bool {
	return rc >= RcFshort && rc <= RcUnits
}

// String returns the lowercase mnemonic of the representation code.
func (rc RepCode) String() string {
	switch rc {
	case RcFshort:
		return "fshort"
	case RcFsingl:
		return "fsingl"
	case RcFsing1:
		return "fsing1"
	case RcFsing2:
		return "fsing2"
	case RcIsingl:
		return "isingl"
	case RcVsingl:
		return "vsingl"
	case RcFdoubl:
		return "fdoubl"
	case RcFdoub1:
		return "fdoub1"
	case RcFdoub2:
		return "fdoub2"
	case RcCsingl:
		return "csingl"
	case RcCdoubl:
		return "cdoubl"
	case RcSshort:
		return "sshort"
	case RcSnorm:
		return "snorm"
	case RcSlong:
		return "slong"
	case RcUshort:
		return "ushort"
	case RcUnorm:
		return "unorm"
	case RcUlong:
		return "ulong"
	case RcUvari:
		return "uvari"
	case RcIdent:
		return "ident"
	case RcAscii:
		return "ascii"
	case RcDtime:
		return "dtime"
	case RcOrigin:
		return "origin"
	case RcObname:
		return "obname"
	case RcObjref:
		return "objref"
	case RcAttref:
		return "attref"
	case RcStatus:
		return "status"
	case RcUnits:
		return "units"
	default:
		return fmt.Sprintf("repcode(%d)", uint8(rc))
	}
}
