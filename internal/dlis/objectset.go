package dlis

import (
	"fmt"

	"github.com/yamaru/welllog-tool/internal/codec"
	"github.com/yamaru/welllog-tool/internal/diag"
	"github.com/yamaru/welllog-tool/internal/types"
)

// descriptorSize is the size of a component descriptor.
const descriptorSize = 1

// Component roles: the top three bits of a descriptor.
const (
	RoleAbsatr = iota // absent attribute
	RoleAttrib        // attribute
	RoleInvatr        // invariant attribute
	RoleObject        // object
	RoleReserved
	RoleRDSet // redundant set
	RoleRSet  // replacement set
	RoleSet   // set
)

// RoleName returns the uppercase role mnemonic.
func RoleName(role int) string {
	switch role {
	case RoleAbsatr:
		return "ABSATR"
	case RoleAttrib:
		return "ATTRIB"
	case RoleInvatr:
		return "INVATR"
	case RoleObject:
		return "OBJECT"
	case RoleRDSet:
		return "RDSET"
	case RoleRSet:
		return "RSET"
	case RoleSet:
		return "SET"
	default:
		return fmt.Sprintf("role(%d)", role)
	}
}

func componentRole(desc uint8) int {
	return int(desc >> 5)
}

// Presence flags, interpreted per role.
type setFlags struct {
	role int
	typ  bool
	name bool
}

type attrFlags struct {
	label bool
	count bool
	reprc bool
	units bool
	value bool

	object    bool
	absent    bool
	invariant bool
}

func parseSetDescriptor(desc uint8) (setFlags, error) {
	role := componentRole(desc)
	switch role {
	case RoleSet, RoleRSet, RoleRDSet:
	default:
		return setFlags{}, fmt.Errorf("%w: error parsing object set descriptor: "+
			"expected SET, RSET or RDSET, was %s (%08b)",
			types.ErrParse, RoleName(role), desc)
	}
	return setFlags{
		role: role,
		typ:  desc&0x10 != 0,
		name: desc&0x08 != 0,
	}, nil
}

func parseAttributeDescriptor(desc uint8) (attrFlags, error) {
	role := componentRole(desc)
	switch role {
	case RoleAbsatr:
		return attrFlags{absent: true}, nil
	case RoleObject:
		return attrFlags{object: true}, nil
	case RoleInvatr, RoleAttrib:
	default:
		return attrFlags{}, fmt.Errorf("%w: error parsing attribute descriptor: "+
			"expected ATTRIB, INVATR, ABSATR or OBJECT, was %s (%08b)",
			types.ErrParse, RoleName(role), desc)
	}
	return attrFlags{
		invariant: role == RoleInvatr,
		label:     desc&0x10 != 0,
		count:     desc&0x08 != 0,
		reprc:     desc&0x04 != 0,
		units:     desc&0x02 != 0,
		value:     desc&0x01 != 0,
	}, nil
}

func parseObjectDescriptor(desc uint8) (bool, error) {
	role := componentRole(desc)
	if role != RoleObject {
		return false, fmt.Errorf("%w: error parsing object descriptor: "+
			"expected OBJECT, was %s (%08b)",
			types.ErrParse, RoleName(role), desc)
	}
	return desc&0x10 != 0, nil
}

// Attribute is one labelled, typed value list. A nil Value with Count > 0
// means the template default was never materialized; an explicitly absent
// attribute is removed from its object instead.
type Attribute struct {
	Label     types.Ident
	Count     int32
	Reprc     types.RepCode
	Units     types.Units
	Value     []types.Value
	Invariant bool
	Info      []diag.Problem
}

func defaultAttribute() Attribute {
	return Attribute{Count: 1, Reprc: types.RcIdent}
}

// readReprc reads a representation code field, downgrading out-of-range
// codes to RcUndef with a problem on the attribute.
func (a *Attribute) readReprc(b []byte) (int, error) {
	x, n, err := codec.Ushort(b)
	if err != nil {
		return 0, err
	}
	rc := types.RepCode(x)
	if !rc.Valid() {
		a.Info = append(a.Info, diag.Problem{
			Severity:      diag.Info,
			Problem:       fmt.Sprintf("Invalid representation code %d", x),
			Specification: "Appendix B: Representation Codes",
			Action:        "Continue. Postpone dealing with this until later",
		})
		a.Reprc = types.RcUndef
		return n, nil
	}
	a.Reprc = rc
	return n, nil
}

// readElements reads Count values of Reprc. Count zero explicitly unsets
// the value.
func (a *Attribute) readElements(b []byte) (int, error) {
	n := int(a.Count)
	if n == 0 {
		a.Value = nil
		return 0, nil
	}
	vals := make([]types.Value, 0, n)
	consumed := 0
	for i := 0; i < n; i++ {
		v, m, err := codec.Decode(a.Reprc, b[consumed:])
		if err != nil {
			return consumed, err
		}
		vals = append(vals, v)
		consumed += m
	}
	a.Value = vals
	return consumed, nil
}

// patchMissingValue fills in a value for an attribute whose count is set
// but whose value never appeared. An existing default shrinks when the new
// count is smaller and stays (with an error logged) when it is larger; with
// no default, a zero-filled list of the declared code is materialized.
func patchMissingValue(a *Attribute) {
	count := int(a.Count)

	if a.Value != nil {
		size := len(a.Value)
		if size == count {
			return
		}
		if size > count {
			a.Value = a.Value[:count]
			a.Info = append(a.Info, diag.Problem{
				Severity: diag.Warning,
				Problem: fmt.Sprintf("Default value is not overridden, but new "+
					"count is. count (which is %d) < original count (which is %d)",
					count, size),
				Specification: "3.2.2.1 Component Descriptor: The number of " +
					"Elements that make up the Value is specified by the Count " +
					"Characteristic.",
				Action: "shrank default value to new count",
			})
			return
		}
		a.Info = append(a.Info, diag.Problem{
			Severity: diag.Error,
			Problem: fmt.Sprintf("Default value is not overridden, but new "+
				"count is. count (which is %d) > original count (which is %d)",
				count, size),
			Specification: "3.2.2.1 Component Descriptor: The number of " +
				"Elements that make up the Value is specified by the Count " +
				"Characteristic.",
			Action: "value is left as default. Continue processing",
		})
		return
	}

	zero := types.ZeroValue(a.Reprc)
	if zero == nil {
		a.Info = append(a.Info, diag.Problem{
			Severity: diag.Error,
			Problem: fmt.Sprintf("value is declared, but representation code "+
				"is unknown %d, hence unable to interpret", uint8(a.Reprc)),
			Specification: "Appendix B: Representation Codes",
			Action:        "attribute value is left as default. Continue processing",
		})
		return
	}
	vals := make([]types.Value, count)
	for i := range vals {
		vals[i] = zero
	}
	a.Value = vals
}

// Object is one named copy of the template, overlaid with its overrides.
type Object struct {
	Type       types.Ident
	Name       types.Obname
	Attributes []Attribute
	Info       []diag.Problem
}

// Set inserts or updates the attribute with the same label.
func (o *Object) Set(attr Attribute) {
	for i := range o.Attributes {
		if o.Attributes[i].Label == attr.Label {
			o.Attributes[i] = attr
			return
		}
	}
	o.Attributes = append(o.Attributes, attr)
}

// Remove deletes the attribute with the same label, if present.
func (o *Object) Remove(label types.Ident) {
	out := o.Attributes[:0]
	for _, a := range o.Attributes {
		if a.Label != label {
			out = append(out, a)
		}
	}
	o.Attributes = out
}

// At returns the attribute with the given label. Attribute counts per
// object are small, so the scan is linear.
func (o *Object) At(label string) (*Attribute, error) {
	for i := range o.Attributes {
		if string(o.Attributes[i].Label) == label {
			return &o.Attributes[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no attribute %q on object %q",
		types.ErrInvalidArgument, label, o.Name.ID)
}

// Len returns the number of attributes on the object.
func (o *Object) Len() int {
	return len(o.Attributes)
}

// Fingerprint keys the object by its name and set type.
func (o *Object) Fingerprint() types.Ident {
	return o.Name.Fingerprint(string(o.Type))
}

// ObjectSet is a parsed set component stream: the set descriptor, the
// attribute template, and the objects instantiated from it. Parsing past
// the descriptor is lazy.
type ObjectSet struct {
	Type types.Ident
	Name types.Ident
	Role int
	Info []diag.Problem

	record   Record
	template []Attribute
	objects  []Object
	parsed   bool
}

// NewObjectSet wraps an explicitly formatted record and parses its set
// descriptor. Descriptor problems above the escape level fail construction.
func NewObjectSet(rec Record) (*ObjectSet, error) {
	os := &ObjectSet{record: rec}
	if _, err := os.parseSetComponent(rec.Data); err != nil {
		p := diag.Problem{
			Severity: diag.Error,
			Problem:  err.Error(),
			Action:   "parsing set components interrupted",
		}
		if rerr := diag.Report([]diag.Problem{p}, "object set creation: error on parsing types"); rerr != nil {
			return nil, rerr
		}
	}
	return os, nil
}

func (os *ObjectSet) parseSetComponent(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: eflr must be non-empty", types.ErrParse)
	}
	flags, err := parseSetDescriptor(data[0])
	if err != nil {
		return 0, err
	}
	cur := descriptorSize
	if cur >= len(data) {
		return cur, fmt.Errorf("%w: unexpected end-of-record after SET descriptor",
			types.ErrParse)
	}

	switch flags.role {
	case RoleRDSet:
		os.Info = append(os.Info, diag.Problem{
			Severity: diag.Info,
			Problem:  "Redundant sets are not supported",
			Specification: "3.2.2.2 Component Usage: A Redundant Set is an " +
				"identical copy of some Set written previously in the same " +
				"Logical File",
			Action: "Set will be processed as a usual one, which might lead " +
				"to issues with duplicated objects",
		})
	case RoleRSet:
		os.Info = append(os.Info, diag.Problem{
			Severity: diag.Warning,
			Problem:  "Replacement sets are not supported",
			Specification: "3.2.2.2 Component Usage: Attributes of the " +
				"Replacement Set reflect all updates that may have been " +
				"applied since the original Set was written",
			Action: "Set will be processed as a usual one, which might lead " +
				"to issues with duplicated objects and invalid information",
		})
	}

	if !flags.typ {
		os.Info = append(os.Info, diag.Problem{
			Severity: diag.Warning,
			Problem:  "SET:type not set",
			Specification: "3.2.2.1 Component Descriptor: A Set's Type " +
				"Characteristic must be non-null and must always be " +
				"explicitly present in the Set Component",
			Action: "Assumed descriptor corrupted, attempt to read type anyway",
		})
	}

	typ, n, err := codec.IdentDec(data[cur:])
	if err != nil {
		return cur, err
	}
	cur += n

	var name types.Ident
	if flags.name {
		name, n, err = codec.IdentDec(data[cur:])
		if err != nil {
			return cur, err
		}
		cur += n
	}

	os.Type = typ
	os.Name = name
	os.Role = flags.role
	return cur, nil
}

func (os *ObjectSet) parseTemplate(data []byte, cur int) (int, error) {
	for {
		if cur >= len(data) {
			return cur, fmt.Errorf("%w: unexpected end-of-record in template",
				types.ErrParse)
		}
		flags, err := parseAttributeDescriptor(data[cur])
		if err != nil {
			return cur, err
		}
		if flags.object {
			return cur, nil
		}
		cur += descriptorSize

		if flags.absent {
			os.Info = append(os.Info, diag.Problem{
				Severity: diag.Warning,
				Problem:  "Absent Attribute in object template",
				Specification: "3.2.2.2 Component Usage: A Template consists " +
					"of a collection of Attribute Components and/or Invariant " +
					"Attribute Components, mixed in any fashion.",
				Action: "Skipped",
			})
			continue
		}

		attr := defaultAttribute()

		if !flags.label {
			os.Info = append(os.Info, diag.Problem{
				Severity: diag.Warning,
				Problem:  "Label not set in template",
				Specification: "3.2.2.2 Component Usage: All Components in the " +
					"Template must have distinct, non-null Labels.",
				Action: "Assumed descriptor corrupted, attempt to read label anyway",
			})
		}

		label, n, err := codec.IdentDec(data[cur:])
		if err != nil {
			return cur, err
		}
		attr.Label = label
		cur += n

		if flags.count {
			count, n, err := codec.Uvari(data[cur:])
			if err != nil {
				return cur, err
			}
			attr.Count = count
			cur += n
		}
		if flags.reprc {
			n, err := attr.readReprc(data[cur:])
			if err != nil {
				return cur, err
			}
			cur += n
		}
		if flags.units {
			units, n, err := codec.UnitsDec(data[cur:])
			if err != nil {
				return cur, err
			}
			attr.Units = units
			cur += n
		}
		if flags.value {
			n, err := attr.readElements(data[cur:])
			if err != nil {
				return cur, err
			}
			cur += n
		}
		attr.Invariant = flags.invariant

		os.template = append(os.template, attr)

		if cur == len(data) {
			os.Info = append(os.Info, diag.Problem{
				Severity: diag.Debug,
				Problem:  "Set contains no objects",
				Specification: "3.2.2.2 Component Usage: A Set consists of " +
					"one or more Objects",
			})
			return cur, nil
		}
	}
}

func (os *ObjectSet) parseObjects(data []byte, cur int) (int, error) {
	for cur < len(data) {
		nameSet, err := parseObjectDescriptor(data[cur])
		if err != nil {
			return cur, err
		}
		cur += descriptorSize

		current := Object{Type: os.Type}
		for _, attr := range os.template {
			current.Set(attr)
		}

		if !nameSet {
			current.Info = append(current.Info, diag.Problem{
				Severity: diag.Warning,
				Problem:  "OBJECT:name was not set",
				Specification: "3.2.2.1 Component Descriptor: That is, every " +
					"Object has a non-null Name",
				Action: "Assumed descriptor corrupted, attempt to read name anyway",
			})
		}

		name, n, err := codec.ObnameDec(data[cur:])
		if err != nil {
			return cur, err
		}
		current.Name = name
		cur += n

		for _, templateAttr := range os.template {
			if templateAttr.Invariant {
				continue
			}
			if cur == len(data) {
				break
			}
			flags, err := parseAttributeDescriptor(data[cur])
			if err != nil {
				return cur, err
			}
			if flags.object {
				break
			}

			// Only advance once this is surely not the next object.
			cur += descriptorSize

			attr := templateAttr

			// Absent means no meaning, so unset whatever is there.
			if flags.absent {
				current.Remove(attr.Label)
				continue
			}

			if flags.invariant {
				attr.Info = append(attr.Info, diag.Problem{
					Severity: diag.Warning,
					Problem:  "Invariant attribute in object attributes",
					Specification: "3.2.2.2 Component Usage: Invariant " +
						"Attribute Components, which may only appear in the " +
						"Template [...]",
					Action: "ignored invariant bit, assumed that attribute followed",
				})
			}
			if flags.label {
				attr.Info = append(attr.Info, diag.Problem{
					Severity: diag.Warning,
					Problem:  "Label bit set in object attribute",
					Specification: "3.2.2.2 Component Usage: Attribute " +
						"Components that follow Object Components must not " +
						"have Attribute Labels",
					Action: "ignored label bit, assumed that label never followed",
				})
			}

			if flags.count {
				count, n, err := codec.Uvari(data[cur:])
				if err != nil {
					return cur, err
				}
				attr.Count = count
				cur += n
			}
			if flags.reprc {
				n, err := attr.readReprc(data[cur:])
				if err != nil {
					return cur, err
				}
				cur += n
			}
			if flags.units {
				units, n, err := codec.UnitsDec(data[cur:])
				if err != nil {
					return cur, err
				}
				attr.Units = units
				cur += n
			}
			if flags.value {
				n, err := attr.readElements(data[cur:])
				if err != nil {
					return cur, err
				}
				cur += n
			}

			if attr.Count == 0 {
				// A zero count explicitly undefines the value, even when a
				// default exists.
				attr.Value = nil
			} else if !flags.value {
				if flags.reprc && attr.Reprc != templateAttr.Reprc {
					attr.Info = append(attr.Info, diag.Problem{
						Severity: diag.Warning,
						Problem: fmt.Sprintf("count (%d) isn't 0 and "+
							"representation code (%d) changed, but value is "+
							"not explicitly set", attr.Count, uint8(attr.Reprc)),
						Specification: "-",
						Action:        "setting default value for new representation code",
					})
					attr.Value = nil
				}
				patchMissingValue(&attr)
			}

			current.Set(attr)
		}

		severity := diag.Debug
		for _, a := range current.Attributes {
			severity = diag.MaxSeverity(severity, a.Info)
		}
		if severity = diag.Decrease(severity); severity >= diag.Info {
			current.Info = append(current.Info, diag.Problem{
				Severity: severity,
				Problem: "Problems occurred on processing object. Be careful " +
					"when trusting retrieved data",
			})
		}

		os.objects = append(os.objects, current)
	}

	severity := diag.Debug
	for _, obj := range os.objects {
		severity = diag.MaxSeverity(severity, obj.Info)
	}
	if severity = diag.Decrease(severity); severity >= diag.Info {
		os.Info = append(os.Info, diag.Problem{
			Severity: severity,
			Problem: "Problems occurred on processing object set. Be careful " +
				"when trusting retrieved data",
		})
	}

	return cur, nil
}

// Parse runs the full set component state machine: descriptor, template,
// objects. Failures are recorded on the set and routed through the escape
// level; a set is only parsed once.
func (os *ObjectSet) Parse() error {
	if os.parsed {
		return nil
	}
	os.parsed = true

	data := os.record.Data
	cur, err := os.parseSetComponent(data)
	if err == nil {
		cur, err = os.parseTemplate(data, cur)
	}
	if err == nil {
		_, err = os.parseObjects(data, cur)
	}
	if err != nil {
		p := diag.Problem{
			Severity: diag.Error,
			Problem:  err.Error(),
			Action:   "parse interrupted",
		}
		os.Info = append(os.Info, p)
		context := fmt.Sprintf("object set %s of type %s parse: error on parsing",
			os.Name, os.Type)
		return diag.Report([]diag.Problem{p}, context)
	}
	return nil
}

// Template returns the parsed attribute template.
func (os *ObjectSet) Template() ([]Attribute, error) {
	if err := os.Parse(); err != nil {
		return nil, err
	}
	return os.template, nil
}

// Objects parses on demand and reports any accumulated set problems before
// returning the object list.
func (os *ObjectSet) Objects() ([]Object, error) {
	if err := os.Parse(); err != nil {
		return nil, err
	}
	if len(os.Info) > 0 {
		context := fmt.Sprintf("Message from object set %s of type %s",
			os.Name, os.Type)
		if err := diag.Report(os.Info, context); err != nil {
			return nil, err
		}
	}
	return os.objects, nil
}
