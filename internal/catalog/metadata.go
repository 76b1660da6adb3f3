package catalog

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"photocat/internal/xmp"
)

// Metadata is the metadata block of one file: its XMP packet plus the
// catalog-side fields shown alongside it.
type Metadata struct {
	ID       ID
	Name     string
	Folder   string
	FileType FileType
	Sidecars []string

	packet *xmp.Packet
}

// NewMetadata wraps a packet for file id. A nil packet is treated as empty.
func NewMetadata(id ID, p *xmp.Packet) *Metadata {
	if p == nil {
		p = xmp.New()
	}
	return &Metadata{ID: id, packet: p}
}

// Packet returns the underlying XMP packet.
func (m *Metadata) Packet() *xmp.Packet { return m.packet }

// Get returns the value of one property.
func (m *Metadata) Get(idx PropertyIndex) (PropertyValue, bool) {
	switch idx {
	case PropFileName:
		return StringValue(m.Name), true
	case PropFileType:
		return StringValue(m.FileType.String()), true
	case PropFolder:
		return StringValue(m.Folder), true
	case PropSidecars:
		return StringArrayValue(m.Sidecars), true
	}

	x, ok := propToXmp[idx]
	if !ok {
		return PropertyValue{}, false
	}
	switch idx {
	case PropRating, PropOrientation, PropFlag:
		if i, ok := m.packet.GetInt(x.ns, x.name); ok {
			return IntValue(i), true
		}
		return PropertyValue{}, false
	case PropLabel:
		s, ok := m.packet.Get(x.ns, x.name)
		if !ok {
			return PropertyValue{}, false
		}
		if i, err := strconv.Atoi(s); err == nil {
			return IntValue(i), true
		}
		return StringValue(s), true
	case PropDateTimeOriginal:
		if t, ok := m.packet.GetDate(x.ns, x.name); ok {
			return DateValue(t), true
		}
		return PropertyValue{}, false
	}

	if items, ok := m.packet.GetArray(x.ns, x.name); ok {
		if idx == PropDescription && len(items) > 0 {
			return StringValue(items[0]), true
		}
		return StringArrayValue(items), true
	}
	if s, ok := m.packet.Get(x.ns, x.name); ok {
		return StringValue(s), true
	}
	return PropertyValue{}, false
}

// Set changes one property in the packet. Empty values and empty strings
// delete the property.
func (m *Metadata) Set(idx PropertyIndex, v PropertyValue) error {
	x, ok := propToXmp[idx]
	if !ok {
		return &ValidationError{Field: "property", Message: fmt.Sprintf("%s cannot be set", idx)}
	}

	switch v.Kind() {
	case ValueEmpty:
		m.packet.Delete(x.ns, x.name)
	case ValueInt:
		i, _ := v.Int()
		m.packet.SetInt(x.ns, x.name, i)
	case ValueString:
		s, _ := v.Str()
		switch {
		case s == "":
			m.packet.Delete(x.ns, x.name)
		case idx == PropDescription:
			m.packet.SetLocalized(x.ns, x.name, s)
		default:
			m.packet.Set(x.ns, x.name, s)
		}
	case ValueStringArray:
		sa, _ := v.Strings()
		m.packet.SetArray(x.ns, x.name, xmp.Bag, sa)
	case ValueDate:
		t, _ := v.Date()
		m.packet.SetDate(x.ns, x.name, t)
	}
	return nil
}

// Touch records t as the metadata modification date.
func (m *Metadata) Touch(t time.Time) { m.packet.Touch(t) }

// Keywords returns the keyword list.
func (m *Metadata) Keywords() []string { return m.packet.Keywords() }

// Properties returns the values of the requested properties that are set.
func (m *Metadata) Properties(idxs ...PropertyIndex) map[PropertyIndex]PropertyValue {
	out := make(map[PropertyIndex]PropertyValue, len(idxs))
	for _, idx := range idxs {
		if v, ok := m.Get(idx); ok {
			out[idx] = v
		}
	}
	return out
}

// Clone returns a deep copy of m.
func (m *Metadata) Clone() *Metadata {
	c := *m
	c.Sidecars = slices.Clone(m.Sidecars)
	c.packet = m.packet.Clone()
	return &c
}
