// Package xmp reads and writes XMP metadata packets: the inline form stored
// in the catalog and the sidecar form written next to image files.
package xmp

import (
	"slices"
	"strconv"
	"strings"
	"time"
)

// Kind is the shape of an XMP property value.
type Kind int

const (
	Simple Kind = iota
	Bag
	Seq
	Alt
)

// DateLayout is the layout used when writing XMP dates.
const DateLayout = "2006-01-02T15:04:05Z07:00"

var dateLayouts = []string{
	DateLayout,
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006:01:02 15:04:05",
}

// Property is a single top-level XMP property.
// Items holds the values of Bag, Seq and Alt properties; for Alt the
// x-default entry comes first.
type Property struct {
	NS    string
	Name  string
	Kind  Kind
	Value string
	Items []string
}

// Packet is an ordered set of XMP properties.
type Packet struct {
	props    []Property
	prefixes map[string]string
}

// New returns an empty packet.
func New() *Packet {
	return &Packet{prefixes: map[string]string{}}
}

// Len returns the number of properties in the packet.
func (p *Packet) Len() int { return len(p.props) }

// Properties returns a copy of the packet's properties in insertion order.
func (p *Packet) Properties() []Property {
	out := make([]Property, len(p.props))
	for i, prop := range p.props {
		prop.Items = slices.Clone(prop.Items)
		out[i] = prop
	}
	return out
}

// Clone returns a deep copy of the packet.
func (p *Packet) Clone() *Packet {
	c := New()
	c.props = p.Properties()
	for k, v := range p.prefixes {
		c.prefixes[k] = v
	}
	return c
}

func (p *Packet) index(ns, name string) int {
	for i := range p.props {
		if p.props[i].NS == ns && p.props[i].Name == name {
			return i
		}
	}
	return -1
}

func (p *Packet) put(prop Property) {
	if i := p.index(prop.NS, prop.Name); i >= 0 {
		p.props[i] = prop
		return
	}
	p.props = append(p.props, prop)
}

// Get returns the value of a simple property, or the default entry of an
// Alt property.
func (p *Packet) Get(ns, name string) (string, bool) {
	i := p.index(ns, name)
	if i < 0 {
		return "", false
	}
	prop := p.props[i]
	switch prop.Kind {
	case Simple:
		return prop.Value, true
	case Alt:
		if len(prop.Items) == 0 {
			return "", false
		}
		return prop.Items[0], true
	default:
		return "", false
	}
}

// GetInt returns a simple property parsed as an integer.
func (p *Packet) GetInt(ns, name string) (int, bool) {
	v, ok := p.Get(ns, name)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return i, true
}

// GetDate returns a simple property parsed as a date.
func (p *Packet) GetDate(ns, name string) (time.Time, bool) {
	v, ok := p.Get(ns, name)
	if !ok {
		return time.Time{}, false
	}
	return ParseDate(v)
}

// GetArray returns the items of a Bag, Seq or Alt property.
func (p *Packet) GetArray(ns, name string) ([]string, bool) {
	i := p.index(ns, name)
	if i < 0 || p.props[i].Kind == Simple {
		return nil, false
	}
	return slices.Clone(p.props[i].Items), true
}

// Set stores a simple property, replacing any previous value.
func (p *Packet) Set(ns, name, value string) {
	p.put(Property{NS: ns, Name: name, Kind: Simple, Value: value})
}

// SetInt stores an integer as a simple property.
func (p *Packet) SetInt(ns, name string, v int) {
	p.Set(ns, name, strconv.Itoa(v))
}

// SetDate stores a date as a simple property.
func (p *Packet) SetDate(ns, name string, t time.Time) {
	p.Set(ns, name, t.Format(DateLayout))
}

// SetLocalized stores value as the x-default entry of an Alt property.
func (p *Packet) SetLocalized(ns, name, value string) {
	p.put(Property{NS: ns, Name: name, Kind: Alt, Items: []string{value}})
}

// SetArray replaces an array property with the given items.
func (p *Packet) SetArray(ns, name string, kind Kind, items []string) {
	p.put(Property{NS: ns, Name: name, Kind: kind, Items: slices.Clone(items)})
}

// Delete removes a property. It reports whether the property existed.
func (p *Packet) Delete(ns, name string) bool {
	i := p.index(ns, name)
	if i < 0 {
		return false
	}
	p.props = slices.Delete(p.props, i, i+1)
	return true
}

// Rating returns xmp:Rating.
func (p *Packet) Rating() (int, bool) { return p.GetInt(NSXAP, "Rating") }

// Label returns xmp:Label.
func (p *Packet) Label() (string, bool) { return p.Get(NSXAP, "Label") }

// Orientation returns tiff:Orientation.
func (p *Packet) Orientation() (int, bool) { return p.GetInt(NSTIFF, "Orientation") }

// Flag returns the pick/reject flag.
func (p *Packet) Flag() (int, bool) { return p.GetInt(NSPhotocat, "Flag") }

// CreationDate returns exif:DateTimeOriginal, falling back to xmp:CreateDate.
func (p *Packet) CreationDate() (time.Time, bool) {
	if t, ok := p.GetDate(NSEXIF, "DateTimeOriginal"); ok {
		return t, true
	}
	return p.GetDate(NSXAP, "CreateDate")
}

// Keywords returns the dc:subject entries.
func (p *Packet) Keywords() []string {
	kw, _ := p.GetArray(NSDC, "subject")
	return kw
}

// SetKeywords replaces dc:subject. An empty list removes it.
func (p *Packet) SetKeywords(kws []string) {
	if len(kws) == 0 {
		p.Delete(NSDC, "subject")
		return
	}
	p.SetArray(NSDC, "subject", Bag, kws)
}

// Touch sets xmp:MetadataDate.
func (p *Packet) Touch(t time.Time) {
	p.SetDate(NSXAP, "MetadataDate", t)
}

// ParseDate parses the date forms found in XMP and EXIF.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (p *Packet) prefix(ns string) string {
	if pre := PrefixFor(ns); pre != "" {
		return pre
	}
	return p.prefixes[ns]
}
