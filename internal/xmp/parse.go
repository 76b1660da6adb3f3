package xmp

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Parse decodes an XMP packet. It accepts a full sidecar document, with or
// without the xpacket wrapper and x:xmpmeta element, or a bare rdf:RDF
// element. Empty input yields an empty packet.
//
// Structured (non-array) property values are not represented and are dropped.
func Parse(data []byte) (*Packet, error) {
	p := New()
	if len(bytes.TrimSpace(data)) == 0 {
		return p, nil
	}

	d := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing xmp: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		p.recordPrefixes(se)
		if se.Name.Space == NSRDF && se.Name.Local == "Description" {
			if err := p.parseDescription(d, se); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

func (p *Packet) recordPrefixes(se xml.StartElement) {
	for _, a := range se.Attr {
		if a.Name.Space == "xmlns" && PrefixFor(a.Value) == "" {
			p.prefixes[a.Value] = a.Name.Local
		}
	}
}

func (p *Packet) parseDescription(d *xml.Decoder, start xml.StartElement) error {
	for _, a := range start.Attr {
		switch {
		case a.Name.Space == "xmlns", a.Name.Space == "", a.Name.Space == NSRDF, a.Name.Space == NSXML:
			continue
		}
		p.put(Property{NS: a.Name.Space, Name: a.Name.Local, Kind: Simple, Value: a.Value})
	}

	for {
		tok, err := d.Token()
		if err != nil {
			return fmt.Errorf("parsing rdf:Description: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			p.recordPrefixes(t)
			if err := p.parseProperty(d, t); err != nil {
				return err
			}
		case xml.EndElement:
			return nil
		}
	}
}

func (p *Packet) parseProperty(d *xml.Decoder, start xml.StartElement) error {
	var text strings.Builder
	var isArray, nested bool
	for {
		tok, err := d.Token()
		if err != nil {
			return fmt.Errorf("parsing property %s: %w", start.Name.Local, err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			if kind, ok := arrayKind(t.Name); ok {
				items, err := parseArray(d, kind)
				if err != nil {
					return fmt.Errorf("parsing property %s: %w", start.Name.Local, err)
				}
				p.put(Property{NS: start.Name.Space, Name: start.Name.Local, Kind: kind, Items: items})
				isArray = true
				continue
			}
			if err := d.Skip(); err != nil {
				return fmt.Errorf("skipping structure in %s: %w", start.Name.Local, err)
			}
			nested = true
		case xml.EndElement:
			if !isArray && !nested {
				p.put(Property{NS: start.Name.Space, Name: start.Name.Local, Kind: Simple, Value: text.String()})
			}
			return nil
		}
	}
}

func arrayKind(name xml.Name) (Kind, bool) {
	if name.Space != NSRDF {
		return Simple, false
	}
	switch name.Local {
	case "Bag":
		return Bag, true
	case "Seq":
		return Seq, true
	case "Alt":
		return Alt, true
	}
	return Simple, false
}

func parseArray(d *xml.Decoder, kind Kind) ([]string, error) {
	var items []string
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space != NSRDF || t.Name.Local != "li" {
				if err := d.Skip(); err != nil {
					return nil, err
				}
				continue
			}
			var v string
			if err := d.DecodeElement(&v, &t); err != nil {
				return nil, err
			}
			if kind == Alt && isDefaultLang(t) {
				items = append([]string{v}, items...)
			} else {
				items = append(items, v)
			}
		case xml.EndElement:
			return items, nil
		}
	}
}

func isDefaultLang(se xml.StartElement) bool {
	for _, a := range se.Attr {
		if a.Name.Space == NSXML && a.Name.Local == "lang" {
			return a.Value == "x-default"
		}
	}
	return false
}
