package xmp

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

const (
	packetBegin = "<?xpacket begin=\"\ufeff\" id=\"W5M0MpCehiHzreSzNTczkc9d\"?>"
	packetEnd   = "<?xpacket end=\"w\"?>"
)

// MarshalInline serializes the packet in the compact form stored in the
// catalog. An empty packet serializes to the empty string.
func (p *Packet) MarshalInline() string {
	if len(p.props) == 0 {
		return ""
	}
	var buf bytes.Buffer
	p.write(&buf, false)
	return buf.String()
}

// MarshalSidecar serializes the packet as a standalone .xmp document.
func (p *Packet) MarshalSidecar() []byte {
	var buf bytes.Buffer
	buf.WriteString(packetBegin)
	buf.WriteByte('\n')
	p.write(&buf, true)
	buf.WriteByte('\n')
	buf.WriteString(packetEnd)
	buf.WriteByte('\n')
	return buf.Bytes()
}

type writer struct {
	buf    *bytes.Buffer
	indent bool
}

func (w *writer) line(depth int, s string) {
	if w.indent {
		if w.buf.Len() > 0 && !bytes.HasSuffix(w.buf.Bytes(), []byte("\n")) {
			w.buf.WriteByte('\n')
		}
		w.buf.WriteString(strings.Repeat(" ", depth))
	}
	w.buf.WriteString(s)
}

func (p *Packet) write(buf *bytes.Buffer, indent bool) {
	w := &writer{buf: buf, indent: indent}
	prefixes := p.assignPrefixes()

	w.line(0, `<x:xmpmeta xmlns:x="adobe:ns:meta/">`)
	w.line(1, fmt.Sprintf(`<rdf:RDF xmlns:rdf="%s">`, NSRDF))

	var decl strings.Builder
	for _, ns := range p.namespaces() {
		fmt.Fprintf(&decl, ` xmlns:%s="%s"`, prefixes[ns], escape(ns))
	}
	w.line(2, fmt.Sprintf(`<rdf:Description rdf:about=""%s>`, decl.String()))

	for _, prop := range p.props {
		qname := prefixes[prop.NS] + ":" + prop.Name
		switch prop.Kind {
		case Simple:
			w.line(3, fmt.Sprintf("<%s>%s</%s>", qname, escape(prop.Value), qname))
		default:
			container := map[Kind]string{Bag: "rdf:Bag", Seq: "rdf:Seq", Alt: "rdf:Alt"}[prop.Kind]
			w.line(3, "<"+qname+">")
			w.line(4, "<"+container+">")
			for i, item := range prop.Items {
				lang := ""
				if prop.Kind == Alt && i == 0 {
					lang = ` xml:lang="x-default"`
				}
				w.line(5, fmt.Sprintf("<rdf:li%s>%s</rdf:li>", lang, escape(item)))
			}
			w.line(4, "</"+container+">")
			w.line(3, "</"+qname+">")
		}
	}

	w.line(2, "</rdf:Description>")
	w.line(1, "</rdf:RDF>")
	w.line(0, "</x:xmpmeta>")
}

// namespaces returns the property namespaces in order of first use.
func (p *Packet) namespaces() []string {
	var out []string
	seen := map[string]bool{}
	for _, prop := range p.props {
		if !seen[prop.NS] {
			seen[prop.NS] = true
			out = append(out, prop.NS)
		}
	}
	return out
}

func (p *Packet) assignPrefixes() map[string]string {
	out := map[string]string{}
	used := map[string]bool{"x": true, "rdf": true, "xml": true}
	n := 0
	for _, ns := range p.namespaces() {
		pre := p.prefix(ns)
		if pre == "" || (used[pre] && PrefixFor(ns) == "") {
			for {
				n++
				pre = fmt.Sprintf("ns%d", n)
				if !used[pre] {
					break
				}
			}
		}
		used[pre] = true
		out[ns] = pre
	}
	return out
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
