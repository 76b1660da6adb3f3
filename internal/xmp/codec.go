package xmp

// Codec converts between packets, the catalog's inline blob and sidecar
// documents.
type Codec struct{}

// NewCodec returns a Codec.
func NewCodec() *Codec { return &Codec{} }

func (*Codec) Decode(blob string) (*Packet, error) { return Parse([]byte(blob)) }

func (*Codec) Encode(p *Packet) (string, error) { return p.MarshalInline(), nil }

func (*Codec) ExtractFromFile(path string, raw bool) (*Packet, error) {
	return ExtractFromFile(path, raw)
}

func (*Codec) SidecarPacket(p *Packet) ([]byte, error) { return p.MarshalSidecar(), nil }
