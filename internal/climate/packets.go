package climate

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Packet is an inbound packet as parsed by the gateway: a JSON object with
// numbers kept as json.Number.
type Packet map[string]any

// Inbound packet kinds, carried in the "t" key.
const (
	PacketKindStatus = "dat"
	PacketKindAck    = "res"
)

// Outbound packet kinds.
const (
	RequestKindStatus  = "status"
	RequestKindCommand = "cmd"
)

// Wire keys of the column/value arrays.
const (
	keyStatusColumns = "cols"
	keyStatusData    = "dat"
	keyAckOptions    = "opt"
	keyAckValues     = "val"
	keyKind          = "t"
	keyMAC           = "mac"
)

// DecodePacket parses a gateway payload into a Packet. Numbers are decoded
// as json.Number so the sanitiser sees their literal text. A JSON null
// decodes to a nil Packet and no error.
func DecodePacket(data []byte) (Packet, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var p Packet
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPacket, err)
	}
	return p, nil
}

// Kind returns the packet kind or "" when absent.
func (p Packet) Kind() string {
	s, _ := p[keyKind].(string) //nolint:errcheck // absent kind reads as ""
	return s
}

// MAC returns the reporting unit's MAC or "" when absent.
func (p Packet) MAC() string {
	s, _ := p[keyMAC].(string) //nolint:errcheck // absent mac reads as ""
	return s
}

// IsStatus reports whether p carries a status snapshot.
func (p Packet) IsStatus() bool {
	if k := p.Kind(); k != "" {
		return k == PacketKindStatus
	}
	_, ok := p[keyStatusColumns]
	return ok
}

// IsAck reports whether p carries a command acknowledgement.
func (p Packet) IsAck() bool {
	if k := p.Kind(); k != "" {
		return k == PacketKindAck
	}
	_, ok := p[keyAckOptions]
	return ok
}

// columnsAndValues extracts the named arrays from p.
func (p Packet) columnsAndValues(colKey, valKey string) (cols, vals []any, err error) {
	rawCols, ok := p[colKey]
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing %q", ErrMalformedPacket, colKey)
	}
	rawVals, ok := p[valKey]
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing %q", ErrMalformedPacket, valKey)
	}
	cols, ok = toSlice(rawCols)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q is not an array", ErrMalformedPacket, colKey)
	}
	vals, ok = toSlice(rawVals)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q is not an array", ErrMalformedPacket, valKey)
	}
	return cols, vals, nil
}

// toSlice accepts the array shapes produced by encoding/json and by callers
// building packets by hand.
func toSlice(v any) ([]any, bool) {
	switch s := v.(type) {
	case []any:
		return s, true
	case []string:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	case []int:
		out := make([]any, len(s))
		for i := range s {
			out[i] = s[i]
		}
		return out, true
	default:
		return nil, false
	}
}

// StatusRequest asks a unit for a full snapshot of the given columns.
type StatusRequest struct {
	Columns []string `json:"cols"`
	MAC     string   `json:"mac"`
	Kind    string   `json:"t"`
}

// NewStatusRequest builds a poll for every protocol column.
func NewStatusRequest(mac string) StatusRequest {
	return StatusRequest{
		Columns: StatusColumns(),
		MAC:     mac,
		Kind:    RequestKindStatus,
	}
}

// CommandPacket carries an option delta to a unit in one atomic message.
type CommandPacket struct {
	Options []string `json:"opt"`
	Values  []int    `json:"p"`
	Kind    string   `json:"t"`
	Sub     string   `json:"sub"`
}

// NewCommandPacket builds the outbound packet for delta addressed to mac.
func NewCommandPacket(mac string, delta Delta) CommandPacket {
	pkt := CommandPacket{
		Options: make([]string, 0, len(delta)),
		Values:  make([]int, 0, len(delta)),
		Kind:    RequestKindCommand,
		Sub:     mac,
	}
	for _, fv := range delta {
		pkt.Options = append(pkt.Options, fv.Field.String())
		pkt.Values = append(pkt.Values, fv.Value)
	}
	return pkt
}

// Outbound is implemented by every packet the engine hands to its transport.
type Outbound interface {
	// Target returns the MAC of the addressed unit.
	Target() string
}

// Target implements Outbound.
func (r StatusRequest) Target() string { return r.MAC }

// Target implements Outbound.
func (c CommandPacket) Target() string { return c.Sub }
