package quote

import (
	"bytes"
	"time"
	"unicode/utf8"

	"github.com/gopacket/gopacket"
	"github.com/gopacket/gopacket/layers"

	"quote-replay-go/capture"
)

// Marker identifies this feed's UDP payloads: data type B6 (quote),
// information type 03, market type 4 (KOSPI 200).
var Marker = []byte("B6034")

// kst is the fixed exchange offset used to interpret embedded accept times.
var kst = time.FixedZone("UTC+9", 9*60*60)

// Decoder turns raw captured frames into Quotes. Layer parsing state is
// reused across frames; a Decoder is not safe for concurrent use.
type Decoder struct {
	parser  *gopacket.DecodingLayerParser
	eth     layers.Ethernet
	ip4     layers.IPv4
	udp     layers.UDP
	payload gopacket.Payload
	decoded []gopacket.LayerType
}

// NewDecoder returns a Decoder ready for use.
func NewDecoder() *Decoder {
	d := &Decoder{}
	d.parser = gopacket.NewDecodingLayerParser(
		layers.LayerTypeEthernet, &d.eth, &d.ip4, &d.udp, &d.payload)
	d.parser.IgnoreUnsupported = true
	return d
}

// Decode extracts the quote carried by f, if any.
//
// It returns ErrNotQuote for frames that are not this feed's traffic (wrong
// ethertype or transport, or no B6034 marker), a *FieldError for marked
// payloads that fail field or time decoding, and the Quote otherwise.
func (d *Decoder) Decode(f capture.Frame) (Quote, error) {
	d.decoded = d.decoded[:0]
	if err := d.parser.DecodeLayers(f.Data, &d.decoded); err != nil {
		// A frame we cannot even delayer is not our traffic.
		return Quote{}, ErrNotQuote
	}
	sawUDP := false
	for _, lt := range d.decoded {
		if lt == layers.LayerTypeUDP {
			sawUDP = true
		}
	}
	if !sawUDP || d.eth.EthernetType != layers.EthernetTypeIPv4 || d.ip4.Protocol != layers.IPProtocolUDP {
		return Quote{}, ErrNotQuote
	}
	payload := []byte(d.payload)
	if len(payload) < fieldMarker.width || !bytes.Equal(payload[:fieldMarker.width], Marker) {
		return Quote{}, ErrNotQuote
	}
	return DecodePayload(f.Timestamp, payload)
}

// DecodePayload builds a Quote from a marked UDP payload.
//
// The embedded accept time carries only a time of day; it is placed on the
// UTC calendar date of packetTime and interpreted in the fixed UTC+9
// exchange offset. Quotes are assumed never to straddle a UTC+9 midnight
// relative to the capture date, so no day-rollover correction is applied.
func DecodePayload(packetTime time.Time, payload []byte) (Quote, error) {
	if packetTime.IsZero() {
		return Quote{}, &FieldError{Field: "packet_time", Kind: KindTime}
	}
	if len(payload) < minPayloadLen {
		return Quote{}, &FieldError{Field: "payload", Offset: len(payload), Kind: KindParse}
	}

	q := Quote{PacketTime: packetTime.UTC()}

	issue := payload[fieldIssueCode.offset : fieldIssueCode.offset+fieldIssueCode.width]
	if !utf8.Valid(issue) {
		return Quote{}, &FieldError{Field: fieldIssueCode.name, Offset: fieldIssueCode.offset, Kind: KindText}
	}
	q.IssueCode = string(issue)

	var err error
	for i := 0; i < Depth; i++ {
		if q.Bids[i].Price, err = parseUint(payload, bidFields[i].price); err != nil {
			return Quote{}, err
		}
		if q.Bids[i].Qty, err = parseUint(payload, bidFields[i].qty); err != nil {
			return Quote{}, err
		}
		if q.Asks[i].Price, err = parseUint(payload, askFields[i].price); err != nil {
			return Quote{}, err
		}
		if q.Asks[i].Qty, err = parseUint(payload, askFields[i].qty); err != nil {
			return Quote{}, err
		}
	}

	if q.AcceptTime, err = acceptTime(q.PacketTime, payload); err != nil {
		return Quote{}, err
	}
	return q, nil
}

// acceptTime derives the UTC accept time from the HHMMSShh field.
func acceptTime(packetTime time.Time, payload []byte) (time.Time, error) {
	hour, err := parseUint(payload, fieldAcceptHour)
	if err != nil {
		return time.Time{}, err
	}
	minute, err := parseUint(payload, fieldAcceptMinute)
	if err != nil {
		return time.Time{}, err
	}
	second, err := parseUint(payload, fieldAcceptSecond)
	if err != nil {
		return time.Time{}, err
	}
	centis, err := parseUint(payload, fieldAcceptCentis)
	if err != nil {
		return time.Time{}, err
	}
	// time.Date normalizes out-of-range components, so validate explicitly.
	if hour > 23 || minute > 59 || second > 59 || centis > 99 {
		return time.Time{}, &FieldError{Field: fieldAcceptTime.name, Offset: fieldAcceptTime.offset, Kind: KindTime}
	}

	y, m, d := packetTime.UTC().Date()
	at := time.Date(y, m, d, int(hour), int(minute), int(second), int(centis)*10_000_000, kst)
	return at.UTC(), nil
}
