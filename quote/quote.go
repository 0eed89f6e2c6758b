// Package quote decodes B6034 market quote records out of raw captured
// Ethernet frames.
package quote

import "time"

// Depth is the number of price levels carried on each side of a quote.
const Depth = 5

// Level is one price level of a quote.
type Level struct {
	Price uint32
	Qty   uint32
}

// Quote is a single decoded market quote. It is a value type, built once by
// the Decoder and never mutated.
type Quote struct {
	PacketTime time.Time // when the frame was captured, UTC
	AcceptTime time.Time // when the exchange accepted the event, UTC
	IssueCode  string    // 12-character instrument identifier

	Bids [Depth]Level // best bid first
	Asks [Depth]Level // best ask first
}
