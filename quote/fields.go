package quote

import (
	"fmt"
	"strconv"
	"unicode/utf8"
)

// field is one fixed-width window of the quote payload. Offsets are relative
// to the start of the UDP payload and are protocol constants; changing them
// breaks wire compatibility.
type field struct {
	name   string
	offset int
	width  int
}

const (
	priceWidth = 5
	qtyWidth   = 7
	pairStride = priceWidth + qtyWidth

	bidBase = 29 // first bid (price, qty) pair
	askBase = 96 // first ask (price, qty) pair
)

var (
	fieldMarker     = field{"market_type", 0, 5}
	fieldIssueCode  = field{"issue_code", 5, 12}
	fieldAcceptTime = field{"accept_time", 206, 8}

	// Accept time is HHMMSShh: two digits each of hour, minute, second,
	// hundredths of a second.
	fieldAcceptHour   = field{"accept_hour", 206, 2}
	fieldAcceptMinute = field{"accept_minute", 208, 2}
	fieldAcceptSecond = field{"accept_second", 210, 2}
	fieldAcceptCentis = field{"accept_centis", 212, 2}
)

// minPayloadLen is the end of the last parsed field.
const minPayloadLen = 206 + 8

type pairFields struct {
	price field
	qty   field
}

var bidFields, askFields [Depth]pairFields

func init() {
	for i := 0; i < Depth; i++ {
		bidFields[i] = pairFields{
			price: field{fmt.Sprintf("bid_price_%d", i+1), bidBase + i*pairStride, priceWidth},
			qty:   field{fmt.Sprintf("bid_qty_%d", i+1), bidBase + i*pairStride + priceWidth, qtyWidth},
		}
		askFields[i] = pairFields{
			price: field{fmt.Sprintf("ask_price_%d", i+1), askBase + i*pairStride, priceWidth},
			qty:   field{fmt.Sprintf("ask_qty_%d", i+1), askBase + i*pairStride + priceWidth, qtyWidth},
		}
	}
}

// parseUint decodes one fixed-width base-10 field. The window must be valid
// UTF-8 and a bare non-negative decimal literal; signs, spaces, empty text
// and uint32 overflow are all parse failures, never truncated or wrapped.
func parseUint(payload []byte, f field) (uint32, error) {
	window := payload[f.offset : f.offset+f.width]
	if !utf8.Valid(window) {
		return 0, &FieldError{Field: f.name, Offset: f.offset, Kind: KindText}
	}
	v, err := strconv.ParseUint(string(window), 10, 32)
	if err != nil {
		return 0, &FieldError{Field: f.name, Offset: f.offset, Kind: KindParse, cause: err}
	}
	return uint32(v), nil
}
