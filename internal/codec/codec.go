// Package codec converts raw text frames to and from the exchange's JSON
// envelope. Classification is structural: the decoder inspects which fields
// are present rather than trusting a protocol version.
package codec

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"cryptoTickStream/internal/domain"
	"cryptoTickStream/internal/ports"
)

// Kind identifies the classified type of an inbound frame.
type Kind int

const (
	// KindPing is a server-initiated heartbeat carrying an opaque id that
	// must be echoed back verbatim.
	KindPing Kind = iota
	// KindTick is a live price update for the subscribed pair.
	KindTick
	// KindHistory is a batch of historical OHLCV records.
	KindHistory
	// KindUnrecognized covers push messages the core does not act on
	// (e.g. live kbar pushes). Not an error; ignored downstream.
	KindUnrecognized
)

func (k Kind) String() string {
	switch k {
	case KindPing:
		return "ping"
	case KindTick:
		return "tick"
	case KindHistory:
		return "history"
	default:
		return "unrecognized"
	}
}

// Envelope is a classified, decoded inbound message. Only the fields relevant
// to its Kind are populated.
type Envelope struct {
	Kind    Kind
	PingID  string                // KindPing: opaque heartbeat id
	Price   float64               // KindTick: latest quoted price (usd)
	Records []domain.MarketCandle // KindHistory: oldest first per server order
}

// Codec builds outbound control messages for a single instrument pair and
// decodes inbound frames. It holds no connection state.
type Codec struct {
	pair         domain.InstrumentPair
	historyStart string // fixed baseline date for the history window, ISO-8601
	historySize  int    // fixed window size, sent as a string per the protocol
}

// New creates a Codec bound to the given pair and history window settings.
func New(pair domain.InstrumentPair, historyStart string, historySize int) (*Codec, error) {
	if pair == "" {
		return nil, fmt.Errorf("instrument pair is required")
	}
	if historyStart == "" {
		return nil, fmt.Errorf("history window start is required")
	}
	if historySize <= 0 {
		return nil, fmt.Errorf("history window size must be positive, got %d", historySize)
	}
	return &Codec{pair: pair, historyStart: historyStart, historySize: historySize}, nil
}

// rawFrame mirrors the superset of inbound envelope fields. RawMessage keeps
// field presence distinguishable from a zero value.
type rawFrame struct {
	Action  string          `json:"action"`
	Ping    string          `json:"ping"`
	Tick    json.RawMessage `json:"tick"`
	Records json.RawMessage `json:"records"`
}

// Decode classifies and decodes a raw inbound frame.
//
// Classification order: action=="ping" wins, then a "tick" sub-object, then a
// "records" array; anything else is Unrecognized. Decode failures wrap
// ports.ErrDataParsingFailed (or ports.ErrInvalidResponse for a ping without
// an id) and never panic past this boundary.
func Decode(raw []byte) (Envelope, error) {
	var frame rawFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ports.ErrDataParsingFailed, err)
	}

	switch {
	case frame.Action == "ping":
		if frame.Ping == "" {
			return Envelope{}, fmt.Errorf("%w: ping frame missing id", ports.ErrInvalidResponse)
		}
		return Envelope{Kind: KindPing, PingID: frame.Ping}, nil

	case frame.Tick != nil:
		return decodeTick(frame.Tick)

	case frame.Records != nil:
		return decodeHistory(frame.Records)

	default:
		return Envelope{Kind: KindUnrecognized}, nil
	}
}

func decodeTick(raw json.RawMessage) (Envelope, error) {
	var tick struct {
		USD *float64 `json:"usd"`
	}
	if err := json.Unmarshal(raw, &tick); err != nil {
		return Envelope{}, fmt.Errorf("%w: malformed tick object: %v", ports.ErrDataParsingFailed, err)
	}
	// Absence of usd is a decode failure, not a silent default.
	if tick.USD == nil {
		return Envelope{}, fmt.Errorf("%w: tick object missing usd price", ports.ErrDataParsingFailed)
	}
	return Envelope{Kind: KindTick, Price: *tick.USD}, nil
}

// minCandleFields is the number of positional entries a history record must
// carry: timestamp, open, high, low, close, volume, turnover, trade count.
const minCandleFields = 8

func decodeHistory(raw json.RawMessage) (Envelope, error) {
	var records [][]float64
	if err := json.Unmarshal(raw, &records); err != nil {
		return Envelope{}, fmt.Errorf("%w: malformed records array: %v", ports.ErrDataParsingFailed, err)
	}

	// The batch decodes atomically: one short record rejects the whole batch.
	candles := make([]domain.MarketCandle, 0, len(records))
	for i, rec := range records {
		if len(rec) < minCandleFields {
			return Envelope{}, fmt.Errorf("%w: history record %d has %d fields, want at least %d",
				ports.ErrDataParsingFailed, i, len(rec), minCandleFields)
		}
		candles = append(candles, domain.MarketCandle{
			Timestamp:  int64(rec[0]),
			Open:       rec[1],
			High:       rec[2],
			Low:        rec[3],
			Close:      rec[4],
			Volume:     rec[5],
			Turnover:   rec[6],
			TradeCount: int64(rec[7]),
		})
	}
	return Envelope{Kind: KindHistory, Records: candles}, nil
}

// --- Outbound request builders ---

type subscribeRequest struct {
	Action    string `json:"action"`
	Subscribe string `json:"subscribe"`
	Pair      string `json:"pair"`
}

type historyRequest struct {
	Action  string `json:"action"`
	Request string `json:"request"`
	Kbar    string `json:"kbar"`
	Pair    string `json:"pair"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Size    string `json:"size"`
}

type pingRequest struct {
	Action string `json:"action"`
}

type pongRequest struct {
	Action string `json:"action"`
	Pong   string `json:"pong"`
}

// SubscribeTick builds the live price subscription request for the pair.
func (c *Codec) SubscribeTick() (string, error) {
	return marshalRequest(subscribeRequest{
		Action:    "subscribe",
		Subscribe: "tick",
		Pair:      c.pair.String(),
	})
}

// HistoryRequest builds the daily-candle history request. The window start is
// the codec's fixed baseline; the end is computed from now at send time.
func (c *Codec) HistoryRequest(now time.Time) (string, error) {
	return marshalRequest(historyRequest{
		Action:  "request",
		Request: "kbar",
		Kbar:    "day",
		Pair:    c.pair.String(),
		Start:   c.historyStart,
		End:     now.UTC().Format(time.RFC3339),
		Size:    strconv.Itoa(c.historySize),
	})
}

// Ping builds the client-initiated keepalive message.
func Ping() (string, error) {
	return marshalRequest(pingRequest{Action: "ping"})
}

// Pong builds the reply to a server ping, echoing the opaque id verbatim.
func Pong(id string) (string, error) {
	return marshalRequest(pongRequest{Action: "pong", Pong: id})
}

func marshalRequest(req interface{}) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ports.ErrMessageSerializationFailed, err)
	}
	return string(data), nil
}
