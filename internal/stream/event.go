// Package stream ingests payment events over HTTP, tags each with its financial
// period and persists it.
package stream

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fincal/internal/fiscal"
	"github.com/sells-group/fincal/internal/model"
)

// Amount accepts a JSON number or a numeric string.
type Amount float64

func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return eris.Wrap(err, "stream: decode amount")
		}
		s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return eris.Wrapf(err, "stream: amount %q is not numeric", s)
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return eris.Wrap(err, "stream: decode amount")
	}
	*a = Amount(f)
	return nil
}

// Payload is the webhook body. Both the gateway's camelCase fields and the ERP's
// upper-case extract fields are accepted.
type Payload struct {
	PaymentID      string `json:"paymentId"`
	Amount         Amount `json:"amount"`
	Currency       string `json:"currency"`
	CustomerID     string `json:"customerId"`
	CustomerNumber string `json:"CUSTOMER_NUMBER"`
	OrderID        string `json:"orderId"`
	PaymentMethod  string `json:"paymentMethod"`
	Status         string `json:"status"`
	Timestamp      string `json:"timestamp"`
	DepositDate    string `json:"DEPOSIT_DATE"`
	DepositRef     string `json:"DEPOSIT_REF"`
}

// DecodePayload parses a webhook body. The raw bytes are kept on the event.
func DecodePayload(body []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Payload{}, eris.Wrap(err, "stream: decode payload")
	}
	return p, nil
}

// Tagger converts payloads into fiscal-tagged payment events.
type Tagger struct {
	resolver *fiscal.Resolver
	now      func() time.Time
}

// NewTagger returns a Tagger backed by r.
func NewTagger(r *fiscal.Resolver) *Tagger {
	return &Tagger{resolver: r, now: time.Now}
}

// Tag builds the event for p. The deposit date decides the period; the event
// timestamp is the fallback; when neither parses the period is Unknown.
func (t *Tagger) Tag(p Payload, raw []byte) *model.PaymentEvent {
	ev := &model.PaymentEvent{
		ID:             uuid.New().String(),
		PaymentID:      strings.TrimSpace(p.PaymentID),
		CustomerNumber: firstNonEmpty(p.CustomerNumber, p.CustomerID),
		DepositRef:     strings.TrimSpace(p.DepositRef),
		OrderID:        strings.TrimSpace(p.OrderID),
		Amount:         float64(p.Amount),
		Currency:       strings.ToUpper(strings.TrimSpace(p.Currency)),
		Method:         strings.TrimSpace(p.PaymentMethod),
		Status:         strings.TrimSpace(p.Status),
		ProcessedAt:    t.now().UTC(),
		Payload:        raw,
	}
	if ev.PaymentID == "" {
		ev.PaymentID = uuid.New().String()
	}
	if ts, ok := parseTimestamp(p.Timestamp); ok {
		ev.Timestamp = &ts
	}
	if d, err := fiscal.ParseAny(p.DepositDate); err == nil {
		ev.DepositDate = d
	}

	switch {
	case !ev.DepositDate.IsZero():
		ev.Fiscal = t.resolver.Resolve(ev.DepositDate)
	case ev.Timestamp != nil:
		ev.Fiscal = t.resolver.ResolveTime(ev.Timestamp)
	default:
		ev.Fiscal = fiscal.Unknown
	}
	return ev
}

func parseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	// The offset is kept so the fiscal date is the sender's wall date.
	if ts, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return ts, true
	}
	if d, err := fiscal.ParseAny(s); err == nil {
		return d.Time(), true
	}
	return time.Time{}, false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
