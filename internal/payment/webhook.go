package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Webhook event types the reconciler reacts to.  Anything else is
// acknowledged and ignored.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
	EventAccountUpdated  = "account.updated"
)

// signatureTolerance bounds how stale a signed timestamp may be before
// the delivery is rejected as a possible replay.
const signatureTolerance = 5 * time.Minute

// ErrBadSignature is returned for any signature header that fails
// verification: malformed, wrong digest, or outside tolerance.  The
// cause is deliberately not distinguished to the caller.
var ErrBadSignature = errors.New("webhook signature verification failed")

// Event is a decoded webhook delivery.  Data retains the raw object so
// each event type can decode the shape it expects.
type Event struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// IntentData is the object carried by payment_intent.* events.
type IntentData struct {
	ID string `json:"id"`
}

// AccountData is the object carried by account.updated events.
type AccountData struct {
	ID           string            `json:"id"`
	Capabilities map[string]string `json:"capabilities"`
}

// TransfersActive mirrors Account.TransfersActive for webhook payloads.
func (d *AccountData) TransfersActive() bool {
	return d.Capabilities["transfers"] == "active"
}

// VerifySignature checks the processor's signature header against the
// raw request body.  The header has the form "t=<unix>,v1=<hex>", where
// the hex value is HMAC-SHA256 over "<unix>.<body>" keyed by the
// webhook secret.  Verification fails closed: any parse error, digest
// mismatch or timestamp outside tolerance yields ErrBadSignature.
func VerifySignature(secret string, body []byte, header string, now time.Time) error {
	ts, sig, err := parseSignatureHeader(header)
	if err != nil {
		return ErrBadSignature
	}
	if d := now.Sub(time.Unix(ts, 0)); d > signatureTolerance || d < -signatureTolerance {
		return ErrBadSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return ErrBadSignature
	}
	return nil
}

// ParseEvent verifies the delivery and decodes the envelope.  Handlers
// must call this before acting on any webhook body.
func ParseEvent(secret string, body []byte, header string, now time.Time) (*Event, error) {
	if err := VerifySignature(secret, body, header, now); err != nil {
		return nil, err
	}
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	return &ev, nil
}

func parseSignatureHeader(header string) (ts int64, sig string, err error) {
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts, err = strconv.ParseInt(v, 10, 64)
			if err != nil {
				return 0, "", err
			}
		case "v1":
			sig = v
		}
	}
	if ts == 0 || sig == "" {
		return 0, "", errors.New("missing signature components")
	}
	return ts, sig, nil
}

// SignPayload produces a signature header for body at ts, in the exact
// format VerifySignature accepts.  Used by tests and local tooling to
// exercise webhook endpoints.
func SignPayload(secret string, body []byte, ts int64) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}
