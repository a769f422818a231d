package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"payalias/internal/adapters/upstream"
	perr "payalias/internal/platform/errors"
	"payalias/internal/platform/logger"

	"github.com/google/uuid"
)

// Webhook headers
const (
	HeaderSignature = "X-Payalias-Signature"
	HeaderEvent     = "X-Payalias-Event"
	HeaderDelivery  = "X-Payalias-Delivery"
	HeaderTimestamp = "X-Payalias-Timestamp"
)

// Webhook posts signed JSON payloads
type Webhook struct {
	http  *upstream.Client
	log   logger.Logger
	now   func() time.Time
	newID func() string
}

// NewWebhook uses hc for delivery; callers configure its timeout
func NewWebhook(hc *upstream.Client) *Webhook {
	if hc == nil {
		hc = upstream.New("webhook", upstream.Options{Timeout: 10 * time.Second})
	}
	return &Webhook{
		http:  hc,
		log:   *logger.Named("webhook"),
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Sign returns the signature header value for body under secret
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature header value in constant time
func Verify(secret string, body []byte, header string) bool {
	return hmac.Equal([]byte(Sign(secret, body)), []byte(header))
}

// Post sends p to url; any non 2xx response is an error
func (w *Webhook) Post(ctx context.Context, url, secret string, p Payload) (Delivery, error) {
	if p.Timestamp.IsZero() {
		p.Timestamp = w.now().UTC()
	}
	body, err := json.Marshal(p)
	if err != nil {
		return Delivery{}, perr.Wrapf(err, perr.ErrorCodeJSON, "webhook: encode payload")
	}

	d := Delivery{ID: w.newID()}
	h := http.Header{}
	h.Set(HeaderEvent, p.Event)
	h.Set(HeaderDelivery, d.ID)
	h.Set(HeaderTimestamp, strconv.FormatInt(p.Timestamp.Unix(), 10))
	if secret != "" {
		h.Set(HeaderSignature, Sign(secret, body))
		d.Signed = true
	} else {
		w.log.Warn().Str("event", p.Event).Str("alias", p.Alias).Msg("webhook delivered unsigned, no secret configured")
	}

	resp, err := w.http.PostJSON(ctx, url, h, body)
	if err != nil {
		return d, err
	}
	d.Status = resp.Status
	if !resp.OK() {
		return d, perr.Upstreamf("webhook: receiver returned status %d", resp.Status)
	}
	return d, nil
}
