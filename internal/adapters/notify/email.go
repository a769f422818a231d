package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	perr "payalias/internal/platform/errors"
)

// SMTPConfig configures the Emailer; an empty Addr disables email
type SMTPConfig struct {
	Addr     string
	Username string
	Password string
	From     string
}

// Emailer sends plain text alerts through an SMTP relay
type Emailer struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now  func() time.Time
}

// NewEmailer returns nil when cfg.Addr is empty so callers can skip the channel
func NewEmailer(cfg SMTPConfig) *Emailer {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil
	}
	if cfg.From == "" {
		cfg.From = "alerts@payalias.local"
	}
	return &Emailer{cfg: cfg, send: smtp.SendMail, now: time.Now}
}

// Send delivers p to the recipient; smtp.SendMail has no context so ctx is only checked up front
func (e *Emailer) Send(ctx context.Context, to string, p Payload) error {
	if e == nil {
		return perr.Unavailablef("email: no smtp relay configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	to = strings.TrimSpace(to)
	if to == "" || strings.ContainsAny(to, "\r\n") {
		return perr.InvalidArgf("email: invalid recipient")
	}

	var auth smtp.Auth
	if e.cfg.Username != "" {
		host, _, err := net.SplitHostPort(e.cfg.Addr)
		if err != nil {
			host = e.cfg.Addr
		}
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, host)
	}
	if err := e.send(e.cfg.Addr, auth, e.cfg.From, []string{to}, e.render(to, p)); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeUpstream, "email: send failed")
	}
	return nil
}

func (e *Emailer) render(to string, p Payload) []byte {
	subject := fmt.Sprintf("[payalias] trust alert for %s", p.Alias)
	if p.Event == EventAddressChanged {
		subject = fmt.Sprintf("[payalias] address changed for %s", p.Alias)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	fmt.Fprintf(&b, "Date: %s\r\n", e.now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")

	fmt.Fprintf(&b, "Alias: %s\r\n", p.Alias)
	fmt.Fprintf(&b, "Trust score: %d (previously %d)\r\n", p.TrustScore, p.PreviousScore)
	if p.Threshold > 0 {
		fmt.Fprintf(&b, "Alert threshold: %d\r\n", p.Threshold)
	}
	if p.Currency != "" {
		fmt.Fprintf(&b, "Currency: %s\r\n", p.Currency)
	}
	if p.OldAddress != "" || p.NewAddress != "" {
		fmt.Fprintf(&b, "Address: %s -> %s\r\n", p.OldAddress, p.NewAddress)
	}
	for _, r := range p.Reasons {
		fmt.Fprintf(&b, "- %s\r\n", r)
	}
	b.WriteString("\r\nRe-verify the alias DNS and HTTPS proofs if this change was not expected.\r\n")
	return []byte(b.String())
}
