// Package email delivers password reset codes over SMTP and manages the
// DKIM key that signs them.
package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"gopkg.in/gomail.v2"

	"github.com/Rishika-pasricha/Hack-Hub/internal/config"
)

const otpSubject = "Ecofy - Password Reset OTP"

// ErrDisabled is returned by the mailer used when SMTP is not configured.
var ErrDisabled = errors.New("smtp is not configured")

// OTPSender delivers a password reset code.
type OTPSender interface {
	SendOTP(ctx context.Context, to, otp string) error
}

// Mailer sends OTP mails through an SMTP relay.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	signer *DKIMSigner
}

// NewMailer returns a Mailer for cfg, or a disabled sender when no SMTP
// host is set. signer may be nil.
func NewMailer(cfg config.SMTPConfig, signer *DKIMSigner, log *slog.Logger) OTPSender {
	if cfg.Host == "" {
		return disabled{log: log}
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &Mailer{dialer: d, from: cfg.From, signer: signer}
}

// BuildOTPMessage assembles the reset mail for to.
func BuildOTPMessage(from, to, otp string) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", otpSubject)
	m.SetBody("text/plain", fmt.Sprintf("Your Ecofy password reset code is %s. It expires in 10 minutes.", otp))
	m.AddAlternative("text/html", fmt.Sprintf(`<div style="font-family:sans-serif">
<h2>Ecofy password reset</h2>
<p>Your one-time code is:</p>
<p style="font-size:28px;letter-spacing:4px"><strong>%s</strong></p>
<p>It expires in 10 minutes. If you did not ask for a reset, ignore this email.</p>
</div>`, otp))
	return m
}

type rawMessage []byte

func (r rawMessage) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r)
	return int64(n), err
}

// SendOTP renders, optionally DKIM-signs and sends the reset mail.
func (m *Mailer) SendOTP(ctx context.Context, to, otp string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if _, err := BuildOTPMessage(m.from, to, otp).WriteTo(&buf); err != nil {
		return fmt.Errorf("render message: %w", err)
	}
	raw := buf.Bytes()
	if m.signer != nil {
		signed, err := m.signer.SignMessage(raw)
		if err != nil {
			return fmt.Errorf("dkim sign: %w", err)
		}
		raw = signed
	}

	s, err := m.dialer.Dial()
	if err != nil {
		return fmt.Errorf("dial smtp: %w", err)
	}
	defer s.Close()

	if err := s.Send(m.from, []string{to}, rawMessage(raw)); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

type disabled struct{ log *slog.Logger }

func (d disabled) SendOTP(_ context.Context, to, _ string) error {
	if d.log != nil {
		d.log.Warn("otp mail not sent, smtp is not configured", "to", to)
	}
	return ErrDisabled
}
