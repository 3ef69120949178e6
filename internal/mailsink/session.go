package mailsink

import (
	"bytes"
	"errors"
	"io"
	"net/mail"
	"regexp"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
)

/* ------------------------------------------------------------------
   Session collects one envelope and hands the message to the inbox
-------------------------------------------------------------------*/

type Session struct {
	backend *Backend
	from    string
	to      []string
	authed  bool
}

/* ======================  AUTH PLAIN  ============================= */

func (s *Session) AuthPlain(username, password string) error {
	if err := s.backend.authenticate(username, password); err != nil {
		return err
	}
	s.authed = true
	return nil
}

func (s *Session) requireAuth() error {
	if s.backend.opts.Username != "" && !s.authed {
		return smtp.ErrAuthRequired
	}
	return nil
}

/* ======================  ENVELOPE  =============================== */

func (s *Session) Mail(from string, _ *smtp.MailOptions) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	s.from = from
	return nil
}

func (s *Session) Rcpt(to string) error {
	if err := s.requireAuth(); err != nil {
		return err
	}
	s.to = append(s.to, to)
	return nil
}

/* ======================  DATA  =================================== */

var otpPattern = regexp.MustCompile(`\b\d{6}\b`)

func (s *Session) Data(r io.Reader) error {
	if len(s.to) == 0 {
		return errors.New("no recipients specified")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	msg := Message{
		ID:         uuid.New().String(),
		From:       s.from,
		To:         append([]string(nil), s.to...),
		Data:       data,
		ReceivedAt: time.Now(),
	}
	if parsed, err := mail.ReadMessage(bytes.NewReader(data)); err == nil {
		msg.Subject = parsed.Header.Get("Subject")
		if body, err := io.ReadAll(parsed.Body); err == nil {
			msg.OTP = otpPattern.FindString(string(body))
		}
	}

	if s.backend.spool != nil {
		if err := s.backend.spool.Save(msg.ID, data); err != nil {
			s.backend.log.Error("spool message", "id", msg.ID, "err", err)
		}
	}
	s.backend.inbox.add(msg)
	s.backend.log.Info("mail received",
		"id", msg.ID, "from", msg.From, "to", msg.To, "subject", msg.Subject, "otp", msg.OTP)
	return nil
}

/* ======================  SESSION CLEANUP  ======================= */

func (s *Session) Reset() {
	s.from, s.to = "", nil
}

func (s *Session) Logout() error { return nil }
