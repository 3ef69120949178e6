// Package mailsink is a local SMTP server that accepts every message and
// keeps it for inspection. It stands in for a relay during development.
package mailsink

import (
	"crypto/subtle"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/emersion/go-smtp"
)

// Message is one accepted mail.
type Message struct {
	ID         string
	From       string
	To         []string
	Subject    string
	OTP        string
	Data       []byte
	ReceivedAt time.Time
}

// Inbox keeps the most recent messages in memory.
type Inbox struct {
	mu    sync.Mutex
	msgs  []Message
	limit int
}

func NewInbox(limit int) *Inbox {
	if limit <= 0 {
		limit = 100
	}
	return &Inbox{limit: limit}
}

func (i *Inbox) add(m Message) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.msgs = append(i.msgs, m)
	if len(i.msgs) > i.limit {
		i.msgs = i.msgs[len(i.msgs)-i.limit:]
	}
}

// Messages returns a copy of the stored messages, oldest first.
func (i *Inbox) Messages() []Message {
	i.mu.Lock()
	defer i.mu.Unlock()
	return append([]Message(nil), i.msgs...)
}

// Options configures the sink.
type Options struct {
	Addr     string
	Domain   string
	Username string // empty disables authentication
	Password string
	SpoolDir string // empty keeps messages only in memory
}

// Backend implements smtp.Backend
type Backend struct {
	opts  Options
	inbox *Inbox
	spool *Spool
	log   *slog.Logger
}

func NewBackend(opts Options, inbox *Inbox, log *slog.Logger) (*Backend, error) {
	if log == nil {
		log = slog.Default()
	}
	b := &Backend{opts: opts, inbox: inbox, log: log}
	if opts.SpoolDir != "" {
		spool, err := NewSpool(opts.SpoolDir)
		if err != nil {
			return nil, err
		}
		b.spool = spool
	}
	return b, nil
}

func (b *Backend) NewSession(*smtp.Conn) (smtp.Session, error) {
	return &Session{backend: b}, nil
}

var errAuth = errors.New("authentication failed")

func (b *Backend) authenticate(username, password string) error {
	if b.opts.Username == "" {
		return nil
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(b.opts.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(b.opts.Password)) == 1
	if !userOK || !passOK {
		return errAuth
	}
	return nil
}

// NewServer builds the SMTP server for b.
func NewServer(b *Backend) *smtp.Server {
	s := smtp.NewServer(b)
	s.Addr = b.opts.Addr
	s.Domain = b.opts.Domain
	if s.Domain == "" {
		s.Domain = "localhost"
	}
	s.ReadTimeout = 30 * time.Second
	s.WriteTimeout = 30 * time.Second
	s.MaxMessageBytes = 1 << 20
	s.MaxRecipients = 50
	s.AllowInsecureAuth = true
	return s
}

// Serve runs srv on l until it is closed.
func Serve(srv *smtp.Server, l net.Listener) error {
	err := srv.Serve(l)
	if errors.Is(err, smtp.ErrServerClosed) {
		return nil
	}
	return err
}
