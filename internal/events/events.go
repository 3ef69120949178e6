// Package events publishes moderation events for other services to consume.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

// Event types. The NATS subject is SubjectPrefix + type.
const (
	ProductReported = "product.reported"
	ProductRemoved  = "product.removed"
	SellerBanned    = "seller.banned"
	BlogApproved    = "blog.approved"
)

const SubjectPrefix = "ecofy."

type Event struct {
	Type              string     `json:"type"`
	ProductID         string     `json:"productId,omitempty"`
	ProductName       string     `json:"productName,omitempty"`
	SellerEmail       string     `json:"sellerEmail,omitempty"`
	ReporterEmail     string     `json:"reporterEmail,omitempty"`
	Reason            string     `json:"reason,omitempty"`
	ReportCount       int        `json:"reportCount,omitempty"`
	RemovedCount      int        `json:"removedCount,omitempty"`
	BanUntil          *time.Time `json:"banUntil,omitempty"`
	BlogID            string     `json:"blogId,omitempty"`
	AuthorEmail       string     `json:"authorEmail,omitempty"`
	MunicipalityEmail string     `json:"municipalityEmail,omitempty"`
	At                time.Time  `json:"at"`
}

func (e Event) Subject() string { return SubjectPrefix + e.Type }

// Publisher delivers events. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Conn is the part of *nats.Conn used for publishing.
type Conn interface {
	Publish(subject string, data []byte) error
}

// NATSPublisher publishes JSON events on NATS.
type NATSPublisher struct {
	conn Conn
	log  *slog.Logger
}

func NewNATSPublisher(conn Conn, log *slog.Logger) *NATSPublisher {
	if log == nil {
		log = slog.Default()
	}
	return &NATSPublisher{conn: conn, log: log}
}

// Connect dials url with reconnects enabled.
func Connect(url string, log *slog.Logger) (*nats.Conn, error) {
	return nats.Connect(url,
		nats.Name("ecofy"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	)
}

func (p *NATSPublisher) Publish(_ context.Context, e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		p.log.Error("encode event", "type", e.Type, "err", err)
		return
	}
	if err := p.conn.Publish(e.Subject(), data); err != nil {
		p.log.Warn("publish event", "subject", e.Subject(), "err", err)
	}
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []string {
	var out []string
	for _, e := range r.Events() {
		out = append(out, e.Type)
	}
	return out
}
