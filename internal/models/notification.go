package models

import "time"

// Notification types.
const (
	NotificationLike    = "like"
	NotificationReport  = "report"
	NotificationRemoval = "removal"
)

// ReportNotification is stored per user when one of their products is
// reported or removed.
type ReportNotification struct {
	ID          string    `db:"id" json:"id"`
	UserEmail   string    `db:"user_email" json:"-"`
	Type        string    `db:"type" json:"type"`
	ProductID   string    `db:"product_id" json:"productId"`
	ProductName string    `db:"product_name" json:"productName"`
	Message     string    `db:"message" json:"message"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// Notification is one entry of the aggregated feed.
type Notification struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	BlogID      string    `json:"blogId,omitempty"`
	BlogTitle   string    `json:"blogTitle,omitempty"`
	ActorEmail  string    `json:"actorEmail,omitempty"`
	ActorName   string    `json:"actorName,omitempty"`
	ProductID   string    `json:"productId,omitempty"`
	ProductName string    `json:"productName,omitempty"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}
