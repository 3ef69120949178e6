// Package moderation holds the marketplace report, removal and upload ban
// rules. It performs no I/O.
package moderation

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Rishika-pasricha/Hack-Hub/internal/models"
)

const (
	// RemovalThreshold is the report count at which a product is deleted.
	RemovalThreshold = 5
	// BanEvery grants a ban on every BanEvery-th removal of a seller.
	BanEvery = 10
	// BanDuration is how long an upload ban lasts.
	BanDuration = 30 * 24 * time.Hour
)

var (
	ErrInvalidReason   = errors.New("invalid report reason")
	ErrOwnProduct      = errors.New("you cannot report your own product")
	ErrAlreadyReported = errors.New("you have already reported this product")
)

// Reasons lists the accepted report reasons.
var Reasons = []string{models.ReasonSpam, models.ReasonFake, models.ReasonOffensive, models.ReasonScam}

// NormalizeReason lowercases and trims r.
func NormalizeReason(r string) string {
	return strings.ToLower(strings.TrimSpace(r))
}

func ValidReason(r string) bool {
	for _, v := range Reasons {
		if v == r {
			return true
		}
	}
	return false
}

// CheckReport applies the report guards for reporter against p.
func CheckReport(p models.Product, reporter, reason string) error {
	switch {
	case !ValidReason(reason):
		return ErrInvalidReason
	case p.SellerEmail == reporter:
		return ErrOwnProduct
	case p.ReportedBy(reporter):
		return ErrAlreadyReported
	}
	return nil
}

// ShouldRemove reports whether a product with reportCount reports must go.
func ShouldRemove(reportCount int) bool {
	return reportCount >= RemovalThreshold
}

// BanAfterRemoval returns the ban expiry earned by reaching removedCount,
// or nil when that count does not trigger a ban.
func BanAfterRemoval(removedCount int, now time.Time) *time.Time {
	if removedCount <= 0 || removedCount%BanEvery != 0 {
		return nil
	}
	until := now.Add(BanDuration)
	return &until
}

// BannedUntil returns the active ban expiry of u at now, if any.
func BannedUntil(u models.User, now time.Time) (time.Time, bool) {
	if u.UploadBanUntil == nil || !u.UploadBanUntil.After(now) {
		return time.Time{}, false
	}
	return *u.UploadBanUntil, true
}

func ReportedMessage(productName string) string {
	return fmt.Sprintf("Your %s was reported", productName)
}

func RemovedMessage(productName string) string {
	return fmt.Sprintf("Your %s was removed after repeated reports", productName)
}

// ReportNotification builds the seller notification for a new report.
func ReportNotification(p models.Product, now time.Time) models.ReportNotification {
	return models.ReportNotification{
		UserEmail:   p.SellerEmail,
		Type:        models.NotificationReport,
		ProductID:   p.ID.Hex(),
		ProductName: p.Name,
		Message:     ReportedMessage(p.Name),
		CreatedAt:   now,
	}
}

// RemovalNotification builds the seller notification for a removal.
func RemovalNotification(productID, sellerEmail, productName string, now time.Time) models.ReportNotification {
	return models.ReportNotification{
		UserEmail:   sellerEmail,
		Type:        models.NotificationRemoval,
		ProductID:   productID,
		ProductName: productName,
		Message:     RemovedMessage(productName),
		CreatedAt:   now,
	}
}
