package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Report reasons.
const (
	ReasonSpam      = "spam"
	ReasonFake      = "fake"
	ReasonOffensive = "offensive"
	ReasonScam      = "scam"
)

type Report struct {
	ReporterEmail string    `bson:"reporterEmail" json:"reporterEmail"`
	Reason        string    `bson:"reason" json:"reason"`
	CreatedAt     time.Time `bson:"createdAt" json:"createdAt"`
}

type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"productName" json:"productName"`
	Description string             `bson:"description" json:"description"`
	Price       float64            `bson:"price" json:"price"`
	Image       string             `bson:"productImageUrl" json:"productImageUrl"`
	SellerName  string             `bson:"sellerName" json:"sellerName"`
	SellerEmail string             `bson:"sellerEmail" json:"sellerEmail"`
	City        string             `bson:"city" json:"city"`
	Reports     []Report           `bson:"reports" json:"-"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ReportedBy reports whether email already filed a report.
func (p Product) ReportedBy(email string) bool {
	for _, r := range p.Reports {
		if r.ReporterEmail == email {
			return true
		}
	}
	return false
}

// ProductView hides individual reports and exposes only their count.
type ProductView struct {
	Product
	ReportCount int `json:"reportCount"`
}

func NewProductView(p Product) ProductView {
	return ProductView{Product: p, ReportCount: len(p.Reports)}
}

type ProductEdit struct {
	Name        *string
	Description *string
	Price       *float64
	Image       *string
	City        *string
}

type ProductFilter struct {
	SellerEmail string
	City        string
}

// PendingRemoval records a product removed by reports whose effect on the
// seller has not been applied yet.
type PendingRemoval struct {
	ProductID   string     `db:"product_id"`
	SellerEmail string     `db:"seller_email"`
	ProductName string     `db:"product_name"`
	CreatedAt   time.Time  `db:"created_at"`
	AppliedAt   *time.Time `db:"applied_at"`
}
