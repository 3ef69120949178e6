package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	IssueOpen     = "open"
	IssueResolved = "resolved"
)

type Issue struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Subject           string             `bson:"subject" json:"subject"`
	Description       string             `bson:"description" json:"description"`
	UserName          string             `bson:"userName" json:"userName"`
	UserEmail         string             `bson:"userEmail" json:"userEmail"`
	MunicipalityEmail string             `bson:"municipalityEmail" json:"municipalityEmail"`
	Status            string             `bson:"status" json:"status"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type IssueFilter struct {
	UserEmail         string
	MunicipalityEmail string
	Status            string
}
