package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Lead is a facility that asked to join the platform from the marketing site.
type Lead struct {
	ID           snowflake.ID      `gorm:"primaryKey;autoIncrement:false" json:"id" firestore:"id"`
	Name         string            `gorm:"not null" json:"name" firestore:"name"`
	Email        string            `gorm:"not null;uniqueIndex:ux_leads_email_facility" json:"email" firestore:"email"`
	Phone        string            `json:"phone,omitempty" firestore:"phone,omitempty"`
	FacilityName string            `gorm:"not null" json:"facility_name" firestore:"facilityName"`
	FacilitySlug string            `gorm:"not null;uniqueIndex:ux_leads_email_facility" json:"facility_slug" firestore:"facilitySlug"`
	Message      string            `json:"message,omitempty" firestore:"message,omitempty"`
	Attributes   datatypes.JSONMap `json:"attributes,omitempty" firestore:"attributes,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;index" json:"created_at" firestore:"createdAt"`
}

func (Lead) TableName() string { return "leads" }
