package model

import (
	"fmt"
	"time"
)

// OutfitRequest is the durable record of one generation attempt. It is written
// after the credit check passes and before the external model is called, so
// the creator identity survives generation failures.
type OutfitRequest struct {
	ID             string    `db:"id" json:"id"`
	Atmosphere     string    `db:"atmosphere" json:"atmosphere"`
	SuitType       string    `db:"suit_type" json:"suit_type"`
	LapelType      string    `db:"lapel_type" json:"lapel_type"`
	PocketType     string    `db:"pocket_type" json:"pocket_type"`
	ShoeType       string    `db:"shoe_type" json:"shoe_type"`
	AccessoryType  string    `db:"accessory_type" json:"accessory_type"`
	Gender         string    `db:"gender" json:"gender"`
	FabricDesc     *string   `db:"fabric_description" json:"fabric_description,omitempty"`
	CustomShoeDesc *string   `db:"custom_shoe_description" json:"custom_shoe_description,omitempty"`
	CustomAccDesc  *string   `db:"custom_accessory_description" json:"custom_accessory_description,omitempty"`

	// CreatorEmail identifies the authenticated user who triggered the
	// request; RecipientEmail is who receives the emailed artifact. They are
	// independent and RecipientEmail may be absent.
	CreatorEmail   string  `db:"creator_email" json:"creator_email"`
	RecipientEmail *string `db:"recipient_email" json:"recipient_email,omitempty"`

	// Set when this request is a variant of an earlier one.
	ModificationOf   *string `db:"modification_of" json:"modification_of,omitempty"`
	ModificationDesc *string `db:"modification_description" json:"modification_description,omitempty"`

	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// ArtifactFilename is the storage key of the generated image for a request.
func ArtifactFilename(requestID string) string {
	return fmt.Sprintf("generated_%s.png", requestID)
}

// RequestStats is the aggregate report for the operational dashboard.
type RequestStats struct {
	TotalRequests        int            `json:"total_requests"`
	TodayRequests        int            `json:"today_requests"`
	AtmosphereStats      map[string]int `json:"atmosphere_stats"`
	GeneratedImagesCount int            `json:"generated_images_count"`
}
