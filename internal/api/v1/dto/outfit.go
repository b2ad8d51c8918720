package dto

import "time"

// OptionDTO is one selectable value of a style catalog.
type OptionDTO struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// OptionsResponseDTO lists every style catalog offered by the builder UI.
type OptionsResponseDTO struct {
	Atmospheres    []OptionDTO `json:"atmospheres"`
	Genders        []OptionDTO `json:"genders"`
	SuitTypes      []OptionDTO `json:"suit_types"`
	LapelTypes     []OptionDTO `json:"lapel_types"`
	PocketTypes    []OptionDTO `json:"pocket_types"`
	ShoeTypes      []OptionDTO `json:"shoe_types"`
	AccessoryTypes []OptionDTO `json:"accessory_types"`
}

// GenerateFormDTO collects the multipart form fields of a generation
// request. File parts are handled separately.
type GenerateFormDTO struct {
	Atmosphere     string `validate:"required"`
	SuitType       string `validate:"required"`
	LapelType      string `validate:"required"`
	PocketType     string `validate:"required"`
	ShoeType       string `validate:"required"`
	AccessoryType  string `validate:"required"`
	Gender         string `validate:"required,oneof=homme femme"`
	RecipientEmail string `validate:"omitempty,email"`
}

// GenerateResponseDTO is returned by /generate and /modify-image.
type GenerateResponseDTO struct {
	Success       bool       `json:"success"`
	RequestID     string     `json:"request_id"`
	ImageFilename string     `json:"image_filename"`
	DownloadURL   string     `json:"download_url"`
	EmailSent     bool       `json:"email_sent"`
	EmailMessage  string     `json:"email_message"`
	Message       string     `json:"message"`
	UserCredits   CreditsDTO `json:"user_credits"`
}

type ModifyImageDTO struct {
	RequestID               string `json:"request_id" validate:"required"`
	ModificationDescription string `json:"modification_description" validate:"required"`
}

type SendMultipleDTO struct {
	Email    string   `json:"email" validate:"required,email"`
	ImageIDs []string `json:"imageIds" validate:"required,min=1"`
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
}

type SendMultipleResponseDTO struct {
	Success   bool   `json:"success"`
	SentCount int    `json:"sent_count"`
	Message   string `json:"message"`
}

// OutfitRequestResponseDTO is one recorded generation request.
type OutfitRequestResponseDTO struct {
	ID               string    `json:"id"`
	Atmosphere       string    `json:"atmosphere"`
	SuitType         string    `json:"suit_type"`
	LapelType        string    `json:"lapel_type"`
	PocketType       string    `json:"pocket_type"`
	ShoeType         string    `json:"shoe_type"`
	AccessoryType    string    `json:"accessory_type"`
	Gender           string    `json:"gender"`
	FabricDesc       *string   `json:"fabric_description,omitempty"`
	CustomShoeDesc   *string   `json:"custom_shoe_description,omitempty"`
	CustomAccDesc    *string   `json:"custom_accessory_description,omitempty"`
	CreatorEmail     string    `json:"creator_email"`
	RecipientEmail   *string   `json:"recipient_email,omitempty"`
	ModificationOf   *string   `json:"modification_of,omitempty"`
	ModificationDesc *string   `json:"modification_description,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
}
