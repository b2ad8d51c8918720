package dto

import "time"

// UserCreateDTO carries an admin-provisioned account. Password is optional;
// a random one is generated when absent.
type UserCreateDTO struct {
	Nom              string `json:"nom"`
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"omitempty,min=8"`
	Role             string `json:"role" validate:"omitempty,oneof=client user admin"`
	ImagesUsedTotal  int    `json:"images_used_total" validate:"min=0"`
	ImagesLimitTotal int    `json:"images_limit_total" validate:"min=0"`
	IsActive         *bool  `json:"is_active"`
}

// UserUpdateDTO carries a partial admin-side user update. Absent fields are
// left untouched.
type UserUpdateDTO struct {
	Nom              *string `json:"nom"`
	Email            *string `json:"email" validate:"omitempty,email"`
	Password         *string `json:"password" validate:"omitempty,min=8"`
	Role             *string `json:"role" validate:"omitempty,oneof=client user admin"`
	ImagesUsedTotal  *int    `json:"images_used_total" validate:"omitempty,min=0"`
	ImagesLimitTotal *int    `json:"images_limit_total" validate:"omitempty,min=0"`
	IsActive         *bool   `json:"is_active"`
}

type StatsResponseDTO struct {
	TotalRequests        int            `json:"total_requests"`
	TodayRequests        int            `json:"today_requests"`
	AtmosphereStats      map[string]int `json:"atmosphere_stats"`
	GeneratedImagesCount int            `json:"generated_images_count"`
}

// EmailQueueEntryDTO is one manual-recovery queue item. Image bytes stay
// server side.
type EmailQueueEntryDTO struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	RequestID     string    `json:"request_id"`
	OutfitDetails string    `json:"outfit_details"`
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
}

type ImportResponseDTO struct {
	ImportedCount int      `json:"imported_count"`
	ImportedUsers []string `json:"imported_users"`
	Errors        []string `json:"errors"`
}
