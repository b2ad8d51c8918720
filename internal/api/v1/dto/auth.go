package dto

// RegisterDTO is used for incoming account creation requests
type RegisterDTO struct {
	Nom      string `json:"nom" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponseDTO is returned in API responses
type UserResponseDTO struct {
	ID               string `json:"id"`
	Nom              string `json:"nom"`
	Email            string `json:"email"`
	Role             string `json:"role"`
	ImagesUsedTotal  int    `json:"images_used_total"`
	ImagesLimitTotal int    `json:"images_limit_total"`
	IsActive         bool   `json:"is_active"`
}

type LoginResponseDTO struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	User        UserResponseDTO `json:"user"`
}

type CreditsDTO struct {
	Used      int `json:"used"`
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`
}
