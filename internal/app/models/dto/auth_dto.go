package dto

// LoginRequest is the staff login payload
type LoginRequest struct {
	Username string `json:"username" binding:"required" example:"registrar"`
	Password string `json:"password" binding:"required" example:"changeme"`
}

// LoginResponse carries the issued staff access token
type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	ExpiresIn   int    `json:"expiresIn" example:"3600"` // Seconds
	Role        string `json:"role" example:"ADMIN"`
}
