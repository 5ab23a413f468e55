package models

type RegisterReq struct {
	Username    string  `json:"username" binding:"required,min=3,max=30"`
	Email       string  `json:"email" binding:"required,email"`
	Password    string  `json:"password" binding:"required,min=8"`
	Nickname    string  `json:"nickname" binding:"omitempty,max=50"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty"`
	Bio         string  `json:"bio" binding:"omitempty,max=500"`
}

type LoginReq struct {
	// Identifier is a username, email or phone number.
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
}

type RefreshReq struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutReq struct {
	RefreshToken string `json:"refresh_token"`
}

type ValidateTokenReq struct {
	Token string `json:"token" binding:"required"`
}

type PasswordResetReq struct {
	Email string `json:"email" binding:"required,email"`
}

type PasswordResetConfirmReq struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type PasswordChangeReq struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type UpdateProfileReq struct {
	Email       *string `json:"email" binding:"omitempty,email"`
	PhoneNumber *string `json:"phone_number" binding:"omitempty"`
	Nickname    *string `json:"nickname" binding:"omitempty,max=50"`
	Bio         *string `json:"bio" binding:"omitempty,max=500"`
}

type ValidateTokenRes struct {
	Valid  bool  `json:"valid"`
	UserID int64 `json:"user_id,omitempty"`
}
