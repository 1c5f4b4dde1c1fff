package dto

type RegisterDTO struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginDTO accepts the login in either field; username may also hold an email.
type LoginDTO struct {
	Username string `json:"username" binding:"required_without=Email"`
	Email    string `json:"email" binding:"omitempty,email"`
	Password string `json:"password" binding:"required"`
}

func (d LoginDTO) Login() string {
	if d.Username != "" {
		return d.Username
	}
	return d.Email
}

// RefreshDTO is optional; the cookie is used when the body carries no token.
type RefreshDTO struct {
	RefreshToken string `json:"refreshToken"`
}
