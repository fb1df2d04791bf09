package validator

import "strings"

// サインアップの入力
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"min=8,max=72"`
	DisplayName string `json:"display_name" validate:"max=100"`
}

// ログインの入力
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func ValidateRegister(in RegisterRequest) (RegisterRequest, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := asError(check(in)); err != nil {
		return RegisterRequest{}, err
	}
	return in, nil
}

func ValidateLogin(in LoginRequest) (LoginRequest, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := asError(check(in)); err != nil {
		return LoginRequest{}, err
	}
	return in, nil
}
