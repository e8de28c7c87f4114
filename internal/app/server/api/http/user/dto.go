package user

import "hydrosync/internal/domain/user"

type registerInput struct {
	Body user.BaseRequest
}

type registerOutput struct {
	Status int
	Body   RegisterResponse
}

type RegisterResponse struct {
	ID     string `json:"user_id,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type loginInput struct {
	Body user.BaseRequest
}

type loginOutput struct {
	Status int
	Body   LoginResponse
}

type LoginResponse struct {
	Token  string `json:"token,omitempty"`
	UserID string `json:"user_id,omitempty"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type logoutOutput struct {
	Body LogoutResponse
}

type LogoutResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}
