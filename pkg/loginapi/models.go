package loginapi

import "fmt"

// Response is the envelope every JSON reply of the API carries.
type Response struct {
	Success bool `json:"success"`
}

// MessageResponse is a Response with a human-readable message. For token
// generation the message is the signed token.
type MessageResponse struct {
	Response
	Message string `json:"message"`
}

// Credentials is the body of createuser and generatetoken.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenRequest is the body of authenticated calls.
type TokenRequest struct {
	Token string `json:"token"`
}

// APIError reports a rejected call.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Op, e.Status, e.Message)
}
