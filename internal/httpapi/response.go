// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/scylla/scylla/internal/auth"
	"github.com/scylla/scylla/internal/session"
)

// Envelope is the body of every API response.
type Envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// UserView is the public representation of a user.
type UserView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Image     *string   `json:"image,omitempty"`
	Phone     *string   `json:"phone,omitempty"`
	Role      string    `json:"role"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserView(u *auth.User) UserView {
	return UserView{
		ID:        u.ID.String(),
		Name:      u.Name,
		Email:     u.Email,
		Image:     u.Image,
		Phone:     u.Phone,
		Role:      u.Role,
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt,
	}
}

type failure struct {
	status  int
	message string
}

// failures maps service error codes to HTTP statuses and client messages.
var failures = map[string]failure{
	auth.CodeValidationFailed:        {http.StatusBadRequest, "validation failed"},
	auth.CodeEmailTaken:              {http.StatusConflict, "email is already registered"},
	auth.CodeInvalidCredentials:      {http.StatusUnauthorized, "invalid email or password"},
	auth.CodeTokenNotFound:           {http.StatusNotFound, "token not found"},
	auth.CodeTokenExpired:            {http.StatusGone, "token has expired"},
	auth.CodeTokenAlreadyUsed:        {http.StatusConflict, "token has already been used"},
	auth.CodePasswordMismatch:        {http.StatusBadRequest, "passwords do not match"},
	auth.CodeUserNotFound:            {http.StatusNotFound, "user not found"},
	session.CodeNotAuthenticated:     {http.StatusUnauthorized, "not logged in"},
	session.CodeAlreadyAuthenticated: {http.StatusConflict, "already logged in"},
	auth.CodeStorageUnavailable:      {http.StatusServiceUnavailable, "service temporarily unavailable"},
	auth.CodeDispatchFailed:          {http.StatusBadGateway, "could not send email"},
	auth.CodeInternal:                {http.StatusInternalServerError, "internal server error"},
}

// StatusFor returns the HTTP status for a service error code. Unknown codes
// are internal errors.
func StatusFor(code string) int {
	if f, ok := failures[code]; ok {
		return f.status
	}
	return http.StatusInternalServerError
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Status: status, Message: message, Data: data})
}

// respondError writes the envelope for err. Only the code and a fixed
// message leave the process; validation failures add the offending fields.
func respondError(c *gin.Context, err error) {
	code := auth.ErrorCode(err)
	f, ok := failures[code]
	if !ok {
		code = auth.CodeInternal
		f = failures[code]
	}

	env := Envelope{Status: f.status, Message: f.message, Code: code}
	if code == auth.CodeValidationFailed {
		if oe, ok := oops.AsOops(err); ok {
			if fields, ok := oe.Context()["fields"]; ok {
				env.Data = gin.H{"fields": fields}
			}
		}
	}

	_ = c.Error(err) //nolint:errcheck // recorded for the access log
	c.AbortWithStatusJSON(f.status, env)
}

func badRequestBody(c *gin.Context, err error) {
	respondError(c, oops.Code(auth.CodeValidationFailed).With("fields", map[string]string{"body": "json"}).Wrap(err))
}
