// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package auth

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
)

// Input constraints.
const (
	MinNameLength     = 3
	MaxNameLength     = 100
	MaxEmailLength    = 255
	MinPasswordLength = 8
	MaxPasswordLength = 100
	MinTokenLength    = 10
)

// RegisterInput is the payload of Register.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=3,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=100"`
}

// LoginInput is the payload of Login. Password length is not checked so that
// accounts created under older rules can still log in.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,max=100"`
}

// ForgotPasswordInput is the payload of ForgotPassword.
type ForgotPasswordInput struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// VerifyEmailInput is the payload of VerifyEmail.
type VerifyEmailInput struct {
	Token string `json:"token" validate:"required,min=10"`
}

// ResetPasswordInput is the payload of ResetPassword.
type ResetPasswordInput struct {
	Token                string `json:"token" validate:"required,min=10"`
	Password             string `json:"password" validate:"required,min=8,max=100"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateInput checks a payload's shape and returns AUTH_VALIDATION_FAILED
// with the offending fields in the error context.
func ValidateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return oops.Code(CodeValidationFailed).Wrap(err)
	}

	fields := make(map[string]string, len(verrs))
	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
		names = append(names, fe.Field())
	}
	sort.Strings(names)

	return oops.Code(CodeValidationFailed).
		With("fields", fields).
		Errorf("invalid %s", strings.Join(names, ", "))
}
