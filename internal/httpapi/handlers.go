// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scylla/scylla/internal/auth"
)

func (r *router) register(c *gin.Context) {
	var in auth.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequestBody(c, err)
		return
	}
	user, err := r.svc.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, "account created", newUserView(user))
}

func (r *router) login(c *gin.Context) {
	var in auth.LoginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequestBody(c, err)
		return
	}
	user, err := r.svc.Login(c.Request.Context(), r.carrier(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "logged in", newUserView(user))
}

func (r *router) logout(c *gin.Context) {
	if err := r.svc.Logout(c.Request.Context(), r.carrier(c)); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "logged out", nil)
}

func (r *router) me(c *gin.Context) {
	user, err := r.svc.CurrentUser(c.Request.Context(), r.carrier(c))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", newUserView(user))
}

func (r *router) requestVerification(c *gin.Context) {
	ctx := c.Request.Context()
	user, err := r.svc.CurrentUser(ctx, r.carrier(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := r.svc.RequestEmailVerification(ctx, user.ID); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "verification email sent", nil)
}

func (r *router) verify(c *gin.Context) {
	var in auth.VerifyEmailInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequestBody(c, err)
		return
	}
	if err := auth.ValidateInput(in); err != nil {
		respondError(c, err)
		return
	}
	if err := r.svc.VerifyEmail(c.Request.Context(), in.Token); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "email verified", nil)
}

// forgotPassword answers identically whether or not the email is known.
func (r *router) forgotPassword(c *gin.Context) {
	var in auth.ForgotPasswordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequestBody(c, err)
		return
	}
	if err := r.svc.ForgotPassword(c.Request.Context(), in); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "if the email is registered, a reset link has been sent", nil)
}

func (r *router) resetPassword(c *gin.Context) {
	var in auth.ResetPasswordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequestBody(c, err)
		return
	}
	if err := r.svc.ResetPassword(c.Request.Context(), in); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "password updated", nil)
}
