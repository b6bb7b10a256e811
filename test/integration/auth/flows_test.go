// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

//go:build integration

package auth_test

import (
	"net/http"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/scylla/scylla/internal/auth"
	"github.com/scylla/scylla/internal/session"
)

var _ = Describe("Registration and login", Ordered, func() {
	var (
		browser *client
		creds   credentials
	)

	BeforeAll(func() {
		browser = newClient()
		creds = credentials{Name: "Ada Lovelace", Email: uniqueEmail("ada"), Password: "correct horse"}
	})

	It("creates an unverified account", func() {
		r := browser.post("/register", creds)
		Expect(r.Status).To(Equal(http.StatusCreated))
		Expect(r.Data).To(HaveKeyWithValue("email", creds.Email))
		Expect(r.Data).To(HaveKeyWithValue("verified", false))
		Expect(r.Data).To(HaveKeyWithValue("role", "user"))
	})

	It("rejects a second account with the same email", func() {
		r := newClient().post("/register", creds)
		Expect(r.Status).To(Equal(http.StatusConflict))
		Expect(r.Code).To(Equal(auth.CodeEmailTaken))
	})

	It("does not reveal whether the email or the password was wrong", func() {
		wrongPassword := browser.post("/login", credentials{Email: creds.Email, Password: "wrong horse"})
		unknownEmail := browser.post("/login", credentials{Email: uniqueEmail("nobody"), Password: creds.Password})

		Expect(wrongPassword.Status).To(Equal(http.StatusUnauthorized))
		Expect(wrongPassword).To(Equal(unknownEmail))
		Expect(browser.get("/me").Code).To(Equal(session.CodeNotAuthenticated))
	})

	It("logs in and resolves the current user", func() {
		r := browser.post("/login", credentials{Email: creds.Email, Password: creds.Password})
		Expect(r.Status).To(Equal(http.StatusOK))

		me := browser.get("/me")
		Expect(me.Status).To(Equal(http.StatusOK))
		Expect(me.Data).To(HaveKeyWithValue("email", creds.Email))
	})

	It("refuses a second login on a live session", func() {
		r := browser.post("/login", credentials{Email: creds.Email, Password: creds.Password})
		Expect(r.Status).To(Equal(http.StatusConflict))
		Expect(r.Code).To(Equal(session.CodeAlreadyAuthenticated))
	})

	It("logs out", func() {
		Expect(browser.post("/logout", nil).Status).To(Equal(http.StatusOK))
		Expect(browser.get("/me").Status).To(Equal(http.StatusUnauthorized))
		Expect(browser.post("/logout", nil).Code).To(Equal(session.CodeNotAuthenticated))
	})
})

var _ = Describe("Email verification", Ordered, func() {
	var (
		browser *client
		creds   credentials
		token   string
	)

	BeforeAll(func() {
		browser = newClient()
		creds = credentials{Name: "Grace Hopper", Email: uniqueEmail("grace"), Password: "cobol forever"}
		Expect(browser.post("/register", creds).Status).To(Equal(http.StatusCreated))
	})

	It("needs a session to request a link", func() {
		Expect(browser.post("/request-verification", nil).Status).To(Equal(http.StatusUnauthorized))
		Expect(env.outbox.to(creds.Email)).To(BeEmpty())
	})

	It("sends a link to the session's user", func() {
		Expect(browser.post("/login", creds).Status).To(Equal(http.StatusOK))
		Expect(browser.post("/request-verification", nil).Status).To(Equal(http.StatusOK))

		sent := env.outbox.to(creds.Email)
		Expect(sent).To(HaveLen(1))
		Expect(sent[0].From).To(Equal(sender))
		Expect(sent[0].Body).To(ContainSubstring(frontendURL + "/verify?token="))
		token = linkToken(sent[0])
	})

	It("verifies the email once", func() {
		Expect(newClient().post("/verify", map[string]string{"token": token}).Status).To(Equal(http.StatusOK))
		Expect(browser.get("/me").Data).To(HaveKeyWithValue("verified", true))

		again := newClient().post("/verify", map[string]string{"token": token})
		Expect(again.Status).To(Equal(http.StatusConflict))
		Expect(again.Code).To(Equal(auth.CodeTokenAlreadyUsed))
	})

	It("sends nothing once the email is verified", func() {
		Expect(browser.post("/request-verification", nil).Status).To(Equal(http.StatusOK))
		Expect(env.outbox.to(creds.Email)).To(HaveLen(1))
	})

	It("rejects unknown tokens", func() {
		r := newClient().post("/verify", map[string]string{"token": "0123456789abcdef0123456789abcdef"})
		Expect(r.Status).To(Equal(http.StatusNotFound))
		Expect(r.Code).To(Equal(auth.CodeTokenNotFound))
	})
})

var _ = Describe("Password reset", Ordered, func() {
	var (
		creds credentials
		token string
	)
	const newPassword = "battery staple"

	BeforeAll(func() {
		creds = credentials{Name: "Alan Turing", Email: uniqueEmail("alan"), Password: "enigma machine"}
		Expect(newClient().post("/register", creds).Status).To(Equal(http.StatusCreated))
	})

	It("answers the same for unknown and known emails", func() {
		unknown := newClient().post("/forgot-password", map[string]string{"email": uniqueEmail("ghost")})
		known := newClient().post("/forgot-password", map[string]string{"email": creds.Email})
		Expect(known).To(Equal(unknown))
		Expect(known.Status).To(Equal(http.StatusOK))

		env.service.Wait()
		sent := env.outbox.to(creds.Email)
		Expect(sent).To(HaveLen(1))
		Expect(sent[0].Body).To(ContainSubstring(frontendURL + "/reset-password?token="))
		token = linkToken(sent[0])
	})

	It("keeps the token usable after a confirmation mismatch", func() {
		r := newClient().post("/reset-password", map[string]string{
			"token": token, "password": newPassword, "password_confirmation": "something else",
		})
		Expect(r.Status).To(Equal(http.StatusBadRequest))
		Expect(r.Code).To(Equal(auth.CodePasswordMismatch))
	})

	It("replaces the password once", func() {
		body := map[string]string{"token": token, "password": newPassword, "password_confirmation": newPassword}
		Expect(newClient().post("/reset-password", body).Status).To(Equal(http.StatusOK))

		again := newClient().post("/reset-password", body)
		Expect(again.Status).To(Equal(http.StatusConflict))
		Expect(again.Code).To(Equal(auth.CodeTokenAlreadyUsed))
	})

	It("accepts only the new password", func() {
		old := newClient().post("/login", credentials{Email: creds.Email, Password: creds.Password})
		Expect(old.Code).To(Equal(auth.CodeInvalidCredentials))

		fresh := newClient().post("/login", credentials{Email: creds.Email, Password: newPassword})
		Expect(fresh.Status).To(Equal(http.StatusOK))
	})

	It("does not accept a verification token for a reset", func() {
		browser := newClient()
		Expect(browser.post("/login", credentials{Email: creds.Email, Password: newPassword}).Status).To(Equal(http.StatusOK))
		Expect(browser.post("/request-verification", nil).Status).To(Equal(http.StatusOK))

		var verification string
		for _, m := range env.outbox.to(creds.Email) {
			if m.Subject == "Verify your email address" {
				verification = linkToken(m)
			}
		}
		Expect(verification).NotTo(BeEmpty())

		r := newClient().post("/reset-password", map[string]string{
			"token": verification, "password": "another one", "password_confirmation": "another one",
		})
		Expect(r.Code).To(Equal(auth.CodeTokenNotFound))
	})
})
