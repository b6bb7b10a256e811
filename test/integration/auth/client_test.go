// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

//go:build integration

package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"strings"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/gomega" //nolint:revive // gomega convention
)

// client is a browser stand-in that keeps the session cookie.
type client struct {
	http *http.Client
}

func newClient() *client {
	jar, err := cookiejar.New(nil)
	Expect(err).NotTo(HaveOccurred())
	return &client{http: &http.Client{Jar: jar}}
}

type reply struct {
	Status  int            `json:"status"`
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Data    map[string]any `json:"data"`
}

func (c *client) post(path string, body any) reply {
	var buf bytes.Buffer
	if body != nil {
		Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
	}
	resp, err := c.http.Post(env.server.URL+"/api/auth"+path, "application/json", &buf)
	Expect(err).NotTo(HaveOccurred())
	return decode(resp)
}

func (c *client) get(path string) reply {
	resp, err := c.http.Get(env.server.URL + "/api/auth" + path)
	Expect(err).NotTo(HaveOccurred())
	return decode(resp)
}

func decode(resp *http.Response) reply {
	defer func() { _ = resp.Body.Close() }()
	var r reply
	Expect(json.NewDecoder(resp.Body).Decode(&r)).To(Succeed())
	Expect(r.Status).To(Equal(resp.StatusCode))
	return r
}

// uniqueEmail keeps specs independent of each other and of run order.
func uniqueEmail(prefix string) string {
	return prefix + "-" + strings.ToLower(ulid.Make().String()) + "@scylla.test"
}

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}
