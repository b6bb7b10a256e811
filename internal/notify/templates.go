// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Scylla Contributors

package notify

import (
	"bytes"
	"text/template"
	"time"

	"github.com/samber/oops"
)

// Template names a message layout.
type Template string

// Available templates.
const (
	TemplateVerifyEmail   Template = "verify_email"
	TemplateResetPassword Template = "reset_password"
)

// LinkData fills a link-bearing template.
type LinkData struct {
	Name      string
	Link      string
	ExpiresIn time.Duration
}

// Minutes is the expiry rounded to whole minutes, at least one.
func (d LinkData) Minutes() int {
	m := int(d.ExpiresIn.Round(time.Minute) / time.Minute)
	if m < 1 {
		return 1
	}
	return m
}

type layout struct {
	subject string
	body    *template.Template
}

var layouts = map[Template]layout{
	TemplateVerifyEmail: {
		subject: "Verify your email address",
		body: template.Must(template.New("verify_email").Parse(`Hello {{.Name}},

Please follow the link below to verify your email address:
{{.Link}}

This link expires in {{.Minutes}} minutes.

The Scylla team
`)),
	},
	TemplateResetPassword: {
		subject: "Reset your password",
		body: template.Must(template.New("reset_password").Parse(`Hello {{.Name}},

Please follow the link below to choose a new password:
{{.Link}}

This link expires in {{.Minutes}} minutes. If you did not ask for a reset,
you can ignore this message.

The Scylla team
`)),
	},
}

// Compose renders tmpl into a Message addressed from -> to.
func Compose(tmpl Template, from, to string, data LinkData) (Message, error) {
	l, ok := layouts[tmpl]
	if !ok {
		return Message{}, oops.Code("NOTIFY_UNKNOWN_TEMPLATE").With("template", string(tmpl)).Errorf("unknown template")
	}

	var body bytes.Buffer
	if err := l.body.Execute(&body, data); err != nil {
		return Message{}, oops.Code("NOTIFY_RENDER_FAILED").With("template", string(tmpl)).Wrap(err)
	}

	msg := Message{From: from, To: to, Subject: l.subject, Body: body.String()}
	if err := msg.Validate(); err != nil {
		return Message{}, err
	}
	return msg, nil
}
