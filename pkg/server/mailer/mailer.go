/* Copyright 2025 Campuslib Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package mailer renders and delivers the notices sent to borrowers
package mailer

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/campuslib/campuslib/pkg/server/mailer/templates"
	"github.com/pkg/errors"
)

// EmailTypeOverdueNotice is a reminder sent for an overdue loan
const EmailTypeOverdueNotice = "overdue_notice"

// contentType is the MIME type of every notice body
const contentType = "text/plain"

// emailTypes lists the notices that must have a template file
var emailTypes = []string{
	EmailTypeOverdueNotice,
}

// Templates maps an email type to its parsed template. Each template file
// defines a "subject" and a "body" block.
type Templates map[string]*template.Template

// NewTemplates parses the embedded template of every email type. It panics
// on a malformed template since those are compiled into the binary.
func NewTemplates() Templates {
	ret := Templates{}

	for _, name := range emailTypes {
		t, err := parseTemplate(name)
		if err != nil {
			panic(errors.Wrapf(err, "initializing template %s", name))
		}

		ret[name] = t
	}

	return ret
}

func parseTemplate(name string) (*template.Template, error) {
	t, err := template.New(name).ParseFS(templates.Files, name+".txt")
	if err != nil {
		return nil, errors.Wrap(err, "parsing")
	}

	for _, block := range []string{"subject", "body"} {
		if t.Lookup(block) == nil {
			return nil, errors.Errorf("missing '%s' block", block)
		}
	}

	return t, nil
}

// Render executes the template of the given email type and returns the
// subject line and the body
func (tmpl Templates) Render(name string, data any) (subject, body string, err error) {
	t, ok := tmpl[name]
	if !ok {
		return "", "", errors.Errorf("unsupported email type '%s'", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "subject", data); err != nil {
		return "", "", errors.Wrap(err, "rendering subject")
	}
	subject = strings.TrimSpace(buf.String())

	buf.Reset()
	if err := t.ExecuteTemplate(&buf, "body", data); err != nil {
		return "", "", errors.Wrap(err, "rendering body")
	}

	return subject, buf.String(), nil
}
