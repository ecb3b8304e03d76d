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

package mailer

import (
	"strings"
	"testing"

	"github.com/campuslib/campuslib/pkg/assert"
	"github.com/pkg/errors"
)

func TestAllTemplatesInitialized(t *testing.T) {
	tmpl := NewTemplates()

	for _, emailType := range emailTypes {
		t.Run(emailType, func(t *testing.T) {
			if _, ok := tmpl[emailType]; !ok {
				t.Errorf("template %s not initialized", emailType)
			}
		})
	}
}

func TestOverdueNoticeEmail(t *testing.T) {
	tmpl := NewTemplates()

	dat := OverdueNoticeTmplData{
		StudentName: "RAKOTO Jean",
		BookTitle:   "Le Petit Prince",
		ISBN:        "9782070612758",
		BorrowedOn:  "01/03/2024",
		DueOn:       "15/03/2024",
		DaysLate:    4,
	}
	subject, body, err := tmpl.Render(EmailTypeOverdueNotice, dat)
	if err != nil {
		t.Fatal(errors.Wrap(err, "rendering"))
	}

	assert.Equal(t, subject, "Overdue loan: Le Petit Prince", "subject mismatch")
	if !strings.HasPrefix(body, "Hello RAKOTO Jean,") {
		t.Errorf("body does not start with the greeting:\n%s", body)
	}
	for _, want := range []string{"Le Petit Prince (ISBN 9782070612758)", "due on 15/03/2024", "4 day(s) late"} {
		if !strings.Contains(body, want) {
			t.Errorf("body does not contain %q:\n%s", want, body)
		}
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	tmpl := NewTemplates()

	if _, _, err := tmpl.Render("welcome", nil); err == nil {
		t.Fatal("expected an error for an unknown template")
	}
}
