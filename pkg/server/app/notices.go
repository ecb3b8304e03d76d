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

package app

import (
	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/campuslib/campuslib/pkg/server/log"
	"github.com/campuslib/campuslib/pkg/server/mailer"
	"github.com/pkg/errors"
)

// noticeRecipient prefers the institutional address of the student
func noticeRecipient(s database.Student) string {
	if s.InstitutionalEmail != "" {
		return s.InstitutionalEmail
	}

	return s.PersonalEmail
}

// NotifyOverdue emails a reminder for every overdue loan and returns the
// number of notices sent. A failed notice does not stop the others.
func (a *App) NotifyOverdue() (int, error) {
	loans, err := a.GetOverdueLoans()
	if err != nil {
		return 0, err
	}

	sent, failed := 0, 0
	for _, l := range loans {
		to := noticeRecipient(l.Student)
		if to == "" {
			log.WithField("loan_id", l.ID).Warn("student has no email address")
			failed++
			continue
		}

		data := mailer.OverdueNoticeTmplData{
			StudentName: l.Student.FullName(),
			BookTitle:   l.Book.Title,
			ISBN:        l.Book.ISBN,
			BorrowedOn:  l.BorrowedOn.Format(DateLayout),
			DueOn:       l.DueOn.Format(DateLayout),
			DaysLate:    l.DaysLate,
		}
		if err := a.EmailBackend.SendEmail(mailer.EmailTypeOverdueNotice, a.Config.MailFrom, []string{to}, data); err != nil {
			log.WithFields(log.Fields{
				"loan_id": l.ID,
				"to":      to,
			}).ErrorWrap(err, "sending overdue notice")
			failed++
			continue
		}

		sent++
	}

	if failed > 0 {
		return sent, errors.Errorf("%d of %d overdue notice(s) could not be sent", failed, len(loans))
	}

	return sent, nil
}
