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

package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newLoansCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loans",
		Short: "Manage loans",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "notify-overdue",
		Short: "Email a reminder to the borrower of every overdue loan",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := setupApp(flags.params())
			if err != nil {
				return err
			}
			defer cleanup()

			sent, err := a.NotifyOverdue()
			if sent > 0 {
				successf(cmd.OutOrStdout(), "Sent %d overdue notice(s)", sent)
			} else if err == nil {
				infof(cmd.OutOrStdout(), "No loan is overdue")
			}
			if err != nil {
				return errors.Wrap(err, "notifying overdue loans")
			}

			return nil
		},
	})

	return cmd
}
