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
	"fmt"

	"github.com/campuslib/campuslib/pkg/prompt"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newLibrarianCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "librarian",
		Short: "Manage librarian accounts",
	}

	cmd.AddCommand(
		newLibrarianCreateCmd(flags),
		newLibrarianRemoveCmd(flags),
		newLibrarianResetPasswordCmd(flags),
	)

	return cmd
}

func newLibrarianCreateCmd(flags *globalFlags) *cobra.Command {
	var email, password, fullName string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a librarian",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := setupApp(flags.params())
			if err != nil {
				return err
			}
			defer cleanup()

			librarian, err := a.CreateLibrarian(email, password, fullName)
			if err != nil {
				return errors.Wrap(err, "creating librarian")
			}

			successf(cmd.OutOrStdout(), "Librarian created: %s", librarian.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "password (required)")
	cmd.Flags().StringVar(&fullName, "name", "", "full name")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}

func newLibrarianRemoveCmd(flags *globalFlags) *cobra.Command {
	var email string
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a librarian and sign out its sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := setupApp(flags.params())
			if err != nil {
				return err
			}
			defer cleanup()

			if _, err := a.GetLibrarianByEmail(email); err != nil {
				return errors.Wrapf(err, "finding librarian %s", email)
			}

			if !yes {
				ok, err := prompt.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Remove librarian %s?", email), false)
				if err != nil {
					return errors.Wrap(err, "getting confirmation")
				}
				if !ok {
					warnf(cmd.OutOrStdout(), "Aborted")
					return nil
				}
			}

			if err := a.RemoveLibrarian(email); err != nil {
				return errors.Wrap(err, "removing librarian")
			}

			successf(cmd.OutOrStdout(), "Librarian removed: %s", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation")
	cmd.MarkFlagRequired("email")

	return cmd
}

func newLibrarianResetPasswordCmd(flags *globalFlags) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Replace the password of a librarian",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := setupApp(flags.params())
			if err != nil {
				return err
			}
			defer cleanup()

			if err := a.ResetPassword(email, password); err != nil {
				return errors.Wrap(err, "resetting password")
			}

			successf(cmd.OutOrStdout(), "Password reset: %s", email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "new password (required)")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")

	return cmd
}
