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
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/campuslib/campuslib/pkg/server/app"
	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/campuslib/campuslib/pkg/server/tabular"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newImportCmd(flags *globalFlags) *cobra.Command {
	var as string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import books or students from a csv or xlsx file",
	}
	cmd.PersistentFlags().StringVar(&as, "as", "", "email of the librarian the import is logged for")

	kinds := []struct {
		name string
		run  func(a *app.App, actor *database.Librarian, rows [][]string) (app.ImportResult, error)
	}{
		{"books", (*app.App).ImportBooks},
		{"students", (*app.App).ImportStudents},
	}

	for _, k := range kinds {
		k := k
		cmd.AddCommand(&cobra.Command{
			Use:   fmt.Sprintf("%s FILE", k.name),
			Short: fmt.Sprintf("Import %s", k.name),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				rows, err := readFile(args[0])
				if err != nil {
					return err
				}

				a, cleanup, err := setupApp(flags.params())
				if err != nil {
					return err
				}
				defer cleanup()

				actor, err := findActor(a, as)
				if err != nil {
					return err
				}

				res, err := k.run(a, actor, rows)
				if err != nil {
					return errors.Wrapf(err, "importing %s", args[0])
				}

				successf(cmd.OutOrStdout(), "%s", res.Message)
				return nil
			},
		})
	}

	return cmd
}

func readFile(path string) ([][]string, error) {
	format, err := tabular.FormatFromFilename(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()

	rows, err := tabular.Read(f, format)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	return rows, nil
}

func newExportCmd(flags *globalFlags) *cobra.Command {
	var action, from, to string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export books, students or the activity history to a csv or xlsx file",
	}

	exportTo := func(kind string, write func(a *app.App, w io.Writer, format string) error) *cobra.Command {
		return &cobra.Command{
			Use:   fmt.Sprintf("%s FILE", kind),
			Short: fmt.Sprintf("Export %s", kind),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				format, err := tabular.FormatFromFilename(args[0])
				if err != nil {
					return err
				}

				a, cleanup, err := setupApp(flags.params())
				if err != nil {
					return err
				}
				defer cleanup()

				var buf bytes.Buffer
				if err := write(a, &buf, format); err != nil {
					return errors.Wrapf(err, "exporting %s", kind)
				}
				if err := os.WriteFile(args[0], buf.Bytes(), 0644); err != nil {
					return errors.Wrapf(err, "writing %s", args[0])
				}

				successf(cmd.OutOrStdout(), "Exported %s to %s", kind, args[0])
				return nil
			},
		}
	}

	history := exportTo("history", func(a *app.App, w io.Writer, format string) error {
		p := app.ActivitiesParams{Action: action}
		for _, d := range []struct {
			value string
			dst   **time.Time
		}{{from, &p.From}, {to, &p.To}} {
			if d.value == "" {
				continue
			}
			t, err := time.Parse("2006-01-02", d.value)
			if err != nil {
				return errors.Wrapf(err, "parsing date '%s'", d.value)
			}
			*d.dst = &t
		}

		return a.ExportActivities(w, format, p)
	})
	history.Flags().StringVar(&action, "action", "", "only export the activities of this action")
	history.Flags().StringVar(&from, "from", "", "first day to export, as YYYY-MM-DD")
	history.Flags().StringVar(&to, "to", "", "last day to export, as YYYY-MM-DD")

	cmd.AddCommand(
		exportTo("books", func(a *app.App, w io.Writer, format string) error {
			return a.ExportBooks(w, format)
		}),
		exportTo("students", func(a *app.App, w io.Writer, format string) error {
			return a.ExportStudents(w, format)
		}),
		history,
	)

	return cmd
}
