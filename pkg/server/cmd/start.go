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
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/campuslib/campuslib/pkg/server/buildinfo"
	"github.com/campuslib/campuslib/pkg/server/controllers"
	"github.com/campuslib/campuslib/pkg/server/log"
	mw "github.com/campuslib/campuslib/pkg/server/middleware"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newStartCmd(flags *globalFlags) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the server",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := flags.params()
			p.Port = port

			a, cleanup, err := setupApp(p)
			if err != nil {
				return err
			}
			defer cleanup()

			rc := controllers.RouteConfig{}
			rc.Controllers = controllers.New(a)
			rc.APIRoutes = controllers.NewAPIRoutes(a, rc.Controllers)
			if !a.Config.IsTest() {
				rc.Limiter = mw.NewRateLimiter(0, 0)
				defer rc.Limiter.Stop()
			}

			r, err := controllers.NewRouter(a, rc)
			if err != nil {
				return errors.Wrap(err, "initializing router")
			}

			srv := &http.Server{
				Addr:              fmt.Sprintf(":%s", a.Config.Port),
				Handler:           r,
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.ListenAndServe()
			}()

			log.WithFields(log.Fields{
				"version": buildinfo.Version,
				"port":    a.Config.Port,
				"db":      a.Config.DBDriver,
			}).Info("Campuslib server starting")

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return errors.Wrap(err, "serving")
				}
			case <-ctx.Done():
				log.Info("Shutting down")

				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					return errors.Wrap(err, "shutting down")
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "server port (env: PORT, default: 3001)")

	return cmd
}
