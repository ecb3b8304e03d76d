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

// Package middleware provides the HTTP middlewares of the API: session
// authentication, rate limiting, request logging and error responses
package middleware

import (
	"net/http"
	"time"

	"github.com/campuslib/campuslib/pkg/server/log"
	"github.com/pkg/errors"
)

// Middleware wraps the handler of a route
type Middleware func(h http.HandlerFunc, rateLimit bool) http.Handler

// Chain returns the middleware of API routes. A nil limiter disables rate
// limiting.
func Chain(limiter *RateLimiter) Middleware {
	return func(h http.HandlerFunc, rateLimit bool) http.Handler {
		var ret http.Handler = h

		if rateLimit && limiter != nil {
			ret = limiter.Limit(ret)
		}

		return ret
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging logs every request with its status and duration
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		log.WithFields(log.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}

// Recover turns a panic in a handler into a 500 response
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				DoError(w, "recovering from panic", errors.Errorf("%v", v), http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// Global wraps the whole router
func Global(h http.Handler) http.Handler {
	return Logging(Recover(h))
}
