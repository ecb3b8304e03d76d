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
	"reflect"
	"regexp"
	"strings"

	"github.com/campuslib/campuslib/pkg/server/database"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"golang.org/x/text/language"
)

var phoneRegexp = regexp.MustCompile(`^\+?\d{8,15}$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}

		return name
	})

	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		return phoneRegexp.MatchString(fl.Field().String())
	})
	mustRegister(v, "langcode", func(fl validator.FieldLevel) bool {
		code := fl.Field().String()
		if len(code) != 2 {
			return false
		}

		_, err := language.ParseBase(code)
		return err == nil
	})
	mustRegister(v, "categoryicon", func(fl validator.FieldLevel) bool {
		icon := fl.Field().String()
		for _, i := range database.CategoryIcons {
			if i == icon {
				return true
			}
		}

		return false
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(errors.Wrapf(err, "registering the %s validation", tag))
	}
}

var tagMessages = map[string]string{
	"required":     "is required",
	"email":        "is not a valid email address",
	"phone":        "should be 8 to 15 digits with an optional leading +",
	"langcode":     "should be a two-letter ISO 639-1 language code",
	"categoryicon": "is not a known icon",
	"hexcolor":     "should be a hexadecimal color",
	"alphanum":     "should only contain letters and digits",
}

// validateStruct runs the struct tags of v and reports the first failure as
// a *ValidationError
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return errors.Wrap(err, "validating")
	}

	fe := verrs[0]
	msg, ok := tagMessages[fe.Tag()]
	if !ok {
		switch fe.Tag() {
		case "max":
			msg = "should be at most " + fe.Param() + " characters"
		case "gte", "min":
			msg = "should be at least " + fe.Param()
		default:
			msg = "is invalid"
		}
	}

	return &ValidationError{Field: fe.Field(), Message: msg}
}
