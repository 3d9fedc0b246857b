package validate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/socialx-api/internal/domain"
)

// v is the package-level singleton validator. Custom tags are registered in
// init() before the first call to Struct.
var v = validator.New()

func init() {
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return Username(fl.Field().String()) == nil
	})
}

// Struct validates the given struct using its validate tags.
// A failing username field is reported with its rule code so clients can
// show the precise reason.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			if fe.Tag() == "username" {
				if uerr := Username(fmt.Sprint(fe.Value())); uerr != nil {
					return uerr
				}
			}
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), domain.ErrBadRequest)
	}
	return nil
}
