package validate

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const DateLayout = "2006-01-02"

// New returns a validator with the custom tags used by request bodies.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	_ = v.RegisterValidation("notfuture", notFuture)

	return v
}

// notFuture accepts a date string in DateLayout or a time.Time that is not
// after today. Unparsable strings are left to the datetime tag.
func notFuture(fl validator.FieldLevel) bool {
	var date time.Time

	switch v := fl.Field().Interface().(type) {
	case time.Time:
		date = v
	case string:
		parsed, err := time.Parse(DateLayout, v)
		if err != nil {
			return true
		}
		date = parsed
	default:
		return false
	}

	return !date.After(time.Now().UTC())
}
