package validators

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var periodoPattern = regexp.MustCompile(`^20[0-9]{2}-(0[1-9]|1[0-2])$`)

// Periodo accepts period labels in the YYYY-MM format.
func Periodo(fl validator.FieldLevel) bool {
	return periodoPattern.MatchString(fl.Field().String())
}

// NoDupes rejects slices with repeated values.
func NoDupes(fl validator.FieldLevel) bool {
	field := fl.Field()
	seen := make(map[any]bool, field.Len())
	for i := 0; i < field.Len(); i++ {
		v := field.Index(i).Interface()
		if seen[v] {
			return false
		}
		seen[v] = true
	}
	return true
}
