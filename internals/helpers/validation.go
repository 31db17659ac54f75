package helper

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// Validate dipakai bersama (validator aman dipakai concurrent dan meng-cache struct)
var Validate = validator.New()

// FieldErrors: validator.ValidationErrors → {field: [tag...]}
func FieldErrors(err error) map[string][]string {
	out := map[string][]string{}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		out["_"] = []string{err.Error()}
		return out
	}
	for _, fe := range ve {
		key := fieldKey(fe.Namespace())
		out[key] = append(out[key], fe.Tag())
	}
	return out
}

// "CreateEnrollmentRequest.Installments[0].Amount" → "installments[0].amount"
func fieldKey(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}

// BindAndValidate: BodyParser + Validate.Struct. Response error sudah ditulis
// kalau ok=false, handler cukup return err.
func BindAndValidate(c *fiber.Ctx, req any) (ok bool, err error) {
	if err := c.BodyParser(req); err != nil {
		return false, JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := Validate.Struct(req); err != nil {
		return false, JsonValidationError(c, FieldErrors(err))
	}
	return true, nil
}
