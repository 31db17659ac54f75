package helper

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"lms_backend/internals/helpers/errs"
)

// JsonServiceError: error dari service → response JSON konsisten.
//
//	NotFound → 404, InvalidState → 409, InvariantViolation → 422,
//	validator → 422 (per field), *fiber.Error → status aslinya, sisanya 500.
func JsonServiceError(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		return JsonValidationError(c, FieldErrors(err))
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonError(c, fe.Code, fe.Message)
	}

	switch {
	case errors.Is(err, errs.ErrNotFound):
		return JsonErrorCode(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, errs.ErrInvalidState):
		return JsonErrorCode(c, fiber.StatusConflict, "INVALID_STATE", err.Error())
	case errors.Is(err, errs.ErrInvariantViolation):
		return JsonErrorCode(c, fiber.StatusUnprocessableEntity, "INVARIANT_VIOLATION", err.Error())
	case errors.Is(err, errs.ErrTransientDependency):
		return JsonErrorCode(c, fiber.StatusServiceUnavailable, "DEPENDENCY_UNAVAILABLE", err.Error())
	}

	log.Printf("[ERROR] %s %s: %v", c.Method(), c.Path(), err)
	return JsonError(c, fiber.StatusInternalServerError, "Terjadi kesalahan pada server")
}
