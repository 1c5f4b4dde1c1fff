package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/princinho/moviecatalog/logging"
	"github.com/princinho/moviecatalog/services"
	"github.com/princinho/moviecatalog/utils"
)

var statusByError = []struct {
	err    error
	status int
}{
	{services.ErrValidation, http.StatusBadRequest},
	{services.ErrInvalidRole, http.StatusBadRequest},
	{services.ErrProducerCount, http.StatusBadRequest},
	{services.ErrNoImages, http.StatusBadRequest},
	{services.ErrInvalidRating, http.StatusBadRequest},
	{services.ErrUserExists, http.StatusBadRequest},
	{utils.ErrFileMissing, http.StatusBadRequest},
	{utils.ErrFileExtension, http.StatusBadRequest},
	{utils.ErrFileType, http.StatusBadRequest},
	{utils.ErrFileUnreadable, http.StatusBadRequest},

	{services.ErrInvalidCredentials, http.StatusUnauthorized},
	{services.ErrUserNotFound, http.StatusUnauthorized},

	{services.ErrInvalidToken, http.StatusForbidden},
	{services.ErrTokenExpired, http.StatusForbidden},
	{services.ErrUnknownRefresh, http.StatusForbidden},
	{services.ErrNotMovieOwner, http.StatusForbidden},

	{services.ErrMovieNotFound, http.StatusNotFound},
	{services.ErrPersonNotFound, http.StatusNotFound},
	{services.ErrFeedbackNotFound, http.StatusNotFound},

	{services.ErrFeedbackExists, http.StatusConflict},
	{utils.ErrFileTooLarge, http.StatusRequestEntityTooLarge},

	{utils.ErrStorageDisabled, http.StatusServiceUnavailable},
	{utils.ErrStorageUnhealthy, http.StatusServiceUnavailable},
}

// StatusFor maps a service error to its HTTP status; unknown errors are 500.
func StatusFor(err error) int {
	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		logging.Ctx(c.Request.Context()).Error().Err(err).Str("route", c.FullPath()).Msg("request failed")
		c.JSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// bindError answers a failed ShouldBind* with 400 and, for validation
// failures, the offending fields.
func bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// fieldPath drops the top level struct name: "CreateMovieDTO.cast[0].role" -> "cast[0].role".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	for i := 0; i < len(ns); i++ {
		if ns[i] == '.' {
			return ns[i+1:]
		}
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return fmt.Sprintf("is required when %s is empty", fe.Param())
	case "min":
		return fmt.Sprintf("must have at least %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid url"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "oneproducer":
		return services.ErrProducerCount.Error()
	}
	return fmt.Sprintf("failed on the %s rule", fe.Tag())
}
