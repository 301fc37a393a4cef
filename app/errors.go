package main

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sushihentaime/postline/internal/common"
	"github.com/sushihentaime/postline/internal/mediaservice"
	"github.com/sushihentaime/postline/internal/postservice"
	"github.com/sushihentaime/postline/internal/taxonomyservice"
	"github.com/sushihentaime/postline/internal/userservice"
)

func (app *application) logError(r *http.Request, err error) {
	var (
		method  = r.Method
		url     = r.URL.RequestURI()
		message = err.Error()
	)

	app.logger.Error(message, slog.String("method", method), slog.String("url", url))
}

func (app *application) writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	err := app.writeJSON(w, status, envelope{"error": message}, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
}

func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	message := "the server encountered a problem and could not process your request"
	app.writeErrorResponse(w, r, http.StatusInternalServerError, message)
}

func (app *application) badRequestErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.writeErrorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusNotFound, "resource not found")
}

func (app *application) failedValidationErrorResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
	app.writeErrorResponse(w, r, http.StatusUnprocessableEntity, errors)
}

func (app *application) invalidCredentialsErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusUnauthorized, "invalid authentication credentials")
}

func (app *application) invalidAuthenticationTokenResponse(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	app.writeErrorResponse(w, r, http.StatusUnauthorized, "invalid or missing authentication token")
}

func (app *application) unAuthorizedErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusUnauthorized, "you must be authenticated to access this resource")
}

func (app *application) forbiddenErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusForbidden, "you do not own this resource")
}

func (app *application) methodNotAllowedErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusMethodNotAllowed, "method not allowed")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusTooManyRequests, "rate limit exceeded")
}

// serviceErrorResponse maps the errors shared by every service onto a response.
func (app *application) serviceErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr common.ValidationError

	switch {
	case errors.As(err, &validationErr):
		app.failedValidationErrorResponse(w, r, validationErr.Errors)
	case errors.Is(err, common.ErrUnauthorized):
		app.unAuthorizedErrorResponse(w, r)
	case errors.Is(err, common.ErrForbidden):
		app.forbiddenErrorResponse(w, r)
	case errors.Is(err, common.ErrRecordNotFound):
		app.notFoundErrorResponse(w, r)
	case errors.Is(err, userservice.ErrDuplicateEmail):
		app.failedValidationErrorResponse(w, r, map[string]string{"email": "a user with this email address already exists"})
	case errors.Is(err, userservice.ErrDuplicateUsername):
		app.failedValidationErrorResponse(w, r, map[string]string{"username": "this username is already taken"})
	case errors.Is(err, postservice.ErrDuplicateSlug):
		app.failedValidationErrorResponse(w, r, map[string]string{"title": "could not derive a unique slug from this title"})
	case errors.Is(err, postservice.ErrUnknownCategory):
		app.failedValidationErrorResponse(w, r, map[string]string{"category_id": "category does not exist"})
	case errors.Is(err, postservice.ErrUnknownTag):
		app.failedValidationErrorResponse(w, r, map[string]string{"tag_ids": "one or more tags do not exist"})
	case errors.Is(err, taxonomyservice.ErrDuplicateCategory):
		app.failedValidationErrorResponse(w, r, map[string]string{"name": "a category with this name already exists"})
	case errors.Is(err, taxonomyservice.ErrDuplicateTag):
		app.failedValidationErrorResponse(w, r, map[string]string{"name": "a tag with this name already exists"})
	case errors.Is(err, mediaservice.ErrStoragePolicy):
		app.writeErrorResponse(w, r, http.StatusForbidden, err.Error())
	case errors.Is(err, mediaservice.ErrStorageUnavailable):
		app.writeErrorResponse(w, r, http.StatusServiceUnavailable, err.Error())
	default:
		app.serverErrorResponse(w, r, err)
	}
}
