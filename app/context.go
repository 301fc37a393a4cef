package main

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/sushihentaime/postline/internal/userservice"
)

type contextKey string

const userContextKey = contextKey("user")

func (app *application) createUserContext(r *http.Request, user *userservice.User) *http.Request {
	ctx := context.WithValue(r.Context(), userContextKey, user)
	return r.WithContext(ctx)
}

func (app *application) getUserContext(r *http.Request) *userservice.User {
	user, ok := r.Context().Value(userContextKey).(*userservice.User)
	if !ok {
		return nil
	}
	return user
}

// callerID is uuid.Nil for anonymous requests.
func (app *application) callerID(r *http.Request) uuid.UUID {
	user := app.getUserContext(r)
	if user == nil {
		return uuid.Nil
	}
	return user.ID
}
