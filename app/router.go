package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)

	// user service
	router.HandlerFunc(http.MethodPost, "/v1/users/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodDelete, "/v1/users/logout", app.requireAuthUser(app.logoutUserHandler))
	router.HandlerFunc(http.MethodGet, "/v1/profiles/:username", app.getProfileHandler)
	router.HandlerFunc(http.MethodPut, "/v1/profiles", app.requireAuthUser(app.updateProfileHandler))

	// post service
	router.HandlerFunc(http.MethodGet, "/v1/posts", app.listPostsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/posts", app.requireAuthUser(app.createPostHandler))
	router.HandlerFunc(http.MethodGet, "/v1/posts/:slug", app.getPostHandler)
	router.HandlerFunc(http.MethodPut, "/v1/posts/:id", app.requireAuthUser(app.updatePostHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/posts/:id", app.requireAuthUser(app.deletePostHandler))
	router.HandlerFunc(http.MethodPost, "/v1/posts/:id/like", app.requireAuthUser(app.toggleLikeHandler))
	router.HandlerFunc(http.MethodGet, "/v1/me/posts", app.requireAuthUser(app.myPostsHandler))

	// comment service
	router.HandlerFunc(http.MethodGet, "/v1/comments/post/:id", app.getCommentsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/comments", app.requireAuthUser(app.createCommentHandler))
	router.HandlerFunc(http.MethodPatch, "/v1/comments/:id", app.requireAuthUser(app.updateCommentHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/comments/:id", app.requireAuthUser(app.deleteCommentHandler))

	// taxonomy service
	router.HandlerFunc(http.MethodGet, "/v1/categories", app.listCategoriesHandler)
	router.HandlerFunc(http.MethodGet, "/v1/categories/:slug", app.getCategoryHandler)
	router.HandlerFunc(http.MethodPost, "/v1/categories", app.requireAuthUser(app.createCategoryHandler))
	router.HandlerFunc(http.MethodPut, "/v1/categories/:id", app.requireAuthUser(app.updateCategoryHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/categories/:id", app.requireAuthUser(app.deleteCategoryHandler))
	router.HandlerFunc(http.MethodGet, "/v1/tags", app.listTagsHandler)
	router.HandlerFunc(http.MethodGet, "/v1/tags/:slug", app.getTagHandler)
	router.HandlerFunc(http.MethodPost, "/v1/tags", app.requireAuthUser(app.createTagHandler))
	router.HandlerFunc(http.MethodPut, "/v1/tags/:id", app.requireAuthUser(app.updateTagHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/tags/:id", app.requireAuthUser(app.deleteTagHandler))

	// media service
	router.HandlerFunc(http.MethodPost, "/v1/uploads", app.requireAuthUser(app.uploadHandler))

	return app.recoverPanic(app.enableCORS(app.logRequest(app.rateLimit(app.authenticate(router)))))
}
