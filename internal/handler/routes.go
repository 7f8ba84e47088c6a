package handler

import (
	"net/http"

	"blogicum/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures a new chi router.
// identity builds the request's policy.Identity; authz gates routes by role.
func NewRouter(
	blogHandler *BlogHandler,
	seoHandler *SeoHandler,
	identity func(http.Handler) http.Handler,
	authz func(http.Handler) http.Handler,
	errorMiddleware func(middleware.AppHandler) http.Handler,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(identity)

	r.Get("/robots.txt", seoHandler.robotsHandler)
	r.Get("/sitemap.xml", seoHandler.sitemapHandler)

	r.Group(func(r chi.Router) {
		r.Use(authz)

		r.Method(http.MethodGet, "/", errorMiddleware(blogHandler.indexHandler))
		r.Method(http.MethodGet, "/category/", errorMiddleware(blogHandler.categoriesHandler))
		r.Method(http.MethodGet, "/category/{slug}/", errorMiddleware(blogHandler.categoryHandler))
		r.Method(http.MethodGet, "/profile/{username}/", errorMiddleware(blogHandler.profileHandler))
		r.Method(http.MethodGet, "/posts/{id}/", errorMiddleware(blogHandler.postHandler))

		r.Method(http.MethodPost, "/profile/{username}/edit/", errorMiddleware(blogHandler.editProfileHandler))
		r.Method(http.MethodPost, "/posts/create/", errorMiddleware(blogHandler.createPostHandler))
		r.Method(http.MethodPost, "/posts/{id}/edit/", errorMiddleware(blogHandler.editPostHandler))
		r.Method(http.MethodPost, "/posts/{id}/delete/", errorMiddleware(blogHandler.deletePostHandler))
		r.Method(http.MethodPost, "/posts/{id}/comment/", errorMiddleware(blogHandler.addCommentHandler))
		r.Method(http.MethodPost, "/posts/{id}/edit_comment/{comment}/", errorMiddleware(blogHandler.editCommentHandler))
		r.Method(http.MethodPost, "/posts/{id}/delete_comment/{comment}/", errorMiddleware(blogHandler.deleteCommentHandler))
	})

	return r
}
