package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"blogicum/internal/data"
	"blogicum/internal/logger"
	"blogicum/internal/middleware"
	"blogicum/internal/policy"
	"blogicum/internal/service"

	"github.com/go-chi/chi/v5"
)

// pubDateLayouts are the accepted pub_date form formats, tried in order.
var pubDateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02"}

// BlogHandler holds the dependencies for the blog handlers.
type BlogHandler struct {
	blog        service.BlogServicer
	log         logger.Logger
	restriction int
	loginURL    string
}

// NewBlogHandler creates a new BlogHandler with the given dependencies.
// restriction is the maximum length of short-form titles in responses.
func NewBlogHandler(bs service.BlogServicer, restriction int, loginURL string, log logger.Logger) *BlogHandler {
	return &BlogHandler{
		blog:        bs,
		log:         log,
		restriction: restriction,
		loginURL:    loginURL,
	}
}

type postJSON struct {
	*data.Post
	Category string `json:"category,omitempty"`
	Location string `json:"location,omitempty"`
}

type commentJSON struct {
	*data.Comment
	Short string `json:"short"`
}

type categoryJSON struct {
	*data.Category
	Short string `json:"short"`
}

type pageJSON struct {
	Posts   []postJSON `json:"posts"`
	Number  int        `json:"page"`
	Total   int        `json:"total"`
	HasMore bool       `json:"has_more"`
}

func (h *BlogHandler) post(p *data.Post) postJSON {
	out := postJSON{Post: p}
	if p.CategoryTitle.Valid {
		out.Category = policy.Truncate(p.CategoryTitle.String, h.restriction)
	}
	if p.LocationName.Valid {
		out.Location = policy.Truncate(p.LocationName.String, h.restriction)
	}
	return out
}

func (h *BlogHandler) page(p *service.PostPage) pageJSON {
	out := pageJSON{Posts: make([]postJSON, len(p.Posts)), Number: p.Number, Total: p.Total, HasMore: p.HasMore}
	for i, post := range p.Posts {
		out.Posts[i] = h.post(post)
	}
	return out
}

func (h *BlogHandler) category(c *data.Category) categoryJSON {
	return categoryJSON{Category: c, Short: policy.Truncate(c.Title, h.restriction)}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) *middleware.AppError {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to encode response", Code: http.StatusInternalServerError}
	}
	return nil
}

func pageNumber(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

func idParam(r *http.Request, name string) (int64, *middleware.AppError) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		return 0, &middleware.AppError{Error: fmt.Errorf("bad %s %q", name, chi.URLParam(r, name)), Message: "Not found", Code: http.StatusNotFound}
	}
	return id, nil
}

func postURL(id int64) string {
	return fmt.Sprintf("/posts/%d/", id)
}

func profileURL(username string) string {
	return "/profile/" + url.PathEscape(username) + "/"
}

// loginRedirect returns loginURL with the current path as its next parameter.
func loginRedirect(loginURL string, r *http.Request) string {
	return loginURL + "?next=" + url.QueryEscape(r.URL.Path)
}

// fail maps a service error onto the response its denial kind calls for.
// postID is the post whose detail view a soft denial redirects to.
func (h *BlogHandler) fail(w http.ResponseWriter, r *http.Request, err error, postID int64) *middleware.AppError {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, policy.ErrNotFound):
		return &middleware.AppError{Error: err, Message: "Not found", Code: http.StatusNotFound}
	case errors.Is(err, policy.ErrForbidden):
		return &middleware.AppError{Error: err, Message: "Forbidden", Code: http.StatusForbidden}
	case errors.Is(err, policy.ErrSoftDenied):
		http.Redirect(w, r, postURL(postID), http.StatusFound)
		return nil
	case errors.Is(err, policy.ErrUnauthenticated):
		http.Redirect(w, r, loginRedirect(h.loginURL, r), http.StatusFound)
		return nil
	case errors.As(err, &verr):
		return &middleware.AppError{Error: err, Message: verr.Error(), Code: http.StatusBadRequest}
	}
	return &middleware.AppError{Error: err, Message: "Internal Server Error", Code: http.StatusInternalServerError}
}

// indexHandler serves the home feed.
func (h *BlogHandler) indexHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	page, err := h.blog.Index(r.Context(), pageNumber(r))
	if err != nil {
		return h.fail(w, r, err, 0)
	}
	return writeJSON(w, http.StatusOK, h.page(page))
}

// categoriesHandler lists the categories that can be browsed.
func (h *BlogHandler) categoriesHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	categories, err := h.blog.Categories(r.Context())
	if err != nil {
		return h.fail(w, r, err, 0)
	}
	out := make([]categoryJSON, len(categories))
	for i, c := range categories {
		out[i] = h.category(c)
	}
	return writeJSON(w, http.StatusOK, map[string]interface{}{"categories": out})
}

// categoryHandler serves the feed of one published category.
func (h *BlogHandler) categoryHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	category, page, err := h.blog.CategoryFeed(r.Context(), chi.URLParam(r, "slug"), pageNumber(r))
	if err != nil {
		return h.fail(w, r, err, 0)
	}
	return writeJSON(w, http.StatusOK, map[string]interface{}{
		"category": h.category(category),
		"posts":    h.page(page),
	})
}

// profileHandler serves a user's posts as seen by the current viewer.
func (h *BlogHandler) profileHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	viewer := middleware.GetIdentity(r.Context())
	user, page, err := h.blog.Profile(r.Context(), viewer, chi.URLParam(r, "username"), pageNumber(r))
	if err != nil {
		return h.fail(w, r, err, 0)
	}
	return writeJSON(w, http.StatusOK, map[string]interface{}{
		"profile": user,
		"posts":   h.page(page),
	})
}

// editProfileHandler changes the viewer's own profile and redirects to it
// under its possibly new username.
func (h *BlogHandler) editProfileHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	in := service.ProfileInput{
		Username:  r.FormValue("username"),
		FirstName: r.FormValue("first_name"),
		LastName:  r.FormValue("last_name"),
		Email:     r.FormValue("email"),
	}
	user, err := h.blog.EditProfile(r.Context(), middleware.GetIdentity(r.Context()), chi.URLParam(r, "username"), in)
	if err != nil {
		return h.fail(w, r, err, 0)
	}
	http.Redirect(w, r, profileURL(user.Username), http.StatusFound)
	return nil
}

// postHandler serves one post and its comments.
func (h *BlogHandler) postHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	post, comments, err := h.blog.PostDetail(r.Context(), middleware.GetIdentity(r.Context()), id)
	if err != nil {
		return h.fail(w, r, err, id)
	}
	out := make([]commentJSON, len(comments))
	for i, c := range comments {
		out[i] = commentJSON{Comment: c, Short: policy.Truncate(c.Text, h.restriction)}
	}
	return writeJSON(w, http.StatusOK, map[string]interface{}{
		"post":     h.post(post),
		"comments": out,
	})
}

func optionalID(r *http.Request, field string) (*int64, error) {
	v := strings.TrimSpace(r.FormValue(field))
	if v == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, &service.ValidationError{Field: field, Message: "must be a number"}
	}
	return &id, nil
}

func parsePostForm(r *http.Request) (service.PostInput, error) {
	in := service.PostInput{
		Title: r.FormValue("title"),
		Text:  r.FormValue("text"),
		Image: r.FormValue("image"),
	}
	switch strings.ToLower(r.FormValue("is_published")) {
	case "on", "true", "1":
		in.IsPublished = true
	}

	if v := strings.TrimSpace(r.FormValue("pub_date")); v != "" {
		var err error
		for _, layout := range pubDateLayouts {
			if in.PubDate, err = time.Parse(layout, v); err == nil {
				break
			}
		}
		if err != nil {
			return in, &service.ValidationError{Field: "pub_date", Message: "invalid date"}
		}
	}

	var err error
	if in.CategoryID, err = optionalID(r, "category"); err != nil {
		return in, err
	}
	if in.LocationID, err = optionalID(r, "location"); err != nil {
		return in, err
	}
	return in, nil
}

// createPostHandler creates a post and redirects to the author's profile.
func (h *BlogHandler) createPostHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	viewer := middleware.GetIdentity(r.Context())
	in, err := parsePostForm(r)
	if err != nil {
		return h.fail(w, r, err, 0)
	}
	if _, err := h.blog.CreatePost(r.Context(), viewer, in); err != nil {
		return h.fail(w, r, err, 0)
	}
	http.Redirect(w, r, profileURL(viewer.Username), http.StatusFound)
	return nil
}

// editPostHandler updates a post and redirects to its detail view.
func (h *BlogHandler) editPostHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	in, err := parsePostForm(r)
	if err != nil {
		return h.fail(w, r, err, id)
	}
	if _, err := h.blog.EditPost(r.Context(), middleware.GetIdentity(r.Context()), id, in); err != nil {
		return h.fail(w, r, err, id)
	}
	http.Redirect(w, r, postURL(id), http.StatusFound)
	return nil
}

// deletePostHandler deletes a post and redirects to the home feed.
func (h *BlogHandler) deletePostHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	if err := h.blog.DeletePost(r.Context(), middleware.GetIdentity(r.Context()), id); err != nil {
		return h.fail(w, r, err, id)
	}
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

// addCommentHandler adds a comment and redirects to the post.
func (h *BlogHandler) addCommentHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	if _, err := h.blog.AddComment(r.Context(), middleware.GetIdentity(r.Context()), id, r.FormValue("text")); err != nil {
		return h.fail(w, r, err, id)
	}
	http.Redirect(w, r, postURL(id), http.StatusFound)
	return nil
}

// editCommentHandler rewrites a comment and redirects to the post.
func (h *BlogHandler) editCommentHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	postID, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	commentID, appErr := idParam(r, "comment")
	if appErr != nil {
		return appErr
	}
	if _, err := h.blog.EditComment(r.Context(), middleware.GetIdentity(r.Context()), postID, commentID, r.FormValue("text")); err != nil {
		return h.fail(w, r, err, postID)
	}
	http.Redirect(w, r, postURL(postID), http.StatusFound)
	return nil
}

// deleteCommentHandler deletes a comment and redirects to the post.
func (h *BlogHandler) deleteCommentHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	postID, appErr := idParam(r, "id")
	if appErr != nil {
		return appErr
	}
	commentID, appErr := idParam(r, "comment")
	if appErr != nil {
		return appErr
	}
	if err := h.blog.DeleteComment(r.Context(), middleware.GetIdentity(r.Context()), postID, commentID); err != nil {
		return h.fail(w, r, err, postID)
	}
	http.Redirect(w, r, postURL(postID), http.StatusFound)
	return nil
}
