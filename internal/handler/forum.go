package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sakif/gardenhub/internal/model"
	"github.com/sakif/gardenhub/internal/service"
)

// ForumHandler manages the community forum routes. Reads are public;
// writes require authentication.
type ForumHandler struct {
	service *service.ForumService
	logger  *slog.Logger
}

func NewForumHandler(svc *service.ForumService, logger *slog.Logger) *ForumHandler {
	return &ForumHandler{service: svc, logger: logger}
}

// HandleListPosts returns the recent-posts feed.
//
// HTTP: GET /api/v1/forum/posts (public)
//
// Author identities arrive flattened: each post carries author_email (or
// "Anonymous User"), never the raw profiles join.
func (h *ForumHandler) HandleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.service.ListPosts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if posts == nil {
		posts = []model.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// HandleCreatePost creates a new post.
//
// HTTP: POST /api/v1/forum/posts (protected)
// REQUEST BODY: {"title": "...", "content": "..."}
func (h *ForumHandler) HandleCreatePost(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Missing title or content for the post.",
		})
		return
	}

	if err := h.service.CreatePost(r.Context(), userID, req.Title, req.Content); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"status":  "success",
		"message": "Post created successfully.",
	})
}

// HandleListComments returns a post's comments, oldest first.
//
// HTTP: GET /api/v1/forum/posts/{postID}/comments (public)
func (h *ForumHandler) HandleListComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.ListComments(r.Context(), r.PathValue("postID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if comments == nil {
		comments = []model.Comment{}
	}
	writeJSON(w, http.StatusOK, comments)
}

// HandleCreateComment creates a comment or a reply on a post.
//
// HTTP: POST /api/v1/forum/posts/{postID}/comments (protected)
// REQUEST BODY: {"content": "...", "parent_comment_id": "..."}
//
// parent_comment_id is optional; absent, empty, or the literal string
// "null" all mean a top-level comment.
func (h *ForumHandler) HandleCreateComment(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req struct {
		Content         string `json:"content"`
		ParentCommentID string `json:"parent_comment_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Missing content for the comment.",
		})
		return
	}

	comment, err := h.service.CreateComment(r.Context(), userID, r.PathValue("postID"), req.Content, req.ParentCommentID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"status":  "success",
		"message": "Comment posted successfully.",
		"data":    comment,
	})
}
