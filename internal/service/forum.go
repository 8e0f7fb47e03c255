package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/gardenhub/internal/apperror"
	"github.com/sakif/gardenhub/internal/model"
	"github.com/sakif/gardenhub/internal/repository"
)

// ForumService orchestrates forum posts and comments, including the
// author-identity flattening applied to every read.
type ForumService struct {
	store  repository.ForumStore
	logger *slog.Logger
}

func NewForumService(store repository.ForumStore, logger *slog.Logger) *ForumService {
	return &ForumService{store: store, logger: logger}
}

// CreatePost validates and stores a new post.
func (s *ForumService) CreatePost(ctx context.Context, userID, title, content string) error {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return apperror.ValidationFailed("title", "Missing title or content for the post.")
	}

	post := &model.Post{UserID: userID, Title: title, Content: content}
	if err := s.store.InsertPost(ctx, post); err != nil {
		s.logger.Error("failed to create post", slog.String("error", err.Error()))
		return fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("forum post created", slog.String("user_id", userID))
	return nil
}

// ListPosts returns the recent-posts feed with each post's author identity
// flattened to a scalar. The raw join never leaves this layer.
func (s *ForumService) ListPosts(ctx context.Context) ([]model.Post, error) {
	posts, err := s.store.ListPosts(ctx)
	if err != nil {
		s.logger.Error("failed to list posts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing posts: %w", err)
	}

	for i := range posts {
		posts[i].AuthorEmail = flattenAuthor(posts[i].RawAuthor)
		posts[i].RawAuthor = nil
	}
	return posts, nil
}

// CreateComment validates and stores a comment. parentCommentID is optional;
// blank (and the literal "null" some frontends send) means top-level, and in
// that case no parent pointer is stored at all.
func (s *ForumService) CreateComment(ctx context.Context, userID, postID, content, parentCommentID string) (*model.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperror.ValidationFailed("content", "Missing content for the comment.")
	}
	if strings.TrimSpace(postID) == "" {
		return nil, apperror.ValidationFailed("post_id", "Missing post ID in path.")
	}

	comment := &model.Comment{PostID: postID, UserID: userID, Content: content}
	if parentCommentID != "" && parentCommentID != "null" {
		comment.ParentCommentID = &parentCommentID
	}

	created, err := s.store.InsertComment(ctx, comment)
	if err != nil {
		s.logger.Error("failed to create comment",
			slog.String("post_id", postID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	s.logger.Info("forum comment created",
		slog.String("post_id", postID),
		slog.Bool("is_reply", comment.ParentCommentID != nil),
	)
	return created, nil
}

// ListComments returns a post's comments, oldest first, with flattened
// author identities.
func (s *ForumService) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	if strings.TrimSpace(postID) == "" {
		return nil, apperror.ValidationFailed("post_id", "Missing post ID in path.")
	}

	comments, err := s.store.ListComments(ctx, postID)
	if err != nil {
		s.logger.Error("failed to list comments",
			slog.String("post_id", postID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing comments: %w", err)
	}

	for i := range comments {
		comments[i].AuthorEmail = flattenAuthor(comments[i].RawAuthor)
		comments[i].RawAuthor = nil
	}
	return comments, nil
}

// flattenAuthor normalizes the embedded profiles join into one scalar
// email. The platform's relational select has returned THREE shapes for the
// same query over time, so all of them are handled explicitly:
//
//	{"email": "a@b.c"}     — single object
//	[{"email": "a@b.c"}]   — single-element array
//	null / absent          — the profile row is gone
//
// Anything unreadable falls back to the anonymous sentinel rather than
// erroring: a missing author must never break the whole feed.
func flattenAuthor(raw json.RawMessage) string {
	if len(raw) == 0 {
		return model.AnonymousAuthor
	}

	type profile struct {
		Email string `json:"email"`
	}

	var list []profile
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) > 0 && list[0].Email != "" {
			return list[0].Email
		}
		return model.AnonymousAuthor
	}

	var single profile
	if err := json.Unmarshal(raw, &single); err == nil && single.Email != "" {
		return single.Email
	}

	return model.AnonymousAuthor
}
