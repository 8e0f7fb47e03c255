package postgrest

import (
	"context"
	"fmt"
	"net/url"

	"github.com/sakif/gardenhub/internal/apperror"
	"github.com/sakif/gardenhub/internal/model"
	"github.com/sakif/gardenhub/internal/repository"
	"github.com/sakif/gardenhub/internal/supabase"
)

var _ repository.ForumStore = (*ForumStore)(nil)

// recentPostLimit caps the public feed; older posts are simply not served.
const recentPostLimit = "50"

// ForumStore performs forum post and comment CRUD through the platform
// data API.
type ForumStore struct {
	client *supabase.Client
}

func NewForumStore(client *supabase.Client) *ForumStore {
	return &ForumStore{client: client}
}

// InsertPost stores a new post. The caller only needs success or failure,
// so the platform is not asked to echo the row back.
func (s *ForumStore) InsertPost(ctx context.Context, post *model.Post) error {
	record := map[string]string{
		"user_id": post.UserID,
		"title":   post.Title,
		"content": post.Content,
	}

	if err := s.client.Insert(ctx, "forum_posts", record, nil); err != nil {
		return fmt.Errorf("inserting post: %w", err)
	}
	return nil
}

// ListPosts fetches the most recent posts, newest first, with the author's
// profile embedded via the platform's relational select syntax
// ("profiles(email)"). The embedded join lands in RawAuthor for the service
// layer to flatten.
func (s *ForumStore) ListPosts(ctx context.Context) ([]model.Post, error) {
	query := url.Values{}
	query.Set("select", "*,profiles(email)")
	query.Set("order", "created_at.desc")
	query.Set("limit", recentPostLimit)

	var rows []model.Post
	if err := s.client.Select(ctx, "forum_posts", query, &rows); err != nil {
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return rows, nil
}

// InsertComment stores a comment or reply and returns the created row.
// A top-level comment carries no parent_comment_id key at all — omitting
// the column (rather than writing an explicit null) keeps "no parent"
// indistinguishable from "top-level" at the storage layer.
func (s *ForumStore) InsertComment(ctx context.Context, comment *model.Comment) (*model.Comment, error) {
	record := map[string]any{
		"post_id": comment.PostID,
		"user_id": comment.UserID,
		"content": comment.Content,
	}
	if comment.ParentCommentID != nil {
		record["parent_comment_id"] = *comment.ParentCommentID
	}

	var rows []model.Comment
	if err := s.client.Insert(ctx, "forum_comments", record, &rows); err != nil {
		return nil, fmt.Errorf("inserting comment: %w", err)
	}
	if len(rows) == 0 {
		return nil, apperror.Upstream(nil, "Database did not return the created comment.")
	}
	return &rows[0], nil
}

// ListComments fetches every comment on a post, oldest first so threads
// read chronologically, with the same embedded author join as ListPosts.
func (s *ForumStore) ListComments(ctx context.Context, postID string) ([]model.Comment, error) {
	query := url.Values{}
	query.Set("select", "*,profiles(email)")
	query.Set("post_id", supabase.Eq(postID))
	query.Set("order", "created_at.asc")

	var rows []model.Comment
	if err := s.client.Select(ctx, "forum_comments", query, &rows); err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return rows, nil
}
