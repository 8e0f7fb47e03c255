package model

import (
	"encoding/json"
	"time"
)

// AnonymousAuthor is the author identity shown when the profile join for a
// post or comment comes back empty.
const AnonymousAuthor = "Anonymous User"

// Post is a row in "forum_posts". RawAuthor receives the embedded
// profiles(email) join from the platform; the forum service flattens it into
// AuthorEmail and clears it, so it never reaches API responses.
type Post struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	Title       string          `json:"title"`
	Content     string          `json:"content"`
	CreatedAt   time.Time       `json:"created_at,omitzero"`
	AuthorEmail string          `json:"author_email,omitempty"`
	RawAuthor   json.RawMessage `json:"profiles,omitempty"`
}

// Comment is a row in "forum_comments". ParentCommentID is nil for top-level
// comments; replies carry a single-level pointer to their parent, the thread
// is never materialized server-side.
type Comment struct {
	ID              string          `json:"id"`
	PostID          string          `json:"post_id"`
	UserID          string          `json:"user_id"`
	Content         string          `json:"content"`
	ParentCommentID *string         `json:"parent_comment_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at,omitzero"`
	AuthorEmail     string          `json:"author_email,omitempty"`
	RawAuthor       json.RawMessage `json:"profiles,omitempty"`
}
