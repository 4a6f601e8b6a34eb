package feedsdk

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ============================================================================
// Identifiers and timestamps
// ============================================================================

// ID is an opaque resource identifier. The API sends numeric ids; ID accepts
// either a JSON number or a JSON string so the client never depends on that.
type ID string

// UnmarshalJSON accepts numbers, strings and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

func (id ID) String() string { return string(id) }

// timestampLayouts are tried in order. The API emits RFC 3339 with
// microseconds; older deployments emit MySQL DATETIME.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// Timestamp is a time.Time that tolerates the API's date formats.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	var s string
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if strings.TrimSpace(s) == "" {
		t.Time = time.Time{}
		return nil
	}

	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// ============================================================================
// Session Types
// ============================================================================

// Tokens is the credential pair persisted by a TokenStore.
type Tokens struct {
	AccessToken  string
	RefreshToken string
}

// IsZero reports whether no access token is held.
func (t Tokens) IsZero() bool { return t.AccessToken == "" }

// User is the authenticated-user snapshot from GET /auth/user-profile.
type User struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) validate() error {
	if u == nil || u.ID == "" {
		return fmt.Errorf("user is missing an id")
	}
	return nil
}

// ============================================================================
// Auth Requests / Responses
// ============================================================================

// LoginRequest is the POST /auth/login body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the POST /auth/register body.
type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// ForgotPasswordRequest is the POST /forgot-password body.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// authPayload is the data object returned by login, register and refresh.
// Registration has historically answered with "token" rather than
// "access_token"; both are accepted.
type authPayload struct {
	Token        string `json:"token"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

func (p authPayload) tokens() Tokens {
	access := p.AccessToken
	if access == "" {
		access = p.Token
	}
	return Tokens{AccessToken: access, RefreshToken: p.RefreshToken}
}

func (p authPayload) validate(needUser bool) error {
	t := p.tokens()
	if t.AccessToken == "" {
		return fmt.Errorf("response is missing an access token")
	}
	if t.RefreshToken == "" {
		return fmt.Errorf("response is missing a refresh token")
	}
	if needUser {
		return p.User.validate()
	}
	return nil
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// MessageResponse carries the free-text message some endpoints answer with.
type MessageResponse struct {
	Message string `json:"message"`
}

// ============================================================================
// Feed Types
// ============================================================================

// Post is a feed entry.
type Post struct {
	ID        ID        `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	UserID    ID        `json:"user_id"`
	User      *User     `json:"user,omitempty"`
	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
	Comments  []Comment `json:"comments"`
}

// OwnedBy reports whether u authored the post. Only owners may edit/delete.
func (p Post) OwnedBy(u *User) bool {
	return u != nil && p.UserID != "" && p.UserID == u.ID
}

func (p *Post) validate() error {
	if p.ID == "" {
		return fmt.Errorf("post is missing an id")
	}
	return nil
}

// Comment is a reply on a post.
type Comment struct {
	ID        ID        `json:"id"`
	Content   string    `json:"content"`
	UserID    ID        `json:"user_id"`
	User      *User     `json:"user,omitempty"`
	CreatedAt Timestamp `json:"created_at"`
}

// PostInput is the body for creating or updating a post.
type PostInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CommentInput is the body for POST /posts/:id/comments.
type CommentInput struct {
	Content string `json:"content"`
}
