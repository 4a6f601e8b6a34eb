package fakeapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/postboard/pkg/httpx"
	"github.com/aussiebroadwan/postboard/pkg/idx"
)

type commentJSON struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	UserID    string    `json:"user_id"`
	User      *userJSON `json:"user,omitempty"`
	CreatedAt string    `json:"created_at"`
}

type postJSON struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	UserID    string        `json:"user_id"`
	User      *userJSON     `json:"user,omitempty"`
	CreatedAt string        `json:"created_at"`
	UpdatedAt string        `json:"updated_at"`
	Comments  []commentJSON `json:"comments"`
}

func (a *API) userJSONLocked(id string) *userJSON {
	u, ok := a.usersByID[id]
	if !ok {
		return nil
	}
	j := u.json()
	return &j
}

func (a *API) postJSONLocked(p *post) postJSON {
	out := postJSON{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		UserID:    p.UserID,
		User:      a.userJSONLocked(p.UserID),
		CreatedAt: p.CreatedAt.Format(time.RFC3339Nano),
		UpdatedAt: p.UpdatedAt.Format(time.RFC3339Nano),
		Comments:  make([]commentJSON, 0, len(p.Comments)),
	}
	for _, c := range p.Comments {
		out.Comments = append(out.Comments, a.commentJSONLocked(c))
	}
	return out
}

func (a *API) commentJSONLocked(c comment) commentJSON {
	return commentJSON{
		ID:        c.ID,
		Content:   c.Content,
		UserID:    c.UserID,
		User:      a.userJSONLocked(c.UserID),
		CreatedAt: c.CreatedAt.Format(time.RFC3339Nano),
	}
}

func (a *API) findPostLocked(id string) (int, *post) {
	for i, p := range a.posts {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (p postRequest) invalid() map[string][]string {
	fields := map[string][]string{}
	if strings.TrimSpace(p.Title) == "" {
		fields["title"] = []string{"The title field is required."}
	}
	if strings.TrimSpace(p.Content) == "" {
		fields["content"] = []string{"The content field is required."}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func writeInvalid(w http.ResponseWriter, fields map[string][]string) {
	httpx.WriteJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"message": "The given data was invalid.",
		"errors":  fields,
	})
}

// SeedPost adds a post owned by userID and returns its id.
func (a *API) SeedPost(userID, title, content string) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now().UTC()
	p := &post{ID: idx.New().String(), Title: title, Content: content, UserID: userID, CreatedAt: now, UpdatedAt: now}
	a.posts = append([]*post{p}, a.posts...)
	return p.ID
}

// GET /posts answers with a bare array, newest first.
func (a *API) handleListPosts(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	out := make([]postJSON, 0, len(a.posts))
	for _, p := range a.posts {
		out = append(out, a.postJSONLocked(p))
	}
	a.mu.Unlock()

	httpx.WriteJSON(w, http.StatusOK, out)
}

func (a *API) handleGetPost(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	_, p := a.findPostLocked(r.PathValue("id"))
	if p == nil {
		httpx.WriteMessage(w, http.StatusNotFound, "Post not found")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, envelope{Data: a.postJSONLocked(p)})
}

func (a *API) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if fields := req.invalid(); fields != nil {
		writeInvalid(w, fields)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now().UTC()
	p := &post{
		ID:        idx.New().String(),
		Title:     req.Title,
		Content:   req.Content,
		UserID:    userIDFrom(r),
		CreatedAt: now,
		UpdatedAt: now,
	}
	a.posts = append([]*post{p}, a.posts...)

	httpx.WriteJSON(w, http.StatusCreated, envelope{Data: a.postJSONLocked(p)})
}

func (a *API) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if fields := req.invalid(); fields != nil {
		writeInvalid(w, fields)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	_, p := a.findPostLocked(r.PathValue("id"))
	switch {
	case p == nil:
		httpx.WriteMessage(w, http.StatusNotFound, "Post not found")
		return
	case p.UserID != userIDFrom(r):
		httpx.WriteMessage(w, http.StatusForbidden, "You do not own this post")
		return
	}

	p.Title = req.Title
	p.Content = req.Content
	p.UpdatedAt = time.Now().UTC()

	httpx.WriteJSON(w, http.StatusOK, a.postJSONLocked(p))
}

func (a *API) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	i, p := a.findPostLocked(r.PathValue("id"))
	switch {
	case p == nil:
		httpx.WriteMessage(w, http.StatusNotFound, "Post not found")
		return
	case p.UserID != userIDFrom(r):
		httpx.WriteMessage(w, http.StatusForbidden, "You do not own this post")
		return
	}

	a.posts = append(a.posts[:i], a.posts[i+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleAddComment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Content string `json:"content"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeInvalid(w, map[string][]string{"content": {"The content field is required."}})
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	_, p := a.findPostLocked(r.PathValue("id"))
	if p == nil {
		httpx.WriteMessage(w, http.StatusNotFound, "Post not found")
		return
	}

	c := comment{
		ID:        idx.New().String(),
		Content:   req.Content,
		UserID:    userIDFrom(r),
		CreatedAt: time.Now().UTC(),
	}
	p.Comments = append(p.Comments, c)

	httpx.WriteJSON(w, http.StatusCreated, envelope{Data: a.commentJSONLocked(c)})
}
