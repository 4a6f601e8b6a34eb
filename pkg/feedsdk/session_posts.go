package feedsdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

func postPath(id ID) string {
	return pathPosts + "/" + url.PathEscape(id.String())
}

// ListPosts returns every post, newest first as ordered by the server.
func (s *Session) ListPosts(ctx context.Context) ([]Post, error) {
	pr, err := newPendingRequest(http.MethodGet, pathPosts, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.send(ctx, pr)
	if err != nil {
		return nil, err
	}

	var posts []Post
	if err := decodeData(resp, pr.endpoint(), &posts); err != nil {
		return nil, err
	}
	for i := range posts {
		if err := posts[i].validate(); err != nil {
			return nil, &DecodeError{Endpoint: pr.endpoint(), Err: fmt.Errorf("post %d: %w", i, err)}
		}
	}

	return posts, nil
}

// GetPost returns a single post with its comments.
func (s *Session) GetPost(ctx context.Context, id ID) (*Post, error) {
	pr, err := newPendingRequest(http.MethodGet, postPath(id), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.send(ctx, pr)
	if err != nil {
		return nil, err
	}

	var post Post
	if err := decodeData(resp, pr.endpoint(), &post); err != nil {
		return nil, err
	}
	if err := post.validate(); err != nil {
		return nil, &DecodeError{Endpoint: pr.endpoint(), Err: err}
	}

	return &post, nil
}

// CreatePost publishes a post. Blank fields fail validation and nothing is
// sent. The result is nil when the server answers without a body.
func (s *Session) CreatePost(ctx context.Context, in PostInput) (*Post, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.writePost(ctx, http.MethodPost, pathPosts, in)
}

// UpdatePost replaces a post's title and content. Only the owner may do
// this; the server enforces it.
func (s *Session) UpdatePost(ctx context.Context, id ID, in PostInput) (*Post, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return s.writePost(ctx, http.MethodPut, postPath(id), in)
}

func (s *Session) writePost(ctx context.Context, method, path string, in PostInput) (*Post, error) {
	pr, err := newPendingRequest(method, path, in)
	if err != nil {
		return nil, err
	}

	resp, err := s.send(ctx, pr)
	if err != nil {
		return nil, err
	}

	var post Post
	ok, err := decodeOptional(resp, pr.endpoint(), &post)
	if err != nil || !ok {
		return nil, err
	}
	if err := post.validate(); err != nil {
		return nil, &DecodeError{Endpoint: pr.endpoint(), Err: err}
	}

	return &post, nil
}

// DeletePost removes a post.
func (s *Session) DeletePost(ctx context.Context, id ID) error {
	pr, err := newPendingRequest(http.MethodDelete, postPath(id), nil)
	if err != nil {
		return err
	}

	resp, err := s.send(ctx, pr)
	if err != nil {
		return err
	}
	return checkStatus(resp, pr.endpoint())
}

// AddComment posts a comment. Blank content fails validation and nothing is
// sent.
func (s *Session) AddComment(ctx context.Context, postID ID, in CommentInput) (*Comment, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	pr, err := newPendingRequest(http.MethodPost, postPath(postID)+"/comments", in)
	if err != nil {
		return nil, err
	}

	resp, err := s.send(ctx, pr)
	if err != nil {
		return nil, err
	}

	var comment Comment
	ok, err := decodeOptional(resp, pr.endpoint(), &comment)
	if err != nil || !ok {
		return nil, err
	}

	return &comment, nil
}
