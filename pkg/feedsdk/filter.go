package feedsdk

import "strings"

// FilterPosts returns the posts whose title or content contains query,
// ignoring case. A blank query returns posts unchanged. Order is kept.
func FilterPosts(posts []Post, query string) []Post {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return posts
	}

	out := make([]Post, 0, len(posts))
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Content), q) {
			out = append(out, p)
		}
	}
	return out
}

// Changed reports whether in differs from the post's current title or
// content. Unchanged edits need not be sent.
func (p Post) Changed(in PostInput) bool {
	return p.Title != in.Title || p.Content != in.Content
}
