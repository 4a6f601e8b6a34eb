package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/postboard/pkg/feedsdk"
)

type userView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newUserView(u *feedsdk.User) userView {
	if u == nil {
		return userView{}
	}
	return userView{ID: u.ID.String(), Name: u.Name, Email: u.Email}
}

func (u userView) String() string {
	return fmt.Sprintf("%s <%s> (id %s)", u.Name, u.Email, u.ID)
}

type commentView struct {
	ID        string     `json:"id"`
	Author    string     `json:"author,omitempty"`
	Content   string     `json:"content"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func newCommentView(c feedsdk.Comment) commentView {
	v := commentView{ID: c.ID.String(), Content: c.Content, CreatedAt: timePtr(c.CreatedAt)}
	if c.User != nil {
		v.Author = c.User.Name
	}
	return v
}

func (c commentView) String() string {
	author := c.Author
	if author == "" {
		author = "anonymous"
	}
	return fmt.Sprintf("  - %s: %s", author, c.Content)
}

type postView struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Author    string        `json:"author,omitempty"`
	Mine      bool          `json:"mine"`
	CreatedAt *time.Time    `json:"created_at,omitempty"`
	Comments  []commentView `json:"comments"`
}

func newPostView(p feedsdk.Post, me *feedsdk.User) postView {
	v := postView{
		ID:        p.ID.String(),
		Title:     p.Title,
		Content:   p.Content,
		Mine:      p.OwnedBy(me),
		CreatedAt: timePtr(p.CreatedAt),
		Comments:  make([]commentView, 0, len(p.Comments)),
	}
	if p.User != nil {
		v.Author = p.User.Name
	}
	for _, c := range p.Comments {
		v.Comments = append(v.Comments, newCommentView(c))
	}
	return v
}

func (p postView) header() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", p.ID, p.Title)
	if p.Author != "" {
		fmt.Fprintf(&b, " by %s", p.Author)
	}
	if p.Mine {
		b.WriteString(" (yours)")
	}
	return b.String()
}

func (p postView) String() string {
	var b strings.Builder
	b.WriteString(p.header())
	b.WriteString("\n")
	b.WriteString(p.Content)
	if len(p.Comments) > 0 {
		fmt.Fprintf(&b, "\n%d comment(s):", len(p.Comments))
		for _, c := range p.Comments {
			b.WriteString("\n")
			b.WriteString(c.String())
		}
	}
	return b.String()
}

type postListView []postView

func (l postListView) String() string {
	if len(l) == 0 {
		return "No posts found."
	}
	lines := make([]string, 0, len(l))
	for _, p := range l {
		lines = append(lines, fmt.Sprintf("%s (%d comment(s))", p.header(), len(p.Comments)))
	}
	return strings.Join(lines, "\n")
}

// messageView is a plain confirmation.
type messageView struct {
	Message string `json:"message"`
}

func (m messageView) String() string { return m.Message }

func timePtr(t feedsdk.Timestamp) *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}
