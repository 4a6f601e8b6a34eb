package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/postboard/pkg/feedsdk"
)

// NewPostsCommand creates the posts command group. Every subcommand needs
// a signed-in session.
func NewPostsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Read and write posts",
	}

	cmd.AddCommand(newPostsListCommand(rootOpts))
	cmd.AddCommand(newPostsShowCommand(rootOpts))
	cmd.AddCommand(newPostsCreateCommand(rootOpts))
	cmd.AddCommand(newPostsUpdateCommand(rootOpts))
	cmd.AddCommand(newPostsDeleteCommand(rootOpts))
	cmd.AddCommand(newPostsCommentCommand(rootOpts))

	return cmd
}

func newPostsListCommand(rootOpts *RootOptions) *cobra.Command {
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(rootOpts, cmd, true, func(env *commandEnv) error {
				posts, err := env.app.Session().ListPosts(env.ctx)
				if err != nil {
					return fail(env.out, err, "Failed to fetch posts")
				}

				posts = feedsdk.FilterPosts(posts, search)
				env.out.VerboseLog("%d post(s) after filtering", len(posts))

				me := env.app.Session().User()
				view := make(postListView, 0, len(posts))
				for _, p := range posts {
					view = append(view, newPostView(p, me))
				}
				return env.out.Success(view)
			})
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "only show posts whose title or content contains this text")

	return cmd
}

func newPostsShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a post and its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(rootOpts, cmd, true, func(env *commandEnv) error {
				post, err := env.app.Session().GetPost(env.ctx, feedsdk.ID(args[0]))
				if err != nil {
					return fail(env.out, err, "Failed to fetch post")
				}
				return env.out.Success(newPostView(*post, env.app.Session().User()))
			})
		},
	}
}

func newPostsCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var in feedsdk.PostInput

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Publish a new post",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(rootOpts, cmd, true, func(env *commandEnv) error {
				post, err := env.app.Session().CreatePost(env.ctx, in)
				if err != nil {
					return fail(env.out, err, "Failed to create post")
				}
				if post == nil {
					return env.out.Success(messageView{Message: "Post created."})
				}
				return env.out.Success(newPostView(*post, env.app.Session().User()))
			})
		},
	}

	cmd.Flags().StringVar(&in.Title, "title", "", "post title")
	cmd.Flags().StringVar(&in.Content, "content", "", "post body")

	return cmd
}

func newPostsUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	var title, content string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(rootOpts, cmd, true, func(env *commandEnv) error {
				session := env.app.Session()
				id := feedsdk.ID(args[0])

				current, err := session.GetPost(env.ctx, id)
				if err != nil {
					return fail(env.out, err, "Failed to fetch post")
				}
				if err := requireOwner(env, current); err != nil {
					return err
				}

				in := feedsdk.PostInput{Title: current.Title, Content: current.Content}
				if cmd.Flags().Changed("title") {
					in.Title = title
				}
				if cmd.Flags().Changed("content") {
					in.Content = content
				}
				if !current.Changed(in) {
					return env.out.Success(messageView{Message: "No changes to save."})
				}

				post, err := session.UpdatePost(env.ctx, id, in)
				if err != nil {
					return fail(env.out, err, "Failed to update post")
				}
				if post == nil {
					return env.out.Success(messageView{Message: "Post updated."})
				}
				return env.out.Success(newPostView(*post, session.User()))
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&content, "content", "", "new body")

	return cmd
}

func newPostsDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete one of your posts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(rootOpts, cmd, true, func(env *commandEnv) error {
				session := env.app.Session()
				id := feedsdk.ID(args[0])

				current, err := session.GetPost(env.ctx, id)
				if err != nil {
					return fail(env.out, err, "Failed to fetch post")
				}
				if err := requireOwner(env, current); err != nil {
					return err
				}

				if err := session.DeletePost(env.ctx, id); err != nil {
					return fail(env.out, err, "Failed to delete post")
				}
				return env.out.Success(messageView{Message: fmt.Sprintf("Post %s deleted.", id)})
			})
		},
	}
}

func newPostsCommentCommand(rootOpts *RootOptions) *cobra.Command {
	var in feedsdk.CommentInput

	cmd := &cobra.Command{
		Use:   "comment ID",
		Short: "Comment on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(rootOpts, cmd, true, func(env *commandEnv) error {
				comment, err := env.app.Session().AddComment(env.ctx, feedsdk.ID(args[0]), in)
				if err != nil {
					return fail(env.out, err, "Failed to add comment")
				}
				if comment == nil {
					return env.out.Success(messageView{Message: "Comment added."})
				}
				return env.out.Success(newCommentView(*comment))
			})
		},
	}

	cmd.Flags().StringVar(&in.Content, "content", "", "comment text")

	return cmd
}

// requireOwner stops edits to posts the signed-in user did not write. The
// server enforces this too; checking first avoids a pointless request.
func requireOwner(env *commandEnv, p *feedsdk.Post) error {
	if p.OwnedBy(env.app.Session().User()) {
		return nil
	}
	msg := "You can only change your own posts."
	_ = env.out.Error(ErrCodeValidation, msg, map[string]string{"post_id": p.ID.String()})
	return NewExitError(ExitFailure, msg)
}
