package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/socialsync/app/client"
	"github.com/dmitrymomot/socialsync/integration/backend"
)

func newLoginCommand() *cobra.Command {
	var (
		creds    backend.Credentials
		returnTo string
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(ctx context.Context, app *client.App) error {
				dest, err := app.Auth.Login(ctx, creds, returnTo)
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "signed in as %s, continue at %s",
					app.Auth.State().User.Username, dest)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "Account password")
	cmd.Flags().StringVar(&returnTo, "callback-url", "", "Where to continue after sign-in")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCommand() *cobra.Command {
	var in backend.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(ctx context.Context, app *client.App) error {
				if _, err := app.Auth.Register(ctx, in, ""); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "registered %s", in.Username)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&in.Username, "username", "", "Username")
	cmd.Flags().StringVar(&in.Email, "email", "", "Email")
	cmd.Flags().StringVar(&in.Password, "password", "", "Password")
	cmd.Flags().StringVar(&in.Gender, "gender", "", "Gender")
	cmd.Flags().StringVar(&in.DateOfBirth, "dob", "", "Date of birth (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newOAuthCommand() *cobra.Command {
	var (
		returnTo string
		gateway  string
	)
	cmd := &cobra.Command{
		Use:   "oauth-url",
		Short: "Print the URL that starts Google sign-in through the gateway",
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(ctx context.Context, app *client.App) error {
				path, err := app.Auth.BeginOAuth(ctx, returnTo)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(gateway, "/")+path)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&returnTo, "callback-url", "", "Where to continue after sign-in")
	cmd.Flags().StringVar(&gateway, "gateway", "http://localhost:3000", "Gateway origin")
	return cmd
}

func newWhoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, func(ctx context.Context, app *client.App) error {
				u := app.Auth.State().User
				fmt.Fprintln(cmd.OutOrStdout(), styles.title.Render("@"+u.Username), styles.dim.Render(u.Email+" "+u.ID))
				return nil
			})
		},
	}
}

func newLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return session(cmd, func(ctx context.Context, app *client.App) error {
				if err := app.Auth.Logout(ctx); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "signed out")
				return nil
			})
		},
	}
}

func newFeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "feed",
		Short: "List the feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, func(ctx context.Context, app *client.App) error {
				feed := app.Social.Feed()
				if err := app.Social.LoadHome(ctx); err != nil {
					if feed.Posts.Err() != nil {
						return err
					}
					fmt.Fprintln(cmd.ErrOrStderr(), styles.err.Render("warning: "+err.Error()))
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, styles.title.Render("Feed"),
					styles.dim.Render(fmt.Sprintf("%d stories, %d friend requests", feed.Stories.Len(), feed.Requests.Len())))
				for _, p := range feed.Posts.List() {
					fmt.Fprintln(out, renderPost(p))
				}
				return nil
			})
		},
	}
}

func newLikeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "like POST_ID",
		Short: "Toggle your like on a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, func(ctx context.Context, app *client.App) error {
				if err := app.Social.RefreshPost(ctx, args[0]); err != nil {
					return err
				}
				res, err := app.Social.ToggleLike(ctx, args[0])
				if err != nil {
					return err
				}
				verb := "unliked"
				if res.IsLiked {
					verb = "liked"
				}
				printOK(cmd.OutOrStdout(), "%s %s (%d likes)", verb, args[0], res.LikeCount)
				return nil
			})
		},
	}
}

func newCommentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "List, add, reply to and delete comments",
	}

	list := &cobra.Command{
		Use:   "list POST_ID",
		Short: "List the comments of a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, func(ctx context.Context, app *client.App) error {
				if err := app.Social.LoadComments(ctx, args[0]); err != nil {
					return err
				}
				for _, c := range app.Social.Feed().Comments(args[0]).List() {
					fmt.Fprintln(cmd.OutOrStdout(), renderComment(c))
				}
				return nil
			})
		},
	}

	var parent string
	add := &cobra.Command{
		Use:   "add POST_ID TEXT",
		Short: "Comment on a post, or reply with --reply-to",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, func(ctx context.Context, app *client.App) error {
				if err := app.Social.LoadComments(ctx, args[0]); err != nil {
					return err
				}
				var err error
				if parent != "" {
					_, err = app.Social.ReplyComment(ctx, args[0], parent, args[1])
				} else {
					_, err = app.Social.AddComment(ctx, args[0], args[1])
				}
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "comment posted")
				return nil
			})
		},
	}
	add.Flags().StringVar(&parent, "reply-to", "", "Parent comment ID")

	del := &cobra.Command{
		Use:   "delete POST_ID COMMENT_ID",
		Short: "Delete one of your comments",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, func(ctx context.Context, app *client.App) error {
				if err := app.Social.LoadComments(ctx, args[0]); err != nil {
					return err
				}
				if err := app.Social.DeleteComment(ctx, args[0], args[1]); err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "comment %s deleted", args[1])
				return nil
			})
		},
	}

	cmd.AddCommand(list, add, del)
	return cmd
}

func newShareCommand() *cobra.Command {
	var caption string
	cmd := &cobra.Command{
		Use:   "share POST_ID",
		Short: "Share a post",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, func(ctx context.Context, app *client.App) error {
				if err := app.Social.RefreshPost(ctx, args[0]); err != nil {
					return err
				}
				res, err := app.Social.SharePost(ctx, args[0], caption)
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "shared %s (%d shares)", args[0], res.ShareCount)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&caption, "caption", "", "Optional caption")
	return cmd
}

func newFollowCommand(follow bool) *cobra.Command {
	use, short := "follow USER_ID", "Follow a user"
	if !follow {
		use, short = "unfollow USER_ID", "Stop following a user"
	}
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return authed(cmd, func(ctx context.Context, app *client.App) error {
				if err := app.Social.RefreshRelationship(ctx, args[0]); err != nil {
					return err
				}
				fn := app.Social.Unfollow
				if follow {
					fn = app.Social.Follow
				}
				rel, err := fn(ctx, args[0])
				if err != nil {
					return err
				}
				printOK(cmd.OutOrStdout(), "%s now has %d followers", args[0], rel.FollowerCount)
				return nil
			})
		},
	}
}
