package social

import (
	"context"

	"github.com/dmitrymomot/socialsync/core/optimistic"
)

// Follow starts following userID.
func (s *Service) Follow(ctx context.Context, userID string) (Relationship, error) {
	return s.setFollow(ctx, userID, true)
}

// Unfollow stops following userID.
func (s *Service) Unfollow(ctx context.Context, userID string) (Relationship, error) {
	return s.setFollow(ctx, userID, false)
}

func (s *Service) setFollow(ctx context.Context, userID string, follow bool) (Relationship, error) {
	people := s.feed.People
	name, send, failure := "unfollow", s.api.Unfollow, "Could not unfollow this user."
	if follow {
		name, send, failure = "follow", s.api.Follow, "Could not follow this user."
	}

	return optimistic.Run(ctx, s.coord, optimistic.Mutation[Relationship]{
		Name:  name,
		Key:   UserKey(userID),
		Scope: s.scope,
		Apply: optimistic.Optional(optimistic.Patch(people, userID,
			func(r *Relationship) {
				if r.IsFollowing == follow {
					return
				}
				r.IsFollowing = follow
				if follow {
					r.FollowerCount++
				} else if r.FollowerCount > 0 {
					r.FollowerCount--
				}
			},
			func(cur *Relationship, before Relationship) {
				cur.IsFollowing, cur.FollowerCount = before.IsFollowing, before.FollowerCount
			},
		)),
		Send: func(ctx context.Context) (Relationship, error) {
			return send(ctx, userID)
		},
		Commit: func(r Relationship) {
			if r.UserID == "" {
				r.UserID = userID
			}
			upsert(people, r)
		},
		Failure: failure,
	})
}

// AcceptFriendRequest removes the request from the pending list and accepts it.
func (s *Service) AcceptFriendRequest(ctx context.Context, requestID string) error {
	return s.answerRequest(ctx, requestID, "accept_friend_request", s.api.AcceptFriendRequest)
}

// DeclineFriendRequest removes the request from the pending list and declines it.
func (s *Service) DeclineFriendRequest(ctx context.Context, requestID string) error {
	return s.answerRequest(ctx, requestID, "decline_friend_request", s.api.DeclineFriendRequest)
}

func (s *Service) answerRequest(ctx context.Context, requestID, name string, send func(context.Context, string) error) error {
	_, err := optimistic.Run(ctx, s.coord, optimistic.Mutation[struct{}]{
		Name:  name,
		Key:   RequestKey(requestID),
		Scope: s.scope,
		Apply: optimistic.Remove(s.feed.Requests, requestID),
		Send: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, send(ctx, requestID)
		},
		Failure: "Could not answer the friend request.",
	})
	return err
}

// MarkStoryViewed flags a story as seen by the viewer. Stories already seen
// locally are not sent again.
func (s *Service) MarkStoryViewed(ctx context.Context, storyID string) (Story, error) {
	stories := s.feed.Stories
	if st, ok := stories.Get(storyID); ok && st.Viewed {
		return st, nil
	}

	return optimistic.Run(ctx, s.coord, optimistic.Mutation[Story]{
		Name:  "view_story",
		Key:   StoryKey(storyID),
		Scope: s.scope,
		Apply: optimistic.Patch(stories, storyID,
			func(st *Story) {
				st.Viewed = true
				st.ViewCount++
			},
			func(cur *Story, before Story) {
				cur.Viewed, cur.ViewCount = before.Viewed, before.ViewCount
			},
		),
		Send: func(ctx context.Context) (Story, error) {
			return s.api.ViewStory(ctx, storyID)
		},
		Commit: func(st Story) {
			stories.Update(storyID, func(cur *Story) {
				cur.Viewed = true
				cur.ViewCount = st.ViewCount
			})
		},
	})
}
