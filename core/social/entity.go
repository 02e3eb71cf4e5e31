package social

import "time"

// Author is the public profile shown next to content.
type Author struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// Post is a feed entry.
type Post struct {
	ID           string    `json:"id"`
	Author       Author    `json:"author"`
	Content      string    `json:"content"`
	Media        []string  `json:"media,omitempty"`
	LikeCount    int       `json:"likeCount"`
	CommentCount int       `json:"commentCount"`
	ShareCount   int       `json:"shareCount"`
	IsLiked      bool      `json:"isLiked"`
	IsShared     bool      `json:"isShared"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Comment is a comment or a reply (ParentID set) on a post.
type Comment struct {
	ID         string    `json:"id"`
	PostID     string    `json:"postId"`
	ParentID   string    `json:"parentId,omitempty"`
	Author     Author    `json:"author"`
	Text       string    `json:"text"`
	LikeCount  int       `json:"likeCount"`
	ReplyCount int       `json:"replyCount"`
	IsLiked    bool      `json:"isLiked"`
	CreatedAt  time.Time `json:"createdAt"`

	// Pending marks a placeholder that the server has not confirmed yet.
	Pending bool `json:"-"`
}

// Story is a short-lived media item.
type Story struct {
	ID        string    `json:"id"`
	Author    Author    `json:"author"`
	MediaURL  string    `json:"mediaUrl"`
	ViewCount int       `json:"viewCount"`
	Viewed    bool      `json:"viewed"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// FriendRequest is an incoming request awaiting an answer.
type FriendRequest struct {
	ID        string    `json:"id"`
	From      Author    `json:"from"`
	CreatedAt time.Time `json:"createdAt"`
}

// Relationship is the viewer's relation to another user.
type Relationship struct {
	UserID        string `json:"userId"`
	IsFollowing   bool   `json:"isFollowing"`
	IsFriend      bool   `json:"isFriend"`
	FollowerCount int    `json:"followerCount"`
}

// LikeResult carries the server's authoritative like state.
type LikeResult struct {
	IsLiked   bool `json:"isLiked"`
	LikeCount int  `json:"likeCount"`
}

// ShareResult carries the server's authoritative share state.
type ShareResult struct {
	ShareID    string `json:"shareId,omitempty"`
	Caption    string `json:"caption,omitempty"`
	ShareCount int    `json:"shareCount"`
}

// Keys identify entities for sequencing and re-fetches.
func PostKey(id string) string    { return "post:" + id }
func CommentKey(id string) string { return "comment:" + id }
func StoryKey(id string) string   { return "story:" + id }
func UserKey(id string) string    { return "user:" + id }
func RequestKey(id string) string { return "request:" + id }

// StoriesKey and RequestsKey name whole lists.
const (
	StoriesKey  = "stories"
	RequestsKey = "requests"
)
