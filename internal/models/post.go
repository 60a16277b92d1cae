package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post categories accepted by the forum.
var PostCategories = []string{
	"housing", "teaching", "campus-events", "dining", "study-notes",
	"career", "postgrad-exam", "study-abroad", "clubs", "campus-life",
	"academic", "questions", "other",
}

// Post types and publication statuses.
const (
	PostTypeDiscussion = "discussion"
	PostTypeQuestion   = "question"
	PostTypeExperience = "experience"
	PostTypeReview     = "review"
)

// Post is a forum thread. Comments are embedded in insertion order and likes
// is a set of user ids (membership, never a count). Stats mirrors both: the
// counters are cached projections and every mutation that touches likes or
// comments updates the matching counter in the same document operation.
type Post struct {
	ID         primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title      string               `bson:"title" json:"title"`
	Content    string               `bson:"content" json:"content"`
	Author     primitive.ObjectID   `bson:"author" json:"author"`
	Category   string               `bson:"category" json:"category"`
	Tags       []string             `bson:"tags,omitempty" json:"tags,omitempty"`
	Images     []PostImage          `bson:"images,omitempty" json:"images,omitempty"`
	University primitive.ObjectID   `bson:"university,omitempty" json:"university,omitempty"`
	Major      primitive.ObjectID   `bson:"major,omitempty" json:"major,omitempty"`
	Type       string               `bson:"type" json:"type"`
	Status     string               `bson:"status" json:"status"`
	Likes      []primitive.ObjectID `bson:"likes" json:"likes"`
	Comments   []Comment            `bson:"comments" json:"comments"`
	Stats      PostStats            `bson:"stats" json:"stats"`
	Metadata   PostMetadata         `bson:"metadata" json:"metadata"`
	IsActive   bool                 `bson:"isActive" json:"isActive"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt  time.Time            `bson:"updatedAt" json:"updatedAt"`

	// AuthorInfo and UniversityInfo carry populated summaries on reads.
	// They are never persisted.
	AuthorInfo     *UserSummary       `bson:"-" json:"authorInfo,omitempty"`
	UniversityInfo *UniversitySummary `bson:"-" json:"universityInfo,omitempty"`
}

type PostImage struct {
	URL     string `bson:"url" json:"url"`
	Caption string `bson:"caption,omitempty" json:"caption,omitempty"`
}

// Comment is embedded in its post. ParentID enables single-level threading:
// a flat list with an optional parent pointer, not a tree. ParentID is stored
// without a referential check against existing comment ids.
type Comment struct {
	ID        primitive.ObjectID   `bson:"_id" json:"id"`
	Author    primitive.ObjectID   `bson:"author" json:"author"`
	Content   string               `bson:"content" json:"content"`
	ParentID  *primitive.ObjectID  `bson:"parentId,omitempty" json:"parentId,omitempty"`
	Likes     []primitive.ObjectID `bson:"likes,omitempty" json:"likes,omitempty"`
	IsActive  bool                 `bson:"isActive" json:"isActive"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`

	AuthorInfo *UserSummary `bson:"-" json:"authorInfo,omitempty"`
}

// PostStats caches aggregate counts for cheap list reads. Invariants:
// Likes == len(post.Likes) and Comments == number of active comments.
// Views is advisory and incremented on every detail fetch.
type PostStats struct {
	Views    int `bson:"views" json:"views"`
	Likes    int `bson:"likes" json:"likes"`
	Comments int `bson:"comments" json:"comments"`
	Shares   int `bson:"shares" json:"shares"`
}

type PostMetadata struct {
	Featured      bool `bson:"featured" json:"featured"`
	Pinned        bool `bson:"pinned" json:"pinned"`
	AllowComments bool `bson:"allowComments" json:"allowComments"`
	IsAnonymous   bool `bson:"isAnonymous" json:"isAnonymous"`
}

// UserSummary is the slice of a user document embedded in populated responses.
type UserSummary struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Username string             `bson:"username" json:"username"`
	Avatar   string             `bson:"avatar,omitempty" json:"avatar,omitempty"`
}

// HasLike reports whether userID is a member of the likes set.
func (p *Post) HasLike(userID primitive.ObjectID) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// ActiveCommentCount counts comments that have not been soft-deleted.
func (p *Post) ActiveCommentCount() int {
	n := 0
	for _, c := range p.Comments {
		if c.IsActive {
			n++
		}
	}
	return n
}
