package domain

import (
	"context"
	"encoding/json"
	"time"
)

type Section string

const (
	SectionOfficial  Section = "Official"
	SectionStudent   Section = "Student"
	SectionAnonymous Section = "Anonymous"
)

var Categories = []string{"Events", "Exams", "Placements", "Academics", "Clubs", "Lost & Found", "General", "Other"}

const DefaultCategory = "General"

// Status is the tombstone state shared by posts and comments.
type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

type Post struct {
	ID               string       `gorm:"primaryKey;size:36" json:"id"`
	Title            string       `gorm:"size:200;not null" json:"title"`
	Content          string       `gorm:"type:text;not null" json:"content"`
	Section          Section      `gorm:"size:16;not null;index:idx_posts_section_created,priority:1" json:"section"`
	Category         string       `gorm:"size:32;not null;default:General;index" json:"category"`
	AuthorID         *string      `gorm:"size:36;index" json:"authorId,omitempty"`
	Author           *UserRef     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	IsAnonymous      bool         `gorm:"not null;default:false" json:"isAnonymous"`
	Attachments      []Attachment `gorm:"foreignKey:PostID" json:"attachments"`
	Tags             []PostTag    `gorm:"foreignKey:PostID" json:"tags"`
	Upvotes          []PostUpvote `gorm:"foreignKey:PostID" json:"upvotes"`
	UpvoteCount      int          `gorm:"not null;default:0" json:"upvoteCount"`
	CommentCount     int          `gorm:"not null;default:0" json:"commentCount"`
	IsVerified       bool         `gorm:"not null;default:false" json:"isVerified"`
	IsMisinformation bool         `gorm:"not null;default:false" json:"isMisinformation"`
	VerifiedByID     *string      `gorm:"size:36" json:"verifiedById,omitempty"`
	VerifiedBy       *UserRef     `gorm:"foreignKey:VerifiedByID" json:"verifiedBy,omitempty"`
	IsPinned         bool         `gorm:"not null;default:false" json:"isPinned"`
	Status           Status       `gorm:"size:16;not null;default:active;index" json:"status"`
	CreatedAt        time.Time    `gorm:"index:idx_posts_section_created,priority:2" json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
}

func (Post) TableName() string { return "posts" }

// PostRef 通知里只回带帖子标题
type PostRef struct {
	ID    string `gorm:"primaryKey" json:"id"`
	Title string `json:"title"`
}

func (PostRef) TableName() string { return "posts" }

type Attachment struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	PostID   string `gorm:"size:36;not null;index" json:"-"`
	URL      string `gorm:"size:1024;not null" json:"url"`
	Type     string `gorm:"size:16" json:"type,omitempty"`
	Filename string `gorm:"size:255" json:"filename,omitempty"`
}

func (Attachment) TableName() string { return "post_attachments" }

type PostTag struct {
	ID       uint   `gorm:"primaryKey"`
	PostID   string `gorm:"size:36;not null;index"`
	Tag      string `gorm:"size:32;not null;index"`
	Position int    `gorm:"not null;default:0"`
}

func (PostTag) TableName() string { return "post_tags" }

// 序列化为纯字符串，保持 tags: ["a","b"] 的输出形态
func (t PostTag) MarshalJSON() ([]byte, error) { return json.Marshal(t.Tag) }

func (t *PostTag) UnmarshalJSON(b []byte) error { return json.Unmarshal(b, &t.Tag) }

type PostUpvote struct {
	PostID    string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"primaryKey;size:36;index"`
	CreatedAt time.Time
}

func (PostUpvote) TableName() string { return "post_upvotes" }

func (u PostUpvote) MarshalJSON() ([]byte, error) { return json.Marshal(u.UserID) }

func (u *PostUpvote) UnmarshalJSON(b []byte) error { return json.Unmarshal(b, &u.UserID) }

// TagNames returns the tags in stored order.
func (p *Post) TagNames() []string {
	out := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		out = append(out, t.Tag)
	}
	return out
}

func (p *Post) UpvotedBy(userID string) bool {
	for _, u := range p.Upvotes {
		if u.UserID == userID {
			return true
		}
	}
	return false
}

type PostFilter struct {
	Section        Section
	Category       string
	Tags           []string
	IncludeDeleted bool
	PinnedFirst    bool
	Page           PageRequest
}

// PostPatch carries the mutable post fields; nil means unchanged.
type PostPatch struct {
	Title       *string
	Content     *string
	Category    *string
	Tags        *[]string
	Attachments *[]Attachment
}

type Verification struct {
	IsVerified       bool
	IsMisinformation bool
	VerifierID       string
}

type SectionCount struct {
	Section Section `json:"section"`
	Count   int64   `json:"count"`
}

type PostRepository interface {
	Create(ctx context.Context, p *Post) error
	// FindLive 只返回未删除的帖子
	FindLive(ctx context.Context, id string) (*Post, error)
	// FindAny ignores the tombstone; callers must not expose deleted rows through public reads.
	FindAny(ctx context.Context, id string) (*Post, error)
	List(ctx context.Context, f PostFilter) ([]Post, int64, error)
	Update(ctx context.Context, id string, patch PostPatch) error
	SoftDelete(ctx context.Context, id string) error
	// ToggleUpvote adds or removes userID and recomputes upvote_count; reports whether it was added.
	ToggleUpvote(ctx context.Context, id, userID string) (bool, error)
	SetVerification(ctx context.Context, id string, v Verification) error
	TogglePin(ctx context.Context, id string) error
	CountLive(ctx context.Context) (int64, error)
	CountBySection(ctx context.Context) ([]SectionCount, error)
	Recent(ctx context.Context, n int) ([]Post, error)
}
