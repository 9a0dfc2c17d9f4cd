package domain

// TopicStatus is the moderation state of a topic.
//
// Records written before moderation existed carry no status at all; they are
// treated as published when decoded (see Topic.IsPublished).
type TopicStatus string

const (
	StatusPending   TopicStatus = "pending"
	StatusPublished TopicStatus = "published"
)

// DefaultCategory is assigned whenever a topic is stored with a blank category.
const DefaultCategory = "General"

// Topic is a discussion thread. Field names follow the storage layout of the
// tree store (camelCase, millisecond timestamps).
type Topic struct {
	Id          string      `json:"-"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Category    string      `json:"category,omitempty"`
	Status      TopicStatus `json:"status,omitempty"`
	CreatedAt   int64       `json:"createdAt"`
	UpdatedAt   int64       `json:"updatedAt,omitempty"`
	ApprovedAt  int64       `json:"approvedAt,omitempty"`
}

// IsPublished reports whether the topic belongs in public listings.
// Anything that is not explicitly pending is public, which is what makes
// legacy records without a status visible.
func (t Topic) IsPublished() bool {
	return t.Status != StatusPending
}

// TopicDraft is the user-supplied part of a new topic.
type TopicDraft struct {
	Title       string
	Description string
	Category    string
}

// TopicChanges is a field merge applied to an existing topic.
type TopicChanges struct {
	Title       string
	Description string
	Category    string
}

// PublishedTopic is a topic augmented with its comment count for listings.
// Unlike the storage shape, the id is part of the serialized form so API
// clients can address the topic.
type PublishedTopic struct {
	Topic
	Id           string `json:"id"`
	CommentCount int    `json:"commentCount"`
}
