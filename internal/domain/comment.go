package domain

// Sentinel identity values stored when an unauthenticated visitor comments.
// The display-name sentinel is kept as the original data has it, so old and
// new records render the same.
const (
	AnonymousUserId = "anonymous"
	AnonymousName   = "Anonyme"
)

// Comment is a single immutable message attached to one topic. Comments are
// partitioned per topic in storage, so the topic id is implicit in the path
// and not part of the record.
type Comment struct {
	Id        string `json:"-"`
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
	UserId    string `json:"userId"`
	UserEmail string `json:"userEmail"`
	UserName  string `json:"userName"`
}
