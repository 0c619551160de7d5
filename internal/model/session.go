package model

// Phase is the orchestrator state for the active target.
type Phase string

const (
	PhaseInactive Phase = "inactive"
	PhaseLoading  Phase = "loading"
	PhaseReady    Phase = "ready"
	PhaseMutating Phase = "mutating"
	PhaseError    Phase = "error"
)

// Snapshot is the immutable read model handed to callers. Every field is a
// copy; mutating it has no effect on the session.
type Snapshot struct {
	Generation  uint64            `json:"generation"`
	Phase       Phase             `json:"phase"`
	TargetID    string            `json:"targetId,omitempty"`
	Reaction    *ReactionState    `json:"reaction,omitempty"`
	Comments    []CommentNode     `json:"comments"`
	CommentSort CommentSort       `json:"commentSort"`
	ViewCount   int64             `json:"viewCount"`
	FeedOwnerID string            `json:"feedOwnerId,omitempty"`
	Feed        []ContentItem     `json:"feed"`
	Errors      map[string]string `json:"errors,omitempty"`
}

// CreateSessionResponse is returned when a player session is opened.
type CreateSessionResponse struct {
	SessionID string `json:"sessionId"`
}

// ActivateRequest selects the video a session is bound to.
type ActivateRequest struct {
	VideoID string `json:"videoId"`
}

// CommentRequest is the body for creating a comment or reply.
type CommentRequest struct {
	Text    string `json:"text"`
	ReplyTo string `json:"replyTo,omitempty"`
}

// CommentEditRequest is the body for editing a comment.
type CommentEditRequest struct {
	Text string `json:"text"`
}

// SortRequest changes the comment ordering.
type SortRequest struct {
	Sort CommentSort `json:"sort"`
}

// ViewRequest is the body of the direct view increment endpoint.
type ViewRequest struct {
	VideoID string `json:"videoId"`
}

// ViewResponse carries the authoritative view count after an increment.
type ViewResponse struct {
	VideoID   string `json:"videoId"`
	ViewCount int64  `json:"viewCount"`
}

// ReplyPrefillResponse is the compose box text for replying to a comment.
type ReplyPrefillResponse struct {
	ParentID string `json:"parentId"`
	Text     string `json:"text"`
}

// FeedResponse is the merged content feed of a profile.
type FeedResponse struct {
	OwnerID       string        `json:"ownerId"`
	Items         []ContentItem `json:"items"`
	FailedSources []string      `json:"failedSources,omitempty"`
	BannerURL     string        `json:"bannerUrl,omitempty"`
}
