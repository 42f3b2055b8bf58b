package types

// ChangeKind describes what happened to a file when an edit was applied.
type ChangeKind string

const (
	ChangeCreated  ChangeKind = "created"
	ChangeModified ChangeKind = "modified"
	ChangeDeleted  ChangeKind = "deleted"
)

// FileChange is a single applied file change: the path relative to the
// project root, the full resulting content, and how the file was affected.
type FileChange struct {
	Path    string     `json:"path"`
	Content string     `json:"content"`
	Kind    ChangeKind `json:"kind"`
}

// WorkUnit is one atomic piece of generation work produced by gap analysis.
// Units are immutable during execution and consumed exactly once, in
// ascending Order.
type WorkUnit struct {
	Order        int      `json:"order"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Feature      string   `json:"feature"`
	FileHints    []string `json:"file_hints,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
	Acceptance   []string `json:"acceptance,omitempty"`
}

// TokenUsage tracks token consumption for a single oracle call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
