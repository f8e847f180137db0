package models

// PendingUpload is a locally staged file awaiting commit to the object
// store. It is ephemeral and never persisted; a Message referencing the
// upload can only exist after a successful commit.
type PendingUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// AttachmentRef is a durable, publicly dereferenceable reference produced
// by committing a PendingUpload.
type AttachmentRef struct {
	Key        string `json:"key"`
	URL        string `json:"url"`
	PreviewURL string `json:"preview_url,omitempty"`
}
