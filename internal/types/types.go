package types

// Content types of stored artifacts.
const (
	ContentTypeMP4  = "video/mp4"
	ContentTypeJPEG = "image/jpeg"
)

// ProcessedArtifact is an object that was written to the artifact store.
type ProcessedArtifact struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// EditResult is the outcome of a successful edit request. Thumbnail is nil
// when the request carried no thumbnail image.
type EditResult struct {
	WorkspaceID string             `json:"workspace_id"`
	Video       ProcessedArtifact  `json:"video"`
	Thumbnail   *ProcessedArtifact `json:"thumbnail,omitempty"`
}
