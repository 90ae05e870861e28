package models

// DefaultContentType is the content type of every normalized dataset.
const DefaultContentType = "application/json"

// DatasetLoadResult describes a dataset that has been materialized on disk.
// After a successful load the file at Path exists and holds JSON or JSON Lines.
type DatasetLoadResult struct {
	// Path is the absolute path of the materialized file
	Path string `json:"path"`
	// Metadata always carries "provider"; other keys depend on the source
	Metadata *Metadata `json:"metadata"`
	// Content is the bytes written to Path
	Content []byte `json:"-"`
	// ContentType defaults to application/json
	ContentType string `json:"content_type"`
}

// NewDatasetLoadResult returns a result with the default content type.
func NewDatasetLoadResult(path string, content []byte, metadata *Metadata) *DatasetLoadResult {
	if metadata == nil {
		metadata = &Metadata{}
	}
	return &DatasetLoadResult{
		Path:        path,
		Metadata:    metadata,
		Content:     content,
		ContentType: DefaultContentType,
	}
}

// PipelineSaveResult describes a persisted pipeline configuration.
type PipelineSaveResult struct {
	// Path is a local file path or a storage object key
	Path string `json:"path"`
	// URI is the scheme-qualified object URI; empty for local persistence
	URI string `json:"uri,omitempty"`
	// Manifest carries at least pipeline_id, version, owner and sink
	Manifest *Metadata `json:"manifest"`
	// InputPath and OutputPath echo the caller's metadata
	InputPath  string `json:"input_path,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
}

// PipelineMetadata is the caller-supplied metadata for a pipeline save.
type PipelineMetadata struct {
	PipelineID string            `json:"pipeline_id,omitempty" yaml:"pipeline_id"`
	Version    string            `json:"version,omitempty" yaml:"version"`
	Owner      string            `json:"owner,omitempty" yaml:"owner"`
	InputPath  string            `json:"input_path,omitempty" yaml:"input_path"`
	OutputPath string            `json:"output_path,omitempty" yaml:"output_path"`
	Extra      map[string]string `json:"extra,omitempty" yaml:"extra"`
}
