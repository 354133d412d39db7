package parse

// Envelope is the canonical wrapper every caller of the core depends on.
// Success: {success, type, file_path, file_name, file_size, file_extension,
// data, metadata}. Failure: {success:false, error}. Changing this shape
// requires a version bump.
type Envelope struct {
	Success       bool     `json:"success"`
	Type          string   `json:"type,omitempty"`
	FilePath      string   `json:"file_path,omitempty"`
	FileName      string   `json:"file_name,omitempty"`
	FileSize      int64    `json:"file_size,omitempty"`
	FileExtension string   `json:"file_extension,omitempty"`
	Data          any      `json:"data,omitempty"`
	Metadata      Metadata `json:"metadata,omitempty"`
	Error         *Failure `json:"error,omitempty"`
}

func successEnvelope(fd *FileDescriptor, res *Result) Envelope {
	return Envelope{
		Success:       true,
		Type:          res.Type,
		FilePath:      fd.Path,
		FileName:      fd.Name,
		FileSize:      fd.Size,
		FileExtension: fd.Ext,
		Data:          res.Data,
		Metadata:      res.Meta,
	}
}

func failureEnvelope(err error) Envelope {
	return Envelope{Success: false, Error: AsFailure(err)}
}
