package validation

// CreateRecordRequest is the payload for POST /list/
type CreateRecordRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description" validate:"required"`
	Timestamp   *string `json:"timestamp" validate:"required"` // opaque, not parsed
	Done        *bool   `json:"done"`                          // defaults to false
}

// CreateWithFileForm holds the discrete form fields of POST /list/file.
// The file part itself is read separately.
type CreateWithFileForm struct {
	Title       string `form:"title" validate:"required"`
	Description string `form:"description" validate:"required"`
	Timestamp   string `form:"timestamp" validate:"required"`
}

// IDQuery is the query of DELETE /list/
type IDQuery struct {
	ID string `form:"id" validate:"required"`
}

// UpdateQuery is the query of PUT /list/
type UpdateQuery struct {
	ID         string `form:"id" validate:"required"`
	RemoveFile string `form:"remove_file" validate:"required,boolish"`
}

// RemoveFileSet reports the parsed remove_file flag. Call it only after validation.
func (q UpdateQuery) RemoveFileSet() bool {
	b, _ := parseBoolish(q.RemoveFile)
	return b
}
