package todos

// Attachment is a file embedded by value in a Record.
// A nil Contents is a metadata-only view and does not mean the file was removed.
type Attachment struct {
	Filename string `json:"filename" dynamodbav:"filename"`
	Contents []byte `json:"contents" dynamodbav:"contents,omitempty"`
}

// Record represents the item stored in the records DynamoDB table.
type Record struct {
	ID          string      `json:"id" dynamodbav:"id"` // PK
	Title       *string     `json:"title" dynamodbav:"title,omitempty"`
	Description string      `json:"description" dynamodbav:"description"`
	Timestamp   string      `json:"timestamp" dynamodbav:"timestamp"` // caller supplied, never parsed
	Document    *Attachment `json:"document,omitempty" dynamodbav:"document,omitempty"`
	Filename    *string     `json:"filename" dynamodbav:"filename,omitempty"` // independent of Document.Filename
	Done        bool        `json:"done" dynamodbav:"done"`
}

// Summary is the shape returned by Update.
type Summary struct {
	ID          string  `json:"id"`
	Timestamp   string  `json:"timestamp"`
	Title       *string `json:"title"`
	Description string  `json:"description"`
	Filename    *string `json:"filename"`
	Done        bool    `json:"done"`
}

// NewRecord holds the caller supplied fields for a create.
type NewRecord struct {
	Title       *string
	Description string
	Timestamp   string
	Done        bool
}

// Patch is a partial update. Each field is independently omitted, null or set.
type Patch struct {
	Title       Optional[string]     `json:"title"`
	Description Optional[string]     `json:"description"`
	Document    Optional[Attachment] `json:"document"`
	Filename    Optional[string]     `json:"filename"`
	Done        Optional[bool]       `json:"done"`
}

func (r Record) summary() Summary {
	return Summary{
		ID:          r.ID,
		Timestamp:   r.Timestamp,
		Title:       r.Title,
		Description: r.Description,
		Filename:    r.Filename,
		Done:        r.Done,
	}
}
