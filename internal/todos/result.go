package todos

// Soft failure messages. They are returned to callers as a normal body, not an error status.
const (
	MsgUploadFailed   = "There was an error uploading the file"
	MsgFileNotFound   = "File not found or missing contents"
	MsgDownloadFailed = "Error downloading the file"
)

// Result carries either a value or a soft failure message.
type Result[T any] struct {
	Value   T
	Failure string
}

func succeed[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

func softFail[T any](msg string) Result[T] {
	return Result[T]{Failure: msg}
}

// Failed reports whether the result is a soft failure.
func (r Result[T]) Failed() bool {
	return r.Failure != ""
}
