package domain

// ValidationError is a locally rejected input. It never reaches the backend
// and never adds a message to the conversation log.
type ValidationError struct {
	Reason string
	Notice string // user-facing text
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Reason
}

var (
	ErrEmptyInput = &ValidationError{
		Reason: "empty input",
		Notice: "メッセージを入力してください。",
	}
	ErrUnsupportedDocument = &ValidationError{
		Reason: "unsupported document type",
		Notice: "PDFファイルのみアップロード可能です。",
	}
)
