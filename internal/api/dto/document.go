package dto

type DocumentDTO struct {
	ID            string `json:"id"`
	Filename      string `json:"filename"`
	ContentType   string `json:"content_type,omitempty"`
	Size          int64  `json:"size"`
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason,omitempty"`
	ExtractedText string `json:"extracted_text,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type OCRResponse struct {
	Filename      string `json:"filename"`
	ExtractedText string `json:"extracted_text"`
}
