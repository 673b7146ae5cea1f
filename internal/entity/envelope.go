package entity

// Envelope is the single response shape used by every OCR endpoint,
// success or failure.
type Envelope struct {
	Success bool           `json:"success"`
	Data    *ResultData    `json:"data"`
	Error   *EnvelopeError `json:"error"`
}

type ResultData struct {
	Text string `json:"text"`
	Type string `json:"type"`
}

type EnvelopeError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func OK(result *RecognitionResult) *Envelope {
	return &Envelope{
		Success: true,
		Data:    &ResultData{Text: result.Text, Type: result.Type},
	}
}

func Fail(err error) *Envelope {
	return &Envelope{
		Success: false,
		Error:   &EnvelopeError{Code: CodeOf(err), Message: MessageOf(err)},
	}
}

type URLRequest struct {
	URL string `json:"url" binding:"required"`
}

type Base64Request struct {
	Image string `json:"image" binding:"required"`
}
