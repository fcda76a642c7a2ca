package response

// Response is the envelope every JSON endpoint returns. Exactly one of Data
// and Error is set.
type Response struct {
	Status     string      `json:"status"`
	StatusCode int         `json:"status_code"`
	Data       interface{} `json:"data,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Success wraps data in a success envelope.
func Success(statusCode int, data interface{}) Response {
	return Response{Status: "success", StatusCode: statusCode, Data: data}
}

// Error wraps an error message in an error envelope.
func Error(statusCode int, msg string) Response {
	return Response{Status: "error", StatusCode: statusCode, Error: msg}
}
