package dto

// Response is the envelope of every JSON answer
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

type ErrorInfo struct {
	Code      string             `json:"code"`
	Message   string             `json:"message"`
	RequestID string             `json:"request_id,omitempty"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail names one rejected field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

func NewErrorResponse(code, message string) Response {
	return errorResponse(ErrorInfo{Code: code, Message: message})
}

func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	return errorResponse(ErrorInfo{Code: code, Message: message, RequestID: requestID})
}

// NewValidationErrorResponse reports field failures under ErrCodeValidation
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	return errorResponse(ErrorInfo{Code: ErrCodeValidation, Message: message, RequestID: requestID, Details: details})
}

func errorResponse(info ErrorInfo) Response {
	return Response{Error: &info}
}
