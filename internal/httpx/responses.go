package httpx

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

const maxErrorBody = 4 << 10

// ErrorResponse is the error envelope some backends send.
type ErrorResponse struct {
	Success bool              `json:"success"`
	Error   ErrorResponseBody `json:"error"`
	Message string            `json:"message"`
}

// ErrorResponseBody is the error member of ErrorResponse.
type ErrorResponseBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorMessage extracts a human readable message from an error response.
// It understands the JSON envelope above and plain text bodies such as
// "jwt expired", falling back to the status text.
func ErrorMessage(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	text := strings.TrimSpace(string(body))

	var env ErrorResponse
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Error.Message != "" {
			return env.Error.Message
		}
		if env.Message != "" {
			return env.Message
		}
	} else {
		var s string
		if err := json.Unmarshal(body, &s); err == nil && s != "" {
			return s
		}
		if text != "" && !strings.HasPrefix(text, "<") {
			return text
		}
	}
	return http.StatusText(resp.StatusCode)
}
