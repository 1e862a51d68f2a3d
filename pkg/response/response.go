package response

import (
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var EmptyRequestBodyResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusBadRequest,
	Error:      "Empty Request Body",
	Message:    "Request body is empty. Please provide necessary data.",
}

var BadRequestResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusBadRequest,
	Error:      "Bad Request",
	Message:    "The request body is malformed.",
}

var ResourceNotFoundResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusNotFound,
	Error:      "Resource Not Found",
	Message:    "The requested resource was not found.",
}

var UnauthorizedResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusUnauthorized,
	Error:      "Unauthorized",
	Message:    "A valid API key is required to access this resource.",
}

var ServerErrorResponse = Response{
	Status:     StatusError,
	StatusCode: http.StatusInternalServerError,
	Error:      "Server Error",
	Message:    "An internal server error occurred. Please try again later.",
}

type Response struct {
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Error      string `json:"error,omitempty"`
	Message    string `json:"message"`
	Details    []any  `json:"details,omitempty"`
	Data       any    `json:"data,omitempty"`
}

// WithDetails returns a copy of the response carrying extra detail entries.
// Handlers attach error detail only outside production.
func (r Response) WithDetails(details ...any) Response {
	r.Details = append(r.Details[:len(r.Details):len(r.Details)], details...)
	return r
}

func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		Status:     StatusSuccess,
		StatusCode: http.StatusOK,
		Message:    msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

// ValidationErrorResponse builds a 400 response listing each failed field.
func ValidationErrorResponse(err error) Response {
	resp := Response{
		Status:     StatusError,
		StatusCode: http.StatusBadRequest,
		Error:      "Validation Error",
		Message:    "The request body contains invalid data.",
	}

	if errs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range errs {
			resp.Details = append(resp.Details,
				fmt.Sprintf("field %q failed on the %q rule", e.Field(), e.Tag()))
		}
	}

	return resp
}
