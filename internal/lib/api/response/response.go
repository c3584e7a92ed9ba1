package response

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	ErrorCode  string `json:"error_code,omitempty"`
	Resolution string `json:"resolution,omitempty"`
	Message    string `json:"message,omitempty"`
}

const (
	StatusOK    = "ok"
	StatusError = "error"

	CodeBadRequest      = "bad_request"
	CodeValidationError = "validation_error"
)

func OK() Response {
	return Response{
		Status: StatusOK,
	}
}

func OKMessage(msg string) Response {
	return Response{
		Status:  StatusOK,
		Message: msg,
	}
}

func Error(msg string) Response {
	return Response{
		Status: StatusError,
		Error:  msg,
	}
}

func ErrorWithCode(msg, code string) Response {
	return Response{
		Status:    StatusError,
		Error:     msg,
		ErrorCode: code,
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsgs []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is a required field", err.Field()))
		case "email":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is not a valid email", err.Field()))
		case "min", "max", "gt", "gte", "lte":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s must satisfy %s=%s", err.Field(), err.ActualTag(), err.Param()))
		case "datetime":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s must be a date in format %s", err.Field(), err.Param()))
		case "notfuture":
			errMsgs = append(errMsgs, fmt.Sprintf("field %s cannot be in the future", err.Field()))
		default:
			errMsgs = append(errMsgs, fmt.Sprintf("field %s is not valid", err.Field()))
		}
	}

	return Response{
		Status:    StatusError,
		Error:     strings.Join(errMsgs, ", "),
		ErrorCode: CodeValidationError,
	}
}
