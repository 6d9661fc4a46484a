package response

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

//Error Codes
type ErrCode string

var (
	FAILED_REQUEST        ErrCode = "REQUEST_FAILED"
	BAD_REQUEST           ErrCode = "FAILED_TO_DECODE"
	VALIDATION_FAILED     ErrCode = "VALIDATION_FAILED"
	NOT_FOUND             ErrCode = "NOT_FOUND"
	LOCKED                ErrCode = "LOCKED"
	CODE_EXISTS           ErrCode = "CODE_EXISTS"
	IN_USE                ErrCode = "IN_USE"
	NOT_DRAFT             ErrCode = "NOT_DRAFT"
	ALREADY_PUBLISHED     ErrCode = "ALREADY_PUBLISHED"
	NOT_PENDING           ErrCode = "NOT_PENDING"
	NOT_CANCELLABLE       ErrCode = "NOT_CANCELLABLE"
	TEACHER_CONFLICT      ErrCode = "TEACHER_CONFLICT"
	SUBSTITUTION_CONFLICT ErrCode = "SUBSTITUTION_CONFLICT"
	SUBSTITUTE_CONFLICT   ErrCode = "SUBSTITUTE_CONFLICT"
)

var (
	ErrBadRequest           = errors.New("bad request")
	ErrNotFound             = errors.New("resource not found")
	ErrLocked               = errors.New("resource is locked")
	ErrCodeExists           = errors.New("code already exists")
	ErrInUse                = errors.New("resource is referenced and cannot be deleted")
	ErrNotDraft             = errors.New("timetable is not in draft state")
	ErrAlreadyPublished     = errors.New("timetable is already published")
	ErrNotPending           = errors.New("substitution is not pending")
	ErrNotCancellable       = errors.New("substitution cannot be cancelled")
	ErrTeacherConflict      = errors.New("teacher is already committed at this period")
	ErrSubstitutionConflict = errors.New("teacher already has a substitution covering this period")
	ErrSubstituteConflict   = errors.New("substitute teacher is not available at this period")
)

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}

func ValidationError(errs validator.ValidationErrors) Response {
	var errMsg []string

	for _, err := range errs {
		switch err.ActualTag() {
		case "required":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' is required", err.Field()))
		case "min":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' is below the minimum of %s", err.Field(), err.Param()))
		case "max":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' is above the maximum of %s", err.Field(), err.Param()))
		case "oneof":
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' must be one of [%s]", err.Field(), err.Param()))
		default:
			errMsg = append(errMsg, fmt.Sprintf("Field '%s' is invalid", err.Field()))
		}
	}

	return Response{
		ResponseError: ResponseError{
			Code:    string(VALIDATION_FAILED),
			Message: strings.Join(errMsg, ", "),
		},
	}
}
