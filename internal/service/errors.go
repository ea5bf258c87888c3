package service

import (
	"context"
	"errors"
	"fmt"

	repo "taskHierarchy/internal/repository"
)

const (
	CodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	CodeMapping            = "MAPPING_ERROR"
	CodeQuery              = "QUERY_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeHierarchyViolation = "HIERARCHY_VIOLATION"
	CodeCancelled          = "CANCELLED"
	CodeInternal           = "INTERNAL"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewHierarchyViolation(ids []int64) *BusinessError {
	return NewBusinessError(CodeHierarchyViolation,
		fmt.Sprintf("%d task(s) are both compound task and subtask", len(ids)),
		ToDetail("ids", ids))
}

// fromRepository wraps a repository error into a BusinessError, keeping the chain so
// errors.Is still matches the repository sentinels.
func fromRepository(operation string, err error) *BusinessError {
	var busErr *BusinessError
	if errors.As(err, &busErr) {
		return busErr
	}

	var code, message string
	switch {
	case errors.Is(err, repo.ErrNotFound):
		code, message = CodeNotFound, "task not found"
	case errors.Is(err, repo.ErrStorageUnavailable):
		code, message = CodeStorageUnavailable, "task storage is unavailable"
	case errors.Is(err, repo.ErrMapping):
		code, message = CodeMapping, "stored row does not match the task model"
	case errors.Is(err, repo.ErrQuerySyntax):
		code, message = CodeQuery, "task storage rejected the query"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code, message = CodeCancelled, "query cancelled"
	default:
		code, message = CodeInternal, "query failed"
	}

	busErr = NewBusinessError(code, message, ToDetail("operation", operation))
	busErr.Err = err
	return busErr
}
