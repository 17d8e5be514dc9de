package response

import "fmt"

// AppError 带业务码的错误包装，Unwrap 保留原始错误链
type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// WrapError 包装错误
func WrapError(code int, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}
