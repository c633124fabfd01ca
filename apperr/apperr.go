package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Mã lỗi trả về trong envelope để client phân biệt.
const (
	CodeValidation       = "VALIDATION"
	CodeNotFound         = "NOT_FOUND"
	CodeStorage          = "STORAGE"
	CodeFileNameEncoding = "FILENAME_ENCODING"
	CodePersistence      = "PERSISTENCE"
)

type Error struct {
	Status int
	Code   string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	if e.Msg != "" {
		return e.Msg
	}
	return e.Code
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: CodeValidation, Msg: msg}
}

func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Msg: msg}
}

func Storage(msg string, err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeStorage, Msg: msg, Err: err}
}

// StorageEncoding: tên file chứa ký tự không biểu diễn được trong header
// của transport — tách riêng để trả thông báo rõ ràng cho người dùng.
func StorageEncoding(msg string) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeFileNameEncoding, Msg: msg}
}

func Persistence(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodePersistence, Msg: "Lỗi cơ sở dữ liệu", Err: err}
}

// From trích *Error từ một error bất kỳ; lỗi lạ coi như persistence.
func From(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Persistence(err)
}

func StatusOf(err error) int {
	return From(err).Status
}

func IsCode(err error, code string) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Code == code
}
