package domain

import (
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrIncorrectUploaderPassword = NewErr("INCORRECT_UPLOADER_PASSWORD", "incorrect uploader password", http.StatusUnauthorized)
	ErrFileUploadsDisabled       = NewErr("FILE_UPLOADS_DISABLED", "file uploads are disabled", http.StatusForbidden)
	ErrUnsafeFileName            = NewErr("UNSAFE_FILE_NAME", "unsafe file name", http.StatusBadRequest)
	ErrInvalidBase64             = NewErr("INVALID_BASE64", "invalid base64 file content", http.StatusBadRequest)
	ErrFileTooLarge              = NewErr("FILE_TOO_LARGE", "file exceeded size limit", http.StatusBadRequest)
	ErrInvalidRequest            = NewErr("INVALID_REQUEST", "invalid request", http.StatusBadRequest)
	ErrEmptyPasta                = NewErr("EMPTY_PASTA", "neither content nor file supplied", http.StatusBadRequest)
	ErrRateLimitExceeded         = NewErr("RATE_LIMIT_EXCEEDED", "rate limit exceeded", http.StatusTooManyRequests)
	ErrIDGenerationFailed        = NewErr("ID_GENERATION_FAILED", "id generation failed", http.StatusInternalServerError)
	ErrIDCollision               = NewErr("ID_COLLISION", "id already present in store", http.StatusInternalServerError)
	ErrInternalServer            = NewErr("INTERNAL_ERROR", "internal error", http.StatusInternalServerError)
)

type Err struct {
	Code   string `json:"code"`
	Msg    string `json:"message"`
	Status int    `json:"-"`
}

func (e *Err) Error() string { return e.Msg }

func NewErr(code, msg string, status int) *Err {
	return &Err{Code: code, Msg: msg, Status: status}
}

// IOError and CryptoError keep the underlying error text in the message.
// That detail reaches the client on 500s; known hardening gap, kept.
func IOError(op string, err error) *Err {
	return &Err{Code: "IO_ERROR", Msg: op + ": " + err.Error(), Status: http.StatusInternalServerError}
}

func CryptoError(op string, err error) *Err {
	return &Err{Code: "CRYPTO_ERROR", Msg: op + ": " + err.Error(), Status: http.StatusInternalServerError}
}

type ErrResp struct {
	Error ErrDetail `json:"error"`
}

type ErrDetail struct {
	Code string `json:"code"`
	Msg  string `json:"message"`
}

func ToResp(err error) ErrResp {
	if e, ok := err.(*Err); ok {
		return ErrResp{Error: ErrDetail{Code: e.Code, Msg: e.Msg}}
	}
	if e, ok := errors.Cause(err).(*Err); ok {
		return ErrResp{Error: ErrDetail{Code: e.Code, Msg: e.Msg}}
	}
	return ErrResp{Error: ErrDetail{Code: "INTERNAL_ERROR", Msg: "internal error"}}
}

func Status(err error) int {
	if e, ok := err.(*Err); ok {
		return e.Status
	}
	if e, ok := errors.Cause(err).(*Err); ok {
		return e.Status
	}
	return http.StatusInternalServerError
}

// Code returns the taxonomy code, used for metrics labels.
func Code(err error) string {
	if e, ok := err.(*Err); ok {
		return e.Code
	}
	if e, ok := errors.Cause(err).(*Err); ok {
		return e.Code
	}
	return "INTERNAL_ERROR"
}
