package errors

import (
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := InvalidInput("bad extension")
	wrapped := Wrap(base, "upload rejected")

	assert.Equal(t, CodeInvalidInput, GetCode(wrapped))
	assert.Equal(t, "upload rejected: bad extension", wrapped.Error())
	assert.True(t, Is(wrapped, base))
}

func TestWrapPlainError(t *testing.T) {
	wrapped := Wrapf(io.ErrUnexpectedEOF, "reading %s", "a.xlsx")

	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.True(t, Is(wrapped, io.ErrUnexpectedEOF))
	assert.Nil(t, Wrap(nil, "nothing"))
}

func TestParseErrorCodeThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("load: %w", ParseError("xlsx", io.EOF))

	assert.Equal(t, CodeParseError, GetCode(err))
	var appErr *AppError
	assert.True(t, As(err, &appErr))
	assert.Equal(t, "failed to parse xlsx file", appErr.Message)
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeConflict, io.EOF)
	assert.Equal(t, CodeConflict, GetCode(err))
	assert.Equal(t, "UNKNOWN", GetCode(io.EOF))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(InvalidInput("bad")))
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(Wrap(ParseError("xls", nil), "load")))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(NotFound("chart")))
	assert.Equal(t, http.StatusConflict, HTTPStatus(New(CodeConflict, "stale")))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("plain")))
}
