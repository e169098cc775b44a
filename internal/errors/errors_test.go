package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaErrorNamesSide(t *testing.T) {
	err := SchemaError("After", `missing column "Proportion"`)

	assert.Equal(t, CodeSchemaError, err.Code)
	assert.Equal(t, `missing column "Proportion" in After data`, err.Error())
}

func TestWrapPreservesCode(t *testing.T) {
	base := StateError("no analysis results to save")
	wrapped := Wrap(base, "export failed")

	assert.Equal(t, CodeStateError, GetCode(wrapped))
	assert.True(t, IsCode(wrapped, CodeStateError))
	assert.Equal(t, "export failed: no analysis results to save", wrapped.Error())
	assert.True(t, stderrors.Is(wrapped, base))
}

func TestWrapPlainErrorIsInternal(t *testing.T) {
	wrapped := Wrapf(fmt.Errorf("boom"), "step %d", 3)

	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.Equal(t, "step 3: boom", wrapped.Error())
}

func TestWrapNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, "ignored"))
	assert.NoError(t, Wrapf(nil, "ignored %s", "x"))
	assert.NoError(t, WithCode(CodeIOError, nil))
}

func TestGetCodeThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("outer: %w", IOError("/nope/out.xlsx", fs.ErrPermission))

	assert.True(t, IsAppError(err))
	assert.Equal(t, CodeIOError, GetCode(err))
	assert.True(t, stderrors.Is(err, fs.ErrPermission))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeInvalidInput, fmt.Errorf("bad threshold"))

	var appErr *AppError
	require.True(t, stderrors.As(err, &appErr))
	assert.Equal(t, CodeInvalidInput, appErr.Code)
	assert.Equal(t, "bad threshold", appErr.Message)
}

func TestGetCodeUnknown(t *testing.T) {
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
	assert.False(t, IsAppError(fmt.Errorf("plain")))
}
