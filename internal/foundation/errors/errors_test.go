package errors

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("builder sets fields", func(t *testing.T) {
		cause := stderrors.New("unexpected EOF")
		err := RenderError("render failed").
			WithContext("document", "pages/index.tmpl").
			WithCause(cause).
			Build()

		assert.Equal(t, CategoryRender, err.Category())
		assert.Equal(t, SeverityError, err.Severity())
		assert.Equal(t, "render failed", err.Message())
		doc, ok := err.Context().GetString("document")
		assert.True(t, ok)
		assert.Equal(t, "pages/index.tmpl", doc)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, "[render] render failed: unexpected EOF", err.Error())
	})

	t.Run("sentinel matching through wrapping", func(t *testing.T) {
		sentinel := TemplateError("include cycle").Build()
		wrapped := fmt.Errorf("page.tmpl: %w", TemplateError("include cycle").WithContext("path", "a").Build())

		assert.ErrorIs(t, wrapped, sentinel)
		assert.True(t, HasCategory(wrapped, CategoryTemplate))
		assert.Equal(t, CategoryTemplate, GetCategory(wrapped))
	})

	t.Run("plain errors are internal", func(t *testing.T) {
		assert.Equal(t, CategoryInternal, GetCategory(stderrors.New("boom")))
		_, ok := AsClassified(stderrors.New("boom"))
		assert.False(t, ok)
	})

	t.Run("severity helpers", func(t *testing.T) {
		assert.True(t, ConfigError("bad").Build().IsFatal())
		assert.False(t, RenderError("bad").Build().IsFatal())
		assert.Equal(t, SeverityWarning, NotifyError("x").Build().Severity())
	})
}

func TestErrorContextMerge(t *testing.T) {
	a := ErrorContext{"a": 1, "b": 2}
	b := ErrorContext{"b": 3}
	merged := a.Merge(b)

	assert.Equal(t, 1, merged["a"])
	assert.Equal(t, 3, merged["b"])
	assert.Equal(t, 2, a["b"], "merge must not mutate the receiver")

	var empty ErrorContext
	assert.Equal(t, ErrorContext{"k": "v"}, empty.Set("k", "v"))
}

func TestCLIErrorAdapter(t *testing.T) {
	var out bytes.Buffer
	var logs bytes.Buffer
	code := -1
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	adapter.exit = func(c int) { code = c }

	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{stderrors.New("plain"), 1},
		{ValidationError("bad flag").Build(), 2},
		{ConfigError("bad file").Build(), 7},
		{RenderError("bad template").Build(), 11},
		{TaskError("sass failed").Build(), 13},
		{ServerError("port in use").Build(), 12},
		{fmt.Errorf("wrapped: %w", InternalError("bug").Build()), 10},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, adapter.ExitCodeFor(tc.err), "%v", tc.err)
	}

	adapter.HandleError(ConfigError("config file not found").WithCause(stderrors.New("stat devflow.yaml")).Build())
	require.Equal(t, 7, code)
	assert.Contains(t, out.String(), "Error: config file not found: stat devflow.yaml")
	assert.Contains(t, logs.String(), "category=config")
}

func TestCLIErrorAdapterVerboseIncludesContext(t *testing.T) {
	adapter := NewCLIErrorAdapter(true, nil)
	msg := adapter.FormatError(RenderError("render failed").WithContext("document", "a.tmpl").Build())
	assert.Contains(t, msg, "[render] render failed")
	assert.Contains(t, msg, "document: a.tmpl")
}
