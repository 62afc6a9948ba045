package report

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/aretw0/ntb/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockEntry struct {
	mock.Mock
}

func (m *MockEntry) Run(ctx context.Context, args []string) error {
	return m.Called(ctx, args).Error(0)
}

// MockTracedEntry is an entry point with a trace facility.
type MockTracedEntry struct {
	MockEntry
	traced *MockEntry
}

func (m *MockTracedEntry) WithTrace() domain.EntryPoint {
	return m.traced
}

func TestReporter_CallWithTrace_Success(t *testing.T) {
	var out bytes.Buffer
	collected := 0
	r := New("ntb", &out, WithCollector(func() { collected++ }))

	entry := &MockEntry{}
	entry.On("Run", mock.Anything, []string(nil)).Return(nil)

	status, err := r.CallWithTrace(context.Background(), entry, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccess, status)
	assert.Zero(t, collected)

	r.Report(status, err)
	assert.Empty(t, out.String(), "no output on success")
	entry.AssertExpectations(t)
}

func TestReporter_CallWithTrace_UsesTracedVariant(t *testing.T) {
	traced := &MockEntry{}
	failure := &domain.ScriptError{Kind: domain.ErrScriptRuntime, Message: "boom", Trace: "stack traceback:"}
	traced.On("Run", mock.Anything, []string(nil)).Return(failure)

	entry := &MockTracedEntry{traced: traced}
	collected := 0
	r := New("ntb", &bytes.Buffer{}, WithCollector(func() { collected++ }))

	status, err := r.CallWithTrace(context.Background(), entry, nil)
	assert.Equal(t, domain.StatusScriptError, status)
	assert.ErrorIs(t, err, domain.ErrScriptRuntime)
	assert.Equal(t, 1, collected, "a failed run forces a collection")
	traced.AssertExpectations(t)
	entry.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestReporter_CallWithTrace_Interrupted(t *testing.T) {
	entry := &MockEntry{}
	entry.On("Run", mock.Anything, mock.Anything).Return(&domain.ScriptError{Kind: domain.ErrInterrupted, Message: "interrupted!"})

	collected := 0
	r := New("ntb", &bytes.Buffer{}, WithCollector(func() { collected++ }))
	status, _ := r.CallWithTrace(context.Background(), entry, nil)

	assert.Equal(t, domain.StatusInterrupted, status)
	assert.Equal(t, 1, collected)
}

func TestReporter_Report(t *testing.T) {
	tests := []struct {
		name     string
		program  string
		err      error
		expected string
	}{
		{
			name:     "Script Error",
			program:  "ntb",
			err:      &domain.ScriptError{Kind: domain.ErrScriptRuntime, Message: "main.lua:1: boom"},
			expected: "ntb: main.lua:1: boom\n",
		},
		{
			name:     "Opaque Value",
			program:  "ntb",
			err:      &domain.ScriptError{Kind: domain.ErrScriptRuntime, Opaque: true},
			expected: "ntb: (error object is not a string)\n",
		},
		{
			name:     "Empty Message",
			program:  "ntb",
			err:      errors.New(""),
			expected: "ntb: (error object is not a string)\n",
		},
		{
			name:     "No Program",
			program:  "",
			err:      errors.New("cannot create state"),
			expected: "cannot create state\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			r := New(tt.program, &out)
			status := r.Report(domain.StatusScriptError, tt.err)
			assert.Equal(t, domain.StatusScriptError, status)
			assert.Equal(t, tt.expected, out.String())
		})
	}
}
