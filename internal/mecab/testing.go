package mecab

import (
	"context"
	"errors"
	"strings"
)

// MockExecutor records commands and returns configured responses keyed by
// the exact stdin text.
// This is exported for use in other packages' tests.
type MockExecutor struct {
	responses map[string]MockResponse
	calls     []ExecutorCall
}

// MockResponse is the canned result for one input.
type MockResponse struct {
	Output []byte
	Err    error
}

// ExecutorCall records a command invocation.
type ExecutorCall struct {
	Stdin string
	Name  string
	Args  []string
}

// NewMockExecutor creates a new mock executor.
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{
		responses: make(map[string]MockResponse),
		calls:     make([]ExecutorCall, 0),
	}
}

// AddResponse registers the tagger output for the given input text. Lines
// are joined with newlines and an EOS line is appended.
func (m *MockExecutor) AddResponse(input string, lines ...string) {
	out := strings.Join(append(lines, eosMarker), "\n") + "\n"
	m.responses[input] = MockResponse{Output: []byte(out)}
}

// AddError makes the given input fail with err.
func (m *MockExecutor) AddError(input string, err error) {
	m.responses[input] = MockResponse{Err: err}
}

// Run returns the configured response for stdin.
func (m *MockExecutor) Run(_ context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, ExecutorCall{Stdin: string(stdin), Name: name, Args: args})

	resp, ok := m.responses[string(stdin)]
	if !ok {
		return nil, errors.New("no mock response configured for: " + string(stdin))
	}
	return resp.Output, resp.Err
}

// GetCalls returns all recorded command calls.
func (m *MockExecutor) GetCalls() []ExecutorCall {
	return m.calls
}
