package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/postboard/pkg/feedsdk"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(messageView{Message: "Logged out."})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"message": "Logged out."}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(ErrCodeAPI, "Invalid credentials", map[string]int{"status": 401})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeAPI, resp.Error.Code)
	assert.Equal(t, "Invalid credentials", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextUsesStringer(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success(userView{ID: "7", Name: "Ada", Email: "ada@example.com"}))
	assert.Equal(t, "Ada <ada@example.com> (id 7)\n", buf.String())
}

func TestOutputFormatter_TextErrorGoesToErrWriter(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: out, ErrWriter: errOut}

	require.NoError(t, formatter.Error(ErrCodeTransport, "network down", "dial tcp: refused"))
	assert.Empty(t, out.String())
	assert.Equal(t, "Error [E005]: network down\n", errOut.String())

	errOut.Reset()
	formatter.Verbose = true
	require.NoError(t, formatter.Error(ErrCodeTransport, "network down", "dial tcp: refused"))
	assert.Contains(t, errOut.String(), "Details: dial tcp: refused")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut}

	formatter.VerboseLog("hidden %d", 1)
	assert.Empty(t, errOut.String())

	formatter.Verbose = true
	formatter.VerboseLog("shown %d", 2)
	assert.Equal(t, "shown 2\n", errOut.String())
	assert.Empty(t, out.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitNotAuthenticated, GetExitCode(NewExitError(ExitNotAuthenticated, "no")))

	wrapped := WrapExitError(ExitCommandError, "setup", errors.New("disk full"))
	assert.Equal(t, ExitCommandError, GetExitCode(wrapped))
	assert.Equal(t, "setup: disk full", wrapped.Error())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		exit int
	}{
		{"validation", feedsdk.LoginRequest{}.Validate(), ErrCodeValidation, ExitFailure},
		{"expired", &feedsdk.SessionExpiredError{Err: feedsdk.ErrNoRefreshToken}, ErrCodeSessionExpired, ExitNotAuthenticated},
		{"not authenticated", feedsdk.ErrNotAuthenticated, ErrCodeNotAuthenticated, ExitNotAuthenticated},
		{"api", &feedsdk.APIError{StatusCode: 500}, ErrCodeAPI, ExitFailure},
		{"decode", &feedsdk.DecodeError{Err: errors.New("bad")}, ErrCodeDecode, ExitFailure},
		{"transport", feedsdk.ErrTransport, ErrCodeTransport, ExitFailure},
		{"other", errors.New("boom"), ErrCodeGeneric, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, exit := classify(tt.err)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.exit, exit)
		})
	}
}

func TestPostListViewText(t *testing.T) {
	assert.Equal(t, "No posts found.", postListView{}.String())

	me := &feedsdk.User{ID: "1"}
	view := postListView{
		newPostView(feedsdk.Post{ID: "10", Title: "Hello", UserID: "1", User: &feedsdk.User{Name: "Ada"}}, me),
		newPostView(feedsdk.Post{ID: "11", Title: "World", UserID: "2", Comments: []feedsdk.Comment{{ID: "1"}}}, me),
	}
	assert.Equal(t, "[10] Hello by Ada (yours) (0 comment(s))\n[11] World (1 comment(s))", view.String())
}
