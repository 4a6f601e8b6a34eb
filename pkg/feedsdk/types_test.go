package feedsdk

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestIDUnmarshal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want ID
	}{
		{`42`, "42"},
		{`"01J8Z"`, "01J8Z"},
		{`null`, ""},
	}
	for _, tt := range tests {
		var id ID
		require.NoError(t, json.Unmarshal([]byte(tt.in), &id), tt.in)
		require.Equal(t, tt.want, id)
	}

	var id ID
	require.Error(t, json.Unmarshal([]byte(`{}`), &id))
}

func TestTimestampUnmarshal(t *testing.T) {
	t.Parallel()

	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2024-03-01T10:20:30.000000Z"`), &ts))
	require.Equal(t, time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC), ts.Time)

	require.NoError(t, json.Unmarshal([]byte(`"2024-03-01 10:20:30"`), &ts))
	require.Equal(t, 10, ts.Hour())

	require.NoError(t, json.Unmarshal([]byte(`null`), &ts))
	require.True(t, ts.IsZero())

	require.Error(t, json.Unmarshal([]byte(`"yesterday"`), &ts))

	b, err := json.Marshal(Timestamp{})
	require.NoError(t, err)
	require.Equal(t, "null", string(b))
}

func fakeResponse(code int, body string) *http.Response {
	return &http.Response{
		StatusCode: code,
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestReadData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"envelope", `{"data":{"id":1}}`, `{"id":1}`},
		{"bare object", `{"id":1}`, `{"id":1}`},
		{"bare array", `[1,2]`, `[1,2]`},
		{"null data falls back to body", `{"data":null,"id":1}`, `{"data":null,"id":1}`},
		{"empty", ``, ``},
		{"whitespace", "  \n", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := readData(fakeResponse(http.StatusOK, tt.body), "GET /x")
			require.NoError(t, err)
			require.Equal(t, tt.want, string(raw))
		})
	}

	t.Run("invalid json", func(t *testing.T) {
		_, err := readData(fakeResponse(http.StatusOK, `{nope`), "GET /x")
		var decErr *DecodeError
		require.ErrorAs(t, err, &decErr)
	})
}

func TestParseErrorResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"message", `{"message":"Nope"}`, "Nope"},
		{"error field", `{"error":"Bad"}`, "Bad"},
		{"not json", `<html>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseErrorResponse(fakeResponse(http.StatusBadRequest, ""), []byte(tt.body))
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
			require.Equal(t, tt.message, apiErr.Message)
		})
	}

	require.Equal(t, "feedsdk: HTTP 400: Bad Request",
		(&APIError{StatusCode: http.StatusBadRequest}).Error())
}

func TestMessage(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", Message(nil, "x"))
	require.Equal(t, "Login failed", Message(errors.New("boom"), "Login failed"))
	require.Equal(t, "Login failed", Message(&APIError{StatusCode: 500}, "Login failed"))
	require.Equal(t, "Nope", Message(&APIError{StatusCode: 400, Message: "Nope"}, "Login failed"))
	require.Contains(t, Message(&SessionExpiredError{Err: errors.New("x")}, "f"), "session has expired")
	require.Equal(t, "validation failed: content: Comment cannot be empty",
		Message(CommentInput{}.Validate(), "f"))
}

func TestValidation(t *testing.T) {
	t.Parallel()

	require.NoError(t, LoginRequest{Email: "a@b.co", Password: "x"}.Validate())
	require.NoError(t, PostInput{Title: "t", Content: "c"}.Validate())

	err := RegisterRequest{Name: "A", Email: "a@b.co", Password: "short", PasswordConfirmation: "short"}.Validate()
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)
	require.Equal(t, map[string]string{"password": "Password must be at least 8 characters"}, valErr.Fields)

	require.Error(t, ForgotPasswordRequest{Email: "a@b"}.Validate())
}

func TestMemoryTokenStore(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	m := NewMemoryTokenStore()

	_, err := m.Load(ctx)
	require.ErrorIs(t, err, ErrNoTokens)

	require.NoError(t, m.Save(ctx, Tokens{AccessToken: "a", RefreshToken: "r"}))
	got, err := m.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "a", got.AccessToken)
	require.Equal(t, 1, m.Saves())

	require.NoError(t, m.Clear(ctx))
	require.NoError(t, m.Clear(ctx))
	_, err = m.Load(ctx)
	require.ErrorIs(t, err, ErrNoTokens)
}
