/*
Package feedsdk provides a client SDK for the Postboard feed API.

# SDKClient vs Session

The package is organized around two main types:

  - SDKClient: unauthenticated calls (refresh grant, forgot password) and
    session construction
  - Session: the credential store and every authenticated call, with
    automatic token refresh

A Session starts Uninitialized and must be bootstrapped from its TokenStore:

	client := feedsdk.NewSDKClient("https://feed.example.com/api")
	session := client.NewSession(store)

	if err := session.Bootstrap(ctx); err != nil {
		// The session is cleared and Anonymous; carry on.
	}

	if !session.IsAuthenticated() {
		user, err := session.Login(ctx, feedsdk.LoginRequest{Email: email, Password: pw})
	}

	posts, err := session.ListPosts(ctx)

# Token Refresh

Every Session call attaches the current access token. When the server
answers 401 the session refreshes once and replays the request once with the
new token; the caller never sees the first 401. Concurrent 401s share a
single refresh. If the refresh fails the session is cleared and the call
returns a *SessionExpiredError (errors.Is(err, ErrSessionExpired)).

When the access token is a JWT about to expire, the refresh happens before
the request is sent. That counts as the request's one retry.

Login, Register and Logout never go through the refresh path. Logout always
clears local state, even when the server cannot be reached.

# Error Handling

	user, err := session.Login(ctx, req)
	var valErr *feedsdk.ValidationError
	var apiErr *feedsdk.APIError
	switch {
	case errors.As(err, &valErr):
		// nothing was sent
	case errors.As(err, &apiErr):
		fmt.Println(apiErr.StatusCode, apiErr.Message)
	case errors.Is(err, feedsdk.ErrTransport):
		// network failure
	}

Message(err, fallback) picks the text to show a user.

# Thread Safety

SDKClient and Session are safe for concurrent use.
*/
package feedsdk
