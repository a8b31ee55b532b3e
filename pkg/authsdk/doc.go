/*
Package authsdk is a small typed client for the identity service.

	client := authsdk.NewSDKClient("http://localhost:8080")

	_, err := client.Register(ctx, authsdk.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct horse battery",
	})

	session, err := client.AuthenticateWithPassword(ctx, authsdk.LoginRequest{
		Username: "alice",
		Password: "correct horse battery",
	})

	me, err := session.Me(ctx)

Access tokens expire after 45 seconds. A Session refreshes them through the
rotated refresh token before each call and retries once when the server
answers token_expired. Each successful refresh revokes the previous refresh
token, so a Session must not be copied between processes.

# Errors

Non-2xx responses are returned as *httpx.APIError and can be matched with
errors.Is against httpx.ErrTokenExpired, httpx.ErrInvalidCredentials and the
other predefined values. IsTokenExpired and NeedsLogin cover the two branches
most clients need.
*/
package authsdk
