// Package authsync keeps the credential store in step with the backend.
//
// A Synchronizer is a small state machine (unknown, authenticated,
// unauthenticated, failed, reset) driven by three triggers:
//
//   - Load, on page load: a stored token marks the state authenticated
//     immediately and is validated against /api/users/me in the background.
//     A 401/403 clears the store.
//   - HandleCallback, when the OAuth redirect arrives: the token and user
//     fields come from the query string. The session is stored, confirmed
//     with the backend, and the browser is sent to the destination saved by
//     BeginOAuth with auth=success appended.
//   - Login and Register: the session from the response is stored, and after
//     a short settle delay navigation proceeds.
//
// Failures never leave the caller without a destination. They are logged,
// recorded under "authError" in session storage (see TakeError), and resolve
// to /user-login?error=<message>.
//
// Reset is the terminal transition of the error boundary. It wipes every
// credential location and the session storage. Guard wraps a function so
// that a panic inside it ends in Reset:
//
//	redirect, err := sync.Guard(ctx, func(ctx context.Context) error {
//		return render(ctx)
//	})
package authsync
