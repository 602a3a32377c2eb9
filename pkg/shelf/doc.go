/*
Package shelf is the Go client for the Shelf content platform. It covers
credential lifecycles and resilient transport; product API surfaces are
thin resource façades built on top.

# Client and Sessions

Construct one Client per set of application credentials:

	client, err := shelf.New(shelf.Config{
		ClientID:     "my-client",
		ClientSecret: "s3cret",
	})

Everything authenticated happens through a Session, which is just a source
of valid bearer tokens. Four variants exist:

  - AnonymousSession: one shared client-credentials token per Client.
  - BasicSession: a fixed developer token; never refreshed.
  - PersistentSession: a refresh-token pair, optionally shared across
    processes through a Token Store.
  - AppAuthSession: server auth as an enterprise or a managed user,
    via signed JWT assertions.

	session := client.AppUserSession("12345", nil)
	docs := client.Resource("/documents", session)

	var doc Document
	err := docs.Get(ctx, "d-42", &doc)

Sessions refresh expired tokens transparently. Concurrent callers on one
identity share a single in-flight refresh; nobody triggers a duplicate
exchange.

# Transport

All calls run through the request executor, which retries transient
failures (5xx, 429, connection errors) with capped exponential backoff,
honors server Retry-After hints, and never replays a non-idempotent
request once the server has answered. Terminal failures surface as typed
errors; subscribe to the Client's event bus for retry and token
lifecycle events.
*/
package shelf
