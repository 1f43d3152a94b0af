/*
Package submission sends signed documents to the registration API without
exceeding its request rate.

A Client owns one fixed-window limiter. Every Submit call first serializes the
document and encodes the credential, then waits for a permit, then performs
exactly one request:

	client, err := submission.New(submission.DefaultConfig(),
		submission.WithLogger(logger),
		submission.WithMetrics(metrics.DefaultRegistry))
	if err != nil {
		return err
	}
	defer client.Close()

	res, err := client.Submit(ctx, doc, signature)
	switch {
	case errors.Is(err, gferrors.ErrLimitExceeded):
		// gave up waiting for a permit; nothing was sent
	case errors.Is(err, gferrors.ErrTransportFailure):
		// sent, but the call failed or was rejected; the permit is spent
	}

The transport, document serializer and credential encoder are interfaces with
default implementations: HTTPTransport (one pooled *http.Client),
document.JSONSerializer and BasicCredentialEncoder. Requests carry an
Authorization header built from the credential and a fresh X-Request-Id.

SubmitAll fans a batch out over a worker pool; every item still goes through
Submit and the same limiter.
*/
package submission
