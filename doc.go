/*
Package docgate submits signed registration documents to a remote API
without exceeding the API's request quota.

Rate Limiting (pkg/ratelimit):
  - window: Fixed-window limiter, at most N permits per window
  - concurrency: Bound the number of operations in flight

Task Scheduling (pkg/scheduling):
  - workerpool: Bounded pool for batch submission
  - scheduler: Cron and interval-based outbox draining

Submission (pkg/submission, pkg/document):
  - document: Registration payload, defaults and wire encoding
  - submission: Rate-limited client that POSTs documents with a Basic credential

Example usage:

	import (
		"github.com/vnykmshr/docgate/pkg/document"
		"github.com/vnykmshr/docgate/pkg/submission"
	)

	cfg := submission.DefaultConfig()
	cfg.Capacity = 10        // 10 requests
	cfg.Window = time.Second // per second

	client, _ := submission.New(cfg)
	result, err := client.Submit(ctx, doc, signature)

The docgate command (cmd/docgate) wraps the client with a one-shot submit
command, an HTTP intake server and an outbox watcher.
*/
package docgate
