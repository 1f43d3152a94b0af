package submission

import (
	"context"

	"github.com/vnykmshr/docgate/pkg/scheduling/workerpool"
)

// Submission is one item of a batch.
type Submission struct {
	// Label identifies the item in outcomes, typically a file name.
	Label      string
	Doc        any
	Credential string
}

// Outcome is the result of one batch item. Exactly one of Result and Err is
// set.
type Outcome struct {
	Index  int
	Label  string
	Result *Result
	Err    error
}

// SubmitAll submits every item through Submit using up to workers concurrent
// callers and returns one Outcome per item, in input order. The rate limit
// applies to the batch exactly as to individual calls. Items not yet started
// when ctx is done fail with the context's error.
func (c *Client) SubmitAll(ctx context.Context, items []Submission, workers int) ([]Outcome, error) {
	outcomes := make([]Outcome, len(items))
	if len(items) == 0 {
		return outcomes, nil
	}
	if workers > len(items) {
		workers = len(items)
	}

	pool, err := workerpool.NewWithConfigSafe(workerpool.Config{
		Name:        c.config.Name,
		WorkerCount: workers,
		QueueSize:   len(items),
		Metrics:     c.metrics,
	})
	if err != nil {
		return nil, err
	}

	for i, item := range items {
		outcomes[i] = Outcome{Index: i, Label: item.Label}

		err := pool.SubmitWithContext(ctx, workerpool.TaskFunc(func(ctx context.Context) error {
			res, err := c.Submit(ctx, item.Doc, item.Credential)
			outcomes[i].Result = res
			outcomes[i].Err = err
			return err
		}))
		if err != nil {
			outcomes[i].Err = err
		}
	}

	<-pool.Shutdown()
	return outcomes, nil
}
