// Package outbox drains a directory of document files through the
// submission client. Submitted files move to done/, rejected ones to
// failed/ next to an .error note; files whose permit wait was abandoned stay
// put for the next run.
package outbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	gferrors "github.com/vnykmshr/docgate/pkg/common/errors"
	"github.com/vnykmshr/docgate/pkg/common/validation"
	"github.com/vnykmshr/docgate/pkg/document"
	"github.com/vnykmshr/docgate/pkg/submission"
)

// Subdirectories created under the outbox directory.
const (
	DoneDir   = "done"
	FailedDir = "failed"
)

// Outbox drains one directory.
type Outbox struct {
	Dir        string
	Client     *submission.Client
	Defaults   document.Defaults
	Credential string
	Workers    int
	Logger     *zap.Logger
}

// Report summarizes one Drain.
type Report struct {
	Submitted int
	Failed    int
	Deferred  int
}

// Pending lists the document files waiting in dir, sorted by name.
func Pending(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("outbox: read %s: %w", dir, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// ReadDocument decodes the document at path, choosing the format from its
// extension.
func ReadDocument(path string) (*document.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return document.Decode(f, document.FormatForPath(path))
}

// Drain submits every pending file once. A file that cannot be moved after
// its submission does not stop the others from being filed; all move errors
// are joined into the returned error.
func (o *Outbox) Drain(ctx context.Context) (Report, error) {
	var report Report
	if err := validation.ValidateNotNil("outbox", "client", o.Client); err != nil {
		return report, err
	}
	logger := o.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	files, err := Pending(o.Dir)
	if err != nil {
		return report, err
	}
	if len(files) == 0 {
		return report, nil
	}

	var moveErrs []error
	items := make([]submission.Submission, 0, len(files))
	for _, path := range files {
		doc, err := ReadDocument(path)
		if err != nil {
			report.Failed++
			logger.Warn("unreadable outbox file", zap.String("file", path), zap.Error(err))
			if err := o.moveFailed(path, err); err != nil {
				moveErrs = append(moveErrs, err)
			}
			continue
		}
		o.Defaults.Apply(doc)
		items = append(items, submission.Submission{Label: path, Doc: doc, Credential: o.Credential})
	}

	workers := o.Workers
	if workers <= 0 {
		workers = 1
	}
	outcomes, err := o.Client.SubmitAll(ctx, items, workers)
	if err != nil {
		return report, errors.Join(append(moveErrs, err)...)
	}

	for _, out := range outcomes {
		switch {
		case out.Err == nil:
			report.Submitted++
			logger.Info("submitted outbox file",
				zap.String("file", out.Label),
				zap.String("request_id", out.Result.RequestID),
				zap.Int("status", out.Result.StatusCode))
			if err := o.moveDone(out.Label, out.Result); err != nil {
				logger.Error("submitted outbox file not moved", zap.String("file", out.Label), zap.Error(err))
				moveErrs = append(moveErrs, err)
			}

		case gferrors.IsRetryable(out.Err):
			report.Deferred++
			logger.Debug("deferred outbox file", zap.String("file", out.Label), zap.Error(out.Err))

		default:
			report.Failed++
			logger.Warn("outbox file rejected", zap.String("file", out.Label), zap.Error(out.Err))
			if err := o.moveFailed(out.Label, out.Err); err != nil {
				moveErrs = append(moveErrs, err)
			}
		}
	}

	return report, errors.Join(moveErrs...)
}

func (o *Outbox) moveDone(path string, res *submission.Result) error {
	dest, err := o.move(path, DoneDir)
	if err != nil {
		return err
	}
	if len(res.Body) == 0 {
		return nil
	}
	return os.WriteFile(dest+".response", res.Body, 0o644)
}

func (o *Outbox) moveFailed(path string, cause error) error {
	dest, err := o.move(path, FailedDir)
	if err != nil {
		return err
	}
	return os.WriteFile(dest+".error", []byte(cause.Error()+"\n"), 0o644)
}

func (o *Outbox) move(path, sub string) (string, error) {
	dir := filepath.Join(o.Dir, sub)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", gferrors.NewOperationError("outbox", "move", err).WithContext(path)
	}
	dest := filepath.Join(dir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return "", gferrors.NewOperationError("outbox", "move", err).WithContext(path)
	}
	return dest, nil
}
