package pool

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"filterbench/internal/domain"
)

// Request is one task invocation sent to a worker process, one JSON document per line.
type Request struct {
	Task    string             `json:"task"`
	Item    domain.WorkItem    `json:"item"`
	Options domain.TaskOptions `json:"options"`
}

// Serve is the worker process loop: it reads requests from r until EOF and
// writes one TaskOutcome per request to w. Task failures are reported in the
// outcome; only a broken stream ends Serve with an error.
func Serve(r io.Reader, w io.Writer, registry Registry) error {
	dec := json.NewDecoder(r)
	enc := json.NewEncoder(w)
	worker := domain.WorkerIdentity{PID: os.Getpid()}

	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read request: %w", err)
		}

		var outcome domain.TaskOutcome
		if fn, err := registry.Lookup(req.Task); err != nil {
			outcome = domain.Failed(req.Item.ImageID, &domain.TaskError{ImageID: req.Item.ImageID, Err: err}, worker)
		} else {
			outcome = execute(fn, req, worker)
		}
		if err := enc.Encode(outcome); err != nil {
			return fmt.Errorf("write outcome: %w", err)
		}
	}
}
