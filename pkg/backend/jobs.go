package backend

import (
	"context"
	"iter"
	"net/http"
	"net/url"

	"github.com/draftloom/draftloom/pkg/wire"
)

// JobService provides job workflow operations.
type JobService struct {
	client *Client
}

// Create registers a new job with the backend and returns its identity.
func (s *JobService) Create(ctx context.Context, req *GenerationRequest) (string, error) {
	var resp struct {
		JobID string `json:"job_id"`
	}
	if err := s.client.http.request(ctx, http.MethodPost, "/v1/jobs", req, &resp); err != nil {
		return "", err
	}
	return resp.JobID, nil
}

// Events opens the persistent job event connection and yields decoded
// events lazily. The connection is closed when iteration completes or
// breaks; there is no reconnection or replay.
func (s *JobService) Events(ctx context.Context, jobID string) iter.Seq2[wire.JobEvent, error] {
	path := "/v1/jobs/" + url.PathEscape(jobID) + "/events"
	return func(yield func(wire.JobEvent, error) bool) {
		resp, err := s.client.http.requestStream(ctx, http.MethodGet, path, nil)
		if err != nil {
			yield(nil, err)
			return
		}
		defer resp.Body.Close()

		for ev, err := range wire.JobEvents(resp.Body, s.client.config.log) {
			if !yield(ev, err) {
				return
			}
			if err != nil {
				return
			}
		}
	}
}

// Resume submits a human review decision for a paused job. The backend is
// expected to resume emitting progress events afterwards.
func (s *JobService) Resume(ctx context.Context, jobID string, decision *Decision) error {
	path := "/v1/jobs/" + url.PathEscape(jobID) + "/resume"
	return s.client.http.request(ctx, http.MethodPost, path, decision, nil)
}
