package backend

import (
	"context"
	"iter"
	"net/http"

	"github.com/draftloom/draftloom/pkg/wire"
)

// TurnService provides turn-level generation operations.
type TurnService struct {
	client *Client
}

// Stream opens the turn stream for one generation request and yields
// decoded events lazily. The connection is closed when iteration
// completes or breaks. The sequence is single-use.
func (s *TurnService) Stream(ctx context.Context, req *GenerationRequest) iter.Seq2[wire.TurnEvent, error] {
	return func(yield func(wire.TurnEvent, error) bool) {
		resp, err := s.client.http.requestStream(ctx, http.MethodPost, "/v1/turns/stream", req)
		if err != nil {
			yield(nil, err)
			return
		}
		defer resp.Body.Close()

		for ev, err := range wire.TurnEvents(resp.Body, s.client.config.log) {
			if !yield(ev, err) {
				return
			}
			if err != nil {
				return
			}
		}
	}
}

// Outline requests a preliminary outline. This is an optional enhancement:
// callers degrade gracefully when it fails.
func (s *TurnService) Outline(ctx context.Context, req *OutlineRequest) (*OutlineResponse, error) {
	var resp OutlineResponse
	if err := s.client.http.request(ctx, http.MethodPost, "/v1/outline", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Consolidate merges multiple models' candidate outputs for one turn into
// a single response.
func (s *TurnService) Consolidate(ctx context.Context, req *ConsolidationRequest) (*ConsolidationResponse, error) {
	var resp ConsolidationResponse
	if err := s.client.http.request(ctx, http.MethodPost, "/v1/consolidate", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
