package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/worldnewsmap/newsgeo/internal/resilience"
)

// Search runs q against /search and applies the acceptance policy. Errors
// never escape: they are reported as OutcomeNetworkError. A query without
// search terms is answered OutcomeEmpty without a request.
func (c *Client) Search(ctx context.Context, q Query) Outcome {
	log := zap.L().With(zap.String("strategy", string(q.Strategy)), zap.String("query", q.Values().Encode()))
	if q.Empty() {
		log.Debug("geocode: empty query, not sent")
		return Outcome{Kind: OutcomeEmpty}
	}

	places, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]Place, error) {
		return c.search(ctx, q)
	})

	var out Outcome
	if err != nil {
		out = networkError(err)
		log.Error("geocode: request failed",
			zap.Stringer("error_kind", out.ErrorKind),
			zap.Error(err),
		)
	} else {
		out = evaluate(places)
		log.Debug("geocode: response",
			zap.Int("results", out.Results),
			zap.Stringer("outcome", out.Kind),
		)
	}

	if c.observer != nil {
		c.observer.ProviderRequest(string(q.Strategy), out.Kind.String())
	}
	return out
}

func evaluate(places []Place) Outcome {
	if len(places) == 0 {
		return Outcome{Kind: OutcomeEmpty}
	}
	place, ok := Accept(places)
	if !ok {
		return Outcome{Kind: OutcomeAmbiguous, Results: len(places)}
	}
	return Outcome{Kind: OutcomeHit, Coordinate: place.Coordinate(), Results: len(places)}
}

func (c *Client) search(ctx context.Context, q Query) ([]Place, error) {
	reqURL := c.baseURL + "/search?" + q.Values().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		statusErr := &StatusError{StatusCode: resp.StatusCode}
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: read body")
	}

	var places []Place
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, &DecodeError{Err: err}
	}
	for i, p := range places {
		if p.Lat == nil || p.Lon == nil {
			return nil, &DecodeError{Err: eris.Errorf("result %d has no coordinate", i)}
		}
	}
	return places, nil
}
