package probe

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/hamed0406/checkwatch/internal/domain"
)

// HTTPProber probes checks over HTTP(S). The check's own timeout bounds each
// probe, so the client carries no timeout of its own.
type HTTPProber struct {
	Client *http.Client
	Now    func() time.Time
}

func NewHTTPProber() *HTTPProber {
	return &HTTPProber{
		Client: &http.Client{
			// Report the status of the first response, not of a redirect target.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		Now: time.Now,
	}
}

func (p *HTTPProber) now() time.Time {
	if p.Now == nil {
		return time.Now()
	}
	return p.Now()
}

// Probe issues one request for d. Whichever of response, transport error,
// timeout or ctx cancellation happens first decides the outcome.
func (p *HTTPProber) Probe(ctx context.Context, d domain.CheckDescriptor) Outcome {
	s := newSlot()

	reqCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	timer := time.AfterFunc(d.Timeout(), func() {
		s.settle(Timeout(p.now()))
		cancel()
	})
	defer timer.Stop()

	go func() {
		req, err := http.NewRequestWithContext(reqCtx, string(d.Method), d.Target(), nil)
		if err != nil {
			s.settle(TransportError(err, p.now()))
			return
		}
		resp, err := p.Client.Do(req)
		if err != nil {
			s.settle(TransportError(err, p.now()))
			return
		}
		s.settle(Response(resp.StatusCode, p.now()))
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
	}()

	select {
	case <-s.done:
	case <-ctx.Done():
		s.settle(TransportError(ctx.Err(), p.now()))
	}
	return s.wait()
}
