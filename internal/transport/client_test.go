package transport_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/kallio/physync/internal/transport"
	"github.com/kallio/physync/pkg/logger"
)

// scriptedTransport plays back a fixed sequence of responses/errors.
type scriptedTransport struct {
	steps    []step
	requests []*http.Request
}

type step struct {
	status int
	body   string
	header http.Header
	err    error
}

func (s *scriptedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	s.requests = append(s.requests, req)
	i := len(s.requests) - 1
	if i >= len(s.steps) {
		i = len(s.steps) - 1
	}
	st := s.steps[i]
	if st.err != nil {
		return nil, st.err
	}
	header := st.header
	if header == nil {
		header = http.Header{}
	}
	return &http.Response{
		StatusCode: st.status,
		Body:       io.NopCloser(bytes.NewBufferString(st.body)),
		Header:     header,
		Request:    req,
	}, nil
}

func newClient(rt http.RoundTripper, sleeps *[]time.Duration) *transport.Client {
	_ = logger.Init()
	return transport.NewClient("http://source.test/v1",
		transport.WithTransport(rt),
		transport.WithSleep(func(d time.Duration) { *sleeps = append(*sleeps, d) }),
	)
}

func TestClientRetrySequencing(t *testing.T) {
	Convey("Given a client facing two 429s with Retry-After=2 then a 200", t, func() {
		rt := &scriptedTransport{steps: []step{
			{status: 429, header: http.Header{"Retry-After": []string{"2"}}},
			{status: 429, header: http.Header{"Retry-After": []string{"2"}}},
			{status: 200, body: `{"ok":true}`},
		}}
		var sleeps []time.Duration
		client := newClient(rt, &sleeps)

		Convey("When performing a GET", func() {
			resp, err := client.Get(context.Background(), "/ping", nil)

			Convey("Then exactly two 2s backoff sleeps occur before the 200", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, 200)
				So(sleeps, ShouldResemble, []time.Duration{2 * time.Second, 2 * time.Second})
				So(len(rt.requests), ShouldEqual, 3)
			})
		})
	})
}

func TestClientAcceptedPolling(t *testing.T) {
	Convey("Given a client facing a 202 then a 200", t, func() {
		rt := &scriptedTransport{steps: []step{
			{status: 202, body: `{"state":"processing"}`},
			{status: 200, body: `{"done":true}`},
		}}
		var sleeps []time.Duration
		client := newClient(rt, &sleeps)

		Convey("When performing a GET", func() {
			resp, err := client.Get(context.Background(), "/results", nil)

			Convey("Then it should wait the fixed 5s delay once", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, 200)
				So(sleeps, ShouldResemble, []time.Duration{5 * time.Second})
			})
		})
	})

	Convey("Given a client that only ever sees 202", t, func() {
		rt := &scriptedTransport{steps: []step{{status: 202, body: `{"state":"processing"}`}}}
		var sleeps []time.Duration
		client := newClient(rt, &sleeps)

		Convey("When retries run out", func() {
			resp, err := client.Get(context.Background(), "/results", nil)

			Convey("Then the last response is returned as-is", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, 202)
			})
		})
	})
}

func TestClientNonRetryable(t *testing.T) {
	Convey("Given a client facing a 404", t, func() {
		rt := &scriptedTransport{steps: []step{{status: 404, body: `not here`}}}
		var sleeps []time.Duration
		client := newClient(rt, &sleeps)

		Convey("When performing a GET", func() {
			resp, err := client.Get(context.Background(), "/missing", nil)

			Convey("Then it should return immediately without retrying", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, 404)
				So(sleeps, ShouldBeEmpty)
				So(len(rt.requests), ShouldEqual, 1)
			})
		})
	})
}

func TestClientNetworkErrors(t *testing.T) {
	Convey("Given a client with a permanently failing connection", t, func() {
		connRefused := errors.New("connection refused")
		rt := &scriptedTransport{steps: []step{{err: connRefused}}}
		var sleeps []time.Duration
		client := newClient(rt, &sleeps)

		Convey("When performing a GET", func() {
			resp, err := client.Get(context.Background(), "/ping", nil)

			Convey("Then the last error surfaces after exhausting attempts", func() {
				So(resp, ShouldBeNil)
				So(errors.Is(err, transport.ErrExhausted), ShouldBeTrue)
				So(len(sleeps), ShouldEqual, 4) // 5 attempts, 4 waits
				So(sleeps[0], ShouldEqual, 1*time.Second)
				So(sleeps[1], ShouldEqual, 2*time.Second)
			})

			Convey("Then the connection error stays matchable in the chain", func() {
				So(errors.Is(err, connRefused), ShouldBeTrue)
			})
		})
	})

	Convey("Given a connection that recovers on the second attempt", t, func() {
		rt := &scriptedTransport{steps: []step{
			{err: errors.New("connection reset")},
			{status: 200, body: `{}`},
		}}
		var sleeps []time.Duration
		client := newClient(rt, &sleeps)

		Convey("When performing a POST", func() {
			resp, err := client.Post(context.Background(), "/import", nil, map[string]string{"k": "v"})

			Convey("Then the call should succeed after one backoff", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, 200)
				So(sleeps, ShouldResemble, []time.Duration{1 * time.Second})
			})
		})
	})
}

func TestClientHeaderProvider(t *testing.T) {
	Convey("Given a client with a per-call header provider", t, func() {
		calls := 0
		rt := &scriptedTransport{steps: []step{
			{status: 202},
			{status: 200, body: `{}`},
		}}
		var sleeps []time.Duration
		_ = logger.Init()
		client := transport.NewClient("http://source.test/v1",
			transport.WithTransport(rt),
			transport.WithSleep(func(d time.Duration) { sleeps = append(sleeps, d) }),
			transport.WithHeaderProvider(func() (map[string]string, error) {
				calls++
				return map[string]string{"Authorization": "Bearer fresh"}, nil
			}),
		)

		Convey("When a call is retried", func() {
			resp, err := client.Get(context.Background(), "/results", nil)

			Convey("Then headers are regenerated per attempt", func() {
				So(err, ShouldBeNil)
				So(resp.StatusCode, ShouldEqual, 200)
				So(calls, ShouldEqual, 2)
				So(rt.requests[0].Header.Get("Authorization"), ShouldEqual, "Bearer fresh")
			})
		})
	})
}

func TestResponseDecode(t *testing.T) {
	Convey("Given a response carrying malformed JSON", t, func() {
		rt := &scriptedTransport{steps: []step{{status: 200, body: `{"users": [`}}}
		var sleeps []time.Duration
		client := newClient(rt, &sleeps)

		Convey("When decoding the body", func() {
			resp, err := client.Get(context.Background(), "/users", nil)
			So(err, ShouldBeNil)

			var out map[string]any
			decodeErr := resp.Decode(&out)

			Convey("Then the sentinel matches and the json detail survives", func() {
				So(errors.Is(decodeErr, transport.ErrDecodeBody), ShouldBeTrue)
				So(decodeErr.Error(), ShouldContainSubstring, "unexpected end of JSON input")
			})
		})
	})
}

func TestClientQueryParams(t *testing.T) {
	Convey("Given a client", t, func() {
		rt := &scriptedTransport{steps: []step{{status: 200, body: `{}`}}}
		var sleeps []time.Duration
		client := newClient(rt, &sleeps)

		Convey("When sending query parameters", func() {
			query := url.Values{}
			query.Set("fromTime", "2025-03-01T00:00:00Z")
			query.Set("toTime", "2025-03-02T00:00:00Z")
			_, err := client.Get(context.Background(), "/measurements", query)

			Convey("Then they should appear on the wire", func() {
				So(err, ShouldBeNil)
				got := rt.requests[0].URL.Query()
				So(got.Get("fromTime"), ShouldEqual, "2025-03-01T00:00:00Z")
				So(got.Get("toTime"), ShouldEqual, "2025-03-02T00:00:00Z")
			})
		})
	})
}
