// Package dest writes to the athlete management platform: user
// resolution, existing-event scanning for dedup, and event import.
// Every endpoint is a POST under /api/v1 with Basic auth plus an
// application id header.
package dest

import (
	"context"
	"net/url"
	"strings"

	"github.com/kallio/physync/internal/transport"
	"github.com/kallio/physync/pkg/logger"
)

const defaultBatchSize = 25

// Headers builds the static header provider for the destination API.
func Headers(appID string) transport.HeaderProvider {
	return func() (map[string]string, error) {
		return map[string]string{"X-APP-ID": appID}, nil
	}
}

// Client talks to one destination instance for one import form.
type Client struct {
	http      *transport.Client
	formName  string
	batchSize int
	log       logger.Logger
}

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBatchSize bounds how many user ids ride one existing-event scan.
func WithBatchSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithLogger sets the logger used for upload diagnostics.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient creates a Client over an already configured transport.
func NewClient(http *transport.Client, formName string, opts ...Option) *Client {
	c := &Client{
		http:      http,
		formName:  formName,
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get().Named("dest")
	}
	return c
}

// post issues one API call with the fixed informat/format query pair.
func (c *Client) post(ctx context.Context, endpoint string, body any) (*transport.Response, error) {
	query := url.Values{
		"informat": {"json"},
		"format":   {"json"},
	}
	return c.http.Post(ctx, "/api/v1/"+endpoint, query, body)
}

// Users retrieves every accessible user keyed by trimmed first and
// last name. When two users share a name the later page wins; the
// collision is logged so operators can spot mis-attributed uploads.
func (c *Client) Users(ctx context.Context) (map[NameKey]int, error) {
	users := make(map[NameKey]int)
	req := userSyncRequest{Paginate: true}

	for {
		resp, err := c.post(ctx, "usersynchronise", req)
		if err != nil {
			return nil, wrap(ErrUserSync, err)
		}
		if !resp.OK() {
			return nil, wrap(ErrUserSync, transport.NewStatusError(resp))
		}
		var body userSyncResponse
		if err := resp.Decode(&body); err != nil {
			return nil, wrap(ErrUserSync, err)
		}

		for _, u := range body.Users {
			key := NameKey{
				First: strings.TrimSpace(u.FirstName),
				Last:  strings.TrimSpace(u.LastName),
			}
			if prev, ok := users[key]; ok && prev != u.UserID {
				c.log.Debug(ctx, "duplicate user name, keeping later entry",
					logger.String("firstName", key.First),
					logger.String("lastName", key.Last),
					logger.Int("previousUserId", prev),
					logger.Int("userId", u.UserID))
			}
			users[key] = u.UserID
		}

		if body.NextCursor == "" {
			return users, nil
		}
		req.Cursor = body.NextCursor
	}
}
