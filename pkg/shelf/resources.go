package shelf

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/shelfhq/shelf-go/pkg/httpx"
)

// ResourceClient is a thin per-entity CRUD façade: it builds a path and
// body and delegates to the executor, with the session supplying the
// bearer token. Product API surfaces are built on top of it.
type ResourceClient struct {
	exec   *httpx.Executor
	sess   Session
	prefix string
}

// Resource returns a CRUD façade rooted at prefix (e.g. "/documents"),
// authenticated by sess.
func (c *Client) Resource(prefix string, sess Session) *ResourceClient {
	if !strings.HasPrefix(prefix, "/") {
		prefix = "/" + prefix
	}
	return &ResourceClient{
		exec:   c.exec,
		sess:   sess,
		prefix: strings.TrimSuffix(prefix, "/"),
	}
}

// Get fetches one entity by ID into out.
func (r *ResourceClient) Get(ctx context.Context, id string, out any) error {
	return r.call(ctx, &httpx.Request{Method: http.MethodGet, Path: r.path(id)}, out)
}

// List fetches the collection with optional query parameters into out.
func (r *ResourceClient) List(ctx context.Context, query url.Values, out any) error {
	return r.call(ctx, &httpx.Request{Method: http.MethodGet, Path: r.prefix, Query: query}, out)
}

// Create posts body as JSON and decodes the created entity into out.
func (r *ResourceClient) Create(ctx context.Context, body, out any) error {
	return r.call(ctx, &httpx.Request{Method: http.MethodPost, Path: r.prefix, JSON: body}, out)
}

// Update puts body as JSON for the entity with the given ID.
func (r *ResourceClient) Update(ctx context.Context, id string, body, out any) error {
	return r.call(ctx, &httpx.Request{Method: http.MethodPut, Path: r.path(id), JSON: body}, out)
}

// Delete removes the entity with the given ID.
func (r *ResourceClient) Delete(ctx context.Context, id string) error {
	return r.call(ctx, &httpx.Request{Method: http.MethodDelete, Path: r.path(id)}, nil)
}

// Do executes an arbitrary authenticated request under this façade's
// executor. Terminal non-2xx responses come back as errors.
func (r *ResourceClient) Do(ctx context.Context, req *httpx.Request) (*httpx.Response, error) {
	token, err := r.sess.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	req.AuthToken = token
	return r.exec.Do(ctx, req)
}

// DoRaw is like Do but returns received non-2xx responses as data, for
// callers that branch on status codes themselves.
func (r *ResourceClient) DoRaw(ctx context.Context, req *httpx.Request) (*httpx.Response, error) {
	token, err := r.sess.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	req.AuthToken = token
	return r.exec.DoRaw(ctx, req)
}

func (r *ResourceClient) call(ctx context.Context, req *httpx.Request, out any) error {
	resp, err := r.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return resp.DecodeJSON(out)
}

func (r *ResourceClient) path(id string) string {
	return r.prefix + "/" + url.PathEscape(id)
}
