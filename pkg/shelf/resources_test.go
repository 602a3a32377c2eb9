package shelf_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelfhq/shelf-go/pkg/httpx"
	"github.com/shelfhq/shelf-go/pkg/shelf"
)

type document struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestResourceClient(t *testing.T) {
	ctx := context.Background()

	newClient := func(t *testing.T) (*authServer, *shelf.Client) {
		t.Helper()
		as := newAuthServer(t)
		client, err := shelf.New(as.config())
		require.NoError(t, err)
		return as, client
	}

	sess := shelf.NewBasicSession("at-fixed", time.Time{})

	t.Run("get attaches the session token", func(t *testing.T) {
		as, client := newClient(t)
		docs := client.Resource("documents", sess)

		var doc document
		require.NoError(t, docs.Get(ctx, "doc-1", &doc))
		require.Equal(t, "doc-1", doc.ID)
		require.Equal(t, "quarterly report", doc.Name)

		as.mu.Lock()
		call := as.apiCalls[len(as.apiCalls)-1]
		as.mu.Unlock()
		require.Equal(t, http.MethodGet, call.Method)
		require.Equal(t, "/documents/doc-1", call.Path)
		require.Equal(t, "Bearer at-fixed", call.Auth)
	})

	t.Run("IDs are path escaped", func(t *testing.T) {
		as, client := newClient(t)
		docs := client.Resource("/documents", sess)

		var doc document
		require.NoError(t, docs.Get(ctx, "a/b", &doc))

		as.mu.Lock()
		call := as.apiCalls[len(as.apiCalls)-1]
		as.mu.Unlock()
		require.Equal(t, "/documents/a%2Fb", call.Path)
	})

	t.Run("create posts JSON", func(t *testing.T) {
		as, client := newClient(t)
		docs := client.Resource("documents", sess)

		var doc document
		require.NoError(t, docs.Create(ctx, map[string]string{"name": "draft"}, &doc))

		as.mu.Lock()
		call := as.apiCalls[len(as.apiCalls)-1]
		as.mu.Unlock()
		require.Equal(t, http.MethodPost, call.Method)
		require.Equal(t, "/documents", call.Path)
	})

	t.Run("session failure short-circuits the request", func(t *testing.T) {
		as, client := newClient(t)
		expired := shelf.NewBasicSession("dead", time.Now().Add(-time.Minute))
		docs := client.Resource("documents", expired)

		var doc document
		err := docs.Get(ctx, "doc-1", &doc)
		require.ErrorIs(t, err, shelf.ErrSessionExpired)

		as.mu.Lock()
		calls := len(as.apiCalls)
		as.mu.Unlock()
		require.Zero(t, calls)
	})

	t.Run("terminal API errors come back typed", func(t *testing.T) {
		_, client := newClient(t)
		docs := client.Resource("missing", sess)

		var doc document
		err := docs.Get(ctx, "42", &doc)

		var statusErr *httpx.StatusError
		require.ErrorAs(t, err, &statusErr)
		require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
		require.Equal(t, "not_found", statusErr.Code)
	})

	t.Run("DoRaw hands back non-2xx as data", func(t *testing.T) {
		_, client := newClient(t)
		docs := client.Resource("missing", sess)

		resp, err := docs.DoRaw(ctx, &httpx.Request{Method: http.MethodGet, Path: "/missing/42"})
		require.NoError(t, err)
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}
