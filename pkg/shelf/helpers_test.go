package shelf_test

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelfhq/shelf-go/pkg/shelf"
)

// authServer fakes the token service and a small slice of API surface so
// the SDK can be exercised end to end without the real backend.
type authServer struct {
	*httptest.Server

	mu       sync.Mutex
	grants   map[string]int // grant_type -> exchange count
	forms    []url.Values   // every token request, in order
	revoked  []string
	apiCalls []apiCall
	seq      int

	// knobs, set before use
	expiresIn int
	delay     time.Duration
	reject    func(form url.Values) (status int, code string)
}

type apiCall struct {
	Method string
	Path   string
	Auth   string
}

func newAuthServer(t *testing.T) *authServer {
	t.Helper()
	as := &authServer{
		grants:    make(map[string]int),
		expiresIn: 3600,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth2/token", as.handleToken)
	mux.HandleFunc("/oauth2/revoke", as.handleRevoke)
	mux.HandleFunc("/", as.handleAPI)

	as.Server = httptest.NewServer(mux)
	t.Cleanup(as.Close)
	return as
}

// config wires a Config at this fake server with fast retries.
func (as *authServer) config() shelf.Config {
	return shelf.Config{
		ClientID:       "client-1",
		ClientSecret:   "secret-1",
		APIBaseURL:     as.URL,
		TokenURL:       as.URL + "/oauth2/token",
		RevokeURL:      as.URL + "/oauth2/revoke",
		MaxAttempts:    2,
		BackoffInitial: time.Millisecond,
		BackoffMax:     2 * time.Millisecond,
	}
}

func (as *authServer) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	form := r.PostForm

	as.mu.Lock()
	delay, reject, expires := as.delay, as.reject, as.expiresIn
	as.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	as.mu.Lock()
	as.grants[form.Get("grant_type")]++
	as.forms = append(as.forms, form)
	as.seq++
	n := as.seq
	as.mu.Unlock()

	if reject != nil {
		if status, code := reject(form); status != 0 {
			w.WriteHeader(status)
			fmt.Fprintf(w, `{"error":%q,"error_description":"rejected by test"}`, code)
			return
		}
	}

	json.NewEncoder(w).Encode(map[string]any{
		"access_token":  fmt.Sprintf("at-%d", n),
		"refresh_token": fmt.Sprintf("rt-%d", n),
		"token_type":    "bearer",
		"expires_in":    expires,
	})
}

func (as *authServer) handleRevoke(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	as.mu.Lock()
	as.revoked = append(as.revoked, r.PostFormValue("token"))
	as.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (as *authServer) handleAPI(w http.ResponseWriter, r *http.Request) {
	as.mu.Lock()
	as.apiCalls = append(as.apiCalls, apiCall{
		Method: r.Method,
		Path:   r.URL.EscapedPath(),
		Auth:   r.Header.Get("Authorization"),
	})
	as.mu.Unlock()

	if r.URL.Path == "/missing/42" {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"code":"not_found","message":"no such entity"}`))
		return
	}
	w.Write([]byte(`{"id":"doc-1","name":"quarterly report"}`))
}

func (as *authServer) grantCount(grantType string) int {
	as.mu.Lock()
	defer as.mu.Unlock()
	return as.grants[grantType]
}

func (as *authServer) lastForm() url.Values {
	as.mu.Lock()
	defer as.mu.Unlock()
	if len(as.forms) == 0 {
		return nil
	}
	return as.forms[len(as.forms)-1]
}

func (as *authServer) revokedTokens() []string {
	as.mu.Lock()
	defer as.mu.Unlock()
	return append([]string(nil), as.revoked...)
}

func (as *authServer) setExpiresIn(secs int) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.expiresIn = secs
}

func (as *authServer) setDelay(d time.Duration) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.delay = d
}

func (as *authServer) setReject(fn func(form url.Values) (int, string)) {
	as.mu.Lock()
	defer as.mu.Unlock()
	as.reject = fn
}

func genSigningKey(t *testing.T) (*rsa.PrivateKey, []byte) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pemKey := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	return key, pemKey
}
