package redirect_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/cofacts/factagent/redirect"
)

func newRedirectServer(t *testing.T, destinations map[string]string, hits *atomic.Int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			hits.Add(1)
		}
		dest, ok := destinations[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		http.Redirect(w, r, dest, http.StatusFound)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRewrite(t *testing.T) {
	t.Run("bare url becomes markdown link", func(t *testing.T) {
		srv := newRedirectServer(t, map[string]string{
			"/abc": "https://example.com/article",
		}, nil)
		r := redirect.New(redirect.WithPrefix(srv.URL + "/"))

		in := "See " + srv.URL + "/abc for details."
		out, changed := r.Rewrite(context.Background(), in)

		gt.True(t, changed)
		gt.Equal(t, out, "See [https://example.com/article]("+srv.URL+"/abc) for details.")
	})

	t.Run("existing markdown link keeps its target", func(t *testing.T) {
		srv := newRedirectServer(t, map[string]string{
			"/abc": "https://example.com/article",
		}, nil)
		r := redirect.New(redirect.WithPrefix(srv.URL + "/"))

		in := "See [source](" + srv.URL + "/abc)."
		out, changed := r.Rewrite(context.Background(), in)

		gt.True(t, changed)
		gt.Equal(t, out, "See [https://example.com/article]("+srv.URL+"/abc).")
	})

	t.Run("repeated url resolved once", func(t *testing.T) {
		var hits atomic.Int64
		srv := newRedirectServer(t, map[string]string{
			"/abc": "https://example.com/article",
		}, &hits)
		r := redirect.New(redirect.WithPrefix(srv.URL + "/"))

		in := srv.URL + "/abc and again " + srv.URL + "/abc"
		out, changed := r.Rewrite(context.Background(), in)

		gt.True(t, changed)
		gt.Equal(t, hits.Load(), int64(1))
		gt.Equal(t, out,
			"[https://example.com/article]("+srv.URL+"/abc) and again [https://example.com/article]("+srv.URL+"/abc)")
	})

	t.Run("unresolvable url left untouched", func(t *testing.T) {
		srv := newRedirectServer(t, map[string]string{}, nil)
		r := redirect.New(redirect.WithPrefix(srv.URL + "/"))

		in := "See " + srv.URL + "/missing here."
		out, changed := r.Rewrite(context.Background(), in)

		gt.False(t, changed)
		gt.Equal(t, out, in)
	})

	t.Run("no indirection urls", func(t *testing.T) {
		r := redirect.New()

		in := "Nothing to resolve at https://example.com/page."
		out, changed := r.Rewrite(context.Background(), in)

		gt.False(t, changed)
		gt.Equal(t, out, in)
	})

	t.Run("mixed resolvable and unresolvable", func(t *testing.T) {
		srv := newRedirectServer(t, map[string]string{
			"/good": "https://example.com/good",
		}, nil)
		r := redirect.New(redirect.WithPrefix(srv.URL + "/"))

		in := srv.URL + "/good and " + srv.URL + "/bad"
		out, changed := r.Rewrite(context.Background(), in)

		gt.True(t, changed)
		gt.Equal(t, out, "[https://example.com/good]("+srv.URL+"/good) and "+srv.URL+"/bad")
	})
}

func TestResolve(t *testing.T) {
	t.Run("follows one redirect hop", func(t *testing.T) {
		srv := newRedirectServer(t, map[string]string{
			"/abc": "https://example.com/final",
		}, nil)
		r := redirect.New(redirect.WithPrefix(srv.URL + "/"))

		dest, err := r.Resolve(context.Background(), srv.URL+"/abc")
		gt.NoError(t, err)
		gt.Equal(t, dest, "https://example.com/final")
	})

	t.Run("non-redirect resolves to itself", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		t.Cleanup(srv.Close)
		r := redirect.New(redirect.WithPrefix(srv.URL + "/"))

		dest, err := r.Resolve(context.Background(), srv.URL+"/plain")
		gt.NoError(t, err)
		gt.Equal(t, dest, srv.URL+"/plain")
	})

	t.Run("unreachable server returns error", func(t *testing.T) {
		r := redirect.New(redirect.WithPrefix("http://127.0.0.1:1/"))

		_, err := r.Resolve(context.Background(), "http://127.0.0.1:1/abc")
		gt.Error(t, err)
	})
}
