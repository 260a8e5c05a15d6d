// Package redirect rewrites opaque indirection URLs in response text into
// Markdown links that surface the final destination.
//
// Grounded citations come back as redirect-service URLs that reveal nothing
// about the source. The resolver looks up where each one actually points and
// rewrites the text to `[resolved_url](indirection_url)`, keeping the original
// URL as the link target so the citation mechanics stay intact.
package redirect

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultPrefix is the grounding redirect service used by Gemini search
// citations.
const DefaultPrefix = "https://vertexaisearch.cloud.google.com/grounding-api-redirect/"

const defaultTimeout = 30 * time.Second

// Resolver finds indirection URLs in text and resolves them to their final
// destinations.
type Resolver struct {
	httpClient *http.Client
	prefix     string

	urlRe     *regexp.Regexp
	rewriteRe *regexp.Regexp
}

// Option is a functional option for configuring a Resolver.
type Option func(*Resolver)

// WithHTTPClient sets the HTTP client used for resolution lookups. The client
// must not follow redirects itself; New overrides CheckRedirect accordingly.
func WithHTTPClient(client *http.Client) Option {
	return func(r *Resolver) {
		r.httpClient = client
	}
}

// WithPrefix sets the indirection-URL prefix to scan for.
func WithPrefix(prefix string) Option {
	return func(r *Resolver) {
		r.prefix = prefix
	}
}

// New creates a Resolver. By default it scans for the Gemini grounding
// redirect prefix and bounds each lookup at 30 seconds.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		prefix: DefaultPrefix,
	}
	for _, opt := range opts {
		opt(r)
	}

	if r.httpClient == nil {
		r.httpClient = &http.Client{Timeout: defaultTimeout}
	}
	// The first redirect response is the answer; following it would fetch the
	// destination content for nothing.
	r.httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	urlPattern := regexp.QuoteMeta(r.prefix) + `[^\s<>"'()\[\]]+`
	r.urlRe = regexp.MustCompile(urlPattern)
	// Matches an existing Markdown link wrapping an indirection URL, or a bare
	// indirection URL. Matching the link construct first keeps the rewrite
	// from re-matching URLs inside its own output.
	r.rewriteRe = regexp.MustCompile(`\[[^\]]*\]\(` + urlPattern + `\)|` + urlPattern)

	return r
}

// Rewrite replaces every resolvable indirection URL in text with
// `[resolved_url](indirection_url)`. Each distinct URL is resolved exactly
// once even if it appears multiple times. The second return value reports
// whether any replacement occurred; when false, text is returned verbatim.
// Resolution failures are non-fatal: the affected URL is left untouched.
func (r *Resolver) Rewrite(ctx context.Context, text string) (string, bool) {
	matches := r.urlRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return text, false
	}

	resolved := map[string]string{}
	for _, url := range matches {
		if _, ok := resolved[url]; ok {
			continue
		}
		dest, err := r.Resolve(ctx, url)
		if err != nil || dest == "" || dest == url {
			continue
		}
		resolved[url] = dest
	}
	if len(resolved) == 0 {
		return text, false
	}

	changed := false
	out := r.rewriteRe.ReplaceAllStringFunc(text, func(match string) string {
		url := match
		if strings.HasPrefix(match, "[") {
			open := strings.LastIndex(match, "](")
			url = match[open+2 : len(match)-1]
		}

		dest, ok := resolved[url]
		if !ok {
			return match
		}
		changed = true
		return "[" + dest + "](" + url + ")"
	})

	if !changed {
		return text, false
	}
	return out, true
}

// Resolve performs one resolution lookup and returns the final destination
// URL. A response that is not a redirect resolves to the URL itself.
func (r *Resolver) Resolve(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", goerr.Wrap(err, "failed to create resolution request", goerr.V("url", url))
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", goerr.Wrap(err, "resolution lookup failed", goerr.V("url", url))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		return url, nil
	}

	loc, err := resp.Location()
	if err != nil {
		return url, nil
	}
	return loc.String(), nil
}
