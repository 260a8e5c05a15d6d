package github_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/cofacts/factagent"
	"github.com/cofacts/factagent/apis/github"
)

func TestParseReference(t *testing.T) {
	t.Run("issue url", func(t *testing.T) {
		ref, ok := github.ParseReference("https://github.com/cofacts/rumors-api/issues/123")
		gt.True(t, ok)
		gt.Equal(t, ref.Owner, "cofacts")
		gt.Equal(t, ref.Repo, "rumors-api")
		gt.Equal(t, ref.Kind, "issues")
		gt.Equal(t, ref.Number, "123")
		gt.Equal(t, ref.CommentID, "")
	})

	t.Run("pull request url", func(t *testing.T) {
		ref, ok := github.ParseReference("https://github.com/cofacts/rumors-site/pull/45")
		gt.True(t, ok)
		gt.Equal(t, ref.Kind, "pull")
		gt.Equal(t, ref.Number, "45")
	})

	t.Run("comment url", func(t *testing.T) {
		ref, ok := github.ParseReference("https://github.com/cofacts/rumors-api/issues/123#issuecomment-99887766")
		gt.True(t, ok)
		gt.Equal(t, ref.Number, "123")
		gt.Equal(t, ref.CommentID, "99887766")
	})

	t.Run("url embedded in text", func(t *testing.T) {
		ref, ok := github.ParseReference("please look at github.com/cofacts/takedowns/issues/7 today")
		gt.True(t, ok)
		gt.Equal(t, ref.Repo, "takedowns")
	})

	t.Run("non-issue url", func(t *testing.T) {
		_, ok := github.ParseReference("https://github.com/cofacts/rumors-api")
		gt.False(t, ok)
	})
}

func newAPIServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestCreateIssue(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotPath, gotAuth, gotVersion string
		var gotBody map[string]any
		srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			gotVersion = r.Header.Get("X-GitHub-Api-Version")
			gt.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"number":42,"html_url":"https://github.com/cofacts/takedowns/issues/42"}`))
		})
		client := github.New(github.WithBaseURL(srv.URL), github.WithToken("pat"))

		issue, err := client.CreateIssue(context.Background(), github.IssueInput{
			Owner:  "cofacts",
			Repo:   "takedowns",
			Title:  "Scam report",
			Body:   "details",
			Labels: []string{"scam"},
		})
		gt.NoError(t, err)
		gt.Equal(t, issue["number"], any(float64(42)))
		gt.Equal(t, gotPath, "/repos/cofacts/takedowns/issues")
		gt.Equal(t, gotAuth, "Bearer pat")
		gt.Equal(t, gotVersion, "2022-11-28")
		gt.Equal(t, gotBody["title"], "Scam report")
		_, hasAssignees := gotBody["assignees"]
		gt.False(t, hasAssignees)
	})

	t.Run("missing required fields", func(t *testing.T) {
		client := github.New(github.WithToken("pat"))

		_, err := client.CreateIssue(context.Background(), github.IssueInput{Owner: "cofacts"})
		gt.True(t, errors.Is(err, factagent.ErrInvalidParameter))
	})

	t.Run("missing token refuses before network", func(t *testing.T) {
		client := github.New(github.WithToken(""))

		_, err := client.CreateIssue(context.Background(), github.IssueInput{
			Owner: "cofacts", Repo: "takedowns", Title: "t",
		})
		gt.True(t, errors.Is(err, factagent.ErrNoCredential))
	})
}

func TestGetReferences(t *testing.T) {
	t.Run("issue", func(t *testing.T) {
		var gotPath string
		srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			_, _ = w.Write([]byte(`{"number":7,"title":"broken link"}`))
		})
		client := github.New(github.WithBaseURL(srv.URL), github.WithToken("pat"))

		issue, err := client.GetIssue(context.Background(), "cofacts", "rumors-api", "7")
		gt.NoError(t, err)
		gt.Equal(t, issue["title"], "broken link")
		gt.Equal(t, gotPath, "/repos/cofacts/rumors-api/issues/7")
	})

	t.Run("pull request", func(t *testing.T) {
		var gotPath string
		srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			_, _ = w.Write([]byte(`{"number":45}`))
		})
		client := github.New(github.WithBaseURL(srv.URL), github.WithToken("pat"))

		_, err := client.GetPullRequest(context.Background(), "cofacts", "rumors-site", "45")
		gt.NoError(t, err)
		gt.Equal(t, gotPath, "/repos/cofacts/rumors-site/pulls/45")
	})

	t.Run("comment", func(t *testing.T) {
		var gotPath string
		srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			_, _ = w.Write([]byte(`{"id":998,"body":"comment text"}`))
		})
		client := github.New(github.WithBaseURL(srv.URL), github.WithToken("pat"))

		comment, err := client.GetIssueComment(context.Background(), "cofacts", "rumors-api", "998")
		gt.NoError(t, err)
		gt.Equal(t, comment["body"], "comment text")
		gt.Equal(t, gotPath, "/repos/cofacts/rumors-api/issues/comments/998")
	})

	t.Run("remote error", func(t *testing.T) {
		srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Not Found"}`))
		})
		client := github.New(github.WithBaseURL(srv.URL), github.WithToken("pat"))

		_, err := client.GetIssue(context.Background(), "cofacts", "rumors-api", "999999")
		gt.True(t, errors.Is(err, factagent.ErrRemoteAPI))
	})
}
