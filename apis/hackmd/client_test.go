package hackmd_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/cofacts/factagent"
	"github.com/cofacts/factagent/apis/hackmd"
)

func TestExtractNoteID(t *testing.T) {
	cases := map[string]struct {
		input string
		want  string
	}{
		"plain id":            {"x232chPbTfGgNL_Q0f47rQ", "x232chPbTfGgNL_Q0f47rQ"},
		"note url":            {"https://hackmd.io/x232chPbTfGgNL_Q0f47rQ", "x232chPbTfGgNL_Q0f47rQ"},
		"url with fragment":   {"https://hackmd.io/x232chPbTfGgNL_Q0f47rQ#section", "x232chPbTfGgNL_Q0f47rQ"},
		"url with query":      {"https://hackmd.io/x232chPbTfGgNL_Q0f47rQ?view=1", "x232chPbTfGgNL_Q0f47rQ"},
		"team url encoded":    {"https://hackmd.io/@cofacts%2Fx232chPbTfGgNL_Q0f47rQ", "x232chPbTfGgNL_Q0f47rQ"},
		"surrounding spaces":  {"  x232chPbTfGgNL_Q0f47rQ  ", "x232chPbTfGgNL_Q0f47rQ"},
		"too short":           {"abc123", ""},
		"empty":               {"", ""},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			gt.Equal(t, hackmd.ExtractNoteID(tc.input), tc.want)
		})
	}
}

func newNoteServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetNote(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotPath, gotAuth string
		srv := newNoteServer(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`{"id":"note1","title":"Minutes","content":"# Agenda"}`))
		})
		client := hackmd.New(hackmd.WithBaseURL(srv.URL), hackmd.WithToken("tok"))

		note, err := client.GetNote(context.Background(), "note1")
		gt.NoError(t, err)
		gt.Equal(t, note["title"], "Minutes")
		gt.Equal(t, gotPath, "/notes/note1")
		gt.Equal(t, gotAuth, "Bearer tok")
	})

	t.Run("missing token refuses before network", func(t *testing.T) {
		called := false
		srv := newNoteServer(t, func(w http.ResponseWriter, r *http.Request) {
			called = true
		})
		client := hackmd.New(hackmd.WithBaseURL(srv.URL), hackmd.WithToken(""))

		_, err := client.GetNote(context.Background(), "note1")
		gt.True(t, errors.Is(err, factagent.ErrNoCredential))
		gt.False(t, called)
	})

	t.Run("remote error carries API message", func(t *testing.T) {
		srv := newNoteServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"Note not found"}`))
		})
		client := hackmd.New(hackmd.WithBaseURL(srv.URL), hackmd.WithToken("tok"))

		_, err := client.GetNote(context.Background(), "missing")
		gt.True(t, errors.Is(err, factagent.ErrRemoteAPI))
	})
}

func TestCreateNote(t *testing.T) {
	t.Run("sends only set fields", func(t *testing.T) {
		var gotBody map[string]any
		srv := newNoteServer(t, func(w http.ResponseWriter, r *http.Request) {
			gt.Equal(t, r.Method, http.MethodPost)
			gt.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
			_, _ = w.Write([]byte(`{"id":"new1"}`))
		})
		client := hackmd.New(hackmd.WithBaseURL(srv.URL), hackmd.WithToken("tok"))

		title := "Weekly sync"
		content := "# Notes"
		note, err := client.CreateNote(context.Background(), hackmd.NoteInput{
			Title:   &title,
			Content: &content,
		})
		gt.NoError(t, err)
		gt.Equal(t, note["id"], "new1")
		gt.Equal(t, gotBody["title"], "Weekly sync")
		gt.Equal(t, gotBody["content"], "# Notes")
		_, hasPermission := gotBody["readPermission"]
		gt.False(t, hasPermission)
	})

	t.Run("empty input rejected", func(t *testing.T) {
		client := hackmd.New(hackmd.WithToken("tok"))

		_, err := client.CreateNote(context.Background(), hackmd.NoteInput{})
		gt.True(t, errors.Is(err, factagent.ErrInvalidParameter))
	})
}

func TestUpdateNote(t *testing.T) {
	t.Run("patch with bare success status", func(t *testing.T) {
		srv := newNoteServer(t, func(w http.ResponseWriter, r *http.Request) {
			gt.Equal(t, r.Method, http.MethodPatch)
			gt.Equal(t, r.URL.Path, "/notes/note1")
			w.WriteHeader(http.StatusAccepted)
		})
		client := hackmd.New(hackmd.WithBaseURL(srv.URL), hackmd.WithToken("tok"))

		content := "updated"
		note, err := client.UpdateNote(context.Background(), "note1", hackmd.NoteInput{Content: &content})
		gt.NoError(t, err)
		gt.Value(t, note).Nil()
	})

	t.Run("no parameters rejected", func(t *testing.T) {
		client := hackmd.New(hackmd.WithToken("tok"))

		_, err := client.UpdateNote(context.Background(), "note1", hackmd.NoteInput{})
		gt.True(t, errors.Is(err, factagent.ErrInvalidParameter))
	})
}
