package discord_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/cofacts/factagent"
	"github.com/cofacts/factagent/apis/discord"
)

func newAPIServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestChannelMessages(t *testing.T) {
	t.Run("success with bot auth", func(t *testing.T) {
		var gotPath, gotAuth, gotLimit string
		srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotAuth = r.Header.Get("Authorization")
			gotLimit = r.URL.Query().Get("limit")
			_, _ = w.Write([]byte(`[{"id":"m1","content":"hello"},{"id":"m2","content":"world"}]`))
		})
		client := discord.New(discord.WithBaseURL(srv.URL), discord.WithToken("bot-token"))

		messages, err := client.ChannelMessages(context.Background(), "1060178087947542563", 50)
		gt.NoError(t, err)
		gt.Equal(t, len(messages), 2)
		gt.Equal(t, gotPath, "/channels/1060178087947542563/messages")
		gt.Equal(t, gotAuth, "Bot bot-token")
		gt.Equal(t, gotLimit, "50")
	})

	t.Run("limit clamped to API range", func(t *testing.T) {
		var gotLimits []string
		srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
			gotLimits = append(gotLimits, r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(`[]`))
		})
		client := discord.New(discord.WithBaseURL(srv.URL), discord.WithToken("bot-token"))

		_, err := client.ChannelMessages(context.Background(), "c1", 0)
		gt.NoError(t, err)
		_, err = client.ChannelMessages(context.Background(), "c1", 500)
		gt.NoError(t, err)

		gt.Equal(t, gotLimits, []string{"1", "100"})
	})

	t.Run("channel id required", func(t *testing.T) {
		client := discord.New(discord.WithToken("bot-token"))

		_, err := client.ChannelMessages(context.Background(), "", 10)
		gt.True(t, errors.Is(err, factagent.ErrInvalidParameter))
	})

	t.Run("missing token refuses before network", func(t *testing.T) {
		client := discord.New(discord.WithToken(""))

		_, err := client.ChannelMessages(context.Background(), "c1", 10)
		gt.True(t, errors.Is(err, factagent.ErrNoCredential))
	})

	t.Run("remote error", func(t *testing.T) {
		srv := newAPIServer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"message":"Missing Access"}`))
		})
		client := discord.New(discord.WithBaseURL(srv.URL), discord.WithToken("bot-token"))

		_, err := client.ChannelMessages(context.Background(), "c1", 10)
		gt.True(t, errors.Is(err, factagent.ErrRemoteAPI))
	})
}
