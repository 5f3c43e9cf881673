package usercycle_test

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/usercycle/usercycle"
)

func TestGetEventsDefaultQuery(t *testing.T) {
	client, srv := newTestClient(t)

	result, err := client.GetEvents(context.Background(), usercycle.EventQuery{})
	require.NoError(t, err)
	assert.Equal(t, []any{}, result)

	req, ok := srv.LastRequest()
	require.True(t, ok)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "/events.json", req.Path)
	assert.Equal(t, url.Values{
		"count":        {"100"},
		"page":         {"1"},
		"access_token": {testToken},
	}, req.Query)
	assert.Equal(t, testToken, req.Header.Get(usercycle.AuthHeader))
}

func TestGetEventsFilters(t *testing.T) {
	client, srv := newTestClient(t)
	ctx := context.Background()

	_, err := client.Signup(ctx, "alice", nil, nil)
	require.NoError(t, err)
	_, err = client.Purchased(ctx, "alice", nil, nil)
	require.NoError(t, err)
	_, err = client.Signup(ctx, "bob", nil, nil)
	require.NoError(t, err)

	since := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
	result, err := client.GetEvents(ctx, usercycle.EventQuery{
		Count:      10,
		Page:       1,
		Identity:   "alice",
		ActionName: usercycle.ActionSignup,
		Since:      since,
	})
	require.NoError(t, err)

	events, ok := result.([]any)
	require.True(t, ok)
	require.Len(t, events, 1)
	assert.Equal(t, "alice", events[0].(map[string]any)["identity"])

	req, _ := srv.LastRequest()
	assert.Equal(t, "10", req.Query.Get("count"))
	assert.Equal(t, "alice", req.Query.Get("identity"))
	assert.Equal(t, "signup", req.Query.Get("action_name"))
	assert.Equal(t, "2012-01-01 00:00:00 UTC", req.Query.Get("since"))
}

func TestGetEventsPagination(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := client.Signup(ctx, id, nil, nil)
		require.NoError(t, err)
	}

	result, err := client.GetEvents(ctx, usercycle.EventQuery{Count: 2, Page: 2})
	require.NoError(t, err)
	events := result.([]any)
	require.Len(t, events, 1)
	assert.Equal(t, "c", events[0].(map[string]any)["identity"])
}

func TestNegativePagingRejected(t *testing.T) {
	client, srv := newTestClient(t)
	ctx := context.Background()

	_, err := client.GetEvents(ctx, usercycle.EventQuery{Count: -1})
	assert.ErrorIs(t, err, usercycle.ErrValidation)
	_, err = client.GetPeople(ctx, usercycle.PeopleQuery{Page: -3})
	assert.ErrorIs(t, err, usercycle.ErrValidation)

	assert.Empty(t, srv.Requests())
}

func TestGetEvent(t *testing.T) {
	client, srv := newTestClient(t)
	ctx := context.Background()

	_, err := client.Signup(ctx, "alice", "2012-04-18 10:30:00 UTC", nil)
	require.NoError(t, err)

	result, err := client.GetEvent(ctx, "1")
	require.NoError(t, err)
	event := result.(map[string]any)
	assert.Equal(t, json.Number("1"), event["id"])
	assert.Equal(t, "2012-04-18 10:30:00 UTC", event["occurred_at"])

	req, _ := srv.LastRequest()
	assert.Equal(t, "/events/1.json", req.Path)
	assert.Equal(t, testToken, req.Query.Get("access_token"))
}

func TestGetEventEscapesID(t *testing.T) {
	client, srv := newTestClient(t)

	_, err := client.GetEvent(context.Background(), "a/b c")
	assert.ErrorIs(t, err, usercycle.ErrResourceNotFound)

	req, _ := srv.LastRequest()
	assert.Equal(t, "/events/a/b c.json", req.Path)
	assert.Len(t, srv.Requests(), 1)
}

func TestGetEventRequiresID(t *testing.T) {
	client, srv := newTestClient(t)

	_, err := client.GetEvent(context.Background(), " ")
	assert.ErrorIs(t, err, usercycle.ErrValidation)
	assert.Empty(t, srv.Requests())
}

func TestGetPeople(t *testing.T) {
	client, srv := newTestClient(t)
	ctx := context.Background()

	_, err := client.Signup(ctx, "alice", nil, nil)
	require.NoError(t, err)
	_, err = client.CameBack(ctx, "alice", nil, nil)
	require.NoError(t, err)
	_, err = client.Signup(ctx, "bob", nil, nil)
	require.NoError(t, err)

	result, err := client.GetPeople(ctx, usercycle.PeopleQuery{Identity: "alice"})
	require.NoError(t, err)
	assert.Equal(t, []any{
		map[string]any{"identity": "alice", "events": json.Number("2")},
	}, result)

	req, _ := srv.LastRequest()
	assert.Equal(t, "/people.json", req.Path)
	assert.Equal(t, "100", req.Query.Get("count"))
	assert.Equal(t, "1", req.Query.Get("page"))
	assert.Equal(t, "alice", req.Query.Get("identity"))
}
