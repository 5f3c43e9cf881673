package usercycle

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultCount = 100
	DefaultPage  = 1
)

// EventQuery filters GetEvents. Zero Count and Page mean the defaults.
type EventQuery struct {
	Count      int
	Page       int
	Identity   string
	ActionName string
	Since      time.Time
}

// PeopleQuery filters GetPeople. Zero Count and Page mean the defaults.
type PeopleQuery struct {
	Count    int
	Page     int
	Identity string
}

// GetEvents lists stored events.
func (c *Client) GetEvents(ctx context.Context, q EventQuery) (any, error) {
	params, err := pageParams(q.Count, q.Page)
	if err != nil {
		return nil, err
	}
	if q.Identity != "" {
		params.Set("identity", q.Identity)
	}
	if q.ActionName != "" {
		params.Set("action_name", q.ActionName)
	}
	if !q.Since.IsZero() {
		params.Set("since", FormatTimestamp(q.Since))
	}
	return c.get(ctx, "/events.json", "/events.json", params)
}

// GetEvent fetches a single event by its identifier.
func (c *Client) GetEvent(ctx context.Context, id string) (any, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &ValidationError{Field: "id", Msg: "required"}
	}
	return c.get(ctx, "/events/{id}.json", "/events/"+url.PathEscape(id)+".json", url.Values{})
}

// GetPeople lists tracked people.
func (c *Client) GetPeople(ctx context.Context, q PeopleQuery) (any, error) {
	params, err := pageParams(q.Count, q.Page)
	if err != nil {
		return nil, err
	}
	if q.Identity != "" {
		params.Set("identity", q.Identity)
	}
	return c.get(ctx, "/people.json", "/people.json", params)
}

// get sends a read. The token travels both as a query parameter and in the
// auth header set by do.
func (c *Client) get(ctx context.Context, route, path string, params url.Values) (any, error) {
	params.Set(tokenParam, c.token)
	return c.do(ctx, call{
		method: http.MethodGet,
		route:  route,
		path:   path,
		query:  params,
	})
}

func pageParams(count, page int) (url.Values, error) {
	if count < 0 {
		return nil, &ValidationError{Field: "count", Msg: "must not be negative"}
	}
	if page < 0 {
		return nil, &ValidationError{Field: "page", Msg: "must not be negative"}
	}
	if count == 0 {
		count = DefaultCount
	}
	if page == 0 {
		page = DefaultPage
	}
	params := url.Values{}
	params.Set("count", strconv.Itoa(count))
	params.Set("page", strconv.Itoa(page))
	return params, nil
}
