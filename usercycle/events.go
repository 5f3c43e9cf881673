package usercycle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Lifecycle action names understood by the service.
const (
	ActionSignup    = "signup"
	ActionActivated = "activated"
	ActionCameBack  = "came_back"
	ActionPurchased = "purchased"
	ActionReferred  = "referred"
	ActionCanceled  = "canceled"
)

// Properties are free-form event attributes. Values must be scalars: strings,
// booleans, integers, floats, json.Number, time.Time (or *time.Time) or
// fmt.Stringer. nil values, including typed nil pointers, are dropped.
type Properties map[string]any

// Event is a single lifecycle event submission.
type Event struct {
	// Identity is the caller's opaque identifier for the end user (required).
	Identity string

	// ActionName is the event type, e.g. ActionSignup (required).
	ActionName string

	// OccurredAt is optional: a time.Time, a *time.Time, or a string already
	// in TimestampLayout. nil or a zero time leaves it to the server.
	OccurredAt any

	Properties Properties
}

// Signup records that identity created an account.
func (c *Client) Signup(ctx context.Context, identity string, occurredAt any, props Properties) (any, error) {
	return c.track(ctx, ActionSignup, identity, occurredAt, props)
}

// Activated records that identity reached activation.
func (c *Client) Activated(ctx context.Context, identity string, occurredAt any, props Properties) (any, error) {
	return c.track(ctx, ActionActivated, identity, occurredAt, props)
}

// CameBack records a returning visit.
func (c *Client) CameBack(ctx context.Context, identity string, occurredAt any, props Properties) (any, error) {
	return c.track(ctx, ActionCameBack, identity, occurredAt, props)
}

// Purchased records a purchase.
func (c *Client) Purchased(ctx context.Context, identity string, occurredAt any, props Properties) (any, error) {
	return c.track(ctx, ActionPurchased, identity, occurredAt, props)
}

// Referred records that identity referred someone.
func (c *Client) Referred(ctx context.Context, identity string, occurredAt any, props Properties) (any, error) {
	return c.track(ctx, ActionReferred, identity, occurredAt, props)
}

// Canceled records a cancellation.
func (c *Client) Canceled(ctx context.Context, identity string, occurredAt any, props Properties) (any, error) {
	return c.track(ctx, ActionCanceled, identity, occurredAt, props)
}

// SignupWithProfile is Signup with the well-known signup attributes folded
// into the properties. Keys already present in props take precedence.
func (c *Client) SignupWithProfile(ctx context.Context, identity string, occurredAt any, profile SignupProfile, props Properties) (any, error) {
	return c.Signup(ctx, identity, occurredAt, profile.Merge(props))
}

func (c *Client) track(ctx context.Context, action, identity string, occurredAt any, props Properties) (any, error) {
	return c.SetEvent(ctx, Event{
		Identity:   identity,
		ActionName: action,
		OccurredAt: occurredAt,
		Properties: props,
	})
}

// SetEvent submits an arbitrary event. All the named lifecycle methods go
// through here. Validation errors are returned before anything is sent.
func (c *Client) SetEvent(ctx context.Context, ev Event) (any, error) {
	form, err := ev.encode()
	if err != nil {
		return nil, err
	}
	return c.do(ctx, call{
		method: http.MethodPost,
		route:  "/events.json",
		path:   "/events.json",
		form:   form,
	})
}

// encode flattens the event into form fields. Each property becomes its own
// properties[key] field rather than a nested JSON document.
func (ev Event) encode() (url.Values, error) {
	if strings.TrimSpace(ev.Identity) == "" {
		return nil, &ValidationError{Field: "identity", Msg: "required"}
	}
	if strings.TrimSpace(ev.ActionName) == "" {
		return nil, &ValidationError{Field: "action_name", Msg: "required"}
	}

	form := url.Values{}
	form.Set("identity", ev.Identity)
	form.Set("action_name", ev.ActionName)

	occurredAt, ok, err := normalizeOccurredAt(ev.OccurredAt)
	if err != nil {
		return nil, err
	}
	if ok {
		form.Set("occurred_at", occurredAt)
	}

	for key, value := range ev.Properties {
		if key == "" {
			return nil, &ValidationError{Field: "properties", Msg: "empty property name"}
		}
		s, ok, err := formatProperty(key, value)
		if err != nil {
			return nil, err
		}
		if ok {
			form.Set("properties["+key+"]", s)
		}
	}
	return form, nil
}

func formatProperty(key string, v any) (string, bool, error) {
	switch x := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return x, true, nil
	case bool:
		return strconv.FormatBool(x), true, nil
	case int:
		return strconv.FormatInt(int64(x), 10), true, nil
	case int8:
		return strconv.FormatInt(int64(x), 10), true, nil
	case int16:
		return strconv.FormatInt(int64(x), 10), true, nil
	case int32:
		return strconv.FormatInt(int64(x), 10), true, nil
	case int64:
		return strconv.FormatInt(x, 10), true, nil
	case uint:
		return strconv.FormatUint(uint64(x), 10), true, nil
	case uint8:
		return strconv.FormatUint(uint64(x), 10), true, nil
	case uint16:
		return strconv.FormatUint(uint64(x), 10), true, nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), true, nil
	case uint64:
		return strconv.FormatUint(x, 10), true, nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true, nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true, nil
	case json.Number:
		return x.String(), true, nil
	case time.Time:
		return FormatTimestamp(x), true, nil
	case *time.Time:
		if x == nil {
			return "", false, nil
		}
		return FormatTimestamp(*x), true, nil
	case fmt.Stringer:
		// A typed nil pointer would panic in String; treat it as nil.
		if rv := reflect.ValueOf(x); rv.Kind() == reflect.Ptr && rv.IsNil() {
			return "", false, nil
		}
		return x.String(), true, nil
	default:
		return "", false, &ValidationError{
			Field: "properties[" + key + "]",
			Msg:   fmt.Sprintf("unsupported value type %T", v),
		}
	}
}

// SignupProfile holds the optional attributes the service recognises on a
// signup. Empty fields are omitted.
type SignupProfile struct {
	FirstName      string
	LastName       string
	Title          string
	Company        string
	Email          string
	Phone          string
	Twitter        string
	Facebook       string
	PlanName       string
	Referrer       string
	CampaignSource string
	SearchTerms    string
}

// Properties returns the non-empty fields keyed by their wire names.
func (p SignupProfile) Properties() Properties {
	fields := []struct {
		key   string
		value string
	}{
		{"first-name", p.FirstName},
		{"last-name", p.LastName},
		{"title", p.Title},
		{"company", p.Company},
		{"email", p.Email},
		{"phone", p.Phone},
		{"twitter", p.Twitter},
		{"facebook", p.Facebook},
		{"plan_name", p.PlanName},
		{"referrer", p.Referrer},
		{"campaign_source", p.CampaignSource},
		{"search_terms", p.SearchTerms},
	}

	props := Properties{}
	for _, f := range fields {
		if f.value != "" {
			props[f.key] = f.value
		}
	}
	return props
}

// Merge returns the profile properties overlaid with extra.
func (p SignupProfile) Merge(extra Properties) Properties {
	props := p.Properties()
	for k, v := range extra {
		props[k] = v
	}
	return props
}
