package advisor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nadmax/taskpulse/internal/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chatServer answers every completion with content as the first choice and
// hands the decoded request to inspect.
func chatServer(t *testing.T, status int, content string, inspect func(*http.Request, chatRequest)) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if inspect != nil {
			inspect(r, req)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 400 {
			_, _ = w.Write([]byte(`{"error":{"message":"rate limited"}}`))
			return
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": content}},
			},
		})
	}))
	t.Cleanup(srv.Close)

	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Config{APIKey: "test-key", BaseURL: srv.URL + "/", Timeout: time.Second})
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient(Config{})

	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, DefaultModel, c.model)
	assert.Equal(t, engine.DefaultAdvisorTimeout, c.httpClient.Timeout)
}

func TestClient_RequestShape(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"advice":"Batch your reviews."}`, func(r *http.Request, req chatRequest) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, DefaultModel, req.Model)
		assert.Equal(t, "json_object", req.ResponseFormat.Type)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Contains(t, req.Messages[1].Content, `"total_completed":4`)
	})

	advice, err := newTestClient(srv).Coaching(context.Background(), engine.CoachingRequest{TotalCompleted: 4})

	require.NoError(t, err)
	assert.Equal(t, "Batch your reviews.", advice)
}

func TestClient_Schedule(t *testing.T) {
	tests := []struct {
		name         string
		item         string
		wantTitle    string
		wantDuration int
	}{
		{
			name:         "typed item",
			item:         `{"title":"Fix bug","priority":"High","start":"9:00","end":"10:30","duration":90,"reasoning":"urgent"}`,
			wantTitle:    "Fix bug",
			wantDuration: 90,
		},
		{
			name:         "float duration",
			item:         `{"title":"Write report","start":"9:00","end":"10:30","duration":90.0,"reasoning":"focus"}`,
			wantTitle:    "Write report",
			wantDuration: 90,
		},
		{
			name:         "string duration",
			item:         `{"title":"Write report","start":"9:00","end":"10:30","duration":"90"}`,
			wantTitle:    "Write report",
			wantDuration: 90,
		},
		{
			name:      "item without times",
			item:      `{"title":"Fix bug","blocks":[1,2]}`,
			wantTitle: "Fix bug",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, http.StatusOK, `{"schedule":[`+tt.item+`]}`, nil)

			items, err := newTestClient(srv).Schedule(context.Background(), engine.ScheduleRequest{})

			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.Equal(t, tt.wantTitle, items[0].Title)
			assert.Equal(t, tt.wantDuration, items[0].Duration)

			encoded, err := json.Marshal(items)
			require.NoError(t, err)
			assert.JSONEq(t, `[`+tt.item+`]`, string(encoded))
		})
	}
}

func TestClient_ScheduleEmptyPlan(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"schedule":[]}`, nil)

	items, err := newTestClient(srv).Schedule(context.Background(), engine.ScheduleRequest{})

	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestClient_ScheduleMalformed(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "missing key", content: `{"plan":[]}`},
		{name: "not an array", content: `{"schedule":"9:00 fix bug"}`},
		{name: "item not an object", content: `{"schedule":["Fix bug at 9:00"]}`},
		{name: "null item", content: `{"schedule":[null]}`},
		{name: "not json", content: `Here is your plan!`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, http.StatusOK, tt.content, nil)

			_, err := newTestClient(srv).Schedule(context.Background(), engine.ScheduleRequest{})

			assert.ErrorIs(t, err, ErrMalformedReply)
		})
	}
}

func TestClient_Suggestions(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{name: "valid", content: `{"suggestions":["a","b","c"]}`, want: []string{"a", "b", "c"}},
		{name: "empty list", content: `{"suggestions":[]}`},
		{name: "wrong type", content: `{"suggestions":"do more"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, http.StatusOK, tt.content, nil)

			got, err := newTestClient(srv).Suggestions(context.Background(), engine.SuggestionRequest{Score: 40})

			if tt.want == nil {
				assert.ErrorIs(t, err, ErrMalformedReply)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_BurnoutInsights(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		srv := chatServer(t, http.StatusOK, `{"reasons":["r1"],"tips":["t1","t2"]}`, nil)

		got, err := newTestClient(srv).BurnoutInsights(context.Background(), engine.BurnoutRequest{Level: "High"})

		require.NoError(t, err)
		assert.Equal(t, engine.BurnoutInsights{Reasons: []string{"r1"}, Tips: []string{"t1", "t2"}}, got)
	})

	t.Run("empty lists", func(t *testing.T) {
		srv := chatServer(t, http.StatusOK, `{"reasons":[],"tips":[]}`, nil)

		got, err := newTestClient(srv).BurnoutInsights(context.Background(), engine.BurnoutRequest{})

		require.NoError(t, err)
		assert.NotNil(t, got.Reasons)
		assert.NotNil(t, got.Tips)
		assert.Empty(t, got.Reasons)
		assert.Empty(t, got.Tips)
	})

	t.Run("missing tips", func(t *testing.T) {
		srv := chatServer(t, http.StatusOK, `{"reasons":["r1"]}`, nil)

		_, err := newTestClient(srv).BurnoutInsights(context.Background(), engine.BurnoutRequest{})

		assert.ErrorIs(t, err, ErrMalformedReply)
	})
}

func TestClient_Estimate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    engine.Estimate
		wantErr bool
	}{
		{name: "integer minutes", content: `{"minutes":45,"reasoning":"small change"}`, want: engine.Estimate{Minutes: 45, Reasoning: "small change"}},
		{name: "fractional minutes rounded", content: `{"minutes":44.6}`, want: engine.Estimate{Minutes: 45}},
		{name: "missing minutes", content: `{"reasoning":"unsure"}`, wantErr: true},
		{name: "minutes as text", content: `{"minutes":"forty"}`, wantErr: true},
		{name: "minutes overflow", content: `{"minutes":1e20}`, wantErr: true},
		{name: "negative minutes", content: `{"minutes":-5}`, wantErr: true},
		{name: "one working week", content: `{"minutes":2400}`, want: engine.Estimate{Minutes: 2400}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, http.StatusOK, tt.content, nil)

			got, err := newTestClient(srv).Estimate(context.Background(), engine.EstimateRequest{Title: "Deploy"})

			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedReply)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClient_CoachingBlankAdvice(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"advice":"   "}`, nil)

	_, err := newTestClient(srv).Coaching(context.Background(), engine.CoachingRequest{})

	assert.ErrorIs(t, err, ErrMalformedReply)
}

func TestClient_APIError(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests, "", nil)

	_, err := newTestClient(srv).Suggestions(context.Background(), engine.SuggestionRequest{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "advisor API error 429")
}

func TestClient_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Coaching(context.Background(), engine.CoachingRequest{})

	assert.ErrorIs(t, err, ErrMalformedReply)
}

func TestClient_ContextCancelled(t *testing.T) {
	srv := chatServer(t, http.StatusOK, `{"advice":"late"}`, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestClient(srv).Coaching(ctx, engine.CoachingRequest{})

	assert.ErrorIs(t, err, context.Canceled)
}
