package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/nadmax/taskpulse/internal/auth"
	"github.com/nadmax/taskpulse/internal/engine"
	"github.com/nadmax/taskpulse/internal/httputil"
	"github.com/nadmax/taskpulse/internal/logging"
	"github.com/nadmax/taskpulse/internal/metrics"
	"github.com/nadmax/taskpulse/internal/store"
	"github.com/nadmax/taskpulse/internal/task"
	"golang.org/x/sync/errgroup"
)

type API struct {
	store  store.TaskStore
	engine *engine.Engine
	authn  auth.Middleware
	mux    *http.ServeMux
	log    *logging.Logger
}

type EstimateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ScheduleResponse struct {
	Schedule []engine.ScheduleItem `json:"schedule"`
}

func NewAPI(s store.TaskStore, e *engine.Engine, authn auth.Middleware) *API {
	api := &API{
		store:  s,
		engine: e,
		authn:  authn,
		mux:    http.NewServeMux(),
		log:    logging.Component("api"),
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	a.mux.Handle("POST /api/agent/schedule", a.authed(a.schedule))
	a.mux.Handle("GET /api/agent/productivity-score", a.authed(a.productivityScore))
	a.mux.Handle("GET /api/agent/burnout-score", a.authed(a.burnoutScore))
	a.mux.Handle("POST /api/agent/estimate", a.authed(a.estimate))
	a.mux.Handle("GET /api/agent/coach", a.authed(a.coach))
}

func (a *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mux.ServeHTTP(w, r)
}

// ownerHandler receives the authenticated owner id.
type ownerHandler func(w http.ResponseWriter, r *http.Request, owner string)

func (a *API) authed(h ownerHandler) http.Handler {
	return a.authn.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		owner, ok := auth.UserIDFromContext(r.Context())
		if !ok {
			httputil.WriteJSONError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		h(w, r, owner)
	}))
}

func (a *API) schedule(w http.ResponseWriter, r *http.Request, owner string) {
	var pending, completed []task.Task

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		pending, err = a.store.Find(ctx, store.PendingTodo(owner))
		return err
	})
	g.Go(func() (err error) {
		completed, err = a.store.Find(ctx, store.RecentDoneRoots(owner, store.ScheduleHistoryLimit))
		return err
	})
	if err := g.Wait(); err != nil {
		a.storeFailure(w, "schedule", err)
		return
	}

	items := a.engine.Schedule(r.Context(), pending, completed)
	metrics.RecordSchedule(len(items))

	httputil.WriteJSON(w, ScheduleResponse{Schedule: items}, http.StatusOK)
}

func (a *API) productivityScore(w http.ResponseWriter, r *http.Request, owner string) {
	var completed, roots []task.Task

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		completed, err = a.store.Find(ctx, store.RecentDoneRoots(owner, store.RecentDoneLimit))
		return err
	})
	g.Go(func() (err error) {
		roots, err = a.store.Find(ctx, store.AllRoots(owner))
		return err
	})
	if err := g.Wait(); err != nil {
		a.storeFailure(w, "productivity", err)
		return
	}

	result := a.engine.Productivity(r.Context(), completed, len(roots))
	metrics.RecordScore("productivity", result.Score)

	httputil.WriteJSON(w, result, http.StatusOK)
}

func (a *API) burnoutScore(w http.ResponseWriter, r *http.Request, owner string) {
	roots, err := a.store.Find(r.Context(), store.AllRoots(owner))
	if err != nil {
		a.storeFailure(w, "burnout", err)
		return
	}

	result := a.engine.Burnout(r.Context(), roots)
	metrics.RecordScore("burnout", result.Score)

	httputil.WriteJSON(w, result, http.StatusOK)
}

func (a *API) estimate(w http.ResponseWriter, r *http.Request, owner string) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteJSONError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	defer func() {
		if err := r.Body.Close(); err != nil {
			a.log.Warnf("failed to close request body: %v", err)
		}
	}()

	var req EstimateRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			httputil.WriteJSONError(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
	}

	if strings.TrimSpace(req.Title) == "" {
		httputil.WriteJSONError(w, "Task title is required", http.StatusBadRequest)
		return
	}

	history, err := a.store.Find(r.Context(), store.SimilarDone(owner, engine.FirstToken(req.Title), engine.HistoryLimit))
	if err != nil {
		a.log.WarnEvent().Err(err).Str("owner", owner).Msg("similar task lookup failed, estimating without history")
		history = nil
	}

	est, err := a.engine.Estimate(r.Context(), req.Title, req.Description, history)
	if errors.Is(err, engine.ErrTitleRequired) {
		httputil.WriteJSONError(w, "Task title is required", http.StatusBadRequest)
		return
	}
	metrics.RecordEstimate(est.Source)

	httputil.WriteJSON(w, est, http.StatusOK)
}

func (a *API) coach(w http.ResponseWriter, r *http.Request, owner string) {
	completed, err := a.store.Find(r.Context(), store.RecentDoneRoots(owner, store.RecentDoneLimit))
	if err != nil {
		a.storeFailure(w, "coach", err)
		return
	}

	httputil.WriteJSON(w, a.engine.Coach(r.Context(), completed), http.StatusOK)
}

func (a *API) storeFailure(w http.ResponseWriter, endpoint string, err error) {
	a.log.Err(err).Str("endpoint", endpoint).Msg("task store query failed")
	httputil.WriteJSONError(w, "Failed to load tasks", http.StatusInternalServerError)
}
