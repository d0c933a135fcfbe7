package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/P4R1H/affiliate-platform/internal/model"
	"github.com/P4R1H/affiliate-platform/internal/quality"
	"github.com/P4R1H/affiliate-platform/internal/reconcile"
	"github.com/P4R1H/affiliate-platform/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the submission API, reconciliation worker, and retry loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		mux := buildMux(env)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return env.Worker.Run(gctx) })
		g.Go(func() error { return env.Requeuer.Run(gctx) })
		g.Go(func() error {
			zap.L().Info("starting server", zap.Int("port", port))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				return eris.Wrap(err, "server listen")
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(cmd.Context())
			// Closing the queue lets the worker drain and exit.
			env.Queue.Shutdown()
			return nil
		})

		return g.Wait()
	},
}

// buildMux wires the API routes onto a fresh mux.
func buildMux(env *pipelineEnv) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /api/v1/submissions", env.handleSubmission)
	mux.HandleFunc("GET /api/v1/reconciliation/status", env.handleStatus)
	mux.HandleFunc("GET /api/v1/reports/{id}", env.handleGetReport)
	mux.HandleFunc("GET /api/v1/alerts", env.handleListAlerts)

	return mux
}

type submissionRequest struct {
	AffiliateID string         `json:"affiliate_id"`
	PostID      string         `json:"post_id"`
	Integration string         `json:"integration"`
	URL         string         `json:"url"`
	Claimed     model.Metrics  `json:"claimed"`
	HasEvidence bool           `json:"has_evidence"`
	Previous    *model.Metrics `json:"previous,omitempty"`
}

// handleSubmission validates a claimed-metrics submission, evaluates the
// data-quality rules, persists the report, and enqueues reconciliation at
// a trust-derived priority.
func (pe *pipelineEnv) handleSubmission(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.AffiliateID == "" {
		writeError(w, http.StatusBadRequest, "affiliate_id is required")
		return
	}
	if req.Claimed.Views < 0 || req.Claimed.Clicks < 0 || req.Claimed.Conversions < 0 {
		writeError(w, http.StatusBadRequest, "claimed metrics must be non-negative")
		return
	}

	affiliate, err := pe.Store.GetAffiliate(ctx, req.AffiliateID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown affiliate")
		return
	}
	if err != nil {
		zap.L().Error("affiliate lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "affiliate lookup failed")
		return
	}

	var post *model.Post
	if req.PostID != "" {
		post, err = pe.Store.GetPost(ctx, req.PostID)
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "unknown post")
			return
		}
		if err != nil {
			zap.L().Error("post lookup failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "post lookup failed")
			return
		}
	} else {
		if req.Integration == "" || req.URL == "" {
			writeError(w, http.StatusBadRequest, "integration and url are required when post_id is absent")
			return
		}
		post = &model.Post{
			ID:          uuid.NewString(),
			AffiliateID: req.AffiliateID,
			Integration: req.Integration,
			URL:         req.URL,
		}
		if err := pe.Store.CreatePost(ctx, post); err != nil {
			zap.L().Error("post create failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "post create failed")
			return
		}
	}

	flags := quality.Evaluate(quality.Submission{
		Claimed:     req.Claimed,
		HasEvidence: req.HasEvidence,
		Previous:    req.Previous,
	}, cfg.Quality)

	report := &model.AffiliateReport{
		ID:             uuid.NewString(),
		PostID:         post.ID,
		Claimed:        req.Claimed,
		HasEvidence:    req.HasEvidence,
		SuspicionFlags: flags,
		SubmittedAt:    time.Now().UTC(),
	}
	if err := pe.Store.CreateReport(ctx, report); err != nil {
		zap.L().Error("report create failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "report create failed")
		return
	}

	priority := reconcile.ComputePriority(affiliate.TrustScore, quality.Suspicious(flags), cfg.Trust)
	job := model.ReconciliationJob{
		ReportID:      report.ID,
		Priority:      priority,
		CorrelationID: uuid.NewString(),
	}
	if err := pe.Queue.Enqueue(job, priority, 0); err != nil {
		zap.L().Warn("enqueue failed", zap.String("report_id", report.ID), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "reconciliation queue unavailable")
		return
	}

	zap.L().Info("submission accepted",
		zap.String("report_id", report.ID),
		zap.String("affiliate_id", req.AffiliateID),
		zap.String("priority", priority),
		zap.Int("suspicion_flags", len(flags)),
	)

	writeJSON(w, http.StatusAccepted, map[string]any{
		"report_id":       report.ID,
		"post_id":         post.ID,
		"priority":        priority,
		"suspicion_flags": flags,
	})
}

// handleStatus reports queue depth, breaker states, and verdict counts.
func (pe *pipelineEnv) handleStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := pe.Store.CountByStatus(r.Context())
	if err != nil {
		zap.L().Error("status counts failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "status counts failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"queue":    pe.Queue.Snapshot(),
		"breakers": pe.Fetcher.BreakerSnapshot(),
		"statuses": counts,
	})
}

// handleGetReport returns a report with its attempt record and any alert.
func (pe *pipelineEnv) handleGetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	report, err := pe.Store.GetReport(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "unknown report")
		return
	}
	if err != nil {
		zap.L().Error("report lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "report lookup failed")
		return
	}

	resp := map[string]any{"report": report}
	log, err := pe.Store.GetLogByReport(ctx, id)
	if err == nil {
		resp["reconciliation"] = log
		if alert, err := pe.Store.GetAlertByLog(ctx, log.ID); err == nil {
			resp["alert"] = alert
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		zap.L().Error("log lookup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "log lookup failed")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// handleListAlerts lists alerts filtered by affiliate and category.
func (pe *pipelineEnv) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	filter := store.AlertFilter{
		AffiliateID: r.URL.Query().Get("affiliate_id"),
		Category:    model.AlertCategory(r.URL.Query().Get("category")),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}

	alerts, err := pe.Store.ListAlerts(r.Context(), filter)
	if err != nil {
		zap.L().Error("alert list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "alert list failed")
		return
	}
	if alerts == nil {
		alerts = []model.Alert{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
