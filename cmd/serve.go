package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ashdown-property/splitscan/internal/engine"
	"github.com/ashdown-property/splitscan/internal/model"
	"github.com/ashdown-property/splitscan/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the assessment HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		eng := newEngine(st, false)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(st, eng),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the API surface over the store and engine.
func newRouter(st store.Store, eng *engine.Engine) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/properties", func(r chi.Router) {
		r.Post("/", func(w http.ResponseWriter, req *http.Request) {
			var p model.Property
			if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if p.AddressLine1 == "" || p.Postcode == "" || p.EstimatedUnits <= 0 {
				writeError(w, http.StatusBadRequest, "address_line1, postcode and estimated_units are required")
				return
			}
			if err := st.UpsertProperty(req.Context(), &p); err != nil {
				writeError(w, http.StatusInternalServerError, "save property")
				return
			}
			writeJSON(w, http.StatusCreated, &p)
		})

		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
			props, err := st.ListProperties(req.Context(), store.PropertyFilter{
				Postcode: req.URL.Query().Get("postcode"),
				Limit:    limit,
			})
			if err != nil {
				writeError(w, http.StatusInternalServerError, "list properties")
				return
			}
			writeJSON(w, http.StatusOK, props)
		})

		r.Route("/{propertyID}", func(r chi.Router) {
			r.Get("/", func(w http.ResponseWriter, req *http.Request) {
				p, err := st.GetProperty(req.Context(), chi.URLParam(req, "propertyID"))
				if err != nil {
					respondStoreError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, p)
			})

			r.Get("/snapshot", func(w http.ResponseWriter, req *http.Request) {
				snap, err := st.GetSnapshot(req.Context(), chi.URLParam(req, "propertyID"))
				if err != nil {
					respondStoreError(w, err)
					return
				}
				writeJSON(w, http.StatusOK, snap)
			})

			r.Put("/snapshot", func(w http.ResponseWriter, req *http.Request) {
				propertyID := chi.URLParam(req, "propertyID")
				var delta model.VerificationSnapshot
				if err := json.NewDecoder(req.Body).Decode(&delta); err != nil {
					writeError(w, http.StatusBadRequest, "invalid request body")
					return
				}
				if _, err := st.GetProperty(req.Context(), propertyID); err != nil {
					respondStoreError(w, err)
					return
				}
				snap, err := st.GetSnapshot(req.Context(), propertyID)
				if err != nil {
					if !eris.Is(err, store.ErrNotFound) {
						writeError(w, http.StatusInternalServerError, "load snapshot")
						return
					}
					snap = &model.VerificationSnapshot{PropertyID: propertyID}
				}
				snap.Merge(&delta)
				if err := st.SaveSnapshot(req.Context(), snap); err != nil {
					writeError(w, http.StatusInternalServerError, "save snapshot")
					return
				}
				writeJSON(w, http.StatusOK, snap)
			})

			r.Post("/assess", func(w http.ResponseWriter, req *http.Request) {
				result, err := eng.Assess(req.Context(), chi.URLParam(req, "propertyID"))
				if err != nil {
					if eris.Is(err, store.ErrNotFound) {
						writeError(w, http.StatusNotFound, "property not found")
						return
					}
					zap.L().Error("assessment failed", zap.Error(err))
					writeError(w, http.StatusInternalServerError, "assessment failed")
					return
				}
				writeJSON(w, http.StatusOK, result)
			})

			r.Get("/recommendation", func(w http.ResponseWriter, req *http.Request) {
				runs, err := st.ListAssessments(req.Context(), chi.URLParam(req, "propertyID"), 1)
				if err != nil {
					writeError(w, http.StatusInternalServerError, "list assessments")
					return
				}
				if len(runs) == 0 {
					writeError(w, http.StatusNotFound, "no assessment yet")
					return
				}
				// The stored result is the full assessment payload.
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusOK)
				w.Write(runs[0].Result)
			})

			r.Get("/assessments", func(w http.ResponseWriter, req *http.Request) {
				limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
				runs, err := st.ListAssessments(req.Context(), chi.URLParam(req, "propertyID"), limit)
				if err != nil {
					writeError(w, http.StatusInternalServerError, "list assessments")
					return
				}
				writeJSON(w, http.StatusOK, runs)
			})
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func respondStoreError(w http.ResponseWriter, err error) {
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeError(w, http.StatusInternalServerError, "store error")
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
