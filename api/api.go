package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"task_app_backend/middleware"
	"task_app_backend/models"
	"task_app_backend/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
)

var (
	tasksCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tasks_created_total",
			Help: "Total number of tasks created through the API",
		},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of API request processing times",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

func init() {
	prometheus.MustRegister(tasksCreated)
	prometheus.MustRegister(requestDuration)
}

type TaskService interface {
	GetAllTasks(ctx context.Context) ([]models.TaskDto, error)
	GetAllOpenTasks(ctx context.Context) ([]models.TaskDto, error)
	GetAllClosedTasks(ctx context.Context) ([]models.TaskDto, error)
	GetTaskByID(ctx context.Context, id int64) (models.TaskDto, error)
	CreateTask(ctx context.Context, req models.TaskCreateRequest) (models.TaskDto, error)
	UpdateTask(ctx context.Context, id int64, req models.TaskUpdateRequest) (models.TaskDto, error)
	DeleteTask(ctx context.Context, id int64) (string, error)
}

type WorkerLister interface {
	ActiveWorkers(ctx context.Context) (map[string]string, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Server exposes the task service over HTTP. Workers, Health and
// RateLimiter are optional.
type Server struct {
	Tasks          TaskService
	Workers        WorkerLister
	Health         Pinger
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
	Log            log.FieldLogger
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	if err != nil {
		panic(fmt.Sprintf("register notblank validation: %v", err))
	}
	return v
}

func NewServer(tasks TaskService, logger log.FieldLogger) *Server {
	return &Server{Tasks: tasks, Log: logger, AllowedOrigins: []string{"*"}}
}

func (s *Server) GetAllTasks(w http.ResponseWriter, r *http.Request) {
	s.writeList(w, r, s.Tasks.GetAllTasks)
}

func (s *Server) GetAllOpenTasks(w http.ResponseWriter, r *http.Request) {
	s.writeList(w, r, s.Tasks.GetAllOpenTasks)
}

func (s *Server) GetAllClosedTasks(w http.ResponseWriter, r *http.Request) {
	s.writeList(w, r, s.Tasks.GetAllClosedTasks)
}

func (s *Server) writeList(w http.ResponseWriter, r *http.Request, list func(context.Context) ([]models.TaskDto, error)) {
	tasks, err := list(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if tasks == nil {
		tasks = []models.TaskDto{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	task, err := s.Tasks.GetTaskByID(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req models.TaskCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	task, err := s.Tasks.CreateTask(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	tasksCreated.Inc()
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req models.TaskUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, validationMessage(err), http.StatusBadRequest)
		return
	}

	task, err := s.Tasks.UpdateTask(r.Context(), id, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	msg, err := s.Tasks.DeleteTask(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(msg))
}

func (s *Server) GetActiveWorkers(w http.ResponseWriter, r *http.Request) {
	if s.Workers == nil {
		http.Error(w, "Event queue is not configured", http.StatusServiceUnavailable)
		return
	}
	workers, err := s.Workers.ActiveWorkers(r.Context())
	if err != nil {
		s.Log.WithError(err).Error("Failed to get active workers")
		http.Error(w, "Failed to get active workers", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, workers)
}

func (s *Server) Healthz(w http.ResponseWriter, r *http.Request) {
	if s.Health != nil {
		if err := s.Health.Ping(r.Context()); err != nil {
			s.Log.WithError(err).Warn("Health check failed")
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestLogger(s.Log))
	if s.RateLimiter != nil {
		r.Use(s.RateLimiter.Handler)
	}
	r.Use(middleware.SecurityHeaders)
	r.Use(observeDuration)

	c := cors.New(cors.Options{
		AllowedOrigins: s.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete,
		},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", s.Healthz)

	r.Route("/api", func(r chi.Router) {
		r.Get("/all-tasks", s.GetAllTasks)
		r.Get("/open-tasks", s.GetAllOpenTasks)
		r.Get("/closed-tasks", s.GetAllClosedTasks)
		r.Get("/task/{id}", s.GetTaskByID)
		r.Post("/create", s.CreateTask)
		r.Patch("/update/{id}", s.UpdateTask)
		r.Delete("/delete/{id}", s.DeleteTask)
		r.Get("/workers", s.GetActiveWorkers)
	})

	return c.Handler(r)
}

// writeError maps domain errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrBadRequest):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.Log.WithFields(log.Fields{
			"request_id": middleware.RequestID(r.Context()),
			"path":       r.URL.Path,
		}).WithError(err).Error("Request failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		http.Error(w, "Invalid task id: "+raw, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "notblank":
			msgs = append(msgs, "Task description can't be empty")
		case "oneof", "required":
			msgs = append(msgs, fe.Field()+" must be one of LOW, MEDIUM, HIGH")
		default:
			msgs = append(msgs, fe.Error())
		}
	}
	return strings.Join(msgs, "; ")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func observeDuration(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		requestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).
			Observe(time.Since(start).Seconds())
	})
}
