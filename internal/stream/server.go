package stream

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/fincal/internal/fiscal"
	"github.com/sells-group/fincal/internal/model"
	"github.com/sells-group/fincal/internal/store"
)

// Options configures the HTTP surface.
type Options struct {
	// RequestsPerSecond caps accepted requests across all clients. Zero disables the limit.
	RequestsPerSecond float64
	Burst             int
	AllowedOrigins    []string
	MaxBodyBytes      int64
}

const defaultMaxBodyBytes = 1 << 20

// Server serves the payment webhook and the period lookup API.
type Server struct {
	store   store.Store
	tagger  *Tagger
	limiter *rate.Limiter
	opts    Options
	log     *zap.Logger
}

// NewServer returns a Server persisting to st.
func NewServer(st store.Store, resolver *fiscal.Resolver, opts Options) *Server {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	s := &Server{
		store:  st,
		tagger: NewTagger(resolver),
		opts:   opts,
		log:    zap.L().With(zap.String("component", "stream")),
	}
	if opts.RequestsPerSecond > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = max(1, int(opts.RequestsPerSecond))
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return s
}

// Handler returns the routed handler with CORS, recovery and rate limiting applied.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Group(func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Post("/api/payments/webhook", s.webhook)
		r.Get("/api/payments", s.listPayments)
		r.Get("/api/payments/{paymentID}", s.getPayment)
		r.Get("/api/periods", s.period)
	})
	return r
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type webhookResponse struct {
	Status          string `json:"status"`
	PaymentID       string `json:"payment_id"`
	Duplicate       bool   `json:"duplicate"`
	FinancialPeriod any    `json:"financial_period"`
}

func (s *Server) webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := DecodePayload(body)
	if err != nil {
		s.log.Debug("rejecting payment payload", zap.Error(err))
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ev := s.tagger.Tag(p, body)
	inserted, err := s.store.SavePayment(r.Context(), ev)
	if err != nil {
		s.log.Error("store payment failed", zap.String("payment_id", ev.PaymentID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to store payment")
		return
	}

	var period any
	if code := ev.Fiscal.Code(); code != "" {
		period = code
	} else {
		s.log.Warn("payment has no financial period", zap.String("payment_id", ev.PaymentID))
	}
	s.log.Info("payment received",
		zap.String("payment_id", ev.PaymentID),
		zap.Float64("amount", ev.Amount),
		zap.Any("financial_period", period),
		zap.Bool("duplicate", !inserted),
	)
	writeJSON(w, http.StatusAccepted, webhookResponse{
		Status:          "accepted",
		PaymentID:       ev.PaymentID,
		Duplicate:       !inserted,
		FinancialPeriod: period,
	})
}

func (s *Server) getPayment(w http.ResponseWriter, r *http.Request) {
	ev, err := s.store.GetPayment(r.Context(), chi.URLParam(r, "paymentID"))
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "payment not found")
		return
	}
	if err != nil {
		s.log.Error("get payment failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load payment")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	var filter store.PaymentFilter
	for name, dst := range map[string]*int{
		"financial_year":  &filter.FinancialYear,
		"financial_month": &filter.FinancialMonth,
		"limit":           &filter.Limit,
	} {
		v := r.URL.Query().Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, name+" must be a non-negative integer")
			return
		}
		*dst = n
	}

	events, err := s.store.ListPayments(r.Context(), filter)
	if err != nil {
		s.log.Error("list payments failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list payments")
		return
	}
	if events == nil {
		events = []model.PaymentEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// period resolves ?date= (any supported date format) or ?code= (YYYYMM).
func (s *Server) period(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date, code := strings.TrimSpace(q.Get("date")), strings.TrimSpace(q.Get("code"))

	var p fiscal.Period
	switch {
	case date != "":
		d, err := fiscal.ParseAny(date)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "unrecognised date")
			return
		}
		p = s.tagger.resolver.Resolve(d)
	case code != "":
		p = s.tagger.resolver.ResolveFromEncodedPeriod(code)
	default:
		writeError(w, http.StatusBadRequest, "date or code is required")
		return
	}
	if p.IsUnknown() {
		writeError(w, http.StatusUnprocessableEntity, "period cannot be resolved")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("stream: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
