package main

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/anvitrao/shabdcount/internal/config"
	"github.com/anvitrao/shabdcount/internal/count"
	"github.com/anvitrao/shabdcount/internal/metrics"
	"github.com/anvitrao/shabdcount/internal/upload"
	"github.com/anvitrao/shabdcount/internal/webui"
)

var (
	cfg config.Config

	requestSem *semaphore.Weighted
	svc        *count.Service

	// Per-IP rate limiters
	limiters = &sync.Map{}

	srvStats = &serverStats{}
)

type serverStats struct {
	mu            sync.RWMutex
	totalRequests int64
	activeReqs    int64
}

func (s *serverStats) incActive() {
	s.mu.Lock()
	s.activeReqs++
	s.totalRequests++
	s.mu.Unlock()
}
func (s *serverStats) decActive() {
	s.mu.Lock()
	s.activeReqs--
	s.mu.Unlock()
}
func (s *serverStats) get() (total, active int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totalRequests, s.activeReqs
}

func main() {
	cfg = config.Load()
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	initRuntime()

	maxHeaderBytes := 1 << 20
	if cfg.MaxHeaderBytes > 0 {
		maxHeaderBytes = cfg.MaxHeaderBytes
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newHandler(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    maxHeaderBytes,
	}

	if strings.TrimSpace(cfg.InternalSharedSecret) == "" {
		fmt.Fprintln(os.Stderr, "warning: INTERNAL_SHARED_SECRET not set (/metrics is open)")
	}

	go cleanupRateLimiters()

	fmt.Printf("shabdcount listening on %s (max concurrent: %d, pdf limit: %dMB)\n",
		srv.Addr, cfg.MaxConcurrentRequests, cfg.MaxPDFBytes/(1<<20))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}

func initRuntime() {
	requestSem = semaphore.NewWeighted(cfg.MaxConcurrentRequests)
	svc = count.NewService(cfg.MaxWordsReturned)
	limiters = &sync.Map{}
}

func newHandler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", handleHealth)
	mux.Handle("/metrics", withInternalAuth(promhttp.Handler().ServeHTTP))

	// Upload form and its submission both live at the root.
	mux.HandleFunc("/", withRateLimit(withConcurrencyLimit(handleIndex)))

	mux.HandleFunc("/api/count",
		withRateLimit(
			withMethod("POST",
				withConcurrencyLimit(handleCountAPI))))

	return withLogging(withRecovery(mux))
}

func cleanupRateLimiters() {
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		total, active := srvStats.get()
		fmt.Printf("[stats] active=%d total=%d goroutines=%d mem=%dMB\n",
			active, total, runtime.NumGoroutine(), m.Alloc/(1<<20))

		limiters = &sync.Map{}
	}
}

// ---------- Handlers ----------

func handleHealth(w http.ResponseWriter, r *http.Request) {
	_, active := srvStats.get()
	status := "healthy"
	code := http.StatusOK

	ratio := cfg.HealthDegradeRatio
	if ratio <= 0 || ratio > 1 {
		ratio = 0.9
	}

	if active >= int64(float64(cfg.MaxConcurrentRequests)*ratio) {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":  status,
		"active":  active,
		"version": "1.0.0",
	})
}

func handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		renderIndex(w, http.StatusOK, webui.View{})
	case http.MethodPost:
		handleFormUpload(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeErr(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method must be GET or POST")
	}
}

func handleFormUpload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), cfg.CountTimeout)
	defer cancel()

	file, err := readUpload(w, r)
	if err != nil {
		metrics.DocumentsTotal.WithLabelValues("rejected").Inc()
		renderIndex(w, http.StatusBadRequest, webui.View{Error: sanitizeError(err)})
		return
	}

	res, err := svc.Count(ctx, file, nil)
	if err != nil {
		metrics.DocumentsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		renderIndex(w, http.StatusBadRequest, webui.View{FileName: file.FileName, Error: userMessage(err)})
		return
	}

	recordCounted(res)

	wc := res.WordCount
	renderIndex(w, http.StatusOK, webui.View{FileName: res.FileName, WordCount: &wc})
}

func handleCountAPI(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), cfg.CountTimeout)
	defer cancel()

	file, err := readUpload(w, r)
	if err != nil {
		metrics.DocumentsTotal.WithLabelValues("rejected").Inc()
		writeErr(w, http.StatusBadRequest, "bad_request", sanitizeError(err))
		return
	}

	options := map[string]any{}
	if v := strings.TrimSpace(r.FormValue("includeWords")); v != "" {
		options["includeWords"] = v
	}

	res, err := svc.Count(ctx, file, options)
	if err != nil {
		metrics.DocumentsTotal.WithLabelValues(outcomeLabel(err)).Inc()
		writeJSON(w, http.StatusBadRequest, res)
		return
	}

	recordCounted(res)
	writeJSON(w, http.StatusOK, res)
}

// readUpload pulls the single pdf_file field out of a multipart request
// and buffers it in memory. The whole body is capped a little above the
// PDF limit so oversized uploads fail fast.
func readUpload(w http.ResponseWriter, r *http.Request) (upload.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxPDFBytes+(1<<20))

	if err := r.ParseMultipartForm(cfg.MaxMultipartMemory); err != nil {
		return upload.File{}, fmt.Errorf("parse form: %w", err)
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	f, hdr, err := r.FormFile("pdf_file")
	if err != nil {
		return upload.File{}, fmt.Errorf("missing pdf_file field: %w", err)
	}
	defer f.Close()

	return upload.ReadFile(f, hdr.Filename, cfg.MaxPDFBytes)
}

func recordCounted(res count.Result) {
	metrics.DocumentsTotal.WithLabelValues("counted").Inc()
	metrics.PagesTotal.Add(float64(res.PageCount))
	metrics.WordsTotal.Add(float64(res.WordCount))
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, upload.ErrInvalidFileType):
		return "invalid_type"
	case count.IsParseError(err):
		return "parse_error"
	default:
		return "error"
	}
}

// userMessage maps a counting failure to the one line shown on the form
// page. Parse failures are never broken down further.
func userMessage(err error) string {
	if errors.Is(err, upload.ErrInvalidFileType) {
		return "Invalid file type. Please upload a PDF."
	}
	return count.ParseErrorMessage
}

func renderIndex(w http.ResponseWriter, status int, v webui.View) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := webui.RenderIndex(w, v); err != nil {
		fmt.Fprintf(os.Stderr, "render index: %v\n", err)
	}
}

// ---------- Middleware ----------

func withMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			w.Header().Set("Allow", method)
			writeErr(w, http.StatusMethodNotAllowed, "method_not_allowed", "Method must be "+method)
			return
		}
		next(w, r)
	}
}

func withInternalAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shared := cfg.InternalSharedSecret
		if shared == "" {
			next(w, r)
			return
		}
		got := r.Header.Get("X-Internal-Auth")
		if subtle.ConstantTimeCompare([]byte(got), []byte(shared)) != 1 {
			writeErr(w, http.StatusUnauthorized, "unauthorized", "Invalid authentication")
			return
		}
		next(w, r)
	}
}

func withConcurrencyLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := requestSem.Acquire(r.Context(), 1); err != nil {
			writeErr(w, http.StatusServiceUnavailable, "capacity", "Service at capacity")
			return
		}
		defer requestSem.Release(1)

		srvStats.incActive()
		defer srvStats.decActive()

		next(w, r)
	}
}

func withRateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := getClientIP(r)
		limiter := getRateLimiter(ip)

		if !limiter.Allow() {
			w.Header().Set("Retry-After", "60")
			writeErr(w, http.StatusTooManyRequests, "rate_limit", "Rate limit exceeded")
			return
		}
		next(w, r)
	}
}

func withRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				fmt.Fprintf(os.Stderr, "panic: %v\n", err)
				writeErr(w, http.StatusInternalServerError, "internal_error", "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &wrapWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		status := strconv.Itoa(ww.status)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(elapsed.Seconds())

		fmt.Printf("%s %s -> %d (%s)\n",
			r.Method, sanitizeLogString(r.URL.Path), ww.status, elapsed)
	})
}

type wrapWriter struct {
	http.ResponseWriter
	status int
}

func (w *wrapWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// ---------- Helpers ----------

func getRateLimiter(ip string) *rate.Limiter {
	if v, ok := limiters.Load(ip); ok {
		return v.(*rate.Limiter)
	}

	every := cfg.RateLimitEvery
	if every <= 0 {
		every = 600 * time.Millisecond // ~100/min
	}
	burst := cfg.RateLimitBurst
	if burst <= 0 {
		burst = 20
	}

	limiter := rate.NewLimiter(rate.Every(every), burst)
	limiters.Store(ip, limiter)
	return limiter
}

func getClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		if idx := strings.Index(ip, ","); idx > 0 {
			return strings.TrimSpace(ip[:idx])
		}
		return strings.TrimSpace(ip)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}

	host, _, _ := net.SplitHostPort(r.RemoteAddr)
	return host
}

func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	msg = strings.ReplaceAll(msg, os.TempDir(), "[tmp]")
	if len(msg) > 300 {
		msg = msg[:300] + "..."
	}
	return msg
}

func sanitizeLogString(s string) string {
	s = strings.ReplaceAll(s, "\n", "")
	s = strings.ReplaceAll(s, "\r", "")
	if len(s) > 200 {
		s = s[:200] + "..."
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   message,
		"code":    code,
	})
}
