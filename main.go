package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	"medimitra-membership-api/config"
	"medimitra-membership-api/enrollment"
	"medimitra-membership-api/handlers"
	"medimitra-membership-api/middleware"
	"medimitra-membership-api/queue"
	"medimitra-membership-api/services/checkout"
	"medimitra-membership-api/services/email"
	"medimitra-membership-api/services/gateway"
	"medimitra-membership-api/worker"
)

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		// Only log slow requests and errors.
		elapsed := time.Since(start)
		if elapsed > 500*time.Millisecond || wrapper.status >= 400 {
			log.Printf(
				"%s %s %s %d %v",
				r.Method,
				r.RequestURI,
				r.RemoteAddr,
				wrapper.status,
				elapsed,
			)
		}
	})
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile | log.Lmicroseconds | log.LUTC)

	numCPU := runtime.NumCPU()
	runtime.GOMAXPROCS(numCPU)
	log.Printf("Server starting with %d CPUs available", numCPU)

	cfg := config.Load()
	log.Printf("Configuration loaded successfully")

	// Remote membership API client. Nothing is persisted locally; everything
	// beyond the in-memory enrollment session lives behind this API.
	gatewayClient := gateway.NewClient(cfg.Remote.BaseURL)

	// Notification queue and worker are best-effort: without Redis the flow
	// still runs, only welcome emails and support escalations are skipped.
	var notifWorker *worker.NotificationWorker

	jobQueue, err := queue.NewQueue(cfg.Redis.URL, "notification_jobs")
	if err != nil {
		log.Printf("Warning: Redis unavailable, notifications disabled: %v", err)
		jobQueue = nil
	} else {
		log.Println("Successfully connected to Redis")

		workerConcurrency := cfg.Redis.WorkerConcurrency
		if workerConcurrency < 1 {
			workerConcurrency = 1
		} else if workerConcurrency > 8 {
			workerConcurrency = 8
		}

		emailService := email.NewSMTPService(cfg.SMTP)
		notifWorker = worker.NewNotificationWorker(jobQueue, emailService, workerConcurrency)
		notifWorker.Start()
	}

	steps := enrollment.NewController(gatewayClient)

	sessionTTL := time.Duration(cfg.Session.MaxAge) * time.Second
	registry := enrollment.NewRegistry(sessionTTL)
	defer registry.Close()

	loader := checkout.NewLoader(cfg.Checkout.ScriptURL, nil)
	tokens := checkout.NewTokenIssuer(cfg.Checkout.TokenSecret)
	bridge := checkout.NewBridge(gatewayClient, loader, tokens, steps, jobQueue,
		cfg.Checkout.KeyID, cfg.Checkout.ThemeColor)

	store := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   cfg.Session.Domain,
		MaxAge:   cfg.Session.MaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	enrollmentHandler := handlers.NewEnrollmentHandler(registry, steps, store)
	paymentHandler := handlers.NewPaymentHandler(registry, bridge, store)
	plansHandler := handlers.NewPlansHandler()

	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.Use(loggingMiddleware)

	// Rate limiting shares the Redis instance with the queue and fails open
	// when Redis is down.
	if rateLimiter, rlErr := middleware.NewRateLimiter(cfg.Redis.URL); rlErr != nil {
		log.Printf("Warning: rate limiting disabled: %v", rlErr)
	} else {
		router.Use(rateLimiter.RateLimitMiddleware())
		defer rateLimiter.Close()
	}

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/plans", plansHandler.GetPlans).Methods("GET", "OPTIONS")

	api.HandleFunc("/enrollment/start", enrollmentHandler.Start).Methods("POST", "OPTIONS")
	api.HandleFunc("/enrollment", enrollmentHandler.Snapshot).Methods("GET", "OPTIONS")
	api.HandleFunc("/enrollment/field", enrollmentHandler.UpdateField).Methods("POST", "OPTIONS")
	api.HandleFunc("/enrollment/family-count", enrollmentHandler.SetFamilyCount).Methods("POST", "OPTIONS")
	api.HandleFunc("/enrollment/family-member", enrollmentHandler.UpdateFamilyMember).Methods("POST", "OPTIONS")
	api.HandleFunc("/enrollment/next", enrollmentHandler.Next).Methods("POST", "OPTIONS")
	api.HandleFunc("/enrollment/back", enrollmentHandler.Back).Methods("POST", "OPTIONS")
	api.HandleFunc("/enrollment/quote", enrollmentHandler.Quote).Methods("GET", "OPTIONS")
	api.HandleFunc("/enrollment/outcome", enrollmentHandler.Outcome).Methods("GET", "OPTIONS")
	api.HandleFunc("/enrollment/outcome", enrollmentHandler.DismissOutcome).Methods("DELETE", "OPTIONS")

	api.HandleFunc("/enrollment/pay", paymentHandler.Pay).Methods("POST", "OPTIONS")
	api.HandleFunc("/checkout/callback", paymentHandler.Callback).Methods("POST", "OPTIONS")

	startTime := time.Now()

	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		health := struct {
			Status    string `json:"status"`
			Time      string `json:"time"`
			Redis     string `json:"redis"`
			Sessions  int    `json:"sessions"`
			Uptime    string `json:"uptime"`
			GoVersion string `json:"go_version"`
		}{
			Status:    "ok",
			Time:      time.Now().Format(time.RFC3339),
			Redis:     "connected",
			Sessions:  registry.Len(),
			Uptime:    fmt.Sprintf("%v", time.Since(startTime)),
			GoVersion: runtime.Version(),
		}

		if jobQueue == nil {
			health.Status = "degraded"
			health.Redis = "disabled"
		} else {
			redisCtx, redisCancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			defer redisCancel()
			if err := jobQueue.Client().Ping(redisCtx).Err(); err != nil {
				health.Status = "degraded"
				health.Redis = "error"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(health)
	}).Methods("GET")

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   45 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	<-stop
	log.Println("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	log.Println("Shutting down HTTP server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if notifWorker != nil {
		notifWorker.Stop()
	}
	if jobQueue != nil {
		log.Println("Closing Redis connections...")
		jobQueue.Close()
	}

	registry.Close()

	log.Println("Server exited properly")
}
