package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/linesmerrill/violation-case-api/api"
	"github.com/linesmerrill/violation-case-api/api/scheduler"
	"github.com/linesmerrill/violation-case-api/audit"
	"github.com/linesmerrill/violation-case-api/config"
	"github.com/linesmerrill/violation-case-api/databases"
	"github.com/linesmerrill/violation-case-api/documents"
	"github.com/linesmerrill/violation-case-api/mailer"
	"github.com/linesmerrill/violation-case-api/metrics"
	"github.com/linesmerrill/violation-case-api/models"
	"github.com/linesmerrill/violation-case-api/notification"
	"github.com/linesmerrill/violation-case-api/reauth"
	"github.com/linesmerrill/violation-case-api/workflow"
)

const tokenCacheTTL = 5 * time.Minute

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Metrics   *metrics.Metrics
	Scheduler *scheduler.Scheduler

	registry *prometheus.Registry
	client   databases.ClientHelper
	dbHelper databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	if a.registry == nil {
		a.registry = prometheus.NewRegistry()
		a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		a.Metrics = metrics.New(a.registry)
	}

	userDB := databases.NewUserDatabase(a.dbHelper)
	caseDB := databases.NewCaseDatabase(a.dbHelper)
	hearingDB := databases.NewHearingDatabase(a.dbHelper)
	remarkDB := databases.NewRemarkDatabase(a.dbHelper)
	lockDB := databases.NewLockDatabase(a.dbHelper)

	hub := notification.NewHub()
	notifier := notification.NewService(databases.NewNotificationDatabase(a.dbHelper), userDB, hub)
	mail := mailer.New(a.Config.SendgridAPIKey, a.Config.MailFromName, a.Config.MailFromEmail)
	docs, err := documents.NewFromURL(a.Config.CloudinaryURL)
	if err != nil {
		zap.S().Errorw("failed to configure document store, references will not be verified", "error", err)
		docs = documents.NewStore(nil)
	}
	reauthService := &reauth.Service{
		Tokens:       databases.NewReauthTokenDatabase(a.dbHelper),
		Secret:       []byte(a.Config.JWTSecret),
		TokenTTL:     a.Config.ReauthTokenTTL,
		SessionTTL:   a.Config.ApplicantJWTTTL,
		PublicWebURL: a.Config.PublicWebURL,
		Now:          time.Now,
	}

	tx := workflow.NewDirectTx()
	if a.Config.Transactions && a.client != nil {
		tx = workflow.NewMongoTx(a.client)
	}
	orchestrator := workflow.NewOrchestrator(workflow.Orchestrator{
		Cases:        caseDB,
		Hearings:     hearingDB,
		Remarks:      remarkDB,
		Users:        userDB,
		Notifier:     notifier,
		Mailer:       mail,
		Auditor:      audit.New(databases.NewAuditLogDatabase(a.dbHelper)),
		Documents:    docs,
		Locks:        lockDB,
		Tx:           tx,
		Reauth:       reauthService,
		Metrics:      a.Metrics,
		LockTTL:      a.Config.CaseLockTTL,
		PublicWebURL: a.Config.PublicWebURL,
	})

	a.Scheduler = scheduler.NewScheduler(caseDB, hearingDB, notifier, mail, reauthService, lockDB, a.Metrics, a.Config.PublicWebURL)

	m := api.NewAuthenticator(userDB, []byte(a.Config.JWTSecret), tokenCacheTTL)
	timeout := api.TimeoutMiddleware(a.Config.RequestTimeout)
	protected := func(h http.HandlerFunc) http.Handler {
		return m.Middleware(timeout(h))
	}

	c := Case{Service: orchestrator, DB: caseDB, HDB: hearingDB, RDB: remarkDB}
	n := Notification{Service: notifier, Hub: hub}
	re := Reauth{Service: reauthService}

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware(a.Metrics))

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)
	r.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/cases", protected(c.CreateCaseHandler)).Methods("POST")
	apiCreate.Handle("/cases", protected(c.CasesHandler)).Methods("GET")
	apiCreate.Handle("/cases/tracking/{tracking_code}", protected(c.CaseByTrackingCodeHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}", protected(c.CaseByIDHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/hearings", protected(c.CaseHearingsHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/remarks", protected(c.CaseRemarksHandler)).Methods("GET")
	apiCreate.Handle("/cases/{case_id}/transitions/{action}", protected(c.TransitionHandler)).Methods("POST")

	apiCreate.Handle("/reauth/redeem", timeout(http.HandlerFunc(re.RedeemHandler))).Methods("POST")

	apiCreate.Handle("/users/{user_id}/notifications", protected(n.UserNotificationsHandler)).Methods("GET")
	apiCreate.Handle("/ws/notifications", m.Middleware(http.HandlerFunc(n.WebSocketHandler))).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize(ctx context.Context) error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().Errorw("failed to create new client", "error", err)
		return err
	}
	a.client = client

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect(ctx)
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().Errorw("failed to connect to database", "error", err)
		return err
	}
	zap.S().Info("violation-case-api has connected to the database")

	if err := databases.EnsureIndexes(ctx, a.dbHelper); err != nil {
		return fmt.Errorf("failed to ensure indexes: %w", err)
	}
	if len(a.Config.JWTSecret) == 0 {
		return fmt.Errorf("JWT_SECRET is not set")
	}

	// initialize api router
	a.initializeRoutes()
	return nil
}

// Close stops background jobs and disconnects from the database
func (a *App) Close(ctx context.Context) {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.client != nil {
		if err := a.client.Disconnect(ctx); err != nil {
			zap.S().Errorw("failed to disconnect from database", "error", err)
		}
	}
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}
