// Package api is the HTTP surface of the service.
package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"lifesure/internal/common/auth"
	"lifesure/internal/common/config"
	stderrors "lifesure/internal/common/errors"
	"lifesure/internal/common/logger"
	"lifesure/internal/common/validation"
	"lifesure/internal/lifecycle"
	"lifesure/internal/models"
	"lifesure/internal/payment"
	"lifesure/internal/search"
	"lifesure/internal/store"
)

// Lifecycle is the orchestrator surface the handlers call.
type Lifecycle interface {
	SubmitApplication(ctx context.Context, actor lifecycle.Actor, in lifecycle.SubmitApplicationInput) (*models.Application, error)
	AssignAgent(ctx context.Context, actor lifecycle.Actor, applicationID, agentEmail string, version int64) (*models.Application, error)
	RejectApplication(ctx context.Context, actor lifecycle.Actor, applicationID, feedback string, version int64) (*models.Application, error)
	SetApplicationStatus(ctx context.Context, actor lifecycle.Actor, applicationID string, to models.ApplicationStatus, feedback string, version int64) (*models.Application, error)
	RecordPayment(ctx context.Context, actor lifecycle.Actor, in lifecycle.RecordPaymentInput) (*models.Transaction, error)
	SubmitClaim(ctx context.Context, actor lifecycle.Actor, in lifecycle.SubmitClaimInput) (*models.Claim, error)
	ApproveClaim(ctx context.Context, actor lifecycle.Actor, claimID string) (*models.Claim, error)
}

// IntentCreator opens payment intents with the gateway.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amount int64, applicationID string) (*payment.Intent, error)
}

// Uploader pushes files to the image host.
type Uploader interface {
	Upload(ctx context.Context, filename string, file io.Reader) (string, error)
	MaxBytes() int64
}

// PolicySearcher is the catalog index surface.
type PolicySearcher interface {
	Search(ctx context.Context, q search.Query) (*search.Result, error)
	Index(ctx context.Context, policy *models.Policy) error
	Delete(ctx context.Context, id string) error
}

// SessionCache is the session store surface the API uses.
type SessionCache interface {
	RoleCache
	Drop(ctx context.Context, sessionID string) error
	AcquireOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// Deps carries everything the server needs.
type Deps struct {
	Config    config.ServerConfig
	Logger    logger.Logger
	Verifier  *auth.Verifier
	Validator *validation.Validator
	Sessions  SessionCache
	Lifecycle Lifecycle
	Gateway   IntentCreator
	Uploader  Uploader
	Search    PolicySearcher

	Applications *store.ApplicationRepo
	Claims       *store.ClaimRepo
	Policies     *store.PolicyRepo
	Transactions *store.TransactionRepo
	Users        *store.UserRepo
	Content      *store.ContentRepo
}

// Server routes requests to the handlers.
type Server struct {
	cfg       config.ServerConfig
	router    *mux.Router
	logger    logger.Logger
	errs      *stderrors.ErrorHandler
	verifier  *auth.Verifier
	validator *validation.Validator
	sessions  SessionCache
	roleCache RoleCache
	roles     RoleSource
	lifecycle Lifecycle
	gateway   IntentCreator
	uploader  Uploader
	index     PolicySearcher

	applications *store.ApplicationRepo
	claims       *store.ClaimRepo
	policies     *store.PolicyRepo
	transactions *store.TransactionRepo
	users        *store.UserRepo
	content      *store.ContentRepo
}

func NewServer(d Deps) *Server {
	s := &Server{
		cfg:       d.Config,
		router:    mux.NewRouter(),
		logger:    d.Logger,
		errs:      stderrors.NewErrorHandler(d.Logger),
		verifier:  d.Verifier,
		validator: d.Validator,
		sessions:  d.Sessions,
		roleCache: d.Sessions,
		roles:     d.Users,
		lifecycle: d.Lifecycle,
		gateway:   d.Gateway,
		uploader:  d.Uploader,
		index:     d.Search,

		applications: d.Applications,
		claims:       d.Claims,
		policies:     d.Policies,
		transactions: d.Transactions,
		users:        d.Users,
		content:      d.Content,
	}
	s.routes()
	return s
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) routes() {
	s.router.Use(s.requestLogger, s.metricsMiddleware)

	// Public surface.
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	s.router.HandleFunc("/policies", s.handleListPolicies).Methods(http.MethodGet)
	s.router.HandleFunc("/policies/popular", s.handlePopularPolicies).Methods(http.MethodGet)
	s.router.HandleFunc("/policies/recent", s.handleRecentPolicies).Methods(http.MethodGet)
	s.router.HandleFunc("/policies/{id}", s.handleGetPolicy).Methods(http.MethodGet)
	s.router.HandleFunc("/blogs", s.handleListBlogs).Methods(http.MethodGet)
	s.router.HandleFunc("/blogs/latest", s.handleLatestBlogs).Methods(http.MethodGet)
	s.router.HandleFunc("/blogs/{id}", s.handleGetBlog).Methods(http.MethodGet)
	s.router.HandleFunc("/reviews", s.handleListReviews).Methods(http.MethodGet)
	s.router.HandleFunc("/agents/top", s.handleTopAgents).Methods(http.MethodGet)
	s.router.HandleFunc("/newsletter", s.handleNewsletterSubscribe).Methods(http.MethodPost)
	s.router.HandleFunc("/quote", s.handleQuote).Methods(http.MethodPost)
	s.router.HandleFunc("/users", s.handleUpsertUser).Methods(http.MethodPost)

	// Everything below requires a verified identity.
	authed := s.router.NewRoute().Subrouter()
	authed.Use(s.authenticate)

	authed.HandleFunc("/auth/signout", s.handleSignOut).Methods(http.MethodPost)
	authed.HandleFunc("/users/role/{email}", s.handleUserRole).Methods(http.MethodGet)
	authed.HandleFunc("/users/profile", s.handleUserProfile).Methods(http.MethodGet)
	authed.HandleFunc("/users/{email}", s.handleUpdateProfile).Methods(http.MethodPatch)
	authed.HandleFunc("/uploads", s.handleUpload).Methods(http.MethodPost)

	// Customer surface.
	customer := authed.NewRoute().Subrouter()
	customer.Use(s.requireRole(models.RoleCustomer))
	customer.Handle("/applications",
		s.doubleSubmitGuard(s.applicationSubmitKey)(http.HandlerFunc(s.handleSubmitApplication))).Methods(http.MethodPost)
	customer.HandleFunc("/applications/customer", s.handleCustomerApplications).Methods(http.MethodGet)
	customer.HandleFunc("/applications/approved", s.handleApprovedApplications).Methods(http.MethodGet)
	customer.HandleFunc("/payments/intent", s.handleCreateIntent).Methods(http.MethodPost)
	customer.HandleFunc("/payments", s.handleRecordPayment).Methods(http.MethodPost)
	customer.HandleFunc("/payments", s.handleCustomerPayments).Methods(http.MethodGet)
	customer.Handle("/claims",
		s.doubleSubmitGuard(s.claimSubmitKey)(http.HandlerFunc(s.handleSubmitClaim))).Methods(http.MethodPost)
	customer.HandleFunc("/claims", s.handleCustomerClaims).Methods(http.MethodGet)
	customer.HandleFunc("/reviews", s.handleCreateReview).Methods(http.MethodPost)

	// Agent surface.
	agent := authed.NewRoute().Subrouter()
	agent.Use(s.requireRole(models.RoleAgent))
	agent.HandleFunc("/applications/assigned", s.handleAssignedApplications).Methods(http.MethodGet)
	agent.HandleFunc("/applications/status/{id}", s.handleSetApplicationStatus).Methods(http.MethodPatch)
	agent.HandleFunc("/claims/all", s.handlePendingClaims).Methods(http.MethodGet)
	agent.HandleFunc("/claims/{id}", s.handleApproveClaim).Methods(http.MethodPatch)
	agent.HandleFunc("/dashboard/agent-summary", s.handleAgentSummary).Methods(http.MethodGet)

	// Blog authoring is open to agents and admins.
	author := authed.NewRoute().Subrouter()
	author.Use(s.requireRole(models.RoleAgent, models.RoleAdmin))
	author.HandleFunc("/blogs", s.handleCreateBlog).Methods(http.MethodPost)
	author.HandleFunc("/blogs/mine", s.handleMyBlogs).Methods(http.MethodGet)
	author.HandleFunc("/blogs/{id}", s.handleUpdateBlog).Methods(http.MethodPatch)
	author.HandleFunc("/blogs/{id}", s.handleDeleteBlog).Methods(http.MethodDelete)

	// Admin surface.
	admin := authed.NewRoute().Subrouter()
	admin.Use(s.requireRole(models.RoleAdmin))
	admin.HandleFunc("/applications", s.handleAllApplications).Methods(http.MethodGet)
	admin.HandleFunc("/applications/assign/{id}", s.handleAssignAgent).Methods(http.MethodPatch)
	admin.HandleFunc("/applications/reject/{id}", s.handleRejectApplication).Methods(http.MethodPatch)
	admin.HandleFunc("/users", s.handleListUsers).Methods(http.MethodGet)
	admin.HandleFunc("/users/role/{email}", s.handleSetUserRole).Methods(http.MethodPatch)
	admin.HandleFunc("/users/{email}", s.handleDeleteUser).Methods(http.MethodDelete)
	admin.HandleFunc("/policies", s.handleCreatePolicy).Methods(http.MethodPost)
	admin.HandleFunc("/policies/{id}", s.handleUpdatePolicy).Methods(http.MethodPut)
	admin.HandleFunc("/policies/{id}", s.handleDeletePolicy).Methods(http.MethodDelete)
	admin.HandleFunc("/transactions", s.handleAllTransactions).Methods(http.MethodGet)
	admin.HandleFunc("/admin/summary", s.handleAdminSummary).Methods(http.MethodGet)
}

// ---- response helpers ----

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("response encode failed", map[string]interface{}{"error": err.Error()})
	}
}

// decodeBody parses the request into a generic map and validates it against
// the named schema before binding.
func (s *Server) decodeBody(r *http.Request, schema string) (map[string]interface{}, error) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return nil, stderrors.NewValidationFailedError("request body is not valid JSON", nil)
	}
	if err := s.validator.Validate(schema, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
