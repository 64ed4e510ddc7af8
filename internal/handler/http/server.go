package http

import (
	"RefStack-Backend/internal/auth"
	"RefStack-Backend/internal/ratelimit"
	"RefStack-Backend/internal/repository"
	"RefStack-Backend/internal/service"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// Rate limit groups
const (
	limitRedirect = "redirect"
	limitPublic   = "public"
	limitWebhook  = "webhook"
	limitAuth     = "auth"
)

// Services сервисный слой, который обслуживает HTTP API
type Services struct {
	Links         *service.LinkService
	Clicks        *service.ClickService
	Subscriptions *service.SubscriptionService
	Stripe        *service.StripeWebhookService
	PayPal        *service.PayPalWebhookService
	Coinbase      *service.CoinbaseWebhookService
	Profiles      *service.ProfileService
	Domains       *service.DomainService
}

// Server HTTP сервер с обработчиками
type Server struct {
	authHandlers         *auth.AuthHandlers
	linksHandler         *LinksHandler
	redirectHandler      *RedirectHandler
	healthHandler        *HealthHandler
	paymentHandler       *PaymentHandler
	subscriptionHandler  *SubscriptionHandler
	profileHandler       *ProfileHandler
	domainsHandler       *DomainsHandler
	notificationsHandler *NotificationsHandler
	authMiddleware       *auth.Middleware
	limiter              *ratelimit.Limiter
	log                  *zap.Logger
}

// NewServer создает новый HTTP сервер. limiter может быть nil.
func NewServer(
	storage repository.Storage,
	services Services,
	jwtService *auth.JWTService,
	passwordService *auth.PasswordService,
	limiter *ratelimit.Limiter,
	allowedOrigins []string,
	version string,
	log *zap.Logger,
) *Server {
	return &Server{
		authHandlers:         auth.NewAuthHandlers(storage, jwtService, passwordService, log),
		linksHandler:         NewLinksHandler(services.Links, log),
		redirectHandler:      NewRedirectHandler(services.Clicks, log),
		healthHandler:        NewHealthHandler(storage, version, log),
		paymentHandler:       NewPaymentHandler(services.Stripe, services.PayPal, services.Coinbase, storage, log),
		subscriptionHandler:  NewSubscriptionHandler(services.Subscriptions, log),
		profileHandler:       NewProfileHandler(services.Profiles, log),
		domainsHandler:       NewDomainsHandler(services.Domains, log),
		notificationsHandler: NewNotificationsHandler(storage, log),
		authMiddleware:       auth.NewMiddleware(jwtService, allowedOrigins, log),
		limiter:              limiter,
		log:                  log,
	}
}

// SetupRoutes настраивает маршруты
func (s *Server) SetupRoutes() http.Handler {
	mux := http.NewServeMux()
	requireAuth := s.authMiddleware.RequireAuth

	// Health checks (без аутентификации)
	mux.HandleFunc("GET /health", s.healthHandler.Health)
	mux.HandleFunc("GET /ready", s.healthHandler.Ready)

	// Swagger документация
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Auth endpoints
	mux.HandleFunc("POST /api/auth/register", s.limit(limitAuth, s.authHandlers.Register))
	mux.HandleFunc("POST /api/auth/login", s.limit(limitAuth, s.authHandlers.Login))
	mux.HandleFunc("POST /api/auth/refresh", s.limit(limitAuth, s.authHandlers.Refresh))

	// Referral links (с аутентификацией)
	mux.HandleFunc("/api/referral-links", requireAuth(s.linksHandler.ServeHTTP))
	mux.HandleFunc("/api/referral-links/stats", requireAuth(s.linksHandler.GetStats))

	// Subscriptions
	mux.HandleFunc("/api/subscriptions/plans", s.subscriptionHandler.ListSubscriptionPlans)
	mux.HandleFunc("/api/subscriptions", requireAuth(s.subscriptionHandler.ServeHTTP))
	mux.HandleFunc("/api/invoices", requireAuth(s.paymentHandler.ListInvoices))
	mux.HandleFunc("/api/notifications", requireAuth(s.notificationsHandler.ListNotifications))

	// Payment webhooks (без аутентификации, проверяется подпись)
	mux.HandleFunc("/api/payments/stripe/webhook", s.limit(limitWebhook, s.paymentHandler.StripeWebhook))
	mux.HandleFunc("/api/payments/paypal/webhook", s.limit(limitWebhook, s.paymentHandler.PayPalWebhook))
	mux.HandleFunc("/api/payments/crypto/webhook", s.limit(limitWebhook, s.paymentHandler.CryptoWebhook))

	// Публичные страницы
	mux.HandleFunc("GET /api/public-profile/{username}", s.limit(limitPublic, s.profileHandler.GetPublicProfile))
	mux.HandleFunc("GET /api/public-referrals/{username}", s.limit(limitPublic, s.profileHandler.GetPublicReferrals))

	// Custom domains
	mux.HandleFunc("/api/custom-domains", requireAuth(s.domainsHandler.ServeHTTP))
	mux.HandleFunc("/api/custom-domains/verify", requireAuth(s.domainsHandler.VerifyDomain))
	mux.HandleFunc("/api/custom-domains/ssl", requireAuth(s.domainsHandler.MarkSSL))

	// Redirect endpoint (без аутентификации)
	mux.HandleFunc("GET /r/{code}", s.limit(limitRedirect, s.redirectHandler.HandleRedirect))

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Not found", http.StatusNotFound)
	})

	var handler http.Handler = mux
	handler = s.authMiddleware.CORS(handler)
	handler = recoverer(s.log, handler)
	handler = requestLogger(s.log, handler)
	return handler
}

func (s *Server) limit(group string, next http.HandlerFunc) http.HandlerFunc {
	return rateLimited(s.limiter, group, next)
}
