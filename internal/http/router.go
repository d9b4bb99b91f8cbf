package http

import (
	"net/http"
	"net/netip"
	"time"

	"github.com/amanshu0143/backend/internal/ratelimit"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type RouterConfig struct {
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	CORSAllowedOrigins []string
	// TrustedProxies may set the client address through forwarding headers.
	TrustedProxies []netip.Prefix
	APILimiter         *ratelimit.Limiter
	SubscribeLimiter   *ratelimit.Limiter
	Tokens             TokenParser
}

type Handlers struct {
	Token      *TokenHandler
	Subscribe  *SubscribeHandler
	Collection *CollectionHandler
	Checkout   *CheckoutHandler
}

func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(ProxyRealIP(cfg.TrustedProxies))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Use(RateLimitMiddleware(cfg.APILimiter, "Too many requests. Please try again later."))
		r.Use(BodyLimitMiddleware(cfg.MaxRequestBodySize))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})
		r.Post("/get-token", h.Token.Issue)

		auth := AuthMiddleware(cfg.Tokens)
		r.With(
			RateLimitMiddleware(cfg.SubscribeLimiter, "Too many subscription attempts. Please try again later."),
			auth,
		).Post("/subscribe", h.Subscribe.Subscribe)

		r.Group(func(r chi.Router) {
			r.Use(auth)

			r.Post("/add-to-collection", h.Collection.Add)
			r.Post("/checkout", h.Checkout.Checkout)
			r.Post("/verify-and-save", h.Checkout.VerifyAndSave)
			r.Post("/save-order", h.Checkout.SaveOrder)
		})
	})

	return otelhttp.NewHandler(r, "estrella-api")
}
