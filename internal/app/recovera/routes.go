// Package recovera собирает HTTP API: зависимости, маршруты и жизненный цикл сервера.
package recovera

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/recovera/internal/http/handlers/admin/block"
	admindevices "github.com/magabrotheeeer/recovera/internal/http/handlers/admin/devices"
	"github.com/magabrotheeeer/recovera/internal/http/handlers/admin/payments"
	"github.com/magabrotheeeer/recovera/internal/http/handlers/admin/statistics"
	"github.com/magabrotheeeer/recovera/internal/http/handlers/admin/user"
	"github.com/magabrotheeeer/recovera/internal/http/handlers/admin/users"
	"github.com/magabrotheeeer/recovera/internal/http/handlers/auth/changepassword"
	"github.com/magabrotheeeer/recovera/internal/http/handlers/auth/forgotpassword"
	"github.com/magabrotheeeer/recovera/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/recovera/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/recovera/internal/http/handlers/auth/resetpassword"
	"github.com/magabrotheeeer/recovera/internal/http/handlers/billing/createintent"
	billingstatus "github.com/magabrotheeeer/recovera/internal/http/handlers/billing/status"
	"github.com/magabrotheeeer/recovera/internal/http/handlers/billing/verify"
	"github.com/magabrotheeeer/recovera/internal/http/handlers/device/bind"
	devicelist "github.com/magabrotheeeer/recovera/internal/http/handlers/device/list"
	"github.com/magabrotheeeer/recovera/internal/http/handlers/device/unbind"
	"github.com/magabrotheeeer/recovera/internal/http/handlers/health"
	plancreate "github.com/magabrotheeeer/recovera/internal/http/handlers/plan/create"
	planlist "github.com/magabrotheeeer/recovera/internal/http/handlers/plan/list"
	planread "github.com/magabrotheeeer/recovera/internal/http/handlers/plan/read"
	planremove "github.com/magabrotheeeer/recovera/internal/http/handlers/plan/remove"
	"github.com/magabrotheeeer/recovera/internal/http/handlers/plan/toggle"
	planupdate "github.com/magabrotheeeer/recovera/internal/http/handlers/plan/update"
	"github.com/magabrotheeeer/recovera/internal/http/handlers/recovery/history"
	"github.com/magabrotheeeer/recovera/internal/http/handlers/recovery/report"
	"github.com/magabrotheeeer/recovera/internal/http/middlewarectx"
	"github.com/magabrotheeeer/recovera/internal/metrics"
	adminservice "github.com/magabrotheeeer/recovera/internal/services/admin"
	authservice "github.com/magabrotheeeer/recovera/internal/services/auth"
	billingservice "github.com/magabrotheeeer/recovera/internal/services/billing"
	deviceservice "github.com/magabrotheeeer/recovera/internal/services/device"
	planservice "github.com/magabrotheeeer/recovera/internal/services/plan"
	recoveryservice "github.com/magabrotheeeer/recovera/internal/services/recovery"
)

// Services сервисы, за которыми стоят обработчики.
type Services struct {
	Auth     *authservice.Service
	Plans    *planservice.Service
	Billing  *billingservice.Service
	Devices  *deviceservice.Service
	Recovery *recoveryservice.Service
	Admin    *adminservice.Service
	Health   health.Pinger
}

// RouterDeps инфраструктура маршрутизатора.
type RouterDeps struct {
	Tokens         middlewarectx.TokenParser
	Limiter        *middlewarectx.RateLimiter
	AllowedOrigins []string
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc Services, deps RouterDeps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		metrics.Middleware,
		middlewarectx.CORS(deps.AllowedOrigins),
	)

	r.Get("/health", health.New(logger, svc.Health).ServeHTTP)
	r.Handle("/metrics", metrics.Handler())
	r.Get("/docs/*", httpSwagger.Handler(httpSwagger.URL("/docs/doc.json")))

	r.Group(func(r chi.Router) {
		r.Use(deps.Limiter.Middleware(logger))

		// Открытые конечные точки
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", register.New(logger, svc.Auth).ServeHTTP)
			r.Post("/login", login.New(logger, svc.Auth).ServeHTTP)
			r.Post("/forgot-password", forgotpassword.New(logger, svc.Auth).ServeHTTP)
			r.Post("/reset-password", resetpassword.New(logger, svc.Auth).ServeHTTP)

			r.With(middlewarectx.JWTMiddleware(deps.Tokens, logger)).
				Post("/change-password", changepassword.New(logger, svc.Auth).ServeHTTP)
		})
		r.Get("/plans", planlist.New(logger, svc.Plans).ServeHTTP)
		r.Get("/plans/{code}", planread.NewByCode(logger, svc.Plans).ServeHTTP)
		// Подтверждение оплаты приходит от провайдера без токена пользователя.
		r.Post("/billing/verify", verify.New(logger, svc.Billing).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(deps.Tokens, logger))

			r.Post("/billing/create-intent", createintent.New(logger, svc.Billing).ServeHTTP)
			r.With(middlewarectx.RequireOwner("userId")).
				Get("/billing/status/{userId}", billingstatus.New(logger, svc.Billing).ServeHTTP)

			r.Post("/device/bind", bind.New(logger, svc.Devices).ServeHTTP)
			r.With(middlewarectx.RequireOwner("userId")).
				Get("/device/list/{userId}", devicelist.New(logger, svc.Devices).ServeHTTP)
			r.Delete("/device/{id}", unbind.New(logger, svc.Devices).ServeHTTP)

			r.Post("/recovery/report", report.New(logger, svc.Recovery).ServeHTTP)
			r.With(middlewarectx.RequireOwner("userId")).
				Get("/recovery/history/{userId}", history.New(logger, svc.Recovery).ServeHTTP)
		})

		// Админка
		r.Route("/admin", func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(deps.Tokens, logger))
			r.Use(middlewarectx.RequireAdmin(logger))

			r.Get("/plans", planlist.NewAdmin(logger, svc.Plans).ServeHTTP)
			r.Post("/plans", plancreate.New(logger, svc.Plans).ServeHTTP)
			r.Get("/plans/{id}", planread.NewByID(logger, svc.Plans).ServeHTTP)
			r.Put("/plans/{id}", planupdate.New(logger, svc.Plans).ServeHTTP)
			r.Put("/plans/{id}/toggle", toggle.New(logger, svc.Plans).ServeHTTP)
			r.Delete("/plans/{id}", planremove.New(logger, svc.Plans).ServeHTTP)

			r.Get("/users", users.New(logger, svc.Admin).ServeHTTP)
			r.Get("/users/{id}", user.New(logger, svc.Admin).ServeHTTP)
			r.Post("/users/{id}/block", block.New(logger, svc.Admin).ServeHTTP)
			r.Get("/payments", payments.New(logger, svc.Admin).ServeHTTP)
			r.Get("/devices", admindevices.New(logger, svc.Admin).ServeHTTP)
			r.Get("/statistics", statistics.New(logger, svc.Admin).ServeHTTP)
		})
	})
}
