package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nguyendm/salemarket-backend/api/controllers"
	"github.com/nguyendm/salemarket-backend/api/middleware"
	"github.com/nguyendm/salemarket-backend/internal/cart"
	"github.com/nguyendm/salemarket-backend/internal/notifications"
	"github.com/nguyendm/salemarket-backend/internal/orders"
	"github.com/nguyendm/salemarket-backend/pkg/config"
	"github.com/nguyendm/salemarket-backend/pkg/db"
	"github.com/nguyendm/salemarket-backend/pkg/enums"
	"github.com/nguyendm/salemarket-backend/pkg/logger"
	"github.com/nguyendm/salemarket-backend/pkg/redis"
)

// NewRouter assembles the HTTP surface: health probes plus the
// authenticated /api/v1 marketplace routes.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	ordersSvc orders.Service,
	cartSvc *cart.Service,
	notificationsSvc notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	checkoutPolicy := middleware.NewRateLimitPolicy("checkout", time.Minute, 60, 10)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.With(
			middleware.RequireRole(enums.RoleBuyer, logg),
			middleware.RateLimit(checkoutPolicy, redisClient, logg),
		).Post("/checkout", controllers.Checkout(ordersSvc, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(ordersSvc, logg))
			r.Get("/{orderId}", controllers.GetOrder(ordersSvc, logg))
			r.Get("/{orderId}/history", controllers.OrderHistory(ordersSvc, logg))
			r.Patch("/{orderId}/status", controllers.UpdateOrderStatus(ordersSvc, logg))
			r.Post("/{orderId}/cancel", controllers.CancelOrder(ordersSvc, logg))
			r.Post("/{orderId}/return", controllers.RequestReturn(ordersSvc, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleBuyer, logg))
			r.Get("/", controllers.CartList(cartSvc, logg))
			r.Post("/", controllers.CartAdd(cartSvc, logg))
			r.Put("/{itemId}", controllers.CartUpdate(cartSvc, logg))
			r.Delete("/{itemId}", controllers.CartRemove(cartSvc, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsSvc, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsSvc, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsSvc, logg))
		})
	})

	return r
}
