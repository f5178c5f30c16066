package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sahilmehra/campustrade-backend/api/controllers"
	"github.com/sahilmehra/campustrade-backend/api/middleware"
	"github.com/sahilmehra/campustrade-backend/internal/auth"
	"github.com/sahilmehra/campustrade-backend/internal/grouporders"
	"github.com/sahilmehra/campustrade-backend/internal/listings"
	"github.com/sahilmehra/campustrade-backend/internal/notify"
	"github.com/sahilmehra/campustrade-backend/internal/offers"
	"github.com/sahilmehra/campustrade-backend/internal/orders"
	"github.com/sahilmehra/campustrade-backend/internal/reports"
	"github.com/sahilmehra/campustrade-backend/internal/users"
	"github.com/sahilmehra/campustrade-backend/pkg/auth/session"
	"github.com/sahilmehra/campustrade-backend/pkg/config"
	"github.com/sahilmehra/campustrade-backend/pkg/db"
	"github.com/sahilmehra/campustrade-backend/pkg/enums"
	"github.com/sahilmehra/campustrade-backend/pkg/logger"
	"github.com/sahilmehra/campustrade-backend/pkg/redis"
	"github.com/sahilmehra/campustrade-backend/pkg/storage/local"
)

// Services bundles the domain services the router exposes.
type Services struct {
	Auth          auth.Service
	Users         users.Service
	Listings      listings.Service
	Offers        offers.Service
	Orders        orders.Service
	GroupOrders   grouporders.Service
	Reports       reports.Service
	Notifications notify.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	uploadsStore *local.Store,
	sessionChecker session.AccessSessionChecker,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.ReadyDeps(dbP, redisClient, uploadsStore)))
	})

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/uploads/{file}", controllers.UploadServe(uploadsStore, logg))

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(svcs.Auth, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(svcs.Auth, logg))
		r.Post("/refresh", controllers.AuthRefresh(svcs.Auth, logg))
		r.Post("/logout", controllers.AuthLogout(svcs.Auth, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionChecker, logg))

		r.Route("/listings", func(r chi.Router) {
			r.Get("/", controllers.ListingList(svcs.Listings, logg))
			r.Post("/", controllers.ListingCreate(svcs.Listings, logg))
			r.Route("/{listingId}", func(r chi.Router) {
				r.Get("/", controllers.ListingDetail(svcs.Listings, logg))
				r.Patch("/", controllers.ListingUpdate(svcs.Listings, logg))
				r.Delete("/", controllers.ListingDelete(svcs.Listings, logg))
				r.Get("/bids", controllers.BidList(svcs.Listings, logg))
				r.Post("/bids", controllers.BidPlace(svcs.Listings, logg))
				r.Get("/offers", controllers.OfferListForListing(svcs.Offers, logg))
				r.Post("/offers", controllers.OfferPlace(svcs.Offers, logg))
			})
		})

		r.Post("/offers/{offerId}/decision", controllers.OfferDecide(svcs.Offers, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(svcs.Orders, logg))
			r.Post("/", controllers.OrderCreate(svcs.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", controllers.OrderDetail(svcs.Orders, logg))
				r.Post("/payment-proof", controllers.OrderSubmitPaymentProof(svcs.Orders, logg))
				r.Post("/verify", controllers.OrderVerifyPayment(svcs.Orders, logg))
				r.Post("/cancel", controllers.OrderCancel(svcs.Orders, logg))
				r.Post("/ship", controllers.OrderMarkShipped(svcs.Orders, logg))
				r.Post("/receive", controllers.OrderMarkReceived(svcs.Orders, logg))
				r.Post("/review", controllers.OrderReview(svcs.Orders, logg))
			})
		})

		r.Route("/group-orders", func(r chi.Router) {
			r.Get("/", controllers.GroupOrderList(svcs.GroupOrders, logg))
			r.Post("/", controllers.GroupOrderCreate(svcs.GroupOrders, logg))
			r.Route("/{groupOrderId}", func(r chi.Router) {
				r.Get("/", controllers.GroupOrderDetail(svcs.GroupOrders, logg))
				r.Post("/items", controllers.GroupOrderAddItem(svcs.GroupOrders, logg))
				r.Delete("/items/{itemId}", controllers.GroupOrderRemoveItem(svcs.GroupOrders, logg))
				r.Post("/finalize", controllers.GroupOrderFinalize(svcs.GroupOrders, logg))
				r.Post("/status", controllers.GroupOrderBroadcastStatus(svcs.GroupOrders, logg))
			})
		})

		r.Route("/reports", func(r chi.Router) {
			r.Post("/", controllers.ReportFile(svcs.Reports, logg))
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(string(enums.RoleModerator), logg))
				r.Get("/", controllers.ReportList(svcs.Reports, logg))
				r.Get("/{reportId}", controllers.ReportDetail(svcs.Reports, logg))
				r.Post("/{reportId}/resolve", controllers.ReportResolve(svcs.Reports, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svcs.Notifications, logg))
			r.Get("/unread-count", controllers.NotificationUnreadCount(svcs.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svcs.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svcs.Notifications, logg))
		})

		r.Route("/users/me", func(r chi.Router) {
			r.Get("/", controllers.UserProfile(svcs.Users, logg))
			r.Patch("/", controllers.UserUpdateProfile(svcs.Users, logg))
			r.Post("/avatar", controllers.UserAvatarUpload(svcs.Users, uploadsStore, logg))
		})
	})

	return r
}
