package routes

import (
	"strings"
	"time"

	"tourbook/config"
	"tourbook/handlers"
	"tourbook/middleware"
	"tourbook/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

var (
	staff  = []models.Role{models.RoleAdmin, models.RoleLeadGuide}
	guides = []models.Role{models.RoleAdmin, models.RoleLeadGuide, models.RoleGuide}
)

// nestedTour exposes the parent tour id as tourId for nested review routes.
func nestedTour(c *gin.Context) {
	c.Params = append(c.Params, gin.Param{Key: "tourId", Value: c.Param("id")})
	c.Next()
}

// RegisterTourRoutes registers the tour catalog and nested review endpoints.
func RegisterTourRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	protect := middleware.Protect(hb.Authenticator)

	tours := api.Group("/tours")
	{
		tours.GET("/top-5-cheap", hb.TopTours, hb.GetAllTours)
		tours.GET("/tour-stats", hb.TourStats)
		tours.GET("/monthly-plan/:year", protect, middleware.RestrictTo(guides...), hb.MonthlyPlan)
		tours.GET("/tours-within/:distance/center/:latlng/unit/:unit", hb.ToursWithin)
		tours.GET("/distances/:latlng/unit/:unit", hb.TourDistances)

		tours.GET("", hb.GetAllTours)
		tours.GET("/:id", hb.GetTour)
		tours.POST("", protect, middleware.RestrictTo(staff...), hb.CreateTour)
		tours.PATCH("/:id", protect, middleware.RestrictTo(staff...), hb.UpdateTour)
		tours.DELETE("/:id", protect, middleware.RestrictTo(staff...), hb.DeleteTour)

		nested := tours.Group("/:id/reviews", nestedTour)
		nested.GET("", hb.GetAllReviews)
		nested.POST("", protect, middleware.RestrictTo(models.RoleUser), hb.CreateReview)
	}
}

// RegisterReviewRoutes registers review endpoints. Every route requires
// authentication.
func RegisterReviewRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	reviews := api.Group("/reviews")
	{
		reviews.Use(middleware.Protect(hb.Authenticator))
		reviews.GET("", hb.GetAllReviews)
		reviews.POST("", middleware.RestrictTo(models.RoleUser), hb.CreateReview)
		reviews.GET("/:id", hb.GetReview)
		reviews.PATCH("/:id", middleware.RestrictTo(models.RoleUser, models.RoleAdmin), hb.UpdateReview)
		reviews.DELETE("/:id", middleware.RestrictTo(models.RoleUser, models.RoleAdmin), hb.DeleteReview)
	}
}

// RegisterUserRoutes registers auth, own profile and admin user endpoints.
func RegisterUserRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	users := api.Group("/users")
	{
		users.POST("/signup", hb.Signup)
		users.POST("/login", hb.Login)
		users.GET("/logout", hb.Logout)
		users.POST("/forgotPassword", hb.ForgotPassword)
		users.PATCH("/resetPassword/:token", hb.ResetPassword)

		// Protected routes (Require Authentication)
		me := users.Group("", middleware.Protect(hb.Authenticator))
		me.PATCH("/updateMyPassword", hb.UpdatePassword)
		me.GET("/me", hb.GetMe)
		me.PATCH("/updateMe", hb.UpdateMe)
		me.PATCH("/updateMyPhoto", hb.UpdateMyPhoto)
		me.PATCH("/update-avatar", hb.UpdateAvatar)
		me.DELETE("/deleteMe", hb.DeleteMe)

		admin := me.Group("", middleware.RestrictTo(models.RoleAdmin))
		admin.GET("", hb.GetAllUsers)
		admin.POST("", hb.CreateUser)
		admin.GET("/:id", hb.GetUser)
		admin.PATCH("/:id", hb.UpdateUser)
		admin.DELETE("/:id", hb.DeleteUser)
	}
}

// RegisterBookingRoutes sets up checkout and booking management endpoints.
func RegisterBookingRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	booking := api.Group("/booking")
	{
		booking.Use(middleware.Protect(hb.Authenticator))
		booking.GET("/checkout-session/:tourId", hb.CheckoutSession)
		booking.GET("/confirm", hb.ConfirmBooking)
		booking.GET("/my-bookings", hb.MyBookings)

		admin := booking.Group("", middleware.RestrictTo(staff...))
		admin.GET("", hb.GetAllBookings)
		admin.POST("", hb.CreateBooking)
		admin.GET("/:id", hb.GetBooking)
		admin.PATCH("/:id", hb.UpdateBooking)
		admin.PUT("/:id", hb.UpdateBooking)
		admin.DELETE("/:id", hb.DeleteBooking)
	}
}

// RegisterUploadRoutes registers direct upload helpers.
func RegisterUploadRoutes(api *gin.RouterGroup, hb *handlers.HandlerBundle) {
	api.GET("/upload/signature", middleware.Protect(hb.Authenticator), hb.UploadSignature)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health)
}

// RegisterWebhookRoute registers the payment provider callback outside the
// rate limited group.
func RegisterWebhookRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/v1/webhook", hb.StripeWebhook)
}

// allowedOrigins falls back to the default client when CLIENT_URL is blank;
// cors.New panics on an empty origin list.
func allowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(config.AppConfig.ClientURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{config.DefaultClientURL}
	}
	return origins
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins(),
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Stripe-Signature", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)
	RegisterWebhookRoute(r, hb)

	api := r.Group("/api/v1", middleware.RateLimitMiddleware(config.AppConfig.MaxRequestsPerHour))
	RegisterTourRoutes(api, hb)
	RegisterReviewRoutes(api, hb)
	RegisterUserRoutes(api, hb)
	RegisterBookingRoutes(api, hb)
	RegisterUploadRoutes(api, hb)
}
