package handlers

import (
	"tourbook/middleware"
	"tourbook/models"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Authenticator backs the Protect middleware.
	Authenticator middleware.Authenticator

	// Tour endpoints
	GetAllTours   gin.HandlerFunc
	GetTour       gin.HandlerFunc
	CreateTour    gin.HandlerFunc
	UpdateTour    gin.HandlerFunc
	DeleteTour    gin.HandlerFunc
	TopTours      gin.HandlerFunc
	TourStats     gin.HandlerFunc
	MonthlyPlan   gin.HandlerFunc
	ToursWithin   gin.HandlerFunc
	TourDistances gin.HandlerFunc

	// Review endpoints
	GetAllReviews gin.HandlerFunc
	GetReview     gin.HandlerFunc
	CreateReview  gin.HandlerFunc
	UpdateReview  gin.HandlerFunc
	DeleteReview  gin.HandlerFunc

	// Auth endpoints
	Signup         gin.HandlerFunc
	Login          gin.HandlerFunc
	Logout         gin.HandlerFunc
	UpdatePassword gin.HandlerFunc
	ForgotPassword gin.HandlerFunc
	ResetPassword  gin.HandlerFunc

	// Own profile endpoints
	GetMe         gin.HandlerFunc
	UpdateMe      gin.HandlerFunc
	UpdateMyPhoto gin.HandlerFunc
	UpdateAvatar  gin.HandlerFunc
	DeleteMe      gin.HandlerFunc

	// Admin user endpoints
	GetAllUsers gin.HandlerFunc
	GetUser     gin.HandlerFunc
	CreateUser  gin.HandlerFunc
	UpdateUser  gin.HandlerFunc
	DeleteUser  gin.HandlerFunc

	// Booking endpoints
	CheckoutSession gin.HandlerFunc
	ConfirmBooking  gin.HandlerFunc
	MyBookings      gin.HandlerFunc
	StripeWebhook   gin.HandlerFunc
	GetAllBookings  gin.HandlerFunc
	GetBooking      gin.HandlerFunc
	CreateBooking   gin.HandlerFunc
	UpdateBooking   gin.HandlerFunc
	DeleteBooking   gin.HandlerFunc

	// Misc
	UploadSignature gin.HandlerFunc
	Health          gin.HandlerFunc
}

// Services are the dependencies the bundle is assembled from.
type Services struct {
	Tours         *TourHandler
	Reviews       *Resource[models.Review]
	Auth          *AuthHandler
	Users         *UserHandler
	AdminUsers    *Resource[models.User]
	Bookings      *BookingHandler
	AdminBookings *Resource[models.Booking]
	Uploads       *UploadHandler
}

// NewHandlerBundle wires handler methods into the bundle.
func NewHandlerBundle(s Services) *HandlerBundle {
	return &HandlerBundle{
		Authenticator: s.Auth.Users,

		GetAllTours:   s.Tours.GetAll(),
		GetTour:       s.Tours.GetOne(),
		CreateTour:    s.Tours.CreateOne(),
		UpdateTour:    s.Tours.UpdateOne(),
		DeleteTour:    s.Tours.DeleteOne(),
		TopTours:      AliasTopTours,
		TourStats:     s.Tours.Stats,
		MonthlyPlan:   s.Tours.MonthlyPlan,
		ToursWithin:   s.Tours.Within,
		TourDistances: s.Tours.Distances,

		GetAllReviews: s.Reviews.GetAll(),
		GetReview:     s.Reviews.GetOne(),
		CreateReview:  s.Reviews.CreateOne(),
		UpdateReview:  s.Reviews.UpdateOne(),
		DeleteReview:  s.Reviews.DeleteOne(),

		Signup:         s.Auth.Signup,
		Login:          s.Auth.Login,
		Logout:         s.Auth.Logout,
		UpdatePassword: s.Auth.UpdatePassword,
		ForgotPassword: s.Auth.ForgotPassword,
		ResetPassword:  s.Auth.ResetPassword,

		GetMe:         s.Users.GetMe,
		UpdateMe:      s.Users.UpdateMe,
		UpdateMyPhoto: s.Users.UpdateMyPhoto,
		UpdateAvatar:  s.Users.UpdateAvatar,
		DeleteMe:      s.Users.DeleteMe,

		GetAllUsers: s.AdminUsers.GetAll(),
		GetUser:     s.AdminUsers.GetOne(),
		CreateUser:  CreateUserNotDefined,
		UpdateUser:  s.AdminUsers.UpdateOne(),
		DeleteUser:  s.AdminUsers.DeleteOne(),

		CheckoutSession: s.Bookings.CheckoutSession,
		ConfirmBooking:  s.Bookings.Confirm,
		MyBookings:      s.Bookings.MyBookings,
		StripeWebhook:   s.Bookings.Webhook,
		GetAllBookings:  s.AdminBookings.GetAll(),
		GetBooking:      s.AdminBookings.GetOne(),
		CreateBooking:   s.AdminBookings.CreateOne(),
		UpdateBooking:   s.AdminBookings.UpdateOne(),
		DeleteBooking:   s.AdminBookings.DeleteOne(),

		UploadSignature: s.Uploads.Signature,
		Health:          Health,
	}
}
