package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tourbook/config"
	"tourbook/cron"
	"tourbook/database"
	"tourbook/database/repository"
	bookingRepo "tourbook/database/repository/booking"
	reviewRepo "tourbook/database/repository/review"
	tourRepo "tourbook/database/repository/tour"
	userRepo "tourbook/database/repository/user"
	"tourbook/handlers"
	"tourbook/middleware"
	"tourbook/models"
	"tourbook/routes"
	"tourbook/services/booking"
	"tourbook/services/notification"
	"tourbook/services/payment"
	"tourbook/services/review"
	"tourbook/services/storage"
	"tourbook/services/tasks"
	"tourbook/services/user"
	"tourbook/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	database.InitDB()
	utils.InitAuthCache()
	db := database.Database()

	var storageService storage.StorageService
	if cld, err := storage.NewCloudinaryStorageService(); err != nil {
		logger.Warn("Image storage disabled", zap.Error(err))
	} else {
		storageService = cld
	}

	// repositories.
	users := userRepo.NewMongoUserRepo(db)
	reviews := reviewRepo.NewMongoReviewRepo(db, users)
	tours := tourRepo.NewMongoTourRepo(db,
		repository.WithPopulate[models.Tour]("reviews", tourRepo.ReviewsLoader(reviews)),
		repository.WithPopulate[models.Tour]("guides", tourRepo.GuidesLoader(users)),
	)
	bookings := bookingRepo.NewMongoBookingRepo(db, tours, users)

	// Review writes recompute the ratings of the affected tours.
	ratings := review.NewRatingCalculator(reviews, tours)
	reviews.Apply(repository.WithAfterWrite[models.Review](ratings.AfterWrite))

	// background tasks.
	queue := asynq.NewClient(cron.RedisOpt())
	defer queue.Close()
	worker := cron.InitWorker(notification.NewSMTPMailer(), ratings)
	scheduler, err := cron.InitScheduler()
	if err != nil {
		logger.Error("Ratings reconcile not scheduled", zap.Error(err))
	}

	// services.
	userService := &user.DefaultUserService{
		Repo:         users,
		Cache:        utils.NewRedisAuthCache(utils.GetAuthCacheClient()),
		Mail:         tasks.NewDispatcher(queue),
		Storage:      storageService,
		TokenTTL:     config.AppConfig.JWTExpiresIn,
		AvatarFolder: config.AppConfig.CloudinaryAvatarFolder,
		ClientURL:    config.AppConfig.ClientURL,
	}
	users.Apply(repository.WithAfterWrite[models.User](userService.EvictAfterWrite))

	checkoutService := &booking.DefaultCheckoutService{
		Tours:     tours,
		Bookings:  bookings,
		Gateway:   payment.NewStripeGateway(),
		ClientURL: config.AppConfig.ClientURL,
		ImageBase: config.AppConfig.TourImageBaseURL,
	}

	handlerBundle := handlers.NewHandlerBundle(handlers.Services{
		Tours:         handlers.NewTourHandler(tours),
		Reviews:       handlers.NewReviewResource(reviews),
		Auth:          &handlers.AuthHandler{Users: userService},
		Users:         &handlers.UserHandler{Users: userService},
		AdminUsers:    handlers.NewUserAdminResource(users),
		Bookings:      &handlers.BookingHandler{Checkout: checkoutService},
		AdminBookings: handlers.NewBookingAdminResource(bookings),
		Uploads:       &handlers.UploadHandler{Storage: storageService, Folder: config.AppConfig.CloudinaryAvatarFolder},
	})

	monitorCtx, stopMonitor := context.WithCancel(context.Background())
	defer stopMonitor()
	queueRedis := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer queueRedis.Close()
	utils.StartHealthMonitor(monitorCtx, time.Minute, map[string]*redis.Client{
		"auth":  utils.GetAuthCacheClient(),
		"queue": queueRedis,
	}, database.MongoClient)

	// Create the Gin router.
	router := gin.New()
	router.Use(middleware.RequestLogger())
	router.Use(utils.ErrorHandler())
	routes.RegisterRoutes(router, handlerBundle)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + config.AppConfig.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Starting server", zap.String("addr", srv.Addr), zap.String("env", config.GetEnv()))
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server is shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	if scheduler != nil {
		scheduler.Shutdown()
	}
	worker.Shutdown()
	stopMonitor()
	if err := database.Disconnect(ctx); err != nil {
		logger.Error("Failed to disconnect MongoDB", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
