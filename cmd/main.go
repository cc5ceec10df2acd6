package main

import (
	"errors"
	"net/http"
	"os"
	"time"

	"smssignup/api/handler"
	apiMiddleware "smssignup/api/middleware"
	"smssignup/api/routes"
	"smssignup/config"
	"smssignup/internal/database"
	"smssignup/internal/dto"
	"smssignup/internal/repository"
	"smssignup/internal/repository/memory"
	"smssignup/internal/service"
	"smssignup/internal/utils"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("load config")
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	var store repository.Store
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL is not set, using the in-memory store")
		store = memory.NewStore()
	} else {
		if cfg.AutoMigrate {
			if err := database.Migrate(cfg.DatabaseURL, "up"); err != nil && !errors.Is(err, database.ErrNoChange) {
				logger.WithError(err).Fatal("migrate")
			}
		}
		db, err := config.ConnectionDb(cfg.DatabaseURL, logger)
		if err != nil {
			logger.WithError(err).Fatal("connect database")
		}
		store = repository.NewStore(db)
	}

	validate := validator.New()
	if err := dto.RegisterValidations(validate); err != nil {
		logger.WithError(err).Fatal("register validations")
	}

	accessManager := utils.JWTManager{
		Secret:         []byte(cfg.JWTSecret),
		Issuer:         cfg.JWTIssuer,
		AccessTokenTTL: cfg.AccessTTL(),
	}
	accessIssuer := service.JWTAccessIssuer{Manager: &accessManager}
	stateIssuer := service.OAuthStateIssuer{
		Secret: []byte(cfg.JWTSecret),
		Issuer: cfg.JWTIssuer,
		TTL:    10 * time.Minute,
	}

	var sms service.SMSGateway
	switch cfg.SMSProvider {
	case config.SMSProviderTwilio:
		sms = service.NewTwilioSMSGateway(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromPhone)
	default:
		sms = service.LogSMSGateway{Logger: logger}
	}

	var exchanger service.IdentityExchanger
	switch cfg.OAuthProvider {
	case config.OAuthProviderGoogle:
		exchanger = service.NewGoogleIdentityExchanger(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.OAuthRedirectURL)
	default:
		exchanger = service.DemoIdentityExchanger{
			RedirectURL: cfg.OAuthRedirectURL,
			Email:       "demo.user@example.com",
			GivenName:   "Demo",
			FamilyName:  "User",
		}
	}

	var notifier service.Notifier = service.NoopNotifier{}
	if cfg.ResendAPIKey != "" && cfg.ResendFrom != "" {
		notifier = service.NewResendNotifier(cfg.ResendAPIKey, cfg.ResendFrom, logger)
	}

	clock := service.RealClock{}
	userService := service.NewUserService(store, clock)
	identityService := service.NewIdentityService(store, exchanger, accessIssuer, clock, logger)
	verificationService := service.NewPhoneVerificationService(store, sms, clock, logger, service.VerificationConfig{
		CodeLength:     service.DefaultCodeLength,
		MaxAttempts:    service.DefaultMaxAttempts,
		CodeTTL:        service.DefaultCodeTTL,
		ResendInterval: service.DefaultResendInterval,
		SMSTemplate:    service.DefaultSMSTemplate,
	})

	authHandler := handler.NewAuthHandler(identityService, stateIssuer, logger)
	authHandler.CookieDomain = cfg.CookieDomain
	authHandler.SecureCookies = cfg.CookieSecure
	phoneHandler := &handler.PhoneHandler{
		Verifications: verificationService,
		Notifier:      notifier,
		Validate:      validate,
		Clock:         clock,
		Logger:        logger,
	}
	profileHandler := &handler.ProfileHandler{Users: userService}
	healthHandler := &handler.HealthHandler{Store: store, Logger: logger}

	app := echo.New()
	app.HideBanner = true
	app.HidePort = true
	app.Use(echoMiddleware.Recover())
	app.Use(echoMiddleware.RequestLoggerWithConfig(echoMiddleware.RequestLoggerConfig{
		LogStatus:   true,
		LogMethod:   true,
		LogURI:      true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echoMiddleware.RequestLoggerValues) error {
			entry := logger.WithFields(logrus.Fields{
				"status": v.Status,
				"method": v.Method,
				"uri":    v.URI,
				"ip":     v.RemoteIP,
			})
			if v.Error != nil {
				entry.WithError(v.Error).Error("request")
				return nil
			}
			entry.Info("request")
			return nil
		},
	}))

	router := routes.NewRouter(
		app,
		authHandler,
		phoneHandler,
		profileHandler,
		healthHandler,
		apiMiddleware.AuthMiddleware{JWT: &accessManager},
		apiMiddleware.UserLoader{Users: userService},
		cfg.RateLimitPerMinute,
	)
	router.RegisterRoutes()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.WithFields(logrus.Fields{
		"addr":  cfg.HTTPAddr,
		"oauth": cfg.OAuthProvider,
		"sms":   cfg.SMSProvider,
	}).Info("server started")
	if err := app.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("server stopped")
	}
}
