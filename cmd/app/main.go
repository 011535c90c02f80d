package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/uniclub/uc-points/config"
	adminapp_event "github.com/uniclub/uc-points/internal/module/adminapp/event"
	adminapp_redemption "github.com/uniclub/uc-points/internal/module/adminapp/redemption"
	adminapp_wallet "github.com/uniclub/uc-points/internal/module/adminapp/wallet"
	memberapp_event "github.com/uniclub/uc-points/internal/module/memberapp/event"
	memberapp_redemption "github.com/uniclub/uc-points/internal/module/memberapp/redemption"
	memberapp_registration "github.com/uniclub/uc-points/internal/module/memberapp/registration"
	memberapp_wallet "github.com/uniclub/uc-points/internal/module/memberapp/wallet"
	"github.com/uniclub/uc-points/internal/pkg/jwt"
	internalMiddleare "github.com/uniclub/uc-points/internal/pkg/middleware"
	"github.com/uniclub/uc-points/internal/pkg/session"
	"github.com/uniclub/uc-points/pkg/applogger"
	"github.com/uniclub/uc-points/pkg/clock"
	"github.com/uniclub/uc-points/pkg/gctasks"
	"github.com/uniclub/uc-points/pkg/kafka"
	"github.com/uniclub/uc-points/pkg/middleware"
	"github.com/uniclub/uc-points/pkg/monitoring"
	"github.com/uniclub/uc-points/pkg/postgresql"
	"github.com/uniclub/uc-points/pkg/pubsub"
	"github.com/uniclub/uc-points/pkg/redis"
	"github.com/uniclub/uc-points/pkg/server"
	"github.com/uniclub/uc-points/pkg/validator"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
)

var c *config.Config

func init() {
	c = config.Get()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := applogger.GetLogrus()

	mon := monitoring.NewOpenTelemetry(
		c.Application.Name,
		c.Application.Environment,
		c.GCP.ProjectID,
	)

	mon.Start(ctx)

	validate := validator.Get()

	jsonWebToken := jwt.NewJSONWebToken(c.JWT.PrivateKey, c.JWT.PublicKey)

	psqldb := postgresql.GetDatabase()
	if err := psqldb.Ping(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}
	if err := postgresql.Migrate(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	publisher := pubsub.PublisherFromConfluentKafkaProducer(logger, kafka.NewProducer())

	rc := redis.GetClient()
	if err := rc.Ping(context.Background()).Err(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	cloudTask := gctasks.NewGCTasks(logger, c.GCP.ProjectID, c.GCP.ServiceAccount)

	sessionStore := session.NewRedisSessionStore(logger, rc)

	memberSessionMiddleware := internalMiddleare.NewMemberSessionMiddleware(jsonWebToken, sessionStore)
	staffSessionMiddleware := internalMiddleare.NewStaffSessionMiddleware(jsonWebToken, sessionStore)

	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(c.Application.Name),
		middleware.HTTPResponseTraceInjection,
		middleware.NewHTTPRequestLogger(logger, c.Application.Debug, http.StatusInternalServerError).Middleware,
	)

	appClock := clock.Real()

	statusEngine := memberapp_event.NewStatusEngine(
		time.Duration(c.Event.DefaultDurationMinutes)*time.Minute,
		time.Duration(c.Event.SoonWindowDays)*24*time.Hour,
		time.Duration(c.Event.CheckInGraceMinutes)*time.Minute,
	)

	transactionRepo := memberapp_wallet.NewTransactionRepository(logger, psqldb)
	ledger := memberapp_wallet.NewLedger(memberapp_wallet.LedgerProperty{
		Logger:                logger,
		Clock:                 appClock,
		TransactionRepository: transactionRepo,
	})

	eventRepo := memberapp_event.NewEventRepository(logger, psqldb)
	registrationRepo := memberapp_registration.NewRegistrationRepository(logger, psqldb)
	productRepo := memberapp_redemption.NewProductRepository(logger, psqldb)
	orderRepo := memberapp_redemption.NewOrderRepository(logger, psqldb)

	// member's app
	eventStatusUseCase := memberapp_event.NewEventStatusUseCase(memberapp_event.EventStatusUseCaseProperty{
		Logger:               logger,
		Timeout:              c.Application.Timeout,
		Clock:                appClock,
		StatusEngine:         statusEngine,
		EventRepository:      eventRepo,
		RegistrationProvider: registrationRepo,
	})
	memberapp_event.InitHTTPHandler(router, memberSessionMiddleware, eventStatusUseCase)

	walletUseCase := memberapp_wallet.NewWalletUseCase(memberapp_wallet.WalletUseCaseProperty{
		Logger:  logger,
		Timeout: c.Application.Timeout,
		Ledger:  ledger,
	})
	memberapp_wallet.InitHTTPHandler(router, memberSessionMiddleware, validate, walletUseCase)

	registrationUseCase := memberapp_registration.NewRegistrationUseCase(memberapp_registration.RegistrationUseCaseProperty{
		Logger:                 logger,
		Timeout:                c.Application.Timeout,
		Clock:                  appClock,
		StatusEngine:           statusEngine,
		EventRepository:        eventRepo,
		RegistrationRepository: registrationRepo,
		Ledger:                 ledger,
		Publisher:              publisher,
	})
	memberapp_registration.InitHTTPHandler(router, memberSessionMiddleware, validate, registrationUseCase)

	redemptionUseCase := memberapp_redemption.NewRedemptionUseCase(memberapp_redemption.RedemptionUseCaseProperty{
		Logger:            logger,
		Timeout:           c.Application.Timeout,
		Clock:             appClock,
		ProductRepository: productRepo,
		OrderRepository:   orderRepo,
		Ledger:            ledger,
		Publisher:         publisher,
	})
	memberapp_redemption.InitHTTPHandler(router, memberSessionMiddleware, validate, redemptionUseCase)

	// admin's app
	eventAdminUseCase := adminapp_event.NewEventAdminUseCase(adminapp_event.EventAdminUseCaseProperty{
		Logger:                 logger,
		Timeout:                c.Application.Timeout,
		Clock:                  appClock,
		StatusEngine:           statusEngine,
		EventRepository:        eventRepo,
		RegistrationRepository: registrationRepo,
		Ledger:                 ledger,
		Publisher:              publisher,
		Tasks:                  cloudTask,
		BaseURL:                c.Application.BaseURL,
	})
	adminapp_event.InitHTTPHandler(router, staffSessionMiddleware, validate, eventAdminUseCase)

	redemptionAdminUseCase := adminapp_redemption.NewRedemptionAdminUseCase(adminapp_redemption.RedemptionAdminUseCaseProperty{
		Logger:          logger,
		Timeout:         c.Application.Timeout,
		Clock:           appClock,
		OrderRepository: orderRepo,
		Ledger:          ledger,
		Publisher:       publisher,
	})
	adminapp_redemption.InitHTTPHandler(router, staffSessionMiddleware, validate, redemptionAdminUseCase)

	walletAdminUseCase := adminapp_wallet.NewWalletAdminUseCase(adminapp_wallet.WalletAdminUseCaseProperty{
		Logger:    logger,
		Timeout:   c.Application.Timeout,
		Ledger:    ledger,
		Publisher: publisher,
	})
	adminapp_wallet.InitHTTPHandler(router, staffSessionMiddleware, validate, walletAdminUseCase)

	handler := middleware.SetChain(
		router,
		cors.New(cors.Options{
			AllowedOrigins:   c.CORS.AllowedOrigins,
			AllowedMethods:   c.CORS.AllowedMethods,
			AllowedHeaders:   c.CORS.AllowedHeaders,
			ExposedHeaders:   c.CORS.ExposedHeaders,
			MaxAge:           c.CORS.MaxAge,
			AllowCredentials: c.CORS.AllowCredentials,
		}).Handler,
	)

	srv := &server.Server{
		Server: http.Server{
			Addr:    fmt.Sprintf(":%d", c.Application.Port),
			Handler: handler,
		},
		Logger: logger,
	}

	go func() {
		srv.ListenAndServe()
	}()

	sigterm := make(chan os.Signal, 1)
	signal.Notify(sigterm, syscall.SIGINT, syscall.SIGTERM)
	<-sigterm

	srv.Shutdown(ctx)
	publisher.Close()
	psqldb.Close()
	rc.Close()
	if cloudTask != nil {
		cloudTask.Close()
	}
	mon.Stop(ctx)
}
