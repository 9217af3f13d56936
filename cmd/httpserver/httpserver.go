// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/ledgerbank/ledger-api/internal/accountdelivery"
	"github.com/ledgerbank/ledger-api/internal/accountrepo"
	"github.com/ledgerbank/ledger-api/internal/accountservice"
	"github.com/ledgerbank/ledger-api/internal/ledgerdelivery"
	"github.com/ledgerbank/ledger-api/internal/ledgerrepo"
	"github.com/ledgerbank/ledger-api/internal/ledgerservice"
	"github.com/ledgerbank/ledger-api/internal/middleware"
	"github.com/ledgerbank/ledger-api/internal/movementevents"
	"github.com/ledgerbank/ledger-api/internal/movementrepo"
	"github.com/ledgerbank/ledger-api/internal/notificationbus"
	"github.com/ledgerbank/ledger-api/internal/notificationdelivery"
	"github.com/ledgerbank/ledger-api/internal/sessiondelivery"
	"github.com/ledgerbank/ledger-api/internal/sessionrepo"
	"github.com/ledgerbank/ledger-api/internal/sessionservice"
	"github.com/ledgerbank/ledger-api/internal/userdelivery"
	"github.com/ledgerbank/ledger-api/internal/userrepo"
	"github.com/ledgerbank/ledger-api/internal/userservice"
	"github.com/ledgerbank/ledger-api/pkg/configpkg"
	"github.com/ledgerbank/ledger-api/pkg/tokenpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB     *sql.DB
	Engine *gin.Engine
	Bus    *notificationbus.Bus
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

// New creates Server type with instantiated domains and routes.
func New(conn *sql.DB, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	userRepo := userrepo.NewRepoPGS(conn)
	accountRepo := accountrepo.NewRepoPGS(conn)
	movementRepo := movementrepo.NewRepoPGS(conn)
	ledgerRepo := ledgerrepo.NewRepoPGS(conn)
	sessionRepo := sessionrepo.NewRepoPGS(conn)

	tokenMaker, err := tokenpkg.NewPasetoMaker(config.TokenSymmetricKey)
	if err != nil {
		return nil, errors.New("cannot create token maker")
	}

	bus := notificationbus.New()

	notifiers := []ledgerservice.Notifier{bus}
	if len(config.KafkaBrokers) > 0 {
		notifiers = append(notifiers, movementevents.NewPublisher(config.KafkaBrokers))
	}

	userService := userservice.New(userRepo)
	accountService := accountservice.New(accountRepo, movementRepo)
	ledgerService := ledgerservice.New(ledgerRepo, accountService, notifiers...)
	sessionService, err := sessionservice.New(sessionRepo, config, tokenMaker)

	if err != nil {
		return nil, errors.New("cannot initialize session service")
	}

	userHandler := userdelivery.NewHandler(userService, sessionService)
	accountHandler := accountdelivery.NewHandler(accountService)
	ledgerHandler := ledgerdelivery.NewHandler(ledgerService)
	sessionHandler := sessiondelivery.NewHandler(sessionService)
	notificationHandler := notificationdelivery.NewHandler(bus, tokenMaker)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))
	engine.Use(gin.Recovery())

	engine.POST("/users", userHandler.Create)
	engine.POST("/users/login", userHandler.Login)
	engine.POST("/sessions", sessionHandler.RenewAccessToken)

	engine.GET("/ws/notifications", notificationHandler.Subscribe)

	authRoutes := engine.Group("/").Use(middleware.AuthMiddleware(sessionService.TokenMaker))

	authRoutes.POST("/accounts", accountHandler.Create)
	authRoutes.GET("/accounts", accountHandler.Get)
	authRoutes.GET("/accounts/statement", accountHandler.Statement)

	authRoutes.POST("/deposits", ledgerHandler.Deposit)
	authRoutes.POST("/withdrawals", ledgerHandler.Withdraw)
	authRoutes.POST("/payments", ledgerHandler.Pay)
	authRoutes.POST("/transfers", ledgerHandler.Transfer)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		err := v.RegisterValidation("amount", ledgerdelivery.ValidAmount)
		if err != nil {
			return nil, errors.New("cannot register amount validator")
		}
	}

	server := &Server{
		DB:     conn,
		Engine: engine,
		Bus:    bus,
		Config: config,
	}

	return server, nil
}
