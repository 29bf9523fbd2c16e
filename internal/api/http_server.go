package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ledrent/internal/auth"
	"ledrent/internal/config"
	"ledrent/internal/domain"
	"ledrent/internal/export"

	"github.com/rs/zerolog"
)

// HTTPServer exposes the administrative JSON API.
type HTTPServer struct {
	cfg      config.ServerConfig
	server   *http.Server
	sessions *auth.SessionManager
	logger   *zerolog.Logger
	exporter *export.Exporter

	bookings   domain.BookingService
	users      domain.UserService
	clients    domain.ClientService
	inventory  domain.InventoryService
	activities domain.ActivityService
	company    domain.Repository
}

type ServerDeps struct {
	Sessions   *auth.SessionManager
	Bookings   domain.BookingService
	Users      domain.UserService
	Clients    domain.ClientService
	Inventory  domain.InventoryService
	Activities domain.ActivityService
	Company    domain.Repository
	Exporter   *export.Exporter
}

func NewHTTPServer(cfg config.ServerConfig, authCfg config.AuthConfig, deps ServerDeps, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:        cfg,
		sessions:   deps.Sessions,
		logger:     logger,
		exporter:   deps.Exporter,
		bookings:   deps.Bookings,
		users:      deps.Users,
		clients:    deps.Clients,
		inventory:  deps.Inventory,
		activities: deps.Activities,
		company:    deps.Company,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", srv.handleHealth)

	mux.HandleFunc("POST /api/v1/auth/login", srv.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", srv.handleLogout)
	mux.HandleFunc("GET /api/v1/auth/me", srv.handleMe)

	mux.HandleFunc("GET /api/v1/clients", srv.handleListClients)
	mux.HandleFunc("POST /api/v1/clients", srv.handleCreateClient)
	mux.HandleFunc("GET /api/v1/clients/{id}", srv.handleGetClient)
	mux.HandleFunc("PUT /api/v1/clients/{id}", srv.handleUpdateClient)
	mux.HandleFunc("DELETE /api/v1/clients/{id}", srv.handleDeleteClient)

	mux.HandleFunc("GET /api/v1/equipment", srv.handleListEquipment)
	mux.HandleFunc("POST /api/v1/equipment", srv.handleCreateEquipment)
	mux.HandleFunc("GET /api/v1/equipment/{id}", srv.handleGetEquipment)
	mux.HandleFunc("PUT /api/v1/equipment/{id}", srv.handleUpdateEquipment)
	mux.HandleFunc("DELETE /api/v1/equipment/{id}", srv.handleDeleteEquipment)

	mux.HandleFunc("GET /api/v1/products", srv.handleListProducts)
	mux.HandleFunc("POST /api/v1/products", srv.handleCreateProduct)
	mux.HandleFunc("GET /api/v1/products/{id}", srv.handleGetProduct)
	mux.HandleFunc("PUT /api/v1/products/{id}", srv.handleUpdateProduct)
	mux.HandleFunc("DELETE /api/v1/products/{id}", srv.handleDeleteProduct)

	mux.HandleFunc("GET /api/v1/bookings", srv.handleListBookings)
	mux.HandleFunc("POST /api/v1/bookings", srv.handleCreateBooking)
	mux.HandleFunc("GET /api/v1/bookings/export", srv.handleExportBookings)
	mux.HandleFunc("GET /api/v1/bookings/{id}", srv.handleGetBooking)
	mux.HandleFunc("PUT /api/v1/bookings/{id}/status", srv.handleBookingStatus)
	mux.HandleFunc("PUT /api/v1/bookings/{id}/payment", srv.handleBookingPayment)

	mux.HandleFunc("GET /api/v1/availability", srv.handleAvailability)
	mux.HandleFunc("GET /api/v1/availability/daily", srv.handleDailyAvailability)

	mux.HandleFunc("GET /api/v1/company", srv.handleGetCompany)
	mux.HandleFunc("PUT /api/v1/company", srv.handleUpdateCompany)

	mux.HandleFunc("GET /api/v1/activities", srv.handleListActivities)

	mux.HandleFunc("GET /api/v1/users", srv.handleListUsers)
	mux.HandleFunc("POST /api/v1/users", srv.handleCreateUser)

	mux.HandleFunc("GET /api/v1/maintenance", srv.handleMaintenanceInfo)
	mux.HandleFunc("POST /api/v1/maintenance/run", srv.handleMaintenanceRun)

	limiter := newLoginLimiter(authCfg.LoginRateRPS, authCfg.LoginRateBurst)
	handler := loggingMiddleware(logger, limiter.Wrap(sessionGate(deps.Sessions, logger, mux)))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: time.Duration(cfg.ReadHeaderTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Second,
	}

	return srv
}

// Handler возвращает корневой handler; используется в тестах.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
