package domain

import (
	"context"
	"time"

	"ledrent/internal/models"
)

// Repository is the persistence collaborator: transactional CRUD and the
// filtered queries the services need.
type Repository interface {
	// bookings / inventory accounting
	CreateBookingWithItems(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListBookings(ctx context.Context, start, end time.Time, status string, limit, offset int) ([]*models.Booking, error)
	UpdateBookingStatusWithVersion(ctx context.Context, id, fromVersion int64, status string) error
	UpdateBookingPaymentStatus(ctx context.Context, id int64, paymentStatus string) error
	CheckAvailability(ctx context.Context, kind string, itemID, quantity int64, start, end time.Time) (bool, error)
	GetItemAvailability(ctx context.Context, kind string, itemID int64, start, end time.Time) (*models.Availability, error)
	GetReservedQuantity(ctx context.Context, kind string, itemID int64, start, end time.Time) (int64, error)
	GetDailyAvailability(ctx context.Context, kind string, itemID int64, startDate time.Time, days int) ([]*models.DailyAvailability, error)
	ExpireOverdueBookings(ctx context.Context, now time.Time) (int, error)
	GetOverdueBookings(ctx context.Context, now time.Time) ([]*models.Booking, error)

	// clients
	CreateClient(ctx context.Context, client *models.Client) error
	GetClient(ctx context.Context, id int64) (*models.Client, error)
	GetClientByDocument(ctx context.Context, document string) (*models.Client, error)
	ListClients(ctx context.Context, limit, offset int) ([]*models.Client, error)
	UpdateClient(ctx context.Context, client *models.Client) error
	DeleteClient(ctx context.Context, id int64) error

	// equipment / products
	CreateEquipment(ctx context.Context, eq *models.Equipment) error
	GetEquipment(ctx context.Context, id int64) (*models.Equipment, error)
	GetEquipmentByCode(ctx context.Context, code string) (*models.Equipment, error)
	ListEquipment(ctx context.Context, activeOnly bool) ([]*models.Equipment, error)
	UpdateEquipment(ctx context.Context, eq *models.Equipment) error
	DeleteEquipment(ctx context.Context, id int64) error
	CreateProduct(ctx context.Context, p *models.Product) error
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetProductByCode(ctx context.Context, code string) (*models.Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]*models.Product, error)
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int64) error

	// users / company / activity log
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdateUserLastLogin(ctx context.Context, id int64) error
	CountUsers(ctx context.Context) (int, error)
	GetCompanySettings(ctx context.Context) (*models.CompanySettings, error)
	UpdateCompanySettings(ctx context.Context, c *models.CompanySettings) error
	CreateActivity(ctx context.Context, a *models.Activity) error
	ListActivities(ctx context.Context, limit, offset int) ([]*models.Activity, error)
	ListEntityActivities(ctx context.Context, entity string, entityID int64) ([]*models.Activity, error)
}

// SessionRepository stores server-side sessions behind opaque tokens.
type SessionRepository interface {
	GetSession(ctx context.Context, token string) (*models.Session, error)
	SetSession(ctx context.Context, session *models.Session) error
	DeleteSession(ctx context.Context, token string) error
	CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// EventPublisher emits domain events for the activity recorder.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// BookingService owns the inventory accounting invariants.
type BookingService interface {
	ValidateBookingWindow(start, end time.Time) error
	CreateBooking(ctx context.Context, booking *models.Booking) error
	TransitionBooking(ctx context.Context, bookingID, version int64, status string, actorID int64) error
	SetPaymentStatus(ctx context.Context, bookingID int64, paymentStatus string, actorID int64) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	ListBookings(ctx context.Context, start, end time.Time, status string, limit, offset int) ([]*models.Booking, error)
	CheckAvailability(ctx context.Context, kind string, itemID, quantity int64, start, end time.Time) (bool, error)
	GetItemAvailability(ctx context.Context, kind string, itemID int64, start, end time.Time) (*models.Availability, error)
	GetDailyAvailability(ctx context.Context, kind string, itemID int64, startDate time.Time, days int) ([]*models.DailyAvailability, error)
	RunMaintenance(ctx context.Context) (int, error)
}

// UserService covers account management and credential checks.
type UserService interface {
	CreateUser(ctx context.Context, name, email, password string, isAdmin bool, actorID int64) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
}

// InventoryService is CRUD over equipment and products with code checks.
type InventoryService interface {
	CreateEquipment(ctx context.Context, eq *models.Equipment, actorID int64) error
	UpdateEquipment(ctx context.Context, eq *models.Equipment, actorID int64) error
	DeleteEquipment(ctx context.Context, id, actorID int64) error
	GetEquipment(ctx context.Context, id int64) (*models.Equipment, error)
	ListEquipment(ctx context.Context, activeOnly bool) ([]*models.Equipment, error)
	CreateProduct(ctx context.Context, p *models.Product, actorID int64) error
	UpdateProduct(ctx context.Context, p *models.Product, actorID int64) error
	DeleteProduct(ctx context.Context, id, actorID int64) error
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]*models.Product, error)
}

// ClientService is CRUD over renting customers.
type ClientService interface {
	CreateClient(ctx context.Context, client *models.Client, actorID int64) error
	UpdateClient(ctx context.Context, client *models.Client, actorID int64) error
	DeleteClient(ctx context.Context, id, actorID int64) error
	GetClient(ctx context.Context, id int64) (*models.Client, error)
	ListClients(ctx context.Context, limit, offset int) ([]*models.Client, error)
}

// ActivityService reads the audit log.
type ActivityService interface {
	ListActivities(ctx context.Context, limit, offset int) ([]*models.Activity, error)
	ListEntityActivities(ctx context.Context, entity string, entityID int64) ([]*models.Activity, error)
}
