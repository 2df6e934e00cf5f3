package service

import (
	"context"
	"time"

	"github.com/luiz-cesar-ti/agendamento-obj-v2/internal/entity"
)

// AvailabilityService вычисляет остатки оборудования для окна времени
type AvailabilityService interface {
	AvailableEquipment(ctx context.Context, query AvailabilityQuery) ([]entity.EquipmentAvailability, error)
	CurrentUsage(ctx context.Context) ([]entity.EquipmentUsage, error)
}

// BookingService определяет интерфейс для операций с бронированиями
type BookingService interface {
	// Основные операции
	CreateBooking(ctx context.Context, req *CreateBookingRequest) (*entity.Booking, error)
	UpdateBooking(ctx context.Context, id string, req *UpdateBookingRequest) (*entity.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	GetBooking(ctx context.Context, id string) (*entity.Booking, error)
	ListBookings(ctx context.Context, filter entity.BookingFilter) ([]*entity.Booking, error)

	// Операции истечения срока
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

type DashboardService interface {
	Stats(ctx context.Context) (*entity.DashboardStats, error)
}

type EquipmentService interface {
	ListEquipment(ctx context.Context) ([]*entity.Equipment, error)
	GetEquipment(ctx context.Context, id string) (*entity.Equipment, error)
	CreateEquipment(ctx context.Context, req *CreateEquipmentRequest) (*entity.Equipment, error)
	UpdateEquipment(ctx context.Context, id string, req *UpdateEquipmentRequest) (*entity.Equipment, error)
	DeleteEquipment(ctx context.Context, id string) error
}

type HelpService interface {
	GetHelp(ctx context.Context) (*entity.HelpContent, error)
	UpdateHelp(ctx context.Context, req *UpdateHelpRequest) (*entity.HelpContent, error)
}

// ViewCache хранит производные представления (каталог, статистика и т.д.)
//
// On a miss Get returns a token bound to the view version it saw; Set writes under
// that token, so a value loaded before an Invalidate is never served after it.
// An empty token means the value must not be cached.
type ViewCache interface {
	Get(ctx context.Context, view entity.View, key string, dest interface{}) (found bool, token string, err error)
	Set(ctx context.Context, token string, value interface{}) error
	Invalidate(ctx context.Context, views ...entity.View) error
}

// EventPublisher публикует события бронирований во внешний брокер
type EventPublisher interface {
	Publish(ctx context.Context, key string, message interface{}) error
}

// AdminNotifier отправляет уведомления администраторам
type AdminNotifier interface {
	NotifyAdmins(ctx context.Context, text string) error
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// AllocationRequest is one requested (equipment, quantity) pair.
type AllocationRequest struct {
	EquipmentID string `json:"equipment_id" binding:"required"`
	Quantity    int    `json:"quantity" binding:"min=0"`
}

// CreateBookingRequest представляет данные для создания бронирования
type CreateBookingRequest struct {
	FullName    string              `json:"full_name" binding:"required,max=255"`
	Classroom   string              `json:"classroom" binding:"required,max=255"`
	BookingDate string              `json:"booking_date" binding:"required"`
	StartTime   string              `json:"start_time" binding:"required"`
	EndTime     string              `json:"end_time" binding:"required"`
	Equipment   []AllocationRequest `json:"equipment" binding:"required,min=1,dive"`
}

// UpdateBookingRequest carries the fields an administrator edits. Nil fields keep
// their value. A nil Equipment keeps the allocations, a non-nil one replaces them all.
type UpdateBookingRequest struct {
	Status      *string             `json:"status,omitempty"`
	FullName    *string             `json:"full_name,omitempty" binding:"omitempty,max=255"`
	Classroom   *string             `json:"classroom,omitempty" binding:"omitempty,max=255"`
	BookingDate *string             `json:"booking_date,omitempty"`
	StartTime   *string             `json:"start_time,omitempty"`
	EndTime     *string             `json:"end_time,omitempty"`
	Equipment   []AllocationRequest `json:"equipment,omitempty" binding:"omitempty,dive"`
}

// AvailabilityQuery is the window to compute remaining quantities for.
type AvailabilityQuery struct {
	Date             string `form:"date" json:"date" binding:"required"`
	StartTime        string `form:"start_time" json:"start_time" binding:"required"`
	EndTime          string `form:"end_time" json:"end_time" binding:"required"`
	ExcludeBookingID string `form:"exclude_booking_id" json:"exclude_booking_id,omitempty"`
}

type CreateEquipmentRequest struct {
	Name          string `json:"name" binding:"required,max=255"`
	TotalQuantity int    `json:"total_quantity" binding:"min=0"`
	Category      string `json:"category" binding:"required,max=100"`
}

type UpdateEquipmentRequest struct {
	Name          *string `json:"name,omitempty" binding:"omitempty,max=255"`
	TotalQuantity *int    `json:"total_quantity,omitempty" binding:"omitempty,min=0"`
	Category      *string `json:"category,omitempty" binding:"omitempty,max=100"`
}

type UpdateHelpRequest struct {
	HelpText     *string `json:"help_text"`
	HelpVideoURL *string `json:"help_video_url" binding:"omitempty,url"`
}
