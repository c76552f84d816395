package usecase

import (
	"context"
	"log/slog"

	domainErrors "github.com/polkiloo/fooddispatch/internal/domain/errors"
	"github.com/polkiloo/fooddispatch/internal/domain/event"
	"github.com/polkiloo/fooddispatch/internal/domain/model"
	"github.com/polkiloo/fooddispatch/internal/domain/repository"
)

// PartnerUseCase manages delivery partner profiles.
type PartnerUseCase struct {
	partners repository.PartnerRepository
	orders   repository.OrderRepository
	notifier Notifier
	logger   *slog.Logger
}

// NewPartnerUseCase constructs PartnerUseCase.
func NewPartnerUseCase(partners repository.PartnerRepository, orders repository.OrderRepository, notifier Notifier, logger *slog.Logger) *PartnerUseCase {
	return &PartnerUseCase{partners: partners, orders: orders, notifier: notifier, logger: logger}
}

// ToggleAvailability flips the caller's availability flag.
func (u *PartnerUseCase) ToggleAvailability(ctx context.Context, actor model.Identity) (*model.DeliveryPartner, error) {
	if !actor.IsPartner() {
		return nil, domainErrors.ErrDeliveryOnly
	}
	partner, err := u.partners.ToggleAvailability(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	notify(ctx, u.notifier, u.logger, event.Event{
		Type: event.PartnerAvailabilityChanged,
		Data: event.AvailabilityData{PartnerID: partner.UserID, Name: partner.Name, IsAvailable: partner.IsAvailable},
	}, event.Room(event.RoomManagers))
	notify(ctx, u.notifier, u.logger, event.NewPartnersChanged("availability"), event.Room(event.RoomAll))
	return partner, nil
}

// UpdateLocation stores the caller's position and streams it to managers and
// to observers of every order the partner currently carries.
func (u *PartnerUseCase) UpdateLocation(ctx context.Context, actor model.Identity, lat, lng *float64) (*model.DeliveryPartner, error) {
	if !actor.IsPartner() {
		return nil, domainErrors.ErrDeliveryOnly
	}
	location, err := ValidateLocation(lat, lng)
	if err != nil {
		return nil, err
	}

	partner, err := u.partners.UpdateLocation(ctx, actor.ID, location)
	if err != nil {
		return nil, err
	}

	codes, err := u.orders.CodesByID(ctx, partner.CurrentOrders)
	if err != nil {
		u.logger.Warn("resolve partner orders failed", slog.Int64("partner", partner.UserID), slog.String("error", err.Error()))
		codes = nil
	}

	audiences := []event.Audience{event.Room(event.RoomManagers)}
	for _, code := range codes {
		audiences = append(audiences, event.OrderRoom(code))
	}
	data := event.LocationData{
		PartnerID: partner.UserID,
		Name:      partner.Name,
		Location:  partner.Location,
		Orders:    codes,
	}
	if partner.LocationUpdatedAt != nil {
		data.Timestamp = *partner.LocationUpdatedAt
	}
	notify(ctx, u.notifier, u.logger, event.Event{Type: event.PartnerLocationUpdated, Data: data}, audiences...)
	return partner, nil
}

// GetProfile returns the caller's own partner profile.
func (u *PartnerUseCase) GetProfile(ctx context.Context, actor model.Identity) (*model.DeliveryPartner, error) {
	if !actor.IsPartner() {
		return nil, domainErrors.ErrDeliveryOnly
	}
	return u.partners.GetByUserID(ctx, actor.ID)
}

// ListPartners feeds the dispatcher's assignment picker.
func (u *PartnerUseCase) ListPartners(ctx context.Context, actor model.Identity, filter model.PartnerFilter) ([]model.DeliveryPartner, error) {
	if !actor.CanManageOrders() {
		return nil, domainErrors.ErrManagerOnly
	}
	return u.partners.List(ctx, filter)
}
