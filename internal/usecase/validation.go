package usecase

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lucsky/cuid"

	domainErrors "github.com/polkiloo/fooddispatch/internal/domain/errors"
	"github.com/polkiloo/fooddispatch/internal/domain/model"
)

const (
	minPrepTime       = 1
	maxPrepTime       = 120
	minPasswordLength = 6
)

var (
	orderCodePattern = regexp.MustCompile(`^[A-Za-z0-9-]{3,32}$`)
	validate         = validator.New()
)

// newOrderCode returns a short human-readable order identifier.
var newOrderCode = func() string {
	return "ORD-" + strings.ToUpper(cuid.Slug())
}

// NormalizeOrderCode trims a client supplied code and checks its format. An
// empty input yields a generated code.
func NormalizeOrderCode(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return newOrderCode(), nil
	}
	if !orderCodePattern.MatchString(code) {
		return "", domainErrors.ErrInvalidOrderCode
	}
	return code, nil
}

// ValidateItems trims item names in place.
func ValidateItems(items []model.Item) error {
	if len(items) == 0 {
		return domainErrors.ErrEmptyItems
	}
	for i := range items {
		items[i].Name = strings.TrimSpace(items[i].Name)
		if items[i].Name == "" {
			return domainErrors.ErrInvalidItemName
		}
		if items[i].Quantity < 1 {
			return domainErrors.ErrInvalidQuantity
		}
		if items[i].Price < 0 {
			return domainErrors.ErrInvalidPrice
		}
	}
	return nil
}

func ValidatePrepTime(minutes int) error {
	if minutes < minPrepTime || minutes > maxPrepTime {
		return domainErrors.ErrInvalidPrepTime
	}
	return nil
}

// NormalizeEmail lower-cases the address and rejects malformed input.
func NormalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if err := validate.Var(email, "required,email"); err != nil {
		return "", domainErrors.ErrInvalidEmail
	}
	return email, nil
}

func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return domainErrors.ErrWeakPassword
	}
	return nil
}

// ValidateLocation requires both coordinates inside WGS84 bounds.
func ValidateLocation(lat, lng *float64) (model.Location, error) {
	if lat == nil || lng == nil {
		return model.Location{}, domainErrors.ErrMissingCoordinates
	}
	loc := model.Location{Lat: *lat, Lng: *lng}
	if !loc.Valid() {
		return model.Location{}, domainErrors.ErrInvalidCoordinates
	}
	return loc, nil
}
