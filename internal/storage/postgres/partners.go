package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/fooddispatch/internal/domain/errors"
	"github.com/polkiloo/fooddispatch/internal/domain/model"
)

const (
	partnerColumns = `dp.user_id, u.name, u.email, u.active, dp.is_available, dp.current_orders, dp.lat, dp.lng,
        dp.location_updated_at, dp.average_delivery_time, dp.created_at, dp.updated_at`
	partnerFrom = ` FROM delivery_partners dp JOIN users u ON u.id = dp.user_id`
)

type partnerRepository struct {
	db querier
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPartner(row rowScanner) (*model.DeliveryPartner, error) {
	var p model.DeliveryPartner
	err := row.Scan(
		&p.UserID, &p.Name, &p.Email, &p.Active, &p.IsAvailable, &p.CurrentOrders,
		&p.Location.Lat, &p.Location.Lng, &p.LocationUpdatedAt, &p.AverageDeliveryTime,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrPartnerNotFound
		}
		return nil, err
	}
	if p.CurrentOrders == nil {
		p.CurrentOrders = []int64{}
	}
	return &p, nil
}

func (r *partnerRepository) Create(ctx context.Context, userID int64, averageDeliveryTime int) (*model.DeliveryPartner, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO delivery_partners (user_id, average_delivery_time) VALUES ($1, $2)`,
		userID, averageDeliveryTime,
	)
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return nil, domainErrors.ErrAlreadyExists
		case pgForeignKeyViolation:
			return nil, domainErrors.ErrUserNotFound
		case pgCheckViolation:
			return nil, domainErrors.ErrInvalidDeliveryAvg
		}
		return nil, err
	}
	return r.GetByUserID(ctx, userID)
}

func (r *partnerRepository) GetByUserID(ctx context.Context, userID int64) (*model.DeliveryPartner, error) {
	return scanPartner(r.db.QueryRow(ctx, `SELECT `+partnerColumns+partnerFrom+` WHERE dp.user_id=$1`, userID))
}

func (r *partnerRepository) GetByUserIDForUpdate(ctx context.Context, userID int64) (*model.DeliveryPartner, error) {
	return scanPartner(r.db.QueryRow(ctx, `SELECT `+partnerColumns+partnerFrom+` WHERE dp.user_id=$1 FOR UPDATE OF dp`, userID))
}

func (r *partnerRepository) List(ctx context.Context, filter model.PartnerFilter) ([]model.DeliveryPartner, error) {
	query := `SELECT ` + partnerColumns + partnerFrom
	if filter.AvailableOnly {
		query += ` WHERE dp.is_available AND u.active`
	}
	query += ` ORDER BY u.name, dp.user_id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var partners []model.DeliveryPartner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, err
		}
		partners = append(partners, *p)
	}
	return partners, rows.Err()
}

func (r *partnerRepository) ToggleAvailability(ctx context.Context, userID int64) (*model.DeliveryPartner, error) {
	return scanPartner(r.db.QueryRow(ctx,
		`WITH dp AS (
            UPDATE delivery_partners SET is_available = NOT is_available, updated_at = NOW()
            WHERE user_id=$1 RETURNING *
        ) SELECT `+partnerColumns+` FROM dp JOIN users u ON u.id = dp.user_id`,
		userID,
	))
}

func (r *partnerRepository) UpdateLocation(ctx context.Context, userID int64, location model.Location) (*model.DeliveryPartner, error) {
	return scanPartner(r.db.QueryRow(ctx,
		`WITH dp AS (
            UPDATE delivery_partners SET lat=$2, lng=$3, location_updated_at = NOW(), updated_at = NOW()
            WHERE user_id=$1 RETURNING *
        ) SELECT `+partnerColumns+` FROM dp JOIN users u ON u.id = dp.user_id`,
		userID, location.Lat, location.Lng,
	))
}

func (r *partnerRepository) AddActiveOrder(ctx context.Context, userID, orderID int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE delivery_partners SET current_orders = array_append(current_orders, $2::BIGINT), updated_at = NOW()
        WHERE user_id=$1 AND cardinality(current_orders) < $3 AND NOT ($2::BIGINT = ANY(current_orders))`,
		userID, orderID, model.MaxActiveOrders,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Nothing matched: tell the caller which guard rejected the append.
	partner, err := r.GetByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if partner.Carries(orderID) {
		return domainErrors.ErrDuplicateAssignment
	}
	return domainErrors.ErrPartnerAtCapacity
}

func (r *partnerRepository) RemoveActiveOrder(ctx context.Context, userID, orderID int64) error {
	_, err := r.db.Exec(ctx,
		`UPDATE delivery_partners SET current_orders = array_remove(current_orders, $2::BIGINT), updated_at = NOW()
        WHERE user_id=$1`,
		userID, orderID,
	)
	return err
}

func (r *partnerRepository) ReconcileActiveOrders(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE delivery_partners dp SET current_orders = ARRAY(
            SELECT c.id FROM unnest(dp.current_orders) WITH ORDINALITY AS c(id, pos)
            JOIN orders o ON o.id = c.id
            WHERE o.status <> 'DELIVERED'
            ORDER BY c.pos
        ), updated_at = NOW()
        WHERE EXISTS (
            SELECT 1 FROM unnest(dp.current_orders) AS c(id)
            LEFT JOIN orders o ON o.id = c.id
            WHERE o.id IS NULL OR o.status = 'DELIVERED'
        )`,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
