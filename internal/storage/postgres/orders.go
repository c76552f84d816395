package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	domainErrors "github.com/polkiloo/fooddispatch/internal/domain/errors"
	"github.com/polkiloo/fooddispatch/internal/domain/model"
)

const (
	orderColumns = `o.id, o.code, o.items, o.prep_time, o.status, o.assigned_partner_id, p.name,
        o.dispatch_time, o.estimated_delivery_time, o.created_by, c.name, o.customer_name,
        o.delivery_address, o.picked_at, o.delivered_at, o.created_at, o.updated_at`
	orderFrom = ` FROM orders o JOIN users c ON c.id = o.created_by LEFT JOIN users p ON p.id = o.assigned_partner_id`
)

type orderRepository struct {
	storage *Storage
	db      querier
}

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		o           model.Order
		partnerID   *int64
		partnerName *string
	)
	err := row.Scan(
		&o.ID, &o.Code, &o.Items, &o.PrepTime, &o.Status, &partnerID, &partnerName,
		&o.DispatchTime, &o.EstimatedDeliveryTime, &o.CreatedBy.ID, &o.CreatedBy.Name, &o.CustomerName,
		&o.DeliveryAddress, &o.PickedAt, &o.DeliveredAt, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrOrderNotFound
		}
		return nil, err
	}
	if partnerID != nil {
		ref := model.UserRef{ID: *partnerID}
		if partnerName != nil {
			ref.Name = *partnerName
		}
		o.AssignedPartner = &ref
	}
	return &o, nil
}

func scanOrders(rows pgx.Rows) ([]model.Order, error) {
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

func (r *orderRepository) Create(ctx context.Context, order model.NewOrder) (*model.Order, error) {
	_, err := r.db.Exec(ctx,
		`INSERT INTO orders (code, items, prep_time, status, created_by, customer_name, delivery_address)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		order.Code, order.Items, order.PrepTime, string(model.OrderStatusPrep), order.CreatedBy,
		order.CustomerName, order.DeliveryAddress,
	)
	if err != nil {
		switch pgErrorCode(err) {
		case pgUniqueViolation:
			return nil, domainErrors.ErrAlreadyExists
		case pgForeignKeyViolation:
			return nil, domainErrors.ErrUserNotFound
		}
		return nil, err
	}
	return r.GetByCode(ctx, order.Code)
}

func (r *orderRepository) GetByCode(ctx context.Context, code string) (*model.Order, error) {
	return scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+orderFrom+` WHERE o.code=$1`, code))
}

func (r *orderRepository) GetByCodeForUpdate(ctx context.Context, code string) (*model.Order, error) {
	return scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+orderFrom+` WHERE o.code=$1 FOR UPDATE OF o`, code))
}

func (r *orderRepository) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("o.status=$%d", len(args)))
	}
	if filter.PartnerID != 0 {
		args = append(args, filter.PartnerID)
		conditions = append(conditions, fmt.Sprintf("o.assigned_partner_id=$%d", len(args)))
	}
	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM orders o`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	page := filter.Page.Normalize()
	args = append(args, page.Limit, page.Offset())
	query := `SELECT ` + orderColumns + orderFrom + where +
		fmt.Sprintf(" ORDER BY o.created_at DESC, o.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	orders, err := scanOrders(rows)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) CodesByID(ctx context.Context, ids []int64) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, `SELECT code FROM orders WHERE id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

func (r *orderRepository) Assign(ctx context.Context, orderID, partnerID int64, schedule model.Schedule) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET assigned_partner_id=$2, dispatch_time=$3, estimated_delivery_time=$4, updated_at = NOW()
        WHERE id=$1 AND status='PREP' AND assigned_partner_id IS NULL`,
		orderID, partnerID, schedule.DispatchTime, schedule.EstimatedDeliveryTime,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrOrderAlreadyAssigned
	}
	return nil
}

func (r *orderRepository) UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus, at time.Time) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE orders SET status=$3,
            picked_at = CASE WHEN $3 = 'PICKED' THEN $4 ELSE picked_at END,
            delivered_at = CASE WHEN $3 = 'DELIVERED' THEN $4 ELSE delivered_at END,
            updated_at=$4
        WHERE id=$1 AND status=$2`,
		orderID, string(from), string(to), at,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrInvalidTransition.WithDetail(fmt.Sprintf("order is no longer %s", from))
	}
	return nil
}

func (r *orderRepository) ClaimOverdue(ctx context.Context, now time.Time, limit int) ([]model.Order, error) {
	var claimed []model.Order
	err := r.storage.withinTx(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx,
			`SELECT `+orderColumns+orderFrom+`
            WHERE o.assigned_partner_id IS NOT NULL AND o.status <> 'DELIVERED'
              AND o.estimated_delivery_time < $1 AND o.overdue_notified_at IS NULL
            ORDER BY o.estimated_delivery_time
            LIMIT $2
            FOR UPDATE OF o SKIP LOCKED`,
			now, limit,
		)
		if err != nil {
			return err
		}
		orders, err := scanOrders(rows)
		if err != nil {
			return err
		}

		for _, o := range orders {
			if _, err := tx.Exec(ctx, `UPDATE orders SET overdue_notified_at=$2 WHERE id=$1`, o.ID, now); err != nil {
				return err
			}
		}
		claimed = orders
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}
