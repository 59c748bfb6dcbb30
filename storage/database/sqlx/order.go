package sqlxrepos

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/vidwanic/backend/core"
	"github.com/vidwanic/backend/core/order"
)

var _ core.DBTransactor = (*sqlx.Tx)(nil) // interface compliance check

type orderRow struct {
	ID              string    `db:"id"`
	OrderNumber     string    `db:"order_number"`
	SchoolID        string    `db:"school_id"`
	TotalAmount     int       `db:"total_amount"`
	Status          string    `db:"status"`
	OrderType       string    `db:"order_type"`
	DeliveryAddress string    `db:"delivery_address"`
	DeliveryContact string    `db:"delivery_contact"`
	PaymentStatus   string    `db:"payment_status"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

func (r orderRow) unpack() order.Order {
	return order.Order{
		ID:              r.ID,
		OrderNumber:     r.OrderNumber,
		SchoolID:        r.SchoolID,
		TotalAmount:     r.TotalAmount,
		Status:          r.Status,
		OrderType:       r.OrderType,
		DeliveryAddress: r.DeliveryAddress,
		DeliveryContact: r.DeliveryContact,
		PaymentStatus:   r.PaymentStatus,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

type orderItemRow struct {
	ID            string `db:"id"`
	OrderID       string `db:"order_id"`
	MagazineID    string `db:"magazine_id"`
	MagazineTitle string `db:"magazine_title"`
	Quantity      int    `db:"quantity"`
	UnitPrice     int    `db:"unit_price"`
	TotalPrice    int    `db:"total_price"`
}

func (r orderItemRow) unpack() order.OrderItem {
	return order.OrderItem{
		ID:            r.ID,
		OrderID:       r.OrderID,
		MagazineID:    r.MagazineID,
		MagazineTitle: r.MagazineTitle,
		Quantity:      r.Quantity,
		UnitPrice:     r.UnitPrice,
		TotalPrice:    r.TotalPrice,
	}
}

const orderItemQuery = `
	SELECT i.*, m.title AS magazine_title
	FROM school_order_item i
	JOIN magazine m ON m.id = i.magazine_id`

type orderRepository struct {
	db *sqlx.DB
}

var _ order.Repository = (*orderRepository)(nil) // interface compliance check

func NewOrderRepository(db *sqlx.DB) *orderRepository {
	return &orderRepository{db: db}
}

func (repo orderRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return order.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

// CreateOrder writes the order, its items and the magazine counter bumps in
// one transaction; a failure at any step leaves nothing behind.
func (repo orderRepository) CreateOrder(ord order.Order) (order.Order, error) {
	tx, err := repo.db.Beginx()
	if err != nil {
		return order.Order{}, errors.Wrap(err, "beginning order transaction")
	}
	defer func() { _ = tx.Rollback() }()

	ord.ID = uuid.New().String()
	if err = insertOrder(tx, ord); err != nil {
		return order.Order{}, err
	}
	for i := range ord.Items {
		item := &ord.Items[i]
		item.ID = uuid.New().String()
		item.OrderID = ord.ID
		if err = insertOrderItem(tx, *item); err != nil {
			return order.Order{}, err
		}
		if err = bumpPurchaseCounters(tx, item.MagazineID, item.Quantity); err != nil {
			return order.Order{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return order.Order{}, errors.Wrap(err, "committing order transaction")
	}
	return ord, nil
}

func insertOrder(tx core.DBTransactor, ord order.Order) error {
	query := `
		INSERT INTO school_order (id, order_number, school_id, total_amount, status, order_type,
		                          delivery_address, delivery_contact, payment_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := tx.Exec(query, ord.ID, ord.OrderNumber, ord.SchoolID, ord.TotalAmount, ord.Status,
		ord.OrderType, ord.DeliveryAddress, ord.DeliveryContact, ord.PaymentStatus, ord.CreatedAt, ord.UpdatedAt)
	return errors.Wrap(err, "inserting order")
}

func insertOrderItem(tx core.DBTransactor, item order.OrderItem) error {
	query := `
		INSERT INTO school_order_item (id, order_id, magazine_id, quantity, unit_price, total_price)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := tx.Exec(query, item.ID, item.OrderID, item.MagazineID, item.Quantity, item.UnitPrice, item.TotalPrice)
	return errors.Wrap(err, "inserting order item")
}

func bumpPurchaseCounters(tx core.DBTransactor, magazineID string, quantity int) error {
	query := `
		UPDATE magazine
		SET total_purchases = total_purchases + $1, school_purchases = school_purchases + 1
		WHERE id = $2`
	_, err := tx.Exec(query, quantity, magazineID)
	return errors.Wrap(err, "updating purchase counters")
}

func (repo orderRepository) GetOrderByID(id string) (order.Order, error) {
	var row orderRow
	if err := repo.db.Get(&row, "SELECT * FROM school_order WHERE id = $1", id); err != nil {
		return order.Order{}, repo.trapNoRowsErr(err, "getting order")
	}
	ord := row.unpack()

	var itemRows []orderItemRow
	if err := repo.db.Select(&itemRows, orderItemQuery+" WHERE i.order_id = $1", id); err != nil {
		return order.Order{}, errors.Wrap(err, "querying order items")
	}
	for _, r := range itemRows {
		ord.Items = append(ord.Items, r.unpack())
	}
	return ord, nil
}

func (repo orderRepository) QueryOrdersBySchool(schoolID string) ([]order.Order, error) {
	var rows []orderRow
	query := "SELECT * FROM school_order WHERE school_id = $1 ORDER BY created_at DESC"
	if err := repo.db.Select(&rows, query, schoolID); err != nil {
		return nil, errors.Wrap(err, "querying orders")
	}
	if len(rows) == 0 {
		return []order.Order{}, nil
	}

	orders := make([]order.Order, 0, len(rows))
	idx := make(map[string]int, len(rows))
	ids := make([]string, 0, len(rows))
	for i, r := range rows {
		orders = append(orders, r.unpack())
		idx[r.ID] = i
		ids = append(ids, r.ID)
	}

	query, args, err := sqlx.In(orderItemQuery+" WHERE i.order_id IN (?)", ids)
	if err != nil {
		return nil, errors.Wrap(err, "querying order items")
	}
	var itemRows []orderItemRow
	if err = repo.db.Select(&itemRows, repo.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying order items")
	}
	for _, r := range itemRows {
		i := idx[r.OrderID]
		orders[i].Items = append(orders[i].Items, r.unpack())
	}
	return orders, nil
}
