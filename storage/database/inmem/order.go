package inmemdb

import (
	"sort"

	"github.com/google/uuid"

	"github.com/vidwanic/backend/core/order"
)

type orderRepository struct {
	db *DB
}

var _ order.Repository = (*orderRepository)(nil) // interface compliance check

func NewOrderRepository(db *DB) *orderRepository {
	return &orderRepository{db: db}
}

// CreateOrder persists the order and bumps the magazine counters under one
// lock; an unknown magazine fails the whole write with nothing applied.
func (repo *orderRepository) CreateOrder(ord order.Order) (order.Order, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, item := range ord.Items {
		if _, ok := repo.db.magazines[item.MagazineID]; !ok {
			return order.Order{}, order.ErrUnknownMagazines
		}
	}

	ord.ID = uuid.New().String()
	for i := range ord.Items {
		item := &ord.Items[i]
		item.ID = uuid.New().String()
		item.OrderID = ord.ID

		mag := repo.db.magazines[item.MagazineID]
		mag.TotalPurchases += item.Quantity
		mag.SchoolPurchases++
	}
	repo.db.orders[ord.ID] = &ord
	repo.db.track(ord.ID)
	return ord, nil
}

func (repo *orderRepository) GetOrderByID(id string) (order.Order, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if ord, ok := repo.db.orders[id]; ok {
		return *ord, nil
	}
	return order.Order{}, order.ErrNotFound
}

func (repo *orderRepository) QueryOrdersBySchool(schoolID string) ([]order.Order, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var orders []order.Order
	for _, ord := range repo.db.orders {
		if ord.SchoolID == schoolID {
			orders = append(orders, *ord)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return repo.db.newestFirst(orders[i].ID, orders[j].ID) })
	return orders, nil
}
