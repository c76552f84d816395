package test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	domainErrors "github.com/polkiloo/fooddispatch/internal/domain/errors"
	"github.com/polkiloo/fooddispatch/internal/domain/model"
	"github.com/polkiloo/fooddispatch/internal/domain/repository"
)

// MemoryStore keeps users, partners and orders in memory and implements every
// repository contract plus a snapshot based transactor.
type MemoryStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	users    map[int64]model.User
	partners map[int64]model.DeliveryPartner
	orders   map[int64]model.Order
	overdue  map[int64]time.Time

	nextUser  int64
	nextOrder int64

	// Now stamps created rows. Defaults to time.Now.
	Now func() time.Time
	// FailOn makes the named operation ("Orders.Assign", "Partners.AddActiveOrder", ...) fail.
	FailOn map[string]error
	// CommitErr fails WithinTransaction after fn succeeded and rolls everything back.
	CommitErr error

	Commits   int
	Rollbacks int
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[int64]model.User),
		partners: make(map[int64]model.DeliveryPartner),
		orders:   make(map[int64]model.Order),
		overdue:  make(map[int64]time.Time),
		FailOn:   make(map[string]error),
	}
}

func (s *MemoryStore) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *MemoryStore) fail(op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.FailOn[op]
}

// Fail registers an error for op.
func (s *MemoryStore) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailOn[op] = err
}

func (s *MemoryStore) Users() repository.UserRepository       { return memUsers{s} }
func (s *MemoryStore) Partners() repository.PartnerRepository { return memPartners{s} }
func (s *MemoryStore) Orders() repository.OrderRepository     { return memOrders{s} }

// WithinTransaction serialises transactions and restores the previous state
// when fn or the commit fails.
func (s *MemoryStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos repository.Set) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := s.fail("Begin"); err != nil {
		return err
	}

	snapshot := s.snapshot()
	err := fn(ctx, repository.Set{Users: s.Users(), Partners: s.Partners(), Orders: s.Orders()})
	if err == nil && s.CommitErr != nil {
		err = s.CommitErr
	}
	if err != nil {
		s.restore(snapshot)
		s.mu.Lock()
		s.Rollbacks++
		s.mu.Unlock()
		return err
	}
	s.mu.Lock()
	s.Commits++
	s.mu.Unlock()
	return nil
}

type storeState struct {
	users     map[int64]model.User
	partners  map[int64]model.DeliveryPartner
	orders    map[int64]model.Order
	overdue   map[int64]time.Time
	nextUser  int64
	nextOrder int64
}

func (s *MemoryStore) snapshot() storeState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := storeState{
		users:     make(map[int64]model.User, len(s.users)),
		partners:  make(map[int64]model.DeliveryPartner, len(s.partners)),
		orders:    make(map[int64]model.Order, len(s.orders)),
		overdue:   make(map[int64]time.Time, len(s.overdue)),
		nextUser:  s.nextUser,
		nextOrder: s.nextOrder,
	}
	for id, u := range s.users {
		state.users[id] = u
	}
	for id, p := range s.partners {
		state.partners[id] = clonePartner(p)
	}
	for id, o := range s.orders {
		state.orders[id] = cloneOrder(o)
	}
	for id, at := range s.overdue {
		state.overdue[id] = at
	}
	return state
}

func (s *MemoryStore) restore(state storeState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = state.users
	s.partners = state.partners
	s.orders = state.orders
	s.overdue = state.overdue
	s.nextUser = state.nextUser
	s.nextOrder = state.nextOrder
}

func clonePartner(p model.DeliveryPartner) model.DeliveryPartner {
	p.CurrentOrders = append([]int64{}, p.CurrentOrders...)
	if p.LocationUpdatedAt != nil {
		at := *p.LocationUpdatedAt
		p.LocationUpdatedAt = &at
	}
	return p
}

func cloneOrder(o model.Order) model.Order {
	o.Items = append([]model.Item(nil), o.Items...)
	if o.AssignedPartner != nil {
		ref := *o.AssignedPartner
		o.AssignedPartner = &ref
	}
	return o
}

// AddUser seeds an active user.
func (s *MemoryStore) AddUser(name string, role model.Role) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUser++
	user := model.User{
		ID:           s.nextUser,
		Name:         name,
		Email:        fmt.Sprintf("%s-%d@example.com", RandomASCIIString(6, 6), s.nextUser),
		PasswordHash: "hash:password",
		Role:         role,
		Active:       true,
		CreatedAt:    s.now(),
	}
	s.users[user.ID] = user
	return user
}

// AddPartner seeds a delivery user together with its profile.
func (s *MemoryStore) AddPartner(name string, averageDeliveryTime int, available bool) model.DeliveryPartner {
	user := s.AddUser(name, model.RoleDelivery)

	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	partner := model.DeliveryPartner{
		UserID:              user.ID,
		Name:                user.Name,
		Email:               user.Email,
		Active:              true,
		IsAvailable:         available,
		CurrentOrders:       []int64{},
		AverageDeliveryTime: averageDeliveryTime,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	s.partners[user.ID] = partner
	return clonePartner(partner)
}

// AddOrder seeds a PREP order.
func (s *MemoryStore) AddOrder(code string, prepTime int, createdBy int64, items ...model.Item) model.Order {
	if len(items) == 0 {
		items = []model.Item{{Name: "Pizza", Quantity: 2, Price: 300}}
	}
	order, err := s.Orders().Create(context.Background(), model.NewOrder{
		Code: code, Items: items, PrepTime: prepTime, CreatedBy: createdBy,
	})
	if err != nil {
		panic(err)
	}
	return *order
}

// SetActive toggles the account flag of a user.
func (s *MemoryStore) SetActive(userID int64, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[userID]
	u.Active = active
	s.users[userID] = u
	if p, ok := s.partners[userID]; ok {
		p.Active = active
		s.partners[userID] = p
	}
}

// SetCurrentOrders overwrites a partner's active order list.
func (s *MemoryStore) SetCurrentOrders(userID int64, ids ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.partners[userID]
	p.CurrentOrders = append([]int64{}, ids...)
	s.partners[userID] = p
}

// Partner returns a copy of the stored profile.
func (s *MemoryStore) Partner(userID int64) model.DeliveryPartner {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clonePartner(s.partners[userID])
}

// Order returns a copy of the stored order.
func (s *MemoryStore) Order(code string) model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.Code == code {
			return s.resolve(o)
		}
	}
	return model.Order{}
}

// resolve fills user names the way the SQL joins do. Callers hold mu.
func (s *MemoryStore) resolve(o model.Order) model.Order {
	o = cloneOrder(o)
	o.CreatedBy.Name = s.users[o.CreatedBy.ID].Name
	if o.AssignedPartner != nil {
		o.AssignedPartner.Name = s.users[o.AssignedPartner.ID].Name
	}
	return o
}

type memUsers struct{ s *MemoryStore }

func (r memUsers) Create(ctx context.Context, user model.User) (*model.User, error) {
	if err := r.s.fail("Users.Create"); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	s.nextUser++
	user.ID = s.nextUser
	user.CreatedAt = s.now()
	s.users[user.ID] = user
	return &user, nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if err := r.s.fail("Users.GetByEmail"); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, domainErrors.ErrUserNotFound
}

func (r memUsers) GetByID(ctx context.Context, id int64) (*model.User, error) {
	if err := r.s.fail("Users.GetByID"); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domainErrors.ErrUserNotFound
	}
	return &u, nil
}

type memPartners struct{ s *MemoryStore }

func (r memPartners) Create(ctx context.Context, userID int64, averageDeliveryTime int) (*model.DeliveryPartner, error) {
	if err := r.s.fail("Partners.Create"); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, domainErrors.ErrUserNotFound
	}
	if _, exists := s.partners[userID]; exists {
		return nil, domainErrors.ErrAlreadyExists
	}
	if averageDeliveryTime < model.MinAverageDeliveryTime {
		return nil, domainErrors.ErrInvalidDeliveryAvg
	}
	now := s.now()
	p := model.DeliveryPartner{
		UserID:              userID,
		Name:                user.Name,
		Email:               user.Email,
		Active:              user.Active,
		CurrentOrders:       []int64{},
		AverageDeliveryTime: averageDeliveryTime,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	s.partners[userID] = p
	out := clonePartner(p)
	return &out, nil
}

func (r memPartners) get(op string, userID int64) (*model.DeliveryPartner, error) {
	if err := r.s.fail(op); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partners[userID]
	if !ok {
		return nil, domainErrors.ErrPartnerNotFound
	}
	out := clonePartner(p)
	return &out, nil
}

func (r memPartners) GetByUserID(ctx context.Context, userID int64) (*model.DeliveryPartner, error) {
	return r.get("Partners.GetByUserID", userID)
}

func (r memPartners) GetByUserIDForUpdate(ctx context.Context, userID int64) (*model.DeliveryPartner, error) {
	return r.get("Partners.GetByUserIDForUpdate", userID)
}

func (r memPartners) List(ctx context.Context, filter model.PartnerFilter) ([]model.DeliveryPartner, error) {
	if err := r.s.fail("Partners.List"); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.DeliveryPartner
	for _, p := range s.partners {
		if filter.AvailableOnly && (!p.IsAvailable || !p.Active) {
			continue
		}
		out = append(out, clonePartner(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

func (r memPartners) update(op string, userID int64, fn func(p *model.DeliveryPartner)) (*model.DeliveryPartner, error) {
	if err := r.s.fail(op); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partners[userID]
	if !ok {
		return nil, domainErrors.ErrPartnerNotFound
	}
	fn(&p)
	p.UpdatedAt = s.now()
	s.partners[userID] = p
	out := clonePartner(p)
	return &out, nil
}

func (r memPartners) ToggleAvailability(ctx context.Context, userID int64) (*model.DeliveryPartner, error) {
	return r.update("Partners.ToggleAvailability", userID, func(p *model.DeliveryPartner) {
		p.IsAvailable = !p.IsAvailable
	})
}

func (r memPartners) UpdateLocation(ctx context.Context, userID int64, location model.Location) (*model.DeliveryPartner, error) {
	return r.update("Partners.UpdateLocation", userID, func(p *model.DeliveryPartner) {
		now := r.s.now()
		p.Location = location
		p.LocationUpdatedAt = &now
	})
}

func (r memPartners) AddActiveOrder(ctx context.Context, userID, orderID int64) error {
	if err := r.s.fail("Partners.AddActiveOrder"); err != nil {
		return err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partners[userID]
	if !ok {
		return domainErrors.ErrPartnerNotFound
	}
	if p.Carries(orderID) {
		return domainErrors.ErrDuplicateAssignment
	}
	if !p.HasCapacity() {
		return domainErrors.ErrPartnerAtCapacity
	}
	p.CurrentOrders = append(append([]int64{}, p.CurrentOrders...), orderID)
	s.partners[userID] = p
	return nil
}

func (r memPartners) RemoveActiveOrder(ctx context.Context, userID, orderID int64) error {
	if err := r.s.fail("Partners.RemoveActiveOrder"); err != nil {
		return err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partners[userID]
	if !ok {
		return nil
	}
	kept := []int64{}
	for _, id := range p.CurrentOrders {
		if id != orderID {
			kept = append(kept, id)
		}
	}
	p.CurrentOrders = kept
	s.partners[userID] = p
	return nil
}

func (r memPartners) ReconcileActiveOrders(ctx context.Context) (int64, error) {
	if err := r.s.fail("Partners.ReconcileActiveOrders"); err != nil {
		return 0, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var repaired int64
	for id, p := range s.partners {
		kept := []int64{}
		for _, orderID := range p.CurrentOrders {
			if o, ok := s.orders[orderID]; ok && o.Status != model.OrderStatusDelivered {
				kept = append(kept, orderID)
			}
		}
		if len(kept) != len(p.CurrentOrders) {
			p.CurrentOrders = kept
			s.partners[id] = p
			repaired++
		}
	}
	return repaired, nil
}

type memOrders struct{ s *MemoryStore }

func (r memOrders) Create(ctx context.Context, order model.NewOrder) (*model.Order, error) {
	if err := r.s.fail("Orders.Create"); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.Code == order.Code {
			return nil, domainErrors.ErrAlreadyExists
		}
	}
	if _, ok := s.users[order.CreatedBy]; !ok {
		return nil, domainErrors.ErrUserNotFound
	}
	s.nextOrder++
	now := s.now()
	o := model.Order{
		ID:              s.nextOrder,
		Code:            order.Code,
		Items:           append([]model.Item(nil), order.Items...),
		PrepTime:        order.PrepTime,
		Status:          model.OrderStatusPrep,
		CreatedBy:       model.UserRef{ID: order.CreatedBy},
		CustomerName:    order.CustomerName,
		DeliveryAddress: order.DeliveryAddress,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.orders[o.ID] = o
	out := s.resolve(o)
	return &out, nil
}

func (r memOrders) get(op, code string) (*model.Order, error) {
	if err := r.s.fail(op); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orders {
		if o.Code == code {
			out := s.resolve(o)
			return &out, nil
		}
	}
	return nil, domainErrors.ErrOrderNotFound
}

func (r memOrders) GetByCode(ctx context.Context, code string) (*model.Order, error) {
	return r.get("Orders.GetByCode", code)
}

func (r memOrders) GetByCodeForUpdate(ctx context.Context, code string) (*model.Order, error) {
	return r.get("Orders.GetByCodeForUpdate", code)
}

func (r memOrders) List(ctx context.Context, filter model.OrderFilter) ([]model.Order, int, error) {
	if err := r.s.fail("Orders.List"); err != nil {
		return nil, 0, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []model.Order
	for _, o := range s.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.PartnerID != 0 && (o.AssignedPartner == nil || o.AssignedPartner.ID != filter.PartnerID) {
			continue
		}
		matched = append(matched, s.resolve(o))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	page := filter.Page.Normalize()
	total := len(matched)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (r memOrders) CodesByID(ctx context.Context, ids []int64) ([]string, error) {
	if err := r.s.fail("Orders.CodesByID"); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	sorted := append([]int64{}, ids...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	var codes []string
	for _, id := range sorted {
		if o, ok := s.orders[id]; ok {
			codes = append(codes, o.Code)
		}
	}
	return codes, nil
}

func (r memOrders) Assign(ctx context.Context, orderID, partnerID int64, schedule model.Schedule) error {
	if err := r.s.fail("Orders.Assign"); err != nil {
		return err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.Status != model.OrderStatusPrep || o.AssignedPartner != nil {
		return domainErrors.ErrOrderAlreadyAssigned
	}
	dispatch, eta := schedule.DispatchTime, schedule.EstimatedDeliveryTime
	o.AssignedPartner = &model.UserRef{ID: partnerID}
	o.DispatchTime = &dispatch
	o.EstimatedDeliveryTime = &eta
	o.UpdatedAt = s.now()
	s.orders[orderID] = o
	return nil
}

func (r memOrders) UpdateStatus(ctx context.Context, orderID int64, from, to model.OrderStatus, at time.Time) error {
	if err := r.s.fail("Orders.UpdateStatus"); err != nil {
		return err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok || o.Status != from {
		return domainErrors.ErrInvalidTransition.WithDetail("order is no longer " + string(from))
	}
	o.Status = to
	switch to {
	case model.OrderStatusPicked:
		o.PickedAt = &at
	case model.OrderStatusDelivered:
		o.DeliveredAt = &at
	}
	o.UpdatedAt = at
	s.orders[orderID] = o
	return nil
}

func (r memOrders) ClaimOverdue(ctx context.Context, now time.Time, limit int) ([]model.Order, error) {
	if err := r.s.fail("Orders.ClaimOverdue"); err != nil {
		return nil, err
	}
	s := r.s
	s.mu.Lock()
	defer s.mu.Unlock()
	var late []model.Order
	for id, o := range s.orders {
		if o.AssignedPartner == nil || o.Status == model.OrderStatusDelivered || o.EstimatedDeliveryTime == nil {
			continue
		}
		if _, reported := s.overdue[id]; reported || !o.EstimatedDeliveryTime.Before(now) {
			continue
		}
		late = append(late, s.resolve(o))
	}
	sort.Slice(late, func(i, j int) bool {
		return late[i].EstimatedDeliveryTime.Before(*late[j].EstimatedDeliveryTime)
	})
	if limit > 0 && len(late) > limit {
		late = late[:limit]
	}
	for _, o := range late {
		s.overdue[o.ID] = now
	}
	return late, nil
}

var (
	_ repository.Factory    = (*MemoryStore)(nil)
	_ repository.Transactor = (*MemoryStore)(nil)
)
