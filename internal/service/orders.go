package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"optik-backend/internal/events"
	"optik-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const maxOrderNumberAttempts = 5

var errOrderNumberTaken = errors.New("order number already taken")

// MeasurementInput is one distance or near reading. Sign is "+" or "-".
type MeasurementInput struct {
	Sign *string  `json:"sign" binding:"omitempty,oneof=+ -"`
	Sph  *float64 `json:"sph"`
	Cyl  *float64 `json:"cyl"`
	Ax   *float64 `json:"ax"`
}

func (m *MeasurementInput) validate() error {
	if m == nil || m.Sign == nil {
		return nil
	}
	if *m.Sign != "+" && *m.Sign != "-" {
		return invalid("Measurement sign must be + or -")
	}
	return nil
}

type LensInput struct {
	LensType  string `json:"lensType"`
	Material  string `json:"material"`
	Coating   string `json:"coating"`
	LensIndex string `json:"lensIndex"`
}

type PrescriptionInput struct {
	EyeSide  models.EyeSide    `json:"eyeSide" binding:"required,oneof=LEFT RIGHT"`
	Distance *MeasurementInput `json:"distance"`
	Near     *MeasurementInput `json:"near"`
	Addition *float64          `json:"addition"`
	PD       *float64          `json:"pd"`
	Height   *float64          `json:"height"`
	Diameter *float64          `json:"diameter"`
	Lenses   []LensInput       `json:"lenses"`
}

type FrameInput struct {
	Brand string `json:"brand"`
	Model string `json:"model"`
	Color string `json:"color"`
	Type  string `json:"type"`
}

type CreateOrderInput struct {
	CustomerID       *uuid.UUID              `json:"customerId"`
	Customer         *CustomerInput          `json:"customer"`
	TotalAmount      *decimal.Decimal        `json:"totalAmount" binding:"required"`
	SGKAmount        decimal.Decimal         `json:"sgkAmount"`
	RemainingAmount  *decimal.Decimal        `json:"remainingAmount"`
	Status           models.OrderStatus      `json:"status"`
	PrescriptionType models.PrescriptionType `json:"prescriptionType"`
	Notes            string                  `json:"notes"`
	OrderDate        *time.Time              `json:"orderDate"`
	DeliveryDate     *time.Time              `json:"deliveryDate"`
	Frames           []FrameInput            `json:"frames" binding:"dive"`
	Prescriptions    []PrescriptionInput     `json:"prescriptions" binding:"dive"`
}

func (in CreateOrderInput) validate() error {
	if in.CustomerID == nil && in.Customer == nil {
		return invalid("customer or customerId required")
	}
	if in.CustomerID == nil {
		if err := in.Customer.validate(); err != nil {
			return err
		}
	}
	if in.TotalAmount == nil {
		return invalid("totalAmount is required")
	}
	if in.TotalAmount.IsNegative() || in.SGKAmount.IsNegative() {
		return invalid("Amounts cannot be negative")
	}
	if in.RemainingAmount != nil {
		return invalid("remainingAmount is derived from payments and cannot be set")
	}
	if in.Status != "" && !in.Status.Valid() {
		return invalid("Invalid order status")
	}
	if in.PrescriptionType != "" && !in.PrescriptionType.Valid() {
		return invalid("Invalid prescription type")
	}
	for _, p := range in.Prescriptions {
		if !p.EyeSide.Valid() {
			return invalid("Prescription eyeSide must be LEFT or RIGHT")
		}
		if err := p.Distance.validate(); err != nil {
			return err
		}
		if err := p.Near.validate(); err != nil {
			return err
		}
	}
	return nil
}

// UpdateOrderInput holds the scalar fields an order update may change. The
// raw fields only exist to detect and reject sub-graph edits.
type UpdateOrderInput struct {
	TotalAmount      *decimal.Decimal         `json:"totalAmount"`
	SGKAmount        *decimal.Decimal         `json:"sgkAmount"`
	Status           *models.OrderStatus      `json:"status"`
	PrescriptionType *models.PrescriptionType `json:"prescriptionType"`
	Notes            *string                  `json:"notes"`
	OrderDate        *time.Time               `json:"orderDate"`
	DeliveryDate     *time.Time               `json:"deliveryDate"`
	CustomerName     *string                  `json:"customerName"`
	CustomerID       *uuid.UUID               `json:"customerId"`

	Frames          json.RawMessage `json:"frames"`
	Prescriptions   json.RawMessage `json:"prescriptions"`
	Customer        json.RawMessage `json:"customer"`
	RemainingAmount json.RawMessage `json:"remainingAmount"`
}

func (in UpdateOrderInput) validate() error {
	switch {
	case len(in.Frames) > 0:
		return invalid("frames cannot be changed on an existing order")
	case len(in.Prescriptions) > 0:
		return invalid("prescriptions cannot be changed on an existing order")
	case len(in.Customer) > 0:
		return invalid("customer cannot be created on update; use customerId")
	case len(in.RemainingAmount) > 0:
		return invalid("remainingAmount is derived from payments and cannot be set")
	}
	if in.TotalAmount != nil && in.TotalAmount.IsNegative() {
		return invalid("Amounts cannot be negative")
	}
	if in.SGKAmount != nil && in.SGKAmount.IsNegative() {
		return invalid("Amounts cannot be negative")
	}
	if in.Status != nil && !in.Status.Valid() {
		return invalid("Invalid order status")
	}
	if in.PrescriptionType != nil && *in.PrescriptionType != "" && !in.PrescriptionType.Valid() {
		return invalid("Invalid prescription type")
	}
	if in.CustomerName != nil && strings.TrimSpace(*in.CustomerName) == "" {
		return invalid("customerName cannot be empty")
	}
	return nil
}

type UserSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// OrderView is an order as returned to clients. RemainingAmount is derived
// from the payments read together with the order.
type OrderView struct {
	models.Order
	User       *UserSummary    `json:"user,omitempty"`
	PaidAmount decimal.Decimal `json:"paidAmount"`
}

func newOrderView(order models.Order, paid decimal.Decimal) OrderView {
	view := OrderView{Order: order, PaidAmount: paid}
	if order.User != nil {
		view.User = &UserSummary{ID: order.User.ID, Name: order.User.Name}
	}
	view.Order.User = nil
	view.Order.Payments = nil
	view.RemainingAmount = order.TotalAmount.Sub(paid)
	return view
}

type OrderService struct {
	db         *gorm.DB
	events     events.Publisher
	log        *zap.SugaredLogger
	nextNumber OrderNumberFunc
}

func NewOrderService(db *gorm.DB, publisher events.Publisher, log *zap.SugaredLogger) *OrderService {
	return &OrderService{
		db:         db,
		events:     publisher,
		log:        log,
		nextNumber: NewOrderNumber,
	}
}

// CreateOrder writes the order with its frames, prescriptions and lenses in a
// single transaction. When the generated order number is already taken the
// whole transaction is retried with a fresh number.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput, userID uuid.UUID) (*OrderView, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var view *OrderView
	for attempt := 1; ; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			id, err := s.writeOrder(tx, in, userID)
			if err != nil {
				return err
			}
			view, err = loadOrder(tx, id)
			return err
		})
		if err == nil {
			break
		}
		if !errors.Is(err, errOrderNumberTaken) {
			return nil, err
		}
		if attempt == maxOrderNumberAttempts {
			return nil, conflict("Could not allocate a unique order number")
		}
		s.log.Warnw("order number collision, retrying", "attempt", attempt)
	}

	s.log.Infow("order created", "order_id", view.ID, "order_number", view.OrderNumber, "user_id", userID)
	publish(ctx, s.events, s.log, events.OrderCreated, orderEvent(view))
	return view, nil
}

func (s *OrderService) writeOrder(tx *gorm.DB, in CreateOrderInput, userID uuid.UUID) (uuid.UUID, error) {
	customerID, customerName, err := resolveCustomer(tx, in.CustomerID, in.Customer)
	if err != nil {
		return uuid.Nil, err
	}

	status := in.Status
	if status == "" {
		status = models.OrderPending
	}
	orderDate := time.Now().UTC()
	if in.OrderDate != nil {
		orderDate = in.OrderDate.UTC()
	}

	order := models.Order{
		OrderNumber:      s.nextNumber(),
		OrderDate:        orderDate,
		DeliveryDate:     utcTime(in.DeliveryDate),
		TotalAmount:      *in.TotalAmount,
		SGKAmount:        in.SGKAmount,
		RemainingAmount:  *in.TotalAmount,
		Status:           status,
		PrescriptionType: in.PrescriptionType,
		Notes:            in.Notes,
		CustomerFullName: customerName,
		CustomerID:       customerID,
		UserID:           userID,
	}
	if err := tx.Omit(clause.Associations).Create(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return uuid.Nil, errOrderNumberTaken
		}
		return uuid.Nil, err
	}

	if len(in.Frames) > 0 {
		frames := make([]models.Frame, len(in.Frames))
		for i, f := range in.Frames {
			frames[i] = models.Frame{
				OrderID:   order.ID,
				Brand:     f.Brand,
				Model:     f.Model,
				Color:     f.Color,
				Type:      f.Type,
				SortOrder: i,
			}
		}
		if err := tx.Create(&frames).Error; err != nil {
			return uuid.Nil, err
		}
	}

	for i, p := range in.Prescriptions {
		rx := models.Prescription{
			OrderID:   order.ID,
			EyeSide:   p.EyeSide,
			Addition:  p.Addition,
			PD:        p.PD,
			Height:    p.Height,
			Diameter:  p.Diameter,
			SortOrder: i,
		}
		if d := p.Distance; d != nil {
			rx.DistanceSign, rx.DistanceSph, rx.DistanceCyl, rx.DistanceAx = d.Sign, d.Sph, d.Cyl, d.Ax
		}
		if n := p.Near; n != nil {
			rx.NearSign, rx.NearSph, rx.NearCyl, rx.NearAx = n.Sign, n.Sph, n.Cyl, n.Ax
		}
		if err := tx.Omit(clause.Associations).Create(&rx).Error; err != nil {
			return uuid.Nil, err
		}

		if len(p.Lenses) == 0 {
			continue
		}
		lenses := make([]models.Lens, len(p.Lenses))
		for j, l := range p.Lenses {
			lenses[j] = models.Lens{
				PrescriptionID: rx.ID,
				LensType:       l.LensType,
				Material:       l.Material,
				Coating:        l.Coating,
				LensIndex:      l.LensIndex,
				SortOrder:      j,
			}
		}
		if err := tx.Create(&lenses).Error; err != nil {
			return uuid.Nil, err
		}
	}

	return order.ID, nil
}

// UpdateOrder changes scalar order fields. A new total recomputes the
// remaining balance from the recorded payments while the row is locked.
func (s *OrderService) UpdateOrder(ctx context.Context, id uuid.UUID, in UpdateOrderInput) (*OrderView, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	var view *OrderView
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, "id = ?", id).Error; err != nil {
			return translate(err, "Order not found")
		}

		updates := map[string]interface{}{}
		if in.CustomerID != nil {
			var customer models.Customer
			if err := tx.Select("id", "full_name").First(&customer, "id = ?", *in.CustomerID).Error; err != nil {
				return translate(err, "Customer not found")
			}
			updates["customer_id"] = customer.ID
			updates["customer_full_name"] = customer.FullName
		}
		if in.CustomerName != nil {
			updates["customer_full_name"] = *in.CustomerName
		}
		if in.SGKAmount != nil {
			updates["sgk_amount"] = *in.SGKAmount
		}
		if in.Status != nil {
			updates["status"] = *in.Status
		}
		if in.PrescriptionType != nil {
			updates["prescription_type"] = *in.PrescriptionType
		}
		if in.Notes != nil {
			updates["notes"] = *in.Notes
		}
		if in.OrderDate != nil {
			updates["order_date"] = in.OrderDate.UTC()
		}
		if in.DeliveryDate != nil {
			updates["delivery_date"] = in.DeliveryDate.UTC()
		}
		if in.TotalAmount != nil {
			paid, err := paidTotal(tx, order.ID)
			if err != nil {
				return err
			}
			updates["total_amount"] = *in.TotalAmount
			updates["remaining_amount"] = in.TotalAmount.Sub(paid)
		}

		if len(updates) > 0 {
			if err := tx.Model(&order).Updates(updates).Error; err != nil {
				return translate(err, "Order not found")
			}
		}

		var err error
		view, err = loadOrder(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.events, s.log, events.OrderUpdated, orderEvent(view))
	return view, nil
}

// OrderFilter narrows ListOrders. The zero value lists every order.
type OrderFilter struct {
	Status     models.OrderStatus
	CustomerID *uuid.UUID
}

// ListOrders returns orders newest first with their customer, the user who
// took them and the amount paid so far.
func (s *OrderService) ListOrders(ctx context.Context, filter OrderFilter) ([]OrderView, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("Invalid order status")
	}
	db := s.db.WithContext(ctx)

	query := db.Preload("Customer").
		Preload("User", selectUserSummary).
		Order("order_date desc").
		Order("created_at desc")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}

	var orders []models.Order
	err := query.Find(&orders).Error
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return []OrderView{}, nil
	}

	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	paid, err := paidTotals(db, ids)
	if err != nil {
		return nil, err
	}

	views := make([]OrderView, len(orders))
	for i, o := range orders {
		views[i] = newOrderView(o, paid[o.ID])
	}
	return views, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id uuid.UUID) (*OrderView, error) {
	return loadOrder(s.db.WithContext(ctx), id)
}

func loadOrder(db *gorm.DB, id uuid.UUID) (*OrderView, error) {
	var order models.Order
	err := db.Preload("Customer.Relative").
		Preload("User", selectUserSummary).
		Preload("Frames", orderBySortOrder).
		Preload("Prescriptions", orderBySortOrder).
		Preload("Prescriptions.Lenses", orderBySortOrder).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "Order not found")
	}

	paid, err := paidTotal(db, order.ID)
	if err != nil {
		return nil, err
	}
	view := newOrderView(order, paid)
	return &view, nil
}

// utcTime normalizes a stored time to UTC. SQLite keeps times as text, so
// rows only sort and compare by instant when they share one offset.
func utcTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func selectUserSummary(db *gorm.DB) *gorm.DB {
	return db.Select("id", "name")
}

func orderBySortOrder(db *gorm.DB) *gorm.DB {
	return db.Order("sort_order asc")
}

func paidTotal(db *gorm.DB, orderID uuid.UUID) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	if err := db.Model(&models.Payment{}).Where("order_id = ?", orderID).Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total, nil
}

func paidTotals(db *gorm.DB, orderIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	var payments []models.Payment
	if err := db.Select("order_id", "amount").Where("order_id IN ?", orderIDs).Find(&payments).Error; err != nil {
		return nil, err
	}
	totals := make(map[uuid.UUID]decimal.Decimal, len(orderIDs))
	for _, p := range payments {
		totals[p.OrderID] = totals[p.OrderID].Add(p.Amount)
	}
	return totals, nil
}

func orderEvent(v *OrderView) events.OrderEvent {
	return events.OrderEvent{
		OrderID:         v.ID,
		OrderNumber:     v.OrderNumber,
		CustomerID:      v.CustomerID,
		UserID:          v.UserID,
		Status:          string(v.Status),
		TotalAmount:     v.TotalAmount,
		RemainingAmount: v.RemainingAmount,
		OccurredAt:      time.Now(),
	}
}
