package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"optik-backend/internal/events"
	"optik-backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newOrderService(db *gorm.DB, p events.Publisher) *OrderService {
	return NewOrderService(db, p, zap.NewNop().Sugar())
}

func sampleOrderInput(customerID uuid.UUID) CreateOrderInput {
	return CreateOrderInput{
		CustomerID:       &customerID,
		TotalAmount:      decPtr("1850"),
		SGKAmount:        dec("250"),
		PrescriptionType: models.PrescriptionManual,
		Notes:            "progressive lenses",
		Frames: []FrameInput{
			{Brand: "Ray-Ban", Model: "RB5154", Color: "Black", Type: "Full rim"},
		},
		Prescriptions: []PrescriptionInput{
			{
				EyeSide:  models.EyeRight,
				Distance: &MeasurementInput{Sign: ptr("-"), Sph: ptr(1.25), Cyl: ptr(0.5), Ax: ptr(90.0)},
				Near:     &MeasurementInput{Sign: ptr("+"), Sph: ptr(1.0)},
				PD:       ptr(32.0),
				Lenses: []LensInput{
					{LensType: "Progressive", Material: "Polycarbonate", Coating: "AR", LensIndex: "1.67"},
				},
			},
			{
				EyeSide:  models.EyeLeft,
				Distance: &MeasurementInput{Sign: ptr("-"), Sph: ptr(1.5)},
			},
		},
	}
}

func TestCreateOrderWritesWholeAggregate(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "Ayse")
	customer := seedCustomer(t, db, "12345678901", "Mehmet Yilmaz")
	publisher := quietPublisher()
	svc := newOrderService(db, publisher)

	created, err := svc.CreateOrder(context.Background(), sampleOrderInput(customer.ID), user.ID)
	require.NoError(t, err)

	order, err := svc.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)

	assert.Regexp(t, `^ORD-\d+-[0-9A-Z]{5}$`, order.OrderNumber)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, "Mehmet Yilmaz", order.CustomerFullName)
	assert.Equal(t, customer.ID, order.CustomerID)
	assertDecimal(t, "1850", order.TotalAmount)
	assertDecimal(t, "250", order.SGKAmount)
	assertDecimal(t, "1850", order.RemainingAmount)
	assertDecimal(t, "0", order.PaidAmount)

	require.NotNil(t, order.User)
	assert.Equal(t, user.ID, order.User.ID)
	assert.Equal(t, "Ayse", order.User.Name)

	require.Len(t, order.Frames, 1)
	assert.Equal(t, "Ray-Ban", order.Frames[0].Brand)

	require.Len(t, order.Prescriptions, 2)
	right := order.Prescriptions[0]
	assert.Equal(t, models.EyeRight, right.EyeSide)
	require.NotNil(t, right.DistanceSign)
	assert.Equal(t, "-", *right.DistanceSign)
	assert.Equal(t, 1.25, *right.DistanceSph)
	assert.Equal(t, 90.0, *right.DistanceAx)
	assert.Equal(t, 1.0, *right.NearSph)
	assert.Nil(t, right.NearCyl)
	require.Len(t, right.Lenses, 1)
	assert.Equal(t, "Progressive", right.Lenses[0].LensType)

	assert.Equal(t, models.EyeLeft, order.Prescriptions[1].EyeSide)
	assert.Empty(t, order.Prescriptions[1].Lenses)

	publisher.AssertCalled(t, "Publish", mock.Anything, events.OrderCreated, mock.AnythingOfType("events.OrderEvent"))
}

func TestCreateOrderWithInlineCustomer(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "Ayse")
	svc := newOrderService(db, quietPublisher())

	in := sampleOrderInput(uuid.Nil)
	in.CustomerID = nil
	in.Customer = &CustomerInput{
		TCIdentityNumber: "10987654321",
		FullName:         "Zeynep Kaya",
		PhoneNumber:      "05551112233",
		Relative:         &RelativeInput{FullName: "Ali Kaya", TCIdentityNumber: "11122233344"},
	}

	order, err := svc.CreateOrder(context.Background(), in, user.ID)
	require.NoError(t, err)

	assert.Equal(t, "Zeynep Kaya", order.CustomerFullName)
	require.NotNil(t, order.Customer)
	assert.Equal(t, "10987654321", order.Customer.TCIdentityNumber)
	require.NotNil(t, order.Customer.Relative)
	assert.Equal(t, "Ali Kaya", order.Customer.Relative.FullName)
	assert.Equal(t, order.Customer.ID, order.CustomerID)
	assert.Equal(t, int64(1), countRows(t, db, &models.Customer{}))
	assert.Equal(t, int64(1), countRows(t, db, &models.Relative{}))
}

func TestCreateOrderCustomerIDTakesPrecedence(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "Ayse")
	customer := seedCustomer(t, db, "12345678901", "Mehmet Yilmaz")
	svc := newOrderService(db, quietPublisher())

	in := sampleOrderInput(customer.ID)
	in.Customer = &CustomerInput{TCIdentityNumber: "10987654321", FullName: "Ignored"}

	order, err := svc.CreateOrder(context.Background(), in, user.ID)
	require.NoError(t, err)

	assert.Equal(t, customer.ID, order.CustomerID)
	assert.Equal(t, int64(1), countRows(t, db, &models.Customer{}))
}

func TestCreateOrderUnknownCustomerWritesNothing(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "Ayse")
	publisher := &MockPublisher{}
	svc := newOrderService(db, publisher)

	_, err := svc.CreateOrder(context.Background(), sampleOrderInput(uuid.New()), user.ID)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Zero(t, countRows(t, db, &models.Order{}))
	assert.Zero(t, countRows(t, db, &models.Frame{}))
	assert.Zero(t, countRows(t, db, &models.Prescription{}))
	assert.Zero(t, countRows(t, db, &models.Lens{}))
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateOrderDuplicateInlineCustomerConflicts(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "Ayse")
	seedCustomer(t, db, "10987654321", "Existing")
	svc := newOrderService(db, quietPublisher())

	in := sampleOrderInput(uuid.Nil)
	in.CustomerID = nil
	in.Customer = &CustomerInput{TCIdentityNumber: "10987654321", FullName: "Zeynep Kaya"}

	_, err := svc.CreateOrder(context.Background(), in, user.ID)

	assert.True(t, errors.Is(err, ErrConflict))
	assert.Zero(t, countRows(t, db, &models.Order{}))
}

func TestCreateOrderWithoutCustomerIssuesNoSQL(t *testing.T) {
	sqlDB, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)

	svc := newOrderService(db, &MockPublisher{})
	in := sampleOrderInput(uuid.Nil)
	in.CustomerID = nil

	_, err = svc.CreateOrder(context.Background(), in, uuid.New())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Equal(t, "customer or customerId required", err.Error())
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestCreateOrderValidation(t *testing.T) {
	customerID := uuid.New()
	tests := []struct {
		name   string
		mutate func(in *CreateOrderInput)
	}{
		{"missing total", func(in *CreateOrderInput) { in.TotalAmount = nil }},
		{"negative total", func(in *CreateOrderInput) { in.TotalAmount = decPtr("-1") }},
		{"negative sgk", func(in *CreateOrderInput) { in.SGKAmount = dec("-5") }},
		{"client remaining amount", func(in *CreateOrderInput) { in.RemainingAmount = decPtr("10") }},
		{"unknown status", func(in *CreateOrderInput) { in.Status = "SHIPPED" }},
		{"unknown eye side", func(in *CreateOrderInput) { in.Prescriptions[0].EyeSide = "BOTH" }},
		{"unknown distance sign", func(in *CreateOrderInput) { in.Prescriptions[0].Distance.Sign = ptr("plus") }},
		{"unknown near sign", func(in *CreateOrderInput) { in.Prescriptions[0].Near.Sign = ptr("") }},
		{"bad inline identity", func(in *CreateOrderInput) {
			in.CustomerID = nil
			in.Customer = &CustomerInput{TCIdentityNumber: "123", FullName: "X"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleOrderInput(customerID)
			tt.mutate(&in)
			assert.True(t, errors.Is(in.validate(), ErrInvalidRequest))
		})
	}
}

func TestCreateOrderRetriesTakenOrderNumber(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "Ayse")
	customer := seedCustomer(t, db, "12345678901", "Mehmet Yilmaz")
	svc := newOrderService(db, quietPublisher())

	numbers := []string{"ORD-1-AAAAA", "ORD-1-AAAAA", "ORD-1-BBBBB"}
	svc.nextNumber = func() string {
		n := numbers[0]
		numbers = numbers[1:]
		return n
	}

	first, err := svc.CreateOrder(context.Background(), sampleOrderInput(customer.ID), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ORD-1-AAAAA", first.OrderNumber)

	second, err := svc.CreateOrder(context.Background(), sampleOrderInput(customer.ID), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "ORD-1-BBBBB", second.OrderNumber)

	assert.Equal(t, int64(2), countRows(t, db, &models.Order{}))
	assert.Equal(t, int64(2), countRows(t, db, &models.Frame{}))
}

func TestCreateOrderGivesUpAfterRepeatedCollisions(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "Ayse")
	customer := seedCustomer(t, db, "12345678901", "Mehmet Yilmaz")
	svc := newOrderService(db, quietPublisher())
	calls := 0
	svc.nextNumber = func() string {
		calls++
		return "ORD-1-AAAAA"
	}

	_, err := svc.CreateOrder(context.Background(), sampleOrderInput(customer.ID), user.ID)
	require.NoError(t, err)
	calls = 0

	_, err = svc.CreateOrder(context.Background(), sampleOrderInput(customer.ID), user.ID)

	assert.True(t, errors.Is(err, ErrConflict))
	assert.Equal(t, maxOrderNumberAttempts, calls)
	assert.Equal(t, int64(1), countRows(t, db, &models.Order{}))
}

func TestListOrdersNewestFirst(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "Ayse")
	customer := seedCustomer(t, db, "12345678901", "Mehmet Yilmaz")
	svc := newOrderService(db, quietPublisher())
	payments := NewPaymentService(db, quietPublisher(), zap.NewNop().Sugar())

	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		in := sampleOrderInput(customer.ID)
		in.OrderDate = ptr(base.AddDate(0, 0, i))
		order, err := svc.CreateOrder(context.Background(), in, user.ID)
		require.NoError(t, err)
		ids = append(ids, order.ID)
	}
	_, err := payments.RecordPayment(context.Background(), PaymentInput{
		OrderID: ids[0], Amount: decPtr("300"), PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)

	list, err := svc.ListOrders(context.Background(), OrderFilter{})
	require.NoError(t, err)

	require.Len(t, list, 3)
	assert.Equal(t, []uuid.UUID{ids[2], ids[1], ids[0]}, []uuid.UUID{list[0].ID, list[1].ID, list[2].ID})
	for _, o := range list {
		require.NotNil(t, o.Customer)
		require.NotNil(t, o.User)
		assert.Equal(t, "Ayse", o.User.Name)
		assert.Nil(t, o.Payments)
	}
	assertDecimal(t, "300", list[2].PaidAmount)
	assertDecimal(t, "1550", list[2].RemainingAmount)
	assertDecimal(t, "0", list[0].PaidAmount)
}

func TestListOrdersMixedOffsets(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "Ayse")
	customer := seedCustomer(t, db, "12345678901", "Mehmet Yilmaz")
	svc := newOrderService(db, quietPublisher())

	istanbul := time.FixedZone("TRT", 3*60*60)
	earlier := time.Date(2024, 3, 1, 10, 0, 0, 0, istanbul) // 07:00Z
	later := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for _, at := range []time.Time{earlier, later} {
		in := sampleOrderInput(customer.ID)
		in.OrderDate = ptr(at)
		in.DeliveryDate = ptr(at.Add(72 * time.Hour))
		order, err := svc.CreateOrder(context.Background(), in, user.ID)
		require.NoError(t, err)
		ids = append(ids, order.ID)
	}

	list, err := svc.ListOrders(context.Background(), OrderFilter{})
	require.NoError(t, err)

	require.Len(t, list, 2)
	assert.Equal(t, []uuid.UUID{ids[1], ids[0]}, []uuid.UUID{list[0].ID, list[1].ID})
	assert.True(t, list[1].OrderDate.Equal(earlier))
	require.NotNil(t, list[1].DeliveryDate)
	assert.True(t, list[1].DeliveryDate.Equal(earlier.Add(72*time.Hour)))
}

func TestListOrdersEmpty(t *testing.T) {
	svc := newOrderService(newTestDB(t), quietPublisher())

	list, err := svc.ListOrders(context.Background(), OrderFilter{})

	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestGetOrderIsRepeatable(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "Ayse")
	customer := seedCustomer(t, db, "12345678901", "Mehmet Yilmaz")
	svc := newOrderService(db, quietPublisher())

	created, err := svc.CreateOrder(context.Background(), sampleOrderInput(customer.ID), user.ID)
	require.NoError(t, err)

	first, err := svc.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)
	second, err := svc.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestGetOrderNotFound(t *testing.T) {
	svc := newOrderService(newTestDB(t), quietPublisher())

	_, err := svc.GetOrder(context.Background(), uuid.New())

	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateOrderScalarFields(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "Ayse")
	customer := seedCustomer(t, db, "12345678901", "Mehmet Yilmaz")
	svc := newOrderService(db, quietPublisher())

	created, err := svc.CreateOrder(context.Background(), sampleOrderInput(customer.ID), user.ID)
	require.NoError(t, err)

	status := models.OrderReady
	updated, err := svc.UpdateOrder(context.Background(), created.ID, UpdateOrderInput{
		Status:       &status,
		Notes:        ptr("ready for pickup"),
		CustomerName: ptr("Mehmet Y."),
	})
	require.NoError(t, err)

	assert.Equal(t, models.OrderReady, updated.Status)
	assert.Equal(t, "ready for pickup", updated.Notes)
	assert.Equal(t, "Mehmet Y.", updated.CustomerFullName)
	assert.Equal(t, created.OrderNumber, updated.OrderNumber)
	assert.Len(t, updated.Frames, 1)
}

func TestUpdateOrderTotalRecomputesRemaining(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "Ayse")
	customer := seedCustomer(t, db, "12345678901", "Mehmet Yilmaz")
	svc := newOrderService(db, quietPublisher())
	payments := NewPaymentService(db, quietPublisher(), zap.NewNop().Sugar())

	created, err := svc.CreateOrder(context.Background(), sampleOrderInput(customer.ID), user.ID)
	require.NoError(t, err)
	_, err = payments.RecordPayment(context.Background(), PaymentInput{
		OrderID: created.ID, Amount: decPtr("800"), PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateOrder(context.Background(), created.ID, UpdateOrderInput{TotalAmount: decPtr("2000")})
	require.NoError(t, err)
	assertDecimal(t, "1200", updated.RemainingAmount)

	var stored models.Order
	require.NoError(t, db.First(&stored, "id = ?", created.ID).Error)
	assertDecimal(t, "1200", stored.RemainingAmount)
}

func TestUpdateOrderRelinksCustomer(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "Ayse")
	first := seedCustomer(t, db, "12345678901", "Mehmet Yilmaz")
	second := seedCustomer(t, db, "10987654321", "Zeynep Kaya")
	svc := newOrderService(db, quietPublisher())

	created, err := svc.CreateOrder(context.Background(), sampleOrderInput(first.ID), user.ID)
	require.NoError(t, err)

	updated, err := svc.UpdateOrder(context.Background(), created.ID, UpdateOrderInput{CustomerID: &second.ID})
	require.NoError(t, err)
	assert.Equal(t, second.ID, updated.CustomerID)
	assert.Equal(t, "Zeynep Kaya", updated.CustomerFullName)

	missing := uuid.New()
	_, err = svc.UpdateOrder(context.Background(), created.ID, UpdateOrderInput{CustomerID: &missing})
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateOrderRejectsSubGraphFields(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "Ayse")
	customer := seedCustomer(t, db, "12345678901", "Mehmet Yilmaz")
	svc := newOrderService(db, quietPublisher())

	created, err := svc.CreateOrder(context.Background(), sampleOrderInput(customer.ID), user.ID)
	require.NoError(t, err)

	for _, body := range []string{
		`{"frames": []}`,
		`{"prescriptions": [{"eyeSide": "LEFT"}]}`,
		`{"customer": {"fullName": "X"}}`,
		`{"remainingAmount": 0}`,
	} {
		var in UpdateOrderInput
		require.NoError(t, json.Unmarshal([]byte(body), &in))

		_, err := svc.UpdateOrder(context.Background(), created.ID, in)
		assert.Truef(t, errors.Is(err, ErrInvalidRequest), "body %s", body)
	}

	order, err := svc.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Len(t, order.Frames, 1)
	assert.Len(t, order.Prescriptions, 2)
}

func TestUpdateOrderNotFound(t *testing.T) {
	svc := newOrderService(newTestDB(t), quietPublisher())

	_, err := svc.UpdateOrder(context.Background(), uuid.New(), UpdateOrderInput{Notes: ptr("x")})

	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCreateOrderPublishFailureIsNotSurfaced(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "Ayse")
	customer := seedCustomer(t, db, "12345678901", "Mehmet Yilmaz")
	publisher := &MockPublisher{}
	publisher.On("Publish", mock.Anything, events.OrderCreated, mock.Anything).Return(errors.New("broker down"))
	svc := newOrderService(db, publisher)

	order, err := svc.CreateOrder(context.Background(), sampleOrderInput(customer.ID), user.ID)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, order.ID)
	publisher.AssertExpectations(t)
}

func TestListOrdersFilters(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "Ayse")
	first := seedCustomer(t, db, "12345678901", "Mehmet Yilmaz")
	second := seedCustomer(t, db, "10987654321", "Zeynep Kaya")
	svc := newOrderService(db, quietPublisher())

	in := sampleOrderInput(first.ID)
	in.Status = models.OrderReady
	_, err := svc.CreateOrder(context.Background(), in, user.ID)
	require.NoError(t, err)
	_, err = svc.CreateOrder(context.Background(), sampleOrderInput(second.ID), user.ID)
	require.NoError(t, err)

	ready, err := svc.ListOrders(context.Background(), OrderFilter{Status: models.OrderReady})
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, first.ID, ready[0].CustomerID)

	forSecond, err := svc.ListOrders(context.Background(), OrderFilter{CustomerID: &second.ID})
	require.NoError(t, err)
	require.Len(t, forSecond, 1)
	assert.Equal(t, models.OrderPending, forSecond[0].Status)

	_, err = svc.ListOrders(context.Background(), OrderFilter{Status: "LOST"})
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}
