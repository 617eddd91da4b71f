package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"optik-backend/internal/events"
	"optik-backend/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

func createTestOrder(t *testing.T, db *gorm.DB, total string) *OrderView {
	t.Helper()
	user := seedUser(t, db, "Ayse")
	customer := seedCustomer(t, db, uuid.NewString()[:11], "Mehmet Yilmaz")
	in := CreateOrderInput{CustomerID: &customer.ID, TotalAmount: decPtr(total)}
	order, err := newOrderService(db, quietPublisher()).CreateOrder(context.Background(), in, user.ID)
	require.NoError(t, err)
	return order
}

func storedRemaining(t *testing.T, db *gorm.DB, id uuid.UUID) decimal.Decimal {
	t.Helper()
	var order models.Order
	require.NoError(t, db.First(&order, "id = ?", id).Error)
	return order.RemainingAmount
}

func TestRecordPaymentUpdatesRemaining(t *testing.T) {
	db := newTestDB(t)
	order := createTestOrder(t, db, "1850")
	publisher := quietPublisher()
	svc := NewPaymentService(db, publisher, zap.NewNop().Sugar())

	payment, err := svc.RecordPayment(context.Background(), PaymentInput{
		OrderID:       order.ID,
		Amount:        decPtr("800"),
		PaymentMethod: models.PaymentCreditCard,
		Notes:         "deposit",
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, payment.ID)
	assert.False(t, payment.PaymentDate.IsZero())
	assertDecimal(t, "1050", storedRemaining(t, db, order.ID))
	publisher.AssertCalled(t, "Publish", mock.Anything, events.PaymentRecorded, mock.AnythingOfType("events.PaymentEvent"))

	view, err := newOrderService(db, quietPublisher()).GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assertDecimal(t, "1050", view.RemainingAmount)
	assertDecimal(t, "800", view.PaidAmount)
}

func TestRecordPaymentKeepsBalanceInvariant(t *testing.T) {
	db := newTestDB(t)
	order := createTestOrder(t, db, "1000")
	svc := NewPaymentService(db, quietPublisher(), zap.NewNop().Sugar())

	paid := dec("0")
	for _, amount := range []string{"100", "250.50", "49.50", "600"} {
		_, err := svc.RecordPayment(context.Background(), PaymentInput{
			OrderID: order.ID, Amount: decPtr(amount), PaymentMethod: models.PaymentCash,
		})
		require.NoError(t, err)
		paid = paid.Add(dec(amount))

		var stored models.Order
		require.NoError(t, db.First(&stored, "id = ?", order.ID).Error)
		assertDecimal(t, stored.TotalAmount.Sub(paid).String(), stored.RemainingAmount)
	}
	assertDecimal(t, "0", storedRemaining(t, db, order.ID))
}

func TestRecordPaymentConcurrent(t *testing.T) {
	db := newTestDB(t)
	order := createTestOrder(t, db, "1000")
	svc := NewPaymentService(db, quietPublisher(), zap.NewNop().Sugar())

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			_, err := svc.RecordPayment(context.Background(), PaymentInput{
				OrderID: order.ID, Amount: decPtr("50"), PaymentMethod: models.PaymentCash,
			})
			return err
		})
	}
	require.NoError(t, g.Wait())

	assertDecimal(t, "500", storedRemaining(t, db, order.ID))
	assert.Equal(t, int64(10), countRows(t, db, &models.Payment{}))
}

func TestRecordPaymentAllowsOverpayment(t *testing.T) {
	db := newTestDB(t)
	order := createTestOrder(t, db, "100")
	svc := NewPaymentService(db, quietPublisher(), zap.NewNop().Sugar())

	_, err := svc.RecordPayment(context.Background(), PaymentInput{
		OrderID: order.ID, Amount: decPtr("150"), PaymentMethod: models.PaymentBankTransfer,
	})

	require.NoError(t, err)
	assertDecimal(t, "-50", storedRemaining(t, db, order.ID))
}

func TestRecordPaymentUnknownOrder(t *testing.T) {
	db := newTestDB(t)
	publisher := &MockPublisher{}
	svc := NewPaymentService(db, publisher, zap.NewNop().Sugar())

	_, err := svc.RecordPayment(context.Background(), PaymentInput{
		OrderID: uuid.New(), Amount: decPtr("10"), PaymentMethod: models.PaymentCash,
	})

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Zero(t, countRows(t, db, &models.Payment{}))
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestRecordPaymentValidation(t *testing.T) {
	tests := []struct {
		name string
		in   PaymentInput
	}{
		{"zero amount", PaymentInput{OrderID: uuid.New(), Amount: decPtr("0"), PaymentMethod: models.PaymentCash}},
		{"negative amount", PaymentInput{OrderID: uuid.New(), Amount: decPtr("-5"), PaymentMethod: models.PaymentCash}},
		{"missing amount", PaymentInput{OrderID: uuid.New(), PaymentMethod: models.PaymentCash}},
		{"unknown method", PaymentInput{OrderID: uuid.New(), Amount: decPtr("5"), PaymentMethod: "CHEQUE"}},
		{"missing order", PaymentInput{Amount: decPtr("5"), PaymentMethod: models.PaymentCash}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.in.validate(), ErrInvalidRequest))
		})
	}
}

func TestListPaymentsForOrderNewestFirst(t *testing.T) {
	db := newTestDB(t)
	order := createTestOrder(t, db, "1000")
	svc := NewPaymentService(db, quietPublisher(), zap.NewNop().Sugar())

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, amount := range []string{"100", "200", "300"} {
		_, err := svc.RecordPayment(context.Background(), PaymentInput{
			OrderID:       order.ID,
			Amount:        decPtr(amount),
			PaymentMethod: models.PaymentCash,
			PaymentDate:   ptr(base.AddDate(0, 0, i)),
		})
		require.NoError(t, err)
	}

	payments, err := svc.ListPaymentsForOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, payments, 3)
	assertDecimal(t, "300", payments[0].Amount)
	assertDecimal(t, "100", payments[2].Amount)

	none, err := svc.ListPaymentsForOrder(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListPaymentsForOrderMixedOffsets(t *testing.T) {
	db := newTestDB(t)
	order := createTestOrder(t, db, "1000")
	svc := NewPaymentService(db, quietPublisher(), zap.NewNop().Sugar())

	istanbul := time.FixedZone("TRT", 3*60*60)
	dates := []time.Time{
		time.Date(2024, 5, 1, 14, 0, 0, 0, istanbul), // 11:00Z
		time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	for i, amount := range []string{"100", "200"} {
		_, err := svc.RecordPayment(context.Background(), PaymentInput{
			OrderID:       order.ID,
			Amount:        decPtr(amount),
			PaymentMethod: models.PaymentCash,
			PaymentDate:   ptr(dates[i]),
		})
		require.NoError(t, err)
	}

	payments, err := svc.ListPaymentsForOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assertDecimal(t, "200", payments[0].Amount)
	assertDecimal(t, "100", payments[1].Amount)
	assert.True(t, payments[1].PaymentDate.Equal(dates[0]))
}
