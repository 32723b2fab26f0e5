package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/hirelane/hirelane/internal/billing/domain"
)

type fakePayments struct {
	statuses map[string]domain.PaymentStatus
	created  []int
	asked    []string
}

func (f *fakePayments) CreatePayment(_ context.Context, id int) (domain.Payment, error) {
	f.created = append(f.created, id)
	return domain.Payment{OrderCode: "1001", CheckoutURL: "https://pay.example/1001"}, nil
}

func (f *fakePayments) PaymentStatus(_ context.Context, code string) (domain.PaymentStatus, error) {
	f.asked = append(f.asked, code)
	return f.statuses[code], nil
}

func TestCheckout_Start(t *testing.T) {
	payments := &fakePayments{}
	c := NewCheckout(payments, newTestLedger(t), zaptest.NewLogger(t))

	p, err := c.Start(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderCode("1001"), p.OrderCode)
	assert.Equal(t, []int{2}, payments.created)
}

func TestCheckout_SettleGrantsOnce(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t)
	payments := &fakePayments{statuses: map[string]domain.PaymentStatus{
		"1001": {OrderCode: "1001", Status: "PAID", PackageName: "Basic"},
	}}
	c := NewCheckout(payments, ledger, zaptest.NewLogger(t))

	res, err := c.Settle(ctx, "u1", "1001", "")
	require.NoError(t, err)
	assert.True(t, res.Granted)
	assert.Equal(t, domain.Limited(3), res.Snapshot.MaxQuota)
	assert.Equal(t, "Basic", res.Snapshot.LastPackageName)

	res, err = c.Settle(ctx, "u1", "1001", "Basic")
	require.NoError(t, err)
	assert.False(t, res.Granted)
	assert.True(t, res.Duplicate)
	assert.Equal(t, domain.Limited(3), res.Snapshot.MaxQuota)
}

func TestCheckout_SettleRequiresPaidOrder(t *testing.T) {
	ledger := newTestLedger(t)
	payments := &fakePayments{statuses: map[string]domain.PaymentStatus{
		"2002": {OrderCode: "2002", Status: "PENDING", PackageName: "Premium"},
	}}
	c := NewCheckout(payments, ledger, nil)

	_, err := c.Settle(context.Background(), "u1", "2002", "")
	assert.ErrorIs(t, err, domain.ErrPaymentNotPaid)

	snap, err := ledger.GetQuota(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.Limited(0), snap.MaxQuota)
}

func TestCheckout_SettleNeedsPackage(t *testing.T) {
	payments := &fakePayments{statuses: map[string]domain.PaymentStatus{
		"3003": {OrderCode: "3003", Status: "PAID"},
	}}
	c := NewCheckout(payments, newTestLedger(t), nil)

	_, err := c.Settle(context.Background(), "u1", "3003", "")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = c.Settle(context.Background(), "", "3003", "Basic")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestCheckout_SettleUsesPaidPackage(t *testing.T) {
	ctx := context.Background()
	payments := &fakePayments{statuses: map[string]domain.PaymentStatus{
		"1001": {OrderCode: "1001", Status: "PAID", PackageName: "Basic"},
		"1002": {OrderCode: "1002", Status: "PAID"},
	}}

	t.Run("caller package disagreeing with the order is rejected", func(t *testing.T) {
		ledger := newTestLedger(t)
		c := NewCheckout(payments, ledger, nil)

		_, err := c.Settle(ctx, "u1", "1001", "Premium")
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)

		snap, err := ledger.GetQuota(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, domain.Limited(0), snap.MaxQuota)
		assert.Empty(t, snap.LastPackageName)
	})

	t.Run("caller package fills in when the order names none", func(t *testing.T) {
		c := NewCheckout(payments, newTestLedger(t), nil)

		res, err := c.Settle(ctx, "u1", "1002", "Premium")
		require.NoError(t, err)
		assert.True(t, res.Granted)
		assert.True(t, res.Snapshot.MaxQuota.IsUnlimited())
	})
}

func TestCheckout_SettleTrimsOrderCode(t *testing.T) {
	ctx := context.Background()
	payments := &fakePayments{statuses: map[string]domain.PaymentStatus{
		"1001": {OrderCode: "1001", Status: "PAID", PackageName: "Basic"},
	}}
	c := NewCheckout(payments, newTestLedger(t), nil)

	res, err := c.Settle(ctx, "u1", " 1001 ", "")
	require.NoError(t, err)
	assert.True(t, res.Granted)

	res, err = c.Settle(ctx, "u1", "1001", "")
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.Equal(t, domain.Limited(3), res.Snapshot.MaxQuota)
	assert.Equal(t, []string{"1001", "1001"}, payments.asked)

	_, err = c.Settle(ctx, "u1", "  ", "Basic")
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestCheckout_SettleOrderOwnedByAnotherUser(t *testing.T) {
	ctx := context.Background()
	ledger := newTestLedger(t)
	payments := &fakePayments{statuses: map[string]domain.PaymentStatus{
		"1001": {OrderCode: "1001", Status: "PAID", PackageName: "Premium"},
	}}
	c := NewCheckout(payments, ledger, nil)

	_, err := c.Settle(ctx, "u1", "1001", "")
	require.NoError(t, err)

	_, err = c.Settle(ctx, "u2", "1001", "")
	assert.ErrorIs(t, err, domain.ErrOrderClaimed)

	snap, err := ledger.GetQuota(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, domain.Limited(0), snap.MaxQuota)
}
