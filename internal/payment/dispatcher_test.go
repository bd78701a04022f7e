package payment

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wms-platform/checkout-service/pkg/errors"
)

func TestDispatcher_ProcessPayment(t *testing.T) {
	adapter := &mockGatewayAdapter{}
	dispatcher := NewGatewayDispatcher(adapter, testLogger())

	assert.Equal(t, []Method{MethodCreditCard, MethodDomesticDebitCard}, dispatcher.Methods())

	_, err := dispatcher.ProcessPayment(context.Background(), MethodDomesticDebitCard, testOrder(), map[string]string{ParamBankCode: "VCB"})
	require.NoError(t, err)
	assert.Equal(t, MethodDomesticDebitCard, adapter.lastMethod)

	_, err = dispatcher.ProcessPayment(context.Background(), MethodCreditCard, testOrder(), nil)
	require.NoError(t, err)
	assert.Equal(t, MethodCreditCard, adapter.lastMethod)
	assert.Len(t, adapter.paymentCalls, 2)
}

func TestDispatcher_UnknownMethod(t *testing.T) {
	dispatcher := NewDispatcher(NewCreditCardStrategy(&mockGatewayAdapter{}, nil))

	_, err := dispatcher.ProcessPayment(context.Background(), MethodDomesticDebitCard, testOrder(), nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	_, err = dispatcher.ProcessRefund(context.Background(), Method("WALLET"), "TXN-1", testOrder(), decimal.NewFromInt(1), "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestDispatcher_ProcessRefund(t *testing.T) {
	adapter := &mockGatewayAdapter{}
	dispatcher := NewGatewayDispatcher(adapter, testLogger())

	resp, err := dispatcher.ProcessRefund(context.Background(), MethodCreditCard, "TXN-1", testOrder(), decimal.NewFromInt(1000), "return")
	require.NoError(t, err)
	assert.Equal(t, "00", resp[ResponseCode])
	assert.Len(t, adapter.refundCalls, 1)
}
