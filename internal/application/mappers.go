package application

import (
	"github.com/wms-platform/checkout-service/internal/domain"
	"github.com/wms-platform/checkout-service/internal/payment"
	"github.com/wms-platform/checkout-service/internal/shipping"
)

// ToDomainLines converts line DTOs to domain lines
func ToDomainLines(lines []OrderLineDTO) []domain.OrderLine {
	if lines == nil {
		return nil
	}
	out := make([]domain.OrderLine, 0, len(lines))
	for _, l := range lines {
		line := domain.OrderLine{
			ProductID:    l.ProductID,
			Quantity:     l.Quantity,
			UnitPrice:    l.UnitPrice,
			RushEligible: l.RushEligible,
		}
		if l.Product != nil {
			line.Product = &domain.Product{
				ID:         l.Product.ID,
				Title:      l.Product.Title,
				WeightKg:   l.Product.WeightKg,
				Dimensions: l.Product.Dimensions,
			}
			if line.ProductID == "" {
				line.ProductID = l.Product.ID
			}
		}
		out = append(out, line)
	}
	return out
}

// ToDomainDelivery converts a delivery DTO; nil stays nil
func ToDomainDelivery(d *DeliveryDTO) *domain.DeliveryInfo {
	if d == nil {
		return nil
	}
	return &domain.DeliveryInfo{
		RecipientName:    d.RecipientName,
		Phone:            d.Phone,
		Email:            d.Email,
		ProvinceCity:     d.ProvinceCity,
		Address:          d.Address,
		Instructions:     d.Instructions,
		Rush:             d.Rush,
		RushDeliveryTime: d.RushDeliveryTime,
	}
}

// ToDomainOrder converts an order DTO; nil stays nil
func ToDomainOrder(o *OrderDTO) *domain.Order {
	if o == nil {
		return nil
	}
	return &domain.Order{
		ID:              o.ID,
		Lines:           ToDomainLines(o.Lines),
		Delivery:        ToDomainDelivery(o.Delivery),
		SubtotalExclVAT: o.SubtotalExclVAT,
		SubtotalInclVAT: o.SubtotalInclVAT,
		DeliveryFee:     o.DeliveryFee,
		TotalAmount:     o.TotalAmount,
		Currency:        o.Currency,
	}
}

// ToShippingQuoteDTO converts a quote
func ToShippingQuoteDTO(orderID string, q *shipping.Quote) *ShippingQuoteDTO {
	return &ShippingQuoteDTO{
		OrderID:            orderID,
		Mode:               q.Mode,
		Region:             q.Region,
		ActualWeightKg:     q.ActualWeightKg,
		ChargeableWeightKg: q.ChargeableWeightKg,
		BaseFee:            q.BaseFee,
		RushSurcharge:      q.RushSurcharge,
		RushEligibleLines:  q.RushEligibleLines,
		TotalFee:           q.TotalFee,
		Currency:           q.Currency,
	}
}

// ToPaymentResultDTO converts a gateway response
func ToPaymentResultDTO(orderID string, method payment.Method, resp payment.Response) *PaymentResultDTO {
	gateway := make(map[string]string, len(resp))
	for k, v := range resp {
		gateway[k] = v
	}
	return &PaymentResultDTO{
		OrderID:       orderID,
		Method:        string(method),
		TransactionID: resp[payment.ResponseTransactionID],
		ResponseCode:  resp[payment.ResponseCode],
		Message:       resp[payment.ResponseMessage],
		Status:        resp[payment.ResponseStatus],
		Amount:        resp[payment.ResponseAmount],
		RedirectURL:   resp[payment.ResponseRedirectURL],
		Gateway:       gateway,
	}
}
