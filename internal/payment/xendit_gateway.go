package payment

import (
	"context"
	"fmt"

	"github.com/xendit/xendit-go/v6"
	"github.com/xendit/xendit-go/v6/invoice"

	"github.com/raihanpk/tiketku/internal/models"
)

// XenditGateway creates one Xendit invoice per order. The invoice
// expiry mirrors the order's payment deadline so the provider stops
// accepting payment roughly when the hold lapses; the order manager's
// deadline check stays authoritative either way.
type XenditGateway struct {
	client *xendit.APIClient
}

func NewXenditGateway(client *xendit.APIClient) *XenditGateway {
	return &XenditGateway{client: client}
}

func (g *XenditGateway) Initiate(ctx context.Context, order *models.Order) (Intent, error) {
	req := invoice.NewCreateInvoiceRequest(order.ID.String(), float64(order.Total))
	req.SetDescription(fmt.Sprintf("Ticket order %s (%d pcs)", order.ID, order.Quantity))
	req.SetCurrency("IDR")

	inv, _, err := g.client.InvoiceApi.CreateInvoice(ctx).CreateInvoiceRequest(*req).Execute()
	if err != nil {
		return Intent{}, fmt.Errorf("create invoice: %w", err)
	}
	return Intent{ID: inv.GetId(), URL: inv.GetInvoiceUrl()}, nil
}
