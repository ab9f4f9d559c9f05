package pdf

import (
	"context"
	"io"

	"github.com/smallbiznis/invoicedesk/internal/invoice/render"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.pdf",
	fx.Provide(New),
)

type Provider interface {
	GenerateReceipt(ctx context.Context, input render.ReceiptInput) (io.Reader, error)
}
