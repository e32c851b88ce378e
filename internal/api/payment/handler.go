package payment

import (
	"context"
	"net/http"
	"net/url"

	"shoestock/internal/pkg/logger"
	"shoestock/internal/pkg/respond"
	"shoestock/internal/service/paymentservice"
)

// ReturnHandler processa o retorno assinado do gateway.
type ReturnHandler interface {
	HandleReturn(ctx context.Context, params url.Values) (paymentservice.ReturnResult, error)
}

type Handler struct {
	Service ReturnHandler
	Logger  logger.Logger
}

func NewHandler(svc ReturnHandler, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log}
}

// VNPayReturnHandler lida com GET /v1/payments/vnpay-return.
// Não exige JWT: a autenticidade vem de vnp_SecureHash.
// @Summary Retorno do gateway VNPay
// @Description Verifica a assinatura HMAC-SHA512 e confirma (vnp_ResponseCode=00) ou cancela o pedido pendente.
// @Tags payments
// @Produce json
// @Success 200 {object} paymentservice.ReturnResult
// @Failure 400 {object} domain.ErrorResponse "CHECKSUM_FAILED ou valor divergente"
// @Failure 404 {object} domain.ErrorResponse
// @Router /payments/vnpay-return [get]
func (h *Handler) VNPayReturnHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.HandleReturn(r.Context(), r.URL.Query())
	if err != nil {
		respond.Error(w, r, h.Logger, err)
		return
	}
	respond.JSON(w, h.Logger, http.StatusOK, result)
}
