package paymentservice

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"shoestock/internal/domain"
	apperror "shoestock/internal/errors"
	"shoestock/internal/pkg/logger"
)

const (
	paramSecureHash     = "vnp_SecureHash"
	paramSecureHashType = "vnp_SecureHashType"
	responseSuccess     = "00"
	createDateLayout    = "20060102150405" // yyyyMMddHHmmss
)

// vietnam é o fuso (GMT+7) exigido pelo gateway em vnp_CreateDate.
var vietnam = time.FixedZone("ICT", 7*60*60)

// Config são as credenciais do terminal VNPay.
type Config struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
}

// OrderReader lê o pedido referenciado por vnp_TxnRef.
type OrderReader interface {
	FindByID(ctx context.Context, id string) (domain.Order, error)
}

// Transitioner aplica a mudança de status (com seus efeitos de estoque).
type Transitioner interface {
	Transition(ctx context.Context, orderID string, next domain.OrderStatus) (domain.Order, error)
}

// ReturnResult é o resultado do processamento do retorno do gateway.
type ReturnResult struct {
	Order        domain.Order `json:"order"`
	Paid         bool         `json:"paid"`
	ResponseCode string       `json:"response_code"`
}

// Service monta URLs de pagamento e processa o retorno assinado do VNPay.
type Service struct {
	cfg       Config
	orders    OrderReader
	lifecycle Transitioner
	logger    logger.Logger
	now       func() time.Time
}

// NewService cria o serviço de pagamento VNPay.
func NewService(cfg Config, orders OrderReader, lifecycle Transitioner, logger logger.Logger) *Service {
	return &Service{cfg: cfg, orders: orders, lifecycle: lifecycle, logger: logger, now: time.Now}
}

// Canonical serializa os parâmetros vnp_* em ordem alfabética de chave, k=v unidos por &,
// com os valores codificados como query string (espaço vira +).
func Canonical(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == paramSecureHash || k == paramSecureHashType || !strings.HasPrefix(k, "vnp_") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params.Get(k)))
	}
	return b.String()
}

// Sign retorna hex(HMAC-SHA512(secret, Canonical(params))).
func Sign(secret string, params url.Values) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(Canonical(params)))
	return hex.EncodeToString(mac.Sum(nil))
}

func amountParam(total decimal.Decimal) string {
	return total.Mul(decimal.NewFromInt(100)).Round(0).String()
}

// Enabled informa se as credenciais do comerciante estão configuradas.
func (s *Service) Enabled() bool {
	return s.cfg.TmnCode != "" && s.cfg.HashSecret != ""
}

// BuildPaymentURL monta a URL de redirecionamento assinada para o pedido.
func (s *Service) BuildPaymentURL(order domain.Order, clientIP string) (string, error) {
	if !s.Enabled() {
		return "", apperror.NewInternalError("VNPay não configurado", nil)
	}
	if clientIP == "" {
		clientIP = "127.0.0.1"
	}

	params := url.Values{}
	params.Set("vnp_Version", "2.1.0")
	params.Set("vnp_Command", "pay")
	params.Set("vnp_TmnCode", s.cfg.TmnCode)
	params.Set("vnp_Locale", "vn")
	params.Set("vnp_CurrCode", "VND")
	params.Set("vnp_TxnRef", order.ID)
	params.Set("vnp_OrderInfo", "Thanh toan don hang "+order.ID)
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_Amount", amountParam(order.Total))
	params.Set("vnp_ReturnUrl", s.cfg.ReturnURL)
	params.Set("vnp_IpAddr", clientIP)
	params.Set("vnp_CreateDate", s.now().In(vietnam).Format(createDateLayout))

	signature := Sign(s.cfg.HashSecret, params)
	return s.cfg.PayURL + "?" + Canonical(params) + "&" + paramSecureHash + "=" + signature, nil
}

// HandleReturn verifica a assinatura do retorno e confirma ou cancela o pedido pendente.
// Assinatura inválida ou valor divergente não alteram o pedido.
func (s *Service) HandleReturn(ctx context.Context, params url.Values) (ReturnResult, error) {
	if !s.Enabled() {
		s.logger.Warn("Evento de segurança: retorno VNPay recebido sem credenciais configuradas.", map[string]interface{}{
			"txn_ref": params.Get("vnp_TxnRef"),
		})
		return ReturnResult{}, apperror.NewChecksumFailedError("VNPay não configurado")
	}

	received := strings.ToLower(params.Get(paramSecureHash))
	expected := Sign(s.cfg.HashSecret, params)
	if received == "" || !hmac.Equal([]byte(received), []byte(expected)) {
		s.logger.Warn("Evento de segurança: assinatura VNPay inválida.", map[string]interface{}{
			"txn_ref": params.Get("vnp_TxnRef"),
		})
		return ReturnResult{}, apperror.NewChecksumFailedError("vnp_SecureHash não confere")
	}

	orderID := params.Get("vnp_TxnRef")
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return ReturnResult{}, err
	}

	if order.PaymentMethod != domain.PaymentVNPay {
		s.logger.Warn("Evento de segurança: retorno VNPay para pedido de outro método.", map[string]interface{}{
			"order_id": orderID,
			"method":   order.PaymentMethod,
		})
		return ReturnResult{}, apperror.NewValidationError(fmt.Sprintf("Pedido %s não é pago via VNPay.", orderID))
	}

	code := params.Get("vnp_ResponseCode")
	result := ReturnResult{Order: order, ResponseCode: code}

	if got, want := params.Get("vnp_Amount"), amountParam(order.Total); got != want {
		s.logger.Warn("Valor do retorno VNPay diverge do pedido.", map[string]interface{}{
			"order_id": orderID,
			"received": got,
			"expected": want,
		})
		return ReturnResult{}, apperror.NewValidationError(fmt.Sprintf("vnp_Amount %s difere do total do pedido", got))
	}

	if order.Status != domain.StatusPending {
		// Retentativa do gateway: o pedido já foi resolvido.
		result.Paid = order.Status != domain.StatusCancelled
		s.logger.Info("Retorno VNPay para pedido já resolvido.", map[string]interface{}{"order_id": orderID, "status": order.Status})
		return result, nil
	}

	next := domain.StatusCancelled
	if code == responseSuccess {
		next = domain.StatusConfirmed
	}

	updated, err := s.lifecycle.Transition(ctx, orderID, next)
	if err != nil {
		var invalid *apperror.InvalidTransitionError
		if !stderrors.As(err, &invalid) {
			return ReturnResult{}, err
		}
		// Outro caminho resolveu o pedido entre a leitura e a transição.
		current, findErr := s.orders.FindByID(ctx, orderID)
		if findErr != nil {
			return ReturnResult{}, findErr
		}
		result.Order = current
		result.Paid = current.Status != domain.StatusCancelled
		return result, nil
	}

	result.Order = updated
	result.Paid = next == domain.StatusConfirmed
	s.logger.Info("Retorno VNPay processado.", map[string]interface{}{
		"order_id":      orderID,
		"response_code": code,
		"status":        updated.Status,
	})
	return result, nil
}
