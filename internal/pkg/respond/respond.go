// Package respond centraliza a escrita de respostas JSON padronizadas da API.
package respond

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"shoestock/internal/domain"
	apperror "shoestock/internal/errors"
	"shoestock/internal/pkg/logger"
)

// JSON serializa data com o status informado.
func JSON(w http.ResponseWriter, log logger.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil && log != nil {
		log.Error("Falha ao codificar JSON de resposta", err)
	}
}

// Error traduz err para o envelope {code, category, message}.
func Error(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	status, category, message := apperror.MapToHTTPStatus(err)

	if log != nil {
		if status >= http.StatusInternalServerError {
			log.Error(fmt.Sprintf("Erro de Servidor: %s", category), err)
		} else {
			log.Debug(fmt.Sprintf("Requisição rejeitada com status %d. Categoria: %s", status, category), map[string]interface{}{"path": r.URL.Path})
		}
	}

	JSON(w, nil, status, domain.ErrorResponse{
		Code:     status,
		Category: category,
		Message:  message,
	})
}

var validate = validator.New()

// Decode lê o corpo JSON da requisição em dst, rejeitando campos desconhecidos,
// e aplica as regras das tags `validate` do payload.
func Decode(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.NewValidationError("Payload inválido. Verifique o formato JSON.")
	}

	if err := validate.Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if stderrors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("campo %s inválido (%s)", fe.Field(), fe.Tag()))
			}
			return apperror.NewValidationError(strings.Join(msgs, "; "))
		}
		return apperror.NewValidationError(err.Error())
	}
	return nil
}
