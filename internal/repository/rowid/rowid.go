// Package rowid trata os IDs das tabelas do PostgreSQL, que são colunas UUID.
package rowid

import (
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// invalidTextRepresentation é o SQLSTATE do PostgreSQL para texto que não converte no tipo da coluna.
const invalidTextRepresentation = "22P02"

// Valid informa se id é um UUID e pode ser comparado com a coluna id.
func Valid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// IsInvalidText reconhece o erro 22P02. Formatos que uuid.Parse aceita e o
// PostgreSQL não (ex.: prefixo urn:uuid:) chegam até aqui.
func IsInvalidText(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == invalidTextRepresentation
}
