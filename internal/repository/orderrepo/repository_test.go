package orderrepo

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"shoestock/internal/domain"
	"shoestock/internal/errors"
)

func TestMalformedOrderIDIsNotFound(t *testing.T) {
	repo := NewOrderRepository(nil, time.Second, nil)
	var notFound *errors.NotFoundError

	_, err := repo.FindByID(context.Background(), "123")
	assert.True(t, stderrors.As(err, &notFound))

	_, _, err = repo.UpdateStatus(context.Background(), "abc", domain.StatusCancelled, nil)
	assert.True(t, stderrors.As(err, &notFound))
	status, category, _ := errors.MapToHTTPStatus(err)
	assert.Equal(t, 404, status)
	assert.Equal(t, "NOT_FOUND", category)
}
