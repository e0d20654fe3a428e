package entity_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Farmacia-api/internal/domain/entity"
)

func TestSale_ComputeTotal(t *testing.T) {
	s := entity.Sale{Items: []entity.SaleItem{
		{Quantity: 2, Price: decimal.RequireFromString("5.99")},
		{Quantity: 1, Price: decimal.RequireFromString("7.99")},
	}}
	assert.True(t, decimal.RequireFromString("19.97").Equal(s.ComputeTotal()))
}

func TestProduct_IsLowStock(t *testing.T) {
	assert.True(t, (&entity.Product{Stock: 5, MinStock: 10}).IsLowStock())
	assert.True(t, (&entity.Product{Stock: 5, MinStock: 5}).IsLowStock(), "el umbral es inclusivo")
	assert.False(t, (&entity.Product{Stock: 6, MinStock: 5}).IsLowStock())
}
