package controller

import (
	"strconv"
	"strings"

	"github.com/andresuchdata/storeadmin/internal/domain"
)

// FilterOrders returns the orders whose customer name, id or formatted date
// contain q, case-insensitively. An empty q returns the whole list.
func FilterOrders(orders []domain.OrderSummary, q string) []domain.OrderSummary {
	return filter(orders, q, func(o domain.OrderSummary) []string {
		return []string{
			o.CustomerName,
			strconv.FormatInt(o.ID, 10),
			o.FormattedDate(),
		}
	})
}

// FilterProducts matches q against name, unit name, price and quantity.
func FilterProducts(products []domain.Product, q string) []domain.Product {
	return filter(products, q, func(p domain.Product) []string {
		return []string{
			p.Name,
			p.UOMName,
			domain.FormatMoney(p.PricePerUnit),
			domain.FormatQuantity(p.PricePerUnit),
			domain.FormatQuantity(p.Quantity),
		}
	})
}

func filter[T any](items []T, q string, fields func(T) []string) []T {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return append([]T(nil), items...)
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		for _, field := range fields(item) {
			if strings.Contains(strings.ToLower(field), q) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}
