package transform

import (
	"fmt"
	"strings"

	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
)

type statusTable struct {
	values   map[string]string
	fallback string
}

var publishStatuses = statusTable{
	values:   map[string]string{"published": "published"},
	fallback: "draft",
}

var orderStatuses = statusTable{
	values: map[string]string{
		"pending":    "pending",
		"processing": "processing",
		"shipped":    "shipped",
		"delivered":  "delivered",
		"completed":  "completed",
		"canceled":   "canceled",
		"cancelled":  "canceled",
		"refunded":   "refunded",
		"returned":   "returned",
	},
	fallback: "pending",
}

var customerStatuses = statusTable{
	values:   map[string]string{"active": "active", "inactive": "inactive"},
	fallback: "active",
}

// MapStatus maps a source status onto the closed status set of the entity.
// Missing and unknown values map to the entity's fallback.
func MapStatus(entity mapping.EntityType, v interface{}) string {
	table := publishStatuses
	switch entity {
	case mapping.EntityOrder:
		table = orderStatuses
	case mapping.EntityCustomer:
		table = customerStatuses
	}

	if v == nil {
		return table.fallback
	}
	key := strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))
	if mapped, ok := table.values[key]; ok {
		return mapped
	}
	return table.fallback
}
