package transform

import (
	"fmt"
	"strings"

	"github.com/gsbingo17/cms-to-commerce/pkg/common"
	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
)

// productVariants normalises the variants of a product for the commerce
// target. A product without variants gets exactly one default variant.
func (t *Transformer) productVariants(src common.Record, em mapping.EntityMapping) []interface{} {
	unit := priceUnit(em)
	currency := t.currency(src["currency"])

	list, _ := common.AsList(src["variants"])
	if len(list) == 0 {
		return []interface{}{t.defaultVariant(src, unit, currency)}
	}

	out := make([]interface{}, 0, len(list))
	for _, item := range list {
		obj, ok := common.AsObject(item)
		if !ok {
			t.log.WithRecord(string(mapping.EntityProduct), src.OriginalID()).
				Warnf("Skipping variant of type %T", item)
			continue
		}
		v := deepCopy(obj).(map[string]interface{})
		v["prices"] = t.variantPrices(obj, src, unit, currency)
		if _, ok := v["inventory_quantity"]; !ok {
			v["inventory_quantity"] = stockOf(obj)
		}
		delete(v, "price")
		delete(v, "currency")
		out = append(out, v)
	}
	return out
}

func (t *Transformer) defaultVariant(src common.Record, unit, currency string) map[string]interface{} {
	v := map[string]interface{}{
		"title":              "Default",
		"inventory_quantity": stockOf(src),
		"prices":             []interface{}{},
	}
	if sku, ok := src["sku"]; ok && sku != nil {
		v["sku"] = fmt.Sprint(sku)
	}
	if amount, ok := ToMinorUnits(src["price"], unit); ok {
		v["prices"] = []interface{}{price(amount, currency)}
	}
	return v
}

// variantPrices accepts either a prices list or a single price field on the
// variant, falling back to the product price.
func (t *Transformer) variantPrices(variant map[string]interface{}, src common.Record, unit, fallbackCurrency string) []interface{} {
	out := []interface{}{}

	if list, ok := common.AsList(variant["prices"]); ok {
		for _, item := range list {
			p, ok := common.AsObject(item)
			if !ok {
				continue
			}
			amount, ok := ToMinorUnits(p["amount"], unit)
			if !ok {
				continue
			}
			cur := fallbackCurrency
			if c, ok := p["currency_code"]; ok && c != nil {
				cur = t.currency(c)
			} else if c, ok := p["currency"]; ok && c != nil {
				cur = t.currency(c)
			}
			out = append(out, price(amount, cur))
		}
		return out
	}

	raw, ok := variant["price"]
	if !ok || raw == nil {
		raw = src["price"]
	}
	cur := fallbackCurrency
	if c, ok := variant["currency"]; ok && c != nil {
		cur = t.currency(c)
	}
	if amount, ok := ToMinorUnits(raw, unit); ok {
		out = append(out, price(amount, cur))
	}
	return out
}

func (t *Transformer) currency(v interface{}) string {
	s, _ := v.(string)
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return t.opts.DefaultCurrency
	}
	return s
}

func price(amount int64, currency string) map[string]interface{} {
	return map[string]interface{}{"amount": amount, "currency_code": currency}
}

func stockOf(obj map[string]interface{}) int64 {
	for _, key := range []string{"inventory_quantity", "stock", "quantity"} {
		if f, ok := common.ToFloat(obj[key]); ok {
			return int64(f)
		}
	}
	return 0
}

// priceUnit returns the unit tag of the rule that converts the product price
func priceUnit(em mapping.EntityMapping) string {
	for _, r := range em.DirectRules {
		if r.Kind == mapping.KindMultiplyBy100 && r.SourceField == "price" {
			return r.Unit
		}
	}
	return ""
}
