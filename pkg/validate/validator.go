package validate

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/gsbingo17/cms-to-commerce/pkg/common"
	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\s\-().]{5,19}$`)
	skuPattern   = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// supportedCurrencies is a closed list, not read from the rules file
var supportedCurrencies = map[string]struct{}{"eur": {}, "usd": {}}

// Result is the verdict for one record
type Result struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

// Validate checks a destination record against the rules of its entity. It
// never fails: every problem becomes an issue and checks do not stop at the
// first one.
func Validate(rec common.Record, entity mapping.EntityType, rules *RuleSet, index Index) Result {
	v := &checker{}
	er := rules.For(entity)

	for _, field := range er.RequiredFields {
		if val, ok := rec.Get(field); !ok || common.IsEmpty(val) {
			v.addf("Missing required field: %s", field)
		}
	}

	for _, field := range sortedFields(er.Formats) {
		val, ok := rec.Get(field)
		if !ok || val == nil {
			continue
		}
		v.checkFormat(field, val, er.Formats[field])
	}

	for _, field := range sortedFields(er.Relationships) {
		val, ok := rec.Get(field)
		if !ok || val == nil {
			continue
		}
		v.checkRelationship(field, val, er.Relationships[field], index)
	}

	if rules != nil {
		v.checkLocale(rec, rules.Locales)
	}

	if entity == mapping.EntityProduct {
		v.checkVariants(rec)
	}

	return Result{Valid: len(v.issues) == 0, Issues: v.issues}
}

type checker struct {
	issues []string
}

func (v *checker) addf(format string, args ...interface{}) {
	v.issues = append(v.issues, fmt.Sprintf(format, args...))
}

func (v *checker) checkFormat(field string, val interface{}, f FormatRule) {
	switch f.Type {
	case FormatEmail:
		if s, ok := val.(string); !ok || !emailPattern.MatchString(s) {
			v.addf("Invalid email format for field %s: %q", field, fmt.Sprint(val))
		}
	case FormatURL:
		if !isURL(val) {
			v.addf("Invalid url format for field %s: %q", field, fmt.Sprint(val))
		}
	case FormatSlug:
		if s, ok := val.(string); !ok || !slugPattern.MatchString(s) {
			v.addf("Invalid slug format for field %s: %q", field, fmt.Sprint(val))
		}
	case FormatPhone:
		if s, ok := val.(string); !ok || !phonePattern.MatchString(strings.TrimSpace(s)) {
			v.addf("Invalid phone format for field %s: %q", field, fmt.Sprint(val))
		}
	case FormatNumeric:
		n, ok := common.ToFloat(val)
		if !ok {
			v.addf("Field %s must be numeric, got %q", field, fmt.Sprint(val))
			break
		}
		v.checkBounds(field, n, f)
	case FormatBoolean:
		if !isBoolean(val) {
			v.addf("Field %s must be a boolean, got %q", field, fmt.Sprint(val))
		}
	case FormatEnum:
		if !contains(f.Values, fmt.Sprint(val)) {
			v.addf("Invalid value for field %s: %q (allowed: %s)", field, fmt.Sprint(val), strings.Join(f.Values, ", "))
		}
	case FormatObject:
		obj, ok := common.AsObject(val)
		if !ok {
			v.addf("Field %s must be an object", field)
			break
		}
		for _, key := range f.Fields {
			if sub, ok := common.Record(obj).Get(key); !ok || common.IsEmpty(sub) {
				v.addf("Missing required field: %s.%s", field, key)
			}
		}
	case FormatArray:
		list, ok := common.AsList(val)
		if !ok {
			v.addf("Field %s must be an array", field)
			break
		}
		v.checkBounds(field+" length", float64(len(list)), f)
		if f.Items != nil {
			for i, item := range list {
				if item == nil {
					v.addf("Field %s[%d] is empty", field, i)
					continue
				}
				v.checkFormat(fmt.Sprintf("%s[%d]", field, i), item, *f.Items)
			}
		}
	}

	if f.Pattern != "" {
		if s, ok := val.(string); ok {
			re := f.re
			if re == nil {
				var err error
				if re, err = regexp.Compile(f.Pattern); err != nil {
					v.addf("Invalid pattern for field %s: %v", field, err)
					return
				}
			}
			if !re.MatchString(s) {
				v.addf("Field %s does not match pattern %s: %q", field, f.Pattern, s)
			}
		}
	}
}

func (v *checker) checkBounds(field string, n float64, f FormatRule) {
	if f.Min != nil && n < *f.Min {
		v.addf("Field %s must be >= %v, got %v", field, *f.Min, n)
	}
	if f.Max != nil && n > *f.Max {
		v.addf("Field %s must be <= %v, got %v", field, *f.Max, n)
	}
}

func (v *checker) checkRelationship(field string, val interface{}, rel Relationship, index Index) {
	ids := referenceIDs(val)
	if rel.Type == RelReference && len(ids) > 1 {
		v.addf("Field %s must reference a single %s", field, rel.Target)
	}
	for _, id := range ids {
		if !index.Has(rel.Target, id) {
			v.addf("Invalid reference in field %s: %s %q not found", field, rel.Target, id)
		}
	}
}

func (v *checker) checkLocale(rec common.Record, locales map[string][]string) {
	region, ok := rec.Get("metadata.region")
	if !ok {
		return
	}
	lang, ok := rec.Get("metadata.language")
	if !ok {
		return
	}
	allowed, ok := locales[fmt.Sprint(region)]
	if !ok || len(allowed) == 0 {
		return
	}
	if !contains(allowed, fmt.Sprint(lang)) {
		v.addf("Language %q is not enabled for region %q (allowed: %s)", lang, region, strings.Join(allowed, ", "))
	}
}

// checkVariants applies the commerce variant rules to products
func (v *checker) checkVariants(rec common.Record) {
	raw, present := rec["variants"]
	if !present {
		if sku, ok := rec["sku"].(string); ok {
			v.checkSKU(sku, "product")
		}
		return
	}

	variants, ok := common.AsList(raw)
	if !ok {
		v.addf("Field variants must be an array")
		return
	}

	for i, item := range variants {
		where := fmt.Sprintf("variant %d", i+1)
		variant, ok := common.AsObject(item)
		if !ok {
			v.addf("Invalid %s: not an object", where)
			continue
		}

		if common.IsEmpty(variant["title"]) {
			v.addf("Missing required field: variants[%d].title", i)
		}
		if _, ok := variant["inventory_quantity"]; !ok || variant["inventory_quantity"] == nil {
			v.addf("Missing required field: variants[%d].inventory_quantity", i)
		}
		if sku, ok := variant["sku"]; ok && sku != nil {
			v.checkSKU(fmt.Sprint(sku), where)
		}

		prices, _ := common.AsList(variant["prices"])
		for j, p := range prices {
			price, ok := common.AsObject(p)
			if !ok {
				v.addf("Invalid price %d on %s: not an object", j+1, where)
				continue
			}
			amount, ok := common.ToFloat(price["amount"])
			if _, isString := price["amount"].(string); !ok || isString || amount < 0 {
				v.addf("Invalid price amount on %s: %v (must be a non-negative number)", where, price["amount"])
			}
			code, _ := price["currency_code"].(string)
			if _, ok := supportedCurrencies[code]; !ok {
				v.addf("Invalid currency code on %s: %q (allowed: eur, usd)", where, code)
			}
		}
	}
}

func (v *checker) checkSKU(sku, where string) {
	if !skuPattern.MatchString(sku) {
		v.addf("Invalid SKU format: %q on %s (only letters, digits, '_' and '-' are allowed)", sku, where)
	}
}

func referenceIDs(val interface{}) []string {
	if list, ok := common.AsList(val); ok {
		var ids []string
		for _, item := range list {
			ids = append(ids, referenceIDs(item)...)
		}
		return ids
	}
	if obj, ok := common.AsObject(val); ok {
		if id, ok := obj["id"]; ok && id != nil {
			return []string{fmt.Sprint(id)}
		}
		return nil
	}
	if common.IsEmpty(val) {
		return nil
	}
	return []string{fmt.Sprint(val)}
}

func isURL(val interface{}) bool {
	s, ok := val.(string)
	if !ok {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func isBoolean(val interface{}) bool {
	switch b := val.(type) {
	case bool:
		return true
	case string:
		return b == "true" || b == "false"
	default:
		return false
	}
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func sortedFields[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
