package transform

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsbingo17/cms-to-commerce/pkg/common"
	"github.com/gsbingo17/cms-to-commerce/pkg/logger"
	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
)

func newTestTransformer() *Transformer {
	return NewTransformer(Options{
		MediaBaseURL:         "https://cdn.example.com/media",
		RelationshipPrefixes: []string{"entry:", "ref:"},
	}, logger.NewDiscard())
}

func productMapping() mapping.EntityMapping {
	return mapping.EntityMapping{
		DirectRules: []mapping.MappingRule{
			{SourceField: "title", DestinationField: "title", Kind: mapping.KindDirect},
			{SourceField: "title", DestinationField: "handle", Kind: mapping.KindSlugify},
			{SourceField: "status", DestinationField: "status", Kind: mapping.KindStatusMap},
			{SourceField: "images", DestinationField: "images", Kind: mapping.KindMediaReference},
			{SourceField: "categories", DestinationField: "category_ids", Kind: mapping.KindRelationshipID},
			{SourceField: "subtitle", DestinationField: "subtitle", Kind: mapping.KindDirect, DefaultValue: "n/a"},
		},
	}
}

func TestTransform_DefaultVariant(t *testing.T) {
	tr := newTestTransformer()
	src := common.Record{"id": "p1", "title": "Shirt", "price": "19.99", "variants": []interface{}{}}

	out := tr.Transform(src, mapping.EntityProduct, productMapping(), mapping.TargetCommerce)

	variants, ok := out["variants"].([]interface{})
	require.True(t, ok)
	require.Len(t, variants, 1)

	v := variants[0].(map[string]interface{})
	assert.Equal(t, "Default", v["title"])
	assert.Equal(t, int64(0), v["inventory_quantity"])

	prices := v["prices"].([]interface{})
	require.Len(t, prices, 1)
	p := prices[0].(map[string]interface{})
	assert.Equal(t, int64(1999), p["amount"])
	assert.Equal(t, "eur", p["currency_code"])
}

func TestTransform_ExplicitVariants(t *testing.T) {
	tr := newTestTransformer()
	src := common.Record{
		"id":       "p2",
		"title":    "Mug",
		"price":    12.5,
		"currency": "USD",
		"variants": []interface{}{
			map[string]interface{}{"title": "Blue", "sku": "MUG-B", "stock": 4},
			map[string]interface{}{"title": "Red", "sku": "MUG-R", "price": "15", "currency": "EUR"},
			map[string]interface{}{
				"title":  "Green",
				"sku":    "MUG-G",
				"prices": []interface{}{map[string]interface{}{"amount": 9.99, "currency_code": "USD"}},
			},
		},
	}

	out := tr.Transform(src, mapping.EntityProduct, productMapping(), mapping.TargetCommerce)
	variants := out["variants"].([]interface{})
	require.Len(t, variants, 3)

	blue := variants[0].(map[string]interface{})
	assert.Equal(t, int64(4), blue["inventory_quantity"])
	assert.Equal(t, []interface{}{map[string]interface{}{"amount": int64(1250), "currency_code": "usd"}}, blue["prices"])

	red := variants[1].(map[string]interface{})
	assert.Equal(t, []interface{}{map[string]interface{}{"amount": int64(1500), "currency_code": "eur"}}, red["prices"])
	assert.NotContains(t, red, "price")

	green := variants[2].(map[string]interface{})
	assert.Equal(t, []interface{}{map[string]interface{}{"amount": int64(999), "currency_code": "usd"}}, green["prices"])

	// source variants are untouched
	first := src["variants"].([]interface{})[0].(map[string]interface{})
	assert.NotContains(t, first, "prices")
}

func TestTransform_ContentTargetHasNoVariants(t *testing.T) {
	tr := newTestTransformer()
	out := tr.Transform(common.Record{"id": "p1", "title": "Shirt"}, mapping.EntityProduct, productMapping(), mapping.TargetContent)
	assert.NotContains(t, out, "variants")
}

func TestTransform_Rules(t *testing.T) {
	tr := newTestTransformer()
	src := common.Record{
		"id":         "p3",
		"title":      "Summer  Shirt!",
		"status":     "archived",
		"images":     []interface{}{"shirts/summer.jpg", map[string]interface{}{"url": "https://img.example.com/a.png", "alt": "Front"}},
		"categories": []interface{}{"entry:cat-1", "ref:cat-2", ""},
	}

	commerce := tr.Transform(src, mapping.EntityProduct, productMapping(), mapping.TargetCommerce)
	assert.Equal(t, "Summer  Shirt!", commerce["title"])
	assert.Equal(t, "summer-shirt", commerce["handle"])
	assert.Equal(t, "draft", commerce["status"])
	assert.Equal(t, "n/a", commerce["subtitle"])
	assert.Equal(t, []interface{}{"cat-1", "cat-2"}, commerce["category_ids"])
	assert.Equal(t, []interface{}{
		map[string]interface{}{"url": "https://cdn.example.com/media/shirts/summer.jpg"},
		map[string]interface{}{"url": "https://img.example.com/a.png"},
	}, commerce["images"])

	content := tr.Transform(src, mapping.EntityProduct, productMapping(), mapping.TargetContent)
	assert.Equal(t, []interface{}{
		map[string]interface{}{"name": "summer.jpg", "alternativeText": "summer", "url": "https://cdn.example.com/media/shirts/summer.jpg"},
		map[string]interface{}{"name": "a.png", "alternativeText": "Front", "url": "https://img.example.com/a.png"},
	}, content["images"])
}

func TestTransform_OriginalID(t *testing.T) {
	tr := newTestTransformer()
	em := mapping.EntityMapping{DirectRules: []mapping.MappingRule{
		{SourceField: "title", DestinationField: "title", Kind: mapping.KindDirect},
	}}

	tests := []struct {
		name string
		src  common.Record
		want string
	}{
		{"id", common.Record{"id": "42", "handle": "shirt"}, "42"},
		{"numeric id", common.Record{"id": 7}, "7"},
		{"handle fallback", common.Record{"handle": "shirt"}, "shirt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := tr.Transform(tt.src, mapping.EntityPage, em, mapping.TargetContent)
			id, ok := out.Get("metadata.original_id")
			require.True(t, ok)
			assert.Equal(t, tt.want, id)
			entity, _ := out.Get("metadata.source_entity")
			assert.Equal(t, "page", entity)
		})
	}
}

func TestTransform_CustomerNameSplit(t *testing.T) {
	tr := newTestTransformer()
	em := mapping.EntityMapping{DirectRules: []mapping.MappingRule{
		{SourceField: "name", DestinationField: "first_name", Kind: mapping.KindNameSplit},
		{SourceField: "email", DestinationField: "email", Kind: mapping.KindLowercase},
	}}

	out := tr.Transform(common.Record{"id": "c1", "name": "Jane Doe", "email": "Jane@Example.COM"}, mapping.EntityCustomer, em, mapping.TargetCommerce)
	assert.Equal(t, "Jane", out["first_name"])
	assert.Equal(t, "Doe", out["last_name"])
	assert.Equal(t, "jane@example.com", out["email"])

	out = tr.Transform(common.Record{"id": "c2", "name": "Anna Maria  van Dijk"}, mapping.EntityCustomer, em, mapping.TargetCommerce)
	assert.Equal(t, "Anna", out["first_name"])
	assert.Equal(t, "Maria van Dijk", out["last_name"])

	out = tr.Transform(common.Record{"id": "c3"}, mapping.EntityCustomer, em, mapping.TargetCommerce)
	assert.Equal(t, "", out["first_name"])
	assert.Equal(t, "", out["last_name"])
	assert.Contains(t, out, "email")
	assert.Nil(t, out["email"])
}

func TestTransform_NameSplitNestedSecondary(t *testing.T) {
	tr := newTestTransformer()
	em := mapping.EntityMapping{DirectRules: []mapping.MappingRule{
		{SourceField: "billing_name", DestinationField: "billing_address.first_name", Kind: mapping.KindNameSplit},
	}}

	out := tr.Transform(common.Record{"id": "o1", "billing_name": "Jane Doe"}, mapping.EntityOrder, em, mapping.TargetCommerce)
	first, _ := out.Get("billing_address.first_name")
	last, _ := out.Get("billing_address.last_name")
	assert.Equal(t, "Jane", first)
	assert.Equal(t, "Doe", last)
}

func TestTransform_OrderStatus(t *testing.T) {
	tr := newTestTransformer()
	em := mapping.EntityMapping{DirectRules: []mapping.MappingRule{
		{SourceField: "status", DestinationField: "status", Kind: mapping.KindStatusMap},
		{SourceField: "tax_rate", DestinationField: "tax_rate", Kind: mapping.KindDivisionBy100},
	}}

	tests := []struct {
		in   interface{}
		want string
	}{
		{"shipped", "shipped"},
		{"Cancelled", "canceled"},
		{"unknown_value", "pending"},
		{nil, "pending"},
	}
	for _, tt := range tests {
		out := tr.Transform(common.Record{"id": "o1", "status": tt.in, "tax_rate": 21}, mapping.EntityOrder, em, mapping.TargetCommerce)
		assert.Equal(t, tt.want, out["status"], "status %v", tt.in)
		assert.Equal(t, 0.21, out["tax_rate"])
	}
}

func TestTransform_DoesNotMutateSource(t *testing.T) {
	tr := newTestTransformer()
	meta := map[string]interface{}{"seo": map[string]interface{}{"title": "Shirt"}}
	src := common.Record{"id": "p1", "meta": meta}
	em := mapping.EntityMapping{DirectRules: []mapping.MappingRule{
		{SourceField: "meta", DestinationField: "metadata", Kind: mapping.KindDirect},
	}}

	out := tr.Transform(src, mapping.EntityPage, em, mapping.TargetContent)
	out.Set("metadata.seo.title", "Changed")

	assert.Equal(t, "Shirt", meta["seo"].(map[string]interface{})["title"])
	assert.NotContains(t, meta, "original_id")
}

func TestTransform_UnknownKindFallsBackToDirect(t *testing.T) {
	tr := newTestTransformer()
	em := mapping.EntityMapping{DirectRules: []mapping.MappingRule{
		{SourceField: "title", DestinationField: "title", Kind: mapping.Kind("reverse")},
	}}

	out := tr.Transform(common.Record{"id": "x", "title": "Shirt"}, mapping.EntityPage, em, mapping.TargetContent)
	assert.Equal(t, "Shirt", out["title"])
}

func TestFlatten(t *testing.T) {
	got := Flatten(map[string]interface{}{
		"seo":  map[string]interface{}{"meta": map[string]interface{}{"title": "T"}, "slug": "s"},
		"name": "n",
	})
	assert.Equal(t, map[string]interface{}{"seo_meta_title": "T", "seo_slug": "s", "name": "n"}, got)
	assert.Equal(t, "plain", Flatten("plain"))
}

func TestStripReference(t *testing.T) {
	prefixes := []string{"entry:", "ref:"}
	assert.Equal(t, "123", StripReference("gid://shop/Product/123", prefixes))
	assert.Equal(t, "abc", StripReference(map[string]interface{}{"id": "entry:abc"}, prefixes))
	assert.Equal(t, "9", StripReference(9, prefixes))
	assert.Nil(t, StripReference(nil, prefixes))
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Summer Shirt":        "summer-shirt",
		"  Über  Cool!! ":     "ber-cool",
		"already-a-slug":      "already-a-slug",
		"a - b":               "a-b",
		"Tabs\tand\nnewlines": "tabs-and-newlines",
		"":                    "",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestProperty_SlugifyIdempotent(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("slugify is idempotent", prop.ForAll(
		func(s string) bool {
			once := Slugify(s)
			return Slugify(once) == once
		},
		gen.AnyString(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
