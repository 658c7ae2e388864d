package expand

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gsbingo17/cms-to-commerce/pkg/common"
	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
)

func productRules() mapping.EntityMapping {
	return mapping.EntityMapping{
		MultiRegionRules: []mapping.MappingRule{
			{SourceField: "price", DestinationField: "price"},
			{SourceField: "currency", DestinationField: "currency"},
		},
		MultiLanguageRules: []mapping.MappingRule{
			{SourceField: "title", DestinationField: "title"},
		},
	}
}

func TestExpand_Overlays(t *testing.T) {
	src := common.Record{
		"id":          "p1",
		"title":       "Shirt",
		"title_de":    "Hemd",
		"title_ch_fr": "Chemise suisse",
		"price":       "19.99",
		"price_ch":    "24.90",
		"currency_ch": "CHF",
		"currency":    "EUR",
	}

	b := Expand(src, productRules(), []string{"de", "ch"}, []string{"de", "fr"})

	rec, ok := b.Get(DefaultKey, DefaultKey)
	require.True(t, ok)
	assert.Equal(t, "Shirt", rec["title"])
	assert.Equal(t, "19.99", rec["price"])

	rec, _ = b.Get(DefaultKey, "de")
	assert.Equal(t, "Hemd", rec["title"])

	// no region override: falls back to the base value
	rec, _ = b.Get("de", DefaultKey)
	assert.Equal(t, "19.99", rec["price"])
	assert.Equal(t, "EUR", rec["currency"])

	rec, _ = b.Get("ch", DefaultKey)
	assert.Equal(t, "24.90", rec["price"])
	assert.Equal(t, "CHF", rec["currency"])

	rec, _ = b.Get("ch", "fr")
	assert.Equal(t, "Chemise suisse", rec["title"])
	assert.Equal(t, "24.90", rec["price"])

	rec, _ = b.Get("ch", "de")
	assert.Equal(t, "Hemd", rec["title"])

	rec, _ = b.Get("de", "fr")
	assert.Equal(t, "Shirt", rec["title"])

	// source untouched
	assert.Equal(t, "19.99", src["price"])
	assert.Equal(t, "Shirt", src["title"])
}

func TestExpand_NoRegions(t *testing.T) {
	b := Expand(common.Record{"id": "1"}, mapping.EntityMapping{}, nil, nil)
	require.Len(t, b, 1)
	require.Len(t, b[DefaultKey], 1)
	assert.Equal(t, common.Record{"id": "1"}, b[DefaultKey][DefaultKey])
}

func TestFlatten_Order(t *testing.T) {
	b := Expand(common.Record{"id": "1"}, productRules(), []string{"us", "de"}, []string{"fr", "en"})

	var keys []string
	for _, v := range Flatten(b) {
		keys = append(keys, v.Region+"/"+v.Language)
	}
	assert.Equal(t, []string{
		"default/default", "default/en", "default/fr",
		"de/default", "de/en", "de/fr",
		"us/default", "us/en", "us/fr",
	}, keys)
}

func TestTag(t *testing.T) {
	rec := common.Record{}
	Tag(rec, DefaultKey, DefaultKey)
	assert.Empty(t, rec)

	Tag(rec, "de", "fr")
	region, _ := rec.Get("metadata.region")
	lang, _ := rec.Get("metadata.language")
	assert.Equal(t, "de", region)
	assert.Equal(t, "fr", lang)
}

func TestProperty_EveryPairPresent(t *testing.T) {
	properties := gopter.NewProperties(nil)
	key := gen.RegexMatch(`^[a-z]{2}$`)

	properties.Property("every requested region and language has a bucket", prop.ForAll(
		func(regions, languages []string) bool {
			b := Expand(common.Record{"id": "x", "price": 1}, productRules(), regions, languages)
			for _, r := range append(regions, DefaultKey) {
				for _, l := range append(languages, DefaultKey) {
					if rec, ok := b.Get(r, l); !ok || rec == nil {
						return false
					}
				}
			}
			return true
		},
		gen.SliceOf(key),
		gen.SliceOf(key),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
