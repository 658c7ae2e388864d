package expand

import (
	"sort"

	"github.com/gsbingo17/cms-to-commerce/pkg/common"
	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
)

// DefaultKey names the bucket holding the record without any overrides
const DefaultKey = "default"

// Buckets maps region key → language key → source record
type Buckets map[string]map[string]common.Record

// Get returns the record for a region and language pair
func (b Buckets) Get(region, language string) (common.Record, bool) {
	langs, ok := b[region]
	if !ok {
		return nil, false
	}
	rec, ok := langs[language]
	return rec, ok
}

// Variant is one expanded record with its region and language keys
type Variant struct {
	Region   string
	Language string
	Record   common.Record
}

// Expand produces the default bucket plus one bucket per requested region and
// per (region, language) pair. Region overrides are read from
// "<field>_<region>", language overrides from "<field>_<region>_<language>"
// then "<field>_<language>". Overrides are written under the original field
// name so the direct rules still match. src is never modified.
func Expand(src common.Record, em mapping.EntityMapping, regions, languages []string) Buckets {
	base := src.ShallowCopy()
	out := Buckets{
		DefaultKey: {DefaultKey: base},
	}
	for _, lang := range languages {
		if lang == DefaultKey {
			continue
		}
		out[DefaultKey][lang] = overlayLanguage(src, base, em.MultiLanguageRules, "", lang)
	}

	for _, region := range regions {
		if region == DefaultKey {
			continue
		}
		regional := src.ShallowCopy()
		for _, rule := range em.MultiRegionRules {
			if v, ok := src[rule.SourceField+"_"+region]; ok {
				regional[rule.SourceField] = v
			}
		}

		langs := map[string]common.Record{DefaultKey: regional}
		for _, lang := range languages {
			if lang == DefaultKey {
				continue
			}
			langs[lang] = overlayLanguage(src, regional, em.MultiLanguageRules, region, lang)
		}
		out[region] = langs
	}

	return out
}

func overlayLanguage(src, regional common.Record, rules []mapping.MappingRule, region, lang string) common.Record {
	rec := regional.ShallowCopy()
	for _, rule := range rules {
		field := rule.SourceField
		if region != "" {
			if v, ok := src[field+"_"+region+"_"+lang]; ok {
				rec[field] = v
				continue
			}
		}
		if v, ok := src[field+"_"+lang]; ok {
			rec[field] = v
		}
	}
	return rec
}

// Flatten lists the buckets in a stable order: the default region first, then
// regions sorted by key; inside each region the default language first.
func Flatten(b Buckets) []Variant {
	var out []Variant
	for _, region := range sortedKeys(b) {
		langs := b[region]
		keys := make([]string, 0, len(langs))
		for k := range langs {
			keys = append(keys, k)
		}
		sortDefaultFirst(keys)
		for _, lang := range keys {
			out = append(out, Variant{Region: region, Language: lang, Record: langs[lang]})
		}
	}
	return out
}

func sortedKeys(b Buckets) []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sortDefaultFirst(keys)
	return keys
}

func sortDefaultFirst(keys []string) {
	sort.Slice(keys, func(i, j int) bool {
		if keys[i] == DefaultKey || keys[j] == DefaultKey {
			return keys[i] == DefaultKey && keys[j] != DefaultKey
		}
		return keys[i] < keys[j]
	})
}

// Tag records the region and language of a transformed variant under
// metadata. The default bucket is left untagged.
func Tag(rec common.Record, region, language string) {
	if region != "" && region != DefaultKey {
		rec.Set("metadata.region", region)
	}
	if language != "" && language != DefaultKey {
		rec.Set("metadata.language", language)
	}
}
