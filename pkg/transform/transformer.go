package transform

import (
	"strings"

	"github.com/gsbingo17/cms-to-commerce/pkg/common"
	"github.com/gsbingo17/cms-to-commerce/pkg/logger"
	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
)

// Options configures the value transformations
type Options struct {
	DefaultCurrency      string
	MediaBaseURL         string
	RelationshipPrefixes []string
}

// Call carries one rule application
type Call struct {
	Rule   mapping.MappingRule
	Value  interface{}
	Entity mapping.EntityType
	Target mapping.Target
}

// Func transforms one source value. Extra holds additional destination paths
// written by kinds that produce more than one field.
type Func func(c Call) (value interface{}, extra map[string]interface{})

// Transformer maps source records onto destination-shaped records
type Transformer struct {
	opts  Options
	funcs map[mapping.Kind]Func
	log   *logger.Logger
}

// NewTransformer creates a transformer with the dispatch table resolved for
// every kind of the mapping vocabulary
func NewTransformer(opts Options, log *logger.Logger) *Transformer {
	if opts.DefaultCurrency == "" {
		opts.DefaultCurrency = "eur"
	}
	opts.DefaultCurrency = strings.ToLower(opts.DefaultCurrency)

	t := &Transformer{opts: opts, log: log}
	t.funcs = map[mapping.Kind]Func{
		mapping.KindDirect:         direct,
		mapping.KindSlugify:        slugify,
		mapping.KindLowercase:      lowercase,
		mapping.KindMultiplyBy100:  t.multiplyBy100,
		mapping.KindDivisionBy100:  divisionBy100,
		mapping.KindStatusMap:      statusMap,
		mapping.KindNameSplit:      nameSplit,
		mapping.KindMediaReference: t.mediaReference,
		mapping.KindRelationshipID: t.relationshipID,
		mapping.KindFlatten:        flatten,
	}
	return t
}

// Transform applies the direct rules of em to src and returns a new record.
// src is never modified.
func (t *Transformer) Transform(src common.Record, entity mapping.EntityType, em mapping.EntityMapping, target mapping.Target) common.Record {
	dst := make(common.Record)

	for _, rule := range em.DirectRules {
		value, present := src[rule.SourceField]

		if !present || value == nil {
			if rule.DefaultValue != nil {
				dst.Set(rule.DestinationField, deepCopy(rule.DefaultValue))
				continue
			}
			// these kinds define their own result for a missing source
			if rule.Kind != mapping.KindNameSplit && rule.Kind != mapping.KindStatusMap {
				dst.Set(rule.DestinationField, nil)
				continue
			}
		}

		fn, ok := t.funcs[rule.Kind]
		if !ok {
			t.log.WithRecord(string(entity), src.OriginalID()).
				Warnf("Unknown transformation kind %q for field %s, copying value as is", rule.Kind, rule.SourceField)
			fn = direct
		}

		out, extra := fn(Call{Rule: rule, Value: value, Entity: entity, Target: target})
		dst.Set(rule.DestinationField, deepCopy(out))
		for path, v := range extra {
			dst.Set(path, v)
		}
	}

	if entity == mapping.EntityProduct && target == mapping.TargetCommerce {
		dst["variants"] = t.productVariants(src, em)
	}

	dst.Set("metadata.original_id", src.OriginalID())
	dst.Set("metadata.source_entity", string(entity))

	return dst
}

// deepCopy copies objects and lists so destination writes never reach into
// source values
func deepCopy(v interface{}) interface{} {
	if obj, ok := common.AsObject(v); ok {
		out := make(map[string]interface{}, len(obj))
		for k, val := range obj {
			out[k] = deepCopy(val)
		}
		return out
	}
	if list, ok := v.([]interface{}); ok {
		out := make([]interface{}, len(list))
		for i, val := range list {
			out[i] = deepCopy(val)
		}
		return out
	}
	return v
}
