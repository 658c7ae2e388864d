package transform

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/gsbingo17/cms-to-commerce/pkg/common"
	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9-]`)
	dashRun       = regexp.MustCompile(`-{2,}`)
)

// Slugify lowercases s, turns whitespace runs into dashes and drops every
// character outside [a-z0-9-]. Slugify(Slugify(s)) == Slugify(s).
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = nonSlugChars.ReplaceAllString(s, "")
	s = dashRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func direct(c Call) (interface{}, map[string]interface{}) {
	return c.Value, nil
}

func slugify(c Call) (interface{}, map[string]interface{}) {
	if s, ok := c.Value.(string); ok {
		return Slugify(s), nil
	}
	return Slugify(fmt.Sprint(c.Value)), nil
}

func lowercase(c Call) (interface{}, map[string]interface{}) {
	if s, ok := c.Value.(string); ok {
		return strings.ToLower(s), nil
	}
	return c.Value, nil
}

func (t *Transformer) multiplyBy100(c Call) (interface{}, map[string]interface{}) {
	amount, ok := ToMinorUnits(c.Value, c.Rule.Unit)
	if !ok {
		t.log.WithEntity(string(c.Entity)).Debugf("Cannot read %v in %s as a price", c.Value, c.Rule.SourceField)
		return nil, nil
	}
	if c.Rule.Unit == "" && looksLikeMinorUnits(c.Value) {
		t.log.WithEntity(string(c.Entity)).
			Debugf("Treating %v in %s as minor units; tag the rule with a unit to make this explicit", c.Value, c.Rule.SourceField)
	}
	return amount, nil
}

func divisionBy100(c Call) (interface{}, map[string]interface{}) {
	f, ok := common.ToFloat(c.Value)
	if !ok {
		return nil, nil
	}
	return f / 100, nil
}

func statusMap(c Call) (interface{}, map[string]interface{}) {
	return MapStatus(c.Entity, c.Value), nil
}

// SplitName splits a full name on whitespace: the first token is the first
// name, the remaining tokens joined by one space are the last name.
func SplitName(v interface{}) (first, last string) {
	s, _ := v.(string)
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func nameSplit(c Call) (interface{}, map[string]interface{}) {
	first, last := SplitName(c.Value)

	secondary := c.Rule.SecondaryField
	if secondary == "" {
		secondary = "last_name"
		if i := strings.LastIndex(c.Rule.DestinationField, "."); i >= 0 {
			secondary = c.Rule.DestinationField[:i+1] + "last_name"
		}
	}

	return first, map[string]interface{}{secondary: last}
}

func (t *Transformer) mediaReference(c Call) (interface{}, map[string]interface{}) {
	return MediaReference(c.Value, c.Target, t.opts.MediaBaseURL), nil
}

// MediaReference rewrites an asset path, asset object or list of either into
// the shape the target expects: {url} for commerce and
// {name, alternativeText, url} for content.
func MediaReference(v interface{}, target mapping.Target, baseURL string) interface{} {
	if list, ok := common.AsList(v); ok {
		out := make([]interface{}, 0, len(list))
		for _, item := range list {
			if ref := MediaReference(item, target, baseURL); ref != nil {
				out = append(out, ref)
			}
		}
		return out
	}

	var rawURL, name, alt string
	switch m := v.(type) {
	case string:
		rawURL = m
	default:
		obj, ok := common.AsObject(v)
		if !ok {
			return nil
		}
		rawURL = firstString(obj, "url", "path", "src", "file")
		name = firstString(obj, "name", "filename")
		alt = firstString(obj, "alternativeText", "alt", "alt_text", "title")
	}

	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil
	}

	url := resolveMediaURL(rawURL, baseURL)
	if target == mapping.TargetCommerce {
		return map[string]interface{}{"url": url}
	}

	if name == "" {
		name = path.Base(rawURL)
	}
	if alt == "" {
		alt = strings.TrimSuffix(name, path.Ext(name))
	}
	return map[string]interface{}{
		"name":            name,
		"alternativeText": alt,
		"url":             url,
	}
}

func resolveMediaURL(raw, baseURL string) string {
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(raw, "//") || baseURL == "" {
		return raw
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(raw, "/")
}

func firstString(obj map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func (t *Transformer) relationshipID(c Call) (interface{}, map[string]interface{}) {
	return StripReference(c.Value, t.opts.RelationshipPrefixes), nil
}

// StripReference removes reference markers from an id or a list of ids.
// gid:// style ids keep only their last path segment.
func StripReference(v interface{}, prefixes []string) interface{} {
	if list, ok := common.AsList(v); ok {
		out := make([]interface{}, 0, len(list))
		for _, item := range list {
			if id := StripReference(item, prefixes); id != nil && id != "" {
				out = append(out, id)
			}
		}
		return out
	}

	if v == nil {
		return nil
	}
	if obj, ok := common.AsObject(v); ok {
		if id, ok := obj["id"]; ok {
			return StripReference(id, prefixes)
		}
		return nil
	}

	s := strings.TrimSpace(fmt.Sprint(v))
	if strings.HasPrefix(s, "gid://") {
		return s[strings.LastIndex(s, "/")+1:]
	}
	for _, p := range prefixes {
		s = strings.TrimPrefix(s, p)
	}
	return s
}

func flatten(c Call) (interface{}, map[string]interface{}) {
	return Flatten(c.Value), nil
}

// Flatten turns a nested object into one level with "_" joined keys. Non-object
// values are returned unchanged.
func Flatten(v interface{}) interface{} {
	obj, ok := common.AsObject(v)
	if !ok {
		return v
	}
	out := make(map[string]interface{})
	flattenInto(out, "", obj)
	return out
}

func flattenInto(out map[string]interface{}, prefix string, obj map[string]interface{}) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "_" + k
		}
		if nested, ok := common.AsObject(v); ok {
			flattenInto(out, key, nested)
			continue
		}
		out[key] = v
	}
}
