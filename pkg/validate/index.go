package validate

import (
	"fmt"

	"github.com/gsbingo17/cms-to-commerce/pkg/common"
	"github.com/gsbingo17/cms-to-commerce/pkg/mapping"
)

// Index holds the ids of every record in the current batch, per entity. It is
// the only thing relationship checks can see; ids already committed to a
// destination are not known.
type Index map[mapping.EntityType]map[string]struct{}

// BuildIndex indexes records by id, handle and metadata.original_id
func BuildIndex(records map[mapping.EntityType][]common.Record) Index {
	idx := make(Index)
	for entity, recs := range records {
		for _, rec := range recs {
			idx.Add(entity, rec)
		}
	}
	return idx
}

// Add indexes one record
func (idx Index) Add(entity mapping.EntityType, rec common.Record) {
	ids, ok := idx[entity]
	if !ok {
		ids = make(map[string]struct{})
		idx[entity] = ids
	}
	for _, key := range []string{"id", "handle", "metadata.original_id"} {
		if v, ok := rec.Get(key); ok && !common.IsEmpty(v) {
			ids[fmt.Sprint(v)] = struct{}{}
		}
	}
}

// Has reports whether id belongs to a record of entity
func (idx Index) Has(entity mapping.EntityType, id string) bool {
	_, ok := idx[entity][id]
	return ok
}
