package redis

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/neogranadina/zasqua/internal/db"
)

// PutDocuments stores documents as hashes in a single DoMulti round-trip.
// The index picks them up through its key prefix.
func (s *Store) PutDocuments(ctx context.Context, _ string, docs []db.Document) error {
	if len(docs) == 0 {
		return nil
	}

	cmds := make([]rueidis.Completed, len(docs))
	for i := range docs {
		fields := hashFields(&docs[i])
		cmd := s.b().Hset().Key(docs[i].Key).FieldValue()
		for _, k := range sortedKeys(fields) {
			cmd = cmd.FieldValue(k, fields[k])
		}
		cmds[i] = cmd.Build()
	}

	results := s.client.DoMulti(ctx, cmds...)
	for i, res := range results {
		if err := res.Error(); err != nil {
			return &db.Error{Op: db.OpHSet, Err: fmt.Errorf("key %s: %w", docs[i].Key, err)}
		}
	}
	return nil
}

// DeleteDocument removes a document hash.
func (s *Store) DeleteDocument(ctx context.Context, _ string, key string) error {
	cmd := s.b().Del().Key(key).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// hashFields flattens a document into hash fields. Tag values are joined
// with the tag separator declared in the index schema.
func hashFields(d *db.Document) map[string]string {
	out := make(map[string]string, len(d.Text)+len(d.Tags)+len(d.Numbers))
	for k, v := range d.Text {
		out[k] = v
	}
	for k, vals := range d.Tags {
		if len(vals) == 0 {
			continue
		}
		out[k] = strings.Join(vals, db.DefaultTagSeparator)
	}
	for k, v := range d.Numbers {
		out[k] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
