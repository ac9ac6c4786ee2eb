// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mongorpc

import (
	"strconv"

	"github.com/valyala/fastjson"
)

// argumentBuilder assembles the canonical argument document sent with every
// function invocation:
//
//	{"arguments": [{"database": ..., "collection": ..., <operation fields>}]}
//
// A fresh builder is allocated per call, so concurrent operations never
// share state. Field order is deterministic: database and collection first,
// then fields in the order they are set, which makes the serialized
// arguments byte-identical for identical inputs.
type argumentBuilder struct {
	arena fastjson.Arena
	base  *fastjson.Value
}

func (c *Collection) newArguments() *argumentBuilder {
	b := &argumentBuilder{}
	b.base = b.arena.NewObject()
	b.base.Set("database", b.arena.NewString(c.database))
	b.base.Set("collection", b.arena.NewString(c.name))
	return b
}

// setDocument parses doc and embeds it under field. A parse failure is
// reported as malformed input, never as a transport fault.
func (b *argumentBuilder) setDocument(field, doc string) error {
	v, err := fastjson.Parse(doc)
	if err != nil {
		return newMalformedJSON(err, "parsing "+field)
	}
	b.base.Set(field, v)
	return nil
}

func (b *argumentBuilder) setOptionalDocument(field string, doc *string) error {
	if doc == nil {
		return nil
	}
	return b.setDocument(field, *doc)
}

func (b *argumentBuilder) setDocumentArray(field string, docs []string) error {
	arr := b.arena.NewArray()
	for i, doc := range docs {
		v, err := fastjson.Parse(doc)
		if err != nil {
			return newMalformedJSON(err, "parsing "+field)
		}
		arr.SetArrayItem(i, v)
	}
	b.base.Set(field, arr)
	return nil
}

func (b *argumentBuilder) setLimit(limit *int64) {
	if limit == nil {
		return
	}
	// NewNumberString keeps the full int64 range; NewNumberInt would
	// truncate on 32-bit platforms.
	b.base.Set("limit", b.arena.NewNumberString(strconv.FormatInt(*limit, 10)))
}

// setFlag emits field only for an explicit true. False matches the remote
// default and is indistinguishable from absent on the wire.
func (b *argumentBuilder) setFlag(field string, flag *bool) {
	if flag == nil || !*flag {
		return
	}
	b.base.Set(field, b.arena.NewTrue())
}

func (b *argumentBuilder) build() string {
	arr := b.arena.NewArray()
	arr.SetArrayItem(0, b.base)
	root := b.arena.NewObject()
	root.Set("arguments", arr)
	return string(root.MarshalTo(nil))
}

func (c *Collection) findArguments(filter string, opts *FindOptions) (string, error) {
	b := c.newArguments()
	if err := b.setDocument("query", filter); err != nil {
		return "", err
	}
	b.setLimit(opts.Limit)
	if err := b.setOptionalDocument("project", opts.Projection); err != nil {
		return "", err
	}
	if err := b.setOptionalDocument("sort", opts.Sort); err != nil {
		return "", err
	}
	return b.build(), nil
}

func (c *Collection) aggregateArguments(pipeline []string) (string, error) {
	b := c.newArguments()
	if err := b.setDocumentArray("pipeline", pipeline); err != nil {
		return "", err
	}
	return b.build(), nil
}

func (c *Collection) countArguments(filter string, opts *CountOptions) (string, error) {
	b := c.newArguments()
	if err := b.setDocument("query", filter); err != nil {
		return "", err
	}
	b.setLimit(opts.Limit)
	return b.build(), nil
}

func (c *Collection) insertOneArguments(document string) (string, error) {
	b := c.newArguments()
	if err := b.setDocument("document", document); err != nil {
		return "", err
	}
	return b.build(), nil
}

func (c *Collection) insertManyArguments(documents []string) (string, error) {
	b := c.newArguments()
	if err := b.setDocumentArray("documents", documents); err != nil {
		return "", err
	}
	return b.build(), nil
}

func (c *Collection) deleteArguments(filter string) (string, error) {
	b := c.newArguments()
	if err := b.setDocument("query", filter); err != nil {
		return "", err
	}
	return b.build(), nil
}

func (c *Collection) updateArguments(filter, update string, opts *UpdateOptions) (string, error) {
	b := c.newArguments()
	if err := b.setDocument("query", filter); err != nil {
		return "", err
	}
	if err := b.setDocument("update", update); err != nil {
		return "", err
	}
	b.setFlag("upsert", opts.Upsert)
	return b.build(), nil
}

// findOneAndModifyArguments covers FindOneAndUpdate, FindOneAndReplace and
// FindOneAndDelete. A replacement travels under the update field; delete
// carries no update document at all.
func (c *Collection) findOneAndModifyArguments(filter string, update *string, opts *FindOneAndModifyOptions) (string, error) {
	b := c.newArguments()
	if err := b.setDocument("query", filter); err != nil {
		return "", err
	}
	if err := b.setOptionalDocument("update", update); err != nil {
		return "", err
	}
	b.setFlag("upsert", opts.Upsert)
	b.setFlag("returnNewDocument", opts.ReturnNewDocument)
	if err := b.setOptionalDocument("project", opts.Projection); err != nil {
		return "", err
	}
	if err := b.setOptionalDocument("sort", opts.Sort); err != nil {
		return "", err
	}
	return b.build(), nil
}
