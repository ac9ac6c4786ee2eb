// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mongorpc

import (
	"context"
)

// Collection is a handle to a remote document collection. All operations are
// asynchronous: they build an argument document, dispatch it through the
// FunctionService and invoke the supplied callback exactly once with either
// the typed result or an error, never both and never neither. No operation
// blocks the calling goroutine waiting for the reply.
//
// A Collection holds no mutable state beyond its immutable identity, so it
// is safe for unsynchronized concurrent use. No ordering is guaranteed
// between concurrently issued operations; callers needing sequential
// semantics must chain callbacks explicitly.
type Collection struct {
	name     string
	database string
	service  FunctionService
}

// NewCollection returns a handle to the named collection in the named
// database, dispatching through service.
func NewCollection(service FunctionService, database, name string) *Collection {
	return &Collection{
		name:     name,
		database: database,
		service:  service,
	}
}

// Name returns the name of the collection.
func (c *Collection) Name() string { return c.name }

// DatabaseName returns the name of the database containing the collection.
func (c *Collection) DatabaseName() string { return c.database }

// Find returns the documents matching filter as a JSON array string.
func (c *Collection) Find(ctx context.Context, filter string, complete DocumentsCallback, opts ...*FindOptions) {
	args, err := c.findArguments(filter, mergeFindOptions(opts...))
	if err != nil {
		complete("", err)
		return
	}
	c.service.CallFunction(ctx, "find", args, func(value string, err error) {
		complete(documentsReply(value, err))
	})
}

// FindOne returns one document matching filter, or nil if none does. When
// multiple documents satisfy the query the first according to the sort
// order, or natural order, is returned.
func (c *Collection) FindOne(ctx context.Context, filter string, complete DocumentCallback, opts ...*FindOptions) {
	args, err := c.findArguments(filter, mergeFindOptions(opts...))
	if err != nil {
		complete(nil, err)
		return
	}
	c.service.CallFunction(ctx, "findOne", args, func(value string, err error) {
		complete(documentReply(value, err))
	})
}

// Aggregate runs an aggregation pipeline against the collection. Each
// element of pipeline is one stage document; the resulting documents are
// returned as a JSON array string.
func (c *Collection) Aggregate(ctx context.Context, pipeline []string, complete DocumentsCallback) {
	args, err := c.aggregateArguments(pipeline)
	if err != nil {
		complete("", err)
		return
	}
	c.service.CallFunction(ctx, "aggregate", args, func(value string, err error) {
		complete(documentsReply(value, err))
	})
}

// Count returns the number of documents matching filter.
func (c *Collection) Count(ctx context.Context, filter string, complete CountCallback, opts ...*CountOptions) {
	args, err := c.countArguments(filter, mergeCountOptions(opts...))
	if err != nil {
		complete(0, err)
		return
	}
	c.service.CallFunction(ctx, "count", args, func(value string, err error) {
		complete(countReply(value, err))
	})
}

// InsertOne inserts the provided document. The remote store generates an
// identifier when the document carries none.
func (c *Collection) InsertOne(ctx context.Context, document string, complete InsertOneCallback) {
	args, err := c.insertOneArguments(document)
	if err != nil {
		complete(InsertOneResult{}, err)
		return
	}
	c.service.CallFunction(ctx, "insertOne", args, func(value string, err error) {
		complete(insertOneReply(value, err))
	})
}

// InsertMany inserts the provided documents in order.
func (c *Collection) InsertMany(ctx context.Context, documents []string, complete InsertManyCallback) {
	args, err := c.insertManyArguments(documents)
	if err != nil {
		complete(InsertManyResult{}, err)
		return
	}
	c.service.CallFunction(ctx, "insertMany", args, func(value string, err error) {
		complete(insertManyReply(value, err))
	})
}

// DeleteOne deletes a single document matching filter.
func (c *Collection) DeleteOne(ctx context.Context, filter string, complete DeleteCallback) {
	c.delete(ctx, "deleteOne", filter, complete)
}

// DeleteMany deletes every document matching filter.
func (c *Collection) DeleteMany(ctx context.Context, filter string, complete DeleteCallback) {
	c.delete(ctx, "deleteMany", filter, complete)
}

func (c *Collection) delete(ctx context.Context, name, filter string, complete DeleteCallback) {
	args, err := c.deleteArguments(filter)
	if err != nil {
		complete(DeleteResult{}, err)
		return
	}
	c.service.CallFunction(ctx, name, args, func(value string, err error) {
		complete(deleteReply(value, err))
	})
}

// UpdateOne applies update to a single document matching filter.
func (c *Collection) UpdateOne(ctx context.Context, filter, update string, complete UpdateCallback, opts ...*UpdateOptions) {
	c.update(ctx, "updateOne", filter, update, complete, opts)
}

// UpdateMany applies update to every document matching filter.
func (c *Collection) UpdateMany(ctx context.Context, filter, update string, complete UpdateCallback, opts ...*UpdateOptions) {
	c.update(ctx, "updateMany", filter, update, complete, opts)
}

func (c *Collection) update(ctx context.Context, name, filter, update string, complete UpdateCallback, opts []*UpdateOptions) {
	args, err := c.updateArguments(filter, update, mergeUpdateOptions(opts...))
	if err != nil {
		complete(UpdateResult{}, err)
		return
	}
	c.service.CallFunction(ctx, name, args, func(value string, err error) {
		complete(updateReply(value, err))
	})
}

// FindOneAndUpdate atomically finds a document matching filter, applies
// update to it server-side, and returns it in either its pre-update or
// post-update form. Returns nil when no document matches and no upsert was
// requested.
func (c *Collection) FindOneAndUpdate(ctx context.Context, filter, update string, complete DocumentCallback, opts ...*FindOneAndModifyOptions) {
	c.findOneAndModify(ctx, "findOneAndUpdate", filter, &update, complete, opts)
}

// FindOneAndReplace atomically finds a document matching filter, overwrites
// it with replacement server-side, and returns it in either its
// pre-replacement or post-replacement form.
func (c *Collection) FindOneAndReplace(ctx context.Context, filter, replacement string, complete DocumentCallback, opts ...*FindOneAndModifyOptions) {
	c.findOneAndModify(ctx, "findOneAndReplace", filter, &replacement, complete, opts)
}

// FindOneAndDelete atomically finds a document matching filter, removes it,
// and returns it as it was immediately before deletion.
func (c *Collection) FindOneAndDelete(ctx context.Context, filter string, complete DocumentCallback, opts ...*FindOneAndModifyOptions) {
	c.findOneAndModify(ctx, "findOneAndDelete", filter, nil, complete, opts)
}

func (c *Collection) findOneAndModify(ctx context.Context, name, filter string, update *string, complete DocumentCallback, opts []*FindOneAndModifyOptions) {
	args, err := c.findOneAndModifyArguments(filter, update, mergeFindOneAndModifyOptions(opts...))
	if err != nil {
		complete(nil, err)
		return
	}
	c.service.CallFunction(ctx, name, args, func(value string, err error) {
		complete(documentReply(value, err))
	})
}
