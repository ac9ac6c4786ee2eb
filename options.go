// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mongorpc

// Options use pointer fields so that "absent" is structural: a field left
// nil is omitted from the outgoing argument document rather than sent as
// null, zero or false. Each operation takes a trailing variadic options
// parameter; later values override earlier ones field by field.

// FindOptions configures Find, FindOne and the document-returning shape of
// query operations.
type FindOptions struct {
	// Limit caps the number of returned documents.
	Limit *int64

	// Projection is an extended JSON document limiting the fields of the
	// returned documents.
	Projection *string

	// Sort is an extended JSON document giving the order in which matching
	// documents are returned.
	Sort *string
}

// SetLimit sets the Limit field.
func (o *FindOptions) SetLimit(n int64) *FindOptions {
	o.Limit = &n
	return o
}

// SetProjection sets the Projection field.
func (o *FindOptions) SetProjection(projectionJSON string) *FindOptions {
	o.Projection = &projectionJSON
	return o
}

// SetSort sets the Sort field.
func (o *FindOptions) SetSort(sortJSON string) *FindOptions {
	o.Sort = &sortJSON
	return o
}

// CountOptions configures Count.
type CountOptions struct {
	// Limit caps the number of documents counted.
	Limit *int64
}

// SetLimit sets the Limit field.
func (o *CountOptions) SetLimit(n int64) *CountOptions {
	o.Limit = &n
	return o
}

// UpdateOptions configures UpdateOne and UpdateMany.
type UpdateOptions struct {
	// Upsert inserts a new document when no document matches the filter.
	// Only an explicit true is sent; false matches the remote default and
	// is omitted from the argument document.
	Upsert *bool
}

// SetUpsert sets the Upsert field.
func (o *UpdateOptions) SetUpsert(upsert bool) *UpdateOptions {
	o.Upsert = &upsert
	return o
}

// FindOneAndModifyOptions configures FindOneAndUpdate, FindOneAndReplace and
// FindOneAndDelete.
type FindOneAndModifyOptions struct {
	// Upsert inserts a new document when no document matches the filter.
	Upsert *bool

	// ReturnNewDocument returns the post-modification document instead of
	// the pre-modification one. Like Upsert, only an explicit true is sent.
	ReturnNewDocument *bool

	// Projection is an extended JSON document limiting the fields of the
	// returned document.
	Projection *string

	// Sort is an extended JSON document selecting which matching document
	// the operation applies to.
	Sort *string
}

// SetUpsert sets the Upsert field.
func (o *FindOneAndModifyOptions) SetUpsert(upsert bool) *FindOneAndModifyOptions {
	o.Upsert = &upsert
	return o
}

// SetReturnNewDocument sets the ReturnNewDocument field.
func (o *FindOneAndModifyOptions) SetReturnNewDocument(returnNew bool) *FindOneAndModifyOptions {
	o.ReturnNewDocument = &returnNew
	return o
}

// SetProjection sets the Projection field.
func (o *FindOneAndModifyOptions) SetProjection(projectionJSON string) *FindOneAndModifyOptions {
	o.Projection = &projectionJSON
	return o
}

// SetSort sets the Sort field.
func (o *FindOneAndModifyOptions) SetSort(sortJSON string) *FindOneAndModifyOptions {
	o.Sort = &sortJSON
	return o
}

func mergeFindOptions(opts ...*FindOptions) *FindOptions {
	merged := &FindOptions{}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if o.Limit != nil {
			merged.Limit = o.Limit
		}
		if o.Projection != nil {
			merged.Projection = o.Projection
		}
		if o.Sort != nil {
			merged.Sort = o.Sort
		}
	}
	return merged
}

func mergeCountOptions(opts ...*CountOptions) *CountOptions {
	merged := &CountOptions{}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if o.Limit != nil {
			merged.Limit = o.Limit
		}
	}
	return merged
}

func mergeUpdateOptions(opts ...*UpdateOptions) *UpdateOptions {
	merged := &UpdateOptions{}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if o.Upsert != nil {
			merged.Upsert = o.Upsert
		}
	}
	return merged
}

func mergeFindOneAndModifyOptions(opts ...*FindOneAndModifyOptions) *FindOneAndModifyOptions {
	merged := &FindOneAndModifyOptions{}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if o.Upsert != nil {
			merged.Upsert = o.Upsert
		}
		if o.ReturnNewDocument != nil {
			merged.ReturnNewDocument = o.ReturnNewDocument
		}
		if o.Projection != nil {
			merged.Projection = o.Projection
		}
		if o.Sort != nil {
			merged.Sort = o.Sort
		}
	}
	return merged
}
