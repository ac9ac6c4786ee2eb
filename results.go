// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mongorpc

// InsertOneResult is the outcome of a successful InsertOne.
type InsertOneResult struct {
	// InsertedID is the hex object identifier of the inserted document,
	// generated by the remote store when the document carried none.
	InsertedID string
}

// InsertManyResult is the outcome of a successful InsertMany.
type InsertManyResult struct {
	// InsertedIDs maps the 0-based insertion index of each document to its
	// hex object identifier, preserving the order documents were supplied.
	InsertedIDs map[uint64]string
}

// DeleteResult is the outcome of a successful DeleteOne or DeleteMany.
type DeleteResult struct {
	DeletedCount uint64
}

// UpdateResult is the outcome of a successful UpdateOne or UpdateMany.
type UpdateResult struct {
	MatchedCount  uint64
	ModifiedCount uint64

	// UpsertedID is the hex object identifier of the upserted document.
	// Empty when no upsert occurred.
	UpsertedID string
}

// DocumentsCallback receives the reply of an operation returning zero or
// more documents (Find, Aggregate) as a single JSON array string.
type DocumentsCallback func(documentsJSON string, err error)

// DocumentCallback receives the reply of an operation returning at most one
// document (FindOne, FindOneAndUpdate, FindOneAndReplace, FindOneAndDelete).
// A nil document with a nil error means no document matched; this is
// distinct from both a real document and an error.
type DocumentCallback func(documentJSON *string, err error)

// CountCallback receives the reply of a Count.
type CountCallback func(count uint64, err error)

// InsertOneCallback receives the reply of an InsertOne.
type InsertOneCallback func(result InsertOneResult, err error)

// InsertManyCallback receives the reply of an InsertMany.
type InsertManyCallback func(result InsertManyResult, err error)

// DeleteCallback receives the reply of a DeleteOne or DeleteMany.
type DeleteCallback func(result DeleteResult, err error)

// UpdateCallback receives the reply of an UpdateOne or UpdateMany.
type UpdateCallback func(result UpdateResult, err error)
