// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mongorpc

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCall struct {
	name      string
	arguments string
}

// fakeService records invocations and completes them synchronously with a
// canned reply.
type fakeService struct {
	mu     sync.Mutex
	calls  []fakeCall
	result string
	err    error
}

func (f *fakeService) CallFunction(_ context.Context, name string, argumentsJSON string, complete CallFunctionCallback) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{name: name, arguments: argumentsJSON})
	result, err := f.result, f.err
	f.mu.Unlock()
	complete(result, err)
}

func (f *fakeService) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeService) lastCall() fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func TestMalformedInputShortCircuits(t *testing.T) {
	ctx := context.Background()
	const bad = `{"unterminated`

	for _, tc := range []struct {
		name string
		run  func(coll *Collection, done func(error))
	}{
		{"find", func(coll *Collection, done func(error)) {
			coll.Find(ctx, bad, func(docs string, err error) {
				assert.Empty(t, docs)
				done(err)
			})
		}},
		{"findOne", func(coll *Collection, done func(error)) {
			coll.FindOne(ctx, bad, func(doc *string, err error) {
				assert.Nil(t, doc)
				done(err)
			})
		}},
		{"aggregate", func(coll *Collection, done func(error)) {
			coll.Aggregate(ctx, []string{`{"$match":{}}`, bad}, func(docs string, err error) {
				assert.Empty(t, docs)
				done(err)
			})
		}},
		{"count", func(coll *Collection, done func(error)) {
			coll.Count(ctx, bad, func(count uint64, err error) {
				assert.Zero(t, count)
				done(err)
			})
		}},
		{"insertOne", func(coll *Collection, done func(error)) {
			coll.InsertOne(ctx, bad, func(result InsertOneResult, err error) {
				assert.Equal(t, InsertOneResult{}, result)
				done(err)
			})
		}},
		{"insertMany", func(coll *Collection, done func(error)) {
			coll.InsertMany(ctx, []string{bad}, func(result InsertManyResult, err error) {
				assert.Equal(t, InsertManyResult{}, result)
				done(err)
			})
		}},
		{"deleteOne", func(coll *Collection, done func(error)) {
			coll.DeleteOne(ctx, bad, func(result DeleteResult, err error) {
				assert.Equal(t, DeleteResult{}, result)
				done(err)
			})
		}},
		{"deleteMany", func(coll *Collection, done func(error)) {
			coll.DeleteMany(ctx, bad, func(result DeleteResult, err error) {
				assert.Equal(t, DeleteResult{}, result)
				done(err)
			})
		}},
		{"updateOne filter", func(coll *Collection, done func(error)) {
			coll.UpdateOne(ctx, bad, `{"$set":{"a":1}}`, func(result UpdateResult, err error) {
				assert.Equal(t, UpdateResult{}, result)
				done(err)
			})
		}},
		{"updateMany update", func(coll *Collection, done func(error)) {
			coll.UpdateMany(ctx, `{}`, bad, func(result UpdateResult, err error) {
				assert.Equal(t, UpdateResult{}, result)
				done(err)
			})
		}},
		{"findOneAndUpdate", func(coll *Collection, done func(error)) {
			coll.FindOneAndUpdate(ctx, `{}`, bad, func(doc *string, err error) {
				assert.Nil(t, doc)
				done(err)
			})
		}},
		{"findOneAndReplace", func(coll *Collection, done func(error)) {
			coll.FindOneAndReplace(ctx, bad, `{"a":1}`, func(doc *string, err error) {
				assert.Nil(t, doc)
				done(err)
			})
		}},
		{"findOneAndDelete", func(coll *Collection, done func(error)) {
			coll.FindOneAndDelete(ctx, bad, func(doc *string, err error) {
				assert.Nil(t, doc)
				done(err)
			})
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{result: `{}`}
			coll := NewCollection(svc, "db", "tasks")

			var got error
			tc.run(coll, func(err error) { got = err })

			require.Error(t, got)
			assert.True(t, IsMalformedJSON(got), "expected malformed json, got %v", got)
			assert.Zero(t, svc.callCount(), "the RPC channel must not be invoked")
		})
	}
}

func TestServiceErrorPassesThroughUnchanged(t *testing.T) {
	ctx := context.Background()
	svcErr := newServiceError("boom")
	// The reply body is garbage on purpose: a present upstream error must
	// suppress decoding entirely.
	svc := &fakeService{result: `not json at all`, err: svcErr}
	coll := NewCollection(svc, "db", "tasks")

	coll.UpdateOne(ctx, `{}`, `{"$set":{"a":1}}`, func(result UpdateResult, err error) {
		assert.Equal(t, UpdateResult{}, result)
		require.Same(t, svcErr, err)
	})

	coll.Count(ctx, `{}`, func(count uint64, err error) {
		assert.Zero(t, count)
		require.Same(t, svcErr, err)
	})

	coll.Find(ctx, `{}`, func(docs string, err error) {
		assert.Empty(t, docs)
		require.Same(t, svcErr, err)
	})
}

func TestFindOneOutcomesAreDistinguishable(t *testing.T) {
	ctx := context.Background()
	coll := NewCollection(&fakeService{result: ""}, "db", "tasks")
	coll.FindOne(ctx, `{}`, func(doc *string, err error) {
		assert.NoError(t, err)
		assert.Nil(t, doc, "empty error-free reply is the no-match outcome")
	})

	coll = NewCollection(&fakeService{result: `{"a":1}`}, "db", "tasks")
	coll.FindOne(ctx, `{}`, func(doc *string, err error) {
		assert.NoError(t, err)
		require.NotNil(t, doc)
		assert.Equal(t, `{"a":1}`, *doc)
	})
}

func TestUpdateReplyRoundTrip(t *testing.T) {
	ctx := context.Background()
	svc := &fakeService{result: `{"matchedCount":{"$numberInt":"3"},"modifiedCount":{"$numberInt":"2"}}`}
	coll := NewCollection(svc, "db", "tasks")

	coll.UpdateMany(ctx, `{}`, `{"$set":{"a":1}}`, func(result UpdateResult, err error) {
		require.NoError(t, err)
		assert.Equal(t, UpdateResult{MatchedCount: 3, ModifiedCount: 2, UpsertedID: ""}, result)
	})
	assert.Equal(t, "updateMany", svc.lastCall().name)
}

func TestInsertManyPreservesOrder(t *testing.T) {
	ctx := context.Background()
	svc := &fakeService{result: `{"insertedIds":[{"$oid":"a1"},{"$oid":"b2"}]}`}
	coll := NewCollection(svc, "db", "tasks")

	coll.InsertMany(ctx, []string{`{"n":1}`, `{"n":2}`}, func(result InsertManyResult, err error) {
		require.NoError(t, err)
		assert.Equal(t, map[uint64]string{0: "a1", 1: "b2"}, result.InsertedIDs)
	})
}

func TestCountReplies(t *testing.T) {
	ctx := context.Background()

	coll := NewCollection(&fakeService{result: `{"$numberLong":"42"}`}, "db", "tasks")
	coll.Count(ctx, `{}`, func(count uint64, err error) {
		require.NoError(t, err)
		assert.EqualValues(t, 42, count)
	})

	coll = NewCollection(&fakeService{result: `{"deletedCount":{"$numberInt":"1"}}`}, "db", "tasks")
	coll.Count(ctx, `{}`, func(count uint64, err error) {
		assert.True(t, IsMalformedJSON(err), "reply without $numberLong must be malformed, got %v", err)
		assert.Zero(t, count)
	})
}

func TestUpsertFlagsOnlySentWhenTrue(t *testing.T) {
	ctx := context.Background()
	update := `{"$set":{"a":1}}`

	for _, tc := range []struct {
		name string
		run  func(coll *Collection)
		want []string
		omit []string
	}{
		{
			name: "updateOne without options",
			run: func(coll *Collection) {
				coll.UpdateOne(ctx, `{}`, update, func(UpdateResult, error) {})
			},
			omit: []string{`"upsert"`},
		},
		{
			name: "updateOne explicit false",
			run: func(coll *Collection) {
				coll.UpdateOne(ctx, `{}`, update, func(UpdateResult, error) {},
					(&UpdateOptions{}).SetUpsert(false))
			},
			omit: []string{`"upsert"`},
		},
		{
			name: "updateMany explicit true",
			run: func(coll *Collection) {
				coll.UpdateMany(ctx, `{}`, update, func(UpdateResult, error) {},
					(&UpdateOptions{}).SetUpsert(true))
			},
			want: []string{`"upsert":true`},
		},
		{
			name: "findOneAndUpdate defaults",
			run: func(coll *Collection) {
				coll.FindOneAndUpdate(ctx, `{}`, update, func(*string, error) {})
			},
			omit: []string{`"upsert"`, `"returnNewDocument"`},
		},
		{
			name: "findOneAndUpdate both true",
			run: func(coll *Collection) {
				coll.FindOneAndUpdate(ctx, `{}`, update, func(*string, error) {},
					(&FindOneAndModifyOptions{}).SetUpsert(true).SetReturnNewDocument(true))
			},
			want: []string{`"upsert":true`, `"returnNewDocument":true`},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			svc := &fakeService{result: `{"matchedCount":{"$numberInt":"0"},"modifiedCount":{"$numberInt":"0"}}`}
			tc.run(NewCollection(svc, "db", "tasks"))

			require.Equal(t, 1, svc.callCount())
			args := svc.lastCall().arguments
			for _, want := range tc.want {
				assert.Contains(t, args, want)
			}
			for _, omit := range tc.omit {
				assert.NotContains(t, args, omit)
			}
		})
	}
}

func TestArgumentsAreByteIdentical(t *testing.T) {
	ctx := context.Background()
	svc := &fakeService{result: `[]`}
	coll := NewCollection(svc, "db", "tasks")

	opts := (&FindOptions{}).SetLimit(5).SetProjection(`{"name":1}`).SetSort(`{"name":-1}`)
	coll.Find(ctx, `{"done":false}`, func(string, error) {}, opts)
	coll.Find(ctx, `{"done":false}`, func(string, error) {}, opts)

	require.Equal(t, 2, svc.callCount())
	first := svc.calls[0].arguments
	assert.Equal(t, first, svc.calls[1].arguments)
	assert.Equal(t,
		`{"arguments":[{"database":"db","collection":"tasks","query":{"done":false},"limit":5,"project":{"name":1},"sort":{"name":-1}}]}`,
		first)
}

func TestSortAndProjectionAreIndependent(t *testing.T) {
	ctx := context.Background()

	svc := &fakeService{result: `[]`}
	coll := NewCollection(svc, "db", "tasks")
	coll.FindOne(ctx, `{}`, func(*string, error) {}, (&FindOptions{}).SetSort(`{"n":1}`))
	args := svc.lastCall().arguments
	assert.Contains(t, args, `"sort"`)
	assert.NotContains(t, args, `"project"`)

	coll.FindOne(ctx, `{}`, func(*string, error) {}, (&FindOptions{}).SetProjection(`{"n":1}`))
	args = svc.lastCall().arguments
	assert.Contains(t, args, `"project"`)
	assert.NotContains(t, args, `"sort"`)
}

func TestClientHandles(t *testing.T) {
	svc := &fakeService{}
	coll := NewClient(svc).Database("app").Collection("tasks")
	assert.Equal(t, "tasks", coll.Name())
	assert.Equal(t, "app", coll.DatabaseName())
	assert.Equal(t, "app", NewClient(svc).Database("app").Name())
}
