// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package mongorpc is a client-side translation layer exposing a
// document-collection CRUD API over a generic function-invocation RPC
// channel. The remote side understands one primitive: invoke a named
// function with a JSON argument document and return a JSON reply or an
// error. Replies use MongoDB-flavored extended JSON, with scalars wrapped as
// {"$numberInt": "..."}, {"$oid": "..."} and so on.
//
// # Usage
//
//	service, err := mongorpc.NewHTTPService("https://api.example.com/functions/call",
//	    mongorpc.WithHeader("Authorization", "Bearer "+token),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	coll := mongorpc.NewClient(service).Database("app").Collection("tasks")
//
//	coll.Find(ctx, `{"done": false}`, func(docs string, err error) {
//	    // docs is a JSON array string of matching documents
//	}, (&mongorpc.FindOptions{}).SetLimit(10))
//
//	coll.UpdateOne(ctx, `{"_id": {"$oid": "..."}}`, `{"$set": {"done": true}}`,
//	    func(result mongorpc.UpdateResult, err error) {
//	        // result.MatchedCount, result.ModifiedCount
//	    })
//
// Every operation is asynchronous: it invokes the supplied callback exactly
// once with either a typed result or an error. Malformed caller JSON is
// reported before any RPC is issued; malformed replies and upstream service
// failures are distinguished by error kind (IsMalformedJSON, IsServiceError).
//
// # Architecture
//
// The package separates concerns:
//
//   - collection.go: the operation facade (Find, InsertOne, UpdateMany, ...)
//   - arguments.go: canonical argument-document construction
//   - decode.go: extended-JSON reply decoding
//   - errors.go: the service/malformed-json error taxonomy
//   - service.go: the FunctionService channel boundary
//   - http.go: JSON-RPC over HTTP transport (default)
//   - socket.go: framed TCP transport
//   - grpc.go: gRPC transport (requires -tags grpc)
//
// Application code depends only on FunctionService, making transport
// selection a deployment decision rather than a code change. The marshalling
// layer performs no retries, caching or validation of document semantics;
// those belong to the transport and the remote service.
package mongorpc
