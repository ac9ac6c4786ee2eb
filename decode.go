// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mongorpc

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
)

// Reply decoders. Each takes the raw reply and the upstream error from the
// RPC channel and produces the operation's typed result. Decoding is only
// attempted when the upstream error is nil and a reply body is present;
// otherwise the upstream error (which may be nil) is relayed with the zero
// result. Decode failures become KindMalformedJSON errors carrying the
// original parse diagnostic; the upstream error is never replaced once set.

func documentsReply(value string, err error) (string, error) {
	if err != nil {
		return "", err
	}
	return value, nil
}

// documentReply maps an empty error-free reply to nil, the explicit
// "no matching document" outcome.
func documentReply(value string, err error) (*string, error) {
	if err != nil || value == "" {
		return nil, err
	}
	return &value, nil
}

// unwrapNumber reads an extended JSON numeric wrapper such as
// {"$numberInt": "3"} at the given path and parses its string payload.
func unwrapNumber(v *fastjson.Value, path ...string) (uint64, error) {
	s := v.GetStringBytes(path...)
	if s == nil {
		return 0, errors.Errorf("missing field %q", strings.Join(path, "."))
	}
	n, err := strconv.ParseUint(string(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func countReply(value string, err error) (uint64, error) {
	if err != nil || value == "" {
		return 0, err
	}
	v, perr := fastjson.Parse(value)
	if perr != nil {
		return 0, newMalformedJSON(perr, "parsing count reply")
	}
	n, nerr := unwrapNumber(v, "$numberLong")
	if nerr != nil {
		return 0, newMalformedJSON(nerr, "decoding count reply")
	}
	return n, nil
}

func deleteReply(value string, err error) (DeleteResult, error) {
	if err != nil || value == "" {
		return DeleteResult{}, err
	}
	v, perr := fastjson.Parse(value)
	if perr != nil {
		return DeleteResult{}, newMalformedJSON(perr, "parsing delete reply")
	}
	n, nerr := unwrapNumber(v, "deletedCount", "$numberInt")
	if nerr != nil {
		return DeleteResult{}, newMalformedJSON(nerr, "decoding delete reply")
	}
	return DeleteResult{DeletedCount: n}, nil
}

func updateReply(value string, err error) (UpdateResult, error) {
	if err != nil || value == "" {
		return UpdateResult{}, err
	}
	v, perr := fastjson.Parse(value)
	if perr != nil {
		return UpdateResult{}, newMalformedJSON(perr, "parsing update reply")
	}
	matched, merr := unwrapNumber(v, "matchedCount", "$numberInt")
	if merr != nil {
		return UpdateResult{}, newMalformedJSON(merr, "decoding update reply")
	}
	modified, merr := unwrapNumber(v, "modifiedCount", "$numberInt")
	if merr != nil {
		return UpdateResult{}, newMalformedJSON(merr, "decoding update reply")
	}
	result := UpdateResult{
		MatchedCount:  matched,
		ModifiedCount: modified,
	}
	// upsertedId is only present when an upsert occurred; its absence is
	// not an error.
	if v.Exists("upsertedId") {
		oid := v.GetStringBytes("upsertedId", "$oid")
		if oid == nil {
			return UpdateResult{}, newMalformedJSON(errors.New(`missing field "upsertedId.$oid"`), "decoding update reply")
		}
		result.UpsertedID = string(oid)
	}
	return result, nil
}

func insertOneReply(value string, err error) (InsertOneResult, error) {
	if err != nil || value == "" {
		return InsertOneResult{}, err
	}
	v, perr := fastjson.Parse(value)
	if perr != nil {
		return InsertOneResult{}, newMalformedJSON(perr, "parsing insert reply")
	}
	oid := v.GetStringBytes("insertedId", "$oid")
	if oid == nil {
		return InsertOneResult{}, newMalformedJSON(errors.New(`missing field "insertedId.$oid"`), "decoding insert reply")
	}
	return InsertOneResult{InsertedID: string(oid)}, nil
}

func insertManyReply(value string, err error) (InsertManyResult, error) {
	if err != nil || value == "" {
		return InsertManyResult{}, err
	}
	v, perr := fastjson.Parse(value)
	if perr != nil {
		return InsertManyResult{}, newMalformedJSON(perr, "parsing insert reply")
	}
	// GetArray cannot tell an empty array from a missing field, and an
	// empty batch is a valid reply.
	idsValue := v.Get("insertedIds")
	if idsValue == nil {
		return InsertManyResult{}, newMalformedJSON(errors.New(`missing field "insertedIds"`), "decoding insert reply")
	}
	ids, aerr := idsValue.Array()
	if aerr != nil {
		return InsertManyResult{}, newMalformedJSON(aerr, "decoding insert reply")
	}
	inserted := make(map[uint64]string, len(ids))
	for i, id := range ids {
		oid := id.GetStringBytes("$oid")
		if oid == nil {
			return InsertManyResult{}, newMalformedJSON(errors.Errorf(`missing field "insertedIds[%d].$oid"`, i), "decoding insert reply")
		}
		inserted[uint64(i)] = string(oid)
	}
	return InsertManyResult{InsertedIDs: inserted}, nil
}
