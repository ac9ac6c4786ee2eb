//go:build grpc

// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mongorpc

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// functionCallMethod is the full gRPC method name the remote service exposes
// for generic function invocation.
const functionCallMethod = "/mongorpc.Functions/Call"

// GRPCService invokes remote functions over a gRPC connection, encoding the
// call as plain JSON so the function endpoint stays schema-free.
// Built with -tags grpc.
type GRPCService struct {
	conn *grpc.ClientConn
}

// DialGRPC connects to a gRPC function server.
func DialGRPC(ctx context.Context, addr string) (*GRPCService, error) {
	conn, err := grpc.DialContext(ctx, addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, errors.Wrap(err, "grpc dial")
	}
	return &GRPCService{conn: conn}, nil
}

type functionCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type functionReply struct {
	Result json.RawMessage `json:"result,omitempty"`
}

// rawJSONCodec replaces protobuf marshalling with encoding/json.
type rawJSONCodec struct{}

func (rawJSONCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (rawJSONCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (rawJSONCodec) Name() string {
	return "json"
}

// CallFunction implements FunctionService.
func (s *GRPCService) CallFunction(ctx context.Context, name string, argumentsJSON string, complete CallFunctionCallback) {
	go func() {
		call := &functionCall{
			Name:      name,
			Arguments: json.RawMessage(argumentsJSON),
		}
		var reply functionReply
		err := s.conn.Invoke(ctx, functionCallMethod, call, &reply, grpc.ForceCodec(rawJSONCodec{}))
		if err != nil {
			complete("", newServiceError(err.Error()))
			return
		}
		if len(reply.Result) == 0 || string(reply.Result) == "null" {
			complete("", nil)
			return
		}
		complete(string(reply.Result), nil)
	}()
}

// Close closes the connection.
func (s *GRPCService) Close() error {
	return s.conn.Close()
}
