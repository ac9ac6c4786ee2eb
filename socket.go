// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mongorpc

import (
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
)

var (
	ErrSocketClosed      = errors.New("socket: connection closed")
	ErrSocketInvalidResp = errors.New("socket: invalid response")
)

// frameType identifies socket protocol frames.
type frameType uint8

const (
	frameInvoke frameType = 0x01 // function invocation
	frameResult frameType = 0x02 // reply carrying a result document
	frameError  frameType = 0x03 // reply carrying an error message
	frameEmpty  frameType = 0x04 // reply carrying no value
)

// 64MB cap on a single frame.
const maxFrameLen = 64 * 1024 * 1024

// SocketService invokes remote functions over a single framed TCP
// connection. Invocation frames carry the function name and the argument
// document:
//
//	[4 len][1 type][4 reqID][2 nameLen][name][argsJSON]
//
// Replies carry the request id and either a result document, an error
// message, or nothing (frameEmpty, the void reply). Concurrent invocations
// multiplex over the one connection through the pending-call map.
type SocketService struct {
	conn     net.Conn
	writeMu  sync.Mutex
	pending  sync.Map // requestID -> chan socketReply
	nextID   atomic.Uint32
	closed   atomic.Bool
	readDone chan struct{}
}

type socketReply struct {
	value string
	err   error
}

// DialSocket connects to a socket function server.
func DialSocket(ctx context.Context, addr string) (*SocketService, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "socket dial")
	}

	s := &SocketService{
		conn:     conn,
		readDone: make(chan struct{}),
	}
	go s.readLoop()
	return s, nil
}

// CallFunction implements FunctionService. The callback runs on its own
// goroutine once the reply frame arrives or the connection fails.
func (s *SocketService) CallFunction(ctx context.Context, name string, argumentsJSON string, complete CallFunctionCallback) {
	go func() {
		complete(s.call(ctx, name, argumentsJSON))
	}()
}

func (s *SocketService) call(ctx context.Context, name, argumentsJSON string) (string, error) {
	if s.closed.Load() {
		return "", newServiceError(ErrSocketClosed.Error())
	}

	requestID := s.nextID.Add(1)
	replyCh := make(chan socketReply, 1)
	s.pending.Store(requestID, replyCh)
	defer s.pending.Delete(requestID)

	nameBytes := []byte(name)
	payload := []byte(argumentsJSON)
	msgLen := 1 + 4 + 2 + len(nameBytes) + len(payload)

	buf := make([]byte, 4+msgLen)
	binary.BigEndian.PutUint32(buf[0:4], uint32(msgLen))
	buf[4] = byte(frameInvoke)
	binary.BigEndian.PutUint32(buf[5:9], requestID)
	binary.BigEndian.PutUint16(buf[9:11], uint16(len(nameBytes)))
	copy(buf[11:], nameBytes)
	copy(buf[11+len(nameBytes):], payload)

	s.writeMu.Lock()
	_, err := s.conn.Write(buf)
	s.writeMu.Unlock()
	if err != nil {
		return "", newServiceError(errors.Wrap(err, "socket write").Error())
	}

	select {
	case <-ctx.Done():
		return "", newServiceError(ctx.Err().Error())
	case reply := <-replyCh:
		return reply.value, reply.err
	case <-s.readDone:
		return "", newServiceError(ErrSocketClosed.Error())
	}
}

func (s *SocketService) readLoop() {
	defer close(s.readDone)

	header := make([]byte, 4)
	for {
		if _, err := io.ReadFull(s.conn, header); err != nil {
			return
		}

		msgLen := binary.BigEndian.Uint32(header)
		if msgLen == 0 || msgLen > maxFrameLen {
			return
		}

		msg := make([]byte, msgLen)
		if _, err := io.ReadFull(s.conn, msg); err != nil {
			return
		}

		if len(msg) < 5 {
			continue
		}

		typ := frameType(msg[0])
		requestID := binary.BigEndian.Uint32(msg[1:5])
		payload := msg[5:]

		ch, ok := s.pending.Load(requestID)
		if !ok {
			continue
		}
		replyCh := ch.(chan socketReply)
		switch typ {
		case frameResult:
			replyCh <- socketReply{value: string(payload)}
		case frameEmpty:
			replyCh <- socketReply{}
		case frameError:
			replyCh <- socketReply{err: newServiceError(string(payload))}
		default:
			replyCh <- socketReply{err: newServiceError(ErrSocketInvalidResp.Error())}
		}
	}
}

// Close closes the connection. In-flight calls complete with a closed error.
func (s *SocketService) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.conn.Close()
}

// FunctionHandler serves one function invocation on a SocketServer.
// Returning ok=false with a nil error produces an empty reply, the void
// outcome.
type FunctionHandler func(ctx context.Context, name string, argumentsJSON string) (result string, ok bool, err error)

// SocketServer accepts framed function invocations. Its primary role is as
// the loopback peer in tests and local tooling.
type SocketServer struct {
	listener net.Listener
	handler  FunctionHandler
	conns    sync.Map
	closed   atomic.Bool
}

// ListenSocket starts a socket function server on addr.
func ListenSocket(addr string, handler FunctionHandler) (*SocketServer, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(err, "socket listen")
	}
	return &SocketServer{
		listener: listener,
		handler:  handler,
	}, nil
}

// Serve accepts connections until the server is closed.
func (s *SocketServer) Serve(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closed.Load() {
				return nil
			}
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *SocketServer) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	s.conns.Store(conn, struct{}{})
	defer s.conns.Delete(conn)

	// Handler goroutines share the connection, so reply writes are
	// serialized.
	var writeMu sync.Mutex

	header := make([]byte, 4)
	for {
		if _, err := io.ReadFull(conn, header); err != nil {
			return
		}

		msgLen := binary.BigEndian.Uint32(header)
		if msgLen == 0 || msgLen > maxFrameLen {
			return
		}

		msg := make([]byte, msgLen)
		if _, err := io.ReadFull(conn, msg); err != nil {
			return
		}

		// Minimum invoke frame: type, request id and name length with an
		// empty name and no arguments.
		if len(msg) < 7 || frameType(msg[0]) != frameInvoke {
			grip.Debug(message.Fields{
				"message": "dropping malformed frame",
				"length":  len(msg),
			})
			continue
		}

		requestID := binary.BigEndian.Uint32(msg[1:5])
		nameLen := binary.BigEndian.Uint16(msg[5:7])
		if len(msg) < 7+int(nameLen) {
			continue
		}
		name := string(msg[7 : 7+nameLen])
		argumentsJSON := string(msg[7+nameLen:])

		go func() {
			result, ok, err := s.handler(ctx, name, argumentsJSON)
			writeMu.Lock()
			defer writeMu.Unlock()
			sendReply(conn, requestID, result, ok, err)
		}()
	}
}

func sendReply(conn net.Conn, requestID uint32, result string, ok bool, err error) {
	var typ frameType
	var payload []byte
	switch {
	case err != nil:
		typ = frameError
		payload = []byte(err.Error())
	case !ok:
		typ = frameEmpty
	default:
		typ = frameResult
		payload = []byte(result)
	}

	msgLen := 1 + 4 + len(payload)
	buf := make([]byte, 4+msgLen)
	binary.BigEndian.PutUint32(buf[0:4], uint32(msgLen))
	buf[4] = byte(typ)
	binary.BigEndian.PutUint32(buf[5:9], requestID)
	copy(buf[9:], payload)

	_ = conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
	_, _ = conn.Write(buf)
}

// Close stops the server and closes every open connection.
func (s *SocketServer) Close() error {
	s.closed.Store(true)
	s.conns.Range(func(key, _ interface{}) bool {
		_ = key.(net.Conn).Close()
		return true
	})
	return s.listener.Close()
}

// Addr returns the listener address.
func (s *SocketServer) Addr() string {
	return s.listener.Addr().String()
}
