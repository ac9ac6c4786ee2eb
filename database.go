// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package mongorpc

// Client is the entry point to a remote document store reached through a
// FunctionService. It carries no state of its own; handles derived from it
// share the same service.
type Client struct {
	service FunctionService
}

// NewClient returns a client dispatching through service.
func NewClient(service FunctionService) *Client {
	return &Client{service: service}
}

// Database returns a handle to the named database.
func (c *Client) Database(name string) *Database {
	return &Database{name: name, service: c.service}
}

// Database is a handle to a remote database.
type Database struct {
	name    string
	service FunctionService
}

// Name returns the name of the database.
func (d *Database) Name() string { return d.name }

// Collection returns a handle to the named collection in this database.
func (d *Database) Collection(name string) *Collection {
	return NewCollection(d.service, d.name, name)
}
