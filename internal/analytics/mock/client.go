// Package mock provides a recording analytics client for tests.
package mock

import (
	"sync"

	"github.com/DukeRupert/multitenancy/internal/analytics"
)

// Call is one recorded Capture or Identify.
type Call struct {
	DistinctID string
	Event      string // empty for Identify
	Properties map[string]any
}

// Client records analytics calls instead of sending them.
type Client struct {
	mu         sync.Mutex
	captures   []Call
	identifies []Call
}

func New() *Client {
	return &Client{}
}

func (c *Client) Capture(distinctID, event string, properties map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.captures = append(c.captures, Call{DistinctID: distinctID, Event: event, Properties: properties})
}

func (c *Client) Identify(distinctID string, properties map[string]any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.identifies = append(c.identifies, Call{DistinctID: distinctID, Properties: properties})
}

// Captures returns the recorded Capture calls in order.
func (c *Client) Captures() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.captures...)
}

// Identifies returns the recorded Identify calls in order.
func (c *Client) Identifies() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.identifies...)
}

var _ analytics.Client = (*Client)(nil)
