// Package protocol defines the pagectl wire contract: one JSON document per
// line, one request and one response per connection. Requests carry a
// correlation id that the response echoes back verbatim.
package protocol
