// Package api exposes the DeFi agent, the contract integration and the
// activity journal over a JSON REST interface.
package api
