// Package contracts simulates smart contract deployment and interaction on
// the supported EVM networks. Deployments are kept in memory with synthesized
// placeholder addresses; calls and event queries return fixed results.
package contracts
