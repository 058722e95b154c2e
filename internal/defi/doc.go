// Package defi contains the DeFi automation agent. It keeps deployed yield
// strategies in memory, simulates swaps, staking and portfolio optimisation
// with fixed figures, and tracks the cumulative simulated yield. None of its
// operations touch a chain and none of them fail.
package defi
