// Package ipconfig implements the per-interface IP configuration aggregate.
//
// # Overview
//
// A [Config] bundles the addresses and routes of one interface and one
// address family together with gateway, route metric, DNS and ancillary
// settings. Addresses and routes live in partitions of a shared [Index], so
// every Config of a family deduplicates against the same store and merge
// precedence (see [dedup.Policy]) is applied whenever an object with an
// existing identity is added.
//
// # Lifecycle
//
// A Config is created empty with [New] or from kernel state with [Capture],
// mutated with the Add/Set/Reset accessors, [Config.MergeSetting] and the
// set algebra ([Config.Merge], [Config.Subtract], [Config.Intersect],
// [Config.Replace]), pushed back with [Config.Commit] and finally released
// with [Config.Release], which purges its partitions from the index.
//
// # Notifications
//
// Mutations accumulate a pending [ChangeSet]. Each exported operation
// flushes it once when it returns, so a multi-step operation such as Merge
// results in one notification per changed field group.
//
// The package is not safe for concurrent use.
package ipconfig
