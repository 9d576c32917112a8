// Package autoconf turns autoconfiguration results into ipconfig
// aggregates.
//
// Each importer creates a fresh Config in the given Index whose objects
// carry the source of the protocol they came from:
//   - [FromDHCPv4]: a DHCPv4 ACK (SourceDHCP)
//   - [FromRouterAdvertisement]: an IPv6 router advertisement (SourceNDisc)
//   - [FromWireGuard]: the peers of a WireGuard device (SourceVPN)
//
// The result is meant to be merged into an interface's configuration with
// (*ipconfig.Config).Merge and released afterwards.
package autoconf
