// Package network connects ipconfig aggregates to the kernel via netlink.
//
// # Overview
//
// [Platform] implements ipconfig.Platform. It snapshots the addresses and
// routes of one interface and reconciles them back, converting between
// netlink records and netobj values.
//
// # Netlinkers
//
// All kernel access goes through the [Netlinker] interface:
//   - [RealNetlinker]: the netlink package, optionally bound to a named
//     network namespace ([NewNetlinkerAt])
//   - [DryRunNetlinker]: reads from a base Netlinker, records writes as
//     ip(8) commands
//   - [MockNetlinker]: testify mock for unit tests
//
// # Example
//
//	nl, err := network.NewNetlinkerAt("blue")
//	if err != nil {
//	    return err
//	}
//	defer nl.Close()
//
//	plat := network.NewPlatform(nl, clock.Default)
//	cfg, err := ipconfig.Capture(idx, plat, ifindex, ipconfig.CaptureOptions{})
package network
