// Package config handles HCL configuration parsing, validation, and management.
//
// # Overview
//
// The daemon reads one HCL file holding global settings and any number of
// connection profiles. A profile carries the static IP configuration for
// one address family of one interface; it is merged onto the live
// configuration captured from the kernel before committing.
//
// # Key Types
//
//   - [Config]: global settings and connections
//   - [Connection]: an interface with optional ipv4 and ipv6 profiles
//   - [IPProfile]: static addresses, routes, gateway and DNS settings
//   - [ConfigFile]: round-trip editing that preserves comments
//
// # Example
//
//	default_route_metric = 100
//	capture_resolv_conf  = true
//
//	connection "uplink" {
//	    interface = "eth0"
//
//	    ipv4 {
//	        method  = "manual"
//	        gateway = "192.0.2.1"
//	        dns     = ["192.0.2.53"]
//
//	        address "192.0.2.10/24" {
//	            label = "eth0:srv"
//	        }
//
//	        route "198.51.100.0/24" {
//	            next_hop   = "192.0.2.254"
//	            metric     = 50
//	            attributes = { mtu = 1400, lock_mtu = true }
//	        }
//	    }
//	}
package config
