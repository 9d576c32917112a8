package netobj

import (
	"fmt"
	"strings"
)

// Source is the provenance rank of a network object. Higher values win when
// two sources describe the same object.
type Source int

const (
	SourceUnknown Source = iota
	SourceRTProtUnspec
	SourceRTProtRedirect
	SourceRTProtKernel
	SourceRTProtBoot
	SourceRTProtStatic
	SourceRTProtRA
	SourceRTProtDHCP
	SourceKernel
	SourceShared
	SourceIP4LL
	SourcePPP
	SourceWWAN
	SourceVPN
	SourceDHCP
	SourceNDisc
	SourceUser
)

var sourceNames = map[Source]string{
	SourceUnknown:        "unknown",
	SourceRTProtUnspec:   "rtprot-unspec",
	SourceRTProtRedirect: "rtprot-redirect",
	SourceRTProtKernel:   "rtprot-kernel",
	SourceRTProtBoot:     "rtprot-boot",
	SourceRTProtStatic:   "rtprot-static",
	SourceRTProtRA:       "rtprot-ra",
	SourceRTProtDHCP:     "rtprot-dhcp",
	SourceKernel:         "kernel",
	SourceShared:         "shared",
	SourceIP4LL:          "ip4ll",
	SourcePPP:            "ppp",
	SourceWWAN:           "wwan",
	SourceVPN:            "vpn",
	SourceDHCP:           "dhcp",
	SourceNDisc:          "ndisc",
	SourceUser:           "user",
}

func (s Source) String() string {
	if n, ok := sourceNames[s]; ok {
		return n
	}
	return fmt.Sprintf("source(%d)", int(s))
}

// ParseSource parses the name produced by Source.String.
func ParseSource(name string) (Source, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range sourceNames {
		if n == name {
			return s, nil
		}
	}
	return SourceUnknown, fmt.Errorf("unknown source %q", name)
}

// Kernel route protocol numbers (rtm_protocol).
const (
	RTProtUnspec   = 0
	RTProtRedirect = 1
	RTProtKernel   = 2
	RTProtBoot     = 3
	RTProtStatic   = 4
	RTProtRA       = 9
	RTProtDHCP     = 16
)

// SourceFromRTProt maps a kernel route protocol to a source rank. Protocols
// without a dedicated rank map to SourceRTProtUnspec.
func SourceFromRTProt(proto int) Source {
	switch proto {
	case RTProtRedirect:
		return SourceRTProtRedirect
	case RTProtKernel:
		return SourceRTProtKernel
	case RTProtBoot:
		return SourceRTProtBoot
	case RTProtStatic:
		return SourceRTProtStatic
	case RTProtRA:
		return SourceRTProtRA
	case RTProtDHCP:
		return SourceRTProtDHCP
	default:
		return SourceRTProtUnspec
	}
}

// RTProt returns the kernel route protocol used when installing a route of
// this source.
func (s Source) RTProt() int {
	switch s {
	case SourceRTProtUnspec, SourceUnknown:
		return RTProtUnspec
	case SourceRTProtRedirect:
		return RTProtRedirect
	case SourceRTProtKernel, SourceKernel:
		return RTProtKernel
	case SourceRTProtBoot:
		return RTProtBoot
	case SourceRTProtRA, SourceNDisc:
		return RTProtRA
	case SourceRTProtDHCP, SourceDHCP:
		return RTProtDHCP
	default:
		return RTProtStatic
	}
}
