package proxyprotocol

import (
	"net"

	proxyproto "github.com/pires/go-proxyproto"
)

// NewProxyAddr returns the address described by a PROXY protocol header.
func NewProxyAddr(proto proxyproto.AddressFamilyAndProtocol, ip net.IP, port uint16) net.Addr {
	switch network(proto) {
	case "unix", "unixgram":
		return &net.UnixAddr{
			Net:  network(proto),
			Name: ip.String(),
		}
	case "udp4", "udp6":
		return &net.UDPAddr{
			IP:   ip,
			Port: int(port),
		}
	default:
		return &net.TCPAddr{
			IP:   ip,
			Port: int(port),
		}
	}
}

func network(afp proxyproto.AddressFamilyAndProtocol) string {
	switch {
	case afp.IsIPv4() && afp.IsStream():
		return "tcp4"
	case afp.IsIPv4():
		return "udp4"
	case afp.IsIPv6() && afp.IsStream():
		return "tcp6"
	case afp.IsIPv6():
		return "udp6"
	case afp.IsUnix() && afp.IsStream():
		return "unix"
	case afp.IsUnix():
		return "unixgram"
	default:
		return "unspec"
	}
}
