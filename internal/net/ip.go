package net

import (
	"log/slog"
	"net"
)

// LocalIP is the IPv4 address put in share links and mDNS records. It
// prefers the source address of the default route, then any up
// non-loopback interface, then loopback.
func LocalIP() net.IP {
	if ip := routeIP(); ip != nil {
		return ip
	}
	if ip := pickIPv4(interfaceAddrs()); ip != nil {
		return ip
	}
	slog.Warn("no usable local address, share links will use loopback")
	return net.IPv4(127, 0, 0, 1).To4()
}

// routeIP asks the kernel which address would reach a public host. Dialing
// UDP sends nothing.
func routeIP() net.IP {
	conn, err := net.Dial("udp4", "8.8.8.8:80")
	if err != nil {
		return nil
	}
	defer conn.Close()
	if a, ok := conn.LocalAddr().(*net.UDPAddr); ok && !a.IP.IsUnspecified() {
		return a.IP.To4()
	}
	return nil
}

func interfaceAddrs() []net.Addr {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil
	}
	var addrs []net.Addr
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if a, err := iface.Addrs(); err == nil {
			addrs = append(addrs, a...)
		}
	}
	return addrs
}

// pickIPv4 returns the first non-loopback IPv4 address in addrs.
func pickIPv4(addrs []net.Addr) net.IP {
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.IsLoopback() {
			continue
		}
		if ip := ipnet.IP.To4(); ip != nil {
			return ip
		}
	}
	return nil
}
