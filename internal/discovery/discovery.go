// Package discovery finds SQL Server instances on the local network through the SQL Server Browser service.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"time"
)

// BroadcastAddr is where SQL Server Browser listens.
const BroadcastAddr = "255.255.255.255:1434"

// Browser protocol bytes.
const (
	clntBcastEx = 0x02
	svrResp     = 0x05
)

const defaultInstance = "MSSQLSERVER"

type Discoverer struct {
	Addr string
}

// Discover broadcasts with the default address.
func Discover(ctx context.Context, timeout time.Duration) ([]string, error) {
	return Discoverer{Addr: BroadcastAddr}.Discover(ctx, timeout)
}

// Discover sends one browser request and collects replies until timeout or ctx ends.
// Each instance is reported as IP\INSTANCE, or the bare IP for the default instance.
func (d Discoverer) Discover(ctx context.Context, timeout time.Duration) ([]string, error) {
	raddr, err := net.ResolveUDPAddr("udp4", d.Addr)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", d.Addr, err)
	}

	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, fmt.Errorf("open udp socket: %w", err)
	}
	defer conn.Close()

	if _, err := conn.WriteToUDP([]byte{clntBcastEx}, raddr); err != nil {
		return nil, fmt.Errorf("send browser request: %w", err)
	}

	deadline := time.Now().Add(timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var found []string
	buf := make([]byte, 65535)
	for {
		if ctx.Err() != nil {
			break
		}
		n, addr, err := conn.ReadFromUDP(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				break
			}
			return found, fmt.Errorf("read browser reply: %w", err)
		}
		for _, name := range ParseResponse(addr.IP.String(), buf[:n]) {
			if !seen[name] {
				seen[name] = true
				found = append(found, name)
			}
		}
	}

	sort.Strings(found)
	return found, nil
}

// ParseResponse decodes one browser reply. A reply may describe several instances,
// each a "key;value;..." list terminated by ";;".
func ParseResponse(ip string, data []byte) []string {
	if len(data) >= 3 && data[0] == svrResp {
		data = data[3:]
	}

	var out []string
	for _, block := range strings.Split(string(data), ";;") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		fields := strings.Split(block, ";")
		values := map[string]string{}
		for i := 0; i+1 < len(fields); i += 2 {
			values[fields[i]] = fields[i+1]
		}
		instance := strings.TrimSpace(values["InstanceName"])
		if instance != "" && !strings.EqualFold(instance, defaultInstance) {
			out = append(out, ip+`\`+instance)
		} else {
			out = append(out, ip)
		}
	}
	return out
}
