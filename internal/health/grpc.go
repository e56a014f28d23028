package health

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/confocus/confocus/internal/bridge"
)

// GRPCProber probes bridges through the standard gRPC health service, for
// deployments where bridges expose it directly. Connections are dialed
// lazily per bridge and reused across probes.
type GRPCProber struct {
	port    int
	timeout time.Duration

	mu    sync.Mutex
	conns map[bridge.Address]*grpc.ClientConn
}

// NewGRPCProber creates a prober that checks each bridge on port.
// timeout bounds one Check call.
func NewGRPCProber(port int, timeout time.Duration) *GRPCProber {
	return &GRPCProber{
		port:    port,
		timeout: timeout,
		conns:   make(map[bridge.Address]*grpc.ClientConn),
	}
}

// Connected always reports true: there is no shared session, each probe
// dials its bridge directly.
func (p *GRPCProber) Connected() bool { return true }

// Probe issues one health Check against addr and classifies the outcome.
// Internal and Unavailable statuses are bridge-side malfunctions;
// DeadlineExceeded is a timeout; any other error is indeterminate.
func (p *GRPCProber) Probe(ctx context.Context, addr bridge.Address) (Result, error) {
	conn, err := p.conn(addr)
	if err != nil {
		return ResultIndeterminate, err
	}

	checkCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := healthpb.NewHealthClient(conn).Check(checkCtx, &healthpb.HealthCheckRequest{})
	if err != nil {
		switch status.Code(err) {
		case codes.DeadlineExceeded:
			return ResultTimedOut, err
		case codes.Internal, codes.Unavailable:
			return ResultFailed, err
		}
		return ResultIndeterminate, err
	}

	if resp.Status != healthpb.HealthCheckResponse_SERVING {
		return ResultFailed, fmt.Errorf("health: bridge reports status %s", resp.Status)
	}
	return ResultPassed, nil
}

// Close releases every cached connection.
func (p *GRPCProber) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for addr, conn := range p.conns {
		conn.Close() //nolint:errcheck
		delete(p.conns, addr)
	}
}

func (p *GRPCProber) conn(addr bridge.Address) (*grpc.ClientConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.conns[addr]; ok {
		return conn, nil
	}

	// The resource part of the address names the host; fall back to the
	// bare address for resource-less names.
	host := addr.Resource()
	if host == "" {
		host = addr.Bare()
	}
	target := net.JoinHostPort(host, strconv.Itoa(p.port))

	conn, err := grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("health: dial %s: %w", target, err)
	}
	p.conns[addr] = conn
	return conn, nil
}
