package main

import (
	"context"
	"sync"
	"time"

	"github.com/md-rashed-zaman/barberbook/libs/grpcx"
	"google.golang.org/grpc"
)

// grpcProbe checks an upstream's gRPC health service. The connection is
// dialed on first use so the gateway can start before its upstreams.
type grpcProbe struct {
	addr    string
	service string

	mu   sync.Mutex
	conn *grpc.ClientConn
}

func newGRPCProbe(addr, service string) *grpcProbe {
	return &grpcProbe{addr: addr, service: service}
}

func (p *grpcProbe) Check(ctx context.Context) error {
	conn, err := p.connection(ctx)
	if err != nil {
		return err
	}
	return grpcx.HealthCheck(conn, p.service)(ctx)
}

func (p *grpcProbe) connection(ctx context.Context) (*grpc.ClientConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		return p.conn, nil
	}
	conn, err := grpcx.Dial(ctx, p.addr, grpcx.DialOptions{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	p.conn = conn
	return conn, nil
}

func (p *grpcProbe) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}
