// Package listener implements the ResponseListener: the TCP endpoint that
// receives indirect results and watch notifications from cloud worker
// functions and forwards them to the EventQueue.
package listener

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ls-2018/faaskeeper-go/internal/queue"
)

// maxMessageSize bounds a single inbound JSON message, per SPEC_FULL.md §6.
const maxMessageSize = 64 * 1024

// acceptTimeout bounds how long Accept blocks before the run loop rechecks
// the stop signal.
const acceptTimeout = 500 * time.Millisecond

// publicAddrURL is the well-known echo endpoint used to discover this
// client's public address, mirroring the original source's use of
// checkip.amazonaws.com.
const publicAddrURL = "https://checkip.amazonaws.com"

// AddressResolver fetches the client's public IP address. Overridable for
// tests so they never make a real network call.
type AddressResolver func(ctx context.Context) (string, error)

// HTTPAddressResolver is the default AddressResolver, backed by a single GET
// to publicAddrURL.
func HTTPAddressResolver(client *http.Client) AddressResolver {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return func(ctx context.Context) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, publicAddrURL, nil)
		if err != nil {
			return "", err
		}
		resp, err := client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, 1024))
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(string(body)), nil
	}
}

// ResponseListener owns a TCP listening socket advertised to cloud workers
// as the rendezvous for indirect results and watch notifications.
type ResponseListener struct {
	log        *zap.Logger
	eventQueue *queue.EventQueue

	ln net.Listener

	address string
	port    int

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Start binds the listener (port 0 meaning an ephemeral port), resolves the
// public address via resolve, and spawns the accept loop in the background.
// It returns once the socket is bound and the address has been resolved.
func Start(ctx context.Context, log *zap.Logger, eq *queue.EventQueue, port int, resolve AddressResolver) (*ResponseListener, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("faaskeeper: response listener bind: %w", err)
	}

	addr, err := resolve(ctx)
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("faaskeeper: resolve public address: %w", err)
	}

	boundPort := ln.Addr().(*net.TCPAddr).Port

	l := &ResponseListener{
		log:        log,
		eventQueue: eq,
		ln:         ln,
		address:    addr,
		port:       boundPort,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}

	go l.run()
	return l, nil
}

// Address returns the public address advertised to workers.
func (l *ResponseListener) Address() string { return l.address }

// Port returns the bound (possibly ephemeral) listening port.
func (l *ResponseListener) Port() int { return l.port }

func (l *ResponseListener) run() {
	defer close(l.done)
	l.log.Info("response listener started", zap.String("address", l.address), zap.Int("port", l.port))

	type acceptResult struct {
		conn net.Conn
		err  error
	}

	for {
		select {
		case <-l.stop:
			l.log.Info("response listener stopping")
			l.ln.Close()
			return
		default:
		}

		if tl, ok := l.ln.(*net.TCPListener); ok {
			_ = tl.SetDeadline(time.Now().Add(acceptTimeout))
		}

		conn, err := l.ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-l.stop:
				return
			default:
				l.log.Warn("response listener accept error", zap.Error(err))
				continue
			}
		}

		l.handle(conn)
	}
}

func (l *ResponseListener) handle(conn net.Conn) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	r := bufio.NewReader(io.LimitReader(conn, maxMessageSize))

	var msg map[string]interface{}
	if err := json.NewDecoder(r).Decode(&msg); err != nil {
		l.log.Warn("response listener dropped malformed message", zap.Error(err))
		return
	}

	l.log.Debug("response listener received message", zap.Any("message", msg))

	var err error
	if _, isWatch := msg["watch-event"]; isWatch {
		err = l.eventQueue.AddWatchNotification(msg)
	} else {
		err = l.eventQueue.AddIndirectResult(msg)
	}
	if err != nil {
		l.log.Warn("response listener could not forward message", zap.Error(err))
	}
}

// Stop signals the accept loop to exit and blocks until it has. The maximum
// stop latency is acceptTimeout plus the duration of one in-flight decode.
func (l *ResponseListener) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
	<-l.done
}
