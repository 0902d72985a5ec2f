package broadcast

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/lennyclaes/wake-on-lan/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type write struct {
	payload []byte
	addr    string
}

// Mock implementations.
type mockSocket struct {
	mu        sync.Mutex
	writes    []write
	closed    bool
	writeFunc func(b []byte, addr net.Addr) (int, error)
}

func (m *mockSocket) WriteTo(b []byte, addr net.Addr) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeFunc != nil {
		if n, err := m.writeFunc(b, addr); err != nil || n != len(b) {
			return n, err
		}
	}
	m.writes = append(m.writes, write{payload: append([]byte(nil), b...), addr: addr.String()})
	return len(b), nil
}

func (m *mockSocket) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

type mockSocketFactory struct {
	openFunc func(ctx context.Context) (Socket, error)
	opened   int
}

func (m *mockSocketFactory) Open(ctx context.Context) (Socket, error) {
	m.opened++
	return m.openFunc(ctx)
}

func factoryFor(sock *mockSocket) *mockSocketFactory {
	return &mockSocketFactory{
		openFunc: func(ctx context.Context) (Socket, error) {
			return sock, nil
		},
	}
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testPacket() []byte {
	return bytes.Repeat([]byte{0xFF}, 102)
}

func TestBroadcast_SendsRetriesTimes(t *testing.T) {
	sock := &mockSocket{}
	interval := 20 * time.Millisecond
	svc := NewWithSocketFactory(testLogger(), factoryFor(sock), interval)

	result := svc.Broadcast(context.Background(), testPacket(), models.Target{Address: "192.168.1.255", Port: 9}, 3)

	require.NoError(t, result.Error)
	assert.True(t, result.Sent)
	assert.Equal(t, 3, result.Attempts)
	assert.True(t, sock.closed)

	require.Len(t, sock.writes, 3)
	for _, w := range sock.writes {
		assert.Equal(t, "192.168.1.255:9", w.addr)
		assert.Equal(t, testPacket(), w.payload)
	}
	// First send waits one interval, so three sends span at least three.
	assert.GreaterOrEqual(t, result.Duration, 3*interval)
}

func TestBroadcast_DefaultsRetriesAndPort(t *testing.T) {
	sock := &mockSocket{}
	svc := NewWithSocketFactory(testLogger(), factoryFor(sock), time.Millisecond)

	result := svc.Broadcast(context.Background(), testPacket(), models.Target{Address: "10.0.0.255"}, 0)

	require.NoError(t, result.Error)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 9, result.Target.Port)
	require.Len(t, sock.writes, 1)
	assert.Equal(t, "10.0.0.255:9", sock.writes[0].addr)
}

func TestBroadcast_InvalidAddress(t *testing.T) {
	factory := factoryFor(&mockSocket{})
	svc := NewWithSocketFactory(testLogger(), factory, time.Millisecond)

	for _, addr := range []string{"", "not-an-ip", "ff02::1"} {
		result := svc.Broadcast(context.Background(), testPacket(), models.Target{Address: addr, Port: 9}, 1)

		assert.ErrorIs(t, result.Error, ErrInvalidBroadcastAddress)
		assert.False(t, result.Sent)
	}
	assert.Equal(t, 0, factory.opened)
}

func TestBroadcast_SocketSetupFailed(t *testing.T) {
	factory := &mockSocketFactory{
		openFunc: func(ctx context.Context) (Socket, error) {
			return nil, errors.New("permission denied")
		},
	}
	svc := NewWithSocketFactory(testLogger(), factory, time.Millisecond)

	result := svc.Broadcast(context.Background(), testPacket(), models.Target{Address: "192.168.1.255", Port: 9}, 3)

	var setupErr *SocketSetupError
	require.ErrorAs(t, result.Error, &setupErr)
	assert.Equal(t, "192.168.1.255", setupErr.Address)
	assert.Contains(t, result.Error.Error(), "permission denied")
	assert.Equal(t, 0, result.Attempts)
	assert.False(t, result.Sent)
}

func TestBroadcast_SendFailedStopsSession(t *testing.T) {
	calls := 0
	sock := &mockSocket{
		writeFunc: func(b []byte, addr net.Addr) (int, error) {
			calls++
			if calls == 2 {
				return 0, errors.New("network unreachable")
			}
			return len(b), nil
		},
	}
	svc := NewWithSocketFactory(testLogger(), factoryFor(sock), time.Millisecond)

	result := svc.Broadcast(context.Background(), testPacket(), models.Target{Address: "192.168.1.255", Port: 9}, 5)

	var sendErr *SendError
	require.ErrorAs(t, result.Error, &sendErr)
	assert.Equal(t, "192.168.1.255", sendErr.Address)
	assert.Equal(t, 2, sendErr.Attempt)
	assert.Contains(t, result.Error.Error(), "192.168.1.255")
	assert.Contains(t, result.Error.Error(), "network unreachable")
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, 2, calls)
	assert.False(t, result.Sent)
	assert.True(t, sock.closed)
}

func TestBroadcast_ShortWrite(t *testing.T) {
	sock := &mockSocket{
		writeFunc: func(b []byte, addr net.Addr) (int, error) {
			return 10, nil
		},
	}
	svc := NewWithSocketFactory(testLogger(), factoryFor(sock), time.Millisecond)

	result := svc.Broadcast(context.Background(), testPacket(), models.Target{Address: "192.168.1.255", Port: 9}, 1)

	var sendErr *SendError
	require.ErrorAs(t, result.Error, &sendErr)
	assert.Contains(t, result.Error.Error(), "short write")
	assert.Equal(t, 0, result.Attempts)
}

func TestBroadcast_ContextCancelled(t *testing.T) {
	sock := &mockSocket{}
	svc := NewWithSocketFactory(testLogger(), factoryFor(sock), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	result := svc.Broadcast(ctx, testPacket(), models.Target{Address: "192.168.1.255", Port: 9}, 3)

	assert.Equal(t, context.Canceled, result.Error)
	assert.Equal(t, 0, result.Attempts)
	assert.True(t, sock.closed)
}

func TestBroadcast_Loopback(t *testing.T) {
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	port := conn.LocalAddr().(*net.UDPAddr).Port

	svc := New(testLogger(), time.Millisecond)
	result := svc.Broadcast(context.Background(), testPacket(), models.Target{Address: "127.0.0.1", Port: port}, 2)
	require.NoError(t, result.Error)

	buf := make([]byte, 512)
	for i := 0; i < 2; i++ {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		n, _, err := conn.ReadFrom(buf)
		require.NoError(t, err)
		assert.Equal(t, testPacket(), buf[:n])
	}
}
