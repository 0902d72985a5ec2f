//go:build e2e

package e2e

import (
	"context"
	"io"
	"net"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/lennyclaes/wake-on-lan/internal/models"
	"github.com/lennyclaes/wake-on-lan/internal/services/listener"
	"github.com/lennyclaes/wake-on-lan/internal/services/wol"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestWOL_LoopbackRoundTrip_E2E(t *testing.T) {
	conn, err := net.ListenPacket("udp4", "127.0.0.1:0")
	require.NoError(t, err)
	port := conn.LocalAddr().(*net.UDPAddr).Port

	lst := listener.NewWithListenFunc(testLogger(), func(ctx context.Context, address string) (net.PacketConn, error) {
		return conn, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var received []models.ReceivedPacket
	listenDone := make(chan error, 1)
	go func() {
		listenDone <- lst.Listen(ctx, models.ListenConfig{}, func(p models.ReceivedPacket) {
			mu.Lock()
			received = append(received, p)
			mu.Unlock()
		})
	}()

	svc := wol.New(testLogger())
	dispatch, err := svc.Wake(context.Background(), models.WOLConfig{
		MACAddress:  "00:11:22:33:44:55",
		BroadcastIP: "127.0.0.1",
		Port:        port,
		Retries:     3,
		Interval:    50 * time.Millisecond,
	})
	require.NoError(t, err)

	results, err := dispatch.Wait()
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Sent)
	assert.Equal(t, 3, results[0].Attempts)
	assert.GreaterOrEqual(t, results[0].Duration, 150*time.Millisecond)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 3
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-listenDone)

	for _, p := range received {
		assert.Equal(t, "00:11:22:33:44:55", p.Target)
		assert.Equal(t, 102, p.Size)
	}
}

func TestWOL_InvalidMAC_E2E(t *testing.T) {
	svc := wol.New(testLogger())

	dispatch, err := svc.Wake(context.Background(), models.WOLConfig{MACAddress: "not-a-mac"})

	require.Error(t, err)
	assert.Nil(t, dispatch)
	assert.Contains(t, err.Error(), "invalid MAC address")
}

// RealWOL tests - only run if explicitly configured
func TestRealWOL_E2E(t *testing.T) {
	mac := os.Getenv("TEST_WOL_MAC")
	if mac == "" {
		t.Skip("TEST_WOL_MAC not set")
	}

	retries := 3
	if s := os.Getenv("TEST_WOL_RETRIES"); s != "" {
		n, err := strconv.Atoi(s)
		require.NoError(t, err)
		retries = n
	}

	svc := wol.New(testLogger())
	dispatch, err := svc.Wake(context.Background(), models.WOLConfig{
		MACAddress:  mac,
		BroadcastIP: os.Getenv("TEST_WOL_BROADCAST"),
		Retries:     retries,
	})
	require.NoError(t, err)

	results, err := dispatch.Wait()
	require.NoError(t, err)
	require.NotEmpty(t, results)
	for _, r := range results {
		assert.NoError(t, r.Error, "target %s", r.Target)
		assert.True(t, r.Sent)
	}
}
