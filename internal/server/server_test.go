package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/warden/internal/audit"
	"github.com/prn-tf/warden/internal/config"
	"github.com/prn-tf/warden/internal/directory"
	"github.com/prn-tf/warden/internal/domain"
	"github.com/prn-tf/warden/internal/service"
	"github.com/prn-tf/warden/internal/session"
)

func startTestServer(t *testing.T) *Server {
	t.Helper()

	dir := directory.NewMemory()
	sessions := session.NewMemoryStore(session.DefaultTTL)
	auditor := audit.NewDispatcher(audit.Config{}, audit.NopSink{}, nil, zerolog.Nop())
	t.Cleanup(auditor.Close)
	dispatcher := service.NewDispatcher(dir, sessions, nil, auditor, nil, zerolog.Nop())

	srv := New(config.ServerConfig{
		Host:         "127.0.0.1",
		Port:         0,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		MaxLineBytes: 64 * 1024,
	}, dispatcher, zerolog.Nop())
	require.NoError(t, srv.Start())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Stop(ctx)
	})
	return srv
}

type testConn struct {
	conn    net.Conn
	encoder *json.Encoder
	decoder *json.Decoder
}

func dialTestServer(t *testing.T, srv *Server) *testConn {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return &testConn{
		conn:    conn,
		encoder: json.NewEncoder(conn),
		decoder: json.NewDecoder(conn),
	}
}

func (c *testConn) roundTrip(t *testing.T, message string, tier domain.Tier) Response {
	t.Helper()
	require.NoError(t, c.encoder.Encode(Request{Message: message, Tier: tier}))
	var resp Response
	require.NoError(t, c.decoder.Decode(&resp))
	return resp
}

func TestServer_RegisterAndLogout(t *testing.T) {
	srv := startTestServer(t)
	client := dialTestServer(t, srv)

	resp := client.roundTrip(t,
		"register --username alice --password pw --first-name A --last-name S --email a@b.c",
		domain.TierUnsecure)
	require.Equal(t, domain.StatusSuccessful, resp.Status)
	assert.Equal(t, domain.KindRegister, resp.Kind)
	assert.Contains(t, resp.Message, "Your current session Id is: ")
}

func TestServer_MultipleRequestsPerConnection(t *testing.T) {
	srv := startTestServer(t)
	client := dialTestServer(t, srv)

	resp := client.roundTrip(t, "login --username ghost --password pw", domain.TierUnsecure)
	assert.Equal(t, domain.StatusUnsuccessful, resp.Status)

	resp = client.roundTrip(t,
		"register --username bob --password pw --first-name B --last-name J --email b@b.c",
		domain.TierUnsecure)
	assert.Equal(t, domain.StatusSuccessful, resp.Status)
}

func TestServer_UndecodableFrame(t *testing.T) {
	srv := startTestServer(t)
	client := dialTestServer(t, srv)

	_, err := client.conn.Write([]byte("this is not json\n"))
	require.NoError(t, err)

	var resp Response
	require.NoError(t, client.decoder.Decode(&resp))
	assert.Equal(t, domain.KindInvalid, resp.Kind)
	assert.Equal(t, "Invalid command. Please enter new command.", resp.Message)

	// The connection survives the bad frame.
	resp = client.roundTrip(t,
		"register --username carol --password pw --first-name C --last-name D --email c@c.c",
		domain.TierUnsecure)
	assert.Equal(t, domain.StatusSuccessful, resp.Status)
}

func TestServer_ConcurrentConnections(t *testing.T) {
	srv := startTestServer(t)

	done := make(chan struct{})
	for i := 0; i < 4; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			client := dialTestServer(t, srv)
			resp := client.roundTrip(t, "login --session-id nope", domain.TierUnsecure)
			assert.Equal(t, domain.StatusUnsuccessful, resp.Status)
		}(i)
	}
	for i := 0; i < 4; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for connections")
		}
	}
}

func TestServer_StopClosesConnections(t *testing.T) {
	srv := startTestServer(t)
	client := dialTestServer(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))

	// The closed connection yields EOF on the next read.
	client.conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err := bufio.NewReader(client.conn).ReadByte()
	assert.Error(t, err)
}
