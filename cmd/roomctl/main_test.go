package main

import (
	"bytes"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Tyrowin/campuschat/internal/server"
	"github.com/Tyrowin/campuschat/internal/session"
)

func startServer(t *testing.T) string {
	t.Helper()

	cfg := server.NewConfig()
	cfg.SessionSecret = "roomctl-secret"
	srv, err := server.New(cfg, session.NewMemoryStore(), slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	srv.Start()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Hub().Shutdown(2 * time.Second)
	})
	return ts.URL
}

func TestRun_ListsBuildings(t *testing.T) {
	req := require.New(t)
	addr := startServer(t)

	var out bytes.Buffer
	code, err := run([]string{"-addr", addr, "-user", "opal"}, &out)
	req.NoError(err)
	req.Equal(exitOK, code)
	req.Contains(out.String(), "TESTBLDG1")
	req.Contains(out.String(), "BLDG5")
}

func TestRun_InspectsRoomWithDetails(t *testing.T) {
	req := require.New(t)
	addr := startServer(t)

	var out bytes.Buffer
	code, err := run([]string{"-addr", addr, "-user", "opal", "-avatar", "4", "-room", "TESTBLDG1"}, &out)
	req.NoError(err)
	req.Equal(exitOK, code)
	req.Contains(out.String(), "Rooms in BLDG1")
	req.Contains(out.String(), "Connected to BLDG1")
	req.Contains(out.String(), "opal")
}

func TestRun_Failures(t *testing.T) {
	addr := startServer(t)

	t.Run("unknown room", func(t *testing.T) {
		var out bytes.Buffer
		code, err := run([]string{"-addr", addr, "-room", "NOPE"}, &out)
		require.ErrorContains(t, err, "UnknownRoom")
		require.Equal(t, exitRuntime, code)
	})

	t.Run("bad flag", func(t *testing.T) {
		var out bytes.Buffer
		code, err := run([]string{"-nope"}, &out)
		require.Error(t, err)
		require.Equal(t, exitUsage, code)
	})
}
