package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/kestr-dev/kestr/internal/query"
)

// acceptTimeout bounds each accept wait so the loop can recheck the
// coordinator's run flag, upper-bounding shutdown latency to roughly
// acceptTimeout (spec.md §5, invariant 7).
const acceptTimeout = 500 * time.Millisecond

// Server listens on a Unix domain socket and serves one request per
// connection, closing immediately after the reply (spec.md §6).
// Grounded on internal/daemon/server.go's accept-loop shape, adapted
// from JSON-RPC 2.0 envelopes to the flat {method,params?} wire format.
type Server struct {
	socketPath  string
	coordinator *query.Coordinator
}

// NewServer creates a Server bound to socketPath, not yet listening.
func NewServer(socketPath string, c *query.Coordinator) *Server {
	return &Server{socketPath: socketPath, coordinator: c}
}

// ListenAndServe removes any stale socket, listens, and accepts
// connections until the coordinator's run flag is cleared.
func (s *Server) ListenAndServe(ctx context.Context) error {
	_ = os.Remove(s.socketPath)

	ln, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return err
	}
	defer func() {
		ln.Close()
		_ = os.Remove(s.socketPath)
	}()

	unixLn, ok := ln.(*net.UnixListener)
	if !ok {
		return errors.New("daemon: listener is not a Unix listener")
	}

	slog.Info("daemon: listening", "socket", s.socketPath)

	for s.coordinator.Running() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		unixLn.SetDeadline(time.Now().Add(acceptTimeout))
		conn, err := unixLn.Accept()
		if err != nil {
			if os.IsTimeout(err) {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			slog.Warn("daemon: accept error", "error", err)
			continue
		}
		go s.handle(ctx, conn)
	}
	return nil
}

func (s *Server) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	var req Request
	dec := json.NewDecoder(conn)
	if err := dec.Decode(&req); err != nil {
		// Malformed JSON is a protocol error, not a fatal one: keep serving
		// (spec.md §7, scenario S6).
		s.reply(conn, failure("invalid json"))
		return
	}

	s.reply(conn, s.dispatch(ctx, req))
}

func (s *Server) dispatch(ctx context.Context, req Request) Response {
	switch req.Method {
	case MethodPing:
		return success(s.coordinator.Ping())
	case MethodStatus:
		return success(s.coordinator.Status())
	case MethodReindex:
		s.coordinator.Reindex()
		return success(nil)
	case MethodShutdown:
		s.coordinator.Shutdown()
		return success(nil)
	case MethodQuery:
		var params QueryParams
		if req.Params != nil {
			data, _ := json.Marshal(req.Params)
			if err := json.Unmarshal(data, &params); err != nil {
				return failure("invalid params")
			}
		}
		results, err := s.coordinator.Query(ctx, params.Query)
		if err != nil {
			return failure(err.Error())
		}
		return success(results)
	default:
		return failure("unknown method: " + req.Method)
	}
}

func (s *Server) reply(conn net.Conn, resp Response) {
	enc := json.NewEncoder(conn)
	if err := enc.Encode(resp); err != nil {
		slog.Warn("daemon: failed to encode response", "error", err)
	}
}
