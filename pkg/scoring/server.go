package scoring

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dd0wney/nodesel-dagger/pkg/features"
	"github.com/dd0wney/nodesel-dagger/pkg/gbrank"
	"github.com/dd0wney/nodesel-dagger/pkg/logging"
	"github.com/dd0wney/nodesel-dagger/pkg/metrics"
	"github.com/dd0wney/nodesel-dagger/pkg/policy"
	"github.com/dd0wney/nodesel-dagger/pkg/validation"
)

const pollInterval = 200 * time.Millisecond

// Server answers scoring requests one at a time. The policy named in a
// request is loaded from the store when it differs from the loaded one.
type Server struct {
	sock    ListenSocket
	store   policy.Store
	logger  logging.Logger
	metrics *metrics.Registry

	mu       sync.Mutex
	booster  *gbrank.Booster
	policyID int
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(l logging.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithMetrics enables request and reload metrics.
func WithMetrics(r *metrics.Registry) ServerOption {
	return func(s *Server) { s.metrics = r }
}

// NewServer creates a REP socket from factory and binds it to addr.
func NewServer(factory SocketFactory, addr string, store policy.Store, opts ...ServerOption) (*Server, error) {
	sock, err := factory.NewRepSocket()
	if err != nil {
		return nil, fmt.Errorf("create reply socket: %w", err)
	}
	if err := sock.SetRecvDeadline(pollInterval); err != nil {
		sock.Close()
		return nil, err
	}
	if err := sock.Listen(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	s := &Server{
		sock:     sock,
		store:    store,
		logger:   logging.NewNopLogger(),
		policyID: -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With(logging.Component("scoring"))
	return s, nil
}

// Preload loads a policy before the first request.
func (s *Server) Preload(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, id)
}

// PreloadLatest loads the newest stored policy and returns its id.
func (s *Server) PreloadLatest(ctx context.Context) (int, error) {
	id, err := s.store.Latest(ctx)
	if err != nil {
		return -1, err
	}
	return id, s.Preload(ctx, id)
}

// PolicyID returns the loaded policy id, or -1.
func (s *Server) PolicyID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policyID
}

// Serve answers requests until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("scoring server started")
	for {
		if ctx.Err() != nil {
			s.logger.Info("scoring server stopped")
			return nil
		}

		msg, err := s.sock.Recv()
		if errors.Is(err, ErrTimeout) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receive: %w", err)
		}

		reply := s.Handle(ctx, msg)
		if err := s.sock.Send(reply); err != nil {
			s.logger.Error("send reply failed", logging.Error(err))
		}
	}
}

// Handle computes the reply to one request. Malformed requests and
// unloadable policies are logged and answered with a zero score.
func (s *Server) Handle(ctx context.Context, msg []byte) []byte {
	start := time.Now()
	score, status := s.score(ctx, msg)
	if s.metrics != nil {
		s.metrics.RecordScoringRequest(status, time.Since(start))
	}
	return EncodeReply(score)
}

func (s *Server) score(ctx context.Context, msg []byte) (float64, string) {
	feats, id, err := DecodeRequest(msg)
	if err != nil {
		s.logger.Warn("bad scoring request", logging.Int("bytes", len(msg)), logging.Error(err))
		return 0, "bad_request"
	}
	if err := validation.FeatureVector(feats, features.Size); err != nil {
		s.logger.Warn("bad feature vector", logging.PolicyID(id), logging.Error(err))
		return 0, "bad_request"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if id != s.policyID {
		if err := s.load(ctx, id); err != nil {
			return 0, "no_policy"
		}
	}
	return s.booster.Predict(feats), "ok"
}

// load must be called with s.mu held. A failed load keeps the previous
// policy loaded.
func (s *Server) load(ctx context.Context, id int) error {
	timer := logging.StartTimer(s.logger, "loading policy", logging.PolicyID(id))
	b, err := s.store.Load(ctx, id)
	if err != nil {
		timer.EndError(err)
		if s.metrics != nil {
			s.metrics.RecordPolicyReload("error", id)
		}
		return err
	}
	timer.End()

	s.booster = b
	s.policyID = id
	if s.metrics != nil {
		s.metrics.RecordPolicyReload("success", id)
	}
	return nil
}

// Close releases the socket.
func (s *Server) Close() error {
	return s.sock.Close()
}
