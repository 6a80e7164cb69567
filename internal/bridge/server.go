package bridge

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/symbiote-voice/internal/arbiter"
	"github.com/danielpatrickdp/symbiote-voice/internal/dream"
	"github.com/danielpatrickdp/symbiote-voice/internal/progress"
	"github.com/danielpatrickdp/symbiote-voice/internal/store"
	"github.com/danielpatrickdp/symbiote-voice/internal/tick"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "symbiote.v1.Bridge"

// #region service-desc
// BridgeServer is the server side of the bridge. Every payload is a google.protobuf.Struct.
type BridgeServer interface {
	Observe(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	ReportDamage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	RequestDream(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Progress(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Disconnect(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BridgeServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Observe", BridgeServer.Observe),
		unary("ReportDamage", BridgeServer.ReportDamage),
		unary("RequestDream", BridgeServer.RequestDream),
		unary("Progress", BridgeServer.Progress),
		unary("Disconnect", BridgeServer.Disconnect),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "symbiote/v1/bridge.proto",
}

type method func(BridgeServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call method) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BridgeServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BridgeServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Register attaches impl to s.
func Register(s grpc.ServiceRegistrar, impl BridgeServer) {
	s.RegisterService(&serviceDesc, impl)
}

// #endregion service-desc

// #region server
// Server answers bridge calls by marshaling each one onto the tick loop.
type Server struct {
	loop   *tick.Loop
	arb    *arbiter.Arbiter
	dreams *dream.Escalator
	store  store.Store
	logger *zap.Logger
}

var _ BridgeServer = (*Server)(nil)

func NewServer(loop *tick.Loop, arb *arbiter.Arbiter, dreams *dream.Escalator, st store.Store, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{loop: loop, arb: arb, dreams: dreams, store: st, logger: logger}
}

// #endregion server

// #region handlers
func (s *Server) Observe(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeObserve(in)
	if err != nil {
		return nil, s.fail("Observe", err)
	}
	var res arbiter.Result
	err = s.loop.Do(ctx, func(now int64) {
		res = s.arb.Observe(req.Player, req.Category, req.Severity, req.Context, now)
	})
	if err != nil {
		return nil, s.fail("Observe", err)
	}
	return encodeResult(res), nil
}

func (s *Server) ReportDamage(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeDamage(in)
	if err != nil {
		return nil, s.fail("ReportDamage", err)
	}
	severity := arbiter.DamageToSeverity(req.Damage)
	var res arbiter.Result
	err = s.loop.Do(ctx, func(now int64) {
		res = s.arb.Observe(req.Player, req.Category, severity, req.Context, now)
	})
	if err != nil {
		return nil, s.fail("ReportDamage", err)
	}
	return encodeResult(res), nil
}

func (s *Server) RequestDream(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	player, err := decodePlayer(in)
	if err != nil {
		return nil, s.fail("RequestDream", err)
	}
	var res dream.Result
	err = s.loop.Do(ctx, func(now int64) {
		res = s.dreams.RequestDream(player, now)
	})
	if err != nil {
		return nil, s.fail("RequestDream", err)
	}
	return encodeDream(res), nil
}

// Progress returns the player's tracker in wire form.
func (s *Server) Progress(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	player, err := decodePlayer(in)
	if err != nil {
		return nil, s.fail("Progress", err)
	}
	var (
		t       progress.Tracker
		loadErr error
	)
	err = s.loop.Do(ctx, func(int64) {
		t, loadErr = s.store.Load(player)
	})
	if err == nil {
		err = loadErr
	}
	if err != nil {
		return nil, s.fail("Progress", err)
	}
	return progress.ToProto(t), nil
}

// Disconnect drops the player's cooldowns and chaos window. Stored progress is kept.
func (s *Server) Disconnect(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	player, err := decodePlayer(in)
	if err != nil {
		return nil, s.fail("Disconnect", err)
	}
	err = s.loop.Do(ctx, func(int64) {
		s.arb.ForgetPlayer(player)
	})
	if err != nil {
		return nil, s.fail("Disconnect", err)
	}
	return &structpb.Struct{}, nil
}

// #endregion handlers

// #region errors
// fail converts err to a status, logging anything that is not the caller's fault.
func (s *Server) fail(method string, err error) error {
	st := toStatus(err)
	if status.Code(st) != codes.InvalidArgument {
		s.logger.Warn("bridge call failed", zap.String("method", method), zap.Error(err))
	}
	return st
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, ErrBadRequest):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, progress.ErrCorruptRecord):
		return status.Error(codes.DataLoss, err.Error())
	case errors.Is(err, tick.ErrStopped):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// #endregion errors
