package bridge

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/symbiote-voice/internal/observation"
	"github.com/danielpatrickdp/symbiote-voice/internal/progress"
)

// #region client-struct
// Client calls a remote bridge.
type Client struct {
	conn   grpc.ClientConnInterface
	closer func() error
}

// #endregion client-struct

// #region constructor
// Dial connects to a bridge at addr without transport security.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc dial %s: %w", addr, err)
	}
	return &Client{conn: conn, closer: conn.Close}, nil
}

// NewClient wraps an existing connection. Close is then the caller's job.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Close shuts down a connection opened by Dial.
func (c *Client) Close() error {
	if c.closer == nil {
		return nil
	}
	return c.closer()
}

// #endregion constructor

// #region calls
// Observe reports a gameplay event.
func (c *Client) Observe(ctx context.Context, req ObserveRequest) (ObserveReply, error) {
	in, err := encodeObserve(req)
	if err != nil {
		return ObserveReply{}, err
	}
	out, err := c.invoke(ctx, "Observe", in)
	if err != nil {
		return ObserveReply{}, fmt.Errorf("observe rpc: %w", err)
	}
	return observeReply(out), nil
}

// ReportDamage reports raw damage.
func (c *Client) ReportDamage(ctx context.Context, req DamageRequest) (ObserveReply, error) {
	in, err := encodeDamage(req)
	if err != nil {
		return ObserveReply{}, err
	}
	out, err := c.invoke(ctx, "ReportDamage", in)
	if err != nil {
		return ObserveReply{}, fmt.Errorf("report damage rpc: %w", err)
	}
	return observeReply(out), nil
}

// RequestDream asks for the player's next dream.
func (c *Client) RequestDream(ctx context.Context, player observation.PlayerID) (DreamReply, error) {
	in, err := encodePlayer(player)
	if err != nil {
		return DreamReply{}, err
	}
	out, err := c.invoke(ctx, "RequestDream", in)
	if err != nil {
		return DreamReply{}, fmt.Errorf("request dream rpc: %w", err)
	}
	return dreamReply(out), nil
}

// Progress fetches the player's tracker.
func (c *Client) Progress(ctx context.Context, player observation.PlayerID) (progress.Tracker, error) {
	in, err := encodePlayer(player)
	if err != nil {
		return progress.Default, err
	}
	out, err := c.invoke(ctx, "Progress", in)
	if err != nil {
		return progress.Default, fmt.Errorf("progress rpc: %w", err)
	}
	return progress.FromProto(out)
}

// Disconnect tells the engine the player left.
func (c *Client) Disconnect(ctx context.Context, player observation.PlayerID) error {
	in, err := encodePlayer(player)
	if err != nil {
		return err
	}
	if _, err := c.invoke(ctx, "Disconnect", in); err != nil {
		return fmt.Errorf("disconnect rpc: %w", err)
	}
	return nil
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

// #endregion calls
