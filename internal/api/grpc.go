package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"tradelab/internal/strategy"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "tradelab.v1.BacktestService"

const (
	methodRun        = "/" + ServiceName + "/Run"
	methodCompare    = "/" + ServiceName + "/Compare"
	methodStrategies = "/" + ServiceName + "/Strategies"
)

// BacktestService exposes the Backtester over gRPC. Messages are
// google.protobuf.Struct values carrying the same JSON documents as the HTTP
// API.
type BacktestService struct {
	bt  *strategy.Backtester
	log *slog.Logger
}

// NewBacktestService creates a BacktestService over bt.
func NewBacktestService(bt *strategy.Backtester, log *slog.Logger) *BacktestService {
	if log == nil {
		log = slog.Default()
	}
	return &BacktestService{bt: bt, log: log.With("component", "grpc")}
}

// RegisterGRPC registers the service on the given gRPC server instance.
func (s *BacktestService) RegisterGRPC(gs *grpc.Server) {
	gs.RegisterService(&backtestServiceDesc, s)
}

// compareRequest is the Compare request document.
type compareRequest struct {
	Ticker    string `json:"ticker"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// Run backtests a single strategy. The request carries ticker, strategy,
// start_date, end_date and an optional initial_capital.
func (s *BacktestService) Run(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req strategy.Request
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decoding request: %v", err)
	}
	res, err := s.bt.Run(ctx, req)
	if err != nil {
		return nil, s.statusError(err)
	}
	return toStruct(res)
}

// Compare runs every registered strategy and ranks them.
func (s *BacktestService) Compare(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req compareRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decoding request: %v", err)
	}
	cmp, err := s.bt.Compare(ctx, req.Ticker, req.StartDate, req.EndDate)
	if err != nil {
		return nil, s.statusError(err)
	}
	return toStruct(cmp)
}

// Strategies lists the registered strategy names.
func (s *BacktestService) Strategies(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return toStruct(map[string][]string{"strategies": s.bt.Registry().Ordered()})
}

// CodeFor maps a backtest error to a gRPC status code.
func CodeFor(err error) codes.Code {
	kind, ok := strategy.KindOf(err)
	if !ok {
		return codes.Internal
	}
	switch kind {
	case strategy.KindInvalidStrategy, strategy.KindInvalidInput:
		return codes.InvalidArgument
	case strategy.KindNoDataAvailable:
		return codes.NotFound
	case strategy.KindInsufficientData:
		return codes.FailedPrecondition
	}
	return codes.Internal
}

func (s *BacktestService) statusError(err error) error {
	code := CodeFor(err)
	if code == codes.Internal {
		s.log.Error("backtest failed", "error", err)
	}
	return status.Error(code, err.Error())
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return out, nil
}

func fromStruct(in *structpb.Struct, v any) error {
	if in == nil {
		in = &structpb.Struct{}
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// ---------------------------------------------------------------------------
// Service descriptor
// ---------------------------------------------------------------------------

// backtestServer is the handler type the descriptor dispatches to.
type backtestServer interface {
	Run(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Compare(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Strategies(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

func unaryHandler(method string, call func(backtestServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(backtestServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(backtestServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var backtestServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*backtestServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Run", Handler: unaryHandler(methodRun, backtestServer.Run)},
		{MethodName: "Compare", Handler: unaryHandler(methodCompare, backtestServer.Compare)},
		{MethodName: "Strategies", Handler: unaryHandler(methodStrategies, backtestServer.Strategies)},
	},
	Metadata: "tradelab/v1/backtest.proto",
}

// ---------------------------------------------------------------------------
// Client
// ---------------------------------------------------------------------------

// Client calls a remote BacktestService.
type Client struct {
	conn *grpc.ClientConn
}

// Dial creates a client targeting the given gRPC address.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to %s: %w", addr, err)
	}
	return &Client{conn: conn}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

// Run backtests a single strategy remotely.
func (c *Client) Run(ctx context.Context, req strategy.Request) (*strategy.Result, error) {
	var res strategy.Result
	if err := c.call(ctx, methodRun, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Compare ranks all strategies remotely.
func (c *Client) Compare(ctx context.Context, ticker, startDate, endDate string) (*strategy.Comparison, error) {
	var cmp strategy.Comparison
	req := compareRequest{Ticker: ticker, StartDate: startDate, EndDate: endDate}
	if err := c.call(ctx, methodCompare, req, &cmp); err != nil {
		return nil, err
	}
	return &cmp, nil
}

// Strategies lists the strategies the server offers.
func (c *Client) Strategies(ctx context.Context) ([]string, error) {
	var resp struct {
		Strategies []string `json:"strategies"`
	}
	if err := c.call(ctx, methodStrategies, struct{}{}, &resp); err != nil {
		return nil, err
	}
	return resp.Strategies, nil
}

func (c *Client) call(ctx context.Context, method string, req, resp any) error {
	in, err := toStruct(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, method, in, out); err != nil {
		return err
	}
	return fromStruct(out, resp)
}
