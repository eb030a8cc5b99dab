package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/schedorder/constants"
	"github.com/joseph-ayodele/schedorder/internal/common"
	"github.com/joseph-ayodele/schedorder/internal/entity"
	"github.com/joseph-ayodele/schedorder/internal/services/extraction"
)

// ExtractionServiceName is the fully-qualified gRPC service name. Messages are
// google.protobuf.Struct so no generated stubs are needed.
const ExtractionServiceName = "schedorder.v1.ExtractionService"

// ExtractionServer is the server API for ExtractionService.
type ExtractionServer interface {
	// Extract takes {filename, content (base64), text?} and returns the extraction result.
	Extract(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// GetOrder takes {id}.
	GetOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	// ListDeadlines takes {case_number}.
	ListDeadlines(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

type call func(ExtractionServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(method string, fn call) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/" + ExtractionServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return fn(srv.(ExtractionServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return fn(srv.(ExtractionServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ExtractionServiceDesc = grpc.ServiceDesc{
	ServiceName: ExtractionServiceName,
	HandlerType: (*ExtractionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Extract", Handler: unary("Extract", ExtractionServer.Extract)},
		{MethodName: "GetOrder", Handler: unary("GetOrder", ExtractionServer.GetOrder)},
		{MethodName: "ListDeadlines", Handler: unary("ListDeadlines", ExtractionServer.ListDeadlines)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "schedorder/v1/extraction.proto",
}

func RegisterExtractionServer(s grpc.ServiceRegistrar, srv ExtractionServer) {
	s.RegisterService(&ExtractionServiceDesc, srv)
}

// ExtractionService adapts extraction.Service to gRPC.
type ExtractionService struct {
	svc    Extractions
	logger *slog.Logger
}

func NewExtractionService(svc Extractions, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionService{svc: svc, logger: logger}
}

func (s *ExtractionService) Extract(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	filename := strings.TrimSpace(stringField(req, "filename"))
	v := common.NewValidator().
		Field("filename", filename, common.Required, common.MaxLength(constants.MaxFilenameLen))
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	content, err := base64.StdEncoding.DecodeString(stringField(req, "content"))
	if err != nil {
		return nil, common.InvalidArgumentErrorf("content must be base64: %v", err)
	}

	res := s.svc.ProcessUpload(ctx, extraction.Upload{
		Filename: filename,
		Data:     content,
		Text:     stringField(req, "text"),
	})
	return toStruct(res)
}

func (s *ExtractionService) GetOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := uuid.Parse(strings.TrimSpace(stringField(req, "id")))
	if err != nil {
		return nil, common.InvalidArgumentError("id must be a UUID")
	}
	rec, deadlines, err := s.svc.GetOrder(ctx, id)
	if err != nil {
		s.logger.Warn("grpc.get_order.failed", "id", id, "err", err)
		return nil, grpcError(err)
	}
	return toStruct(map[string]any{"order": rec, "deadlines": deadlines})
}

func (s *ExtractionService) ListDeadlines(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	caseNumber := stringField(req, "case_number")
	deadlines, err := s.svc.CaseDeadlines(ctx, caseNumber)
	if err != nil {
		s.logger.Warn("grpc.list_deadlines.failed", "case_number", caseNumber, "err", err)
		return nil, grpcError(err)
	}
	if deadlines == nil {
		deadlines = []entity.DeadlineRecord{}
	}
	return toStruct(map[string]any{"case_number": strings.TrimSpace(caseNumber), "deadlines": deadlines})
}

// UnaryLogger copies x-request-id metadata into the context and logs each call.
func UnaryLogger(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		requestID := ""
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if v := md.Get("x-request-id"); len(v) > 0 {
				requestID = v[0]
			}
		}
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx = common.WithSource(common.WithRequestID(ctx, requestID), "grpc")

		resp, err := handler(ctx, req)
		attrs := []any{"method", info.FullMethod, "request_id", requestID, "latency_ms", time.Since(start).Milliseconds()}
		if err != nil {
			logger.Warn("grpc call failed", append(attrs, "err", err)...)
		} else {
			logger.Info("grpc call completed", attrs...)
		}
		return resp, err
	}
}

func stringField(s *structpb.Struct, key string) string {
	return s.GetFields()[key].GetStringValue()
}

func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	return out, nil
}

// ExtractionClient calls ExtractionService over a client connection.
type ExtractionClient struct {
	cc grpc.ClientConnInterface
}

func NewExtractionClient(cc grpc.ClientConnInterface) *ExtractionClient {
	return &ExtractionClient{cc: cc}
}

func (c *ExtractionClient) invoke(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ExtractionServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ExtractionClient) Extract(ctx context.Context, filename string, content []byte, text string) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]any{
		"filename": filename,
		"content":  base64.StdEncoding.EncodeToString(content),
		"text":     text,
	})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, "Extract", req)
}

func (c *ExtractionClient) GetOrder(ctx context.Context, id string) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, "GetOrder", req)
}

func (c *ExtractionClient) ListDeadlines(ctx context.Context, caseNumber string) (*structpb.Struct, error) {
	req, err := structpb.NewStruct(map[string]any{"case_number": caseNumber})
	if err != nil {
		return nil, err
	}
	return c.invoke(ctx, "ListDeadlines", req)
}
