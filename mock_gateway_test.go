package tryon

import (
	"context"
)

// MockGateway is a mock implementation of Gateway.
type MockGateway struct {
	SynthesizeImageFunc func(ctx context.Context, req *GatewayRequest) (*SynthesisResult, error)
	ConsultFunc         func(ctx context.Context, req *GatewayRequest) (*ConsultResult, error)
}

func (m *MockGateway) SynthesizeImage(ctx context.Context, req *GatewayRequest) (*SynthesisResult, error) {
	if m.SynthesizeImageFunc != nil {
		return m.SynthesizeImageFunc(ctx, req)
	}
	return &SynthesisResult{Image: ImageRef{Data: []byte("synthesized"), MIMEType: "image/png"}}, nil
}

func (m *MockGateway) Consult(ctx context.Context, req *GatewayRequest) (*ConsultResult, error) {
	if m.ConsultFunc != nil {
		return m.ConsultFunc(ctx, req)
	}
	return &ConsultResult{Text: "mock answer"}, nil
}
