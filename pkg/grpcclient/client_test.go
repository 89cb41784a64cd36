package grpcclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		code codes.Code
		want bool
	}{
		{codes.Unavailable, true},
		{codes.ResourceExhausted, true},
		{codes.NotFound, false},
		{codes.InvalidArgument, false},
		{codes.DeadlineExceeded, false},
	}
	for _, tt := range tests {
		if got := shouldRetry(tt.code); got != tt.want {
			t.Errorf("shouldRetry(%v) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestUnaryInterceptorRetries(t *testing.T) {
	tests := []struct {
		name      string
		errs      []error
		retries   int
		wantCalls int
		wantErr   bool
	}{
		{"success", []error{nil}, 2, 1, false},
		{"unavailable then ok", []error{status.Error(codes.Unavailable, "down"), nil}, 2, 2, false},
		{"exhausted", []error{status.Error(codes.Unavailable, "down")}, 2, 3, true},
		{"not retryable", []error{status.Error(codes.NotFound, "x")}, 2, 1, true},
		{"plain error", []error{errors.New("boom")}, 2, 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			invoker := func(context.Context, string, any, any, *grpc.ClientConn, ...grpc.CallOption) error {
				i := calls
				if i >= len(tt.errs) {
					i = len(tt.errs) - 1
				}
				calls++
				return tt.errs[i]
			}
			intercept := unaryClientInterceptor(ClientConfig{MaxRetries: tt.retries, RetryDelay: time.Millisecond, RequestTimeout: time.Second})

			err := intercept(context.Background(), "/grpc.health.v1.Health/Check", nil, nil, nil, invoker)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
		})
	}
}
