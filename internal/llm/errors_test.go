package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want ErrorClass
	}{
		{name: "canceled", err: context.Canceled, want: ClassCanceled},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: ClassTimeout},
		{name: "net timeout", err: fmt.Errorf("dial: %w", timeoutError{}), want: ClassTimeout},
		{name: "unauthorized", err: &StatusError{StatusCode: 401}, want: ClassAuth},
		{name: "forbidden", err: &StatusError{StatusCode: 403}, want: ClassAuth},
		{name: "too many requests", err: fmt.Errorf("x: %w", &StatusError{StatusCode: 429}), want: ClassRateLimit},
		{name: "gateway timeout", err: &StatusError{StatusCode: 504}, want: ClassTimeout},
		{name: "server error", err: &StatusError{StatusCode: 500}, want: ClassProvider},
		{name: "other", err: errors.New("boom"), want: ClassProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
