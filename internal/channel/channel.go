// Package channel frames the bridge protocol: one JSON request per input line,
// one JSON envelope per output line, strictly in arrival order.
package channel

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/kevin07696/payment-bridge/internal/domain"
	"github.com/kevin07696/payment-bridge/internal/normalize"
	"github.com/kevin07696/payment-bridge/pkg/encoding"
	"github.com/kevin07696/payment-bridge/pkg/observability"
	"go.uber.org/zap"
)

// Dispatcher serves one decoded request.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *domain.Request) domain.Envelope
}

// Channel reads requests from in and writes envelopes to out.
type Channel struct {
	in         *bufio.Reader
	out        *bufio.Writer
	dispatcher Dispatcher
	logger     *zap.Logger
}

// New creates a Channel. out should carry nothing but envelopes.
func New(in io.Reader, out io.Writer, dispatcher Dispatcher, logger *zap.Logger) *Channel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Channel{
		in:         bufio.NewReader(in),
		out:        bufio.NewWriter(out),
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Serve runs the request loop until end of stream, which is not an error.
// Each envelope is flushed before the next line is read. Serve stops early only
// when ctx is done, even while a read is blocked, or when the output can no
// longer be written.
func (c *Channel) Serve(ctx context.Context) error {
	served := 0
	defer func() {
		c.logger.Info("Request stream closed", zap.Int("requests", served))
	}()

	lines := make(chan readResult)
	next := make(chan struct{})
	done := make(chan struct{})
	defer close(done)
	go c.read(lines, next, done)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		var r readResult
		select {
		case <-ctx.Done():
			return ctx.Err()
		case r = <-lines:
		}

		if len(bytes.TrimSpace(r.line)) > 0 {
			if err := c.respond(c.serveLine(ctx, r.line)); err != nil {
				return err
			}
			served++
		}

		if errors.Is(r.err, io.EOF) {
			return nil
		}
		if r.err != nil {
			return fmt.Errorf("read request: %w", r.err)
		}
		next <- struct{}{}
	}
}

type readResult struct {
	line []byte
	err  error
}

// read hands Serve one line at a time and waits on next before reading again.
// A read blocked when Serve returns ends with the input stream.
func (c *Channel) read(lines chan<- readResult, next <-chan struct{}, done <-chan struct{}) {
	for {
		line, err := c.in.ReadBytes('\n')
		select {
		case lines <- readResult{line: line, err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
		select {
		case <-next:
		case <-done:
			return
		}
	}
}

func (c *Channel) serveLine(ctx context.Context, line []byte) domain.Envelope {
	var req domain.Request
	if err := json.Unmarshal(line, &req); err != nil {
		return c.malformed(line, err)
	}
	return c.dispatcher.Dispatch(ctx, &req)
}

// malformed builds the failure envelope for a line that did not decode, echoing
// gateway, action and request_id when the line is at least a JSON object.
func (c *Channel) malformed(line []byte, err error) domain.Envelope {
	var gateway, action string
	var requestID json.RawMessage

	var fields map[string]json.RawMessage
	if json.Unmarshal(line, &fields) == nil {
		_ = json.Unmarshal(fields["gateway"], &gateway)
		_ = json.Unmarshal(fields["action"], &action)
		requestID = fields["request_id"]
	}

	c.logger.Debug("Malformed request line",
		zap.String("gateway", gateway),
		zap.String("action", action),
		zap.Int("bytes", len(line)),
		zap.Error(err),
	)
	observability.RecordRequest(gateway, "malformed", observability.OutcomeRejected, false)

	env := normalize.Rejection(domain.ErrMalformedRequest.Message)
	normalize.Attach(&env, gateway, action, requestID)
	return env
}

func (c *Channel) respond(env domain.Envelope) error {
	if err := encoding.WriteLine(c.out, env); err != nil {
		c.logger.Error("Failed to encode response", zap.Error(err))
		fallback := normalize.Rejection("Internal error")
		normalize.Attach(&fallback, env.Gateway, env.Action, env.RequestID)
		if err := encoding.WriteLine(c.out, fallback); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	if err := c.out.Flush(); err != nil {
		return fmt.Errorf("flush response: %w", err)
	}
	return nil
}
