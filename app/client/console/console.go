// Package console reads decisions line by line from a text stream.
//
// Each line is either a decision as accepted by model.ParseDecision, or the
// word "refresh" to re-run resolution without a decision. A line may start
// with "@<session>" to address a session other than the default one. Blank
// lines and lines starting with '#' are skipped.
package console

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"varconf/app/config"
	"varconf/app/model"

	"github.com/samber/do"
)

// DecisionHandler receives parsed lines. decision is nil for "refresh". The
// next line is not read until the handler returns.
type DecisionHandler func(ctx context.Context, sessionID string, decision model.Decision)

type Client struct {
	input          io.Reader
	defaultSession string

	mutex   sync.RWMutex
	handler DecisionHandler
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return New(os.Stdin, cfg.Session.DefaultID), nil
}

func New(input io.Reader, defaultSession string) *Client {
	return &Client{
		input:          input,
		defaultSession: defaultSession,
	}
}

func (c *Client) SetListener(handler DecisionHandler) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.handler = handler
}

// Run reads until the input ends or the context is cancelled.
func (c *Client) Run(ctx context.Context) error {
	lines := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(c.input)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errCh <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-errCh:
					return err
				default:
					return nil
				}
			}
			c.handleLine(ctx, line)
		}
	}
}

func (c *Client) handleLine(ctx context.Context, line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}

	sessionID := c.defaultSession
	if strings.HasPrefix(line, "@") {
		id, rest, _ := strings.Cut(line[1:], " ")
		if id != "" {
			sessionID = id
		}
		line = strings.TrimSpace(rest)
	}

	var decision model.Decision
	if !strings.EqualFold(line, "refresh") {
		d, err := model.ParseDecision(line)
		if err != nil {
			slog.Warn("Ignored console line", "line", line, "error", err)
			return
		}
		decision = d
	}

	c.mutex.RLock()
	handler := c.handler
	c.mutex.RUnlock()

	if handler == nil {
		return
	}

	handler(ctx, sessionID, decision)
}
