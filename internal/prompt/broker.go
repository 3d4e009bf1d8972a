// Package prompt asks the user questions through a publisher and waits for
// the answers. It implements the rename editor and the delete confirmer of
// the interaction controller.
package prompt

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mindmap/internal/domain"
)

// Kind names the question asked
type Kind string

const (
	KindRename  Kind = "rename"
	KindConfirm Kind = "confirm"
)

// Request is an open question
type Request struct {
	ID     string    `json:"id"`
	Kind   Kind      `json:"kind"`
	NodeID string    `json:"node_id"`
	Name   string    `json:"name"`
	Degree int       `json:"degree,omitempty"`
	Opened time.Time `json:"opened"`
}

// Answer is the user's reply. Cancelled wins over the other fields.
type Answer struct {
	Name      string `json:"name,omitempty"`
	Confirmed bool   `json:"confirmed,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

// Publisher delivers requests to the user
type Publisher interface {
	Publish(Request)
}

// PublisherFunc adapts a function to Publisher
type PublisherFunc func(Request)

// Publish calls f(r)
func (f PublisherFunc) Publish(r Request) { f(r) }

type pending struct {
	req    Request
	answer chan Answer
}

// Broker correlates published requests with answers
type Broker struct {
	pub     Publisher
	timeout time.Duration
	logger  *zap.Logger

	mu   sync.Mutex
	open map[string]*pending
}

// New creates a broker. A zero timeout waits until the caller's context
// ends.
func New(pub Publisher, timeout time.Duration, logger *zap.Logger) *Broker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broker{
		pub:     pub,
		timeout: timeout,
		logger:  logger,
		open:    make(map[string]*pending),
	}
}

// EditName asks for a new label seeded with the node's current one
func (b *Broker) EditName(ctx context.Context, node domain.Node) (string, bool, error) {
	a, err := b.ask(ctx, Request{Kind: KindRename, NodeID: node.ID, Name: node.Name})
	if err != nil || a.Cancelled {
		return "", false, err
	}
	return a.Name, true, nil
}

// Confirm asks whether a node with degree links may be deleted
func (b *Broker) Confirm(ctx context.Context, node domain.Node, degree int) (bool, error) {
	a, err := b.ask(ctx, Request{Kind: KindConfirm, NodeID: node.ID, Name: node.Name, Degree: degree})
	if err != nil || a.Cancelled {
		return false, err
	}
	return a.Confirmed, nil
}

// Answer resolves the open request id
func (b *Broker) Answer(id string, a Answer) error {
	b.mu.Lock()
	p, ok := b.open[id]
	if ok {
		delete(b.open, id)
	}
	b.mu.Unlock()
	if !ok {
		return domain.Errorf(domain.ErrInvalidReference, "prompt %q not found", id).WithOp("answer")
	}
	p.answer <- a
	return nil
}

// Pending lists the open requests, oldest first
func (b *Broker) Pending() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, 0, len(b.open))
	for _, p := range b.open {
		out = append(out, p.req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Opened.Before(out[j].Opened) })
	return out
}

func (b *Broker) ask(ctx context.Context, req Request) (Answer, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	req.ID = uuid.NewString()
	req.Opened = time.Now()
	p := &pending{req: req, answer: make(chan Answer, 1)}

	b.mu.Lock()
	b.open[req.ID] = p
	b.mu.Unlock()

	b.logger.Debug("prompt opened", zap.String("prompt_id", req.ID), zap.String("kind", string(req.Kind)), zap.String("node_id", req.NodeID))
	b.pub.Publish(req)

	select {
	case a := <-p.answer:
		return a, nil
	case <-ctx.Done():
		b.mu.Lock()
		delete(b.open, req.ID)
		b.mu.Unlock()
		b.logger.Debug("prompt expired", zap.String("prompt_id", req.ID), zap.Error(ctx.Err()))
		return Answer{Cancelled: true}, nil
	}
}
