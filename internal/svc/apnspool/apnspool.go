// Package apnspool caches one long-lived apns.Provider per tenant,
// invalidated explicitly by credential writes, and fans batched sends out
// across pkg/worker's worker pool the same way backend.SenderMultiplexer
// caches its own per-tenant senders.
package apnspool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yusufsyaifudin/ngendika/internal/svc/credstore"
	"github.com/yusufsyaifudin/ngendika/pkg/apns"
	"github.com/yusufsyaifudin/ngendika/pkg/worker"
)

const chunkSize = 1000

type Pool struct {
	mu           sync.Mutex
	providers    map[string]*apns.Provider
	maxListeners int
	workers      *worker.Worker
}

type Config struct {
	MaxListeners int // per-host HTTP connection cap (MaxConnsPerHost), default 75
	WorkerCount  int
	WorkerQueue  int
}

func New(cfg Config) *Pool {
	maxListeners := cfg.MaxListeners
	if maxListeners <= 0 {
		maxListeners = 75
	}

	workerCount := cfg.WorkerCount
	if workerCount <= 0 {
		workerCount = 32
	}

	workerQueue := cfg.WorkerQueue
	if workerQueue <= 0 {
		workerQueue = chunkSize
	}

	return &Pool{
		providers:    make(map[string]*apns.Provider),
		maxListeners: maxListeners,
		workers:      worker.NewWorker(workerCount, workerQueue),
	}
}

// Invalidate implements credstore.Invalidator: an admin write to a
// tenant's iOS credential evicts and gracefully shuts down its cached
// provider.
func (p *Pool) Invalidate(clientID string) {
	p.mu.Lock()
	provider, ok := p.providers[clientID]
	if ok {
		delete(p.providers, clientID)
	}
	p.mu.Unlock()

	if ok {
		provider.Close()
	}
}

func (p *Pool) get(clientID string, cred credstore.IosCredential) (*apns.Provider, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if provider, ok := p.providers[clientID]; ok {
		return provider, nil
	}

	provider, err := apns.NewProvider(apns.Config{
		TeamID:        cred.TeamID,
		KeyID:         cred.KeyID,
		PrivateKeyPEM: cred.PrivateKeyPEM,
		Production:    cred.Production,
		MaxListeners:  p.maxListeners,
	})
	if err != nil {
		return nil, fmt.Errorf("build apns provider for %s: %w", clientID, err)
	}

	p.providers[clientID] = provider
	return provider, nil
}

// SendResult aggregates the outcome of one dispatch call across every
// chunk of the token list.
type SendResult struct {
	Requested     int
	Sent          int
	Failed        int
	InvalidTokens []string
}

// PayloadBuilder derives the per-token apns.Notification from the
// normalized request; the caller (handlernotify) supplies it so this
// package does not depend on the notifyvalidate request shape directly.
type PayloadBuilder func() apns.Notification

func (p *Pool) Send(ctx context.Context, clientID string, cred credstore.IosCredential, tokens []string, build PayloadBuilder) (SendResult, error) {
	provider, err := p.get(clientID, cred)
	if err != nil {
		return SendResult{}, err
	}

	result := SendResult{Requested: len(tokens)}

	for start := 0; start < len(tokens); start += chunkSize {
		end := start + chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}

		chunk := tokens[start:end]
		chunkResults := p.sendChunk(ctx, provider, chunk, build())

		for _, r := range chunkResults {
			if r.Success {
				result.Sent++
				continue
			}

			result.Failed++
			if apns.IsInvalidToken(r) {
				result.InvalidTokens = append(result.InvalidTokens, r.Token)
			}
		}
	}

	if result.InvalidTokens == nil {
		result.InvalidTokens = []string{}
	}

	return result, nil
}

type tokenJob struct {
	id       uint64
	ctx      context.Context
	provider *apns.Provider
	token    string
	payload  apns.Notification
	result   apns.TokenResult
	done     *sync.WaitGroup
}

var jobIDCounter uint64

func (j *tokenJob) ID() uint64               { return j.id }
func (j *tokenJob) Context() context.Context { return j.ctx }
func (j *tokenJob) PreExecute() error        { return nil }
func (j *tokenJob) Execute() error {
	j.result = j.provider.SendToken(j.ctx, j.token, j.payload)
	if !j.result.Success {
		return fmt.Errorf("apns send failed: %s", j.result.Reason)
	}
	return nil
}
func (j *tokenJob) PostExecute(_ error) { j.done.Done() }

// sendChunk fans one chunk of tokens across the pool's worker goroutines,
// waiting on a batch-local WaitGroup rather than worker.Worker.Done
// (which stops the worker pool entirely and is meant for shutdown).
func (p *Pool) sendChunk(ctx context.Context, provider *apns.Provider, tokens []string, payload apns.Notification) []apns.TokenResult {
	var wg sync.WaitGroup
	wg.Add(len(tokens))

	jobs := make([]*tokenJob, len(tokens))
	for i, token := range tokens {
		jobs[i] = &tokenJob{
			id:       atomic.AddUint64(&jobIDCounter, 1),
			ctx:      ctx,
			provider: provider,
			token:    token,
			payload:  payload,
			done:     &wg,
		}
		p.workers.AddJob(jobs[i])
	}

	wg.Wait()

	results := make([]apns.TokenResult, len(jobs))
	for i, j := range jobs {
		results[i] = j.result
	}

	return results
}

// SampleListenerCounts passes the number of cached providers to sample once
// per interval until ctx is done. It logs nothing itself.
func (p *Pool) SampleListenerCounts(ctx context.Context, interval time.Duration, sample func(count int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.mu.Lock()
			n := len(p.providers)
			p.mu.Unlock()
			sample(n)
		}
	}
}

// Shutdown closes every cached provider, used on process exit.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, provider := range p.providers {
		provider.Close()
		delete(p.providers, id)
	}
}
