// Package fcmpool adapts pkg/fcm.ClientDefault into a tenant-keyed cache:
// the client that fcm.NewClient builds (firebase app + messaging client)
// is created once per tenant behind a compute-if-absent cache, the same
// discipline apnspool applies to APNs providers.
package fcmpool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/yusufsyaifudin/ngendika/internal/logic/notifyvalidate"
	"github.com/yusufsyaifudin/ngendika/pkg/fcm"
	"github.com/yusufsyaifudin/ngendika/pkg/worker"
)

const chunkSize = 500

type Pool struct {
	mu      sync.Mutex
	clients map[string]fcm.Client
	workers *worker.Worker
}

func New() *Pool {
	return &Pool{
		clients: make(map[string]fcm.Client),
		workers: worker.NewWorker(16, chunkSize),
	}
}

// Invalidate implements credstore.Invalidator: an admin write to a
// tenant's Android credential evicts and gracefully closes its cached
// client.
func (p *Pool) Invalidate(clientID string) {
	p.mu.Lock()
	client, ok := p.clients[clientID]
	if ok {
		delete(p.clients, clientID)
	}
	p.mu.Unlock()

	if ok {
		_ = client.Close()
	}
}

// Shutdown closes every cached client, used on process exit.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for id, client := range p.clients {
		_ = client.Close()
		delete(p.clients, id)
	}
}

func (p *Pool) get(ctx context.Context, clientID string, serviceAccountJSON string) (fcm.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if client, ok := p.clients[clientID]; ok {
		return client, nil
	}

	client, err := fcm.NewClient(ctx, fcm.Config{}, []byte(serviceAccountJSON))
	if err != nil {
		return nil, fmt.Errorf("build fcm client for %s: %w", clientID, err)
	}

	p.clients[clientID] = client
	return client, nil
}

type SendResult struct {
	Requested     int
	Sent          int
	Failed        int
	InvalidTokens []string
}

var jobIDCounter uint64

// chunkJob sends one ≤500-token multicast chunk and records its outcome,
// implementing pkg/worker.Job the same way apnspool.tokenJob does.
type chunkJob struct {
	id      uint64
	ctx     context.Context
	client  fcm.Client
	message *fcm.MulticastMessage
	out     fcm.MulticastBatchResult
	err     error
	done    *sync.WaitGroup
}

func (j *chunkJob) ID() uint64               { return j.id }
func (j *chunkJob) Context() context.Context { return j.ctx }
func (j *chunkJob) PreExecute() error        { return nil }
func (j *chunkJob) Execute() error {
	out, err := j.client.SendMulticast(j.ctx, j.message)
	j.out = out
	j.err = err
	return err
}
func (j *chunkJob) PostExecute(_ error) { j.done.Done() }

func (p *Pool) Send(ctx context.Context, clientID string, serviceAccountJSON string, tokens []string, req notifyvalidate.Request) (SendResult, error) {
	client, err := p.get(ctx, clientID, serviceAccountJSON)
	if err != nil {
		return SendResult{}, err
	}

	message := buildMessage(req)
	result := SendResult{Requested: len(tokens)}

	var wg sync.WaitGroup
	var jobs []*chunkJob

	for start := 0; start < len(tokens); start += chunkSize {
		end := start + chunkSize
		if end > len(tokens) {
			end = len(tokens)
		}

		chunkMsg := *message
		chunkMsg.Tokens = tokens[start:end]

		wg.Add(1)
		job := &chunkJob{
			id:      atomic.AddUint64(&jobIDCounter, 1),
			ctx:     ctx,
			client:  client,
			message: &chunkMsg,
			done:    &wg,
		}
		jobs = append(jobs, job)
		p.workers.AddJob(job)
	}

	wg.Wait()

	for _, job := range jobs {
		if job.err != nil {
			result.Failed += len(job.message.Tokens)
			continue
		}

		result.Sent += job.out.SuccessCount
		result.Failed += job.out.FailureCount

		for i, r := range job.out.Responses {
			if r.Invalid && i < len(job.message.Tokens) {
				result.InvalidTokens = append(result.InvalidTokens, job.message.Tokens[i])
			}
		}
	}

	if result.InvalidTokens == nil {
		result.InvalidTokens = []string{}
	}

	return result, nil
}
