// Package webhook posts signed batch-completed notifications.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/use-agent/shelfprice/models"
)

// EventBatchCompleted is the only event type sent today.
const EventBatchCompleted = "batch.completed"

// SignatureHeader carries "sha256=<hex>" when a secret is configured.
const SignatureHeader = "X-Shelfprice-Signature"

// Event is the payload sent to the webhook endpoint.
type Event struct {
	Type      string                `json:"type"`
	BatchID   string                `json:"batch_id"`
	Timestamp int64                 `json:"timestamp"`
	Items     []string              `json:"items"`
	Results   []models.ResultRecord `json:"results"`
}

// Notifier delivers events to one endpoint. A nil *Notifier drops events.
type Notifier struct {
	url    string
	secret string
	client *http.Client

	// retryDelays precede each attempt; the first is normally zero.
	retryDelays []time.Duration

	wg sync.WaitGroup
}

// New returns a Notifier for url, or nil when url is empty.
func New(url, secret string) *Notifier {
	if url == "" {
		return nil
	}
	return &Notifier{
		url:         url,
		secret:      secret,
		client:      &http.Client{Timeout: 10 * time.Second},
		retryDelays: []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second},
	}
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Deliver sends an already encoded event once.
func (n *Notifier) Deliver(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Shelfprice-Webhook/1.0")
	if n.secret != "" {
		req.Header.Set(SignatureHeader, Sign(n.secret, body))
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// BatchCompleted encodes the batch and delivers it in the background,
// retrying on failure. It never blocks the caller on the network.
func (n *Notifier) BatchCompleted(batchID string, terms []string, results []models.ResultRecord) {
	if n == nil {
		return
	}
	body, err := json.Marshal(&Event{
		Type:      EventBatchCompleted,
		BatchID:   batchID,
		Timestamp: time.Now().Unix(),
		Items:     terms,
		Results:   results,
	})
	if err != nil {
		slog.Error("webhook: marshal event", "batch", batchID, "error", err)
		return
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.deliverWithRetry(batchID, body)
	}()
}

func (n *Notifier) deliverWithRetry(batchID string, body []byte) {
	for attempt, delay := range n.retryDelays {
		if delay > 0 {
			time.Sleep(delay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := n.Deliver(ctx, body)
		cancel()
		if err == nil {
			slog.Info("webhook delivered", "url", n.url, "batch", batchID, "attempt", attempt+1)
			return
		}
		slog.Warn("webhook delivery failed",
			"url", n.url,
			"batch", batchID,
			"attempt", attempt+1,
			"error", err,
		)
	}
	slog.Error("webhook delivery exhausted all retries", "url", n.url, "batch", batchID)
}

// Flush waits for in-flight deliveries or until ctx is done.
func (n *Notifier) Flush(ctx context.Context) error {
	if n == nil {
		return nil
	}
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
