// Package queue wraps the NATS connection used to announce batch-match
// progress. The matching engine itself never depends on this package —
// it is wired in by cmd/batchmatch as an optional ProgressReporter, the
// way the teacher's workers publish progress alongside (not inside)
// their core logic (internal/queue/nats.go, internal/workers/*.go).
package queue

import (
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// Manager handles the NATS connection and subject publishing.
type Manager struct {
	conn *nats.Conn
	url  string
}

// NewManager connects to NATS with the teacher's reconnect tolerance
// (internal/queue/nats.go): bounded reconnect attempts, logged
// disconnect/reconnect/close events, never a hard failure for transient
// connectivity loss once connected.
func NewManager(natsURL string) (*Manager, error) {
	options := []nats.Option{
		nats.Name("Red/Blue Batch Matcher"),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Printf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Println("NATS connection closed")
		}),
	}

	conn, err := nats.Connect(natsURL, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	log.Printf("Connected to NATS at %s", natsURL)

	return &Manager{conn: conn, url: natsURL}, nil
}

// Close closes the NATS connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}

// Publish publishes a message to a subject, swallowing the error beyond
// a log line — the engine's own correctness never depends on whether a
// progress announcement made it out.
func (m *Manager) Publish(subject string, data []byte) {
	if err := m.conn.Publish(subject, data); err != nil {
		log.Printf("NATS publish to %s failed: %v", subject, err)
	}
}

// Subject patterns for the batch-match domain, named after the
// teacher's snapshot.* convention (internal/queue/nats.go).
const (
	SubjectBatchStart    = "match.batch.start.%s"    // match.batch.start.{batchID}
	SubjectBillProgress  = "match.progress.%s"       // match.progress.{billID}
	SubjectBatchComplete = "match.batch.complete.%s" // match.batch.complete.{batchID}
	SubjectBillError     = "match.error.%s"          // match.error.{billID}
)

// GetBatchStartSubject returns the subject announcing a batch's start.
func GetBatchStartSubject(batchID string) string {
	return fmt.Sprintf(SubjectBatchStart, batchID)
}

// GetBillProgressSubject returns the per-bill progress subject.
func GetBillProgressSubject(billID string) string {
	return fmt.Sprintf(SubjectBillProgress, billID)
}

// GetBatchCompleteSubject returns the subject announcing a batch's
// completion.
func GetBatchCompleteSubject(batchID string) string {
	return fmt.Sprintf(SubjectBatchComplete, batchID)
}

// GetBillErrorSubject returns the per-bill error subject.
func GetBillErrorSubject(billID string) string {
	return fmt.Sprintf(SubjectBillError, billID)
}
