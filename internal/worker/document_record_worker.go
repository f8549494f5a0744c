package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kataras/golog"
	amqp "github.com/rabbitmq/amqp091-go"

	"memoryai/internal/model"
	"memoryai/internal/repository"
)

// DocumentRecordWorker consumes ingested-document events and persists the
// catalog rows. Losing a row costs listing completeness, never retrieval.
type DocumentRecordWorker struct {
	conn      *amqp.Connection
	repo      *repository.DocumentRepository
	queueName string

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDocumentRecordWorker(conn *amqp.Connection, repo *repository.DocumentRepository, queueName string) *DocumentRecordWorker {
	return &DocumentRecordWorker{
		conn:      conn,
		repo:      repo,
		queueName: queueName,
	}
}

func (w *DocumentRecordWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		w.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		w.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var doc model.Document
				if err := json.Unmarshal(d.Body, &doc); err != nil {
					golog.Errorf("worker decode document failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				if err := w.repo.Upsert(&doc); err != nil {
					golog.Errorf("worker persist document failed: %v", err)
					_ = d.Nack(false, false)
					continue
				}

				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *DocumentRecordWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
