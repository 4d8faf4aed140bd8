package usecase

import (
	"context"

	"GeoPulse/internal/domain/models"
	drepo "GeoPulse/internal/domain/repository"
	mid "GeoPulse/internal/middleware"
)

// ContractCollector consumes the live contract price stream and records
// every reading between refresh cycles, so baselines see intra-cycle
// movement instead of one sample per rebuild.
type ContractCollector struct {
	stream  drepo.ContractStream
	rec     *ObservationRecorder
	metrics drepo.Metrics
	pipe    *mid.ObservationPipeline
}

// NewContractCollector creates a new ContractCollector instance.
func NewContractCollector(stream drepo.ContractStream, rec *ObservationRecorder, metrics drepo.Metrics, pipe *mid.ObservationPipeline) *ContractCollector {
	return &ContractCollector{stream: stream, rec: rec, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the contract stream is connected.
func (c *ContractCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *ContractCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	obCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, obCh, errCh)
	return nil
}

func (c *ContractCollector) consume(ctx context.Context, obCh <-chan *models.Observation, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if ok && err == nil {
				continue
			}
			if err != nil {
				c.metrics.RecordError("stream")
			}
			// The reader goroutine exits after any failure and closes
			// both channels; selecting on them again would spin. Open a
			// fresh read loop once the stream is back.
			obCh, errCh = c.restart(ctx)
			if obCh == nil {
				return
			}
		case o, ok := <-obCh:
			if !ok {
				obCh = nil // drained; the errCh case drives the restart
				continue
			}
			if o == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, o)
			} else {
				_ = c.rec.Process(ctx, o)
			}
		}
	}
}

// restart reconnects until it succeeds or the context ends, then opens
// a fresh read loop. Reconnect paces retries with the stream's delay.
func (c *ContractCollector) restart(ctx context.Context) (<-chan *models.Observation, <-chan error) {
	for ctx.Err() == nil {
		if err := c.stream.Reconnect(ctx); err != nil {
			c.metrics.RecordError("stream_reconnect")
			continue
		}
		return c.stream.Read(ctx)
	}
	return nil, nil
}

func (c *ContractCollector) Stop() error { return c.stream.Close() }

// Recorder returns the underlying ObservationRecorder for lifecycle
// management.
func (c *ContractCollector) Recorder() *ObservationRecorder { return c.rec }

// Shutdown stops the pipeline and closes the stream.
func (c *ContractCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
