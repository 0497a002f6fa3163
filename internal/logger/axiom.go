package logger

import (
	"context"
	"sync"
	"time"

	"github.com/axiomhq/axiom-go/axiom"
	"github.com/axiomhq/axiom-go/axiom/ingest"

	"github.com/local/scan2pdf/internal/config"
)

// axiomForwarder batches zerolog JSON lines and ships them to Axiom.
// Debug events are dropped; the channel is bounded so slow ingestion
// never blocks the conversion run.
type axiomForwarder struct {
	client  *axiom.Client
	dataset string
	ch      chan axiom.Event
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

func newAxiomForwarder(ac config.AxiomConfig) (*axiomForwarder, error) {
	opts := []axiom.Option{axiom.SetToken(ac.APIKey)}
	if ac.OrgID != "" {
		opts = append(opts, axiom.SetOrganizationID(ac.OrgID))
	}
	c, err := axiom.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	f := &axiomForwarder{
		client:  c,
		dataset: ac.Dataset,
		ch:      make(chan axiom.Event, 1000),
		cancel:  cancel,
	}
	flushEvery := ac.FlushInterval
	if flushEvery <= 0 {
		flushEvery = 10 * time.Second
	}
	f.wg.Add(1)
	go f.loop(ctx, flushEvery)
	return f, nil
}

// Write implements io.Writer for use as a zerolog output.
func (f *axiomForwarder) Write(p []byte) (int, error) {
	ev := decodeEvent(p)
	if lvl, ok := ev["level"].(string); ok && lvl == "debug" {
		return len(p), nil
	}
	ev["service"] = "scan2pdf"
	if _, ok := ev[ingest.TimestampField]; !ok {
		ev[ingest.TimestampField] = time.Now()
	}
	select {
	case f.ch <- axiom.Event(ev):
	default:
		// drop if buffer full
	}
	return len(p), nil
}

func (f *axiomForwarder) loop(ctx context.Context, flushEvery time.Duration) {
	defer f.wg.Done()
	ticker := time.NewTicker(flushEvery)
	defer ticker.Stop()
	batch := make([]axiom.Event, 0, 200)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ictx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		_, _ = f.client.IngestEvents(ictx, f.dataset, batch)
		cancel()
		batch = batch[:0]
	}
	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-ticker.C:
			flush()
		case ev := <-f.ch:
			batch = append(batch, ev)
			if len(batch) >= 200 {
				flush()
			}
		}
	}
}

func (f *axiomForwarder) Close() error {
	f.cancel()
	f.wg.Wait()
	return nil
}
