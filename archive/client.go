package archive

import (
	"context"

	"github.com/justapithecus/lode/lode"

	"github.com/smelt-io/smelt/types"
)

// LodeClient is a Lode-backed implementation of Client. Records are
// written as maps so Lode's HiveLayout can extract partition keys.
type LodeClient struct {
	dataset lode.Dataset
	config  Config
}

// NewLodeClient creates a client with filesystem storage rooted at root.
func NewLodeClient(cfg Config, root string) (*LodeClient, error) {
	return NewLodeClientWithFactory(cfg, lode.NewFSFactory(root))
}

// NewLodeClientWithFactory creates a client with a custom store factory.
// Use lode.NewMemoryFactory() for testing.
func NewLodeClientWithFactory(cfg Config, factory lode.StoreFactory) (*LodeClient, error) {
	ds, err := lode.NewDataset(
		lode.DatasetID(cfg.Dataset),
		factory,
		lode.WithHiveLayout("source", "day", "kind"),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, WrapInitError(err, cfg.Dataset)
	}

	return &LodeClient{dataset: ds, config: cfg}, nil
}

// WriteEvents writes a batch of decoded events, partitioned by kind.
func (c *LodeClient) WriteEvents(ctx context.Context, events []types.Event) error {
	if len(events) == 0 {
		return nil
	}

	records := make([]any, 0, len(events))
	for _, e := range events {
		records = append(records, toEventRecord(e, c.config))
	}

	if _, err := c.dataset.Write(ctx, records, lode.Metadata{}); err != nil {
		return WrapWriteError(err, c.config.Dataset)
	}
	return nil
}

// Close releases dataset resources.
func (c *LodeClient) Close() error {
	return nil
}

// toEventRecord converts an Event to a map for Lode storage. Lode
// HiveLayout requires records as map[string]any; partition keys are
// embedded in each record.
func toEventRecord(e types.Event, cfg Config) map[string]any {
	m := map[string]any{
		"timestamp": e.Timestamp,
		"kind":      string(e.Kind),

		// Partition keys
		"source": cfg.Source,
		"day":    cfg.Day,
	}

	if e.BuildName != "" {
		m["build_name"] = e.BuildName
	}

	switch e.Kind {
	case types.EventKindMessage:
		m["level"] = string(e.Message.Level)
		m["text"] = e.Message.Text
	case types.EventKindArtifact:
		m["artifact"] = artifactRecord(*e.Artifact)
	case types.EventKindBuild:
		artifacts := make([]map[string]any, 0, len(e.Build.Artifacts))
		for _, a := range e.Build.Artifacts {
			artifacts = append(artifacts, artifactRecord(a))
		}
		m["artifacts"] = artifacts
	}

	return m
}

func artifactRecord(a types.Artifact) map[string]any {
	m := map[string]any{
		"builder_id":  a.BuilderID,
		"description": a.Description,
		"files":       a.Files,
	}
	if a.ID != nil {
		m["id"] = *a.ID
	}
	return m
}

var _ Client = (*LodeClient)(nil)
