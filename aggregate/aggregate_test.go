package aggregate_test

import (
	"strings"
	"testing"

	"github.com/smelt-io/smelt/aggregate"
	"github.com/smelt-io/smelt/stream"
	"github.com/smelt-io/smelt/types"
)

func TestAggregator_Document(t *testing.T) {
	input := strings.Join([]string{
		"0,,ui,say,starting",
		"1,b1,artifact-count,1",
		"2,b1,artifact,0,builder-id,pkgA",
		"3,b1,artifact,0,id,",
		"4,b1,artifact,0,string,desc",
		"5,b1,artifact,0,files-count,1",
		"6,b1,artifact,0,file,0,out.bin",
		"7,b1,artifact,0,end",
		"8,,ui,error,warning noise",
	}, "\n")

	agg := aggregate.New()
	engine := stream.NewEngine(strings.NewReader(input), agg.Add, stream.Config{})
	if err := engine.Run(t.Context()); err != nil {
		t.Fatalf("run: %v", err)
	}

	doc := agg.Document()
	if len(doc.Builds) != 1 {
		t.Fatalf("builds = %d, want 1", len(doc.Builds))
	}
	build := doc.Builds[0]
	if build.Name != "b1" || build.CompletedAt != "7" {
		t.Errorf("build = %s@%s, want b1@7", build.Name, build.CompletedAt)
	}
	if len(build.Artifacts) != 1 || build.Artifacts[0].BuilderID != "pkgA" {
		t.Errorf("artifacts = %+v", build.Artifacts)
	}

	if len(doc.Messages) != 2 {
		t.Fatalf("messages = %d, want 2", len(doc.Messages))
	}
	if doc.Messages[0].Level != types.UILevelSay || doc.Messages[1].Level != types.UILevelError {
		t.Errorf("message levels = %s, %s", doc.Messages[0].Level, doc.Messages[1].Level)
	}
}

func TestAggregator_EmptyDocumentHasEmptyLists(t *testing.T) {
	doc := aggregate.New().Document()
	if doc.Builds == nil || doc.Messages == nil {
		t.Errorf("empty document should render as empty lists, got %+v", doc)
	}
}

func TestAggregator_ArtifactEventsNotDuplicated(t *testing.T) {
	agg := aggregate.New()
	agg.Add(types.NewArtifactEvent("1", "b1", types.Artifact{BuilderID: "pkgA", Files: []string{}}))

	doc := agg.Document()
	if len(doc.Builds) != 0 || len(doc.Messages) != 0 {
		t.Errorf("artifact event should not appear standalone, got %+v", doc)
	}
}
