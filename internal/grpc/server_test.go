package grpc

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/mr1hm/go-landcover-timeline/internal/loader"
	"github.com/mr1hm/go-landcover-timeline/internal/metrics"
	"github.com/mr1hm/go-landcover-timeline/internal/models"
	"github.com/mr1hm/go-landcover-timeline/internal/stats"
	"github.com/mr1hm/go-landcover-timeline/internal/timeline"
)

type testEnv struct {
	controller  *timeline.Controller
	broadcaster *Broadcaster
	conn        *grpc.ClientConn
}

func startTestServer(t *testing.T, agg *metrics.Aggregator) *testEnv {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	controller := timeline.NewController(models.YearRange{First: 2010, Last: 2014})
	broadcaster := NewBroadcaster()
	srv := NewServer(controller, agg, broadcaster)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(lis)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.ForceCodec(Codec)),
	)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
		broadcaster.Close()
		srv.Stop()
		<-done
	})

	return &testEnv{controller: controller, broadcaster: broadcaster, conn: conn}
}

func testAggregator(t *testing.T) *metrics.Aggregator {
	t.Helper()
	tbl, err := stats.NewTable(map[int][]models.LandCoverRecord{
		2010: {{CategoryCode: 1, TotalLandCoverHectares: 100, BurnedHectares: 10}},
		2012: {{CategoryCode: 1, TotalLandCoverHectares: 80, BurnedHectares: 30}},
	})
	if err != nil {
		t.Fatalf("failed to build table: %v", err)
	}
	return metrics.NewAggregator(tbl, stats.NewPopulationTable(nil), 2010)
}

func readyResult() *loader.Result {
	return &loader.Result{
		PassID: "pass-1",
		Years:  models.YearRange{First: 2010, Last: 2014},
		Units: map[int]models.RenderableUnit{
			2012: {Year: 2012, Layers: []string{"landcover_2012", "burn_2012"}, Content: "<div>2012</div>"},
		},
		Failures: []*models.LayerFetchError{{Year: 2013, Err: errors.New("boom")}},
	}
}

func TestServer_GetSnapshotWhileLoading(t *testing.T) {
	env := startTestServer(t, nil)

	var resp SnapshotResponse
	err := env.conn.Invoke(context.Background(), GetSnapshotMethod, &SnapshotRequest{}, &resp)
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}

	if !resp.Snapshot.Loading || resp.Snapshot.State != timeline.StateLoading {
		t.Errorf("expected loading snapshot, got %+v", resp.Snapshot)
	}
	if resp.Snapshot.CurrentYear != 2010 {
		t.Errorf("expected current year 2010, got %d", resp.Snapshot.CurrentYear)
	}
	if resp.Content != "" {
		t.Errorf("expected no content while loading, got %q", resp.Content)
	}
}

func TestServer_GetSnapshotSelectsIndex(t *testing.T) {
	env := startTestServer(t, testAggregator(t))
	env.controller.MarkReady(readyResult())

	index := 2
	var resp SnapshotResponse
	err := env.conn.Invoke(context.Background(), GetSnapshotMethod, &SnapshotRequest{Index: &index}, &resp)
	if err != nil {
		t.Fatalf("GetSnapshot failed: %v", err)
	}

	if resp.Snapshot.CurrentYear != 2012 {
		t.Errorf("expected current year 2012, got %d", resp.Snapshot.CurrentYear)
	}
	if resp.Content != "<div>2012</div>" {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.Snapshot.Metrics == nil {
		t.Fatalf("expected metrics, got error %q", resp.Snapshot.MetricsError)
	}
	if resp.Snapshot.Metrics.PercentDeforestation != 20 {
		t.Errorf("expected 20%% deforestation, got %v", resp.Snapshot.Metrics.PercentDeforestation)
	}
	if len(resp.Snapshot.FailedYears) != 1 || resp.Snapshot.FailedYears[0] != 2013 {
		t.Errorf("expected failed years [2013], got %v", resp.Snapshot.FailedYears)
	}
	if env.controller.SelectedIndex() != 2 {
		t.Errorf("expected controller index 2, got %d", env.controller.SelectedIndex())
	}
}

func openEventStream(t *testing.T, ctx context.Context, conn *grpc.ClientConn) grpc.ClientStream {
	t.Helper()
	stream, err := conn.NewStream(ctx, &ServiceDesc.Streams[0], StreamLoadEventsMethod)
	if err != nil {
		t.Fatalf("failed to open stream: %v", err)
	}
	if err := stream.SendMsg(&StreamRequest{}); err != nil {
		t.Fatalf("failed to send request: %v", err)
	}
	if err := stream.CloseSend(); err != nil {
		t.Fatalf("failed to close send: %v", err)
	}
	return stream
}

func TestServer_StreamLoadEvents(t *testing.T) {
	env := startTestServer(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream := openEventStream(t, ctx, env.conn)

	deadline := time.Now().Add(2 * time.Second)
	for env.broadcaster.SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("stream never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	env.broadcaster.Publish(loader.Event{PassID: "pass-1", Type: loader.EventFetched, Year: 2010, Loaded: 1, Total: 5})
	env.broadcaster.Publish(loader.Event{PassID: "pass-1", Type: loader.EventComplete, Loaded: 1, Failed: 4, Total: 5})

	var got []loader.Event
	for {
		var e loader.Event
		err := stream.RecvMsg(&e)
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("RecvMsg failed: %v", err)
		}
		got = append(got, e)
	}

	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Type != loader.EventFetched || got[0].Year != 2010 {
		t.Errorf("unexpected first event: %+v", got[0])
	}
	if got[1].Type != loader.EventComplete || got[1].Failed != 4 {
		t.Errorf("unexpected final event: %+v", got[1])
	}
}

func TestServer_StreamLoadEventsAfterReady(t *testing.T) {
	env := startTestServer(t, nil)
	env.controller.MarkReady(readyResult())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	stream := openEventStream(t, ctx, env.conn)

	var e loader.Event
	if err := stream.RecvMsg(&e); err != nil {
		t.Fatalf("RecvMsg failed: %v", err)
	}
	if e.Type != loader.EventComplete || e.PassID != "pass-1" {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.Loaded != 1 || e.Failed != 1 || e.Total != 5 {
		t.Errorf("unexpected counts: %+v", e)
	}

	if err := stream.RecvMsg(&e); err != io.EOF {
		t.Errorf("expected EOF after complete event, got %v", err)
	}
}
