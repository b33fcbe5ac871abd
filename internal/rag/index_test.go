package rag

import (
	"context"
	"errors"
	"testing"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"

	"github.com/koopa0/guardian/internal/log"
)

// fakeCollectionsClient embeds the generated interface so only the methods
// exercised here need overriding.
type fakeCollectionsClient struct {
	qdrantclient.CollectionsClient

	existing     []string
	existingSize uint64
	listErr      error
	createCalls  int
	deleteCalls  int
	lastCreated  *qdrantclient.CreateCollection
	lastDeleted  string
}

func (f *fakeCollectionsClient) List(context.Context, *qdrantclient.ListCollectionsRequest, ...grpc.CallOption) (*qdrantclient.ListCollectionsResponse, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	cols := make([]*qdrantclient.CollectionDescription, 0, len(f.existing))
	for _, name := range f.existing {
		cols = append(cols, &qdrantclient.CollectionDescription{Name: name})
	}
	return &qdrantclient.ListCollectionsResponse{Collections: cols}, nil
}

func (f *fakeCollectionsClient) Get(_ context.Context, _ *qdrantclient.GetCollectionInfoRequest, _ ...grpc.CallOption) (*qdrantclient.GetCollectionInfoResponse, error) {
	return &qdrantclient.GetCollectionInfoResponse{
		Result: &qdrantclient.CollectionInfo{
			Config: &qdrantclient.CollectionConfig{
				Params: &qdrantclient.CollectionParams{
					VectorsConfig: &qdrantclient.VectorsConfig{
						Config: &qdrantclient.VectorsConfig_Params{
							Params: &qdrantclient.VectorParams{
								Size:     f.existingSize,
								Distance: qdrantclient.Distance_Cosine,
							},
						},
					},
				},
			},
		},
	}, nil
}

func (f *fakeCollectionsClient) Create(_ context.Context, in *qdrantclient.CreateCollection, _ ...grpc.CallOption) (*qdrantclient.CollectionOperationResponse, error) {
	f.createCalls++
	f.lastCreated = in
	return &qdrantclient.CollectionOperationResponse{Result: true}, nil
}

func (f *fakeCollectionsClient) Delete(_ context.Context, in *qdrantclient.DeleteCollection, _ ...grpc.CallOption) (*qdrantclient.CollectionOperationResponse, error) {
	f.deleteCalls++
	f.lastDeleted = in.GetCollectionName()
	return &qdrantclient.CollectionOperationResponse{Result: true}, nil
}

type fakePointsClient struct {
	qdrantclient.PointsClient

	searchResult []*qdrantclient.ScoredPoint
	searchErr    error
	lastSearch   *qdrantclient.SearchPoints
	lastUpsert   *qdrantclient.UpsertPoints
	upsertErr    error
}

func (f *fakePointsClient) Upsert(_ context.Context, in *qdrantclient.UpsertPoints, _ ...grpc.CallOption) (*qdrantclient.PointsOperationResponse, error) {
	f.lastUpsert = in
	if f.upsertErr != nil {
		return nil, f.upsertErr
	}
	return &qdrantclient.PointsOperationResponse{}, nil
}

func (f *fakePointsClient) Search(_ context.Context, in *qdrantclient.SearchPoints, _ ...grpc.CallOption) (*qdrantclient.SearchResponse, error) {
	f.lastSearch = in
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return &qdrantclient.SearchResponse{Result: f.searchResult}, nil
}

func newTestIndex(collections *fakeCollectionsClient, points *fakePointsClient) *QdrantIndex {
	return NewQdrantIndex(collections, points, "guardian_incidents", VectorDimension, log.NewNop())
}

func TestEnsureCollectionCreatesWhenMissing(t *testing.T) {
	collections := &fakeCollectionsClient{existing: []string{"other_collection"}}
	idx := newTestIndex(collections, &fakePointsClient{})

	if err := idx.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection() error = %v", err)
	}

	if collections.createCalls != 1 {
		t.Fatalf("create calls = %d, want 1", collections.createCalls)
	}
	if collections.deleteCalls != 0 {
		t.Errorf("delete calls = %d, want 0", collections.deleteCalls)
	}

	created := collections.lastCreated
	if created.GetCollectionName() != "guardian_incidents" {
		t.Errorf("created collection = %q", created.GetCollectionName())
	}
	params := created.GetVectorsConfig().GetParams()
	if params.GetSize() != VectorDimension {
		t.Errorf("vector size = %d, want %d", params.GetSize(), VectorDimension)
	}
	if params.GetDistance() != qdrantclient.Distance_Cosine {
		t.Errorf("distance = %v, want cosine", params.GetDistance())
	}
}

func TestEnsureCollectionNoopWhenDimensionMatches(t *testing.T) {
	collections := &fakeCollectionsClient{
		existing:     []string{"guardian_incidents"},
		existingSize: VectorDimension,
	}
	idx := newTestIndex(collections, &fakePointsClient{})

	if err := idx.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection() error = %v", err)
	}
	if collections.createCalls != 0 || collections.deleteCalls != 0 {
		t.Errorf("create=%d delete=%d, want no-op", collections.createCalls, collections.deleteCalls)
	}
}

func TestEnsureCollectionRecreatesOnDimensionMismatch(t *testing.T) {
	collections := &fakeCollectionsClient{
		existing:     []string{"guardian_incidents"},
		existingSize: 384,
	}
	idx := newTestIndex(collections, &fakePointsClient{})

	if err := idx.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection() error = %v", err)
	}
	if collections.deleteCalls != 1 || collections.lastDeleted != "guardian_incidents" {
		t.Errorf("delete calls = %d (%q), want stale collection deleted",
			collections.deleteCalls, collections.lastDeleted)
	}
	if collections.createCalls != 1 {
		t.Errorf("create calls = %d, want 1", collections.createCalls)
	}
	if collections.lastCreated.GetVectorsConfig().GetParams().GetSize() != VectorDimension {
		t.Error("recreated collection must use the current dimension")
	}
}

func TestEnsureCollectionListError(t *testing.T) {
	collections := &fakeCollectionsClient{listErr: errors.New("unavailable")}
	idx := newTestIndex(collections, &fakePointsClient{})

	err := idx.EnsureCollection(context.Background())
	if !errors.Is(err, ErrIndexUnavailable) {
		t.Errorf("error = %v, want ErrIndexUnavailable", err)
	}
}

func TestQdrantUpsert(t *testing.T) {
	points := &fakePointsClient{}
	idx := newTestIndex(&fakeCollectionsClient{}, points)

	err := idx.Upsert(context.Background(), []Point{
		{ID: 3, Vector: testVector(1), Payload: map[string]string{"title": "T", "category": "API"}},
	})
	if err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	req := points.lastUpsert
	if req.GetCollectionName() != "guardian_incidents" {
		t.Errorf("collection = %q", req.GetCollectionName())
	}
	if req.Wait == nil || !*req.Wait {
		t.Error("upsert must wait for durability")
	}
	if len(req.GetPoints()) != 1 {
		t.Fatalf("points = %d, want 1", len(req.GetPoints()))
	}

	p := req.GetPoints()[0]
	if p.GetId().GetNum() != 3 {
		t.Errorf("point id = %d, want 3", p.GetId().GetNum())
	}
	if got := p.GetVectors().GetVector().GetData(); len(got) != VectorDimension {
		t.Errorf("vector length = %d, want %d", len(got), VectorDimension)
	}
	if p.GetPayload()["title"].GetStringValue() != "T" {
		t.Error("payload title not mapped to a string value")
	}
}

func TestQdrantUpsertEmpty(t *testing.T) {
	points := &fakePointsClient{}
	idx := newTestIndex(&fakeCollectionsClient{}, points)

	if err := idx.Upsert(context.Background(), nil); err != nil {
		t.Fatalf("Upsert(nil) error = %v", err)
	}
	if points.lastUpsert != nil {
		t.Error("empty batch must not reach the backend")
	}
}

func TestQdrantQuery(t *testing.T) {
	points := &fakePointsClient{
		searchResult: []*qdrantclient.ScoredPoint{
			{
				Id:    &qdrantclient.PointId{PointIdOptions: &qdrantclient.PointId_Num{Num: 3}},
				Score: 0.87,
				Payload: map[string]*qdrantclient.Value{
					"title": {Kind: &qdrantclient.Value_StringValue{StringValue: "API Gateway 503 Service Unavailable"}},
				},
			},
			{
				Id:    &qdrantclient.PointId{PointIdOptions: &qdrantclient.PointId_Num{Num: 12}},
				Score: 0.54,
			},
		},
	}
	idx := newTestIndex(&fakeCollectionsClient{}, points)

	hits, err := idx.Query(context.Background(), testVector(1), 3)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("len(hits) = %d, want 2", len(hits))
	}
	if hits[0].ID != 3 || hits[0].Score != 0.87 {
		t.Errorf("hits[0] = %+v", hits[0])
	}
	if hits[0].Payload["title"] != "API Gateway 503 Service Unavailable" {
		t.Errorf("payload title = %q", hits[0].Payload["title"])
	}

	req := points.lastSearch
	if req.GetLimit() != 3 {
		t.Errorf("limit = %d, want 3", req.GetLimit())
	}
	if !req.GetWithPayload().GetEnable() {
		t.Error("search must request payload")
	}
}

func TestQdrantQueryNonPositiveTopK(t *testing.T) {
	points := &fakePointsClient{}
	idx := newTestIndex(&fakeCollectionsClient{}, points)

	hits, err := idx.Query(context.Background(), testVector(1), 0)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if hits != nil {
		t.Errorf("hits = %v, want nil", hits)
	}
	if points.lastSearch != nil {
		t.Error("non-positive topK must not reach the backend")
	}
}

func TestQdrantQueryError(t *testing.T) {
	points := &fakePointsClient{searchErr: errors.New("unavailable")}
	idx := newTestIndex(&fakeCollectionsClient{}, points)

	_, err := idx.Query(context.Background(), testVector(1), 3)
	if !errors.Is(err, ErrIndexUnavailable) {
		t.Errorf("error = %v, want ErrIndexUnavailable", err)
	}
}
