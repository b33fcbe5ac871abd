package rag

import (
	"context"
	"fmt"

	qdrantclient "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/koopa0/guardian/internal/log"
)

// Point is one (id, vector, payload) triple stored in the index.
type Point struct {
	ID      uint64
	Vector  []float32
	Payload map[string]string
}

// Hit is one nearest-neighbor search result.
type Hit struct {
	ID      uint64
	Score   float32
	Payload map[string]string
}

// Index stores points and answers top-k cosine similarity queries.
//
// Implementations wrap failures with ErrIndexUnavailable. Querying an empty
// collection returns an empty slice, not an error.
type Index interface {
	// EnsureCollection is idempotent setup: creates the collection when
	// missing, recreates it when the existing vector dimension does not
	// match, and is a no-op otherwise.
	EnsureCollection(ctx context.Context) error

	// Upsert inserts or overwrites the given points in one batch. The batch
	// is not transactional; partial application on failure is surfaced as
	// an error, never swallowed.
	Upsert(ctx context.Context, points []Point) error

	// Query returns at most topK hits ordered by descending cosine score.
	Query(ctx context.Context, vector []float32, topK int) ([]Hit, error)
}

// DialQdrant opens a gRPC connection to a Qdrant server.
// The caller owns the connection and closes it on shutdown.
func DialQdrant(host string, port int) (*grpc.ClientConn, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("connecting to Qdrant at %s: %w", addr, err)
	}
	return conn, nil
}

// QdrantIndex implements Index backed by a Qdrant collection.
//
// QdrantIndex is safe for concurrent use. Upserts and queries have no
// cross-call atomicity: a query concurrent with an upsert may or may not
// see the new points.
type QdrantIndex struct {
	collections qdrantclient.CollectionsClient
	points      qdrantclient.PointsClient
	collection  string
	dimension   uint64
	logger      log.Logger
}

// NewQdrantIndex creates an index over the named collection.
// The clients are typically created from one shared connection:
//
//	conn, err := rag.DialQdrant(cfg.QdrantHost, cfg.QdrantPort)
//	idx := rag.NewQdrantIndex(
//	    qdrantclient.NewCollectionsClient(conn),
//	    qdrantclient.NewPointsClient(conn),
//	    cfg.QdrantCollection, rag.VectorDimension, logger)
func NewQdrantIndex(
	collections qdrantclient.CollectionsClient,
	points qdrantclient.PointsClient,
	collection string,
	dimension int,
	logger log.Logger,
) *QdrantIndex {
	return &QdrantIndex{
		collections: collections,
		points:      points,
		collection:  collection,
		dimension:   uint64(dimension), // #nosec G115 -- dimension is a small positive constant
		logger:      logger,
	}
}

// EnsureCollection creates the collection if it doesn't already exist.
//
// If an existing collection has the wrong vector size (e.g. 384 from a
// previous embedding model), it is deleted and recreated with the correct
// dimension. Stale incompatible collections are never silently reused.
func (q *QdrantIndex) EnsureCollection(ctx context.Context) error {
	listResp, err := q.collections.List(ctx, &qdrantclient.ListCollectionsRequest{})
	if err != nil {
		return fmt.Errorf("%w: listing collections: %v", ErrIndexUnavailable, err)
	}

	exists := false
	for _, col := range listResp.GetCollections() {
		if col.GetName() == q.collection {
			exists = true
			break
		}
	}

	if exists {
		info, err := q.collections.Get(ctx, &qdrantclient.GetCollectionInfoRequest{
			CollectionName: q.collection,
		})
		if err != nil {
			return fmt.Errorf("%w: inspecting collection %q: %v", ErrIndexUnavailable, q.collection, err)
		}

		existingSize := info.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
		if existingSize == q.dimension {
			q.logger.Debug("collection exists with correct dimension",
				"collection", q.collection, "dimension", q.dimension)
			return nil
		}

		q.logger.Warn("collection has wrong vector dimension, recreating",
			"collection", q.collection,
			"existing", existingSize,
			"expected", q.dimension)

		if _, err := q.collections.Delete(ctx, &qdrantclient.DeleteCollection{
			CollectionName: q.collection,
		}); err != nil {
			return fmt.Errorf("%w: deleting stale collection %q: %v", ErrIndexUnavailable, q.collection, err)
		}
	}

	_, err = q.collections.Create(ctx, &qdrantclient.CreateCollection{
		CollectionName: q.collection,
		VectorsConfig: &qdrantclient.VectorsConfig{
			Config: &qdrantclient.VectorsConfig_Params{
				Params: &qdrantclient.VectorParams{
					Size:     q.dimension,
					Distance: qdrantclient.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("%w: creating collection %q: %v", ErrIndexUnavailable, q.collection, err)
	}

	q.logger.Info("created collection", "collection", q.collection, "dimension", q.dimension)
	return nil
}

// Upsert inserts or overwrites the given points in one batch.
func (q *QdrantIndex) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}

	structs := make([]*qdrantclient.PointStruct, 0, len(points))
	for _, p := range points {
		payload := make(map[string]*qdrantclient.Value, len(p.Payload))
		for k, v := range p.Payload {
			payload[k] = &qdrantclient.Value{
				Kind: &qdrantclient.Value_StringValue{StringValue: v},
			}
		}

		structs = append(structs, &qdrantclient.PointStruct{
			Id: &qdrantclient.PointId{
				PointIdOptions: &qdrantclient.PointId_Num{Num: p.ID},
			},
			Vectors: &qdrantclient.Vectors{
				VectorsOptions: &qdrantclient.Vectors_Vector{
					Vector: &qdrantclient.Vector{Data: p.Vector},
				},
			},
			Payload: payload,
		})
	}

	wait := true
	_, err := q.points.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: q.collection,
		Points:         structs,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("%w: upserting %d points: %v", ErrIndexUnavailable, len(points), err)
	}

	q.logger.Debug("upserted points", "collection", q.collection, "count", len(points))
	return nil
}

// Query returns at most topK hits ordered by descending cosine score.
func (q *QdrantIndex) Query(ctx context.Context, vector []float32, topK int) ([]Hit, error) {
	if topK <= 0 {
		return nil, nil
	}

	resp, err := q.points.Search(ctx, &qdrantclient.SearchPoints{
		CollectionName: q.collection,
		Vector:         vector,
		Limit:          uint64(topK), // #nosec G115 -- topK validated positive above
		WithPayload: &qdrantclient.WithPayloadSelector{
			SelectorOptions: &qdrantclient.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: searching collection %q: %v", ErrIndexUnavailable, q.collection, err)
	}

	hits := make([]Hit, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		payload := make(map[string]string, len(point.GetPayload()))
		for k, v := range point.GetPayload() {
			payload[k] = v.GetStringValue()
		}
		hits = append(hits, Hit{
			ID:      point.GetId().GetNum(),
			Score:   point.GetScore(),
			Payload: payload,
		})
	}

	return hits, nil
}
