// Package dynamodb implements the graph store over a single DynamoDB
// table. Each graph is one partition: nodes and edges share the graph's
// partition key and are distinguished by their sort key prefix.
package dynamodb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"mindweave-backend/application/ports"
	"mindweave-backend/domain/core/aggregates"
	"mindweave-backend/domain/core/entities"
	pkgerrors "mindweave-backend/pkg/errors"
)

// batchWriteLimit is the DynamoDB cap on items per BatchWriteItem call
const batchWriteLimit = 25

// DynamoDBAPI is the subset of the DynamoDB client the store uses,
// extracted so tests can stub the transport.
type DynamoDBAPI interface {
	Query(ctx context.Context, params *awsdynamodb.QueryInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, params *awsdynamodb.BatchWriteItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.BatchWriteItemOutput, error)
}

// GraphStore implements ports.GraphStore using DynamoDB
type GraphStore struct {
	client    DynamoDBAPI
	tableName string
	logger    *zap.Logger
}

var _ ports.GraphStore = (*GraphStore)(nil)

// NewGraphStore creates a DynamoDB-backed graph store
func NewGraphStore(client DynamoDBAPI, tableName string, logger *zap.Logger) *GraphStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GraphStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// nodeItem represents the DynamoDB item structure for a concept node
type nodeItem struct {
	PK         string    `dynamodbav:"PK"`
	SK         string    `dynamodbav:"SK"`
	EntityType string    `dynamodbav:"EntityType"`
	NodeID     string    `dynamodbav:"NodeID"`
	Name       string    `dynamodbav:"Name"`
	Weight     float64   `dynamodbav:"Weight"`
	Generated  bool      `dynamodbav:"Generated"`
	DepthLevel int       `dynamodbav:"DepthLevel"`
	Embedding  []float32 `dynamodbav:"Embedding,omitempty"`
	CreatedAt  string    `dynamodbav:"CreatedAt"`
}

// edgeItem represents the DynamoDB item structure for an edge
type edgeItem struct {
	PK         string  `dynamodbav:"PK"`
	SK         string  `dynamodbav:"SK"`
	EntityType string  `dynamodbav:"EntityType"`
	SourceID   string  `dynamodbav:"SourceID"`
	TargetID   string  `dynamodbav:"TargetID"`
	Weight     float64 `dynamodbav:"Weight"`
	Generated  bool    `dynamodbav:"Generated"`
	CreatedAt  string  `dynamodbav:"CreatedAt"`
}

// FetchGraph loads all nodes and edges for an owner and context. Missing
// graphs are returned empty.
func (s *GraphStore) FetchGraph(ctx context.Context, ownerID, contextRef string) (*aggregates.Graph, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(graphPK(ownerID, contextRef)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, pkgerrors.NewInternal("failed to build graph query", err)
	}

	graph := aggregates.NewGraph(ownerID, contextRef)
	var pendingEdges []entities.Edge

	var lastEvaluatedKey map[string]types.AttributeValue
	for {
		input := &awsdynamodb.QueryInput{
			TableName:                 aws.String(s.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastEvaluatedKey,
		}

		output, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, pkgerrors.NewInternal(fmt.Sprintf("failed to query graph %s", contextRef), err)
		}

		for _, item := range output.Items {
			entityType := attributeString(item, "EntityType")
			switch entityType {
			case "NODE":
				node, err := unmarshalNode(item)
				if err != nil {
					return nil, err
				}
				if err := graph.AddNode(node); err != nil {
					return nil, pkgerrors.Wrap(err, fmt.Sprintf("stored graph %s is inconsistent", contextRef))
				}
			case "EDGE":
				edge, err := unmarshalEdge(item)
				if err != nil {
					return nil, err
				}
				pendingEdges = append(pendingEdges, edge)
			default:
				s.logger.Warn("Skipping unknown item type in graph partition",
					zap.String("context_ref", contextRef),
					zap.String("entity_type", entityType))
			}
		}

		lastEvaluatedKey = output.LastEvaluatedKey
		if len(lastEvaluatedKey) == 0 {
			break
		}
	}

	// Edges apply after all nodes so order within the partition is moot
	for _, edge := range pendingEdges {
		if err := graph.AddEdge(edge); err != nil {
			return nil, pkgerrors.Wrap(err, fmt.Sprintf("stored graph %s is inconsistent", contextRef))
		}
	}

	return graph, nil
}

// Persist appends newly generated nodes and edges to the stored graph
func (s *GraphStore) Persist(ctx context.Context, ownerID, contextRef string, nodes []*entities.Node, edges []entities.Edge) error {
	pk := graphPK(ownerID, contextRef)
	writes := make([]types.WriteRequest, 0, len(nodes)+len(edges))

	for _, node := range nodes {
		item := nodeItem{
			PK:         pk,
			SK:         fmt.Sprintf("NODE#%s", node.ID()),
			EntityType: "NODE",
			NodeID:     node.ID(),
			Name:       node.Name(),
			Weight:     node.Weight(),
			Generated:  node.Generated(),
			DepthLevel: node.DepthLevel(),
			Embedding:  node.Embedding(),
			CreatedAt:  node.CreatedAt().Format(time.RFC3339),
		}
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return pkgerrors.NewInternal("failed to marshal node", err)
		}
		writes = append(writes, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
	}

	for _, edge := range edges {
		item := edgeItem{
			PK:         pk,
			SK:         fmt.Sprintf("EDGE#%s#%s", edge.SourceID, edge.TargetID),
			EntityType: "EDGE",
			SourceID:   edge.SourceID,
			TargetID:   edge.TargetID,
			Weight:     edge.Weight,
			Generated:  edge.Generated,
			CreatedAt:  edge.CreatedAt.Format(time.RFC3339),
		}
		av, err := attributevalue.MarshalMap(item)
		if err != nil {
			return pkgerrors.NewInternal("failed to marshal edge", err)
		}
		writes = append(writes, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
	}

	for start := 0; start < len(writes); start += batchWriteLimit {
		end := start + batchWriteLimit
		if end > len(writes) {
			end = len(writes)
		}
		if err := s.writeBatch(ctx, writes[start:end]); err != nil {
			return err
		}
	}

	s.logger.Info("Persisted graph growth",
		zap.String("owner_id", ownerID),
		zap.String("context_ref", contextRef),
		zap.Int("nodes", len(nodes)),
		zap.Int("edges", len(edges)))
	return nil
}

// writeBatch sends one batch and retries any unprocessed items
func (s *GraphStore) writeBatch(ctx context.Context, writes []types.WriteRequest) error {
	pending := writes
	for attempt := 0; len(pending) > 0; attempt++ {
		if attempt >= 5 {
			return pkgerrors.NewInternal(fmt.Sprintf("%d items still unprocessed after retries", len(pending)), nil)
		}
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt*attempt) * 50 * time.Millisecond):
			case <-ctx.Done():
				return pkgerrors.Wrap(ctx.Err(), "batch write interrupted")
			}
		}

		output, err := s.client.BatchWriteItem(ctx, &awsdynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				s.tableName: pending,
			},
		})
		if err != nil {
			return pkgerrors.NewInternal("batch write failed", err)
		}
		pending = output.UnprocessedItems[s.tableName]
	}
	return nil
}

func unmarshalNode(item map[string]types.AttributeValue) (*entities.Node, error) {
	var stored nodeItem
	if err := attributevalue.UnmarshalMap(item, &stored); err != nil {
		return nil, pkgerrors.NewInternal("failed to unmarshal node item", err)
	}
	node, err := entities.NewNode(stored.NodeID, stored.Name, stored.Weight, stored.Generated, stored.DepthLevel)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "stored node is invalid")
	}
	node.AttachEmbedding(stored.Embedding)
	return node, nil
}

func unmarshalEdge(item map[string]types.AttributeValue) (entities.Edge, error) {
	var stored edgeItem
	if err := attributevalue.UnmarshalMap(item, &stored); err != nil {
		return entities.Edge{}, pkgerrors.NewInternal("failed to unmarshal edge item", err)
	}
	edge, err := entities.NewEdge(stored.SourceID, stored.TargetID, stored.Weight, stored.Generated)
	if err != nil {
		return entities.Edge{}, pkgerrors.Wrap(err, "stored edge is invalid")
	}
	return edge, nil
}

func attributeString(item map[string]types.AttributeValue, key string) string {
	if av, ok := item[key].(*types.AttributeValueMemberS); ok {
		return av.Value
	}
	return ""
}

func graphPK(ownerID, contextRef string) string {
	return fmt.Sprintf("GRAPH#%s#%s", ownerID, contextRef)
}
