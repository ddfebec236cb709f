package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ContactService projects duplicate scans into the graph: one (:Contact)
// node per grouped contact and a [:DUPLICATE_OF] edge from every group
// member to the group's primary contact, carrying match type and
// confidence.
type ContactService struct {
	client *Client
	logger ectologger.Logger
}

// NewContactService creates a new contact graph service
func NewContactService(client *Client, logger ectologger.Logger) *ContactService {
	return &ContactService{
		client: client,
		logger: logger,
	}
}

// ProjectScan replaces a tenant's duplicate graph with the given scan's
// groups. The previous projection is cleared first so stale edges from
// earlier runs don't linger.
func (s *ContactService) ProjectScan(ctx context.Context, result *models.DuplicateScanResult) error {
	ctx, span := tracing.StartSpan(ctx, "graph.ContactService.ProjectScan")
	defer span.End()

	log := s.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": result.TenantID,
		"run_id":    result.RunID,
	})

	_, err := s.client.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		clear, err := tx.Run(ctx, `
			MATCH (c:Contact {tenant_id: $tenant_id})
			DETACH DELETE c
		`, map[string]any{"tenant_id": result.TenantID})
		if err != nil {
			return nil, err
		}
		if _, err := clear.Consume(ctx); err != nil {
			return nil, err
		}

		for _, group := range result.Groups {
			primary := group.PrimaryContact()
			if primary == nil {
				continue
			}

			for _, member := range group.Members {
				res, err := tx.Run(ctx, `
					MERGE (c:Contact {id: $id, tenant_id: $tenant_id})
					SET c.full_name = $full_name,
					    c.organization = $organization,
					    c.run_id = $run_id
				`, map[string]any{
					"id":           member.ID,
					"tenant_id":    result.TenantID,
					"full_name":    member.DisplayName(),
					"organization": member.Organization,
					"run_id":       result.RunID,
				})
				if err != nil {
					return nil, err
				}
				if _, err := res.Consume(ctx); err != nil {
					return nil, err
				}

				if member.ID == primary.ID {
					continue
				}

				res, err = tx.Run(ctx, `
					MATCH (m:Contact {id: $member_id, tenant_id: $tenant_id})
					MATCH (p:Contact {id: $primary_id, tenant_id: $tenant_id})
					MERGE (m)-[r:DUPLICATE_OF]->(p)
					SET r.match_type = $match_type,
					    r.confidence = $confidence,
					    r.run_id = $run_id
				`, map[string]any{
					"member_id":  member.ID,
					"primary_id": primary.ID,
					"tenant_id":  result.TenantID,
					"match_type": string(group.MatchType),
					"confidence": group.Confidence,
					"run_id":     result.RunID,
				})
				if err != nil {
					return nil, err
				}
				if _, err := res.Consume(ctx); err != nil {
					return nil, err
				}
			}
		}

		return nil, nil
	})

	if err != nil {
		log.WithError(err).Error("Failed to project scan into graph")
		return fmt.Errorf("failed to project scan into graph: %w", err)
	}

	log.WithFields(map[string]any{"group_count": len(result.Groups)}).Debug("Projected scan into graph")
	return nil
}

// Neighbor is one contact reachable from a duplicate edge.
type Neighbor struct {
	ContactID  string  `json:"contact_id"`
	FullName   string  `json:"full_name"`
	MatchType  string  `json:"match_type"`
	Confidence float64 `json:"confidence"`
}

// GetDuplicateNeighborhood returns the contacts linked to the given
// contact by duplicate edges in either direction.
func (s *ContactService) GetDuplicateNeighborhood(ctx context.Context, tenantID, contactID string) ([]Neighbor, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.ContactService.GetDuplicateNeighborhood")
	defer span.End()

	records, err := s.client.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, `
			MATCH (c:Contact {id: $id, tenant_id: $tenant_id})-[r:DUPLICATE_OF]-(other:Contact)
			RETURN other.id AS contact_id, other.full_name AS full_name,
			       r.match_type AS match_type, r.confidence AS confidence
		`, map[string]any{
			"id":        contactID,
			"tenant_id": tenantID,
		})
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to read duplicate neighborhood")
		return nil, fmt.Errorf("failed to read duplicate neighborhood: %w", err)
	}

	neighbors := make([]Neighbor, 0)
	for _, record := range records.([]*neo4j.Record) {
		n := Neighbor{}
		if v, ok := record.Get("contact_id"); ok && v != nil {
			n.ContactID, _ = v.(string)
		}
		if v, ok := record.Get("full_name"); ok && v != nil {
			n.FullName, _ = v.(string)
		}
		if v, ok := record.Get("match_type"); ok && v != nil {
			n.MatchType, _ = v.(string)
		}
		if v, ok := record.Get("confidence"); ok && v != nil {
			n.Confidence, _ = v.(float64)
		}
		neighbors = append(neighbors, n)
	}

	return neighbors, nil
}
