package graph

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/notifications"
	"github.com/Ramsey-B/sage/pkg/reconcile"
	"github.com/Ramsey-B/sage/pkg/skills"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// Statement is one parameterized Cypher query.
type Statement struct {
	Cypher string
	Params map[string]any
}

type Executor interface {
	ExecuteWrite(ctx context.Context, stmts []Statement) error
	ExecuteRead(ctx context.Context, st Statement) ([]map[string]any, error)
}

// Projector mirrors committed profiles into the graph.
type Projector struct {
	exec   Executor
	logger ectologger.Logger
}

var (
	_ reconcile.Hook     = (*Projector)(nil)
	_ notifications.Hook = (*Projector)(nil)
	_ skills.Hook        = (*Projector)(nil)
)

func NewProjector(exec Executor, logger ectologger.Logger) *Projector {
	return &Projector{exec: exec, logger: logger}
}

func (p *Projector) AfterImport(ctx context.Context, result reconcile.Result) error {
	return p.Project(ctx, result.Profile)
}

func (p *Projector) NotificationsRaised(context.Context, []models.Notification) error {
	return nil
}

func (p *Projector) NotificationResolved(ctx context.Context, outcome notifications.Outcome) error {
	for _, prof := range outcome.Profiles {
		if err := p.Project(ctx, prof); err != nil {
			return err
		}
	}
	if pn, ok := outcome.Notification.(*models.ProfileEntryNotification); ok && outcome.Action == notifications.ActionDelete {
		return p.exec.ExecuteWrite(ctx, []Statement{removeReference(pn.NameEntity.ID)})
	}
	return nil
}

func (p *Projector) AfterRename(ctx context.Context, _, _ string, profiles []models.Profile) error {
	for _, prof := range profiles {
		if err := p.Project(ctx, prof); err != nil {
			return err
		}
	}
	return nil
}

// Project replaces the profile's subgraph with its current state.
func (p *Projector) Project(ctx context.Context, prof models.Profile) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.Project")
	defer span.End()
	tracing.SetProfile(span, prof.ID)

	if err := p.exec.ExecuteWrite(ctx, ProfileStatements(prof)); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithField("profile_id", prof.ID).Error("failed to project profile")
		return fmt.Errorf("failed to project profile %d: %w", prof.ID, err)
	}
	return nil
}

// RemoveProfile drops the profile and its projects from the graph.
func (p *Projector) RemoveProfile(ctx context.Context, profileID int64) error {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.RemoveProfile")
	defer span.End()

	return p.exec.ExecuteWrite(ctx, []Statement{
		{
			Cypher: `MATCH (p:Profile {id: $id}) OPTIONAL MATCH (p)-[:WORKED_ON]->(x:Project) DETACH DELETE x, p`,
			Params: map[string]any{"id": profileID},
		},
	})
}

func removeReference(id int64) Statement {
	return Statement{
		Cypher: `MATCH (n:Reference {id: $id}) DETACH DELETE n`,
		Params: map[string]any{"id": id},
	}
}

// ProfileStatements builds the statements that rewrite a profile's subgraph.
// Skills are keyed by merge identity so the same skill across profiles is one
// node.
func ProfileStatements(prof models.Profile) []Statement {
	id := prof.ID

	skillParams := make([]any, 0, len(prof.Skills))
	for _, s := range prof.Skills {
		skillParams = append(skillParams, map[string]any{
			"key":    s.Key(),
			"name":   s.Name,
			"rating": int64(s.Rating),
		})
	}

	entryParams := []any{}
	for _, c := range models.EntryCategories {
		for _, e := range prof.Entries(c) {
			if e.NameEntity == nil {
				continue
			}
			entryParams = append(entryParams, map[string]any{
				"id":       e.NameEntity.ID,
				"name":     e.NameEntity.Name,
				"category": string(c),
			})
		}
	}

	projectParams := make([]any, 0, len(prof.Projects))
	for _, pr := range prof.Projects {
		keys := make([]any, 0, len(pr.Skills))
		for _, s := range pr.Skills {
			keys = append(keys, s.Key())
		}
		param := map[string]any{
			"id":     pr.ID,
			"name":   pr.Name,
			"skills": keys,
		}
		if pr.Client != nil {
			param["client_id"] = pr.Client.ID
			param["client_name"] = pr.Client.Name
		}
		projectParams = append(projectParams, param)
	}

	description := prof.Description
	lastEdited := ""
	if prof.LastEdited != nil {
		lastEdited = prof.LastEdited.UTC().Format("2006-01-02T15:04:05Z")
	}

	return []Statement{
		{
			Cypher: `MERGE (p:Profile {id: $id}) SET p.description = $description, p.last_edited = $last_edited`,
			Params: map[string]any{"id": id, "description": description, "last_edited": lastEdited},
		},
		{
			Cypher: `MATCH (p:Profile {id: $id})-[:WORKED_ON]->(x:Project) DETACH DELETE x`,
			Params: map[string]any{"id": id},
		},
		{
			Cypher: `MATCH (p:Profile {id: $id})-[r]->() DELETE r`,
			Params: map[string]any{"id": id},
		},
		{
			Cypher: `MATCH (p:Profile {id: $id})
UNWIND $skills AS s
MERGE (k:Skill {key: s.key}) ON CREATE SET k.name = s.name
MERGE (p)-[h:HAS_SKILL]->(k) SET h.rating = s.rating`,
			Params: map[string]any{"id": id, "skills": skillParams},
		},
		{
			Cypher: `MATCH (p:Profile {id: $id})
UNWIND $entries AS e
MERGE (n:Reference {id: e.id}) SET n.name = e.name, n.category = e.category
MERGE (p)-[:HAS_ENTRY {category: e.category}]->(n)`,
			Params: map[string]any{"id": id, "entries": entryParams},
		},
		{
			Cypher: `MATCH (p:Profile {id: $id})
UNWIND $projects AS pr
CREATE (x:Project {id: pr.id, name: pr.name})
MERGE (p)-[:WORKED_ON]->(x)
WITH x, pr
UNWIND pr.skills AS key
MATCH (k:Skill {key: key})
MERGE (x)-[:USED_SKILL]->(k)`,
			Params: map[string]any{"id": id, "projects": projectParams},
		},
		{
			Cypher: `UNWIND $projects AS pr
WITH pr WHERE pr.client_id IS NOT NULL
MATCH (x:Project {id: pr.id})
MERGE (c:Reference {id: pr.client_id}) SET c.name = pr.client_name, c.category = 'COMPANY'
MERGE (x)-[:FOR_CLIENT]->(c)`,
			Params: map[string]any{"projects": projectParams},
		},
	}
}
