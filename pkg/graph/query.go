package graph

import (
	"context"
	"fmt"

	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
)

// RelatedSkill is a skill held by profiles that also hold the queried skill.
type RelatedSkill struct {
	Name     string `json:"name"`
	Profiles int64  `json:"profiles"`
}

const relatedSkillsCypher = `MATCH (s:Skill {key: $key})<-[:HAS_SKILL]-(p:Profile)-[:HAS_SKILL]->(o:Skill)
WHERE o <> s
RETURN o.name AS name, count(DISTINCT p) AS profiles
ORDER BY profiles DESC, name ASC
LIMIT $limit`

// RelatedSkills lists the skills that co-occur most often with name.
func (p *Projector) RelatedSkills(ctx context.Context, name string, limit int) ([]RelatedSkill, error) {
	ctx, span := tracing.StartSpan(ctx, "graph.Projector.RelatedSkills")
	defer span.End()

	if limit <= 0 {
		limit = 10
	}

	rows, err := p.exec.ExecuteRead(ctx, Statement{
		Cypher: relatedSkillsCypher,
		Params: map[string]any{"key": models.SkillKey(name), "limit": int64(limit)},
	})
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).WithField("skill_name", name).Error("failed to query related skills")
		return nil, fmt.Errorf("failed to query related skills: %w", err)
	}

	out := make([]RelatedSkill, 0, len(rows))
	for _, row := range rows {
		rs := RelatedSkill{}
		rs.Name, _ = row["name"].(string)
		rs.Profiles, _ = row["profiles"].(int64)
		out = append(out, rs)
	}
	return out, nil
}
