package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sage/pkg/database"
	"github.com/Ramsey-B/sage/pkg/models"
	"github.com/Ramsey-B/sage/pkg/tracing"
	"github.com/huandu/go-sqlbuilder"
	"github.com/lib/pq"
)

type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func selectProjects() *sqlbuilder.SelectBuilder {
	sb := database.NewSelectBuilder()
	sb.Select(selectColumns...)
	sb.From(sb.As(tableName, "p"))
	sb.JoinWithOption(sqlbuilder.LeftJoin, sb.As(nameEntityTable, "c"), "c.id = p.client_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, sb.As(nameEntityTable, "b"), "b.id = p.broker_id")
	return sb
}

// Save writes the project row and replaces its role and skill links. Roles
// must be resolved and skills must already belong to the profile.
func (r *Repository) Save(ctx context.Context, profileID int64, p models.Project) (models.Project, error) {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.Save")
	defer span.End()

	id, err := r.saveRow(ctx, profileID, p)
	if err != nil {
		return models.Project{}, err
	}

	if err := r.clearLinks(ctx, rolesTable, id); err != nil {
		return models.Project{}, err
	}
	if len(p.Roles) > 0 {
		ib := database.NewInsertBuilder()
		ib.InsertInto(rolesTable)
		ib.Cols("project_id", "name_entity_id", "position")
		for i, role := range p.Roles {
			ib.Values(id, role.ID, i)
		}
		ib.OnConflictDoNothing()
		if err := r.exec(ctx, ib.InsertBuilder, "failed to link project roles"); err != nil {
			return models.Project{}, err
		}
	}

	if err := r.clearLinks(ctx, skillsTable, id); err != nil {
		return models.Project{}, err
	}
	if len(p.Skills) > 0 {
		ib := database.NewInsertBuilder()
		ib.InsertInto(skillsTable)
		ib.Cols("project_id", "skill_id", "position")
		for i, s := range p.Skills {
			ib.Values(id, s.ID, i)
		}
		ib.OnConflictDoNothing()
		if err := r.exec(ctx, ib.InsertBuilder, "failed to link project skills"); err != nil {
			return models.Project{}, err
		}
	}

	saved, err := r.FindByID(ctx, profileID, id)
	if err != nil {
		return models.Project{}, err
	}
	if saved == nil {
		return models.Project{}, fmt.Errorf("project %d vanished after save", id)
	}
	return *saved, nil
}

func (r *Repository) saveRow(ctx context.Context, profileID int64, p models.Project) (int64, error) {
	if p.ID != 0 {
		ub := database.NewUpdateBuilder()
		ub.Update(tableName)
		ub.Set(
			ub.Assign("name", p.Name),
			ub.Assign("description", p.Description),
			ub.Assign("client_id", nullID(p.Client)),
			ub.Assign("broker_id", nullID(p.Broker)),
			ub.Assign("start_date", p.StartDate),
			ub.Assign("end_date", p.EndDate),
		)
		ub.Where(
			ub.Equal("id", p.ID),
			ub.Equal("profile_id", profileID),
		)

		query, args := ub.Build()

		res, err := r.db.Conn(ctx).ExecContext(ctx, query, args...)
		if err != nil {
			r.logger.WithContext(ctx).WithError(err).WithField("project_id", p.ID).Error("failed to update project")
			return 0, fmt.Errorf("failed to update project: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			return p.ID, nil
		}
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto(tableName)
	ib.Cols("profile_id", "name", "description", "client_id", "broker_id", "start_date", "end_date")
	ib.Values(profileID, p.Name, p.Description, nullID(p.Client), nullID(p.Broker), p.StartDate, p.EndDate)
	ib.SQL("RETURNING id")

	query, args := ib.Build()

	var id int64
	if err := r.db.Conn(ctx).GetContext(ctx, &id, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("profile_id", profileID).Error("failed to create project")
		return 0, fmt.Errorf("failed to create project: %w", err)
	}
	return id, nil
}

func (r *Repository) clearLinks(ctx context.Context, table string, projectID int64) error {
	db := database.NewDeleteBuilder()
	db.DeleteFrom(table)
	db.Where(db.Equal("project_id", projectID))
	return r.exec(ctx, db, "failed to clear project links")
}

func (r *Repository) exec(ctx context.Context, b sqlbuilder.Builder, msg string) error {
	query, args := b.Build()
	if _, err := r.db.Conn(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error(msg)
		return fmt.Errorf("%s: %w", msg, err)
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, profileID, projectID int64) (*models.Project, error) {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.FindByID")
	defer span.End()

	sb := selectProjects()
	sb.Where(
		sb.Equal("p.id", projectID),
		sb.Equal("p.profile_id", profileID),
	)

	query, args := sb.Build()

	var row ProjectRow
	if err := r.db.Conn(ctx).GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithField("project_id", projectID).Error("failed to get project")
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	projects, err := r.withLinks(ctx, []ProjectRow{row})
	if err != nil {
		return nil, err
	}
	return &projects[0], nil
}

func (r *Repository) ListByProfile(ctx context.Context, profileID int64) ([]models.Project, error) {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.ListByProfile")
	defer span.End()

	sb := selectProjects()
	sb.Where(sb.Equal("p.profile_id", profileID))
	sb.OrderBy("p.id ASC")

	query, args := sb.Build()

	var rows []ProjectRow
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("profile_id", profileID).Error("failed to list projects")
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return r.withLinks(ctx, rows)
}

// withLinks attaches roles and skills to the rows with one query each.
func (r *Repository) withLinks(ctx context.Context, rows []ProjectRow) ([]models.Project, error) {
	out := make([]models.Project, len(rows))
	if len(rows) == 0 {
		return out, nil
	}
	ids := make([]int64, len(rows))
	index := make(map[int64]int, len(rows))
	for i, row := range rows {
		out[i] = ToProject(row)
		ids[i] = row.ID
		index[row.ID] = i
	}

	rb := database.NewSelectBuilder()
	rb.Select("pr.project_id", "n.id", "n.name")
	rb.From(rb.As(rolesTable, "pr"))
	rb.Join(rb.As(nameEntityTable, "n"), "n.id = pr.name_entity_id")
	rb.Where(rb.In("pr.project_id", database.Int64s(ids)...))
	rb.OrderBy("pr.project_id ASC", "pr.position ASC")

	query, args := rb.Build()

	var roles []roleRow
	if err := r.db.Conn(ctx).SelectContext(ctx, &roles, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to load project roles")
		return nil, fmt.Errorf("failed to load project roles: %w", err)
	}
	for _, role := range roles {
		p := &out[index[role.ProjectID]]
		p.Roles = append(p.Roles, models.NameEntity{ID: role.ID, Name: role.Name, Category: models.CategoryProjectRole})
	}

	kb := database.NewSelectBuilder()
	kb.Select("ps.project_id", "s.id", "s.name", "s.rating", "s.versions")
	kb.From(kb.As(skillsTable, "ps"))
	kb.Join(kb.As(skillTable, "s"), "s.id = ps.skill_id")
	kb.Where(kb.In("ps.project_id", database.Int64s(ids)...))
	kb.OrderBy("ps.project_id ASC", "ps.position ASC")

	query, args = kb.Build()

	var skills []skillRow
	if err := r.db.Conn(ctx).SelectContext(ctx, &skills, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("failed to load project skills")
		return nil, fmt.Errorf("failed to load project skills: %w", err)
	}
	for _, s := range skills {
		sk := models.Skill{ID: s.ID, Name: s.Name, Rating: s.Rating}
		if len(s.Versions) > 0 {
			sk.Versions = []string(s.Versions)
		}
		p := &out[index[s.ProjectID]]
		p.Skills = append(p.Skills, sk)
	}
	return out, nil
}

func (r *Repository) Delete(ctx context.Context, profileID, projectID int64) error {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.Delete")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(tableName)
	db.Where(
		db.Equal("id", projectID),
		db.Equal("profile_id", profileID),
	)
	return r.exec(ctx, db, "failed to delete project")
}

// DeleteExcept removes the profile's projects whose ids are not in keep.
func (r *Repository) DeleteExcept(ctx context.Context, profileID int64, keep []int64) error {
	ctx, span := tracing.StartSpan(ctx, "ProjectRepository.DeleteExcept")
	defer span.End()

	db := database.NewDeleteBuilder()
	db.DeleteFrom(tableName)
	db.Where(db.Equal("profile_id", profileID))
	db.Where(fmt.Sprintf("NOT (id = ANY(%s))", db.Var(pq.Array(keep))))
	return r.exec(ctx, db, "failed to prune projects")
}
