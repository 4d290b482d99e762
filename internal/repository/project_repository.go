package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-portal/internal/domain"
)

// ProjectRepository persists projects together with their single configuration.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	Update(ctx context.Context, project *domain.Project) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Project, error)
}

type projectRepository struct {
	pool *pgxpool.Pool
}

// NewProjectRepository instantiates the repository.
func NewProjectRepository(pool *pgxpool.Pool) ProjectRepository {
	return &projectRepository{pool: pool}
}

const projectSelect = `
        SELECT p.id, p.name, p.code, p.description, p.active, p.created_at, p.updated_at,
               c.id, c.project_type, c.start_date, c.end_date, c.programming_languages, c.frameworks,
               c.databases, c.project_goals, c.gdpr, c.hipaa, c.pci_dss, c.iso27001, c.created_at, c.updated_at
        FROM projects p LEFT JOIN project_configs c ON c.project_id = p.id`

// Create inserts the project and its configuration in one transaction.
func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            INSERT INTO projects (name, code, description, active)
            VALUES ($1,$2,$3,$4)
            RETURNING id, created_at, updated_at`
		if err := tx.QueryRow(ctx, query,
			project.Name,
			project.Code,
			project.Description,
			project.Active,
		).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt); err != nil {
			return err
		}
		if project.Config == nil {
			return nil
		}
		project.Config.ProjectID = project.ID
		return upsertConfig(ctx, tx, project.Config)
	})
}

// Update rewrites the project and upserts its configuration.
func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            UPDATE projects SET name=$1, code=$2, description=$3, active=$4, updated_at=NOW()
            WHERE id=$5
            RETURNING updated_at`
		if err := tx.QueryRow(ctx, query,
			project.Name,
			project.Code,
			project.Description,
			project.Active,
			project.ID,
		).Scan(&project.UpdatedAt); err != nil {
			return err
		}
		if project.Config == nil {
			return nil
		}
		project.Config.ProjectID = project.ID
		return upsertConfig(ctx, tx, project.Config)
	})
}

func upsertConfig(ctx context.Context, tx pgx.Tx, cfg *domain.ProjectConfig) error {
	const query = `
        INSERT INTO project_configs (project_id, project_type, start_date, end_date, programming_languages,
            frameworks, databases, project_goals, gdpr, hipaa, pci_dss, iso27001)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        ON CONFLICT (project_id) DO UPDATE SET
            project_type=EXCLUDED.project_type, start_date=EXCLUDED.start_date, end_date=EXCLUDED.end_date,
            programming_languages=EXCLUDED.programming_languages, frameworks=EXCLUDED.frameworks,
            databases=EXCLUDED.databases, project_goals=EXCLUDED.project_goals, gdpr=EXCLUDED.gdpr,
            hipaa=EXCLUDED.hipaa, pci_dss=EXCLUDED.pci_dss, iso27001=EXCLUDED.iso27001, updated_at=NOW()
        RETURNING id, created_at, updated_at`
	return tx.QueryRow(ctx, query,
		cfg.ProjectID,
		cfg.ProjectType,
		cfg.StartDate,
		cfg.EndDate,
		cfg.ProgrammingLanguages,
		cfg.Frameworks,
		cfg.Databases,
		cfg.ProjectGoals,
		cfg.Compliance.GDPR,
		cfg.Compliance.HIPAA,
		cfg.Compliance.PCIDSS,
		cfg.Compliance.ISO27001,
	).Scan(&cfg.ID, &cfg.CreatedAt, &cfg.UpdatedAt)
}

func (r *projectRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return scanProject(r.pool.QueryRow(ctx, projectSelect+` WHERE p.id=$1`, id))
}

func (r *projectRepository) List(ctx context.Context, activeOnly bool) ([]domain.Project, error) {
	query := projectSelect
	if activeOnly {
		query += ` WHERE p.active`
	}
	query += ` ORDER BY p.name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *project)
	}
	return result, rows.Err()
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var (
		project     domain.Project
		cfgID       *string
		projectType *string
		cfg         domain.ProjectConfig
		startDate   *time.Time
		langs       *string
		frameworks  *string
		databases   *string
		goals       *string
		gdpr        *bool
		hipaa       *bool
		pciDSS      *bool
		iso         *bool
		cfgCreated  *time.Time
		cfgUpdated  *time.Time
	)
	if err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Code,
		&project.Description,
		&project.Active,
		&project.CreatedAt,
		&project.UpdatedAt,
		&cfgID,
		&projectType,
		&startDate,
		&cfg.EndDate,
		&langs,
		&frameworks,
		&databases,
		&goals,
		&gdpr,
		&hipaa,
		&pciDSS,
		&iso,
		&cfgCreated,
		&cfgUpdated,
	); err != nil {
		return nil, err
	}
	if cfgID == nil {
		return &project, nil
	}

	cfg.ID = *cfgID
	cfg.ProjectID = project.ID
	cfg.ProjectType = domain.ProjectType(deref(projectType))
	if startDate != nil {
		cfg.StartDate = *startDate
	}
	cfg.ProgrammingLanguages = deref(langs)
	cfg.Frameworks = deref(frameworks)
	cfg.Databases = deref(databases)
	cfg.ProjectGoals = deref(goals)
	cfg.Compliance = domain.Compliance{
		GDPR:     derefBool(gdpr),
		HIPAA:    derefBool(hipaa),
		PCIDSS:   derefBool(pciDSS),
		ISO27001: derefBool(iso),
	}
	if cfgCreated != nil {
		cfg.CreatedAt = *cfgCreated
	}
	if cfgUpdated != nil {
		cfg.UpdatedAt = *cfgUpdated
	}
	project.Config = &cfg
	return &project, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	return b != nil && *b
}
