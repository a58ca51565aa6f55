package resources

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	types "github.com/yungbote/collection-listing/internal/domain/resources"
	pkgerrors "github.com/yungbote/collection-listing/internal/pkg/errors"
	"github.com/yungbote/collection-listing/internal/pkg/query"
	"github.com/yungbote/collection-listing/internal/platform/dbctx"
	"github.com/yungbote/collection-listing/internal/platform/logger"
)

const (
	defaultSearchLimit = 50
	maxSearchLimit     = 500
)

type SearchParams struct {
	// Hosts restricts the search to these host roots. Empty means every host.
	Hosts             []string
	Query             query.Query
	IncludeRestricted bool
	Limit             int
	Offset            int
}

type ResourceRepo interface {
	Create(dbc dbctx.Context, rows []*types.Resource) ([]*types.Resource, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Resource, error)
	GetByHostURI(dbc dbctx.Context, host string, uri string) (*types.Resource, error)
	GetByHostURIs(dbc dbctx.Context, host string, uris []string) ([]*types.Resource, error)
	Search(dbc dbctx.Context, params SearchParams) ([]*types.Resource, error)
	UpdateProperties(dbc dbctx.Context, id uuid.UUID, props map[string]any) error
	SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error
}

type resourceRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewResourceRepo(db *gorm.DB, baseLog *logger.Logger) ResourceRepo {
	repoLog := baseLog.With("repo", "ResourceRepo")
	return &resourceRepo{db: db, log: repoLog}
}

func (rr *resourceRepo) Create(dbc dbctx.Context, rows []*types.Resource) ([]*types.Resource, error) {
	transaction := dbc.DB(rr.db)

	if len(rows) == 0 {
		return []*types.Resource{}, nil
	}

	if err := transaction.Create(&rows).Error; err != nil {
		return nil, mapWriteError(err)
	}
	return rows, nil
}

func (rr *resourceRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Resource, error) {
	transaction := dbc.DB(rr.db)

	var results []*types.Resource
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (rr *resourceRepo) GetByHostURI(dbc dbctx.Context, host string, uri string) (*types.Resource, error) {
	transaction := dbc.DB(rr.db)

	var row types.Resource
	err := transaction.
		Where("host = ? AND uri = ?", host, uri).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("resource %s%s: %w", strings.TrimSuffix(host, "/"), uri, pkgerrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (rr *resourceRepo) GetByHostURIs(dbc dbctx.Context, host string, uris []string) ([]*types.Resource, error) {
	transaction := dbc.DB(rr.db)

	var results []*types.Resource
	if len(uris) == 0 {
		return results, nil
	}

	if err := transaction.
		Where("host = ? AND uri IN ?", host, uris).
		Order("uri ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Search runs params.Query against the index. A nil query matches every row
// of the selected hosts.
func (rr *resourceRepo) Search(dbc dbctx.Context, params SearchParams) ([]*types.Resource, error) {
	transaction := dbc.DB(rr.db)

	limit := params.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}
	offset := params.Offset
	if offset < 0 {
		offset = 0
	}

	q := transaction.Model(&types.Resource{})
	if len(params.Hosts) > 0 {
		q = q.Where("host IN ?", params.Hosts)
	}
	if !params.IncludeRestricted {
		q = q.Where("read_restricted = ?", false)
	}
	if params.Query != nil {
		cond, err := Condition(params.Query)
		if err != nil {
			return nil, err
		}
		q = q.Where(cond)
	}

	var results []*types.Resource
	if err := q.
		Order("uri ASC").
		Order("host ASC").
		Limit(limit).
		Offset(offset).
		Find(&results).Error; err != nil {
		rr.log.Warn("Resource search failed", "query", params.Query, "error", err)
		return nil, err
	}
	return results, nil
}

func (rr *resourceRepo) UpdateProperties(dbc dbctx.Context, id uuid.UUID, props map[string]any) error {
	transaction := dbc.DB(rr.db)

	row := types.Resource{}
	row.SetProperties(props)
	res := transaction.
		Model(&types.Resource{}).
		Where("id = ?", id).
		Update("properties", row.Properties)
	if res.Error != nil {
		return mapWriteError(res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("resource %s: %w", id, pkgerrors.ErrNotFound)
	}
	return nil
}

func (rr *resourceRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	transaction := dbc.DB(rr.db)

	if len(ids) == 0 {
		return nil
	}
	if err := transaction.
		Where("id IN ?", ids).
		Delete(&types.Resource{}).Error; err != nil {
		return err
	}
	return nil
}

// mapWriteError turns unique violations into ErrConflict for both drivers.
func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("resource already indexed: %w", pkgerrors.ErrConflict)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("resource already indexed (%s): %w", pgErr.ConstraintName, pkgerrors.ErrConflict)
	}
	return err
}
