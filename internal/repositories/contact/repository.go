package contact

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var columns = []string{
	"id", "tenant_id", "full_name", "given_name", "family_name", "middle_name",
	"nickname", "name_prefix", "name_suffix", "organization", "department",
	"job_title", "phones", "emails", "postal_addresses", "urls",
	"social_profiles", "im_handles", "has_photo", "image_data", "birthday",
	"note", "created_at", "updated_at", "deleted_at",
}

// contactRow mirrors the contacts table; the multi-value lists are JSONB.
type contactRow struct {
	ID              string          `db:"id"`
	TenantID        string          `db:"tenant_id"`
	FullName        string          `db:"full_name"`
	GivenName       string          `db:"given_name"`
	FamilyName      string          `db:"family_name"`
	MiddleName      string          `db:"middle_name"`
	Nickname        string          `db:"nickname"`
	NamePrefix      string          `db:"name_prefix"`
	NameSuffix      string          `db:"name_suffix"`
	Organization    string          `db:"organization"`
	Department      string          `db:"department"`
	JobTitle        string          `db:"job_title"`
	Phones          json.RawMessage `db:"phones"`
	Emails          json.RawMessage `db:"emails"`
	PostalAddresses json.RawMessage `db:"postal_addresses"`
	URLs            json.RawMessage `db:"urls"`
	SocialProfiles  json.RawMessage `db:"social_profiles"`
	IMHandles       json.RawMessage `db:"im_handles"`
	HasPhoto        bool            `db:"has_photo"`
	ImageData       []byte          `db:"image_data"`
	Birthday        *time.Time      `db:"birthday"`
	Note            string          `db:"note"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
	DeletedAt       *time.Time      `db:"deleted_at"`
}

func toRow(c *models.Contact) (*contactRow, error) {
	row := &contactRow{
		ID:           c.ID,
		TenantID:     c.TenantID,
		FullName:     c.FullName,
		GivenName:    c.GivenName,
		FamilyName:   c.FamilyName,
		MiddleName:   c.MiddleName,
		Nickname:     c.Nickname,
		NamePrefix:   c.NamePrefix,
		NameSuffix:   c.NameSuffix,
		Organization: c.Organization,
		Department:   c.Department,
		JobTitle:     c.JobTitle,
		HasPhoto:     c.HasPhoto,
		ImageData:    c.ImageData,
		Birthday:     c.Birthday,
		Note:         c.Note,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		DeletedAt:    c.DeletedAt,
	}

	fields := []struct {
		dst *json.RawMessage
		src any
	}{
		{&row.Phones, c.Phones},
		{&row.Emails, c.Emails},
		{&row.PostalAddresses, c.PostalAddresses},
		{&row.URLs, c.URLs},
		{&row.SocialProfiles, c.SocialProfiles},
		{&row.IMHandles, c.IMHandles},
	}
	for _, f := range fields {
		data, err := json.Marshal(f.src)
		if err != nil {
			return nil, err
		}
		*f.dst = data
	}

	return row, nil
}

func (row *contactRow) toContact() (*models.Contact, error) {
	c := &models.Contact{
		ID:           row.ID,
		TenantID:     row.TenantID,
		FullName:     row.FullName,
		GivenName:    row.GivenName,
		FamilyName:   row.FamilyName,
		MiddleName:   row.MiddleName,
		Nickname:     row.Nickname,
		NamePrefix:   row.NamePrefix,
		NameSuffix:   row.NameSuffix,
		Organization: row.Organization,
		Department:   row.Department,
		JobTitle:     row.JobTitle,
		HasPhoto:     row.HasPhoto,
		ImageData:    row.ImageData,
		Birthday:     row.Birthday,
		Note:         row.Note,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
		DeletedAt:    row.DeletedAt,
	}

	fields := []struct {
		src json.RawMessage
		dst any
	}{
		{row.Phones, &c.Phones},
		{row.Emails, &c.Emails},
		{row.PostalAddresses, &c.PostalAddresses},
		{row.URLs, &c.URLs},
		{row.SocialProfiles, &c.SocialProfiles},
		{row.IMHandles, &c.IMHandles},
	}
	for _, f := range fields {
		if len(f.src) == 0 {
			continue
		}
		if err := json.Unmarshal(f.src, f.dst); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func rowsToContacts(rows []contactRow) ([]models.Contact, error) {
	contacts := make([]models.Contact, 0, len(rows))
	for i := range rows {
		c, err := rows[i].toContact()
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, *c)
	}
	return contacts, nil
}

// executor is the subset of database.DB and database.Tx the write paths
// need, so the same statements run inside or outside a transaction.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

// Repository handles contact snapshot persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new contact repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// DB returns the underlying database handle
func (r *Repository) DB() database.DB {
	return r.db
}

// List returns a page of non-deleted contacts with the total count
func (r *Repository) List(ctx context.Context, tenantID string, page, pageSize int) ([]models.Contact, int, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 500 {
		pageSize = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("contacts")
	sb.Where(sb.Equal("tenant_id", tenantID), sb.IsNull("deleted_at"))
	sb.OrderBy("created_at", "id")
	sb.Limit(pageSize)
	sb.Offset((page - 1) * pageSize)

	query, args := sb.Build()
	var rows []contactRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID}).Error("Failed to list contacts")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list contacts")
	}

	total, err := r.Count(ctx, tenantID)
	if err != nil {
		return nil, 0, err
	}

	contacts, err := rowsToContacts(rows)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to decode contact rows")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to decode contacts")
	}
	return contacts, total, nil
}

// ListAll returns every non-deleted contact for a tenant, in creation
// order. Scans depend on this order being stable.
func (r *Repository) ListAll(ctx context.Context, tenantID string) ([]models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.ListAll")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("contacts")
	sb.Where(sb.Equal("tenant_id", tenantID), sb.IsNull("deleted_at"))
	sb.OrderBy("created_at", "id")

	query, args := sb.Build()
	var rows []contactRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID}).Error("Failed to list all contacts")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list contacts")
	}

	contacts, err := rowsToContacts(rows)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to decode contact rows")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to decode contacts")
	}
	return contacts, nil
}

// Count returns the number of non-deleted contacts for a tenant
func (r *Repository) Count(ctx context.Context, tenantID string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.Count")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("contacts")
	sb.Where(sb.Equal("tenant_id", tenantID), sb.IsNull("deleted_at"))

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID}).Error("Failed to count contacts")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count contacts")
	}
	return count, nil
}

// Get retrieves a contact by ID
func (r *Repository) Get(ctx context.Context, tenantID, id string) (*models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("contacts")
	sb.Where(sb.Equal("id", id), sb.Equal("tenant_id", tenantID), sb.IsNull("deleted_at"))

	query, args := sb.Build()
	var row contactRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "contact %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "id": id}).Error("Failed to get contact")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get contact")
	}

	contact, err := row.toContact()
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to decode contact row")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to decode contact")
	}
	return contact, nil
}

// GetByIDs retrieves the non-deleted contacts with the given IDs, in the
// order the IDs were supplied. Unknown IDs are simply absent.
func (r *Repository) GetByIDs(ctx context.Context, tenantID string, ids []string) ([]models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.GetByIDs")
	defer span.End()

	if len(ids) == 0 {
		return []models.Contact{}, nil
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("contacts")
	idArgs := make([]any, len(ids))
	for i, id := range ids {
		idArgs[i] = id
	}
	sb.Where(sb.Equal("tenant_id", tenantID), sb.In("id", idArgs...), sb.IsNull("deleted_at"))

	query, args := sb.Build()
	var rows []contactRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID}).Error("Failed to get contacts by IDs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get contacts")
	}

	contacts, err := rowsToContacts(rows)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to decode contact rows")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to decode contacts")
	}

	byID := make(map[string]models.Contact, len(contacts))
	for _, c := range contacts {
		byID[c.ID] = c
	}
	ordered := make([]models.Contact, 0, len(contacts))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered, nil
}

// UpsertSnapshot creates or replaces a contact snapshot. Used by both the
// batch import API and the change-feed consumer; an upsert also revives a
// previously soft-deleted row.
func (r *Repository) UpsertSnapshot(ctx context.Context, tenantID string, contact *models.Contact) (*models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.UpsertSnapshot")
	defer span.End()

	return r.upsertSnapshot(ctx, r.db, tenantID, contact)
}

func (r *Repository) upsertSnapshot(ctx context.Context, exec executor, tenantID string, contact *models.Contact) (*models.Contact, error) {
	now := time.Now().UTC()
	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	contact.TenantID = tenantID
	contact.HasPhoto = len(contact.ImageData) > 0

	row, err := toRow(contact)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to encode contact")
		return nil, httperror.NewHTTPError(http.StatusBadRequest, "invalid contact data")
	}

	query := `
		INSERT INTO contacts (
			id, tenant_id, full_name, given_name, family_name, middle_name,
			nickname, name_prefix, name_suffix, organization, department,
			job_title, phones, emails, postal_addresses, urls,
			social_profiles, im_handles, has_photo, image_data, birthday,
			note, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
		ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			given_name = EXCLUDED.given_name,
			family_name = EXCLUDED.family_name,
			middle_name = EXCLUDED.middle_name,
			nickname = EXCLUDED.nickname,
			name_prefix = EXCLUDED.name_prefix,
			name_suffix = EXCLUDED.name_suffix,
			organization = EXCLUDED.organization,
			department = EXCLUDED.department,
			job_title = EXCLUDED.job_title,
			phones = EXCLUDED.phones,
			emails = EXCLUDED.emails,
			postal_addresses = EXCLUDED.postal_addresses,
			urls = EXCLUDED.urls,
			social_profiles = EXCLUDED.social_profiles,
			im_handles = EXCLUDED.im_handles,
			has_photo = EXCLUDED.has_photo,
			image_data = EXCLUDED.image_data,
			birthday = EXCLUDED.birthday,
			note = EXCLUDED.note,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
		RETURNING created_at, updated_at
	`

	var stamps struct {
		CreatedAt time.Time `db:"created_at"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	err = exec.GetContext(ctx, &stamps, query,
		row.ID, tenantID, row.FullName, row.GivenName, row.FamilyName,
		row.MiddleName, row.Nickname, row.NamePrefix, row.NameSuffix,
		row.Organization, row.Department, row.JobTitle, row.Phones,
		row.Emails, row.PostalAddresses, row.URLs, row.SocialProfiles,
		row.IMHandles, row.HasPhoto, row.ImageData, row.Birthday, row.Note,
		now, now,
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "id": contact.ID}).Error("Failed to upsert contact")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert contact")
	}

	contact.CreatedAt = stamps.CreatedAt
	contact.UpdatedAt = stamps.UpdatedAt
	contact.DeletedAt = nil
	return contact, nil
}

// UpsertBatch upserts multiple contacts in one transaction
func (r *Repository) UpsertBatch(ctx context.Context, tenantID string, contacts []models.Contact) ([]models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.UpsertBatch")
	defer span.End()

	ctxTx, tx, err := r.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	result := make([]models.Contact, 0, len(contacts))
	for i := range contacts {
		upserted, err := r.upsertSnapshot(ctxTx, tx, tenantID, &contacts[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *upserted)
	}

	if err := tx.Commit(ctxTx); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to commit contact batch")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert contacts")
	}

	return result, nil
}

// SoftDelete marks a contact as deleted
func (r *Repository) SoftDelete(ctx context.Context, tenantID, id string) error {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.SoftDelete")
	defer span.End()

	return r.softDelete(ctx, r.db, tenantID, id)
}

func (r *Repository) softDelete(ctx context.Context, exec executor, tenantID, id string) error {
	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("contacts")
	sb.Set(sb.Assign("deleted_at", time.Now().UTC()))
	sb.Where(sb.Equal("id", id), sb.Equal("tenant_id", tenantID), sb.IsNull("deleted_at"))

	query, args := sb.Build()
	if _, err := exec.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"tenant_id": tenantID, "id": id}).Error("Failed to soft delete contact")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete contact")
	}
	return nil
}

// ApplyMerge atomically writes the consolidated contact and soft-deletes
// the absorbed sources. Either everything lands or nothing does.
func (r *Repository) ApplyMerge(ctx context.Context, tenantID string, merged *models.Contact, sourceIDs []string) (*models.Contact, error) {
	ctx, span := tracing.StartSpan(ctx, "contact.Repository.ApplyMerge")
	defer span.End()

	ctxTx, tx, err := r.db.GetTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	result, err := r.upsertSnapshot(ctxTx, tx, tenantID, merged)
	if err != nil {
		return nil, err
	}

	for _, sourceID := range sourceIDs {
		if err := r.softDelete(ctxTx, tx, tenantID, sourceID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctxTx); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to commit merge")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to apply merge")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":    tenantID,
		"merged_id":    result.ID,
		"source_count": len(sourceIDs),
	}).Info("Applied merge")

	return result, nil
}
