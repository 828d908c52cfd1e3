package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"

	"github.com/iota-uz/orgtree/modules/org/domain/entities/labels"
	"github.com/iota-uz/orgtree/modules/org/infrastructure/persistence/models"
	"github.com/iota-uz/orgtree/pkg/composables"
)

// Every label slot is stored in a column named after its key.
var (
	labelColumns = labels.Keys()

	labelsFindQuery = fmt.Sprintf(
		`SELECT id, organization_id, %s, created_at, updated_at FROM organization_labels WHERE organization_id = $1`,
		strings.Join(labelColumns, ", "),
	)

	labelsInsertQuery = fmt.Sprintf(
		`INSERT INTO organization_labels (organization_id, %s, created_at, updated_at) VALUES (%s) RETURNING id`,
		strings.Join(labelColumns, ", "),
		placeholders(1, len(labelColumns)+3),
	)

	labelsUpdateQuery = fmt.Sprintf(
		`UPDATE organization_labels SET %s, updated_at = $%d WHERE organization_id = $1`,
		assignments(2, labelColumns),
		len(labelColumns)+2,
	)
)

func placeholders(from, n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(out, ", ")
}

func assignments(from int, columns []string) string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = fmt.Sprintf("%s = $%d", c, from+i)
	}
	return strings.Join(out, ", ")
}

type LabelsRepository struct{}

func NewLabelsRepository() labels.Repository {
	return &LabelsRepository{}
}

func (r *LabelsRepository) GetByOrganizationID(ctx context.Context, organizationID int64) (*labels.Labels, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}

	rows, err := tx.Query(ctx, labelsFindQuery, organizationID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, errors.Wrap(err, "row iteration error")
		}
		return nil, labels.ErrNotFound
	}

	m := models.Labels{Values: make(map[string]string, len(labelColumns))}
	values := make([]string, len(labelColumns))
	dest := make([]any, 0, len(labelColumns)+4)
	dest = append(dest, &m.ID, &m.OrganizationID)
	for i := range values {
		dest = append(dest, &values[i])
	}
	dest = append(dest, &m.CreatedAt, &m.UpdatedAt)
	if err := rows.Scan(dest...); err != nil {
		return nil, errors.Wrap(err, "failed to scan labels row")
	}
	for i, c := range labelColumns {
		m.Values[c] = values[i]
	}
	return ToDomainLabels(&m), nil
}

func (r *LabelsRepository) Create(ctx context.Context, l *labels.Labels) (*labels.Labels, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	m := ToDBLabels(l)
	args := make([]any, 0, len(labelColumns)+3)
	args = append(args, m.OrganizationID)
	for _, c := range labelColumns {
		args = append(args, m.Values[c])
	}
	args = append(args, m.CreatedAt, m.UpdatedAt)

	var id int64
	if err := tx.QueryRow(ctx, labelsInsertQuery, args...).Scan(&id); err != nil {
		return nil, errors.Wrapf(err, "failed to insert labels for organization %d", m.OrganizationID)
	}
	return r.GetByOrganizationID(ctx, m.OrganizationID)
}

func (r *LabelsRepository) Update(ctx context.Context, l *labels.Labels) (*labels.Labels, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get transaction")
	}
	m := ToDBLabels(l)
	args := make([]any, 0, len(labelColumns)+2)
	args = append(args, m.OrganizationID)
	for _, c := range labelColumns {
		args = append(args, m.Values[c])
	}
	args = append(args, m.UpdatedAt)

	tag, err := tx.Exec(ctx, labelsUpdateQuery, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to update labels for organization %d", m.OrganizationID)
	}
	if tag.RowsAffected() == 0 {
		return nil, labels.ErrNotFound
	}
	return r.GetByOrganizationID(ctx, m.OrganizationID)
}
