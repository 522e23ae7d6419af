package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/darwis-taxii/taxii-server/internal/apperr"
	"github.com/darwis-taxii/taxii-server/internal/domain/taxii1"
)

// Taxii1Store implements taxii1.Repository against the legacy
// data_collections/content_blocks/subscriptions tables.
type Taxii1Store struct {
	store *Store
}

// NewTaxii1Store wraps store for TAXII 1.x persistence.
func NewTaxii1Store(store *Store) *Taxii1Store {
	return &Taxii1Store{store: store}
}

func (s *Taxii1Store) GetCollection(ctx context.Context, name string) (*taxii1.Collection, error) {
	row := s.store.db.QueryRowContext(ctx,
		`SELECT name, type, description, accept_all_content, bindings, available, volume, date_created
		 FROM data_collections WHERE name = ?`, name)
	c, err := scanTaxii1Collection(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Newf(apperr.NotFound, "collection %q not found", name)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Taxii1Store) GetCollections(ctx context.Context) ([]taxii1.Collection, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT name, type, description, accept_all_content, bindings, available, volume, date_created
		 FROM data_collections ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []taxii1.Collection
	for rows.Next() {
		c, err := scanTaxii1Collection(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func scanTaxii1Collection(row interface{ Scan(...any) error }) (taxii1.Collection, error) {
	var (
		c           taxii1.Collection
		acceptAll   int
		bindingsRaw string
		available   int
		createdText string
	)
	if err := row.Scan(&c.Name, &c.Type, &c.Description, &acceptAll, &bindingsRaw, &available, &c.Volume, &createdText); err != nil {
		return taxii1.Collection{}, err
	}
	c.AcceptAllContent = acceptAll != 0
	c.Available = available != 0
	if err := decodeJSONInto(bindingsRaw, &c.Bindings); err != nil {
		return taxii1.Collection{}, err
	}
	dateCreated, err := parseTime(createdText)
	if err != nil {
		return taxii1.Collection{}, err
	}
	c.DateCreated = dateCreated
	return c, nil
}

func (s *Taxii1Store) UpsertCollection(ctx context.Context, c taxii1.Collection) error {
	bindingsJSON, err := encodeJSON(c.Bindings)
	if err != nil {
		return err
	}
	if c.DateCreated.IsZero() {
		c.DateCreated = time.Now().UTC()
	}
	return s.store.withImmediate(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO data_collections (id, name, type, description, accept_all_content, bindings, available, volume, date_created)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(name) DO UPDATE SET
				type = excluded.type, description = excluded.description,
				accept_all_content = excluded.accept_all_content, bindings = excluded.bindings,
				available = excluded.available`,
			uuid.NewString(), c.Name, c.Type, c.Description, boolToInt(c.AcceptAllContent),
			bindingsJSON, boolToInt(c.Available), c.Volume, formatTime(c.DateCreated))
		return err
	})
}

func (s *Taxii1Store) AddContentBlock(ctx context.Context, block taxii1.ContentBlock) (*taxii1.ContentBlock, error) {
	block.ID = uuid.NewString()
	if block.TimestampLabel.IsZero() {
		block.TimestampLabel = time.Now().UTC()
	}
	subtypesJSON, err := encodeJSON(block.Binding.Subtypes)
	if err != nil {
		return nil, err
	}

	err = s.store.withImmediate(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO content_blocks (id, content, timestamp_label, binding, subtypes, inbox_message_id)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			block.ID, block.Content, formatTime(block.TimestampLabel), block.Binding.BindingID, subtypesJSON, block.InboxMessageID)
		if err != nil {
			return err
		}
		for _, collName := range block.CollectionIDs {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO collection_to_content_block (collection_id, content_block_id) VALUES (?, ?)`,
				collName, block.ID); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE data_collections SET volume = volume + 1 WHERE name = ?`, collName); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &block, nil
}

func (s *Taxii1Store) GetContentBlocks(ctx context.Context, collectionName string, bindings []taxii1.ContentBinding, begin, end *time.Time) ([]taxii1.ContentBlock, error) {
	query := `SELECT cb.id, cb.content, cb.timestamp_label, cb.binding, cb.subtypes, cb.inbox_message_id
		FROM content_blocks cb
		JOIN collection_to_content_block link ON link.content_block_id = cb.id
		WHERE link.collection_id = ?`
	args := []any{collectionName}
	if begin != nil {
		query += ` AND cb.timestamp_label >= ?`
		args = append(args, formatTime(*begin))
	}
	if end != nil {
		query += ` AND cb.timestamp_label <= ?`
		args = append(args, formatTime(*end))
	}
	query += ` ORDER BY cb.timestamp_label`

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []taxii1.ContentBlock
	for rows.Next() {
		var (
			b               taxii1.ContentBlock
			timestampText   string
			bindingID       string
			subtypesRaw     string
		)
		if err := rows.Scan(&b.ID, &b.Content, &timestampText, &bindingID, &subtypesRaw, &b.InboxMessageID); err != nil {
			return nil, err
		}
		ts, err := parseTime(timestampText)
		if err != nil {
			return nil, err
		}
		b.TimestampLabel = ts
		b.Binding.BindingID = bindingID
		if err := decodeJSONInto(subtypesRaw, &b.Binding.Subtypes); err != nil {
			return nil, err
		}
		if len(bindings) > 0 && !taxii1IsAnyMatch(bindings, b.Binding) {
			continue
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func taxii1IsAnyMatch(requested []taxii1.ContentBinding, block taxii1.ContentBinding) bool {
	for _, r := range requested {
		if taxii1.IsContentSupported(false, []taxii1.ContentBinding{block}, r) {
			return true
		}
	}
	return false
}

func (s *Taxii1Store) AddInboxMessage(ctx context.Context, msg taxii1.InboxMessage) (*taxii1.InboxMessage, error) {
	msg.ID = uuid.NewString()
	if msg.DateCreated.IsZero() {
		msg.DateCreated = time.Now().UTC()
	}
	destJSON, err := encodeJSON(msg.DestinationCollections)
	if err != nil {
		return nil, err
	}
	_, err = s.store.db.ExecContext(ctx,
		`INSERT INTO inbox_messages (id, message_id, original_message, content_block_count, destination_collections, service_id, date_created)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.MessageID, msg.OriginalMessage, msg.ContentBlockCount, destJSON, msg.ServiceID, formatTime(msg.DateCreated))
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (s *Taxii1Store) CreateResultSet(ctx context.Context, rs taxii1.ResultSet) (*taxii1.ResultSet, error) {
	rs.ID = uuid.NewString()
	if rs.DateCreated.IsZero() {
		rs.DateCreated = time.Now().UTC()
	}
	bindingsJSON, err := encodeJSON(rs.Bindings)
	if err != nil {
		return nil, err
	}
	_, err = s.store.db.ExecContext(ctx,
		`INSERT INTO result_sets (id, collection_id, bindings, begin_time, end_time, date_created)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rs.ID, rs.CollectionID, bindingsJSON, formatTimePtr(rs.Begin), formatTimePtr(rs.End), formatTime(rs.DateCreated))
	if err != nil {
		return nil, err
	}
	return &rs, nil
}

func (s *Taxii1Store) GetResultSet(ctx context.Context, id string) (*taxii1.ResultSet, error) {
	var (
		rs           taxii1.ResultSet
		bindingsRaw  string
		beginNS      sql.NullString
		endNS        sql.NullString
		createdText  string
	)
	row := s.store.db.QueryRowContext(ctx,
		`SELECT id, collection_id, bindings, begin_time, end_time, date_created FROM result_sets WHERE id = ?`, id)
	if err := row.Scan(&rs.ID, &rs.CollectionID, &bindingsRaw, &beginNS, &endNS, &createdText); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.NotFound, "result set %q not found", id)
		}
		return nil, err
	}
	if err := decodeJSONInto(bindingsRaw, &rs.Bindings); err != nil {
		return nil, err
	}
	begin, err := parseTimePtr(beginNS)
	if err != nil {
		return nil, err
	}
	end, err := parseTimePtr(endNS)
	if err != nil {
		return nil, err
	}
	rs.Begin, rs.End = begin, end
	created, err := parseTime(createdText)
	if err != nil {
		return nil, err
	}
	rs.DateCreated = created
	return &rs, nil
}

func (s *Taxii1Store) UpsertSubscription(ctx context.Context, sub taxii1.Subscription) (*taxii1.Subscription, error) {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.DateCreated.IsZero() {
		sub.DateCreated = time.Now().UTC()
	}
	paramsJSON, err := encodeJSON(sub.Params)
	if err != nil {
		return nil, err
	}
	err = s.store.withImmediate(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO subscriptions (id, collection_id, params, status, service_id, date_created)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET
				params = excluded.params, status = excluded.status`,
			sub.ID, sub.CollectionID, paramsJSON, string(sub.Status), sub.ServiceID, formatTime(sub.DateCreated))
		return err
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *Taxii1Store) GetSubscription(ctx context.Context, id string) (*taxii1.Subscription, error) {
	var (
		sub         taxii1.Subscription
		paramsRaw   string
		status      string
		createdText string
	)
	row := s.store.db.QueryRowContext(ctx,
		`SELECT id, collection_id, params, status, service_id, date_created FROM subscriptions WHERE id = ?`, id)
	if err := row.Scan(&sub.ID, &sub.CollectionID, &paramsRaw, &status, &sub.ServiceID, &createdText); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.Newf(apperr.NotFound, "subscription %q not found", id)
		}
		return nil, err
	}
	sub.Status = taxii1.SubscriptionStatus(status)
	if err := decodeJSONInto(paramsRaw, &sub.Params); err != nil {
		return nil, err
	}
	created, err := parseTime(createdText)
	if err != nil {
		return nil, err
	}
	sub.DateCreated = created
	return &sub, nil
}

func (s *Taxii1Store) ListSubscriptions(ctx context.Context, collectionName string) ([]taxii1.Subscription, error) {
	rows, err := s.store.db.QueryContext(ctx,
		`SELECT id, collection_id, params, status, service_id, date_created FROM subscriptions WHERE collection_id = ? ORDER BY id`,
		collectionName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []taxii1.Subscription
	for rows.Next() {
		var (
			sub         taxii1.Subscription
			paramsRaw   string
			status      string
			createdText string
		)
		if err := rows.Scan(&sub.ID, &sub.CollectionID, &paramsRaw, &status, &sub.ServiceID, &createdText); err != nil {
			return nil, err
		}
		sub.Status = taxii1.SubscriptionStatus(status)
		if err := decodeJSONInto(paramsRaw, &sub.Params); err != nil {
			return nil, err
		}
		created, err := parseTime(createdText)
		if err != nil {
			return nil, err
		}
		sub.DateCreated = created
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (s *Taxii1Store) GetAdvertisedServices(ctx context.Context, serviceID string) ([]taxii1.Service, error) {
	query := `SELECT id, type, properties, date_created, date_updated FROM services`
	var args []any
	if serviceID != "" {
		query += ` WHERE id = ?`
		args = append(args, serviceID)
	}
	query += ` ORDER BY id`

	rows, err := s.store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []taxii1.Service
	for rows.Next() {
		var (
			svc          taxii1.Service
			propsRaw     string
			createdText  string
			updatedText  string
		)
		if err := rows.Scan(&svc.ID, &svc.Type, &propsRaw, &createdText, &updatedText); err != nil {
			return nil, err
		}
		if err := decodeJSONInto(propsRaw, &svc.Properties); err != nil {
			return nil, err
		}
		created, err := parseTime(createdText)
		if err != nil {
			return nil, err
		}
		updated, err := parseTime(updatedText)
		if err != nil {
			return nil, err
		}
		svc.DateCreated, svc.DateUpdated = created, updated
		out = append(out, svc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if serviceID != "" && len(out) == 0 {
		return nil, apperr.Newf(apperr.NotFound, "service %q not found", serviceID)
	}
	return out, nil
}

func (s *Taxii1Store) UpsertService(ctx context.Context, svc taxii1.Service) error {
	props, err := encodeJSON(svc.Properties)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	return s.store.withImmediate(ctx, func(tx *sql.Tx) error {
		var createdText string
		err := tx.QueryRowContext(ctx, `SELECT date_created FROM services WHERE id = ?`, svc.ID).Scan(&createdText)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			createdText = formatTime(now)
		case err != nil:
			return err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO services (id, type, properties, date_created, date_updated)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET type = excluded.type, properties = excluded.properties, date_updated = excluded.date_updated`,
			svc.ID, svc.Type, props, createdText, formatTime(now))
		return err
	})
}

var _ taxii1.Repository = (*Taxii1Store)(nil)
