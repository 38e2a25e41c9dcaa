package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/juju/errors"
	"github.com/lib/pq"

	"github.com/spmcmurray/churchexplorer-sub001/common/db"
)

const documentsPK = "documents_pkey"

type pgStore struct {
	db *sql.DB
}

// NewPGStore returns a Store backed by the documents table. Every Update
// call is compiled into a single UPDATE statement, so all field mutations
// of one call are applied atomically.
func NewPGStore(database *sql.DB) Store {
	return &pgStore{db: database}
}

func (s *pgStore) Get(ctx context.Context, collection, key string) (Document, error) {
	doc := Document{Key: key}

	row := s.db.QueryRowContext(
		ctx,
		`SELECT owner_id, data FROM documents WHERE collection = $1 AND key = $2`,
		collection, key,
	)
	if err := row.Scan(&doc.OwnerID, &doc.Data); err != nil {
		if err == sql.ErrNoRows {
			return Document{}, errors.Trace(ErrNotFound)
		}

		return Document{}, errors.Trace(err)
	}

	return doc, nil
}

func (s *pgStore) Create(ctx context.Context, collection, key, ownerID string, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return errors.Trace(err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO documents (collection, key, owner_id, data) VALUES ($1, $2, $3, $4)`,
		collection, key, ownerID, payload,
	)
	if db.IsConstraintError(err, documentsPK) {
		return errors.Trace(ErrAlreadyExists)
	}

	return errors.Trace(err)
}

func (s *pgStore) Set(ctx context.Context, collection, key, ownerID string, doc any) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return errors.Trace(err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO documents (collection, key, owner_id, data) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (collection, key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		collection, key, ownerID, payload,
	)

	return errors.Trace(err)
}

func (s *pgStore) Update(ctx context.Context, collection, key string, updates []FieldUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	args := &db.Argumenter{}
	expr := "data"

	for _, u := range updates {
		var err error
		expr, err = compileFieldUpdate(expr, u, args)
		if err != nil {
			return errors.Trace(err)
		}
	}

	query := fmt.Sprintf(
		`UPDATE documents SET data = %s, updated_at = now() WHERE collection = %s AND key = %s`,
		expr, args.Add(collection), args.Add(key),
	)

	res, err := s.db.ExecContext(ctx, query, args.Values()...)
	if err != nil {
		return errors.Trace(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Trace(err)
	}

	if affected == 0 {
		return errors.Trace(ErrNotFound)
	}

	return nil
}

func (s *pgStore) ScanByOwner(ctx context.Context, collection, ownerID string) ([]Document, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT key, owner_id, data FROM documents WHERE collection = $1 AND owner_id = $2 ORDER BY key`,
		collection, ownerID,
	)
	if err != nil {
		return nil, errors.Trace(err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.Key, &doc.OwnerID, &doc.Data); err != nil {
			return nil, errors.Trace(err)
		}

		out = append(out, doc)
	}

	return out, errors.Trace(rows.Err())
}

// compileFieldUpdate rewrites expr so that the returned jsonb expression
// has the field update applied on top of it.
func compileFieldUpdate(expr string, u FieldUpdate, args *db.Argumenter) (string, error) {
	segments := strings.Split(u.Path, ".")

	// jsonb_set only creates the final path element and silently returns
	// its input unchanged when an intermediate object is missing, so those
	// are materialized first. Keeps nested updates from no-opping and
	// matches the memory store.
	for i := 1; i < len(segments); i++ {
		prefix := args.Add(pq.Array(segments[:i]))
		expr = fmt.Sprintf(
			"jsonb_set(%s, %s::text[], COALESCE(%s #> %s::text[], '{}'::jsonb), true)",
			expr, prefix, expr, prefix,
		)
	}

	path := pq.Array(segments)

	switch u.Op {
	case OpSet:
		value, err := json.Marshal(u.Value)
		if err != nil {
			return "", errors.Trace(err)
		}

		return fmt.Sprintf(
			"jsonb_set(%s, %s::text[], %s::jsonb, true)",
			expr, args.Add(path), args.Add(string(value)),
		), nil

	case OpIncrement:
		delta, ok := u.Value.(int64)
		if !ok {
			return "", errors.Errorf("docstore: increment value must be int64, got %T", u.Value)
		}

		return fmt.Sprintf(
			"jsonb_set(%s, %s::text[], to_jsonb(COALESCE((%s #>> %s::text[])::numeric, 0) + %s), true)",
			expr, args.Add(path), expr, args.Add(path), args.Add(delta),
		), nil

	case OpArrayUnion:
		// The element is marshalled wrapped in an array so it can be
		// used both with the jsonb containment and append operators.
		element, err := json.Marshal([]any{u.Value})
		if err != nil {
			return "", errors.Trace(err)
		}

		current := fmt.Sprintf("COALESCE(%s #> %s::text[], '[]'::jsonb)", expr, args.Add(path))

		return fmt.Sprintf(
			"jsonb_set(%s, %s::text[], CASE WHEN %s @> %s::jsonb THEN %s ELSE %s || %s::jsonb END, true)",
			expr, args.Add(path),
			current, args.Add(string(element)),
			current,
			current, args.Add(string(element)),
		), nil

	case OpArrayAppend:
		element, err := json.Marshal([]any{u.Value})
		if err != nil {
			return "", errors.Trace(err)
		}

		return fmt.Sprintf(
			"jsonb_set(%s, %s::text[], COALESCE(%s #> %s::text[], '[]'::jsonb) || %s::jsonb, true)",
			expr, args.Add(path), expr, args.Add(path), args.Add(string(element)),
		), nil
	}

	return "", errors.Errorf("docstore: unknown field op %q", u.Op)
}
