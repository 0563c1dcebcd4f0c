package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/custodia-labs/pkgsearch/internal/core/domain"
	"github.com/custodia-labs/pkgsearch/internal/core/ports/driven"
	"github.com/custodia-labs/pkgsearch/internal/logger"
)

// index_meta keys.
const (
	metaBuilt = "built"
	metaHash  = "package_hash"
)

// localSourceName names the record source of local searches.
const localSourceName = "local"

// searchIndex implements driven.LocalIndex.
type searchIndex struct {
	store *Store
}

var _ driven.LocalIndex = (*searchIndex)(nil)

// Import stores a package and its actions, replacing an earlier import of
// the same FMRI. A built index is kept current.
func (x *searchIndex) Import(ctx context.Context, pkg driven.PackageActions) error {
	tx, err := x.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	fmri := pkg.Package.String()
	if _, err := tx.ExecContext(ctx, "DELETE FROM packages WHERE fmri = ?", fmri); err != nil {
		return fmt.Errorf("replacing package: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"INSERT INTO packages (fmri, name, publisher) VALUES (?, ?, ?)",
		fmri, pkg.Package.Name(), pkg.Publisher)
	if err != nil {
		return fmt.Errorf("inserting package: %w", err)
	}
	pkgID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading package id: %w", err)
	}

	built, err := isBuilt(ctx, tx)
	if err != nil {
		return err
	}

	for seq, a := range pkg.Actions {
		res, err := tx.ExecContext(ctx,
			"INSERT INTO actions (package_id, seq, raw) VALUES (?, ?, ?)",
			pkgID, seq, a.Raw())
		if err != nil {
			return fmt.Errorf("inserting action: %w", err)
		}
		if !built {
			continue
		}
		actionID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading action id: %w", err)
		}
		if err := insertTokens(ctx, tx, actionID, a); err != nil {
			return err
		}
	}

	if built {
		if err := writeHash(ctx, tx); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing import: %w", err)
	}
	logger.Debug("Imported %s (%d actions, built=%t)", fmri, len(pkg.Actions), built)
	return nil
}

// Rebuild regenerates every token and the package set hash.
func (x *searchIndex) Rebuild(ctx context.Context) error {
	tx, err := x.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning rebuild: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tokens"); err != nil {
		return fmt.Errorf("clearing tokens: %w", err)
	}

	rows, err := tx.QueryContext(ctx, "SELECT id, raw FROM actions ORDER BY id")
	if err != nil {
		return fmt.Errorf("querying actions: %w", err)
	}
	type storedAction struct {
		id  int64
		raw string
	}
	var stored []storedAction
	for rows.Next() {
		var sa storedAction
		if err := rows.Scan(&sa.id, &sa.raw); err != nil {
			rows.Close()
			return fmt.Errorf("scanning action: %w", err)
		}
		stored = append(stored, sa)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating actions: %w", err)
	}

	for _, sa := range stored {
		a, err := domain.ParseAction(sa.raw)
		if err != nil {
			return fmt.Errorf("action %d: %w", sa.id, err)
		}
		if err := insertTokens(ctx, tx, sa.id, a); err != nil {
			return err
		}
	}

	if err := setMeta(ctx, tx, metaBuilt, "1"); err != nil {
		return err
	}
	if err := writeHash(ctx, tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rebuild: %w", err)
	}
	logger.Info("Rebuilt index over %d actions", len(stored))
	return nil
}

// Search returns a source over every match of q. Without a built index
// the actions are scanned directly and the source ends with
// domain.ErrSlowSearchUsed.
func (x *searchIndex) Search(ctx context.Context, q domain.Query) (driven.RecordSource, error) {
	db := x.store.db

	built, err := isBuilt(ctx, db)
	if err != nil {
		return nil, err
	}
	if !built {
		logger.Warn("Local index not built, scanning all actions")
		hits, err := x.scan(ctx, q)
		if err != nil {
			return nil, err
		}
		return newRecordSource(domain.HitRecords(q, hits), domain.ErrSlowSearchUsed), nil
	}

	stored, err := getMeta(ctx, db, metaHash)
	if err != nil {
		return nil, err
	}
	current, err := packageHash(ctx, db)
	if err != nil {
		return nil, err
	}
	if stored != current {
		logger.Warn("Index hash %s does not match package set %s", stored, current)
		return newRecordSource(nil, &domain.IndexCorruptedError{Cause: "package set changed since the last rebuild"}), nil
	}

	hits, err := x.lookup(ctx, q)
	if err != nil {
		return nil, err
	}
	return newRecordSource(domain.HitRecords(q, hits), nil), nil
}

// tokenHit is a matched token with its position for ordering.
type tokenHit struct {
	tokenID int64
	hit     domain.IndexHit
}

// lookup matches each term against the tokens table.
func (x *searchIndex) lookup(ctx context.Context, q domain.Query) ([]domain.IndexHit, error) {
	column := "t.folded"
	if q.CaseSensitive {
		column = "t.value"
	}
	query := `
		SELECT t.id, t.kind, t.value, a.raw, p.fmri, p.publisher
		FROM tokens t
		JOIN actions a ON a.id = t.action_id
		JOIN packages p ON p.id = a.package_id
		WHERE ` + column + ` GLOB ?`

	seen := make(map[int64]struct{})
	var found []tokenHit
	for _, term := range q.Terms {
		pattern := globPattern(term)
		if !q.CaseSensitive {
			pattern = strings.ToLower(pattern)
		}

		rows, err := x.store.db.QueryContext(ctx, query, pattern)
		if err != nil {
			return nil, fmt.Errorf("querying tokens: %w", err)
		}
		for rows.Next() {
			var (
				th        tokenHit
				raw, fmri string
			)
			if err := rows.Scan(&th.tokenID, &th.hit.Token.Kind, &th.hit.Token.Value, &raw, &fmri, &th.hit.Publisher); err != nil {
				rows.Close()
				return nil, fmt.Errorf("scanning token: %w", err)
			}
			if _, dup := seen[th.tokenID]; dup {
				continue
			}
			seen[th.tokenID] = struct{}{}

			if th.hit.Action, err = domain.ParseAction(raw); err != nil {
				rows.Close()
				return nil, fmt.Errorf("stored action: %w", err)
			}
			if th.hit.Package, err = domain.ParsePackageRef(fmri); err != nil {
				rows.Close()
				return nil, fmt.Errorf("stored package: %w", err)
			}
			th.hit.Term = term
			found = append(found, th)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterating tokens: %w", err)
		}
	}

	// Token ids follow package, action and token order.
	sort.Slice(found, func(i, j int) bool { return found[i].tokenID < found[j].tokenID })
	hits := make([]domain.IndexHit, len(found))
	for i := range found {
		hits[i] = found[i].hit
	}
	return hits, nil
}

// scan matches every stored action without the tokens table.
func (x *searchIndex) scan(ctx context.Context, q domain.Query) ([]domain.IndexHit, error) {
	rows, err := x.store.db.QueryContext(ctx, `
		SELECT a.raw, p.fmri, p.publisher
		FROM actions a
		JOIN packages p ON p.id = a.package_id
		ORDER BY p.id, a.seq`)
	if err != nil {
		return nil, fmt.Errorf("scanning actions: %w", err)
	}
	defer rows.Close()

	var hits []domain.IndexHit
	for rows.Next() {
		var raw, fmri, publisher string
		if err := rows.Scan(&raw, &fmri, &publisher); err != nil {
			return nil, fmt.Errorf("scanning action: %w", err)
		}
		a, err := domain.ParseAction(raw)
		if err != nil {
			return nil, fmt.Errorf("stored action: %w", err)
		}
		pkg, err := domain.ParsePackageRef(fmri)
		if err != nil {
			return nil, fmt.Errorf("stored package: %w", err)
		}
		for _, tok := range domain.ActionTokens(a) {
			if term, ok := q.MatchAny(tok.Value); ok {
				hits = append(hits, domain.IndexHit{Package: pkg, Publisher: publisher, Action: a, Token: tok, Term: term})
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating actions: %w", err)
	}
	return hits, nil
}

// Contents returns packages whose names match any pattern, in import order.
func (x *searchIndex) Contents(ctx context.Context, patterns []string) ([]driven.PackageActions, error) {
	rows, err := x.store.db.QueryContext(ctx, `
		SELECT p.id, p.fmri, p.publisher, a.raw
		FROM packages p
		JOIN actions a ON a.package_id = p.id
		ORDER BY p.id, a.seq`)
	if err != nil {
		return nil, fmt.Errorf("querying contents: %w", err)
	}
	defer rows.Close()

	q := domain.Query{Terms: patterns, CaseSensitive: true}
	var (
		out    []driven.PackageActions
		lastID int64 = -1
		skip   bool
	)
	for rows.Next() {
		var (
			id             int64
			fmri, pub, raw string
		)
		if err := rows.Scan(&id, &fmri, &pub, &raw); err != nil {
			return nil, fmt.Errorf("scanning contents: %w", err)
		}

		if id != lastID {
			lastID = id
			pkg, err := domain.ParsePackageRef(fmri)
			if err != nil {
				return nil, fmt.Errorf("stored package: %w", err)
			}
			_, matched := q.MatchAny(pkg.Name())
			skip = len(patterns) > 0 && !matched
			if !skip {
				out = append(out, driven.PackageActions{Package: pkg, Publisher: pub})
			}
		}
		if skip {
			continue
		}

		a, err := domain.ParseAction(raw)
		if err != nil {
			return nil, fmt.Errorf("stored action: %w", err)
		}
		last := &out[len(out)-1]
		last.Actions = append(last.Actions, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating contents: %w", err)
	}
	return out, nil
}

// Close closes the underlying store.
func (x *searchIndex) Close() error {
	return x.store.Close()
}

// querier is the subset of *sql.DB and *sql.Tx used by the helpers.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertTokens(ctx context.Context, q querier, actionID int64, a *domain.Action) error {
	for _, tok := range domain.ActionTokens(a) {
		_, err := q.ExecContext(ctx,
			"INSERT INTO tokens (action_id, kind, value, folded) VALUES (?, ?, ?, ?)",
			actionID, tok.Kind, tok.Value, strings.ToLower(tok.Value))
		if err != nil {
			return fmt.Errorf("inserting token: %w", err)
		}
	}
	return nil
}

func isBuilt(ctx context.Context, q querier) (bool, error) {
	v, err := getMeta(ctx, q, metaBuilt)
	if err != nil {
		return false, err
	}
	return v == "1", nil
}

func getMeta(ctx context.Context, q querier, key string) (string, error) {
	var v string
	err := q.QueryRowContext(ctx, "SELECT value FROM index_meta WHERE key = ?", key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading index state: %w", err)
	}
	return v, nil
}

func setMeta(ctx context.Context, q querier, key, value string) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO index_meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("writing index state: %w", err)
	}
	return nil
}

func writeHash(ctx context.Context, q querier) error {
	h, err := packageHash(ctx, q)
	if err != nil {
		return err
	}
	return setMeta(ctx, q, metaHash, h)
}

// packageHash is the xxh3 hash of the sorted package FMRIs.
func packageHash(ctx context.Context, q querier) (string, error) {
	rows, err := q.QueryContext(ctx, "SELECT fmri FROM packages ORDER BY fmri")
	if err != nil {
		return "", fmt.Errorf("listing packages: %w", err)
	}
	defer rows.Close()

	var buf []byte
	for rows.Next() {
		var fmri string
		if err := rows.Scan(&fmri); err != nil {
			return "", fmt.Errorf("scanning package: %w", err)
		}
		buf = append(buf, fmri...)
		buf = append(buf, '\n')
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterating packages: %w", err)
	}
	return strconv.FormatUint(xxh3.Hash(buf), 16), nil
}

// globPattern escapes characters SQLite GLOB treats specially beyond '*'
// and '?'.
func globPattern(term string) string {
	return strings.ReplaceAll(term, "[", "[[]")
}

// recordSource yields precomputed records, then end or io.EOF.
type recordSource struct {
	records []domain.RawRecord
	end     error
	pos     int
}

func newRecordSource(records []domain.RawRecord, end error) *recordSource {
	return &recordSource{records: records, end: end}
}

func (s *recordSource) Name() string { return localSourceName }

func (s *recordSource) Next(ctx context.Context) (domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawRecord{}, err
	}
	if s.pos < len(s.records) {
		s.pos++
		return s.records[s.pos-1], nil
	}
	if s.end != nil {
		return domain.RawRecord{}, s.end
	}
	return domain.RawRecord{}, io.EOF
}

func (s *recordSource) Close() error {
	s.records = nil
	return nil
}
