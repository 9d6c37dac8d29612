package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/account"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/audit"
	"github.com/louisbranch/verifier.space/internal/services/verifier/domain/bounty"
	"github.com/louisbranch/verifier.space/internal/services/verifier/storage"
)

// AppendAuditRecord appends a vote and returns its sequence number.
func (t *tx) AppendAuditRecord(ctx context.Context, rec audit.Record) (uint64, error) {
	if _, err := audit.ParseKind(string(rec.Kind)); err != nil {
		return 0, err
	}
	if strings.TrimSpace(rec.Pair.ArtifactID) == "" || strings.TrimSpace(rec.Pair.AuditType) == "" {
		return 0, fmt.Errorf("artifact id and audit type are required")
	}
	metadata, err := encodeMap(rec.Metadata)
	if err != nil {
		return 0, err
	}
	late := 0
	if rec.Late {
		late = 1
	}
	result, err := t.sqlTx.ExecContext(ctx, `
INSERT INTO audit_records (artifact_id, audit_type, bounty_id, kind, auditor, report, metadata_json, late, filed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		rec.Pair.ArtifactID,
		rec.Pair.AuditType,
		int64(rec.BountyID),
		string(rec.Kind),
		string(rec.Auditor),
		rec.Report,
		metadata,
		late,
		toMillis(rec.FiledAt),
	)
	if err != nil {
		return 0, fmt.Errorf("append audit record: %w", err)
	}
	seq, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append audit record seq: %w", err)
	}
	return uint64(seq), nil
}

// ListAuditRecords returns every vote for the pair in filing order.
func (t *tx) ListAuditRecords(ctx context.Context, pair audit.Pair) ([]audit.Record, error) {
	rows, err := t.sqlTx.QueryContext(ctx, `
SELECT seq, bounty_id, kind, auditor, report, metadata_json, late, filed_at
FROM audit_records
WHERE artifact_id = ? AND audit_type = ?
ORDER BY seq
`, pair.ArtifactID, pair.AuditType)
	if err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	defer rows.Close()

	var out []audit.Record
	for rows.Next() {
		var (
			rec      audit.Record
			seq      int64
			bountyID int64
			kind     string
			auditor  string
			metadata string
			late     int
			filedAt  int64
		)
		if err := rows.Scan(&seq, &bountyID, &kind, &auditor, &rec.Report, &metadata, &late, &filedAt); err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}
		if rec.Kind, err = audit.ParseKind(kind); err != nil {
			return nil, err
		}
		if rec.Metadata, err = decodeMap(metadata); err != nil {
			return nil, err
		}
		rec.Seq = uint64(seq)
		rec.Pair = pair
		rec.BountyID = bounty.ID(bountyID)
		rec.Auditor = account.ID(auditor)
		rec.Late = late != 0
		rec.FiledAt = fromMillis(filedAt)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit records: %w", err)
	}
	return out, nil
}

// BountyVoted reports whether any vote was filed under the bounty.
func (t *tx) BountyVoted(ctx context.Context, id bounty.ID) (bool, error) {
	var found int
	err := t.sqlTx.QueryRowContext(ctx, `SELECT 1 FROM audit_records WHERE bounty_id = ? LIMIT 1`, int64(id)).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check bounty vote: %w", err)
	}
	return true, nil
}

// BountyVotedInTime reports whether a non-late vote was filed under the bounty.
func (t *tx) BountyVotedInTime(ctx context.Context, id bounty.ID) (bool, error) {
	var found int
	err := t.sqlTx.QueryRowContext(ctx, `SELECT 1 FROM audit_records WHERE bounty_id = ? AND late = 0 LIMIT 1`, int64(id)).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check timely bounty vote: %w", err)
	}
	return true, nil
}

// GetOutcome returns the terminal outcome of a pair or storage.ErrNotFound
// while it is still pending.
func (t *tx) GetOutcome(ctx context.Context, pair audit.Pair) (audit.Outcome, error) {
	row := t.sqlTx.QueryRowContext(ctx, `
SELECT artifact_id, audit_type, status, attestation_count, divergence_count, finalized_at
FROM outcomes
WHERE artifact_id = ? AND audit_type = ?
`, pair.ArtifactID, pair.AuditType)
	outcome, err := scanOutcome(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return audit.Outcome{}, storage.ErrNotFound
		}
		return audit.Outcome{}, fmt.Errorf("get outcome: %w", err)
	}
	return outcome, nil
}

// PutOutcome persists a terminal outcome. The pair primary key makes a
// second finalization fail with storage.ErrAlreadyExists.
func (t *tx) PutOutcome(ctx context.Context, outcome audit.Outcome) error {
	if !outcome.Status.Terminal() {
		return fmt.Errorf("only terminal outcomes are stored, got %q", outcome.Status)
	}
	_, err := t.sqlTx.ExecContext(ctx, `
INSERT INTO outcomes (artifact_id, audit_type, status, attestation_count, divergence_count, finalized_at)
VALUES (?, ?, ?, ?, ?, ?)
`,
		outcome.Pair.ArtifactID,
		outcome.Pair.AuditType,
		string(outcome.Status),
		outcome.AttestationCount,
		outcome.DivergenceCount,
		toMillis(outcome.FinalizedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("put outcome: %w", err)
	}
	return nil
}

// ListOutcomesForArtifact returns every terminal outcome of an artifact.
func (t *tx) ListOutcomesForArtifact(ctx context.Context, artifactID string) ([]audit.Outcome, error) {
	rows, err := t.sqlTx.QueryContext(ctx, `
SELECT artifact_id, audit_type, status, attestation_count, divergence_count, finalized_at
FROM outcomes
WHERE artifact_id = ?
ORDER BY audit_type
`, artifactID)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var out []audit.Outcome
	for rows.Next() {
		outcome, err := scanOutcome(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out = append(out, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	return out, nil
}

func scanOutcome(scan func(dest ...any) error) (audit.Outcome, error) {
	var (
		outcome     audit.Outcome
		status      string
		finalizedAt int64
	)
	if err := scan(
		&outcome.Pair.ArtifactID,
		&outcome.Pair.AuditType,
		&status,
		&outcome.AttestationCount,
		&outcome.DivergenceCount,
		&finalizedAt,
	); err != nil {
		return audit.Outcome{}, err
	}
	parsed, err := audit.ParseStatus(status)
	if err != nil {
		return audit.Outcome{}, err
	}
	outcome.Status = parsed
	outcome.FinalizedAt = fromMillis(finalizedAt)
	return outcome, nil
}

// AppendEvent appends an audit-trail event and returns its sequence number.
func (t *tx) AppendEvent(ctx context.Context, evt storage.Event) (uint64, error) {
	evt.ID = strings.TrimSpace(evt.ID)
	evt.Type = strings.TrimSpace(evt.Type)
	if evt.ID == "" {
		return 0, fmt.Errorf("event id is required")
	}
	if evt.Type == "" {
		return 0, fmt.Errorf("event type is required")
	}
	if strings.TrimSpace(evt.PayloadJSON) == "" {
		evt.PayloadJSON = "{}"
	}
	result, err := t.sqlTx.ExecContext(ctx, `
INSERT INTO events (id, event_type, artifact_id, audit_type, bounty_id, account_id, payload_json, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`,
		evt.ID,
		evt.Type,
		evt.ArtifactID,
		evt.AuditType,
		int64(evt.BountyID),
		string(evt.AccountID),
		evt.PayloadJSON,
		toMillis(evt.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, storage.ErrAlreadyExists
		}
		return 0, fmt.Errorf("append event: %w", err)
	}
	seq, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("append event seq: %w", err)
	}
	return uint64(seq), nil
}

// ListEvents returns up to limit events after afterSeq in sequence order.
func (t *tx) ListEvents(ctx context.Context, afterSeq uint64, limit int) ([]storage.Event, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than zero")
	}
	rows, err := t.sqlTx.QueryContext(ctx, `
SELECT seq, id, event_type, artifact_id, audit_type, bounty_id, account_id, payload_json, created_at
FROM events
WHERE seq > ?
ORDER BY seq
LIMIT ?
`, int64(afterSeq), limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []storage.Event
	for rows.Next() {
		var (
			evt       storage.Event
			seq       int64
			bountyID  int64
			accountID string
			createdAt int64
		)
		if err := rows.Scan(
			&seq,
			&evt.ID,
			&evt.Type,
			&evt.ArtifactID,
			&evt.AuditType,
			&bountyID,
			&accountID,
			&evt.PayloadJSON,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evt.Seq = uint64(seq)
		evt.BountyID = bounty.ID(bountyID)
		evt.AccountID = account.ID(accountID)
		evt.CreatedAt = fromMillis(createdAt)
		out = append(out, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}
