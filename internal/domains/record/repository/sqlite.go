package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"observatory-backend/internal/domains/record/model"
	"observatory-backend/pkg/database"
)

// sqliteRepository lưu timestamps dưới dạng epoch millis (INTEGER)
// và orbital_elements/state_vector dưới dạng JSON text.
// *sql.DB chỉ có 1 connection: bên trong transaction chỉ dùng tx, không dùng r.db.
type sqliteRepository struct {
	db   *sql.DB
	opts options
}

func NewSQLiteRepository(db *sql.DB, opts ...Option) RecordRepository {
	return &sqliteRepository{db: db, opts: newOptions(opts)}
}

const sqliteRecordColumns = `id, target_body_name, center_body_name, epoch, orbital_elements, state_vector,
	record_payload, record_owner, record_time_received, update_reason, edited`

const sqliteObservatoryColumns = `record_id, latitude, longitude, observatory_name,
	temperature_in_kelvins, cloudiness_percentage, background_light_volume`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *sqliteRepository) Create(ctx context.Context, record *model.Record) (int64, error) {
	orbital, err := marshalOptional(record.OrbitalElements)
	if err != nil {
		return 0, err
	}
	state, err := marshalOptional(record.StateVector)
	if err != nil {
		return 0, err
	}
	now := r.opts.now()

	id, err := database.WithSQLTransactionResult(ctx, r.db, func(tx *sql.Tx) (int64, error) {
		query := `
			INSERT INTO records (
				target_body_name, center_body_name, epoch, orbital_elements, state_vector,
				record_payload, record_owner, record_time_received
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`
		res, err := tx.ExecContext(ctx, query,
			record.TargetBodyName,
			record.CenterBodyName,
			record.Epoch,
			orbital,
			state,
			record.Payload,
			record.Owner,
			now.UnixMilli(),
		)
		if err != nil {
			return 0, fmt.Errorf("insert record: %w", err)
		}

		id, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("record last insert id: %w", err)
		}

		if err := r.insertObservatories(ctx, tx, id, record.Observatories); err != nil {
			return 0, err
		}
		return id, nil
	})
	if err != nil {
		return 0, err
	}

	record.ID = id
	record.TimeReceived = now
	return id, nil
}

func (r *sqliteRepository) GetByID(ctx context.Context, id int64) (*model.Record, error) {
	return database.WithSQLTransactionResult(ctx, r.db, func(tx *sql.Tx) (*model.Record, error) {
		row := tx.QueryRowContext(ctx, `SELECT `+sqliteRecordColumns+` FROM records WHERE id = ?`, id)
		record, err := scanSQLiteRecord(row)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrRecordNotFound
		}
		if err != nil {
			return nil, err
		}

		byRecord, err := r.queryObservatories(ctx, tx,
			`SELECT `+sqliteObservatoryColumns+` FROM observatories WHERE record_id = ? ORDER BY position`, id)
		if err != nil {
			return nil, err
		}
		record.Observatories = byRecord[id]
		return record, nil
	})
}

func (r *sqliteRepository) List(ctx context.Context) ([]*model.Record, error) {
	return database.WithSQLTransactionResult(ctx, r.db, func(tx *sql.Tx) ([]*model.Record, error) {
		records, err := r.queryRecords(ctx, tx)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return records, nil
		}

		byRecord, err := r.queryObservatories(ctx, tx,
			`SELECT `+sqliteObservatoryColumns+` FROM observatories ORDER BY record_id, position`)
		if err != nil {
			return nil, err
		}
		attachObservatories(records, byRecord)
		return records, nil
	})
}

func (r *sqliteRepository) Update(ctx context.Context, record *model.Record) error {
	orbital, err := marshalOptional(record.OrbitalElements)
	if err != nil {
		return err
	}
	state, err := marshalOptional(record.StateVector)
	if err != nil {
		return err
	}
	now := r.opts.now()
	reason := updateReason(record.UpdateReason)

	err = database.WithSQLTransaction(ctx, r.db, func(tx *sql.Tx) error {
		query := `
			UPDATE records SET
				target_body_name = ?,
				center_body_name = ?,
				epoch = ?,
				orbital_elements = ?,
				state_vector = ?,
				record_payload = ?,
				update_reason = ?,
				edited = ?
			WHERE id = ?
		`
		res, err := tx.ExecContext(ctx, query,
			record.TargetBodyName,
			record.CenterBodyName,
			record.Epoch,
			orbital,
			state,
			record.Payload,
			reason,
			now.UnixMilli(),
			record.ID,
		)
		if err != nil {
			return fmt.Errorf("update record: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update record rows affected: %w", err)
		}
		if n == 0 {
			return model.ErrRecordNotFound
		}

		// Thay toàn bộ observatory set trong cùng transaction
		if _, err := tx.ExecContext(ctx, `DELETE FROM observatories WHERE record_id = ?`, record.ID); err != nil {
			return fmt.Errorf("delete observatories: %w", err)
		}
		return r.insertObservatories(ctx, tx, record.ID, record.Observatories)
	})
	if err != nil {
		return err
	}

	record.Edited = &now
	record.UpdateReason = &reason
	return nil
}

func (r *sqliteRepository) insertObservatories(ctx context.Context, tx *sql.Tx, recordID int64, observatories []model.Observatory) error {
	if len(observatories) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO observatories (
			record_id, position, latitude, longitude, observatory_name,
			temperature_in_kelvins, cloudiness_percentage, background_light_volume
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare observatory insert: %w", err)
	}
	defer stmt.Close()

	for i, o := range observatories {
		temp, cloud, light := weatherColumns(o.Weather)
		if _, err := stmt.ExecContext(ctx, recordID, i, o.Latitude, o.Longitude, o.Name, temp, cloud, light); err != nil {
			return fmt.Errorf("insert observatory %d: %w", i, err)
		}
	}
	return nil
}

func (r *sqliteRepository) queryRecords(ctx context.Context, tx *sql.Tx) ([]*model.Record, error) {
	rows, err := tx.QueryContext(ctx, `SELECT `+sqliteRecordColumns+` FROM records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := make([]*model.Record, 0)
	for rows.Next() {
		record, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

func (r *sqliteRepository) queryObservatories(ctx context.Context, tx *sql.Tx, query string, args ...any) (map[int64][]model.Observatory, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query observatories: %w", err)
	}
	defer rows.Close()

	byRecord := make(map[int64][]model.Observatory)
	for rows.Next() {
		var (
			recordID           int64
			o                  model.Observatory
			temp, cloud, light *float64
		)
		if err := rows.Scan(&recordID, &o.Latitude, &o.Longitude, &o.Name, &temp, &cloud, &light); err != nil {
			return nil, fmt.Errorf("scan observatory: %w", err)
		}
		o.Weather = weatherFromColumns(temp, cloud, light)
		byRecord[recordID] = append(byRecord[recordID], o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate observatories: %w", err)
	}
	return byRecord, nil
}

func scanSQLiteRecord(row rowScanner) (*model.Record, error) {
	var (
		record        model.Record
		orbital       *string
		state         *string
		receivedMilli int64
		editedMilli   *int64
	)
	err := row.Scan(
		&record.ID,
		&record.TargetBodyName,
		&record.CenterBodyName,
		&record.Epoch,
		&orbital,
		&state,
		&record.Payload,
		&record.Owner,
		&receivedMilli,
		&record.UpdateReason,
		&editedMilli,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}

	if record.OrbitalElements, err = unmarshalOptional[model.OrbitalElements](orbital); err != nil {
		return nil, err
	}
	if record.StateVector, err = unmarshalOptional[model.StateVector](state); err != nil {
		return nil, err
	}

	record.TimeReceived = time.UnixMilli(receivedMilli).UTC()
	if editedMilli != nil {
		edited := time.UnixMilli(*editedMilli).UTC()
		record.Edited = &edited
	}
	return &record, nil
}
