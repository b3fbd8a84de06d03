package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"observatory-backend/internal/domains/record/model"
	"observatory-backend/pkg/database"
)

// postgresRepository: JSONB cho orbital_elements/state_vector, TIMESTAMPTZ cho timestamps.
// Reads chạy trong snapshot read-only để records và observatories nhất quán.
type postgresRepository struct {
	pool *pgxpool.Pool
	opts options
}

func NewPostgresRepository(pool *pgxpool.Pool, opts ...Option) RecordRepository {
	return &postgresRepository{pool: pool, opts: newOptions(opts)}
}

const postgresRecordColumns = `id, target_body_name, center_body_name, epoch,
	orbital_elements::text, state_vector::text,
	record_payload, record_owner, record_time_received, update_reason, edited`

const postgresObservatoryColumns = `record_id, latitude, longitude, observatory_name,
	temperature_in_kelvins, cloudiness_percentage, background_light_volume`

func (r *postgresRepository) Create(ctx context.Context, record *model.Record) (int64, error) {
	orbital, err := marshalOptional(record.OrbitalElements)
	if err != nil {
		return 0, err
	}
	state, err := marshalOptional(record.StateVector)
	if err != nil {
		return 0, err
	}
	now := r.opts.now()

	id, err := database.WithTransactionResult(ctx, r.pool, func(tx pgx.Tx) (int64, error) {
		query := `
			INSERT INTO records (
				target_body_name, center_body_name, epoch, orbital_elements, state_vector,
				record_payload, record_owner, record_time_received
			) VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6, $7, $8)
			RETURNING id
		`
		var id int64
		err := tx.QueryRow(ctx, query,
			record.TargetBodyName,
			record.CenterBodyName,
			record.Epoch,
			orbital,
			state,
			record.Payload,
			record.Owner,
			now,
		).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("insert record: %w", err)
		}

		if err := insertObservatoriesPostgres(ctx, tx, id, record.Observatories); err != nil {
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

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*model.Record, error) {
	var record *model.Record

	err := database.WithReadTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+postgresRecordColumns+` FROM records WHERE id = $1`, id)
		var err error
		record, err = scanPostgresRecord(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrRecordNotFound
		}
		if err != nil {
			return err
		}

		byRecord, err := queryObservatoriesPostgres(ctx, tx,
			`SELECT `+postgresObservatoryColumns+` FROM observatories WHERE record_id = $1 ORDER BY position`, id)
		if err != nil {
			return err
		}
		record.Observatories = byRecord[id]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *postgresRepository) List(ctx context.Context) ([]*model.Record, error) {
	records := make([]*model.Record, 0)

	err := database.WithReadTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, `SELECT `+postgresRecordColumns+` FROM records ORDER BY id`)
		if err != nil {
			return fmt.Errorf("query records: %w", err)
		}
		for rows.Next() {
			record, err := scanPostgresRecord(rows)
			if err != nil {
				rows.Close()
				return err
			}
			records = append(records, record)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("iterate records: %w", err)
		}
		if len(records) == 0 {
			return nil
		}

		byRecord, err := queryObservatoriesPostgres(ctx, tx,
			`SELECT `+postgresObservatoryColumns+` FROM observatories ORDER BY record_id, position`)
		if err != nil {
			return err
		}
		attachObservatories(records, byRecord)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *postgresRepository) Update(ctx context.Context, record *model.Record) error {
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

	err = database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			UPDATE records SET
				target_body_name = $1,
				center_body_name = $2,
				epoch = $3,
				orbital_elements = $4::jsonb,
				state_vector = $5::jsonb,
				record_payload = $6,
				update_reason = $7,
				edited = $8
			WHERE id = $9
		`
		tag, err := tx.Exec(ctx, query,
			record.TargetBodyName,
			record.CenterBodyName,
			record.Epoch,
			orbital,
			state,
			record.Payload,
			reason,
			now,
			record.ID,
		)
		if err != nil {
			return fmt.Errorf("update record: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return model.ErrRecordNotFound
		}

		if _, err := tx.Exec(ctx, `DELETE FROM observatories WHERE record_id = $1`, record.ID); err != nil {
			return fmt.Errorf("delete observatories: %w", err)
		}
		return insertObservatoriesPostgres(ctx, tx, record.ID, record.Observatories)
	})
	if err != nil {
		return err
	}

	record.Edited = &now
	record.UpdateReason = &reason
	return nil
}

// insertObservatoriesPostgres gửi tất cả INSERT trong một batch round-trip
func insertObservatoriesPostgres(ctx context.Context, tx pgx.Tx, recordID int64, observatories []model.Observatory) error {
	if len(observatories) == 0 {
		return nil
	}

	query := `
		INSERT INTO observatories (
			record_id, position, latitude, longitude, observatory_name,
			temperature_in_kelvins, cloudiness_percentage, background_light_volume
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	batch := &pgx.Batch{}
	for i, o := range observatories {
		temp, cloud, light := weatherColumns(o.Weather)
		batch.Queue(query, recordID, i, o.Latitude, o.Longitude, o.Name, temp, cloud, light)
	}

	results := tx.SendBatch(ctx, batch)
	for i := range observatories {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("insert observatory %d: %w", i, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("close observatory batch: %w", err)
	}
	return nil
}

func queryObservatoriesPostgres(ctx context.Context, tx pgx.Tx, query string, args ...any) (map[int64][]model.Observatory, error) {
	rows, err := tx.Query(ctx, query, args...)
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

func scanPostgresRecord(row rowScanner) (*model.Record, error) {
	var (
		record  model.Record
		orbital *string
		state   *string
		edited  *time.Time
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
		&record.TimeReceived,
		&record.UpdateReason,
		&edited,
	)
	if errors.Is(err, pgx.ErrNoRows) {
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

	record.TimeReceived = record.TimeReceived.UTC()
	if edited != nil {
		e := edited.UTC()
		record.Edited = &e
	}
	return &record, nil
}
