// README: Estimate store backed by PostgreSQL.
package estimate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"charter/internal/modules/outbox"
	"charter/internal/types"
)

// db is satisfied by *pgxpool.Pool and pgx.Tx. Tests pass a transaction
// that is rolled back on cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Store struct {
	db db
}

func NewStore(db db) *Store {
	return &Store{db: db}
}

const selectEstimate = `
	SELECT e.id, e.owner_id, e.trip_kind,
	       da.name, da.latitude, da.longitude,
	       ra.name, ra.latitude, ra.longitude,
	       sa.name, sa.latitude, sa.longitude,
	       e.departure_at, e.return_at, e.passenger_count,
	       p.method, p.payer_name,
	       q.price, q.currency, q.vehicle_class, q.trip_kind,
	       v.class, v.seats, v.count,
	       e.status, e.purpose, e.requests, e.driver_accompanied,
	       e.price, e.price_changed, e.is_finished, e.finished_date, e.created_at
	FROM estimates e
	JOIN estimate_addresses da ON da.id = e.departure_address_id
	JOIN estimate_addresses ra ON ra.id = e.destination_address_id
	LEFT JOIN estimate_addresses sa ON sa.id = e.stopover_address_id
	LEFT JOIN estimate_payments p ON p.id = e.payment_id
	JOIN estimate_quotes q ON q.id = e.quote_id
	JOIN estimate_vehicles v ON v.id = e.vehicle_id`

func scanEstimate(row pgx.Row) (*Estimate, error) {
	var (
		e                          Estimate
		owner                      *string
		stopName, stopLat, stopLng *string
		payMethod, payer           *string
	)
	err := row.Scan(
		&e.ID, &owner, &e.TripKind,
		&e.Departure.Name, &e.Departure.Latitude, &e.Departure.Longitude,
		&e.Destination.Name, &e.Destination.Latitude, &e.Destination.Longitude,
		&stopName, &stopLat, &stopLng,
		&e.DepartureAt, &e.ReturnAt, &e.PassengerCount,
		&payMethod, &payer,
		&e.Quote.Price.Amount, &e.Quote.Price.Currency, &e.Quote.VehicleClass, &e.Quote.TripKind,
		&e.Vehicle.Class, &e.Vehicle.Seats, &e.Vehicle.Count,
		&e.Status, &e.Purpose, &e.Requests, &e.DriverAccompanied,
		&e.Price.Amount, &e.PriceChanged, &e.IsFinished, &e.FinishedDate, &e.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if owner != nil {
		id := types.ID(*owner)
		e.OwnerID = &id
	}
	if stopName != nil {
		e.Stopover = &Address{Name: *stopName, Latitude: deref(stopLat), Longitude: deref(stopLng)}
	}
	if payMethod != nil {
		e.Payment = &Payment{Method: PaymentMethod(*payMethod), PayerName: deref(payer)}
	}
	e.Price.Currency = e.Quote.Price.Currency
	return &e, nil
}

// Create writes the estimate, its sub-records, the creation event and any
// outbox messages in one transaction. Nothing is persisted on error.
func (s *Store) Create(ctx context.Context, e *Estimate, msgs ...outbox.Message) error {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		depID, err := insertAddress(ctx, tx, e.Departure)
		if err != nil {
			return err
		}
		destID, err := insertAddress(ctx, tx, e.Destination)
		if err != nil {
			return err
		}
		var stopID *int64
		if e.Stopover != nil {
			id, err := insertAddress(ctx, tx, *e.Stopover)
			if err != nil {
				return err
			}
			stopID = &id
		}
		var payID *int64
		if e.Payment != nil {
			var id int64
			if err := tx.QueryRow(ctx, `
				INSERT INTO estimate_payments (method, payer_name)
				VALUES ($1, $2) RETURNING id`,
				string(e.Payment.Method), e.Payment.PayerName,
			).Scan(&id); err != nil {
				return fmt.Errorf("insert payment: %w", err)
			}
			payID = &id
		}
		var vehID, quoteID int64
		if err := tx.QueryRow(ctx, `
			INSERT INTO estimate_vehicles (class, seats, count)
			VALUES ($1, $2, $3) RETURNING id`,
			string(e.Vehicle.Class), e.Vehicle.Seats, e.Vehicle.Count,
		).Scan(&vehID); err != nil {
			return fmt.Errorf("insert vehicle: %w", err)
		}
		if err := tx.QueryRow(ctx, `
			INSERT INTO estimate_quotes (price, currency, vehicle_class, trip_kind)
			VALUES ($1, $2, $3, $4) RETURNING id`,
			e.Quote.Price.Amount, e.Quote.Price.Currency, string(e.Quote.VehicleClass), string(e.Quote.TripKind),
		).Scan(&quoteID); err != nil {
			return fmt.Errorf("insert quote: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO estimates (
				id, owner_id, trip_kind,
				departure_address_id, destination_address_id, stopover_address_id,
				departure_at, return_at, passenger_count, payment_id, quote_id, vehicle_id,
				status, purpose, requests, driver_accompanied,
				price, price_changed, is_finished, created_at
			) VALUES (
				@id, @owner_id, @trip_kind,
				@departure, @destination, @stopover,
				@departure_at, @return_at, @passengers, @payment, @quote, @vehicle,
				@status, @purpose, @requests, @driver,
				@price, false, false, @created_at
			)`,
			pgx.NamedArgs{
				"id":           string(e.ID),
				"owner_id":     idPtr(e.OwnerID),
				"trip_kind":    string(e.TripKind),
				"departure":    depID,
				"destination":  destID,
				"stopover":     stopID,
				"departure_at": e.DepartureAt,
				"return_at":    e.ReturnAt,
				"passengers":   e.PassengerCount,
				"payment":      payID,
				"quote":        quoteID,
				"vehicle":      vehID,
				"status":       string(e.Status),
				"purpose":      string(e.Purpose),
				"requests":     e.Requests,
				"driver":       e.DriverAccompanied,
				"price":        e.Price.Amount,
				"created_at":   e.CreatedAt,
			},
		)
		if err != nil {
			return fmt.Errorf("insert estimate: %w", err)
		}

		if err := appendEvent(ctx, tx, &Event{
			EstimateID: e.ID,
			ToStatus:   e.Status,
			Source:     SourceUser,
			Actor:      deref(idPtr(e.OwnerID)),
			CreatedAt:  e.CreatedAt,
		}); err != nil {
			return err
		}
		for _, m := range msgs {
			if err := outbox.Enqueue(ctx, tx, m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("estimate.Store.Create: %w", err)
	}
	return nil
}

func insertAddress(ctx context.Context, tx pgx.Tx, a Address) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO estimate_addresses (name, latitude, longitude)
		VALUES ($1, $2, $3) RETURNING id`,
		a.Name, a.Latitude, a.Longitude,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert address: %w", err)
	}
	return id, nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (*Estimate, error) {
	e, err := scanEstimate(s.db.QueryRow(ctx, selectEstimate+` WHERE e.id = $1`, string(id)))
	if err != nil {
		return nil, fmt.Errorf("estimate.Store.Get: %w", err)
	}
	return e, nil
}

// List returns one page of the owner's estimates, newest first, plus the
// total count. A nil finished matches both finished and unfinished rows.
func (s *Store) List(ctx context.Context, owner types.ID, finished *bool, page types.Page) ([]Estimate, int, error) {
	args := pgx.NamedArgs{
		"owner":    string(owner),
		"finished": finished,
		"limit":    page.Limit,
		"offset":   page.Offset(),
	}
	const filter = ` WHERE e.owner_id = @owner AND (@finished::boolean IS NULL OR e.is_finished = @finished::boolean)`

	var total int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM estimates e`+filter, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("estimate.Store.List count: %w", err)
	}
	items, err := s.query(ctx, selectEstimate+filter+` ORDER BY e.created_at DESC, e.id LIMIT @limit OFFSET @offset`, args)
	if err != nil {
		return nil, 0, fmt.Errorf("estimate.Store.List: %w", err)
	}
	return items, total, nil
}

func (s *Store) ListByStatus(ctx context.Context, status Status) ([]Estimate, error) {
	items, err := s.query(ctx, selectEstimate+` WHERE e.status = $1 ORDER BY e.created_at`, string(status))
	if err != nil {
		return nil, fmt.Errorf("estimate.Store.ListByStatus: %w", err)
	}
	return items, nil
}

// ListUnfinishedConfirmed returns the finish sweep candidates.
func (s *Store) ListUnfinishedConfirmed(ctx context.Context) ([]Estimate, error) {
	items, err := s.query(ctx, selectEstimate+`
		WHERE e.status = $1 AND e.is_finished = false
		ORDER BY e.created_at`, string(StatusConfirmed))
	if err != nil {
		return nil, fmt.Errorf("estimate.Store.ListUnfinishedConfirmed: %w", err)
	}
	return items, nil
}

func (s *Store) query(ctx context.Context, sql string, args ...any) ([]Estimate, error) {
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Estimate
	for rows.Next() {
		e, err := scanEstimate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// Delete removes an owned estimate and the sub-records it references.
func (s *Store) Delete(ctx context.Context, id, owner types.ID) error {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		var (
			dep, dest, quote, vehicle int64
			stop, payment             *int64
		)
		err := tx.QueryRow(ctx, `
			DELETE FROM estimates
			WHERE id = $1 AND owner_id = $2
			RETURNING departure_address_id, destination_address_id, stopover_address_id,
			          payment_id, quote_id, vehicle_id`,
			string(id), string(owner),
		).Scan(&dep, &dest, &stop, &payment, &quote, &vehicle)
		if errors.Is(err, pgx.ErrNoRows) {
			return types.ErrNotFound
		}
		if err != nil {
			return err
		}
		addrs := []int64{dep, dest}
		if stop != nil {
			addrs = append(addrs, *stop)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM estimate_addresses WHERE id = ANY($1)`, addrs); err != nil {
			return err
		}
		if payment != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM estimate_payments WHERE id = $1`, *payment); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `DELETE FROM estimate_quotes WHERE id = $1`, quote); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `DELETE FROM estimate_vehicles WHERE id = $1`, vehicle)
		return err
	})
	if err != nil {
		return fmt.Errorf("estimate.Store.Delete: %w", err)
	}
	return nil
}

// UpdateStatus writes to unconditionally and reports the status it replaced.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, to Status) (StatusChange, error) {
	var (
		change StatusChange
		owner  *string
	)
	err := s.db.QueryRow(ctx, `
		WITH old AS (
			SELECT id, status, owner_id FROM estimates WHERE id = $1 FOR UPDATE
		)
		UPDATE estimates e SET status = $2
		FROM old WHERE e.id = old.id
		RETURNING old.status, old.owner_id`,
		string(id), string(to),
	).Scan(&change.From, &owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return StatusChange{}, fmt.Errorf("estimate.Store.UpdateStatus: %w", types.ErrNotFound)
	}
	if err != nil {
		return StatusChange{}, fmt.Errorf("estimate.Store.UpdateStatus: %w", err)
	}
	if owner != nil {
		o := types.ID(*owner)
		change.OwnerID = &o
	}
	return change, nil
}

// CompareAndSetStatus moves from -> to only if the row still holds from.
func (s *Store) CompareAndSetStatus(ctx context.Context, id types.ID, from, to Status) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE estimates SET status = $1
		WHERE id = $2 AND status = $3`,
		string(to), string(id), string(from),
	)
	if err != nil {
		return false, fmt.Errorf("estimate.Store.CompareAndSetStatus: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SaveAdministrative persists vehicle, price and status corrections. The
// quote snapshot is never written here.
func (s *Store) SaveAdministrative(ctx context.Context, e *Estimate) error {
	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE estimates
			SET price = $2, price_changed = $3, status = $4
			WHERE id = $1`,
			string(e.ID), e.Price.Amount, e.PriceChanged, string(e.Status),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return types.ErrNotFound
		}
		_, err = tx.Exec(ctx, `
			UPDATE estimate_vehicles v
			SET class = $2, count = $3
			FROM estimates e
			WHERE e.id = $1 AND v.id = e.vehicle_id`,
			string(e.ID), string(e.Vehicle.Class), e.Vehicle.Count,
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("estimate.Store.SaveAdministrative: %w", err)
	}
	return nil
}

// MarkFinished flips is_finished only if it is still false, so concurrent
// or repeated sweeps flip each row exactly once.
func (s *Store) MarkFinished(ctx context.Context, id types.ID, finishedOn time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE estimates
		SET is_finished = true, finished_date = $2
		WHERE id = $1 AND is_finished = false`,
		string(id), finishedOn,
	)
	if err != nil {
		return false, fmt.Errorf("estimate.Store.MarkFinished: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) AppendEvent(ctx context.Context, ev *Event) error {
	if err := appendEvent(ctx, s.db, ev); err != nil {
		return fmt.Errorf("estimate.Store.AppendEvent: %w", err)
	}
	return nil
}

func appendEvent(ctx context.Context, db outbox.Execer, ev *Event) error {
	var from *string
	if ev.FromStatus != nil {
		f := string(*ev.FromStatus)
		from = &f
	}
	_, err := db.Exec(ctx, `
		INSERT INTO estimate_events (estimate_id, from_status, to_status, source, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		string(ev.EstimateID), from, string(ev.ToStatus), ev.Source, ev.Actor, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func idPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
