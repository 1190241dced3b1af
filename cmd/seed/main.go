package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/vrukshagro/backend-go/internal/domain"
)

type ctxKey string

const dbKey ctxKey = "db"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*sql.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func contextDB(c *cli.Context) (*sql.DB, error) {
	db, ok := c.Context.Value(dbKey).(*sql.DB)
	if !ok || db == nil {
		return nil, fmt.Errorf("database connection not initialized")
	}
	return db, nil
}

func runInitSchema(c *cli.Context) error {
	db, err := contextDB(c)
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(c.Context, schemaDDL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	log.Println("schema applied")
	return nil
}

func runRegisterSlots(c *cli.Context) error {
	db, err := contextDB(c)
	if err != nil {
		return err
	}

	plantID := c.Int64("plant-id")
	subtypeID := c.Int64("subtype-id")
	year := c.Int("year")
	periods := domain.GeneratePeriods(year, c.Int("period-days"), c.Int("capacity"))

	tx, err := db.BeginTx(c.Context, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var slotID int64
	err = tx.QueryRowContext(c.Context, `
		INSERT INTO plant_slots (plant_id, subtype_id, year, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id`,
		plantID, subtypeID, year,
	).Scan(&slotID)
	if err != nil {
		return fmt.Errorf("failed to insert plant slot: %w", err)
	}

	stmt, err := tx.PrepareContext(c.Context, `
		INSERT INTO slot_periods (
			plant_slot_id, start_date, end_date, month_name,
			total_plants, total_booked_plants, overflow, status
		) VALUES ($1, $2, $3, $4, $5, 0, false, $6)`)
	if err != nil {
		return fmt.Errorf("failed to prepare period insert: %w", err)
	}
	defer stmt.Close()

	for _, p := range periods {
		if _, err := stmt.ExecContext(c.Context, slotID, p.StartDate, p.EndDate,
			p.MonthName, p.TotalPlants, p.Status); err != nil {
			return fmt.Errorf("failed to insert slot period: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}

	log.Printf("registered slot %d with %d periods for plant %d subtype %d year %d\n",
		slotID, len(periods), plantID, subtypeID, year)
	return nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Administer nursery capacity data",
		Flags: []cli.Flag{
			newDBURLFlag(),
		},
		Commands: []*cli.Command{
			{
				Name:   "init-db",
				Usage:  "Apply the database schema",
				Flags:  []cli.Flag{newDBURLFlag()},
				Before: initDB,
				After:  closeDB,
				Action: runInitSchema,
			},
			{
				Name:  "slots",
				Usage: "Register a plant subtype's delivery periods for a year",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.Int64Flag{Name: "plant-id", Usage: "Plant identifier", Required: true},
					&cli.Int64Flag{Name: "subtype-id", Usage: "Plant subtype identifier", Required: true},
					&cli.IntFlag{Name: "year", Usage: "Delivery year", Required: true},
					&cli.IntFlag{
						Name:    "period-days",
						Usage:   "Length of each delivery period in days",
						Value:   5,
						EnvVars: []string{"APP_PERIOD_LENGTH_DAYS"},
					},
					&cli.IntFlag{Name: "capacity", Usage: "Plant capacity per period", Required: true},
				},
				Before: initDB,
				After:  closeDB,
				Action: runRegisterSlots,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
