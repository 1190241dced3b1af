package main

// schemaDDL creates the service's tables. Batches and wallets persist as
// whole documents; slot periods and orders are rows so the capacity
// counters can be mutated through conditional updates.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS plant_slots (
	id         BIGSERIAL PRIMARY KEY,
	plant_id   BIGINT NOT NULL,
	subtype_id BIGINT NOT NULL,
	year       INT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (plant_id, subtype_id, year)
);

CREATE TABLE IF NOT EXISTS slot_periods (
	id                  BIGSERIAL PRIMARY KEY,
	plant_slot_id       BIGINT NOT NULL REFERENCES plant_slots (id) ON DELETE CASCADE,
	start_date          DATE NOT NULL,
	end_date            DATE NOT NULL,
	month_name          TEXT NOT NULL,
	total_plants        INT NOT NULL DEFAULT 0,
	total_booked_plants INT NOT NULL DEFAULT 0,
	overflow            BOOLEAN NOT NULL DEFAULT FALSE,
	status              TEXT NOT NULL DEFAULT 'open',
	CHECK (total_plants >= 0)
);

CREATE TABLE IF NOT EXISTS outward_batches (
	id         BIGSERIAL PRIMARY KEY,
	plant_id   BIGINT NOT NULL,
	subtype_id BIGINT NOT NULL,
	batch_code TEXT NOT NULL,
	version    BIGINT NOT NULL DEFAULT 1,
	doc        JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS dealer_wallets (
	id         BIGSERIAL PRIMARY KEY,
	dealer_id  BIGINT NOT NULL UNIQUE,
	version    BIGINT NOT NULL DEFAULT 1,
	doc        JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS orders (
	id               BIGSERIAL PRIMARY KEY,
	order_number     BIGINT NOT NULL UNIQUE,
	farmer_id        BIGINT NOT NULL DEFAULT 0,
	dealer_id        BIGINT NOT NULL DEFAULT 0,
	salesperson_id   BIGINT NOT NULL,
	plant_id         BIGINT NOT NULL,
	subtype_id       BIGINT NOT NULL,
	slot_period_id   BIGINT NOT NULL REFERENCES slot_periods (id),
	quantity         INT NOT NULL,
	remaining        INT NOT NULL,
	rate             NUMERIC(12, 2) NOT NULL DEFAULT 0,
	from_wallet      INT NOT NULL DEFAULT 0,
	from_slot        INT NOT NULL DEFAULT 0,
	intent           TEXT NOT NULL,
	company_quota    BOOLEAN NOT NULL DEFAULT FALSE,
	dealer_order     BOOLEAN NOT NULL DEFAULT FALSE,
	status           TEXT NOT NULL,
	payments         JSONB NOT NULL DEFAULT '[]',
	status_history   JSONB NOT NULL DEFAULT '[]',
	delivery_history JSONB NOT NULL DEFAULT '[]',
	version          BIGINT NOT NULL DEFAULT 1,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
