package domain

import "time"

// Stage identifies one step of the production pipeline.
type Stage string

const (
	StageLab              Stage = "lab"
	StagePrimaryInward    Stage = "primary_inward"
	StagePrimaryOutward   Stage = "primary_outward"
	StageSecondaryInward  Stage = "secondary_inward"
	StageSecondaryOutward Stage = "secondary_outward"
)

// TransferStatus tracks how much of an entry has moved downstream.
type TransferStatus string

const (
	TransferAvailable TransferStatus = "available"
	TransferPartial   TransferStatus = "partially_transferred"
	TransferFull      TransferStatus = "fully_transferred"
)

// SizeClass is the plant size classification of a batch entry.
type SizeClass string

const (
	SizeR1 SizeClass = "R1"
	SizeR2 SizeClass = "R2"
	SizeR3 SizeClass = "R3"
)

// ValidSizeClass reports whether s is a known size classification.
func ValidSizeClass(s SizeClass) bool {
	switch s {
	case SizeR1, SizeR2, SizeR3:
		return true
	}
	return false
}

// TransferRecord is one downstream movement out of a stage entry.
// Records are append-only.
type TransferRecord struct {
	Date               time.Time `json:"date"`
	Quantity           int       `json:"quantity"`
	Bottles            int       `json:"bottles,omitempty"`
	Remark             string    `json:"remark,omitempty"`
	DestinationEntryID int64     `json:"destination_entry_id"`
}

// StageEntry is one batch of stock at one pipeline stage. Lab entries track
// both plants and bottles; inward/outward entries derive their quantity from
// cavity size and tray count.
type StageEntry struct {
	ID                int64            `json:"id"`
	Stage             Stage            `json:"stage"`
	Date              time.Time        `json:"date"`
	Size              SizeClass        `json:"size"`
	Bottles           int              `json:"bottles,omitempty"`
	CavitySize        int              `json:"cavity_size,omitempty"`
	TrayCount         int              `json:"tray_count,omitempty"`
	Quantity          int              `json:"quantity"`
	AvailableQuantity int              `json:"available_quantity"`
	AvailableBottles  int              `json:"available_bottles,omitempty"`
	Status            TransferStatus   `json:"status"`
	SourceEntryID     int64            `json:"source_entry_id,omitempty"`
	Facility          string           `json:"facility,omitempty"`
	Labour            string           `json:"labour,omitempty"`
	QualityOfDispatch string           `json:"quality_of_dispatch,omitempty"`
	Remarks           string           `json:"remarks,omitempty"`
	Transfers         []TransferRecord `json:"transfers,omitempty"`
}

// applyTransfer debits quantity (and bottles, for lab entries) from the
// entry, appends the history record and advances the transfer status.
func (e *StageEntry) applyTransfer(rec TransferRecord) error {
	if rec.Quantity > e.AvailableQuantity {
		return &StockError{Stage: e.Stage, EntryID: e.ID, Requested: rec.Quantity, Available: e.AvailableQuantity}
	}
	if e.Stage == StageLab && rec.Bottles > e.AvailableBottles {
		return &StockError{Stage: e.Stage, EntryID: e.ID, Requested: rec.Bottles, Available: e.AvailableBottles}
	}
	e.AvailableQuantity -= rec.Quantity
	if e.Stage == StageLab {
		e.AvailableBottles -= rec.Bottles
	}
	e.Transfers = append(e.Transfers, rec)
	if e.AvailableQuantity == 0 {
		e.Status = TransferFull
	} else {
		e.Status = TransferPartial
	}
	return nil
}

// TransferRequest carries the destination-stage fields of a stage
// transition. Quantity is always derived as CavitySize * TrayCount.
type TransferRequest struct {
	Date              time.Time `json:"date"`
	Size              SizeClass `json:"size"`
	Bottles           int       `json:"bottles"`
	CavitySize        int       `json:"cavity_size"`
	TrayCount         int       `json:"tray_count"`
	Facility          string    `json:"facility"`
	Labour            string    `json:"labour"`
	QualityOfDispatch string    `json:"quality_of_dispatch"`
	Remark            string    `json:"remark"`
}

func (r *TransferRequest) quantity() int { return r.CavitySize * r.TrayCount }

func (r *TransferRequest) validate() error {
	if r.Date.IsZero() {
		return &MissingFieldError{Field: "date"}
	}
	if r.Size == "" {
		return &MissingFieldError{Field: "size"}
	}
	if !ValidSizeClass(r.Size) {
		return ErrValidation
	}
	if r.CavitySize <= 0 {
		return &MissingFieldError{Field: "cavity_size"}
	}
	if r.TrayCount <= 0 {
		return &MissingFieldError{Field: "tray_count"}
	}
	return nil
}

// stageTransition describes one legal pipeline step. All four transitions
// share one shape; only the source stage differs.
type stageTransition struct {
	source Stage
}

var transitions = map[Stage]stageTransition{
	StagePrimaryInward:    {source: StageLab},
	StagePrimaryOutward:   {source: StagePrimaryInward},
	StageSecondaryInward:  {source: StagePrimaryOutward},
	StageSecondaryOutward: {source: StageSecondaryInward},
}

// SourceStage returns the pipeline stage feeding dest, or false when dest is
// not a transfer destination.
func SourceStage(dest Stage) (Stage, bool) {
	t, ok := transitions[dest]
	return t.source, ok
}

// SummaryRow aggregates one size class of a batch.
type SummaryRow struct {
	Size                SizeClass `json:"size,omitempty"`
	TotalBottles        int       `json:"total_bottles"`
	TotalPlants         int       `json:"total_plants"`
	AvailableBottles    int       `json:"available_bottles"`
	AvailablePlants     int       `json:"available_plants"`
	PrimaryInwardBottle int       `json:"primary_inward_bottles"`
	PrimaryInwardPlants int       `json:"primary_inward_plants"`
}

// BatchSummary is a derived projection of the batch's lab output and
// primary-inward consumption. It is recomputed from the entry lists on every
// mutation and is never a second authority over the entries themselves.
type BatchSummary struct {
	Rows  []SummaryRow `json:"rows"`
	Total SummaryRow   `json:"total"`
}

// Row returns the summary row for size, or a zero row when the batch has no
// stock of that size.
func (s *BatchSummary) Row(size SizeClass) SummaryRow {
	for _, r := range s.Rows {
		if r.Size == size {
			return r
		}
	}
	return SummaryRow{Size: size}
}

// OutwardBatch is the aggregate root for one production batch. All stage
// entries live inside the batch and are mutated only through its methods;
// the whole batch persists as one document.
type OutwardBatch struct {
	ID               int64        `json:"id"`
	PlantID          int64        `json:"plant_id"`
	SubtypeID        int64        `json:"subtype_id"`
	BatchCode        string       `json:"batch_code"`
	Version          int64        `json:"version"`
	Lab              []StageEntry `json:"lab"`
	PrimaryInward    []StageEntry `json:"primary_inward"`
	PrimaryOutward   []StageEntry `json:"primary_outward"`
	SecondaryInward  []StageEntry `json:"secondary_inward"`
	SecondaryOutward []StageEntry `json:"secondary_outward"`
	Summary          BatchSummary `json:"summary"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

func (b *OutwardBatch) stageEntries(s Stage) *[]StageEntry {
	switch s {
	case StageLab:
		return &b.Lab
	case StagePrimaryInward:
		return &b.PrimaryInward
	case StagePrimaryOutward:
		return &b.PrimaryOutward
	case StageSecondaryInward:
		return &b.SecondaryInward
	case StageSecondaryOutward:
		return &b.SecondaryOutward
	}
	return nil
}

// Entry returns the stage entry with the given id, or nil.
func (b *OutwardBatch) Entry(stage Stage, id int64) *StageEntry {
	entries := b.stageEntries(stage)
	if entries == nil {
		return nil
	}
	for i := range *entries {
		if (*entries)[i].ID == id {
			return &(*entries)[i]
		}
	}
	return nil
}

func (b *OutwardBatch) nextEntryID() int64 {
	var max int64
	for _, s := range []Stage{StageLab, StagePrimaryInward, StagePrimaryOutward, StageSecondaryInward, StageSecondaryOutward} {
		for _, e := range *b.stageEntries(s) {
			if e.ID > max {
				max = e.ID
			}
		}
	}
	return max + 1
}

// AddLabEntry records production output at the head of the pipeline.
func (b *OutwardBatch) AddLabEntry(date time.Time, size SizeClass, bottles, plants int) (*StageEntry, error) {
	if date.IsZero() {
		return nil, &MissingFieldError{Field: "date"}
	}
	if size == "" {
		return nil, &MissingFieldError{Field: "size"}
	}
	if !ValidSizeClass(size) || bottles <= 0 || plants <= 0 {
		return nil, ErrValidation
	}
	entry := StageEntry{
		ID:                b.nextEntryID(),
		Stage:             StageLab,
		Date:              date,
		Size:              size,
		Bottles:           bottles,
		Quantity:          plants,
		AvailableQuantity: plants,
		AvailableBottles:  bottles,
		Status:            TransferAvailable,
	}
	b.Lab = append(b.Lab, entry)
	b.RecomputeSummary()
	return &b.Lab[len(b.Lab)-1], nil
}

// Transfer moves stock from the entry feeding dest into a new dest-stage
// entry. The source entry's availability is debited and its history
// appended; the batch summary is recomputed from the full entry lists. On
// any error the batch is left untouched.
func (b *OutwardBatch) Transfer(dest Stage, sourceEntryID int64, req TransferRequest) (*StageEntry, error) {
	transition, ok := transitions[dest]
	if !ok {
		return nil, ErrValidation
	}
	if err := req.validate(); err != nil {
		return nil, err
	}
	source := b.Entry(transition.source, sourceEntryID)
	if source == nil {
		return nil, ErrNotFound
	}

	quantity := req.quantity()

	// Primary inward additionally guards against the batch-level summary
	// for the size class. The entry list stays the authority; the summary
	// is recomputed here from the same in-memory state, so the two checks
	// cannot disagree.
	if dest == StagePrimaryInward {
		b.RecomputeSummary()
		row := b.Summary.Row(req.Size)
		if quantity > row.AvailablePlants || req.Bottles > row.AvailableBottles {
			return nil, &StockError{Stage: StageLab, EntryID: sourceEntryID, Requested: quantity, Available: row.AvailablePlants}
		}
	}

	entry := StageEntry{
		ID:                b.nextEntryID(),
		Stage:             dest,
		Date:              req.Date,
		Size:              req.Size,
		Bottles:           req.Bottles,
		CavitySize:        req.CavitySize,
		TrayCount:         req.TrayCount,
		Quantity:          quantity,
		AvailableQuantity: quantity,
		Status:            TransferAvailable,
		SourceEntryID:     sourceEntryID,
		Facility:          req.Facility,
		Labour:            req.Labour,
		QualityOfDispatch: req.QualityOfDispatch,
		Remarks:           req.Remark,
	}

	rec := TransferRecord{
		Date:               req.Date,
		Quantity:           quantity,
		Remark:             req.Remark,
		DestinationEntryID: entry.ID,
	}
	if transition.source == StageLab {
		rec.Bottles = req.Bottles
	}
	if err := source.applyTransfer(rec); err != nil {
		return nil, err
	}

	entries := b.stageEntries(dest)
	*entries = append(*entries, entry)
	b.RecomputeSummary()
	return &(*entries)[len(*entries)-1], nil
}

// RecomputeSummary rebuilds the batch summary from the full lab and
// primary-inward entry lists. Recompute-from-source is deliberate; the
// summary is a projection and must never drift from the entries.
func (b *OutwardBatch) RecomputeSummary() {
	rows := map[SizeClass]*SummaryRow{}
	order := []SizeClass{SizeR1, SizeR2, SizeR3}
	row := func(size SizeClass) *SummaryRow {
		r, ok := rows[size]
		if !ok {
			r = &SummaryRow{Size: size}
			rows[size] = r
		}
		return r
	}

	for _, e := range b.Lab {
		r := row(e.Size)
		r.TotalBottles += e.Bottles
		r.TotalPlants += e.Quantity
		r.AvailableBottles += e.AvailableBottles
		r.AvailablePlants += e.AvailableQuantity
	}
	for _, e := range b.PrimaryInward {
		r := row(e.Size)
		r.PrimaryInwardBottle += e.Bottles
		r.PrimaryInwardPlants += e.Quantity
	}

	summary := BatchSummary{}
	for _, size := range order {
		r, ok := rows[size]
		if !ok {
			continue
		}
		summary.Rows = append(summary.Rows, *r)
		summary.Total.TotalBottles += r.TotalBottles
		summary.Total.TotalPlants += r.TotalPlants
		summary.Total.AvailableBottles += r.AvailableBottles
		summary.Total.AvailablePlants += r.AvailablePlants
		summary.Total.PrimaryInwardBottle += r.PrimaryInwardBottle
		summary.Total.PrimaryInwardPlants += r.PrimaryInwardPlants
	}
	b.Summary = summary
}
