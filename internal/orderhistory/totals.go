package orderhistory

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Totals is the dense (pixel, bucket) -> order count table. Every observed
// pixel has a count for every operating bucket of every day between the
// first and the last observed order, zero where nothing was ordered.
//
// Totals is read-only once built.
type Totals struct {
	pixels   []uuid.UUID
	position map[uuid.UUID]int
	counts   [][]int

	firstDay time.Time
	days     int
	perDay   int
	start    time.Duration
	step     time.Duration
}

func buildTotals(placements []OrderPlacement, cfg Config) *Totals {
	t := &Totals{
		position: make(map[uuid.UUID]int),
		perDay:   cfg.BucketsPerDay(),
		start:    time.Duration(cfg.OperatingStart) * time.Hour,
		step:     cfg.TimeStep,
	}

	type placement struct {
		pixel uuid.UUID
		day   time.Time
		slot  int
	}

	kept := make([]placement, 0, len(placements))
	var first, last time.Time
	for _, p := range placements {
		at := p.PlacedAt.UTC()
		day := truncateDay(at)
		offset := at.Sub(day) - t.start
		if offset < 0 {
			continue
		}
		slot := int(offset / t.step)
		if slot >= t.perDay {
			continue
		}

		kept = append(kept, placement{pixel: p.PixelID, day: day, slot: slot})
		if first.IsZero() || day.Before(first) {
			first = day
		}
		if day.After(last) {
			last = day
		}
		if _, ok := t.position[p.PixelID]; !ok {
			t.position[p.PixelID] = 0
			t.pixels = append(t.pixels, p.PixelID)
		}
	}

	if len(kept) == 0 {
		return t
	}

	sort.Slice(t.pixels, func(i, j int) bool {
		return t.pixels[i].String() < t.pixels[j].String()
	})
	for i, id := range t.pixels {
		t.position[id] = i
	}

	t.firstDay = first
	t.days = daysBetween(first, last) + 1
	t.counts = make([][]int, len(t.pixels))
	for i := range t.counts {
		t.counts[i] = make([]int, t.days*t.perDay)
	}
	for _, p := range kept {
		idx := daysBetween(first, p.day)*t.perDay + p.slot
		t.counts[t.position[p.pixel]][idx]++
	}

	return t
}

// Len is the number of (pixel, bucket) rows
func (t *Totals) Len() int {
	return len(t.pixels) * t.days * t.perDay
}

// PixelIDs returns the observed pixels in a stable order
func (t *Totals) PixelIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(t.pixels))
	copy(ids, t.pixels)
	return ids
}

// Buckets returns the start of every operating bucket across the observed days
func (t *Totals) Buckets() []time.Time {
	buckets := make([]time.Time, t.days*t.perDay)
	for i := range buckets {
		buckets[i] = t.bucketAt(i)
	}
	return buckets
}

// BucketsPerDay is the number of operating buckets in one day
func (t *Totals) BucketsPerDay() int {
	return t.perDay
}

// Days returns the observed days, first to last
func (t *Totals) Days() []time.Time {
	days := make([]time.Time, t.days)
	for i := range days {
		days[i] = t.firstDay.AddDate(0, 0, i)
	}
	return days
}

// FirstBucket is the earliest bucket in the table, zero for an empty table
func (t *Totals) FirstBucket() time.Time {
	if t.days == 0 {
		return time.Time{}
	}
	return t.bucketAt(0)
}

// LastBucket is the latest bucket in the table, zero for an empty table
func (t *Totals) LastBucket() time.Time {
	if t.days == 0 {
		return time.Time{}
	}
	return t.bucketAt(t.days*t.perDay - 1)
}

// Count returns the number of orders in the pixel's bucket starting at at
func (t *Totals) Count(pixelID uuid.UUID, at time.Time) (int, error) {
	row, err := t.row(pixelID)
	if err != nil {
		return 0, err
	}
	idx, ok := t.bucketIndex(at)
	if !ok {
		return 0, ErrAnchorNotFound
	}
	return row[idx], nil
}

func (t *Totals) row(pixelID uuid.UUID) ([]int, error) {
	pos, ok := t.position[pixelID]
	if !ok {
		return nil, ErrPixelNotFound
	}
	return t.counts[pos], nil
}

func (t *Totals) bucketAt(idx int) time.Time {
	day, slot := idx/t.perDay, idx%t.perDay
	return t.firstDay.AddDate(0, 0, day).Add(t.start + time.Duration(slot)*t.step)
}

// bucketIndex locates the bucket starting exactly at at
func (t *Totals) bucketIndex(at time.Time) (int, bool) {
	at = at.UTC()
	day, ok := t.dayIndex(at)
	if !ok {
		return 0, false
	}
	offset := at.Sub(truncateDay(at)) - t.start
	if offset < 0 || offset%t.step != 0 {
		return 0, false
	}
	slot := int(offset / t.step)
	if slot >= t.perDay {
		return 0, false
	}
	return day*t.perDay + slot, true
}

func (t *Totals) dayIndex(at time.Time) (int, bool) {
	if t.days == 0 {
		return 0, false
	}
	day := daysBetween(t.firstDay, truncateDay(at.UTC()))
	if day < 0 || day >= t.days {
		return 0, false
	}
	return day, true
}

func (t *Totals) series(row []int, from, to int) Series {
	s := Series{
		Index:  make([]time.Time, 0, to-from),
		Values: make([]float64, 0, to-from),
	}
	for i := from; i < to; i++ {
		s.Index = append(s.Index, t.bucketAt(i))
		s.Values = append(s.Values, float64(row[i]))
	}
	return s
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Round(time.Hour) / (24 * time.Hour))
}
