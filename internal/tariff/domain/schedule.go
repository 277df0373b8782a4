package domain

import (
	"fmt"
	"sort"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Sorted returns a copy of brackets ordered by UsageMin.
func Sorted(brackets []WaterTariff) []WaterTariff {
	out := make([]WaterTariff, len(brackets))
	copy(out, brackets)
	sort.SliceStable(out, func(i, j int) bool { return out[i].UsageMin < out[j].UsageMin })
	return out
}

// ValidatePartition checks that brackets cover [0, ∞) with no gaps, no overlaps
// and a single unbounded bracket on top.
func ValidatePartition(brackets []WaterTariff) error {
	if len(brackets) == 0 {
		return ErrEmptySchedule
	}
	sorted := Sorted(brackets)

	if sorted[0].UsageMin != 0 {
		return fmt.Errorf("%w: schedule starts at %d", ErrGap, sorted[0].UsageMin)
	}

	unbounded := 0
	for _, b := range sorted {
		if b.UsageMax == nil {
			unbounded++
		}
	}
	switch {
	case unbounded == 0:
		return ErrMissingUnbounded
	case unbounded > 1:
		return ErrMultipleUnbounded
	}

	for i, b := range sorted {
		if b.UsageMin < 0 || !b.PricePerUnit.IsPositive() {
			return fmt.Errorf("%w: bracket %s", ErrInvalidRange, b.RangeLabel())
		}
		if b.UsageMax == nil {
			if i != len(sorted)-1 {
				return fmt.Errorf("%w: unbounded bracket %s is not the highest", ErrOverlap, b.RangeLabel())
			}
			continue
		}
		if *b.UsageMax < b.UsageMin {
			return fmt.Errorf("%w: bracket %s", ErrInvalidRange, b.RangeLabel())
		}
		if i+1 < len(sorted) {
			next := sorted[i+1]
			switch {
			case next.UsageMin <= *b.UsageMax:
				return fmt.Errorf("%w: %s and %s", ErrOverlap, b.RangeLabel(), next.RangeLabel())
			case next.UsageMin > *b.UsageMax+1:
				return fmt.Errorf("%w: between %s and %s", ErrGap, b.RangeLabel(), next.RangeLabel())
			}
		}
	}
	return nil
}

// Plan is the set of row changes that keeps a schedule partitioned.
type Plan struct {
	Insert  *WaterTariff
	Updates []WaterTariff
	Removes []snowflake.ID
}

// Apply returns brackets with the plan applied; inserted rows keep a zero ID.
func (p Plan) Apply(brackets []WaterTariff) []WaterTariff {
	removed := make(map[snowflake.ID]bool, len(p.Removes))
	for _, id := range p.Removes {
		removed[id] = true
	}
	updated := make(map[snowflake.ID]WaterTariff, len(p.Updates))
	for _, u := range p.Updates {
		updated[u.ID] = u
	}

	out := make([]WaterTariff, 0, len(brackets)+1)
	for _, b := range brackets {
		if removed[b.ID] {
			continue
		}
		if u, ok := updated[b.ID]; ok {
			b = u
		}
		out = append(out, b)
	}
	if p.Insert != nil {
		out = append(out, *p.Insert)
	}
	return Sorted(out)
}

// PlanInsert splits the bracket containing start so that a new bracket begins at start.
// The new bracket inherits the upper bound of the bracket it was split from.
func PlanInsert(brackets []WaterTariff, start int64, price decimal.Decimal) (Plan, error) {
	if start < 0 || !price.IsPositive() {
		return Plan{}, ErrInvalidRange
	}
	sorted := Sorted(brackets)
	for _, b := range sorted {
		if b.UsageMin == start {
			return Plan{}, ErrDuplicateRangeStart
		}
	}

	insert := WaterTariff{UsageMin: start, PricePerUnit: price, IsActive: true}

	if len(sorted) == 0 {
		if start != 0 {
			return Plan{}, fmt.Errorf("%w: first bracket must start at 0", ErrGap)
		}
		plan := Plan{Insert: &insert}
		return plan, ValidatePartition(plan.Apply(nil))
	}

	var plan Plan
	for _, b := range sorted {
		if !b.Contains(start) {
			continue
		}
		// start > b.UsageMin here since equal starts were rejected above.
		insert.UsageMax = b.UsageMax
		shrunk := b
		shrunk.UsageMax = Int64(start - 1)
		plan = Plan{Insert: &insert, Updates: []WaterTariff{shrunk}}
		break
	}

	if plan.Insert == nil {
		top := sorted[len(sorted)-1]
		if start < top.UsageMin {
			return Plan{}, fmt.Errorf("%w: %d is not covered by the schedule", ErrGap, start)
		}
		demoted := top
		demoted.UsageMax = Int64(start - 1)
		plan = Plan{Insert: &insert, Updates: []WaterTariff{demoted}}
	}

	if err := ValidatePartition(plan.Apply(sorted)); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// EditRequest changes one bracket. Nil fields are left untouched.
type EditRequest struct {
	UsageMin     *int64           `json:"usage_min"`
	UsageMax     *int64           `json:"usage_max"`
	PricePerUnit *decimal.Decimal `json:"price_per_unit"`
}

// PlanEdit applies the edit rules: only the unbounded bracket's minimum may move,
// and moving it resizes the bracket below; a bounded bracket's maximum may only be
// set to the value adjacent to the next bracket.
func PlanEdit(brackets []WaterTariff, id snowflake.ID, req EditRequest) (Plan, error) {
	sorted := Sorted(brackets)
	idx := -1
	for i := range sorted {
		if sorted[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Plan{}, ErrNotFound
	}

	target := sorted[idx]
	fields := EditableFieldsFor(target)
	var plan Plan

	if req.PricePerUnit != nil {
		if !req.PricePerUnit.IsPositive() {
			return Plan{}, ErrInvalidRange
		}
		target.PricePerUnit = *req.PricePerUnit
	}

	if req.UsageMax != nil && (target.UsageMax == nil || *req.UsageMax != *target.UsageMax) {
		if !fields.CanEditMax {
			return Plan{}, fmt.Errorf("%w: usage_max of the unbounded bracket", ErrFieldNotEditable)
		}
		if idx+1 >= len(sorted) {
			return Plan{}, ErrMissingUnbounded
		}
		next := sorted[idx+1]
		switch {
		case *req.UsageMax < target.UsageMin:
			return Plan{}, ErrInvalidRange
		case *req.UsageMax >= next.UsageMin:
			return Plan{}, fmt.Errorf("%w: %d reaches into %s", ErrOverlap, *req.UsageMax, next.RangeLabel())
		case *req.UsageMax < next.UsageMin-1:
			return Plan{}, fmt.Errorf("%w: %d leaves %d..%d uncovered", ErrGap, *req.UsageMax, *req.UsageMax+1, next.UsageMin-1)
		}
	}

	if req.UsageMin != nil && *req.UsageMin != target.UsageMin {
		if !fields.CanEditMin {
			return Plan{}, fmt.Errorf("%w: usage_min of a bounded bracket", ErrFieldNotEditable)
		}
		newMin := *req.UsageMin
		if idx == 0 {
			return Plan{}, fmt.Errorf("%w: first bracket must start at 0", ErrGap)
		}
		prev := sorted[idx-1]
		switch {
		case newMin < prev.UsageMin:
			return Plan{}, fmt.Errorf("%w: %d reaches past %s", ErrOverlap, newMin, prev.RangeLabel())
		case newMin == prev.UsageMin:
			// absorbs the bracket below entirely
			plan.Removes = append(plan.Removes, prev.ID)
		default:
			prev.UsageMax = Int64(newMin - 1)
			plan.Updates = append(plan.Updates, prev)
		}
		target.UsageMin = newMin
	}

	plan.Updates = append(plan.Updates, target)
	if err := ValidatePartition(plan.Apply(sorted)); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

// Calculate walks the brackets in ascending order, charging each the units it can hold.
// A bracket is only charged when usage reaches its minimum. No rounding is applied.
func Calculate(brackets []WaterTariff, usage int64) (Calculation, error) {
	if usage < 0 {
		return Calculation{}, ErrNegativeUsage
	}
	if len(brackets) == 0 {
		return Calculation{}, ErrEmptySchedule
	}

	result := Calculation{
		TotalUsage:  usage,
		TotalCharge: decimal.Zero,
		Breakdown:   []BreakdownLine{},
	}
	remaining := usage
	for _, b := range Sorted(brackets) {
		if remaining <= 0 {
			break
		}
		if usage < b.UsageMin {
			continue
		}
		consumed := remaining
		if b.UsageMax != nil {
			if capacity := *b.UsageMax - b.UsageMin + 1; capacity < consumed {
				consumed = capacity
			}
		}
		charge := b.PricePerUnit.Mul(decimal.NewFromInt(consumed))
		result.Breakdown = append(result.Breakdown, BreakdownLine{
			TariffID: b.ID,
			Range:    b.RangeLabel(),
			Usage:    consumed,
			Rate:     b.PricePerUnit,
			Charge:   charge,
		})
		result.TotalCharge = result.TotalCharge.Add(charge)
		remaining -= consumed
	}
	return result, nil
}
