package matching

import (
	"fmt"
	"strings"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/enums"
)

// errMissingField marks a listing that has no value for the criterion's
// field. For hard criteria absence means "does not qualify", never a crash.
type errMissingField struct {
	field enums.CriterionField
}

func (e errMissingField) Error() string {
	return fmt.Sprintf("listing has no value for field %q", e.field)
}

// evalCriterion reports whether the listing satisfies one criterion.
// It is a pure function of the listing and criterion values. A malformed
// criterion (unknown field or operator, missing operand) returns an error
// and counts as unsatisfied; it never aborts the rest of the evaluation.
func evalCriterion(listing data.Listing, c data.Criterion) (bool, error) {
	if c.Field.IsNumeric() {
		value, ok := listingNumeric(listing, c.Field)
		if !ok {
			return false, errMissingField{c.Field}
		}
		return evalNumeric(value, c)
	}

	value, ok := listingText(listing, c.Field)
	if !ok {
		return false, errMissingField{c.Field}
	}
	return evalText(value, c)
}

func evalNumeric(value float64, c data.Criterion) (bool, error) {
	switch c.Operator {
	case enums.CriterionOperatorEq:
		if !c.MinValue.Valid {
			return false, fmt.Errorf("criterion %d: eq without operand", c.ID)
		}
		return value == c.MinValue.Float64, nil
	case enums.CriterionOperatorLte:
		if !c.MinValue.Valid {
			return false, fmt.Errorf("criterion %d: lte without operand", c.ID)
		}
		return value <= c.MinValue.Float64, nil
	case enums.CriterionOperatorGte:
		if !c.MinValue.Valid {
			return false, fmt.Errorf("criterion %d: gte without operand", c.ID)
		}
		return value >= c.MinValue.Float64, nil
	case enums.CriterionOperatorRange:
		if !c.MinValue.Valid || !c.MaxValue.Valid {
			return false, fmt.Errorf("criterion %d: range without both bounds", c.ID)
		}
		return value >= c.MinValue.Float64 && value <= c.MaxValue.Float64, nil
	}
	return false, fmt.Errorf("criterion %d: operator %q not valid for numeric field %q", c.ID, c.Operator, c.Field)
}

func evalText(value string, c data.Criterion) (bool, error) {
	switch c.Operator {
	case enums.CriterionOperatorEq:
		if len(c.TextValues) == 0 {
			return false, fmt.Errorf("criterion %d: eq without operand", c.ID)
		}
		return strings.EqualFold(value, c.TextValues[0]), nil
	case enums.CriterionOperatorIn:
		if len(c.TextValues) == 0 {
			return false, fmt.Errorf("criterion %d: in without operands", c.ID)
		}
		for _, candidate := range c.TextValues {
			if strings.EqualFold(value, candidate) {
				return true, nil
			}
		}
		return false, nil
	}
	return false, fmt.Errorf("criterion %d: operator %q not valid for text field %q", c.ID, c.Operator, c.Field)
}

func listingNumeric(listing data.Listing, field enums.CriterionField) (float64, bool) {
	switch field {
	case enums.CriterionFieldPrice:
		return nullFloat(listing.Price.Int64, listing.Price.Valid)
	case enums.CriterionFieldArea:
		return nullFloat(listing.Area.Int64, listing.Area.Valid)
	case enums.CriterionFieldRoomCount:
		return nullFloat(listing.RoomCount.Int64, listing.RoomCount.Valid)
	case enums.CriterionFieldBathroomCount:
		return nullFloat(listing.BathroomCount.Int64, listing.BathroomCount.Valid)
	case enums.CriterionFieldFloor:
		return nullFloat(listing.Floor.Int64, listing.Floor.Valid)
	}
	return 0, false
}

func listingText(listing data.Listing, field enums.CriterionField) (string, bool) {
	var value string
	switch field {
	case enums.CriterionFieldPropertyType:
		value = listing.PropertyType
	case enums.CriterionFieldTransactionType:
		value = listing.TransactionType
	case enums.CriterionFieldCounty:
		value = listing.County
	case enums.CriterionFieldPlace:
		value = listing.Place
	default:
		return "", false
	}
	if value == "" {
		return "", false
	}
	return value, true
}

func nullFloat(v int64, valid bool) (float64, bool) {
	if !valid {
		return 0, false
	}
	return float64(v), true
}
