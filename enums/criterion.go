package enums

type CriterionKind string

const (
	CriterionKindInvalid CriterionKind = ""

	// CriterionKindHard is a mandatory filter. A listing that fails a single
	// hard criterion does not match the goal at all.
	CriterionKindHard CriterionKind = "hard"

	// CriterionKindSoft is a weighted preference. Soft criteria never
	// disqualify a listing; they only contribute to the match score.
	CriterionKindSoft CriterionKind = "soft"
)

func ParseCriterionKind(s string) CriterionKind {
	switch CriterionKind(s) {
	case CriterionKindHard, CriterionKindSoft:
		return CriterionKind(s)
	}
	return CriterionKindInvalid
}

type CriterionField string

const (
	CriterionFieldInvalid CriterionField = ""

	CriterionFieldPrice           CriterionField = "price"
	CriterionFieldArea            CriterionField = "area"
	CriterionFieldRoomCount       CriterionField = "room_count"
	CriterionFieldBathroomCount   CriterionField = "bathroom_count"
	CriterionFieldFloor           CriterionField = "floor"
	CriterionFieldPropertyType    CriterionField = "property_type"
	CriterionFieldTransactionType CriterionField = "transaction_type"
	CriterionFieldCounty          CriterionField = "county"
	CriterionFieldPlace           CriterionField = "place"
)

func ParseCriterionField(s string) CriterionField {
	switch CriterionField(s) {
	case CriterionFieldPrice, CriterionFieldArea, CriterionFieldRoomCount,
		CriterionFieldBathroomCount, CriterionFieldFloor, CriterionFieldPropertyType,
		CriterionFieldTransactionType, CriterionFieldCounty, CriterionFieldPlace:
		return CriterionField(s)
	}
	return CriterionFieldInvalid
}

// IsNumeric reports whether the field carries a numeric listing value.
// Numeric fields support eq, lte, gte and range; text fields support eq and in.
func (f CriterionField) IsNumeric() bool {
	switch f {
	case CriterionFieldPrice, CriterionFieldArea, CriterionFieldRoomCount,
		CriterionFieldBathroomCount, CriterionFieldFloor:
		return true
	}
	return false
}

type CriterionOperator string

const (
	CriterionOperatorInvalid CriterionOperator = ""

	CriterionOperatorEq    CriterionOperator = "eq"
	CriterionOperatorLte   CriterionOperator = "lte"
	CriterionOperatorGte   CriterionOperator = "gte"
	CriterionOperatorRange CriterionOperator = "range" // inclusive of both bounds
	CriterionOperatorIn    CriterionOperator = "in"    // set membership, text fields
)

func ParseCriterionOperator(s string) CriterionOperator {
	switch CriterionOperator(s) {
	case CriterionOperatorEq, CriterionOperatorLte, CriterionOperatorGte,
		CriterionOperatorRange, CriterionOperatorIn:
		return CriterionOperator(s)
	}
	return CriterionOperatorInvalid
}
