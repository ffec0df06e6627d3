package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/p3bozuric/aidriatic-real-estate-monitor/data"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/data/repos"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/enums"
	"github.com/p3bozuric/aidriatic-real-estate-monitor/models"
)

type GoalHandler struct {
	repo *repos.GoalRepo
}

func NewGoalHandler(repo *repos.GoalRepo) *GoalHandler {
	return &GoalHandler{repo}
}

func (h *GoalHandler) CreateGoal(w http.ResponseWriter, r *http.Request) Result {
	user := r.Context().Value("user").(data.User)

	var req models.CreateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return BadRequest("Invalid request.")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return BadRequest("Goal name is required.")
	}
	if len(name) > 100 {
		return BadRequest("Goal name must be at most 100 characters.")
	}

	criteria, errMsg := validateCriteria(req.Criteria)
	if errMsg != "" {
		return BadRequest(errMsg)
	}

	goal := data.UserGoal{
		UserID:   user.ID,
		Name:     name,
		IsActive: true,
		Criteria: criteria,
	}

	id, err := h.repo.CreateGoal(r.Context(), goal)
	if err != nil {
		return InternalError(err, "create goal: ")
	}

	return Created(id)
}

func (h *GoalHandler) GetGoals(w http.ResponseWriter, r *http.Request) Result {
	user := r.Context().Value("user").(data.User)

	goals, err := h.repo.GetGoalsByUserID(r.Context(), user.ID)
	if err != nil {
		return InternalError(err, "get goals: ")
	}

	res := models.GetGoalsResponse{Goals: make([]models.Goal, 0, len(goals))}
	for _, g := range goals {
		res.Goals = append(res.Goals, models.FromDataGoal(g))
	}

	return Ok(res)
}

func (h *GoalHandler) GetGoal(w http.ResponseWriter, r *http.Request) Result {
	user := r.Context().Value("user").(data.User)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return BadRequest("Invalid goal ID.")
	}

	goal, err := h.repo.GetGoalByID(r.Context(), id, user.ID)
	if err != nil {
		return InternalError(err, "get goal: ")
	}
	if goal == nil {
		return NotFound("Goal not found.")
	}

	return Ok(models.FromDataGoal(*goal))
}

func (h *GoalHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) Result {
	user := r.Context().Value("user").(data.User)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return BadRequest("Invalid goal ID.")
	}

	var req models.UpdateGoalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return BadRequest("Invalid request.")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return BadRequest("Goal name is required.")
	}

	criteria, errMsg := validateCriteria(req.Criteria)
	if errMsg != "" {
		return BadRequest(errMsg)
	}

	existing, err := h.repo.GetGoalByID(r.Context(), id, user.ID)
	if err != nil {
		return InternalError(err, "update goal: get goal: ")
	}
	if existing == nil {
		return NotFound("Goal not found.")
	}

	goal := data.UserGoal{
		ID:       id,
		UserID:   user.ID,
		Name:     name,
		IsActive: req.Active,
		Criteria: criteria,
	}

	if err := h.repo.UpdateGoal(r.Context(), goal); err != nil {
		return InternalError(err, "update goal: ")
	}

	return Ok(nil)
}

func (h *GoalHandler) DeleteGoal(w http.ResponseWriter, r *http.Request) Result {
	user := r.Context().Value("user").(data.User)

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return BadRequest("Invalid goal ID.")
	}

	if err := h.repo.DeleteGoal(r.Context(), id, user.ID); err != nil {
		return InternalError(err, "delete goal: ")
	}

	return Ok(nil)
}

// validateCriteria checks every criterion in the request and converts the
// valid set. The first offending criterion produces the error message.
func validateCriteria(reqs []models.Criterion) ([]data.Criterion, string) {
	criteria := make([]data.Criterion, 0, len(reqs))
	for _, req := range reqs {
		c := models.ToDataCriterion(req)

		if c.Kind == enums.CriterionKindInvalid {
			return nil, "Criterion kind must be hard or soft."
		}
		if c.Field == enums.CriterionFieldInvalid {
			return nil, "Unknown criterion field: " + req.Field
		}
		if c.Operator == enums.CriterionOperatorInvalid {
			return nil, "Unknown criterion operator: " + req.Operator
		}

		if c.Field.IsNumeric() {
			switch c.Operator {
			case enums.CriterionOperatorEq, enums.CriterionOperatorLte, enums.CriterionOperatorGte:
				if !c.MinValue.Valid {
					return nil, "Numeric criterion on " + req.Field + " needs a value."
				}
			case enums.CriterionOperatorRange:
				if !c.MinValue.Valid || !c.MaxValue.Valid {
					return nil, "Range criterion on " + req.Field + " needs both bounds."
				}
				if c.MinValue.Float64 > c.MaxValue.Float64 {
					return nil, "Range criterion on " + req.Field + " has inverted bounds."
				}
			default:
				return nil, "Operator " + req.Operator + " does not apply to numeric field " + req.Field + "."
			}
		} else {
			switch c.Operator {
			case enums.CriterionOperatorEq, enums.CriterionOperatorIn:
				if len(c.TextValues) == 0 {
					return nil, "Text criterion on " + req.Field + " needs at least one value."
				}
			default:
				return nil, "Operator " + req.Operator + " does not apply to text field " + req.Field + "."
			}
		}

		if c.Kind == enums.CriterionKindSoft && (!c.Weight.Valid || c.Weight.Float64 <= 0) {
			return nil, "Soft criteria need a positive weight."
		}

		criteria = append(criteria, c)
	}

	return criteria, ""
}
