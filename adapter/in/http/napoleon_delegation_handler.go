package http

import (
	"napoleon_server/core/domain"
	"napoleon_server/core/service/delegation"
	"napoleon_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// topCandidates is how many ranked candidates the API returns for display.
const topCandidates = 3

// DelegationHandler handles delegation ranking and lifecycle requests.
type DelegationHandler struct {
	service  *delegation.Service
	messages domain.MessageRepository
	members  domain.TeamMemberRepository
}

// NewDelegationHandler creates a new delegation handler.
func NewDelegationHandler(service *delegation.Service, messages domain.MessageRepository, members domain.TeamMemberRepository) *DelegationHandler {
	return &DelegationHandler{service: service, messages: messages, members: members}
}

// Register registers delegation routes.
func (h *DelegationHandler) Register(router fiber.Router) {
	router.Get("/messages/:id/delegation-candidates", h.Candidates)

	delegations := router.Group("/delegations")
	delegations.Get("/", h.List)
	delegations.Post("/", h.Create)
	delegations.Post("/:id/accept", h.transitionHandler(domain.DelegationAccepted))
	delegations.Post("/:id/reject", h.transitionHandler(domain.DelegationRejected))
	delegations.Post("/:id/start", h.transitionHandler(domain.DelegationInProgress))
	delegations.Post("/:id/complete", h.transitionHandler(domain.DelegationCompleted))
	delegations.Post("/:id/escalate", h.transitionHandler(domain.DelegationEscalated))

	router.Get("/team-members", h.ListTeam)
}

// Candidates ranks the user's team against a message and returns the top
// candidates for display. The full ranking exists server-side; the cut is
// presentation only.
func (h *DelegationHandler) Candidates(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}

	msg, err := h.messages.GetByID(c.Context(), userID, id)
	if err != nil {
		return domainError(c, err, "message")
	}

	candidates := h.service.RankForMessage(c.Context(), msg)
	if len(candidates) > topCandidates {
		candidates = candidates[:topCandidates]
	}
	return response.OK(c, candidates)
}

// List returns the user's delegation tasks.
func (h *DelegationHandler) List(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var status *domain.DelegationStatus
	if s := c.Query("status"); s != "" {
		st := domain.DelegationStatus(s)
		status = &st
	}

	tasks, err := h.service.List(c.Context(), userID, status)
	if err != nil {
		return domainError(c, err, "delegations")
	}
	return response.OK(c, tasks)
}

type createDelegationRequest struct {
	MessageID  int64  `json:"message_id"`
	DelegateID int64  `json:"delegate_id"`
	Notes      string `json:"notes"`
}

// Create delegates a message to a team member.
func (h *DelegationHandler) Create(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req createDelegationRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "invalid request body")
	}
	if req.MessageID <= 0 || req.DelegateID <= 0 {
		return response.BadRequest(c, "message_id and delegate_id are required")
	}

	task, err := h.service.Delegate(c.Context(), userID, req.MessageID, req.DelegateID, req.Notes)
	if err != nil {
		return domainError(c, err, "delegation")
	}
	return response.Created(c, task)
}

// transitionHandler builds one lifecycle endpoint per target state.
func (h *DelegationHandler) transitionHandler(to domain.DelegationStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := GetUserID(c)
		if err != nil {
			return err
		}
		id, err := parseID(c, "id")
		if err != nil {
			return err
		}

		task, err := h.service.Transition(c.Context(), userID, id, to)
		if err != nil {
			return domainError(c, err, "delegation")
		}
		return response.OK(c, task)
	}
}

// ListTeam returns the user's team members.
func (h *DelegationHandler) ListTeam(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	members, err := h.members.ListByUser(c.Context(), userID)
	if err != nil {
		return domainError(c, err, "team members")
	}
	return response.OK(c, members)
}
