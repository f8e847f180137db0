package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ccellsty/oryxchatfrfr/internal/models"
)

type createGroupRequest struct {
	Name string `json:"name"`
}

type addMemberRequest struct {
	UserID uint `json:"user_id"`
}

// CreateGroup handles POST /api/groups
func (s *Server) CreateGroup(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}

	var req createGroupRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}

	group, err := s.groupService.CreateGroup(ctx, userID, req.Name)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(group)
}

// GetMyGroups handles GET /api/groups
func (s *Server) GetMyGroups(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}

	groups, err := s.groupService.ListGroups(ctx, userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(groups)
}

// GetGroupMembers handles GET /api/groups/:groupId/members
func (s *Server) GetGroupMembers(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	groupID, err := s.parseID(c, "groupId")
	if err != nil {
		return nil
	}

	members, err := s.groupService.Members(ctx, userID, groupID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(members)
}

// AddGroupMember handles POST /api/groups/:groupId/members
func (s *Server) AddGroupMember(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	groupID, err := s.parseID(c, "groupId")
	if err != nil {
		return nil
	}

	var req addMemberRequest
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 {
		return models.RespondWithError(c, models.NewValidationError("A 'user_id' field is required"))
	}

	membership, err := s.groupService.AddMember(ctx, userID, groupID, req.UserID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(membership)
}
