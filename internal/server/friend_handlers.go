package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ccellsty/oryxchatfrfr/internal/models"
)

type friendRequestBody struct {
	Username string `json:"username"`
}

// SendFriendRequest handles POST /api/friends/requests
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}

	var req friendRequestBody
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, models.NewValidationError("Invalid request body"))
	}
	if req.Username == "" {
		return models.RespondWithError(c, models.NewValidationError("A 'username' field is required"))
	}

	edge, err := s.friendService.SendRequest(ctx, userID, req.Username)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(edge)
}

// GetPendingRequests handles GET /api/friends/requests
func (s *Server) GetPendingRequests(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}

	requests, err := s.friendService.PendingIncoming(ctx, userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(requests)
}

// AcceptFriendRequest handles POST /api/friends/requests/:requestId/accept
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	edge, err := s.friendService.Respond(ctx, userID, requestID, models.RespondAccept)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	if edge == nil {
		// The edge no longer exists; a concurrent reject already won.
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(edge)
}

// RejectFriendRequest handles POST /api/friends/requests/:requestId/reject
func (s *Server) RejectFriendRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}

	if _, err := s.friendService.Respond(ctx, userID, requestID, models.RespondReject); err != nil {
		return models.RespondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFriends handles GET /api/friends
func (s *Server) GetFriends(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}

	friends, err := s.friendService.Friends(ctx, userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(friends)
}

// GetFriendEdges handles GET /api/friends/edges. Clients hydrate their
// local friend graph from this wholesale snapshot.
func (s *Server) GetFriendEdges(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := currentUserID(c)
	if err != nil {
		return nil
	}

	edges, err := s.friendService.ListEdges(ctx, userID)
	if err != nil {
		return models.RespondWithError(c, err)
	}
	return c.JSON(edges)
}
