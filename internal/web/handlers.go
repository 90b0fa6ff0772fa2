package web

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/conorfennell/knolstudy/internal/apperr"
	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/study"
)

type createDeckRequest struct {
	Name     string  `json:"name"`
	ParentID *string `json:"parentId"`
}

type addCardRequest struct {
	Front   string `json:"front"`
	Back    string `json:"back"`
	Context string `json:"context"`
}

type reviewRequest struct {
	SessionID string `json:"sessionId"`
	Quality   *int   `json:"quality"`
}

// dueCard is a card of a session with a readable hint of when it was due.
type dueCard struct {
	*domain.Card
	Due string `json:"due"`
}

// sessionResponse is a session with its open state spelled out.
type sessionResponse struct {
	*domain.Session
	Open bool `json:"open"`
}

func newSessionResponse(session *domain.Session) sessionResponse {
	return sessionResponse{Session: session, Open: session.Open()}
}

type dueResponse struct {
	Cards []dueCard `json:"cards"`
}

func (s *Server) handleListDecks() echo.HandlerFunc {
	return func(c echo.Context) error {
		decks, err := s.study.ListDecks(c.Request().Context(), userID(c))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, decks)
	}
}

func (s *Server) handleCreateDeck() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createDeckRequest
		if err := c.Bind(&req); err != nil {
			return err
		}
		deck, err := s.study.CreateDeck(c.Request().Context(), study.CreateDeckRequest{
			OwnerID:  userID(c),
			Name:     req.Name,
			ParentID: req.ParentID,
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, deck)
	}
}

func (s *Server) handleAddCard() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req addCardRequest
		if err := c.Bind(&req); err != nil {
			return err
		}
		card, err := s.study.AddCard(c.Request().Context(), study.AddCardRequest{
			OwnerID: userID(c),
			DeckID:  c.Param("id"),
			Front:   req.Front,
			Back:    req.Back,
			Context: req.Context,
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, card)
	}
}

func (s *Server) handleStartSession() echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := s.study.StartSession(c.Request().Context(), study.DeckRequest{
			OwnerID: userID(c),
			DeckID:  c.Param("id"),
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, newSessionResponse(session))
	}
}

func (s *Server) handleEndSession() echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := s.study.EndSession(c.Request().Context(), study.SessionRequest{
			OwnerID:   userID(c),
			SessionID: c.Param("id"),
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, newSessionResponse(session))
	}
}

// handleGetDue returns the shuffled cards of a study session.
// Query parameters: limit (default from policy) and subdecks (bool).
func (s *Server) handleGetDue() echo.HandlerFunc {
	return func(c echo.Context) error {
		req := study.DueCardsRequest{OwnerID: userID(c), DeckID: c.Param("id")}
		if v := c.QueryParam("limit"); v != "" {
			limit, err := strconv.Atoi(v)
			if err != nil {
				return apperr.InvalidInput("limit must be an integer", err)
			}
			req.Limit = limit
		}
		if v := c.QueryParam("subdecks"); v != "" {
			include, err := strconv.ParseBool(v)
			if err != nil {
				return apperr.InvalidInput("subdecks must be a boolean", err)
			}
			req.IncludeSubDecks = include
		}

		cards, err := s.study.DueCards(c.Request().Context(), req)
		if err != nil {
			return err
		}

		engine := s.study.Engine()
		now := s.now()
		resp := dueResponse{Cards: make([]dueCard, 0, len(cards))}
		for _, card := range cards {
			resp.Cards = append(resp.Cards, dueCard{Card: card, Due: engine.Describe(card.NextReview, now)})
		}
		return c.JSON(http.StatusOK, resp)
	}
}

func (s *Server) handleGetCard() echo.HandlerFunc {
	return func(c echo.Context) error {
		card, err := s.study.GetCard(c.Request().Context(), study.CardRequest{OwnerID: userID(c), CardID: c.Param("id")})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, card)
	}
}

func (s *Server) handlePostReview() echo.HandlerFunc {
	return func(c echo.Context) error {
		var req reviewRequest
		if err := c.Bind(&req); err != nil {
			return err
		}
		card, err := s.study.SubmitReview(c.Request().Context(), study.ReviewRequest{
			OwnerID:   userID(c),
			CardID:    c.Param("id"),
			SessionID: req.SessionID,
			Quality:   req.Quality,
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, card)
	}
}

func (s *Server) handleResetCard() echo.HandlerFunc {
	return func(c echo.Context) error {
		card, err := s.study.ResetCard(c.Request().Context(), study.CardRequest{OwnerID: userID(c), CardID: c.Param("id")})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, card)
	}
}

func (s *Server) handleGetStats() echo.HandlerFunc {
	return func(c echo.Context) error {
		stats, err := s.analytics.GetUserStats(c.Request().Context(), userID(c), s.now())
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, stats)
	}
}
