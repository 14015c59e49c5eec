package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"gamestore/backend/internal/codec"
	"gamestore/backend/internal/middleware"
	"gamestore/backend/internal/models"
	"gamestore/backend/internal/repository"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// GameInput documents the request body of create and update. Decoding goes
// through codec, not through this struct.
type GameInput struct {
	Name              string  `json:"name" example:"Hades"`
	Description       string  `json:"description" example:"Roguelike dungeon crawler"`
	Price             float64 `json:"price" example:"24.99"`
	InventoryQuantity *int    `json:"inventory_quantity" example:"12"`
}

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"Failed to retrieve games"`
}

// endregion

// GameHandler serves the /games collection and its items.
type GameHandler struct {
	games repository.GameRepository
}

func NewGameHandler(games repository.GameRepository) *GameHandler {
	return &GameHandler{games: games}
}

// RegisterRoutes mounts the handlers on rg, which is expected to be /games.
func (h *GameHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.GetGames)
	rg.POST("", h.CreateGame)
	rg.GET("/:id", h.GetGameByID)
	rg.PUT("/:id", h.UpdateGame)
	rg.DELETE("/:id", h.DeleteGame)
}

// region --- Collection Handlers ---

// GetGames godoc
// @Summary      List games
// @Description  Returns every game in store order.
// @Tags         games
// @Produce      json
// @Success      200  {array}   codec.GameResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /games [get]
func (h *GameHandler) GetGames(c *gin.Context) {
	games, err := h.games.List(c.Request.Context())
	if err != nil {
		storeFailure(c, "Failed to retrieve games", err)
		return
	}
	c.JSON(http.StatusOK, codec.EncodeAll(games))
}

// CreateGame godoc
// @Summary      Create a new game
// @Description  Validates the payload and stores a new game. The id is assigned by the store.
// @Tags         games
// @Accept       json
// @Produce      json
// @Param        input body GameInput true "Game Info"
// @Success      201  {object}  codec.GameResponse
// @Failure      400  {object}  map[string][]string "Field errors"
// @Failure      500  {object}  ErrorResponse
// @Router       /games [post]
func (h *GameHandler) CreateGame(c *gin.Context) {
	payload, ok := readPayload(c)
	if !ok {
		return
	}

	game, errs := codec.Decode(payload)
	if errs != nil {
		validationFailure(c, errs)
		return
	}

	if err := h.games.Create(c.Request.Context(), game); err != nil {
		storeFailure(c, "Failed to create game", err)
		return
	}

	c.JSON(http.StatusCreated, codec.Encode(*game))
}

// endregion

// region --- Item Handlers ---

// GetGameByID godoc
// @Summary      Get a single game by ID
// @Tags         games
// @Produce      json
// @Param        id path int true "Game ID"
// @Success      200 {object} codec.GameResponse
// @Failure      404 "Game not found"
// @Failure      500 {object} ErrorResponse
// @Router       /games/{id} [get]
func (h *GameHandler) GetGameByID(c *gin.Context) {
	id, ok := gameID(c)
	if !ok {
		return
	}

	game, err := h.games.Get(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		storeFailure(c, "Failed to retrieve game", err)
		return
	}

	c.JSON(http.StatusOK, codec.Encode(*game))
}

// UpdateGame godoc
// @Summary      Update a game
// @Description  Overwrites only the fields present in the body. inventory_quantity may be set to null.
// @Tags         games
// @Accept       json
// @Produce      json
// @Param        id    path      int       true  "Game ID"
// @Param        input body      GameInput true  "Fields to change"
// @Success      200   {object}  codec.GameResponse
// @Failure      400   {object}  map[string][]string "Field errors"
// @Failure      404   "Game not found"
// @Failure      500   {object}  ErrorResponse
// @Router       /games/{id} [put]
func (h *GameHandler) UpdateGame(c *gin.Context) {
	id, ok := gameID(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		validationFailure(c, codec.FieldErrors{codec.SchemaKey: {codec.MsgInvalidJSON}})
		return
	}

	// Decoding runs inside the transaction so a missing row wins over a bad body.
	game, err := h.games.Update(c.Request.Context(), id, func(g *models.Game) error {
		payload, errs := codec.Parse(body)
		if errs != nil {
			return errs
		}
		patch, errs := codec.DecodePatch(payload)
		if errs != nil {
			return errs
		}
		patch.Apply(g)
		return nil
	})

	var fieldErrs codec.FieldErrors
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.Status(http.StatusNotFound)
	case errors.As(err, &fieldErrs):
		validationFailure(c, fieldErrs)
	case err != nil:
		storeFailure(c, "Failed to update game", err)
	default:
		c.JSON(http.StatusOK, codec.Encode(*game))
	}
}

// DeleteGame godoc
// @Summary      Delete a game
// @Description  Removes the game permanently. Deleting an already deleted game returns 404.
// @Tags         games
// @Param        id path int true "Game ID"
// @Success      204 "Deleted"
// @Failure      404 "Game not found"
// @Failure      500 {object} ErrorResponse
// @Router       /games/{id} [delete]
func (h *GameHandler) DeleteGame(c *gin.Context) {
	id, ok := gameID(c)
	if !ok {
		return
	}

	err := h.games.Delete(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.Status(http.StatusNotFound)
		return
	}
	if err != nil {
		storeFailure(c, "Failed to delete game", err)
		return
	}

	c.Status(http.StatusNoContent)
}

// endregion

// region --- Helpers ---

// gameID parses the :id path segment. Anything that is not a positive
// integer cannot name a row, so it answers 404.
func gameID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.Status(http.StatusNotFound)
		return 0, false
	}
	return uint(id), true
}

func readPayload(c *gin.Context) (codec.Payload, bool) {
	body, err := c.GetRawData()
	if err != nil {
		validationFailure(c, codec.FieldErrors{codec.SchemaKey: {codec.MsgInvalidJSON}})
		return nil, false
	}
	payload, errs := codec.Parse(body)
	if errs != nil {
		validationFailure(c, errs)
		return nil, false
	}
	return payload, true
}

func validationFailure(c *gin.Context, errs codec.FieldErrors) {
	c.JSON(http.StatusBadRequest, errs)
}

func storeFailure(c *gin.Context, msg string, err error) {
	log.Printf("[games] rid=%s %s: %v", c.GetString(middleware.RequestIDKey), msg, err)
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: msg})
}

// endregion
