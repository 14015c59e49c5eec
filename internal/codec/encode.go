package codec

import "gamestore/backend/internal/models"

// GameResponse is the wire form of a game. Field order is part of the contract.
type GameResponse struct {
	ID                uint    `json:"id" example:"1"`
	Name              string  `json:"name" example:"Hades"`
	Description       string  `json:"description" example:"Roguelike dungeon crawler"`
	Price             float64 `json:"price" example:"24.99"`
	InventoryQuantity *int    `json:"inventory_quantity" example:"12"`
}

// Encode serializes a single game.
func Encode(g models.Game) GameResponse {
	return GameResponse{
		ID:                g.ID,
		Name:              g.Name,
		Description:       g.Description,
		Price:             g.Price,
		InventoryQuantity: g.InventoryQuantity,
	}
}

// EncodeAll serializes games in the order given. It never returns nil, so
// an empty result marshals as [].
func EncodeAll(games []models.Game) []GameResponse {
	out := make([]GameResponse, 0, len(games))
	for _, g := range games {
		out = append(out, Encode(g))
	}
	return out
}
