package backend

import (
	"context"
	"fmt"

	"github.com/relayhq/points-engine/points"
)

// UserPoints is the points service's per-user view: the raw grant events
// plus the backend's running total.
type UserPoints struct {
	Events      []points.PointEvent
	TotalPoints int64
}

// UserPoints fetches the point events earned by one user.
// GET /points/user/{userId}
func (c *Client) UserPoints(ctx context.Context, userID, token string) (*UserPoints, error) {
	var data struct {
		Points      []pointEventDTO `json:"points"`
		TotalPoints int64           `json:"totalPoints"`
	}
	if err := c.get(ctx, "/points/user/"+userID, token, &data); err != nil {
		return nil, err
	}

	events, err := toPointEvents(data.Points)
	if err != nil {
		return nil, fmt.Errorf("points for user %s: %w", userID, err)
	}
	return &UserPoints{Events: events, TotalPoints: data.TotalPoints}, nil
}

// AdminPoints fetches the platform-wide point event list visible to an
// administrator.
// GET /points/admin/{adminId}
func (c *Client) AdminPoints(ctx context.Context, adminID, token string) ([]points.PointEvent, error) {
	var dtos []pointEventDTO
	if err := c.get(ctx, "/points/admin/"+adminID, token, &dtos); err != nil {
		return nil, err
	}
	return toPointEvents(dtos)
}
