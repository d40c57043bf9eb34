package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/playsetlabs/partyroom-backend/internal/apperror"
	"github.com/playsetlabs/partyroom-backend/internal/room"
)

// RoomRepository stores per-session room snapshots. The development server
// writes one after every processed event; the debug endpoint reads them
// back.
type RoomRepository interface {
	CreateOrUpdate(ctx context.Context, snapshot *room.Snapshot) error
	GetBySessionID(ctx context.Context, sessionID string) (*room.Snapshot, error)
	DeleteBySessionID(ctx context.Context, sessionID string) error
}

type dbRoom struct {
	client *redis.Client
}

func NewRoomRepository(client *redis.Client) RoomRepository {
	return &dbRoom{
		client: client,
	}
}

func (that *dbRoom) CreateOrUpdate(ctx context.Context, snapshot *room.Snapshot) error {
	snapshotJSON, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal room snapshot: %w", err)
	}

	roomKey := "room:" + snapshot.SessionID
	if err = that.client.Set(ctx, roomKey, snapshotJSON, 0).Err(); err != nil {
		return fmt.Errorf("failed to set room snapshot: %w", err)
	}

	return nil
}

func (that *dbRoom) GetBySessionID(ctx context.Context, sessionID string) (*room.Snapshot, error) {
	roomKey := "room:" + sessionID

	response, err := that.client.Get(ctx, roomKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, apperror.ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get room snapshot: %w", err)
	}

	var snapshot room.Snapshot
	if err = json.Unmarshal([]byte(response), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room snapshot: %w", err)
	}

	return &snapshot, nil
}

func (that *dbRoom) DeleteBySessionID(ctx context.Context, sessionID string) error {
	roomKey := "room:" + sessionID

	if err := that.client.Del(ctx, roomKey).Err(); err != nil {
		return fmt.Errorf("failed to delete room snapshot: %w", err)
	}

	return nil
}
