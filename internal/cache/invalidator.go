package cache

import (
	"context"
	"log"

	"github.com/redis/go-redis/v9"
)

type Invalidator struct {
	rdb *redis.Client
}

func NewInvalidator(rdb *redis.Client) *Invalidator {
	return &Invalidator{rdb: rdb}
}

// PurgeEventsList drops every cached page of the event list.
func (ci *Invalidator) PurgeEventsList(ctx context.Context) {
	iter := ci.rdb.Scan(ctx, 0, listPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := ci.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			log.Printf("Failed to purge %s: %v", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("Failed to scan event list cache: %v", err)
	}
}

func (ci *Invalidator) PurgeEventItem(ctx context.Context, id string) {
	if err := ci.rdb.Del(ctx, itemPrefix+id).Err(); err != nil {
		log.Printf("Failed to purge cached event %s: %v", id, err)
	}
}

// PurgeEvent invalidates everything that renders the event.
func (ci *Invalidator) PurgeEvent(ctx context.Context, id string) {
	ci.PurgeEventsList(ctx)
	ci.PurgeEventItem(ctx, id)
}
