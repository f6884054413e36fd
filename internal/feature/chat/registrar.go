// Package chat provides helpers for recording chats that interact with the bot
// and keeping their last-seen timestamp updated.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"autoshop_telegram_bot/internal/logging"
)

type chatCollection interface {
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

// Registrar upserts chats as the webhook sees them, so operators can audit
// which chats ever talked to the bot.
type Registrar struct {
	chats  chatCollection
	logger *logrus.Entry
}

// NewRegistrar constructs a Registrar for the provided chats collection.
func NewRegistrar(chats chatCollection, logger *logrus.Entry) *Registrar {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Registrar{
		chats:  chats,
		logger: logger,
	}
}

// EnsureChat upserts the chat record with the provided chat ID and updates
// last_seen_at on every call.
func (r *Registrar) EnsureChat(ctx context.Context, chatID int64, title string) (bool, error) {
	if r == nil || r.chats == nil {
		return false, errors.New("chat registrar is not initialized")
	}
	if ctx == nil {
		return false, errors.New("context is required")
	}
	if chatID == 0 {
		return false, errors.New("chat id is required")
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	updateTitle := strings.TrimSpace(title)

	setFields := bson.M{"last_seen_at": now}
	if updateTitle != "" {
		setFields["title"] = updateTitle
	}

	update := bson.M{
		"$set": setFields,
		"$setOnInsert": bson.M{
			"chat_id":       chatID,
			"first_seen_at": now,
		},
	}

	result, err := r.chats.UpdateOne(ctx,
		bson.M{"chat_id": chatID},
		update,
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, fmt.Errorf("ensure chat: %w", err)
	}

	created := result != nil && result.UpsertedCount > 0
	if created {
		r.logger.WithFields(logging.Fields{
			"event":   "chat_registered",
			"chat_id": chatID,
			"title":   updateTitle,
		}).Info("registered new chat")
		return true, nil
	}

	r.logger.WithFields(logging.Fields{
		"event":   "chat_seen",
		"chat_id": chatID,
		"title":   updateTitle,
	}).Debug("updated chat last seen")

	return false, nil
}
