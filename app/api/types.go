package api

import (
	"context"

	"github.com/oppwire/harvester/app/database"
	"github.com/oppwire/harvester/app/pipeline"
)

type FeedProcessor interface {
	ProcessFeedByID(ctx context.Context, id string) (*pipeline.ProcessingResult, error)
}

var _ FeedProcessor = (*pipeline.Processor)(nil)

type RunTrigger interface {
	TriggerAll() bool
}

var _ RunTrigger = (*pipeline.Runner)(nil)

type SettingsWriter interface {
	Set(category string, key string, value string) error
}

type Handler struct {
	feedRepo   database.FeedRepository
	entityRepo database.EntityRepository
	settings   SettingsWriter
	processor  FeedProcessor
	runner     RunTrigger
}
