package main

import (
	"encoding/json"
	"log/slog"

	"github.com/sushihentaime/postline/internal/common"
)

// watchContentChanges flushes the local cache whenever any instance reports a content change.
// It returns once the consumer is registered.
func (app *application) watchContentChanges(mb common.MessageConsumer, queue common.Queue) {
	msgs, err := mb.Consume(common.ContentChangedKey, common.ContentExchange, queue)
	if err != nil {
		app.logger.Error("could not consume content changes", slog.String("error", err.Error()))
		return
	}

	go func() {
		for msg := range msgs {
			var ev common.ContentChanged

			err := json.Unmarshal(msg.Body, &ev)
			if err != nil {
				app.logger.Error("could not unmarshal content change", slog.String("error", err.Error()))
			} else {
				app.logger.Debug("content changed", slog.String("resource", ev.Resource), slog.String("id", ev.ID.String()))
			}

			app.cache.Flush()
			msg.Ack(false)
		}
	}()
}
