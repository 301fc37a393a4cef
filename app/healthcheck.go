package main

import (
	"net/http"
	"strconv"
)

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	env := envelope{
		"status": "available",
		"system_info": map[string]string{
			"environment":      app.config.Environment,
			"version":          app.config.Version,
			"aggregation_mode": string(app.config.aggregationMode()),
			"uploads_enabled":  strconv.FormatBool(app.mediaService.Enabled()),
		},
	}

	err := app.writeJSON(w, http.StatusOK, env, nil)
	if err != nil {
		app.logger.Error(err.Error())
		http.Error(w, "the server encountered a problem and could not process your request", http.StatusInternalServerError)
	}
}
