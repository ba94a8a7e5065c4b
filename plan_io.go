package main

import (
	"bytes"
	"os"
	"path"

	"audio-tools/models"

	"github.com/natefinch/atomic"
)

func writePlanFile(plan *models.Plan, outputPath string) error {
	data, err := plan.ToJSON()

	if err != nil {
		return err
	}

	return atomic.WriteFile(outputPath, bytes.NewReader(data))
}

func readPlanFile(planPath string) (*models.Plan, error) {
	data, err := os.ReadFile(path.Clean(planPath))

	if err != nil {
		return nil, err
	}

	return models.PlanFromJSON(data)
}
