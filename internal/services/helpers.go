package services

import (
	"gorm.io/datatypes"

	"github.com/quizdeck/assessment-service/internal/models"
)

func newSettings(s models.AssignmentSettings) datatypes.JSONType[models.AssignmentSettings] {
	return datatypes.NewJSONType(s)
}

func newAnswers(a models.AnswerMap) datatypes.JSONType[models.AnswerMap] {
	return datatypes.NewJSONType(a)
}

func newAntiCheat(d models.AntiCheatData) datatypes.JSONType[models.AntiCheatData] {
	return datatypes.NewJSONType(d)
}
