package grading

import "github.com/quizdeck/assessment-service/internal/models"

// Review thresholds. A submission is flagged as soon as any single counter
// crosses its limit, or when the overall incident count does.
const (
	flagTabSwitches     = 3
	flagFullscreenExits = 2
	flagCopyAttempts    = 3
	flagRightClicks     = 5
	flagTotalIncidents  = 5
)

// AggregateProctoring folds the client-reported event stream into the
// per-submission anti-cheat snapshot. Event order is preserved; unknown event
// types still count toward the incident total.
func AggregateProctoring(events []models.ProctoringEvent, quizDuration int) models.AntiCheatData {
	data := models.AntiCheatData{
		SuspiciousActivities: make([]models.ProctoringEvent, 0, len(events)),
		QuizDuration:         quizDuration,
	}

	for _, ev := range events {
		switch ev.Type {
		case models.EventTabSwitch:
			data.TabSwitchCount++
		case models.EventFullscreenExit:
			data.FullscreenExitCount++
		case models.EventCopyAttempt:
			data.CopyAttempts++
		case models.EventRightClick:
			data.RightClickAttempts++
		}
		data.SuspiciousActivities = append(data.SuspiciousActivities, ev)
	}
	data.TotalSuspiciousActivities = len(data.SuspiciousActivities)
	data.FlaggedForReview = flagged(data)
	return data
}

func flagged(d models.AntiCheatData) bool {
	return d.TabSwitchCount >= flagTabSwitches ||
		d.FullscreenExitCount >= flagFullscreenExits ||
		d.CopyAttempts >= flagCopyAttempts ||
		d.RightClickAttempts >= flagRightClicks ||
		d.TotalSuspiciousActivities >= flagTotalIncidents
}
