package lifecycle

import "github.com/linesmerrill/violation-case-api/models"

// Latest returns the hearing with the highest sequence number, or nil
func Latest(hearings []models.Hearing) *models.Hearing {
	var latest *models.Hearing
	for i := range hearings {
		if latest == nil || hearings[i].Details.SequenceNo > latest.Details.SequenceNo {
			latest = &hearings[i]
		}
	}
	return latest
}

// NextSequence is one past the latest sequence number, starting at 1
func NextSequence(hearings []models.Hearing) int {
	latest := Latest(hearings)
	if latest == nil {
		return 1
	}
	return latest.Details.SequenceNo + 1
}

// ActiveCount counts hearings flagged active
func ActiveCount(hearings []models.Hearing) int {
	n := 0
	for _, h := range hearings {
		if h.Details.IsActive {
			n++
		}
	}
	return n
}
