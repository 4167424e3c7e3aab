package core

import (
	"math"
	"time"
)

// Metrics are the counters accumulated over a single cleaning run.
type Metrics struct {
	RowsProcessed     int       `json:"rowsProcessed"`
	CellsProcessed    int       `json:"cellsProcessed"`
	IssuesFixed       int       `json:"issuesFixed"`
	ColumnsRemoved    int       `json:"columnsRemoved"`
	DuplicatesRemoved int       `json:"duplicatesRemoved"`
	StartTime         time.Time `json:"startTime"`
	EndTime           time.Time `json:"endTime"`
}

// Duration returns the elapsed run time, zero if the run has not ended.
func (m Metrics) Duration() time.Duration {
	if m.EndTime.IsZero() || m.EndTime.Before(m.StartTime) {
		return 0
	}
	return m.EndTime.Sub(m.StartTime)
}

// Rating is a quality tier.
type Rating string

const (
	RatingExcellent Rating = "Excellent"
	RatingGood      Rating = "Good"
	RatingFair      Rating = "Fair"
	RatingPoor      Rating = "Poor"
)

// ratingBands are checked from the top; a score below a band's threshold
// falls to that band's rating. Scores above every threshold are Excellent.
var ratingBands = []struct {
	below  float64
	rating Rating
}{
	{70, RatingGood},
	{60, RatingFair},
	{50, RatingPoor},
}

const (
	scoreFloor          = 50
	issueWeight         = 0.2
	issuePenaltyCap     = 40
	duplicateWeight     = 0.3
	duplicatePenaltyCap = 20
)

// QualityReport summarizes a finished run.
type QualityReport struct {
	Score           float64 `json:"score"`
	Rating          Rating  `json:"rating"`
	DurationSeconds float64 `json:"durationSeconds"`
	RowsPerSecond   int     `json:"rowsPerSecond"`
	IssuesFixed     int     `json:"issuesFixed"`
}

// DisplayScore returns the score rounded to a whole percentage.
func (q QualityReport) DisplayScore() int {
	return int(math.Round(q.Score))
}

// Score derives a QualityReport from run metrics. The score is bounded to
// [50, 100].
func Score(m Metrics) QualityReport {
	issuePenalty := math.Min(float64(m.IssuesFixed)*issueWeight, issuePenaltyCap)
	dupPenalty := math.Min(float64(m.DuplicatesRemoved)*duplicateWeight, duplicatePenaltyCap)
	score := math.Max(scoreFloor, 100-issuePenalty-dupPenalty)

	rating := RatingExcellent
	for _, band := range ratingBands {
		if score < band.below {
			rating = band.rating
		}
	}

	secs := m.Duration().Seconds()
	rps := 0
	if secs > 0 && m.RowsProcessed > 0 {
		rps = int(math.Round(float64(m.RowsProcessed) / secs))
	}

	return QualityReport{
		Score:           score,
		Rating:          rating,
		DurationSeconds: secs,
		RowsPerSecond:   rps,
		IssuesFixed:     m.IssuesFixed,
	}
}
