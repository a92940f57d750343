package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/verte-zerg/splitclock/internal/model"
	"github.com/verte-zerg/splitclock/internal/timing"
)

// RenderSummary prints run-level totals and a sparkline of finish times.
func RenderSummary(w io.Writer, r Report, window, width int) error {
	lines := SummaryLines(r)
	if _, err := fmt.Fprintf(w, "%s / %s\n", r.Run.Game, r.Run.Category); err != nil {
		return err
	}
	for _, line := range lines {
		if _, err := fmt.Fprintf(w, "%s %s\n", line[0], line[1]); err != nil {
			return err
		}
	}
	times := MovingAverage(r.FinishTimes(), window)
	if len(times) > 0 {
		if width > 0 && len(times) > width {
			times = times[len(times)-width:]
		}
		if _, err := fmt.Fprintf(w, "Finish times: %s\n", Sparkline(times)); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// SummaryLines returns label/value pairs describing the run.
func SummaryLines(r Report) [][2]string {
	pb := timing.Placeholder
	if d, ok := r.PBTime(); ok {
		pb = timing.FormatDuration(d, true)
	}
	sob := timing.Placeholder
	if d, ok := SumOfBestTime(r.Segments); ok {
		sob = timing.FormatDuration(d, true)
	}
	wr := timing.Placeholder
	if r.Run.WorldRecord != nil {
		wr = timing.FormatDuration(*r.Run.WorldRecord, true) + " by " + r.Run.WorldRecordOwner
	}
	return [][2]string{
		{"Attempts:", strconv.Itoa(r.Run.AttemptCount)},
		{"Finished:", strconv.Itoa(r.FinishedCount())},
		{PersonalBest.Name(), pb},
		{SumOfBest.Name(), sob},
		{WorldRecord.Name(), wr},
	}
}

// SegmentRows returns one row per segment: name, PB, best, resets, reach rate.
func SegmentRows(r Report) [][]string {
	rows := make([][]string, 0, len(r.Segments))
	for i, seg := range r.Segments {
		rows = append(rows, []string{
			seg.Name(),
			timing.FormatOpt(seg.PBRel(), true),
			timing.FormatOpt(seg.BestRel(), true),
			strconv.Itoa(seg.ResetCount()),
			fmt.Sprintf("%.1f%%", ReachRate(r.Segments, r.Run.AttemptCount, i)),
		})
	}
	return rows
}

// SegmentHeaders are the column titles for SegmentRows.
var SegmentHeaders = []string{"Segment", "PB", "Best", "Resets", "Reach"}

// RenderSegmentTable prints per-segment PB, best and reset data.
func RenderSegmentTable(w io.Writer, r Report) error {
	if len(r.Segments) == 0 {
		_, err := fmt.Fprintln(w, "No segments found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Segments"); err != nil {
		return err
	}
	lines := formatTable(SegmentHeaders, SegmentRows(r), map[int]bool{1: true, 2: true, 3: true, 4: true})
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// AttemptRows returns one row per attempt, newest last.
func AttemptRows(attempts []model.AttemptRecord, segmentNames []string) [][]string {
	rows := make([][]string, 0, len(attempts))
	for _, a := range attempts {
		reached := "finished"
		if !a.Finished {
			reached = strconv.Itoa(a.Reached + 1)
			if a.Reached >= 0 && a.Reached < len(segmentNames) {
				reached = segmentNames[a.Reached]
			}
		}
		mark := ""
		if a.PersonalBest {
			mark = "PB"
		}
		rows = append(rows, []string{
			strconv.FormatInt(a.ID, 10),
			a.EndedAt.Local().Format("2006-01-02 15:04"),
			reached,
			timing.FormatDuration(a.Time, true),
			mark,
		})
	}
	return rows
}

// AttemptHeaders are the column titles for AttemptRows.
var AttemptHeaders = []string{"#", "Ended", "Reached", "Time", ""}

// RenderAttempts prints the attempt log.
func RenderAttempts(w io.Writer, r Report) error {
	if len(r.Attempts) == 0 {
		_, err := fmt.Fprintln(w, "No attempts found.")
		return err
	}
	if _, err := fmt.Fprintln(w, "Attempts"); err != nil {
		return err
	}
	lines := formatTable(AttemptHeaders, AttemptRows(r.Attempts, r.Run.SegmentNames()), map[int]bool{0: true, 3: true})
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
