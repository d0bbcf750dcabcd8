package attendance

import "math"

// DefaultWindowDays is the default look-back of presence statistics.
const DefaultWindowDays = 90

// CountAllPresent counts the meetings in which every id of memberIDs was
// present. An empty memberIDs matches every meeting.
func CountAllPresent(meetings []map[int64]struct{}, memberIDs []int64) int {
	count := 0
	for _, present := range meetings {
		all := true
		for _, id := range memberIDs {
			if _, ok := present[id]; !ok {
				all = false
				break
			}
		}
		if all {
			count++
		}
	}
	return count
}

// Percent returns presentAll/totalMeetings as a percentage rounded to one
// decimal place, or nil when there were no meetings.
func Percent(presentAll, totalMeetings int) *float64 {
	if totalMeetings == 0 {
		return nil
	}
	p := math.Round(float64(presentAll)/float64(totalMeetings)*1000) / 10
	return &p
}
