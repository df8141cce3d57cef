package source

import "strings"

// Variable names requested from the results endpoint. Scalars default
// to an empty string when absent; zone durations default to "0" so a
// missing zone reads as zero time spent there.
var (
	scalarVariables = []string{
		"rmssd",
		"acwr",
		"averageHeartRate",
		"peakHeartRate",
		"trimp",
		"movementLoad",
	}

	zoneVariables = []string{
		"zoneDuration1",
		"zoneDuration2",
		"zoneDuration3",
		"zoneDuration4",
		"zoneDuration5",
	}
)

func variableQuery() string {
	all := make([]string, 0, len(scalarVariables)+len(zoneVariables))
	all = append(all, scalarVariables...)
	all = append(all, zoneVariables...)
	return strings.Join(all, ",")
}

// extractVariables keys the response entries by name and applies the
// per-variable defaults. Entries with unknown names are ignored.
func extractVariables(entries []variableEntry) map[string]string {
	out := make(map[string]string, len(scalarVariables)+len(zoneVariables))
	for _, name := range scalarVariables {
		out[name] = ""
	}
	for _, name := range zoneVariables {
		out[name] = "0"
	}
	for _, e := range entries {
		if _, ok := out[e.Name]; ok {
			out[e.Name] = e.Value.String()
		}
	}
	return out
}
