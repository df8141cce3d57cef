package source

import (
	"bytes"
	"encoding/json"
)

// flexID decodes a JSON value that may arrive as either a string or a
// number, normalizing it to a string. Vendor ids and variable values
// have both shapes in the wild.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

func (f flexID) String() string { return string(f) }

// Wire shapes for the source API. Absent fields decode to zero values;
// defaulting rules are applied during variable extraction.

type accountsResponse struct {
	Accounts []accountEntry `json:"accounts"`
}

type accountEntry struct {
	AccountID string `json:"accountId"`
	Name      string `json:"name"`
}

type apiKeyResponse struct {
	APIKey string `json:"apikey"`
}

type rosterResponse struct {
	Athletes []rosterEntry `json:"athletes"`
}

type rosterEntry struct {
	AthleteID flexID `json:"athleteId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type measurementsResponse struct {
	Measurements []measurementSummary `json:"measurements"`
}

type measurementSummary struct {
	MeasurementID flexID `json:"measurementId"`
}

type resultsResponse struct {
	StartTime       string          `json:"startTime"`
	EndTime         string          `json:"endTime"`
	MeasurementType string          `json:"measurementType"`
	Variables       []variableEntry `json:"variables"`
}

type variableEntry struct {
	Name  string `json:"name"`
	Value flexID `json:"value"`
}

// Account is one coach account visible to the API consumer.
type Account struct {
	ID   string
	Name string
}

// Detail is the extracted form of one measurement result.
type Detail struct {
	StartTime       string
	EndTime         string
	MeasurementType string
	Variables       map[string]string
}
