package dest

// Wire shapes for the destination platform API. All endpoints take the
// same informat/format query pair and a JSON body; pagination rides a
// server-issued cursor echoed back into the next request.

type userSyncRequest struct {
	LastSynchronisationTimeOnServer int64  `json:"lastSynchronisationTimeOnServer"`
	Paginate                        bool   `json:"paginate"`
	Cursor                          string `json:"cursor,omitempty"`
}

type userSyncResponse struct {
	Users      []userEntry `json:"users"`
	NextCursor string      `json:"nextCursor"`
}

type userEntry struct {
	UserID    int    `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type eventSyncRequest struct {
	FormName                        string `json:"formName"`
	LastSynchronisationTimeOnServer int64  `json:"lastSynchronisationTimeOnServer"`
	UserIDs                         []int  `json:"userIds"`
	Paginate                        bool   `json:"paginate"`
	Cursor                          string `json:"cursor,omitempty"`
}

type eventSyncResponse struct {
	Export eventExport `json:"export"`
}

type eventExport struct {
	Events     []eventEntry `json:"events"`
	NextCursor string       `json:"nextCursor"`
}

type eventEntry struct {
	Rows []eventRow `json:"rows"`
}

type eventRow struct {
	Row   int         `json:"row"`
	Pairs []eventPair `json:"pairs"`
}

type eventPair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type eventImportRequest struct {
	FormName   string     `json:"formName"`
	StartDate  string     `json:"startDate"`
	StartTime  string     `json:"startTime"`
	FinishDate string     `json:"finishDate"`
	FinishTime string     `json:"finishTime"`
	UserID     userIDBody `json:"userId"`
	Rows       []eventRow `json:"rows"`
}

type userIDBody struct {
	UserID int `json:"userId"`
}

// NameKey matches a fetched record to a destination user. Matching is
// by exact trimmed first/last name; ambiguity resolves last-writer-wins.
type NameKey struct {
	First string
	Last  string
}
