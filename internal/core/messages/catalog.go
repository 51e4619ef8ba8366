// Package messages holds the message catalog shared by every API response.
// Each entry maps a stable identifier to the text and HTTP status clients see.
package messages

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
)

type ID string

const (
	SomethingWentWrong   ID = "M001"
	InvalidAuthorization ID = "M002"
	Success              ID = "M015"
	MissingFields        ID = "M019"
	UserNotFound         ID = "M020"
	ConcurrentUpdate     ID = "M021"
	InvalidClient        ID = "M022"
	Unauthenticated      ID = "M023"
)

type Message struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

//go:embed messages.json
var rawCatalog []byte

var catalog map[ID]Message

func init() {
	if err := json.Unmarshal(rawCatalog, &catalog); err != nil {
		panic(fmt.Sprintf("messages: invalid catalog: %v", err))
	}
}

// Get returns the catalog entry for id. Unknown ids resolve to M001 so that a
// response is always produced.
func Get(id ID) Message {
	if m, ok := catalog[id]; ok {
		return m
	}
	if m, ok := catalog[SomethingWentWrong]; ok {
		return m
	}
	return Message{Message: http.StatusText(http.StatusInternalServerError), Code: http.StatusInternalServerError}
}

func Text(id ID) string { return Get(id).Message }

func Code(id ID) int { return Get(id).Code }
