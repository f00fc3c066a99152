/*
Package server implements msgpack IPC for the interest catalog and suggestion cache.

Clients write a stream of msgpack-encoded Request maps to stdin and read one
Response per request from stdout, in order. The first message on stdout is a
{"status": "ready"} handshake once the catalog is loaded.

A request names an action and carries only the fields that action needs:

	{"id": "r1", "action": "search", "q": "java", "l": 10}
	{"id": "r2", "action": "filter", "category": "technical", "tags": ["backend"], "min_relevance": 0.5}
	{"id": "r3", "action": "suggest", "q": "py", "session": "skills"}
	{"id": "r4", "action": "add_custom", "name": "Bouldering", "metadata": {"tags": ["outdoor"]}}
	{"id": "r5", "action": "recommend", "cv": {"summary": "...", "technical_skills": ["Go"]}}
	{"id": "r6", "action": "validate", "items": [...], "cv": {...}}
	{"id": "r7", "action": "complete", "q": "jav"}
	{"id": "r8", "action": "health"}

Every response echoes the id and carries a status ("ok" or "error"), an error
message when the status is "error", and the handling time in microseconds:

	{"id": "r1", "status": "ok", "items": [...], "c": 2, "t": 145}

Item-returning actions (search, filter, recommend, complete) fill "items";
suggest fills "options" and reports whether they came from the session cache.
*/
package server

import (
	"github.com/bastiangx/cvsuggest/pkg/catalog"
	"github.com/bastiangx/cvsuggest/pkg/suggest"
)

const (
	ActionSearch    = "search"
	ActionFilter    = "filter"
	ActionRecommend = "recommend"
	ActionSuggest   = "suggest"
	ActionAddCustom = "add_custom"
	ActionValidate  = "validate"
	ActionComplete  = "complete"
	ActionHealth    = "health"

	StatusOK    = "ok"
	StatusError = "error"
	StatusReady = "ready"
)

// Request is the envelope for every action.
type Request struct {
	ID           string                  `msgpack:"id"`
	Action       string                  `msgpack:"action"`
	Query        string                  `msgpack:"q,omitempty"`
	Limit        int                     `msgpack:"l,omitempty"`
	Category     string                  `msgpack:"category,omitempty"`
	Tags         []string                `msgpack:"tags,omitempty"`
	MinRelevance *float64                `msgpack:"min_relevance,omitempty"`
	Session      string                  `msgpack:"session,omitempty"`
	Name         string                  `msgpack:"name,omitempty"`
	Metadata     *catalog.CustomMetadata `msgpack:"metadata,omitempty"`
	CV           *catalog.CVDocument     `msgpack:"cv,omitempty"`
	Items        []catalog.InterestItem  `msgpack:"items,omitempty"`
}

// Response is the envelope for every reply.
type Response struct {
	ID         string                    `msgpack:"id"`
	Status     string                    `msgpack:"status"`
	Error      string                    `msgpack:"error,omitempty"`
	Items      []catalog.InterestItem    `msgpack:"items,omitempty"`
	Item       *catalog.InterestItem     `msgpack:"item,omitempty"`
	Options    []suggest.Option          `msgpack:"options,omitempty"`
	Cached     bool                      `msgpack:"cached,omitempty"`
	Validation *catalog.ValidationResult `msgpack:"validation,omitempty"`
	Count      int                       `msgpack:"c"`
	TimeTaken  int64                     `msgpack:"t"`
}
